package jsonstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/steveyegge/tagtrace/internal/storage"
	"github.com/steveyegge/tagtrace/internal/types"
)

// CreateTag inserts a new entry. Unset type, category, status and priority
// take defaults; both timestamps are set to now.
func (s *Store) CreateTag(ctx context.Context, entry *types.TagEntry) (*types.TagEntry, error) {
	if entry == nil || entry.ID == "" {
		return nil, storage.ErrIDRequired
	}
	if !types.IsValidID(entry.ID) {
		return nil, fmt.Errorf("%w: %q", storage.ErrInvalidID, entry.ID)
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	e := entry.Clone()
	e.SetDefaults()
	if err := checkClosedSets(e.Type, e.Category, e.Status, e.Priority); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.db.Tags[e.ID]; exists {
		return nil, fmt.Errorf("%w: %s", storage.ErrDuplicateID, e.ID)
	}
	now := s.now()
	e.CreatedAt = now
	e.UpdatedAt = now
	s.db.Tags[e.ID] = e
	s.addToIndexes(e)
	s.cache.Add(e.ID, e.Clone())
	s.markDirty()
	return e.Clone(), nil
}

// GetTag returns a copy of the entry, or nil when it does not exist.
func (s *Store) GetTag(ctx context.Context, id string) (*types.TagEntry, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if e, ok := s.cache.Get(id); ok {
		return e.Clone(), nil
	}

	// Fill the cache under the read lock so a concurrent update cannot
	// interleave its invalidation with this fill.
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.db.Tags[id]
	if !ok {
		return nil, nil
	}
	s.cache.Add(id, e.Clone())
	return e.Clone(), nil
}

// UpdateTag applies a partial update. The id cannot change, and UpdatedAt
// always moves strictly forward.
func (s *Store) UpdateTag(ctx context.Context, id string, u types.TagUpdate) (*types.TagEntry, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.db.Tags[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}

	next := cur.Clone()
	applyUpdate(next, u)
	if err := checkClosedSets(next.Type, next.Category, next.Status, next.Priority); err != nil {
		return nil, err
	}
	next.ID = id
	next.UpdatedAt = s.nextUpdatedAt(cur)

	s.removeFromIndexes(cur)
	s.db.Tags[id] = next
	s.addToIndexes(next)
	s.cache.Remove(id)
	s.markDirty()
	return next.Clone(), nil
}

// DeleteTag removes an entry and reports whether it existed.
func (s *Store) DeleteTag(ctx context.Context, id string) (bool, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.db.Tags[id]
	if !ok {
		return false, nil
	}
	s.removeFromIndexes(cur)
	delete(s.db.Tags, id)
	s.cache.Remove(id)
	s.markDirty()
	return true, nil
}

// AllTags returns copies of every entry, sorted by id.
func (s *Store) AllTags(ctx context.Context) ([]*types.TagEntry, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.TagEntry, 0, len(s.db.Tags))
	for _, id := range s.sortedIDsLocked() {
		out = append(out, s.db.Tags[id].Clone())
	}
	return out, nil
}

func (s *Store) sortedIDsLocked() []string {
	ids := make([]string, 0, len(s.db.Tags))
	for id := range s.db.Tags {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// nextUpdatedAt is later than both timestamps of cur even when the clock
// has not advanced.
func (s *Store) nextUpdatedAt(cur *types.TagEntry) time.Time {
	prev := cur.UpdatedAt
	if cur.CreatedAt.After(prev) {
		prev = cur.CreatedAt
	}
	now := s.now()
	if !now.After(prev) {
		return prev.Add(time.Nanosecond)
	}
	return now
}

func applyUpdate(e *types.TagEntry, u types.TagUpdate) {
	if u.Type != nil {
		e.Type = *u.Type
	}
	if u.Category != nil {
		e.Category = *u.Category
	}
	if u.Title != nil {
		e.Title = *u.Title
	}
	if u.Description != nil {
		e.Description = *u.Description
	}
	if u.Status != nil {
		e.Status = *u.Status
	}
	if u.Priority != nil {
		e.Priority = *u.Priority
	}
	if u.Parents != nil {
		e.Parents = append([]string{}, (*u.Parents)...)
	}
	if u.Children != nil {
		e.Children = append([]string{}, (*u.Children)...)
	}
	if u.Files != nil {
		e.Files = append([]string{}, (*u.Files)...)
	}
	if u.Author != nil {
		e.Author = *u.Author
	}
	if len(u.Metadata) > 0 {
		if e.Metadata == nil {
			e.Metadata = make(map[string]any, len(u.Metadata))
		}
		for k, v := range u.Metadata {
			if v == nil {
				delete(e.Metadata, k)
				continue
			}
			e.Metadata[k] = v
		}
	}
}

func checkClosedSets(t types.TagType, c types.Category, st types.Status, p types.Priority) error {
	switch {
	case !t.IsValid():
		return fmt.Errorf("%w: type %q", storage.ErrInvalidField, t)
	case !c.IsValid():
		return fmt.Errorf("%w: category %q", storage.ErrInvalidField, c)
	case !st.IsValid():
		return fmt.Errorf("%w: status %q", storage.ErrInvalidField, st)
	case !p.IsValid():
		return fmt.Errorf("%w: priority %q", storage.ErrInvalidField, p)
	}
	return nil
}
