package jsonstore

import (
	"context"
	"fmt"

	"github.com/steveyegge/tagtrace/internal/graph"
	"github.com/steveyegge/tagtrace/internal/types"
	"github.com/steveyegge/tagtrace/internal/validation"
)

// ValidateTag checks entry against the format rules and the current graph.
// The entry's own children override the stored ones, so a proposed edit can
// be validated before it is applied.
func (s *Store) ValidateTag(ctx context.Context, entry *types.TagEntry) (*types.ValidationResult, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	res := &types.ValidationResult{Errors: validation.ValidateEntry(entry)}

	s.mu.RLock()
	children := s.childrenLocked(entry)
	if cycle := graph.FindCycle(entry.ID, children); cycle != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("circular reference: %v", cycle))
	}
	s.mu.RUnlock()

	if entry.IsOrphan() {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s has no parents", entry.ID))
	}
	res.Valid = len(res.Errors) == 0
	return res, nil
}

// GetStatistics counts tags by type, category and status, plus orphans and
// tags from which a cycle is reachable.
func (s *Store) GetStatistics(ctx context.Context) (*types.Statistics, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := &types.Statistics{
		TotalTags:  len(s.db.Tags),
		ByType:     make(map[string]int),
		ByCategory: make(map[string]int),
		ByStatus:   make(map[string]int),
	}
	children := s.childrenLocked(nil)
	for id, e := range s.db.Tags {
		st.ByType[string(e.Type)]++
		st.ByCategory[string(e.Category)]++
		st.ByStatus[string(e.Status)]++
		if e.IsOrphan() {
			st.OrphanedTags++
		}
		if graph.HasCycle(id, children) {
			st.CircularReferences++
		}
	}
	return st, nil
}

// childrenLocked returns an adjacency function over the stored graph with
// override's edges substituted for its own id.
func (s *Store) childrenLocked(override *types.TagEntry) graph.ChildrenFunc {
	return func(id string) []string {
		if override != nil && id == override.ID {
			return override.Children
		}
		if e, ok := s.db.Tags[id]; ok {
			return e.Children
		}
		return nil
	}
}
