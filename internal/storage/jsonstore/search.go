package jsonstore

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/steveyegge/tagtrace/internal/types"
)

// cachedSearch memoises the ids matched by a query at one generation.
type cachedSearch struct {
	gen uint64
	ids []string
}

// Search returns every entry matching all set filters, sorted by id. Type,
// category and status filters are resolved through the secondary indexes
// before the remaining filters scan the narrowed set. Repeating a query with
// no intervening write is served from the result cache.
func (s *Store) Search(ctx context.Context, q types.TagQuery) (*types.SearchResult, error) {
	start := time.Now()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	var re *regexp.Regexp
	if q.IDPattern != "" {
		var err error
		re, err = regexp.Compile(q.IDPattern)
		if err != nil {
			return nil, fmt.Errorf("invalid id pattern %q: %w", q.IDPattern, err)
		}
	}
	key := queryKey(q)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	if c, ok := s.results.Get(key); ok && c.gen == s.gen {
		s.resultHits.Add(1)
		ids = c.ids
	} else {
		s.resultMiss.Add(1)
		for _, id := range s.candidatesLocked(q) {
			if matches(s.db.Tags[id], q, re) {
				ids = append(ids, id)
			}
		}
		s.results.Add(key, cachedSearch{gen: s.gen, ids: ids})
	}

	tags := make([]*types.TagEntry, 0, len(ids))
	for _, id := range ids {
		tags = append(tags, s.db.Tags[id].Clone())
	}
	return &types.SearchResult{Tags: tags, Total: len(tags), Elapsed: time.Since(start)}, nil
}

// candidatesLocked intersects the index postings for every indexed filter,
// or returns all ids when the query has none. The result is sorted.
func (s *Store) candidatesLocked(q types.TagQuery) []string {
	if !q.IsIndexed() {
		return s.sortedIDsLocked()
	}
	var sets [][]string
	if len(q.Types) > 0 {
		sets = append(sets, union(s.db.Indexes.ByType, q.Types))
	}
	if len(q.Categories) > 0 {
		sets = append(sets, union(s.db.Indexes.ByCategory, q.Categories))
	}
	if len(q.Statuses) > 0 {
		sets = append(sets, union(s.db.Indexes.ByStatus, q.Statuses))
	}
	out := sets[0]
	for _, next := range sets[1:] {
		out = intersect(out, next)
	}
	return out
}

func union[K ~string](idx map[string][]string, keys []K) []string {
	if len(keys) == 1 {
		return idx[string(keys[0])]
	}
	var out []string
	for _, k := range keys {
		out = append(out, idx[string(k)]...)
	}
	sort.Strings(out)
	return slices.Compact(out)
}

// intersect merges two sorted slices.
func intersect(a, b []string) []string {
	var out []string
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}

func matches(e *types.TagEntry, q types.TagQuery, re *regexp.Regexp) bool {
	if len(q.Types) > 0 && !slices.Contains(q.Types, e.Type) {
		return false
	}
	if len(q.Categories) > 0 && !slices.Contains(q.Categories, e.Category) {
		return false
	}
	if len(q.Statuses) > 0 && !slices.Contains(q.Statuses, e.Status) {
		return false
	}
	if re != nil && !re.MatchString(e.ID) {
		return false
	}
	if q.FilePath != "" && !slices.ContainsFunc(e.Files, func(f string) bool { return strings.Contains(f, q.FilePath) }) {
		return false
	}
	if q.ParentID != "" && !slices.Contains(e.Parents, q.ParentID) {
		return false
	}
	if q.ChildID != "" && !slices.Contains(e.Children, q.ChildID) {
		return false
	}
	if !inRange(e.CreatedAt, q.CreatedAfter, q.CreatedBefore) {
		return false
	}
	return inRange(e.UpdatedAt, q.UpdatedAfter, q.UpdatedBefore)
}

// inRange treats both bounds as inclusive.
func inRange(t time.Time, after, before *time.Time) bool {
	if after != nil && t.Before(*after) {
		return false
	}
	if before != nil && t.After(*before) {
		return false
	}
	return true
}

func queryKey(q types.TagQuery) string {
	b, _ := json.Marshal(q)
	return string(b)
}
