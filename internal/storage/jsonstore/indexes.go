package jsonstore

import (
	"slices"
	"sort"

	"github.com/steveyegge/tagtrace/internal/types"
)

// buildIndexes computes every secondary index from scratch.
func buildIndexes(tags map[string]*types.TagEntry) types.Indexes {
	idx := types.NewIndexes()
	for _, e := range tags {
		indexEntry(&idx, e, appendKey)
	}
	for _, m := range []map[string][]string{idx.ByType, idx.ByCategory, idx.ByStatus, idx.ByFile} {
		for k := range m {
			sort.Strings(m[k])
			m[k] = slices.Compact(m[k])
		}
	}
	return idx
}

func indexEntry(idx *types.Indexes, e *types.TagEntry, op func(map[string][]string, string, string)) {
	op(idx.ByType, string(e.Type), e.ID)
	op(idx.ByCategory, string(e.Category), e.ID)
	op(idx.ByStatus, string(e.Status), e.ID)
	for _, f := range e.Files {
		op(idx.ByFile, f, e.ID)
	}
}

func appendKey(m map[string][]string, key, id string) {
	m[key] = append(m[key], id)
}

// insertKey keeps m[key] sorted and free of duplicates.
func insertKey(m map[string][]string, key, id string) {
	ids := m[key]
	i, found := slices.BinarySearch(ids, id)
	if found {
		return
	}
	m[key] = slices.Insert(ids, i, id)
}

func removeKey(m map[string][]string, key, id string) {
	ids := m[key]
	i, found := slices.BinarySearch(ids, id)
	if !found {
		return
	}
	ids = slices.Delete(ids, i, i+1)
	if len(ids) == 0 {
		delete(m, key)
		return
	}
	m[key] = ids
}

// addToIndexes and removeFromIndexes keep the indexes current between
// saves. Callers hold s.mu.
func (s *Store) addToIndexes(e *types.TagEntry) {
	indexEntry(&s.db.Indexes, e, insertKey)
}

func (s *Store) removeFromIndexes(e *types.TagEntry) {
	indexEntry(&s.db.Indexes, e, removeKey)
}
