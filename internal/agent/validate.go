package agent

import (
	"context"
	"fmt"

	"github.com/steveyegge/tagtrace/internal/graph"
)

// BrokenRef is a parent reference that does not resolve.
type BrokenRef struct {
	ID     string `json:"id"`
	Parent string `json:"parent"`
}

// SystemReport is returned by ValidateTagSystem. Id lists are sorted.
type SystemReport struct {
	Total        int                 `json:"total"`
	Valid        int                 `json:"valid"`
	InvalidTags  []string            `json:"invalidTags"`
	OrphanedTags []string            `json:"orphanedTags"`
	BrokenChains []string            `json:"brokenChains"`
	BrokenRefs   []BrokenRef         `json:"brokenRefs,omitempty"`
	Cycles       [][]string          `json:"cycles,omitempty"` // distinct children cycles
	Errors       map[string][]string `json:"errors,omitempty"`
}

// ValidateTagSystem validates every stored tag.
func (a *Agent) ValidateTagSystem(ctx context.Context) (*SystemReport, error) {
	tags, _, err := a.allTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	exists := make(map[string]bool, len(tags))
	ids := make([]string, 0, len(tags))
	children := make(map[string][]string, len(tags))
	for _, t := range tags {
		exists[t.ID] = true
		ids = append(ids, t.ID)
		children[t.ID] = t.Children
	}

	rep := &SystemReport{
		Total:        len(tags),
		InvalidTags:  []string{},
		OrphanedTags: []string{},
		BrokenChains: []string{},
	}
	for _, t := range tags {
		v, err := a.store.ValidateTag(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("validate %s: %w", t.ID, err)
		}
		if !v.Valid {
			rep.InvalidTags = append(rep.InvalidTags, t.ID)
			if rep.Errors == nil {
				rep.Errors = make(map[string][]string)
			}
			rep.Errors[t.ID] = v.Errors
		}
		if t.IsOrphan() {
			rep.OrphanedTags = append(rep.OrphanedTags, t.ID)
		}
		broken := false
		for _, p := range t.Parents {
			if !exists[p] {
				broken = true
				rep.BrokenRefs = append(rep.BrokenRefs, BrokenRef{ID: t.ID, Parent: p})
			}
		}
		if broken {
			rep.BrokenChains = append(rep.BrokenChains, t.ID)
		}
	}
	rep.Valid = rep.Total - len(rep.InvalidTags)
	rep.Cycles = graph.DetectCycles(ids, func(id string) []string { return children[id] })
	return rep, nil
}
