package agent

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/steveyegge/tagtrace/internal/graph"
	"github.com/steveyegge/tagtrace/internal/types"
	"github.com/steveyegge/tagtrace/internal/validation"
)

// ChainResult is returned by CreateTagChain.
type ChainResult struct {
	Domain         string            `json:"domain"`
	Created        []string          `json:"created"`
	Suggestions    []ReuseSuggestion `json:"suggestions,omitempty"`
	ChainIntegrity bool              `json:"chainIntegrity"`
	Warnings       []string          `json:"warnings,omitempty"`
}

var lifecycleTitles = map[types.TagType]string{
	types.TypeREQ:    "requirement",
	types.TypeDESIGN: "design",
	types.TypeTASK:   "implementation",
	types.TypeTEST:   "verification",
}

// CreateTagChain mints REQ, DESIGN, TASK and TEST tags for the next unused
// sequence number of domain and links them in that order. Existing tags
// with a similar domain are returned as reuse suggestions; they never block
// creation.
func (a *Agent) CreateTagChain(ctx context.Context, domain, description string, relatedFiles []string) (*ChainResult, error) {
	norm := validation.NormalizeDomain(domain)
	if norm == "" {
		return nil, fmt.Errorf("domain is required")
	}
	_, ids, err := a.allTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	res := &ChainResult{
		Domain:      norm,
		Suggestions: capSuggestions(domainMatches(norm, ids, createRecommendThreshold, createReuseThreshold)),
	}
	seq := nextSequence(norm, ids)

	chain := make([]string, len(types.LifecycleOrder))
	for i, t := range types.LifecycleOrder {
		chain[i] = types.FormatID(t, norm, seq)
	}

	created := make([]*types.TagEntry, 0, len(chain))
	for i, t := range types.LifecycleOrder {
		e := &types.TagEntry{
			ID:          chain[i],
			Type:        t,
			Title:       norm + " " + lifecycleTitles[t],
			Description: description,
			Files:       append([]string(nil), relatedFiles...),
			Parents:     []string{},
			Children:    []string{},
		}
		if i > 0 {
			e.Parents = []string{chain[i-1]}
		}
		if i < len(chain)-1 {
			e.Children = []string{chain[i+1]}
		}
		got, err := a.store.CreateTag(ctx, e)
		if err != nil {
			a.rollback(ctx, created)
			return nil, fmt.Errorf("create %s: %w", e.ID, err)
		}
		created = append(created, got)
		res.Created = append(res.Created, got.ID)
	}

	res.ChainIntegrity = true
	for _, e := range created {
		v, err := a.store.ValidateTag(ctx, e)
		if err != nil {
			return nil, fmt.Errorf("validate %s: %w", e.ID, err)
		}
		if !v.Valid {
			res.ChainIntegrity = false
			for _, msg := range v.Errors {
				res.Warnings = append(res.Warnings, e.ID+": "+msg)
			}
		}
	}
	for _, ov := range graph.CheckChainOrder(typesOf(created)) {
		res.ChainIntegrity = false
		res.Warnings = append(res.Warnings, fmt.Sprintf("chain order: %s appears after %s", ov.Type, ov.Previous))
	}

	if err := a.index.Append(ctx, created); err != nil {
		// the store is authoritative; a rebuild recovers the index
		a.log.Warn("index append failed", "domain", norm, "error", err)
		res.Warnings = append(res.Warnings, "index append failed: "+err.Error())
	}
	if err := a.store.Save(ctx); err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}

	a.log.Info("created tag chain", "domain", norm, "seq", seq, "suggestions", len(res.Suggestions))
	return res, nil
}

func (a *Agent) rollback(ctx context.Context, created []*types.TagEntry) {
	for _, e := range created {
		if _, err := a.store.DeleteTag(ctx, e.ID); err != nil {
			a.log.Warn("rollback failed", "id", e.ID, "error", err)
		}
	}
}

// nextSequence returns one past the highest sequence number used by any
// tag whose domain stem equals domain.
func nextSequence(domain string, ids []string) int {
	highest := 0
	for _, id := range ids {
		if types.DomainStem(id) != domain {
			continue
		}
		if n, ok := sequenceOf(id); ok && n > highest {
			highest = n
		}
	}
	return highest + 1
}

// sequenceOf extracts the trailing number of an id.
func sequenceOf(id string) (int, bool) {
	i := strings.LastIndex(id, "-")
	if i < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil {
		return 0, false
	}
	return n, true
}

func typesOf(entries []*types.TagEntry) []types.TagType {
	out := make([]types.TagType, len(entries))
	for i, e := range entries {
		out[i] = e.Type
	}
	return out
}
