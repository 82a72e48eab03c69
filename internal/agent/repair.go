package agent

import (
	"context"
	"fmt"
	"slices"

	"github.com/steveyegge/tagtrace/internal/graph"
	"github.com/steveyegge/tagtrace/internal/types"
)

// parentTypes lists, in preference order, the type expected to parent an
// orphan of the keyed type.
var parentTypes = map[types.TagType][]types.TagType{
	types.TypeDESIGN:  {types.TypeREQ},
	types.TypeTASK:    {types.TypeDESIGN},
	types.TypeTEST:    {types.TypeTASK},
	types.TypeFEATURE: {types.TypeTASK, types.TypeFEATURE},
	types.TypeAPI:     {types.TypeTASK, types.TypeFEATURE},
	types.TypeUI:      {types.TypeTASK, types.TypeFEATURE},
	types.TypeDATA:    {types.TypeTASK, types.TypeFEATURE},
}

// Edge is a parent -> child link.
type Edge struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
}

// RepairResult is returned by RepairTagChains.
type RepairResult struct {
	ChainsRepaired int      `json:"chainsRepaired"`
	OrphansFixed   int      `json:"orphansFixed"`
	NewEdges       []Edge   `json:"newEdges"`
	Skipped        []string `json:"skipped,omitempty"`
}

// graphState is a mutable copy of the parent/child edges.
type graphState struct {
	parents  map[string][]string
	children map[string][]string
	touched  map[string]bool
}

func (g *graphState) childrenOf(id string) []string {
	return g.children[id]
}

func (g *graphState) link(parent, child string) {
	if !slices.Contains(g.parents[child], parent) {
		g.parents[child] = append(g.parents[child], parent)
	}
	if !slices.Contains(g.children[parent], child) {
		g.children[parent] = append(g.children[parent], child)
	}
	g.touched[parent] = true
	g.touched[child] = true
}

// RepairTagChains retargets dangling parent references to the most similar
// existing tag and attaches orphans to the tag of the expected parent type
// with the same domain suffix. Edges that would create a cycle are skipped.
// Changes are saved and the distributed index is rebuilt.
func (a *Agent) RepairTagChains(ctx context.Context) (*RepairResult, error) {
	tags, ids, err := a.allTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	g := &graphState{
		parents:  make(map[string][]string, len(tags)),
		children: make(map[string][]string, len(tags)),
		touched:  make(map[string]bool),
	}
	exists := make(map[string]bool, len(tags))
	for _, t := range tags {
		exists[t.ID] = true
		g.parents[t.ID] = slices.Clone(t.Parents)
		g.children[t.ID] = slices.Clone(t.Children)
	}

	res := &RepairResult{NewEdges: []Edge{}}

	for _, t := range tags {
		for _, p := range slices.Clone(g.parents[t.ID]) {
			if exists[p] {
				continue
			}
			target, ok := mostSimilar(p, ids, repairThreshold, t.ID)
			if !ok {
				res.Skipped = append(res.Skipped, fmt.Sprintf("%s: no match for %s", t.ID, p))
				continue
			}
			if graph.WouldCreateCycle(target, t.ID, g.childrenOf) {
				res.Skipped = append(res.Skipped, fmt.Sprintf("%s: %s would create a cycle", t.ID, target))
				continue
			}
			g.parents[t.ID] = slices.DeleteFunc(g.parents[t.ID], func(s string) bool { return s == p })
			g.touched[t.ID] = true
			g.link(target, t.ID)
			res.ChainsRepaired++
			res.NewEdges = append(res.NewEdges, Edge{Parent: target, Child: t.ID})
		}
	}

	for _, t := range tags {
		if t.Type == types.TypeREQ || len(g.parents[t.ID]) > 0 {
			continue
		}
		parent, ok := expectedParent(t, exists)
		if !ok {
			continue
		}
		if graph.WouldCreateCycle(parent, t.ID, g.childrenOf) {
			res.Skipped = append(res.Skipped, fmt.Sprintf("%s: %s would create a cycle", t.ID, parent))
			continue
		}
		g.link(parent, t.ID)
		res.OrphansFixed++
		res.NewEdges = append(res.NewEdges, Edge{Parent: parent, Child: t.ID})
	}

	for _, id := range ids {
		if !g.touched[id] {
			continue
		}
		parents, children := g.parents[id], g.children[id]
		if _, err := a.store.UpdateTag(ctx, id, types.TagUpdate{Parents: &parents, Children: &children}); err != nil {
			return nil, fmt.Errorf("update %s: %w", id, err)
		}
	}
	if err := a.store.Save(ctx); err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	if err := a.rebuildIndex(ctx); err != nil {
		return nil, err
	}

	a.log.Info("repaired tag chains", "chains", res.ChainsRepaired, "orphans", res.OrphansFixed, "skipped", len(res.Skipped))
	return res, nil
}

// expectedParent finds an existing tag of a parent type that shares t's
// domain suffix.
func expectedParent(t *types.TagEntry, exists map[string]bool) (string, bool) {
	_, suffix, ok := types.SplitID(t.ID)
	if !ok {
		return "", false
	}
	for _, pt := range parentTypes[t.Type] {
		for _, sep := range []string{":", "-"} {
			id := "@" + string(pt) + sep + suffix
			if id != t.ID && exists[id] {
				return id, true
			}
		}
	}
	return "", false
}

func (a *Agent) rebuildIndex(ctx context.Context) error {
	tags, err := a.store.AllTags(ctx)
	if err != nil {
		return fmt.Errorf("list tags: %w", err)
	}
	if err := a.index.Rebuild(ctx, tags); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}
	return nil
}
