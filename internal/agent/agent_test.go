package agent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/tagtrace/internal/index"
	"github.com/steveyegge/tagtrace/internal/storage"
	"github.com/steveyegge/tagtrace/internal/storage/jsonstore"
	"github.com/steveyegge/tagtrace/internal/types"
)

func newTestAgent(t *testing.T) *Agent {
	t.Helper()
	dir := t.TempDir()
	s, err := jsonstore.New(jsonstore.Options{Path: filepath.Join(dir, ".tags", "tags.json")})
	require.NoError(t, err)
	a, err := New(Options{Store: s, Index: index.New(filepath.Join(dir, ".tags", "index"))})
	require.NoError(t, err)
	return a
}

func create(t *testing.T, a *Agent, e *types.TagEntry) {
	t.Helper()
	if e.Title == "" {
		e.Title = e.ID
	}
	_, err := a.store.CreateTag(context.Background(), e)
	require.NoError(t, err)
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 1},
		{"AUTH", "AUTH", 1},
		{"auth", "AUTH", 1},
		{"AUTH", "", 0},
		{"AUTH", "AUTHN", 0.8},
		{"KITTEN", "SITTING", 1 - 3.0/7},
		{"ÄBC", "ABC", 1 - 1.0/3},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestCreateTagChainEmptyStore(t *testing.T) {
	ctx := context.Background()
	a := newTestAgent(t)

	res, err := a.CreateTagChain(ctx, "AUTH", "login flow", []string{"src/auth.go"})
	require.NoError(t, err)
	assert.Equal(t, []string{"@REQ:AUTH-001", "@DESIGN:AUTH-001", "@TASK:AUTH-001", "@TEST:AUTH-001"}, res.Created)
	assert.True(t, res.ChainIntegrity)
	assert.Empty(t, res.Suggestions)
	assert.Empty(t, res.Warnings)

	for i, id := range res.Created {
		e, err := a.store.GetTag(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, e, id)
		if i == 0 {
			assert.Empty(t, e.Parents)
		} else {
			assert.Equal(t, []string{res.Created[i-1]}, e.Parents)
		}
		if i == len(res.Created)-1 {
			assert.Empty(t, e.Children)
		} else {
			assert.Equal(t, []string{res.Created[i+1]}, e.Children)
		}
		assert.Equal(t, []string{"src/auth.go"}, e.Files)
		assert.Equal(t, "login flow", e.Description)
	}

	// persisted and indexed
	assert.FileExists(t, a.store.Path())
	lines, err := a.index.Read(types.TypeTASK)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "@TASK:AUTH-001", lines[0].Tag)
}

func TestCreateTagChainNextSequenceAndSuggestions(t *testing.T) {
	ctx := context.Background()
	a := newTestAgent(t)
	_, err := a.CreateTagChain(ctx, "auth", "", nil)
	require.NoError(t, err)

	res, err := a.CreateTagChain(ctx, "Auth", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "@REQ:AUTH-002", res.Created[0])
	require.Len(t, res.Suggestions, 4)
	for _, s := range res.Suggestions {
		assert.Equal(t, 1.0, s.Similarity)
		assert.True(t, s.ShouldReuse)
	}

	// AUTHN vs AUTH scores 0.8: recommended but not "should reuse"
	res, err = a.CreateTagChain(ctx, "authn", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "@REQ:AUTHN-001", res.Created[0])
	require.NotEmpty(t, res.Suggestions)
	for _, s := range res.Suggestions {
		assert.InDelta(t, 0.8, s.Similarity, 1e-9)
		assert.False(t, s.ShouldReuse)
	}
}

func TestCreateTagChainRejectsEmptyDomain(t *testing.T) {
	a := newTestAgent(t)
	_, err := a.CreateTagChain(context.Background(), "  --  ", "", nil)
	assert.ErrorContains(t, err, "domain is required")
}

// failingStore fails CreateTag for one id.
type failingStore struct {
	storage.Storage
	failOn string
}

func (f *failingStore) CreateTag(ctx context.Context, e *types.TagEntry) (*types.TagEntry, error) {
	if e.ID == f.failOn {
		return nil, errors.New("disk on fire")
	}
	return f.Storage.CreateTag(ctx, e)
}

func TestCreateTagChainRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	base := newTestAgent(t)
	a, err := New(Options{Store: &failingStore{Storage: base.store, failOn: "@TASK:PAY-001"}, Index: base.index})
	require.NoError(t, err)

	_, err = a.CreateTagChain(ctx, "PAY", "", nil)
	assert.ErrorContains(t, err, "disk on fire")

	all, err := base.store.AllTags(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "REQ and DESIGN are removed again")
}

func TestSearchTags(t *testing.T) {
	ctx := context.Background()
	a := newTestAgent(t)
	_, err := a.CreateTagChain(ctx, "AUTH", "", []string{"src/auth/login.go"})
	require.NoError(t, err)
	_, err = a.CreateTagChain(ctx, "PAYMENT", "", nil)
	require.NoError(t, err)

	t.Run("id pattern", func(t *testing.T) {
		r, err := a.SearchTags(ctx, "auth")
		require.NoError(t, err)
		assert.Equal(t, 4, r.Total)
		require.Len(t, r.Recommendations, 4)
		assert.True(t, r.Recommendations[0].ShouldReuse)
	})

	t.Run("type name", func(t *testing.T) {
		r, err := a.SearchTags(ctx, "design")
		require.NoError(t, err)
		ids := tagIDs(r.Tags)
		assert.Contains(t, ids, "@DESIGN:AUTH-001")
		assert.Contains(t, ids, "@DESIGN:PAYMENT-001")
	})

	t.Run("file path", func(t *testing.T) {
		r, err := a.SearchTags(ctx, "auth/login.go")
		require.NoError(t, err)
		assert.Len(t, r.Tags, 4)
	})

	t.Run("similar domain", func(t *testing.T) {
		r, err := a.SearchTags(ctx, "PAYMNT")
		require.NoError(t, err)
		assert.Contains(t, tagIDs(r.Tags), "@REQ:PAYMENT-001")
		assert.Contains(t, r.Suggestions, "domain PAYMENT")
	})

	t.Run("no match suggests creating", func(t *testing.T) {
		r, err := a.SearchTags(ctx, "zzzzzzzz")
		require.NoError(t, err)
		assert.Zero(t, r.Total)
		assert.NotEmpty(t, r.Suggestions)
	})

	t.Run("empty keyword", func(t *testing.T) {
		_, err := a.SearchTags(ctx, " ")
		assert.Error(t, err)
	})
}

func tagIDs(tags []*types.TagEntry) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.ID
	}
	return out
}

func TestValidateTagSystem(t *testing.T) {
	ctx := context.Background()
	a := newTestAgent(t)
	create(t, a, &types.TagEntry{ID: "@REQ:A-001", Type: types.TypeREQ})
	create(t, a, &types.TagEntry{ID: "@DESIGN:A-001", Type: types.TypeDESIGN, Parents: []string{"@REQ:A-001"}})
	create(t, a, &types.TagEntry{ID: "@TASK:B-001", Type: types.TypeTASK})
	create(t, a, &types.TagEntry{ID: "@TEST:A-001", Type: types.TypeTEST, Parents: []string{"@TASK:A-001"}})
	create(t, a, &types.TagEntry{ID: "@REQ:C-001", Type: types.TypeREQ, Children: []string{"@REQ:C-002"}})
	create(t, a, &types.TagEntry{ID: "@REQ:C-002", Type: types.TypeREQ, Children: []string{"@REQ:C-001"}})

	rep, err := a.ValidateTagSystem(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, rep.Total)
	assert.Equal(t, 4, rep.Valid)
	assert.Equal(t, []string{"@REQ:C-001", "@REQ:C-002"}, rep.InvalidTags)
	assert.Equal(t, []string{"@TASK:B-001"}, rep.OrphanedTags)
	assert.Equal(t, []string{"@TEST:A-001"}, rep.BrokenChains)
	assert.Equal(t, []BrokenRef{{ID: "@TEST:A-001", Parent: "@TASK:A-001"}}, rep.BrokenRefs)
	assert.NotEmpty(t, rep.Errors["@REQ:C-001"])
	assert.Equal(t, [][]string{{"@REQ:C-001", "@REQ:C-002"}}, rep.Cycles)
}

func TestRepairTagChains(t *testing.T) {
	ctx := context.Background()
	a := newTestAgent(t)
	create(t, a, &types.TagEntry{ID: "@REQ:AUTH-001", Type: types.TypeREQ})
	// typo in the parent id
	create(t, a, &types.TagEntry{ID: "@DESIGN:AUTH-001", Type: types.TypeDESIGN, Parents: []string{"@REQ:AUTH-01"}})
	// orphan with a matching DESIGN sibling
	create(t, a, &types.TagEntry{ID: "@TASK:AUTH-001", Type: types.TypeTASK})
	// orphan with nothing to attach to
	create(t, a, &types.TagEntry{ID: "@TEST:ZZZ-009", Type: types.TypeTEST})

	res, err := a.RepairTagChains(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ChainsRepaired)
	assert.Equal(t, 1, res.OrphansFixed)
	assert.ElementsMatch(t, []Edge{
		{Parent: "@REQ:AUTH-001", Child: "@DESIGN:AUTH-001"},
		{Parent: "@DESIGN:AUTH-001", Child: "@TASK:AUTH-001"},
	}, res.NewEdges)

	design, err := a.store.GetTag(ctx, "@DESIGN:AUTH-001")
	require.NoError(t, err)
	assert.Equal(t, []string{"@REQ:AUTH-001"}, design.Parents)
	assert.Equal(t, []string{"@TASK:AUTH-001"}, design.Children)
	req, err := a.store.GetTag(ctx, "@REQ:AUTH-001")
	require.NoError(t, err)
	assert.Equal(t, []string{"@DESIGN:AUTH-001"}, req.Children)

	rep, err := a.ValidateTagSystem(ctx)
	require.NoError(t, err)
	assert.Empty(t, rep.BrokenChains)
	assert.Equal(t, []string{"@TEST:ZZZ-009"}, rep.OrphanedTags)

	// the rebuilt index has one line per tag
	for _, typ := range types.LifecycleOrder {
		lines, err := a.index.Read(typ)
		require.NoError(t, err)
		assert.Len(t, lines, 1, typ)
	}
}

func TestRepairSkipsCycles(t *testing.T) {
	ctx := context.Background()
	a := newTestAgent(t)
	// @REQ:X-001 -> @DESIGN:X-001; the design's dangling parent resembles
	// its own child, so retargeting would close a loop
	create(t, a, &types.TagEntry{ID: "@DESIGN:X-001", Type: types.TypeDESIGN, Parents: []string{"@TASK:X-0001"}, Children: []string{"@TASK:X-001"}})
	create(t, a, &types.TagEntry{ID: "@TASK:X-001", Type: types.TypeTASK, Parents: []string{"@DESIGN:X-001"}})

	res, err := a.RepairTagChains(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.ChainsRepaired)
	require.Len(t, res.Skipped, 1)
	assert.Contains(t, res.Skipped[0], "cycle")
}

func TestOptimizeIndexesDropsStaleLines(t *testing.T) {
	ctx := context.Background()
	a := newTestAgent(t)
	_, err := a.CreateTagChain(ctx, "AUTH", "", nil)
	require.NoError(t, err)
	_, err = a.store.DeleteTag(ctx, "@TEST:AUTH-001")
	require.NoError(t, err)

	stale, err := a.index.Read(types.TypeTEST)
	require.NoError(t, err)
	assert.Len(t, stale, 1, "append path keeps the deleted tag")

	res, err := a.OptimizeIndexes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Tags)
	assert.Greater(t, res.SizeBefore, res.SizeAfter)
	assert.Greater(t, res.Reduction, 0.0)

	fresh, err := a.index.Read(types.TypeTEST)
	require.NoError(t, err)
	assert.Empty(t, fresh)
}

func TestGenerateStatistics(t *testing.T) {
	ctx := context.Background()
	a := newTestAgent(t)

	empty, err := a.GenerateStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100.0, empty.HealthScore)
	assert.Equal(t, GateHealthy, empty.QualityGate)

	_, err = a.CreateTagChain(ctx, "AUTH", "", nil)
	require.NoError(t, err)
	create(t, a, &types.TagEntry{ID: "@TEST:B-001", Type: types.TypeTEST, Parents: []string{"@TASK:B-001"}})

	st, err := a.GenerateStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, st.TotalTags)
	assert.Equal(t, 2, st.ByType["TEST"])
	assert.Equal(t, 100.0, st.HealthScore)
	assert.Equal(t, 1, st.BrokenChains)
	assert.Equal(t, GateWarning, st.QualityGate, "a broken chain blocks healthy")
}

func TestGateFor(t *testing.T) {
	tests := []struct {
		score  float64
		broken int
		want   QualityGate
	}{
		{100, 0, GateHealthy},
		{95, 0, GateHealthy},
		{96, 1, GateWarning},
		{85, 0, GateWarning},
		{84.99, 0, GateCritical},
		{0, 3, GateCritical},
	}
	for _, tt := range tests {
		if got := gateFor(tt.score, tt.broken); got != tt.want {
			t.Errorf("gateFor(%v, %d) = %s, want %s", tt.score, tt.broken, got, tt.want)
		}
	}
}

func TestScanProject(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		t.Helper()
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	write("a.go", "// @TAG:REQ:AUTH-001\n// CHAIN: REQ:AUTH-001 -> DESIGN:AUTH-001\n// DEPENDS: NONE\n// STATUS: active\n// CREATED: 2025-01-01\n// @IMMUTABLE\npackage a\n")
	write("b.go", "package b\n")
	write("c.go", "// @TAG:NOPE:X-001\npackage c\n")

	a := newTestAgent(t)
	rep, err := a.ScanProject(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, rep.Blocks, 1)
	assert.Equal(t, "@REQ:AUTH-001", rep.Blocks[0].TagID)
	assert.Equal(t, 1, rep.Immutable)
	assert.Equal(t, 1, rep.Failures)
	assert.Equal(t, 3, rep.Metrics.FilesScanned)

	all, err := a.store.AllTags(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all, "scan never writes the store")
}

func TestHandle(t *testing.T) {
	ctx := context.Background()
	a := newTestAgent(t)

	resp := a.Handle(ctx, Request{Action: "explode"})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "unknown action")
	require.NotNil(t, resp.Performance)

	resp = a.Handle(ctx, Request{Action: ActionCreate})
	assert.False(t, resp.Success)

	resp = a.Handle(ctx, Request{Action: ActionCreate, Domain: "auth"})
	require.True(t, resp.Success, resp.Message)
	chain, ok := resp.Data.(*ChainResult)
	require.True(t, ok)
	assert.True(t, chain.ChainIntegrity)

	resp = a.Handle(ctx, Request{Action: ActionSearch, Keyword: "AUTH"})
	assert.True(t, resp.Success)
	assert.Equal(t, "found 4 tags", resp.Message)

	resp = a.Handle(ctx, Request{Action: ActionValidate})
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Warnings)

	for _, action := range []string{ActionRepair, ActionIndex, ActionStats} {
		resp = a.Handle(ctx, Request{Action: action})
		assert.True(t, resp.Success, action+": "+resp.Message)
	}

	resp = a.Handle(ctx, Request{Action: ActionScan, Path: filepath.Join(t.TempDir(), "missing")})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "scan failed")
}
