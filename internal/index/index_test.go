package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/tagtrace/internal/types"
)

func entry(id string, t types.TagType) *types.TagEntry {
	return &types.TagEntry{
		ID:        id,
		Type:      t,
		Title:     "title " + id,
		Status:    types.StatusPending,
		CreatedAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestAppendAndRead(t *testing.T) {
	ctx := context.Background()
	x := New(filepath.Join(t.TempDir(), "index"))

	require.NoError(t, x.Append(ctx, []*types.TagEntry{
		entry("@REQ:A-001", types.TypeREQ),
		entry("@DESIGN:A-001", types.TypeDESIGN),
	}))
	require.NoError(t, x.Append(ctx, []*types.TagEntry{entry("@REQ:A-002", types.TypeREQ)}))

	reqs, err := x.Read(types.TypeREQ)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "@REQ:A-001", reqs[0].Tag)
	assert.Equal(t, "title @REQ:A-001", reqs[0].Description)
	assert.Equal(t, types.StatusPending, reqs[0].Status)

	assert.FileExists(t, filepath.Join(x.Dir(), "design.jsonl"))
	tests, err := x.Read(types.TypeTEST)
	require.NoError(t, err)
	assert.Empty(t, tests)
}

func TestAppendKeepsStaleLinesUntilRebuild(t *testing.T) {
	ctx := context.Background()
	x := New(t.TempDir())
	a := entry("@TASK:A-001", types.TypeTASK)
	b := entry("@TASK:B-001", types.TypeTASK)

	require.NoError(t, x.Append(ctx, []*types.TagEntry{a, b}))
	// a is "deleted": only b remains in the store
	require.NoError(t, x.Append(ctx, nil))
	lines, err := x.Read(types.TypeTASK)
	require.NoError(t, err)
	assert.Len(t, lines, 2, "append never purges")

	require.NoError(t, x.Rebuild(ctx, []*types.TagEntry{b}))
	lines, err = x.Read(types.TypeTASK)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "@TASK:B-001", lines[0].Tag)

	// every type file exists after a rebuild
	for _, typ := range types.AllTypes {
		assert.FileExists(t, x.FileFor(typ))
	}
}

func TestSize(t *testing.T) {
	ctx := context.Background()
	x := New(filepath.Join(t.TempDir(), "missing"))
	size, err := x.Size()
	require.NoError(t, err)
	assert.Zero(t, size)

	require.NoError(t, x.Append(ctx, []*types.TagEntry{entry("@REQ:A-001", types.TypeREQ)}))
	size, err = x.Size()
	require.NoError(t, err)
	info, err := os.Stat(x.FileFor(types.TypeREQ))
	require.NoError(t, err)
	assert.Equal(t, info.Size(), size)
}

func TestReadMalformedLine(t *testing.T) {
	x := New(t.TempDir())
	require.NoError(t, os.WriteFile(x.FileFor(types.TypeREQ), []byte("{\"tag\":\"@REQ:A-001\"}\nnot json\n"), 0o644))
	_, err := x.Read(types.TypeREQ)
	assert.ErrorContains(t, err, "req.jsonl:2")
}
