//go:build !windows

package jsonstore

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/tagtrace/internal/types"
)

func TestSaveRetriesTransientErrors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	calls := 0
	s.writeFn = func(path string, data []byte) error {
		calls++
		if calls < 3 {
			return &os.PathError{Op: "rename", Path: path, Err: syscall.EBUSY}
		}
		return writeFileAtomic(path, data)
	}
	mustCreate(t, s, &types.TagEntry{ID: "@REQ:R-001", Title: "retry"})
	require.NoError(t, s.Save(ctx))
	assert.Equal(t, 3, calls)

	_, err := os.Stat(s.Path())
	assert.NoError(t, err, fmt.Sprintf("file should exist after %d attempts", calls))
}
