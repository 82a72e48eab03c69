package agent

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// OptimizeResult is returned by OptimizeIndexes. Sizes cover the store file
// plus every distributed index file.
type OptimizeResult struct {
	SizeBefore int64         `json:"sizeBefore"`
	SizeAfter  int64         `json:"sizeAfter"`
	Reduction  float64       `json:"reduction"` // (before-after)/before; negative when the files grew
	Tags       int           `json:"tags"`
	Elapsed    time.Duration `json:"elapsed"`
}

// OptimizeIndexes forces a save, which rebuilds the store's secondary
// indexes, and rewrites the distributed index from scratch. Stale lines left
// by deleted tags are dropped.
func (a *Agent) OptimizeIndexes(ctx context.Context) (*OptimizeResult, error) {
	start := time.Now()
	before, err := a.diskSize()
	if err != nil {
		return nil, err
	}
	if err := a.store.Save(ctx); err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	tags, err := a.store.AllTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	if err := a.index.Rebuild(ctx, tags); err != nil {
		return nil, fmt.Errorf("rebuild index: %w", err)
	}
	after, err := a.diskSize()
	if err != nil {
		return nil, err
	}

	res := &OptimizeResult{SizeBefore: before, SizeAfter: after, Tags: len(tags), Elapsed: time.Since(start)}
	if before > 0 {
		res.Reduction = float64(before-after) / float64(before)
	}
	a.log.Info("optimized indexes", "before", before, "after", after, "elapsed", res.Elapsed)
	return res, nil
}

func (a *Agent) diskSize() (int64, error) {
	var total int64
	info, err := os.Stat(a.store.Path())
	switch {
	case err == nil:
		total = info.Size()
	case !errors.Is(err, fs.ErrNotExist):
		return 0, fmt.Errorf("stat store: %w", err)
	}
	n, err := a.index.Size()
	if err != nil {
		return 0, fmt.Errorf("index size: %w", err)
	}
	return total + n, nil
}
