package agent

import (
	"context"
	"fmt"

	"github.com/steveyegge/tagtrace/internal/scanner"
	"github.com/steveyegge/tagtrace/internal/types"
)

// ScanReport is returned by ScanProject.
type ScanReport struct {
	Root      string               `json:"root"`
	Blocks    []types.TagBlock     `json:"blocks"`
	Files     []scanner.FileReport `json:"files,omitempty"`
	Failures  int                  `json:"failures"`
	Immutable int                  `json:"immutable"`
	Metrics   scanner.Metrics      `json:"metrics"`
}

// ScanProject parses every eligible file under root. It never writes to
// the store.
func (a *Agent) ScanProject(ctx context.Context, root string) (*ScanReport, error) {
	if root == "" {
		root = "."
	}
	blocks, err := a.scanner.Scan(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	rep := &ScanReport{
		Root:    root,
		Blocks:  blocks,
		Files:   a.scanner.Report(),
		Metrics: a.scanner.Metrics(),
	}
	if rep.Blocks == nil {
		rep.Blocks = []types.TagBlock{}
	}
	for _, f := range rep.Files {
		if f.Error != "" {
			rep.Failures++
		}
	}
	for _, b := range blocks {
		if b.Immutable {
			rep.Immutable++
		}
	}
	return rep, nil
}
