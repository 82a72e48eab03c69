// Package agent orchestrates the parser, scanner, store and distributed
// index. It is the layer the CLI and the MCP server talk to.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/steveyegge/tagtrace/internal/index"
	"github.com/steveyegge/tagtrace/internal/scanner"
	"github.com/steveyegge/tagtrace/internal/storage"
	"github.com/steveyegge/tagtrace/internal/types"
)

// Options configures an Agent. Store and Index are required.
type Options struct {
	Store   storage.Storage
	Index   *index.Index
	Scanner *scanner.Scanner
	Logger  *slog.Logger
}

// Agent wraps a tag store with chain-level operations.
type Agent struct {
	store   storage.Storage
	index   *index.Index
	scanner *scanner.Scanner
	log     *slog.Logger
	now     func() time.Time
}

// New builds an Agent.
func New(opts Options) (*Agent, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("agent: store is required")
	}
	if opts.Index == nil {
		return nil, fmt.Errorf("agent: index is required")
	}
	sc := opts.Scanner
	if sc == nil {
		sc = scanner.New(scanner.Options{Logger: opts.Logger})
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Agent{store: opts.Store, index: opts.Index, scanner: sc, log: log, now: time.Now}, nil
}

// Store returns the underlying store.
func (a *Agent) Store() storage.Storage {
	return a.store
}

// allTags returns every stored tag, sorted by id, with the ids alongside.
func (a *Agent) allTags(ctx context.Context) ([]*types.TagEntry, []string, error) {
	tags, err := a.store.AllTags(ctx)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]string, len(tags))
	for i, t := range tags {
		ids[i] = t.ID
	}
	return tags, ids, nil
}
