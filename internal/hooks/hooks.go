// Package hooks guards @IMMUTABLE TAG blocks against edits and runs user
// hook scripts after tag events.
// Scripts are executables in .tags/hooks/ named after the event they handle.
package hooks

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/steveyegge/tagtrace/internal/types"
)

// Event types
const (
	EventCreate = "create"
	EventUpdate = "update"
	EventDelete = "delete"
	EventRepair = "repair"
)

// Events lists every event a hook can handle.
var Events = []string{EventCreate, EventUpdate, EventDelete, EventRepair}

// Hook file names
const (
	HookOnCreate = "on_create"
	HookOnUpdate = "on_update"
	HookOnDelete = "on_delete"
	HookOnRepair = "on_repair"
)

// DefaultTimeout bounds a single hook execution.
const DefaultTimeout = 10 * time.Second

// Runner handles hook execution
type Runner struct {
	hooksDir string
	timeout  time.Duration
	log      *slog.Logger
	wg       sync.WaitGroup
}

// NewRunner creates a new hook runner.
// hooksDir is typically .tags/hooks/ relative to the workspace root.
func NewRunner(hooksDir string, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		hooksDir: hooksDir,
		timeout:  DefaultTimeout,
		log:      log,
	}
}

// Run executes a hook if it exists.
// Runs asynchronously; call Wait before the process exits.
func (r *Runner) Run(event string, tag *types.TagEntry) {
	path, ok := r.hookPath(event)
	if !ok {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.runHook(context.Background(), path, event, tag); err != nil {
			r.log.Warn("hook failed", "hook", path, "tag", tag.ID, "error", err)
		}
	}()
}

// RunSync executes a hook synchronously and returns any error.
func (r *Runner) RunSync(ctx context.Context, event string, tag *types.TagEntry) error {
	path, ok := r.hookPath(event)
	if !ok {
		return nil
	}
	return r.runHook(ctx, path, event, tag)
}

// Wait blocks until every hook started by Run has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// HookExists checks if a hook exists for an event
func (r *Runner) HookExists(event string) bool {
	_, ok := r.hookPath(event)
	return ok
}

// HookPath returns the script that handles event, or "" when there is
// no executable hook for it.
func (r *Runner) HookPath(event string) string {
	path, _ := r.hookPath(event)
	return path
}

func (r *Runner) hookPath(event string) (string, bool) {
	name := eventToHook(event)
	if name == "" {
		return "", false
	}
	path := filepath.Join(r.hooksDir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	if info.Mode()&0o111 == 0 {
		return "", false // not executable
	}
	return path, true
}

func eventToHook(event string) string {
	switch event {
	case EventCreate:
		return HookOnCreate
	case EventUpdate:
		return HookOnUpdate
	case EventDelete:
		return HookOnDelete
	case EventRepair:
		return HookOnRepair
	default:
		return ""
	}
}
