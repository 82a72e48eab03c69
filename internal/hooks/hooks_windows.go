//go:build windows

package hooks

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/steveyegge/tagtrace/internal/types"
)

// runHook executes the hook and enforces a timeout on Windows.
// Windows lacks Unix-style process groups; on timeout only the started
// process is killed.
func (r *Runner) runHook(ctx context.Context, hookPath, event string, tag *types.TagEntry) (retErr error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ctx, span := startHookSpan(ctx, hookPath, event, tag)
	defer func() { endHookSpan(span, retErr) }()

	payload, err := hookPayload(tag)
	if err != nil {
		return err
	}

	cmd := exec.Command(hookPath, tag.ID, event)
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		<-done
		addHookOutputEvents(span, &stdout, &stderr)
		return ctx.Err()
	case err := <-done:
		addHookOutputEvents(span, &stdout, &stderr)
		return err
	}
}
