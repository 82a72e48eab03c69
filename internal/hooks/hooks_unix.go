//go:build unix

package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"

	"github.com/steveyegge/tagtrace/internal/types"
)

// runHook executes the hook and enforces a timeout, killing the process group
// on expiration so descendant processes are terminated too.
func (r *Runner) runHook(ctx context.Context, hookPath, event string, tag *types.TagEntry) (retErr error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ctx, span := startHookSpan(ctx, hookPath, event, tag)
	defer func() { endHookSpan(span, retErr) }()

	payload, err := hookPayload(tag)
	if err != nil {
		return err
	}

	// hook_script <tag_id> <event>
	// #nosec G204 -- hookPath is from the controlled .tags/hooks directory
	cmd := exec.Command(hookPath, tag.ID, event)
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

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
			if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
				return fmt.Errorf("kill process group: %w", err)
			}
		}
		<-done
		addHookOutputEvents(span, &stdout, &stderr)
		return ctx.Err()
	case err := <-done:
		addHookOutputEvents(span, &stdout, &stderr)
		return err
	}
}
