//go:build unix

package hooks

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/steveyegge/tagtrace/internal/types"
)

func writeHook(t *testing.T, dir, name, script string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestRunSyncPassesArgsAndPayload(t *testing.T) {
	dir := t.TempDir()
	hooksDir := filepath.Join(dir, ".tags", "hooks")
	out := filepath.Join(dir, "out")
	writeHook(t, hooksDir, HookOnCreate, `echo "$1 $2" > `+out+`.args; cat > `+out+`.json`+"\n")

	r := NewRunner(hooksDir, nil)
	if !r.HookExists(EventCreate) {
		t.Fatal("expected on_create hook")
	}
	if got := r.HookPath(EventCreate); got != filepath.Join(hooksDir, HookOnCreate) {
		t.Errorf("HookPath = %q", got)
	}
	if got := r.HookPath(EventUpdate); got != "" {
		t.Errorf("HookPath(update) = %q, want empty", got)
	}
	tag := &types.TagEntry{ID: "@REQ:AUTH-001", Type: types.TypeREQ, Title: "Login"}
	if err := r.RunSync(context.Background(), EventCreate, tag); err != nil {
		t.Fatalf("RunSync: %v", err)
	}

	args, err := os.ReadFile(out + ".args")
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(string(args)); got != "@REQ:AUTH-001 create" {
		t.Errorf("args = %q", got)
	}
	data, err := os.ReadFile(out + ".json")
	if err != nil {
		t.Fatal(err)
	}
	var got types.TagEntry
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if got.Title != "Login" {
		t.Errorf("payload title = %q", got.Title)
	}
}

func TestRunMissingOrNonExecutable(t *testing.T) {
	dir := t.TempDir()
	r := NewRunner(dir, nil)
	tag := &types.TagEntry{ID: "@REQ:A-001"}

	if err := r.RunSync(context.Background(), EventDelete, tag); err != nil {
		t.Errorf("missing hook: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, HookOnDelete), []byte("#!/bin/sh\nexit 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r.HookExists(EventDelete) {
		t.Error("non-executable hook should be ignored")
	}
	if r.HookExists("bogus") {
		t.Error("unknown event should have no hook")
	}
}

func TestRunSyncTimeout(t *testing.T) {
	dir := t.TempDir()
	writeHook(t, dir, HookOnRepair, "sleep 60 &\nsleep 60\n")
	r := NewRunner(dir, nil)
	r.timeout = 100 * time.Millisecond

	start := time.Now()
	err := r.RunSync(context.Background(), EventRepair, &types.TagEntry{ID: "@REQ:A-001"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("hook ran for %v after timeout", elapsed)
	}
}

func TestRunAsyncWait(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "ran")
	writeHook(t, dir, HookOnUpdate, "touch "+marker+"\n")
	r := NewRunner(dir, nil)

	r.Run(EventUpdate, &types.TagEntry{ID: "@REQ:A-001"})
	r.Wait()
	if _, err := os.Stat(marker); err != nil {
		t.Errorf("async hook did not run: %v", err)
	}
}
