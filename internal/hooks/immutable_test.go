package hooks

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const lockedBlock = `/**
 * @TAG:API:AUTH-001
 * CHAIN: REQ:AUTH-001 -> DESIGN:AUTH-001 -> TASK:AUTH-001 -> API:AUTH-001
 * DEPENDS: NONE
 * STATUS: active
 * CREATED: 2025-01-15
 * @IMMUTABLE
 */
export function login() {}
`

func TestCheckEdit(t *testing.T) {
	tests := []struct {
		name    string
		old     string
		new     string
		wantErr bool
	}{
		{"untagged file", "package main\n", "package other\n", false},
		{"unlocked block", strings.Replace(lockedBlock, " * @IMMUTABLE\n", "", 1), "package main\n", false},
		{"body change only", lockedBlock, strings.Replace(lockedBlock, "login()", "logout()", 1), false},
		{"status change", lockedBlock, strings.Replace(lockedBlock, "STATUS: active", "STATUS: deprecated", 1), true},
		{"chain change", lockedBlock, strings.Replace(lockedBlock, " -> API:AUTH-001", "", 1), true},
		{"marker removed", lockedBlock, strings.Replace(lockedBlock, " * @IMMUTABLE\n", "", 1), true},
		{"block removed", lockedBlock, "export function login() {}\n", true},
		{"id change", lockedBlock, strings.Replace(lockedBlock, "@TAG:API:AUTH-001", "@TAG:API:AUTH-002", 1), true},
		{"DOC marker is equivalent", strings.Replace(lockedBlock, "@TAG:", "@DOC:", 1), strings.Replace(lockedBlock, "@TAG:", "@DOC:", 1), false},
		{"DOC marker locked", strings.Replace(lockedBlock, "@TAG:", "@DOC:", 1), "x\n", true},
		{"byte order mark locked", "\ufeff" + lockedBlock, "\ufeff" + strings.Replace(lockedBlock, "STATUS: active", "STATUS: deprecated", 1), true},
		{"byte order mark dropped", "\ufeff" + lockedBlock, lockedBlock, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckEdit("src/auth.ts", tt.old, tt.new)
			if tt.wantErr {
				if !errors.Is(err, ErrImmutableBlock) {
					t.Fatalf("CheckEdit() = %v, want ErrImmutableBlock", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CheckEdit() = %v, want nil", err)
			}
		})
	}
}

func TestCheckEditFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auth.ts")

	if err := CheckEditFile(path, "anything"); err != nil {
		t.Fatalf("new file: %v", err)
	}

	if err := os.WriteFile(path, []byte(lockedBlock), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CheckEditFile(path, "gone\n"); !errors.Is(err, ErrImmutableBlock) {
		t.Fatalf("got %v, want ErrImmutableBlock", err)
	}
	if err := CheckEditFile(path, lockedBlock); err != nil {
		t.Fatalf("identical content: %v", err)
	}
}
