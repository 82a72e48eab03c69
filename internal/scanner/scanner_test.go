package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func setupTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b", "design.go"), "// @TAG:DESIGN:AUTH-001\n// STATUS: active\npackage b\n")
	writeFile(t, filepath.Join(root, "a", "req.ts"), "/** @TAG:REQ:AUTH-001 */\n")
	writeFile(t, filepath.Join(root, "a", "plain.go"), "package a\n")
	writeFile(t, filepath.Join(root, "a", "broken.py"), "# @TAG:NOPE:AUTH-001\n")
	writeFile(t, filepath.Join(root, "a", "notes.txt"), "// @TAG:REQ:SKIP-001\n")
	writeFile(t, filepath.Join(root, "node_modules", "dep", "index.js"), "// @TAG:REQ:DEP-001\n")
	writeFile(t, filepath.Join(root, "tmp-cache", "x.go"), "// @TAG:REQ:TMP-001\n")
	return root
}

func TestScanOrderAndFilters(t *testing.T) {
	root := setupTree(t)
	s := New(Options{Exclude: append(append([]string{}, DefaultExclude...), "tmp-*")})

	blocks, err := s.Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("want 2 blocks, got %d: %+v", len(blocks), blocks)
	}
	// a/ sorts before b/
	if blocks[0].TagID != "@REQ:AUTH-001" || blocks[1].TagID != "@DESIGN:AUTH-001" {
		t.Errorf("unexpected order: %s, %s", blocks[0].TagID, blocks[1].TagID)
	}

	m := s.Metrics()
	// broken.py, plain.go, req.ts, design.go
	if m.FilesScanned != 4 {
		t.Errorf("FilesScanned = %d, want 4", m.FilesScanned)
	}
	if m.TagsFound != 2 {
		t.Errorf("TagsFound = %d, want 2", m.TagsFound)
	}
	if m.LastSearchDuration <= 0 {
		t.Error("LastSearchDuration not recorded")
	}

	var failed int
	for _, r := range s.Report() {
		if r.Error != "" {
			failed++
			if filepath.Base(r.Path) != "broken.py" {
				t.Errorf("unexpected failure for %s: %s", r.Path, r.Error)
			}
		}
	}
	if failed != 1 {
		t.Errorf("want 1 failed file, got %d", failed)
	}
}

func TestScanMetricsAccumulate(t *testing.T) {
	root := setupTree(t)
	s := New(Options{})
	for i := 0; i < 2; i++ {
		if _, err := s.Scan(context.Background(), root); err != nil {
			t.Fatal(err)
		}
	}
	// tmp-cache is not excluded by default, so x.go adds a file and a tag
	if got := s.Metrics().TagsFound; got != 6 {
		t.Errorf("TagsFound after two scans = %d, want 6", got)
	}
}

func TestScanMissingRoot(t *testing.T) {
	s := New(Options{})
	if _, err := s.Scan(context.Background(), filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestScanCancelled(t *testing.T) {
	root := setupTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(Options{}).Scan(ctx, root); err == nil {
		t.Error("expected context error")
	}
}

func TestScanSkipsUnreadableSubdir(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root can read any directory")
	}
	root := setupTree(t)
	locked := filepath.Join(root, "locked")
	writeFile(t, filepath.Join(locked, "x.go"), "// @TAG:REQ:LOCK-001\n")
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	blocks, err := New(Options{}).Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	for _, b := range blocks {
		if b.TagID == "@REQ:LOCK-001" {
			t.Error("unreadable directory was scanned")
		}
	}
}

func TestExcludedAndEligible(t *testing.T) {
	s := New(Options{Exclude: []string{"build", "*.egg-info"}, Extensions: []string{"go", ".PY"}})
	if !s.Excluded("build") || !s.Excluded("pkg.egg-info") || s.Excluded("src") {
		t.Error("unexpected exclude matching")
	}
	if !s.Eligible("main.go") || !s.Eligible("tool.py") || s.Eligible("index.ts") {
		t.Error("unexpected extension matching")
	}
}
