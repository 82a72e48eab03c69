// Package scanner walks a source tree and parses the TAG block of every
// eligible file.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/steveyegge/tagtrace/internal/parser"
	"github.com/steveyegge/tagtrace/internal/types"
)

// DefaultExclude lists directory names that are never descended into.
var DefaultExclude = []string{
	".git", ".hg", ".svn", "node_modules", "vendor", "dist", "build", "target",
	"coverage", "__pycache__", ".venv", ".next", ".tags",
}

// DefaultExtensions lists the file extensions handed to the parser.
var DefaultExtensions = []string{
	".go", ".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".py", ".java", ".kt",
	".rs", ".rb", ".php", ".c", ".h", ".cpp", ".hpp", ".cs", ".swift", ".sh",
	".sql", ".md", ".yaml", ".yml",
}

// Options configures a Scanner. Zero fields take the defaults above.
type Options struct {
	Exclude    []string // exact directory names or filepath.Match globs
	Extensions []string
	MaxLines   int
	Logger     *slog.Logger
}

// Metrics are cumulative over the scanner's lifetime except
// LastSearchDuration, which covers the most recent Scan.
type Metrics struct {
	FilesScanned       int           `json:"filesScanned"`
	TagsFound          int           `json:"tagsFound"`
	ParseTime          time.Duration `json:"parseTime"`
	LastSearchDuration time.Duration `json:"lastSearchDuration"`
}

// FileReport records a file whose block failed to parse or parsed with
// warnings.
type FileReport struct {
	Path     string   `json:"path"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Scanner is safe for sequential reuse. Metrics and Report may be read
// from other goroutines.
type Scanner struct {
	parser     *parser.Parser
	exclude    []string
	extensions map[string]bool
	log        *slog.Logger

	mu      sync.Mutex
	metrics Metrics
	report  []FileReport
}

// New creates a Scanner.
func New(opts Options) *Scanner {
	exclude := opts.Exclude
	if len(exclude) == 0 {
		exclude = DefaultExclude
	}
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	extSet := make(map[string]bool, len(exts))
	for _, e := range exts {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		extSet[strings.ToLower(e)] = true
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Scanner{
		parser:     parser.New(opts.MaxLines),
		exclude:    exclude,
		extensions: extSet,
		log:        log,
	}
}

// Scan walks root depth-first in sorted order and returns every TAG block
// found. Unreadable subdirectories are skipped; an unreadable root is an
// error. The context is checked between files.
func (s *Scanner) Scan(ctx context.Context, root string) ([]types.TagBlock, error) {
	start := time.Now()
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan root %s: %w", root, err)
	}

	w := &walk{s: s, ctx: ctx}
	if info.IsDir() {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("read root %s: %w", root, err)
		}
		err = w.dir(root, entries)
		if err != nil {
			return nil, err
		}
	} else {
		w.file(root)
	}

	s.mu.Lock()
	s.metrics.FilesScanned += w.files
	s.metrics.TagsFound += len(w.blocks)
	s.metrics.ParseTime += w.parseTime
	s.metrics.LastSearchDuration = time.Since(start)
	s.report = w.report
	s.mu.Unlock()

	s.log.Debug("scan complete", "root", root, "files", w.files, "tags", len(w.blocks), "duration", time.Since(start))
	return w.blocks, nil
}

// Metrics returns a snapshot of the scan metrics.
func (s *Scanner) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics
}

// Report returns the per-file failures and warnings of the last scan.
func (s *Scanner) Report() []FileReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]FileReport(nil), s.report...)
}

// Excluded reports whether a directory name matches the exclude list.
func (s *Scanner) Excluded(name string) bool {
	for _, pat := range s.exclude {
		if pat == name {
			return true
		}
		if ok, _ := filepath.Match(pat, name); ok {
			return true
		}
	}
	return false
}

// Eligible reports whether a file name has an allowed extension.
func (s *Scanner) Eligible(name string) bool {
	return s.extensions[strings.ToLower(filepath.Ext(name))]
}

type walk struct {
	s         *Scanner
	ctx       context.Context
	blocks    []types.TagBlock
	report    []FileReport
	files     int
	parseTime time.Duration
}

// dir visits entries, which os.ReadDir returns sorted by name.
func (w *walk) dir(path string, entries []fs.DirEntry) error {
	for _, e := range entries {
		if err := w.ctx.Err(); err != nil {
			return err
		}
		child := filepath.Join(path, e.Name())
		if e.IsDir() {
			if w.s.Excluded(e.Name()) {
				continue
			}
			sub, err := os.ReadDir(child)
			if err != nil {
				w.s.log.Debug("skipping unreadable directory", "path", child, "error", err)
				continue
			}
			if err := w.dir(child, sub); err != nil {
				return err
			}
			continue
		}
		if !e.Type().IsRegular() || !w.s.Eligible(e.Name()) {
			continue
		}
		w.file(child)
	}
	return nil
}

func (w *walk) file(path string) {
	start := time.Now()
	res := w.s.parser.ParseFile(path)
	w.parseTime += time.Since(start)
	w.files++

	switch {
	case res.Success:
		w.blocks = append(w.blocks, *res.Block)
		if len(res.Warnings) > 0 {
			w.report = append(w.report, FileReport{Path: path, Warnings: res.Warnings})
		}
	case res.NoBlock:
		// untagged files are legal
	default:
		w.report = append(w.report, FileReport{Path: path, Error: res.Error, Warnings: res.Warnings})
	}
}
