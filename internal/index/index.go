// Package index maintains the distributed secondary index: one JSONL file
// per tag type (req.jsonl, design.jsonl, ...) next to the primary store.
//
// Append only ever adds lines. Deleting or changing a tag leaves its old
// line in place until the next Rebuild, so readers must expect stale and
// duplicate lines between rebuilds.
package index

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/steveyegge/tagtrace/internal/types"
)

const fileExt = ".jsonl"

// Entry is one line of an index file.
type Entry struct {
	Tag         string        `json:"tag"`
	Type        types.TagType `json:"type"`
	Description string        `json:"description"`
	Created     time.Time     `json:"created"`
	Status      types.Status  `json:"status"`
}

// EntryFor converts a store entry into its index line.
func EntryFor(e *types.TagEntry) Entry {
	desc := e.Description
	if desc == "" {
		desc = e.Title
	}
	return Entry{Tag: e.ID, Type: e.Type, Description: desc, Created: e.CreatedAt, Status: e.Status}
}

// Index is a directory of per-type JSONL files.
type Index struct {
	dir string
}

// New returns an Index rooted at dir. The directory is created on first write.
func New(dir string) *Index {
	return &Index{dir: dir}
}

// Dir returns the index directory.
func (x *Index) Dir() string {
	return x.dir
}

// FileFor returns the path of the index file for t.
func (x *Index) FileFor(t types.TagType) string {
	return filepath.Join(x.dir, strings.ToLower(string(t))+fileExt)
}

// Append adds one line per entry to the matching type file.
func (x *Index) Append(ctx context.Context, entries []*types.TagEntry) error {
	if err := os.MkdirAll(x.dir, 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}
	for t, lines := range group(entries) {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := encode(lines)
		if err != nil {
			return err
		}
		if err := appendFile(x.FileFor(t), data); err != nil {
			return err
		}
	}
	return nil
}

// Rebuild rewrites every type file from entries. Types with no entries get
// an empty file, so stale lines never survive a rebuild.
func (x *Index) Rebuild(ctx context.Context, entries []*types.TagEntry) error {
	if err := os.MkdirAll(x.dir, 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}
	byType := group(entries)
	for _, t := range types.AllTypes {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := encode(byType[t])
		if err != nil {
			return err
		}
		if err := atomic.WriteFile(x.FileFor(t), bytes.NewReader(data)); err != nil {
			return fmt.Errorf("rewrite %s: %w", x.FileFor(t), err)
		}
	}
	return nil
}

// Size returns the total bytes of all index files. A missing directory has
// size zero.
func (x *Index) Size() (int64, error) {
	matches, err := filepath.Glob(filepath.Join(x.dir, "*"+fileExt))
	if err != nil {
		return 0, err
	}
	var total int64
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}

// Read parses the index file for t. A missing file yields no entries.
func (x *Index) Read(t types.TagType) ([]Entry, error) {
	f, err := os.Open(x.FileFor(t))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Entry
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(text), &e); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", x.FileFor(t), line, err)
		}
		out = append(out, e)
	}
	return out, sc.Err()
}

func group(entries []*types.TagEntry) map[types.TagType][]Entry {
	out := make(map[types.TagType][]Entry)
	for _, e := range entries {
		out[e.Type] = append(out[e.Type], EntryFor(e))
	}
	return out
}

func encode(lines []Entry) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, l := range lines {
		if err := enc.Encode(l); err != nil {
			return nil, fmt.Errorf("encode index line for %s: %w", l.Tag, err)
		}
	}
	return buf.Bytes(), nil
}

func appendFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("append %s: %w", path, err)
	}
	return f.Close()
}
