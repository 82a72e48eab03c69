// Package parser extracts the TAG block from the leading comment of a
// source file.
//
// A TAG block looks like:
//
//	/**
//	 * @TAG:REQ:AUTH-001
//	 * CHAIN: REQ:AUTH-001 -> DESIGN:AUTH-001 -> TASK:AUTH-001 -> TEST:AUTH-001
//	 * DEPENDS: NONE
//	 * STATUS: active
//	 * CREATED: 2025-01-15
//	 * @IMMUTABLE
//	 */
//
// Only the first comment block within the first MaxLines lines is examined.
// Absence of a block is a legal, non-fatal outcome.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/steveyegge/tagtrace/internal/graph"
	"github.com/steveyegge/tagtrace/internal/types"
	"github.com/steveyegge/tagtrace/internal/validation"
)

// DefaultMaxLines bounds how far into a file the parser looks.
const DefaultMaxLines = 50

const createdLayout = "2006-01-02"

const byteOrderMark = "\ufeff"

var (
	mainTagPattern = regexp.MustCompile(`@(TAG|DOC):([A-Z]+):([A-Z0-9]+(?:-[A-Z0-9]+)*)(?:\s|$)`)
	markerPattern  = regexp.MustCompile(`@(TAG|DOC):`)
	fieldPattern   = regexp.MustCompile(`^@?(CHAIN|DEPENDS|STATUS|CREATED)\s*:\s*(.*)$`)
)

// Result is the outcome of parsing one file.
type Result struct {
	Success     bool            `json:"success"`
	Block       *types.TagBlock `json:"block,omitempty"`
	Error       string          `json:"error,omitempty"`
	Warnings    []string        `json:"warnings,omitempty"`
	Suggestions []string        `json:"suggestions,omitempty"`
	NoBlock     bool            `json:"noBlock,omitempty"` // no comment block found; not an error
}

// Parser parses TAG blocks. The zero value is not usable; use New.
type Parser struct {
	maxLines int
	now      func() time.Time
}

// New returns a parser that examines at most maxLines lines per file.
// Non-positive values fall back to DefaultMaxLines.
func New(maxLines int) *Parser {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	return &Parser{maxLines: maxLines, now: time.Now}
}

var defaultParser = New(DefaultMaxLines)

// Parse parses content with the default parser.
func Parse(content, filePath string) Result {
	return defaultParser.Parse(content, filePath)
}

// ParseFile parses the file at path with the default parser.
func ParseFile(path string) Result {
	return defaultParser.ParseFile(path)
}

// Parse extracts the TAG block from content.
func (p *Parser) Parse(content, filePath string) Result {
	return p.parseLines(firstLines(strings.NewReader(content), p.maxLines), filePath)
}

// ParseFile reads at most MaxLines lines of path and parses them.
// An unreadable file yields a failure result, not an error.
func (p *Parser) ParseFile(path string) Result {
	f, err := os.Open(path)
	if err != nil {
		return Result{Error: fmt.Sprintf("cannot read file: %v", err)}
	}
	defer f.Close()
	return p.parseLines(firstLines(f, p.maxLines), path)
}

// MaxLines returns the line budget.
func (p *Parser) MaxLines() int {
	return p.maxLines
}

func (p *Parser) parseLines(lines []string, filePath string) Result {
	block, ok := extractBlock(lines, openersFor(filePath))
	if !ok {
		return Result{NoBlock: true, Error: "no tag block"}
	}

	var res Result
	mainIdx := -1
	for i, l := range block {
		if mainTagPattern.MatchString(l.text) {
			mainIdx = i
			break
		}
		if markerPattern.MatchString(l.text) {
			res.Error = fmt.Sprintf("malformed @TAG line at %d: %q", l.line, strings.TrimSpace(l.text))
			return res
		}
	}
	if mainIdx < 0 {
		res.Error = "no @TAG line found"
		return res
	}

	m := mainTagPattern.FindStringSubmatch(block[mainIdx].text)
	category := types.TagType(m[2])
	domainID := m[3]
	if !category.IsValid() {
		res.Error = fmt.Sprintf("unknown category %q", m[2])
		return res
	}

	tb := &types.TagBlock{
		TagID:    "@" + string(category) + ":" + domainID,
		Category: category,
		DomainID: domainID,
		FilePath: filePath,
		Line:     block[mainIdx].line,
	}
	if !validation.IsValidDomainID(domainID) {
		res.warn("domain id %q does not match DOMAIN-NNN", domainID)
	}

	var seenChain, seenDepends, seenStatus, seenCreated bool
	for _, l := range block[mainIdx+1:] {
		text := strings.TrimSpace(l.text)
		if text == "@IMMUTABLE" {
			tb.Immutable = true
			continue
		}
		fm := fieldPattern.FindStringSubmatch(text)
		if fm == nil {
			continue
		}
		value := strings.TrimSpace(fm[2])
		switch fm[1] {
		case "CHAIN":
			seenChain = true
			tb.Chain = res.parseRefs(strings.Split(value, "->"), "CHAIN")
		case "DEPENDS":
			seenDepends = true
			if strings.EqualFold(value, "none") || value == "" {
				tb.Depends = []string{}
			} else {
				tb.Depends = res.parseRefs(strings.Split(value, ","), "DEPENDS")
			}
		case "STATUS":
			seenStatus = true
			st := types.BlockStatus(strings.ToLower(value))
			if !st.IsValid() {
				res.warn("unknown STATUS %q, defaulting to active", value)
				st = types.BlockActive
			}
			tb.Status = st
		case "CREATED":
			seenCreated = true
			if _, err := time.Parse(createdLayout, value); err != nil {
				res.warn("malformed CREATED %q, defaulting to today", value)
				tb.Created = p.now().Format(createdLayout)
			} else {
				tb.Created = value
			}
		}
	}

	if !seenChain {
		res.warn("missing CHAIN")
	}
	if !seenDepends {
		res.warn("missing DEPENDS")
		tb.Depends = []string{}
	}
	if !seenStatus {
		res.warn("missing STATUS, defaulting to active")
		tb.Status = types.BlockActive
	}
	if !seenCreated {
		res.warn("missing CREATED, defaulting to today")
		tb.Created = p.now().Format(createdLayout)
	}
	if !tb.Immutable {
		res.Suggestions = append(res.Suggestions, "add @IMMUTABLE to lock this TAG block")
	}

	for _, v := range graph.CheckChainOrder(ChainTypes(tb.Chain)) {
		res.warn("chain order: %s appears after %s", v.Type, v.Previous)
	}

	res.Success = true
	res.Block = tb
	return res
}

// ChainTypes maps chain references to their tag types, skipping entries
// that do not parse.
func ChainTypes(chain []string) []types.TagType {
	out := make([]types.TagType, 0, len(chain))
	for _, c := range chain {
		if ref, err := validation.ParseReference(c); err == nil {
			out = append(out, ref.Type)
		}
	}
	return out
}

func (r *Result) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// parseRefs canonicalises valid references and keeps invalid ones verbatim
// with a warning.
func (r *Result) parseRefs(parts []string, field string) []string {
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ref, err := validation.ParseReference(part)
		if err != nil {
			r.warn("%s: %v", field, err)
			out = append(out, part)
			continue
		}
		out = append(out, ref.ID())
	}
	return out
}

func firstLines(r io.Reader, max int) []string {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lines []string
	for len(lines) < max && sc.Scan() {
		line := sc.Text()
		if len(lines) == 0 {
			line = strings.TrimPrefix(line, byteOrderMark)
		}
		lines = append(lines, line)
	}
	return lines
}
