package parser

import (
	"path/filepath"
	"strings"
)

// blockLine is one line of comment text with its comment markers removed.
type blockLine struct {
	text string
	line int // 1-based line number in the file
}

type opener struct {
	start string
	end   string // "" for line comments
}

var (
	docBlock    = opener{"/**", "*/"}
	cBlock      = opener{"/*", "*/"}
	htmlBlock   = opener{"<!--", "-->"}
	dqDocstring = opener{`"""`, `"""`}
	sqDocstring = opener{"'''", "'''"}
	slashes     = opener{"//", ""}
	dashes      = opener{"--", ""}
	semis       = opener{";;", ""}
	hash        = opener{"#", ""}
)

// Order matters: longer openers that share a prefix come first.
var (
	allOpeners    = []opener{docBlock, cBlock, htmlBlock, dqDocstring, sqDocstring, slashes, dashes, semis, hash}
	cStyleOpeners = []opener{docBlock, cBlock, slashes}
	hashOpeners   = []opener{hash}
	htmlOpeners   = []opener{htmlBlock}
	lispOpeners   = []opener{semis}
)

// openersByExt lists the comment syntaxes of each known extension. In C
// family files '#' starts a preprocessor directive, not a comment.
var openersByExt = map[string][]opener{
	".go": cStyleOpeners, ".ts": cStyleOpeners, ".tsx": cStyleOpeners,
	".js": cStyleOpeners, ".jsx": cStyleOpeners, ".mjs": cStyleOpeners, ".cjs": cStyleOpeners,
	".java": cStyleOpeners, ".kt": cStyleOpeners, ".rs": cStyleOpeners,
	".c": cStyleOpeners, ".h": cStyleOpeners, ".cpp": cStyleOpeners, ".hpp": cStyleOpeners,
	".cs": cStyleOpeners, ".swift": cStyleOpeners,
	".php":  {docBlock, cBlock, slashes, hash},
	".py":   {dqDocstring, sqDocstring, hash},
	".sql":  {docBlock, cBlock, dashes},
	".rb":   hashOpeners,
	".sh":   hashOpeners,
	".yaml": hashOpeners,
	".yml":  hashOpeners,
	".md":   htmlOpeners,
	".html": htmlOpeners,
	".xml":  htmlOpeners,
	".el":   lispOpeners,
	".clj":  lispOpeners,
	".lisp": lispOpeners,
}

// openersFor returns the openers recognised in path. Unknown extensions
// accept every syntax.
func openersFor(path string) []opener {
	if ops, ok := openersByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return ops
	}
	return allOpeners
}

// isBuildDirective reports whether trimmed is a Go build constraint. It
// precedes the package doc comment and is not part of it.
func isBuildDirective(trimmed string) bool {
	return strings.HasPrefix(trimmed, "//go:build") || strings.HasPrefix(trimmed, "// +build")
}

// extractBlock returns the first comment block in lines using the comment
// syntaxes in ops. Blank lines, a leading shebang and Go build constraints
// are skipped; ordinary code before any comment means there is no block.
func extractBlock(lines []string, ops []opener) ([]blockLine, bool) {
	for i, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || isBuildDirective(trimmed) {
			continue
		}
		if strings.HasPrefix(trimmed, "#!") && isFirstNonBlank(lines, i) {
			continue
		}
		op, ok := matchOpener(trimmed, ops)
		if !ok {
			return nil, false
		}
		if op.end == "" {
			return lineComment(lines, i, op.start), true
		}
		return delimitedComment(lines, i, op), true
	}
	return nil, false
}

func isFirstNonBlank(lines []string, idx int) bool {
	for _, l := range lines[:idx] {
		if strings.TrimSpace(l) != "" {
			return false
		}
	}
	return true
}

func matchOpener(trimmed string, ops []opener) (opener, bool) {
	for _, op := range ops {
		if strings.HasPrefix(trimmed, op.start) {
			return op, true
		}
	}
	return opener{}, false
}

// lineComment collects consecutive lines starting with prefix.
func lineComment(lines []string, start int, prefix string) []blockLine {
	var out []blockLine
	for i := start; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, prefix) {
			break
		}
		text := strings.TrimLeft(strings.TrimPrefix(trimmed, prefix), prefix[:1])
		out = append(out, blockLine{text: strings.TrimSpace(text), line: i + 1})
	}
	return out
}

// delimitedComment collects lines from the opener through the closing
// delimiter, or through the last available line when it never closes.
func delimitedComment(lines []string, start int, op opener) []blockLine {
	var out []blockLine
	first := strings.TrimPrefix(strings.TrimSpace(lines[start]), op.start)
	if idx := strings.Index(first, op.end); idx >= 0 {
		return append(out, blockLine{text: cleanInner(first[:idx]), line: start + 1})
	}
	out = append(out, blockLine{text: cleanInner(first), line: start + 1})
	for i := start + 1; i < len(lines); i++ {
		text := lines[i]
		if idx := strings.Index(text, op.end); idx >= 0 {
			out = append(out, blockLine{text: cleanInner(text[:idx]), line: i + 1})
			break
		}
		out = append(out, blockLine{text: cleanInner(text), line: i + 1})
	}
	return out
}

// cleanInner strips the leading " * " decoration of block comments.
func cleanInner(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "*")
	return strings.TrimSpace(s)
}
