// Package types defines core data structures for the tt traceability engine.
package types

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// SchemaVersion is the version written to new tag databases.
const SchemaVersion = "1.0.0"

// TagEntry is the persisted unit of truth: one traceability node.
type TagEntry struct {
	ID          string         `json:"id"`
	Type        TagType        `json:"type"`
	Category    Category       `json:"category"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Status      Status         `json:"status"`
	Priority    Priority       `json:"priority"`
	Parents     []string       `json:"parents"`
	Children    []string       `json:"children"`
	Files       []string       `json:"files"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	Author      string         `json:"author,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"` // open bag; consumers validate their own keys
}

// Clone returns a deep copy so callers can't mutate store-owned slices.
func (t *TagEntry) Clone() *TagEntry {
	if t == nil {
		return nil
	}
	c := *t
	c.Parents = cloneStrings(t.Parents)
	c.Children = cloneStrings(t.Children)
	c.Files = cloneStrings(t.Files)
	if t.Metadata != nil {
		c.Metadata = make(map[string]any, len(t.Metadata))
		for k, v := range t.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// SetDefaults applies default values for unset fields:
//   - Type: defaults to REQ
//   - Category: defaults to the category of Type
//   - Status: defaults to pending
//   - Priority: defaults to medium
func (t *TagEntry) SetDefaults() {
	if t.Type == "" {
		t.Type = TypeREQ
	}
	if t.Category == "" {
		t.Category = t.Type.Category()
		if t.Category == "" {
			t.Category = CategoryPrimary
		}
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Parents == nil {
		t.Parents = []string{}
	}
	if t.Children == nil {
		t.Children = []string{}
	}
	if t.Files == nil {
		t.Files = []string{}
	}
}

// IsOrphan reports whether the tag has no parents although its type expects one.
// Only REQ tags are legitimate roots.
func (t *TagEntry) IsOrphan() bool {
	return len(t.Parents) == 0 && t.Type != TypeREQ
}

// TagUpdate carries a partial update. Nil fields are left untouched.
// The id is deliberately absent: it is immutable.
type TagUpdate struct {
	Type        *TagType
	Category    *Category
	Title       *string
	Description *string
	Status      *Status
	Priority    *Priority
	Parents     *[]string
	Children    *[]string
	Files       *[]string
	Author      *string
	Metadata    map[string]any // merged key by key; a nil value deletes the key
}

// TagBlock is the ephemeral result of parsing one file's leading comment.
// It is never written to the store.
type TagBlock struct {
	TagID     string      `json:"tagId"`
	Category  TagType     `json:"category"`
	DomainID  string      `json:"domainId"`
	Chain     []string    `json:"chain,omitempty"`
	Depends   []string    `json:"depends,omitempty"`
	Status    BlockStatus `json:"status"`
	Created   string      `json:"created"`
	Immutable bool        `json:"immutable"`
	FilePath  string      `json:"filePath"`
	Line      int         `json:"line"`
}

// TagDatabase is the on-disk document.
type TagDatabase struct {
	Version  string               `json:"version"`
	Tags     map[string]*TagEntry `json:"tags"`
	Indexes  Indexes              `json:"indexes"`
	Metadata DatabaseMetadata     `json:"metadata"`
}

// Indexes are secondary lookups from a field value to the ids carrying it.
type Indexes struct {
	ByType     map[string][]string `json:"byType"`
	ByCategory map[string][]string `json:"byCategory"`
	ByStatus   map[string][]string `json:"byStatus"`
	ByFile     map[string][]string `json:"byFile"`
}

// DatabaseMetadata is recomputed on every save.
type DatabaseMetadata struct {
	TotalTags   int       `json:"totalTags"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// NewTagDatabase returns an empty database at the current schema version.
func NewTagDatabase() *TagDatabase {
	return &TagDatabase{
		Version: SchemaVersion,
		Tags:    make(map[string]*TagEntry),
		Indexes: NewIndexes(),
	}
}

// NewIndexes returns empty, non-nil index maps.
func NewIndexes() Indexes {
	return Indexes{
		ByType:     make(map[string][]string),
		ByCategory: make(map[string][]string),
		ByStatus:   make(map[string][]string),
		ByFile:     make(map[string][]string),
	}
}

// TagQuery selects tags. Every set field narrows the result (AND).
type TagQuery struct {
	Types         []TagType  `json:"types,omitempty"`
	Categories    []Category `json:"categories,omitempty"`
	Statuses      []Status   `json:"statuses,omitempty"`
	IDPattern     string     `json:"idPattern,omitempty"` // regular expression
	FilePath      string     `json:"filePath,omitempty"`  // substring
	ParentID      string     `json:"parentId,omitempty"`
	ChildID       string     `json:"childId,omitempty"`
	CreatedAfter  *time.Time `json:"createdAfter,omitempty"` // inclusive
	CreatedBefore *time.Time `json:"createdBefore,omitempty"`
	UpdatedAfter  *time.Time `json:"updatedAfter,omitempty"`
	UpdatedBefore *time.Time `json:"updatedBefore,omitempty"`
}

// IsIndexed reports whether the query can be narrowed through secondary indexes.
func (q TagQuery) IsIndexed() bool {
	return len(q.Types) > 0 || len(q.Categories) > 0 || len(q.Statuses) > 0
}

// SearchResult is returned by Storage.Search.
type SearchResult struct {
	Tags    []*TagEntry   `json:"tags"`
	Total   int           `json:"total"`
	Elapsed time.Duration `json:"elapsed"`
}

// ValidationResult describes the outcome of validating one tag.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Statistics summarises the tag set.
type Statistics struct {
	TotalTags          int            `json:"totalTags"`
	ByType             map[string]int `json:"byType"`
	ByCategory         map[string]int `json:"byCategory"`
	ByStatus           map[string]int `json:"byStatus"`
	OrphanedTags       int            `json:"orphanedTags"`
	CircularReferences int            `json:"circularReferences"`
}

// idPattern is the canonical tag id grammar. It accepts both the
// @TYPE:DOMAIN-NNN form and the all-hyphen @TYPE-DOMAIN-NNN form.
var idPattern = regexp.MustCompile(`^@[A-Z]+([:-][A-Z0-9]+)*-\d{3,}$`)

// IsValidID reports whether id matches the tag id grammar.
func IsValidID(id string) bool {
	return idPattern.MatchString(id)
}

// FormatID builds the canonical id for a type, domain and sequence number.
func FormatID(t TagType, domain string, seq int) string {
	return fmt.Sprintf("@%s:%s-%03d", t, domain, seq)
}

// SplitID breaks a canonical id into its type prefix and the remainder
// (the domain suffix, e.g. "AUTH-001"). ok is false when the id has no
// recognisable type prefix.
func SplitID(id string) (t TagType, suffix string, ok bool) {
	rest := strings.TrimPrefix(id, "@")
	if rest == id {
		return "", "", false
	}
	i := strings.IndexAny(rest, ":-")
	if i <= 0 || i == len(rest)-1 {
		return "", "", false
	}
	return TagType(rest[:i]), rest[i+1:], true
}

// DomainStem strips the type prefix and the numeric sequence from an id:
// "@REQ:AUTH-001" -> "AUTH". Ids that do not split return themselves.
func DomainStem(id string) string {
	_, suffix, ok := SplitID(id)
	if !ok {
		return id
	}
	if i := strings.LastIndex(suffix, "-"); i > 0 && isDigits(suffix[i+1:]) {
		return suffix[:i]
	}
	return suffix
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
