// Package validation holds parsing and validation helpers shared by the
// parser, the store and the CLI.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/steveyegge/tagtrace/internal/types"
)

var (
	// domainIDPattern is DOMAIN-NNN where DOMAIN may itself contain hyphens.
	domainIDPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]*(-[A-Z0-9]+)*-\d{3,}$`)
	// referencePattern is an optionally @-prefixed TYPE:DOMAIN-NNN reference.
	referencePattern = regexp.MustCompile(`^@?([A-Z]+):([A-Z][A-Z0-9]*(?:-[A-Z0-9]+)*-\d{3,})$`)
	nonDomainChars   = regexp.MustCompile(`[^A-Z0-9]+`)
)

// ValidateID returns an error when id does not match the tag id grammar.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("id is required")
	}
	if !types.IsValidID(id) {
		return fmt.Errorf("invalid id format %q (expected @TYPE:DOMAIN-NNN, e.g. '@REQ:AUTH-001')", id)
	}
	return nil
}

// IsValidDomainID reports whether s is a DOMAIN-NNN identifier.
func IsValidDomainID(s string) bool {
	return domainIDPattern.MatchString(s)
}

// Reference is one parsed CHAIN or DEPENDS entry.
type Reference struct {
	Type     types.TagType
	DomainID string
}

// ID returns the canonical tag id for the reference.
func (r Reference) ID() string {
	return "@" + string(r.Type) + ":" + r.DomainID
}

// ParseReference parses "@TYPE:DOMAIN-NNN" (the @ is optional).
func ParseReference(s string) (Reference, error) {
	s = strings.TrimSpace(s)
	m := referencePattern.FindStringSubmatch(s)
	if m == nil {
		return Reference{}, fmt.Errorf("invalid reference %q (expected TYPE:DOMAIN-NNN)", s)
	}
	t := types.TagType(m[1])
	if !t.IsValid() {
		return Reference{}, fmt.Errorf("invalid reference %q: unknown type %s", s, m[1])
	}
	return Reference{Type: t, DomainID: m[2]}, nil
}

// ParseTagType validates a tag type name, case-insensitively.
func ParseTagType(s string) (types.TagType, error) {
	t := types.TagType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("invalid tag type: %s", s)
	}
	return t, nil
}

// ParseCategory validates a category name, case-insensitively.
func ParseCategory(s string) (types.Category, error) {
	c := types.Category(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("invalid category: %s", s)
	}
	return c, nil
}

// ParseStatus validates a tag status. Hyphens are accepted for underscores
// so "in-progress" works on the command line.
func ParseStatus(s string) (types.Status, error) {
	st := types.Status(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !st.IsValid() {
		return "", fmt.Errorf("invalid status %q (expected pending, in_progress, completed or blocked)", s)
	}
	return st, nil
}

// ParsePriority validates a priority word.
func ParsePriority(s string) (types.Priority, error) {
	p := types.Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("invalid priority %q (expected critical, high, medium or low)", s)
	}
	return p, nil
}

// NormalizeDomain upper-cases a free-form domain name and collapses every
// run of other characters to a single hyphen: "user profile" -> "USER-PROFILE".
func NormalizeDomain(domain string) string {
	d := nonDomainChars.ReplaceAllString(strings.ToUpper(domain), "-")
	return strings.Trim(d, "-")
}

// ValidateEntry checks the fields of an entry that do not depend on the rest
// of the tag set.
func ValidateEntry(e *types.TagEntry) []string {
	var errs []string
	if err := ValidateID(e.ID); err != nil {
		errs = append(errs, err.Error())
	}
	if strings.TrimSpace(e.Title) == "" {
		errs = append(errs, "title is required")
	}
	if e.Type != "" && !e.Type.IsValid() {
		errs = append(errs, fmt.Sprintf("invalid type: %s", e.Type))
	}
	if e.Category != "" && !e.Category.IsValid() {
		errs = append(errs, fmt.Sprintf("invalid category: %s", e.Category))
	}
	if e.Status != "" && !e.Status.IsValid() {
		errs = append(errs, fmt.Sprintf("invalid status: %s", e.Status))
	}
	if e.Priority != "" && !e.Priority.IsValid() {
		errs = append(errs, fmt.Sprintf("invalid priority: %s", e.Priority))
	}
	return errs
}
