// Package timeparsing turns the date arguments of query flags into times.
//
// Inputs are tried in order:
//  1. Compact duration (3d, -6h, +2w)
//  2. Absolute date (2006-01-02, RFC3339)
//  3. Natural language (yesterday, last monday, 3 days ago)
//
// Query flags look backwards, so an unsigned compact duration ("3d") means
// that long ago. An explicit "+" moves forward.
package timeparsing

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var compactRe = regexp.MustCompile(`^([+-]?)(\d+)([hdwmy])$`)

// ErrUnrecognized is returned when no layer understands the input.
var ErrUnrecognized = errors.New("unrecognized time expression")

// Parse resolves s against now. An empty string is an error.
func Parse(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrUnrecognized)
	}
	if t, ok := parseCompact(s, now); ok {
		return t, nil
	}
	if t, ok := parseAbsolute(s); ok {
		return t, nil
	}
	if t, err := parseNatural(s, now); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognized, s)
}

// IsCompact reports whether s uses the compact duration syntax.
func IsCompact(s string) bool {
	return compactRe.MatchString(s)
}

func parseCompact(s string, now time.Time) (time.Time, bool) {
	m := compactRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return time.Time{}, false
	}
	if m[1] != "+" {
		n = -n
	}
	switch m[3] {
	case "h":
		return now.Add(time.Duration(n) * time.Hour), true
	case "d":
		return now.AddDate(0, 0, n), true
	case "w":
		return now.AddDate(0, 0, 7*n), true
	case "m":
		return now.AddDate(0, n, 0), true
	default:
		return now.AddDate(n, 0, 0), true
	}
}

// absoluteLayouts are tried in order; date-only values are local midnight.
var absoluteLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"}

func parseAbsolute(s string) (time.Time, bool) {
	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
