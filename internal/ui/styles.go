// Package ui provides terminal styling for tt output.
// Colors adapt to light and dark terminals.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/steveyegge/tagtrace/internal/types"
)

var (
	ColorPass = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	ColorWarn = lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"}
	ColorFail = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	// ColorMuted is used for secondary fields like file paths and timestamps.
	ColorMuted  = lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}
	ColorAccent = lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"}
)

var (
	PassStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	IDStyle     = lipgloss.NewStyle().Bold(true)
)

const (
	IconPass = "✓"
	IconWarn = "⚠"
	IconFail = "✗"
	IconInfo = "ℹ"
)

// TreeLast prefixes detail lines under an entry.
const TreeLast = "└─ "

const separator = "──────────────────────────────────────────"

func RenderPass(s string) string   { return PassStyle.Render(s) }
func RenderWarn(s string) string   { return WarnStyle.Render(s) }
func RenderFail(s string) string   { return FailStyle.Render(s) }
func RenderMuted(s string) string  { return MutedStyle.Render(s) }
func RenderAccent(s string) string { return AccentStyle.Render(s) }
func RenderID(s string) string     { return IDStyle.Render(s) }

// RenderHeader renders a section header in uppercase.
func RenderHeader(s string) string {
	return HeaderStyle.Render(strings.ToUpper(s))
}

func RenderSeparator() string {
	return MutedStyle.Render(separator)
}

func PassIcon() string { return PassStyle.Render(IconPass) }
func WarnIcon() string { return WarnStyle.Render(IconWarn) }
func FailIcon() string { return FailStyle.Render(IconFail) }
func InfoIcon() string { return AccentStyle.Render(IconInfo) }

// RenderStatus colors a tag status: completed is green, blocked red,
// in progress yellow and pending muted.
func RenderStatus(s types.Status) string {
	switch s {
	case types.StatusCompleted:
		return PassStyle.Render(string(s))
	case types.StatusBlocked:
		return FailStyle.Render(string(s))
	case types.StatusInProgress:
		return WarnStyle.Render(string(s))
	default:
		return MutedStyle.Render(string(s))
	}
}

// RenderGate colors a quality gate name.
func RenderGate(gate string) string {
	switch gate {
	case "healthy":
		return PassStyle.Render(gate)
	case "warning":
		return WarnStyle.Render(gate)
	default:
		return FailStyle.Render(gate)
	}
}

// TagLine formats one tag for list output:
//
//	@REQ:AUTH-001  pending  AUTH requirement
func TagLine(e *types.TagEntry) string {
	title := e.Title
	if title == "" {
		title = RenderMuted("(untitled)")
	}
	return RenderID(e.ID) + "  " + RenderStatus(e.Status) + "  " + title
}
