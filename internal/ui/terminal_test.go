package ui

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/steveyegge/tagtrace/internal/types"
)

func TestShouldUseColor(t *testing.T) {
	tests := []struct {
		name          string
		noColor       string
		cliColor      string
		cliColorForce string
		want          bool
	}{
		{name: "NO_COLOR disables color", noColor: "1", want: false},
		{name: "CLICOLOR=0 disables color", cliColor: "0", want: false},
		{name: "CLICOLOR_FORCE enables color off a terminal", cliColorForce: "1", want: true},
		{name: "NO_COLOR beats CLICOLOR_FORCE", noColor: "1", cliColorForce: "1", want: false},
		{name: "no terminal under go test", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range map[string]string{"NO_COLOR": tt.noColor, "CLICOLOR": tt.cliColor, "CLICOLOR_FORCE": tt.cliColorForce} {
				t.Setenv(k, v)
				if v == "" {
					os.Unsetenv(k)
				}
			}
			if tt.name == "no terminal under go test" && IsTerminal() {
				t.Skip("stdout is a terminal")
			}
			if got := ShouldUseColor(); got != tt.want {
				t.Errorf("ShouldUseColor() = %v, want %v", got, tt.want)
			}
		})
	}
}

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func plain(s string) string { return ansi.ReplaceAllString(s, "") }

func TestPlainRendering(t *testing.T) {
	Init(false)
	line := plain(TagLine(&types.TagEntry{ID: "@REQ:AUTH-001", Status: types.StatusPending, Title: "AUTH requirement"}))
	if line != "@REQ:AUTH-001  pending  AUTH requirement" {
		t.Errorf("TagLine() = %q", line)
	}
	if got := plain(RenderHeader("chains")); got != "CHAINS" {
		t.Errorf("RenderHeader() = %q", got)
	}
	if got := TagLine(&types.TagEntry{ID: "@TASK:X-001"}); !strings.Contains(got, "(untitled)") {
		t.Errorf("untitled tag rendered as %q", got)
	}
}
