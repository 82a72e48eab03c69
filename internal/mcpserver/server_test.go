package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/tagtrace/internal/agent"
	"github.com/steveyegge/tagtrace/internal/index"
	"github.com/steveyegge/tagtrace/internal/storage/jsonstore"
)

func newTestAgent(t *testing.T) *agent.Agent {
	t.Helper()
	dir := t.TempDir()
	s, err := jsonstore.New(jsonstore.Options{Path: filepath.Join(dir, ".tags", "tags.json")})
	require.NoError(t, err)
	a, err := agent.New(agent.Options{Store: s, Index: index.New(filepath.Join(dir, ".tags", "index"))})
	require.NoError(t, err)
	return a
}

func makeReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(r *mcp.CallToolResult) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func findTool(t *testing.T, name string) tool {
	t.Helper()
	for _, tl := range tools() {
		if tl.def.Name == name {
			return tl
		}
	}
	t.Fatalf("tool %q not registered", name)
	return tool{}
}

func call(t *testing.T, a *agent.Agent, name string, args map[string]any) (*mcp.CallToolResult, agent.Response) {
	t.Helper()
	res, err := handler(a, findTool(t, name))(context.Background(), makeReq(args))
	require.NoError(t, err)
	var resp agent.Response
	if text := resultText(res); len(text) > 0 && text[0] == '{' {
		require.NoError(t, json.Unmarshal([]byte(text), &resp))
	}
	return res, resp
}

func TestToolNames(t *testing.T) {
	var names []string
	for _, tl := range tools() {
		names = append(names, tl.def.Name)
	}
	assert.ElementsMatch(t, []string{
		"tag_create_chain", "tag_search", "tag_validate", "tag_repair",
		"tag_index", "tag_stats", "tag_scan",
	}, names)

	def := findTool(t, "tag_create_chain").def
	assert.Contains(t, def.InputSchema.Required, "domain")
	for _, arg := range []string{"description", "related_files"} {
		prop, ok := def.InputSchema.Properties[arg].(map[string]any)
		require.True(t, ok, arg)
		assert.Contains(t, prop["description"], "every tag of the chain", arg)
	}
}

func TestCreateThenSearch(t *testing.T) {
	a := newTestAgent(t)

	res, resp := call(t, a, "tag_create_chain", map[string]any{
		"domain":        "auth",
		"description":   "login",
		"related_files": []any{"auth/login.go", " "},
	})
	require.False(t, res.IsError, resultText(res))
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Message, "created 4 tags")

	res, resp = call(t, a, "tag_search", map[string]any{"keyword": "AUTH"})
	require.False(t, res.IsError)
	assert.Equal(t, "found 4 tags", resp.Message)

	res, resp = call(t, a, "tag_validate", map[string]any{})
	require.False(t, res.IsError)
	assert.True(t, resp.Success)
}

func TestMissingArguments(t *testing.T) {
	a := newTestAgent(t)

	res, _ := call(t, a, "tag_create_chain", map[string]any{})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), "'domain' is required")

	res, _ = call(t, a, "tag_search", map[string]any{"keyword": ""})
	assert.True(t, res.IsError)
}

func TestFailedResponseIsError(t *testing.T) {
	a := newTestAgent(t)
	res, resp := call(t, a, "tag_scan", map[string]any{"path": filepath.Join(t.TempDir(), "missing")})
	assert.True(t, res.IsError)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "scan failed")
}

func TestStringList(t *testing.T) {
	req := makeReq(map[string]any{"a": "x.go, y.go,,", "b": []any{"z.go", 3}})
	assert.Equal(t, []string{"x.go", "y.go"}, stringList(req, "a"))
	assert.Equal(t, []string{"z.go"}, stringList(req, "b"))
	assert.Nil(t, stringList(req, "missing"))
}
