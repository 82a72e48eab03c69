// Package mcpserver exposes the tag agent as MCP tools over stdio.
//
// Every tool maps its arguments onto an agent.Request, runs it through
// Agent.Handle and returns the JSON response as text. A response with
// success=false becomes an MCP error result so clients can tell the two
// apart without parsing.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/steveyegge/tagtrace/internal/agent"
)

// Name is the server name reported to MCP clients.
const Name = "tagtrace"

// tool pairs a definition with the function that turns its arguments into
// an agent request.
type tool struct {
	def     mcp.Tool
	request func(mcp.CallToolRequest) (agent.Request, error)
}

// New builds an MCP server with every tag tool registered.
func New(a *agent.Agent, version string) *server.MCPServer {
	s := server.NewMCPServer(Name, version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	for _, t := range tools() {
		s.AddTool(t.def, handler(a, t))
	}
	return s
}

// Serve runs s on stdin/stdout until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

const instructions = "Traceability tags link requirements (@REQ) to designs (@DESIGN), " +
	"tasks (@TASK) and tests (@TEST). Search before creating a chain: " +
	"reuse an existing domain when tag_search recommends one."

func tools() []tool {
	return []tool{
		{
			def: mcp.NewTool("tag_create_chain",
				mcp.WithDescription("Create a REQ -> DESIGN -> TASK -> TEST chain for a domain, using the next free sequence number."),
				mcp.WithString("domain", mcp.Required(), mcp.Description("Domain name, e.g. AUTH or PAYMENT")),
				mcp.WithString("description", mcp.Description("Description stored on every tag of the chain")),
				mcp.WithString("related_files", mcp.Description("Comma-separated files attached to every tag of the chain")),
			),
			request: func(req mcp.CallToolRequest) (agent.Request, error) {
				domain := req.GetString("domain", "")
				if domain == "" {
					return agent.Request{}, fmt.Errorf("'domain' is required")
				}
				return agent.Request{
					Action:       agent.ActionCreate,
					Domain:       domain,
					Description:  req.GetString("description", ""),
					RelatedFiles: stringList(req, "related_files"),
				}, nil
			},
		},
		{
			def: mcp.NewTool("tag_search",
				mcp.WithDescription("Search tags by keyword (id, type or file) and recommend existing domains to reuse."),
				mcp.WithString("keyword", mcp.Required(), mcp.Description("Keyword, domain, type or path fragment")),
			),
			request: func(req mcp.CallToolRequest) (agent.Request, error) {
				kw := req.GetString("keyword", "")
				if kw == "" {
					return agent.Request{}, fmt.Errorf("'keyword' is required")
				}
				return agent.Request{Action: agent.ActionSearch, Keyword: kw}, nil
			},
		},
		simple("tag_validate", agent.ActionValidate, "Validate every tag and report invalid, orphaned and broken-chain tags."),
		simple("tag_repair", agent.ActionRepair, "Repair broken parent references and attach orphans to the expected parent."),
		simple("tag_index", agent.ActionIndex, "Save the store and rebuild the distributed index from scratch."),
		simple("tag_stats", agent.ActionStats, "Report tag counts, health score and quality gate."),
		{
			def: mcp.NewTool("tag_scan",
				mcp.WithDescription("Scan a directory tree for embedded TAG blocks. Read only."),
				mcp.WithString("path", mcp.Description("Root to scan (default: current directory)")),
			),
			request: func(req mcp.CallToolRequest) (agent.Request, error) {
				return agent.Request{Action: agent.ActionScan, Path: req.GetString("path", "")}, nil
			},
		},
	}
}

// simple builds a tool that takes no arguments.
func simple(name, action, desc string) tool {
	return tool{
		def: mcp.NewTool(name, mcp.WithDescription(desc)),
		request: func(mcp.CallToolRequest) (agent.Request, error) {
			return agent.Request{Action: action}, nil
		},
	}
}

func handler(a *agent.Agent, t tool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		r, err := t.request(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		resp := a.Handle(ctx, r)
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode response: %v", err)), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(string(data)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

// stringList accepts either a JSON array of strings or a comma-separated
// string.
func stringList(req mcp.CallToolRequest, key string) []string {
	var out []string
	switch v := req.GetArguments()[key].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
