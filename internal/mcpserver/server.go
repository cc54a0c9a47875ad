// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the clause and snippet library for LLM integration via
// stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/0Janvier/citadelle-library/internal/library"
	"github.com/0Janvier/citadelle-library/internal/models"
)

// Server wraps the MCP server with library tools.
type Server struct {
	mcp *server.MCPServer
	svc *library.Service
}

// New creates a new MCP server with all library tools registered.
func New(svc *library.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Citadelle Library",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_library",
		mcp.WithDescription("Search clauses and snippets by title, content, tags or shortcut. "+
			"Matching is accent- and case-insensitive."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithString("type", mcp.Description("Optional item type filter: clause or snippet")),
	), s.searchLibrary)

	s.mcp.AddTool(mcp.NewTool("read_item",
		mcp.WithDescription("Read the full record of a library item, including its content payload."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Item id (e.g. snippet-builtin-plaise)")),
	), s.readItem)

	s.mcp.AddTool(mcp.NewTool("find_by_shortcut",
		mcp.WithDescription("Resolve a snippet shortcut (e.g. /plaise) to its item. "+
			"The input is normalized first, so PLAISE and /plaise resolve the same."),
		mcp.WithString("shortcut", mcp.Required(), mcp.Description("Raw shortcut string")),
	), s.findByShortcut)

	s.mcp.AddTool(mcp.NewTool("list_shortcuts",
		mcp.WithDescription("List every assigned snippet shortcut."),
	), s.listShortcuts)

	s.mcp.AddTool(mcp.NewTool("render_snippet",
		mcp.WithDescription("Render a snippet by shortcut, substituting {{variable}} placeholders. "+
			"Variables without a provided value keep their placeholder. Rendering counts as a use. "+
			"See the citadelle://snippet-format resource for the placeholder syntax."),
		mcp.WithString("shortcut", mcp.Required(), mcp.Description("Shortcut of the snippet to render")),
		mcp.WithString("variables", mcp.Description("JSON object mapping variable names to values")),
	), s.renderSnippet)

	s.mcp.AddTool(mcp.NewTool("get_snippet_contract",
		mcp.WithDescription("Returns the canonical snippet format contract. "+
			"Call this before composing snippet content to ensure correct placeholder syntax."),
	), s.getSnippetContract)

	// Resource: snippet format contract.
	s.mcp.AddResource(
		mcp.NewResource("citadelle://snippet-format", "Snippet Format Contract",
			mcp.WithResourceDescription("Canonical snippet format with variable placeholder syntax."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSnippetFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// itemSummary is the compact search hit shape returned to LLM consumers.
type itemSummary struct {
	ID       string          `json:"id"`
	Type     models.ItemType `json:"type"`
	Title    string          `json:"title"`
	Shortcut string          `json:"shortcut,omitempty"`
	Category string          `json:"categoryId"`
	Usage    int             `json:"usageCount"`
}

func (s *Server) searchLibrary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f := models.DefaultFilters()
	f.Query = query
	if t, err := req.RequireString("type"); err == nil {
		f.Type = models.ItemType(t)
	}

	items := s.svc.ListItems(f)
	if len(items) > 20 {
		items = items[:20]
	}
	hits := make([]itemSummary, 0, len(items))
	for _, it := range items {
		hits = append(hits, itemSummary{
			ID: it.ID, Type: it.Type, Title: it.Title,
			Shortcut: it.Shortcut, Category: it.CategoryID, Usage: it.UsageCount,
		})
	}
	out, _ := json.MarshalIndent(hits, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	item, err := s.svc.GetItem(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(item, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) findByShortcut(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("shortcut")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	item := s.svc.FindByShortcut(raw)
	if item == nil {
		return mcp.NewToolResultError(fmt.Sprintf("no snippet for shortcut: %s", raw)), nil
	}
	out, _ := json.MarshalIndent(item, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listShortcuts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	shortcuts := s.svc.AllShortcuts()
	if len(shortcuts) == 0 {
		return mcp.NewToolResultText("no shortcuts assigned"), nil
	}
	return mcp.NewToolResultText(strings.Join(shortcuts, "\n")), nil
}

func (s *Server) renderSnippet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	shortcut, err := req.RequireString("shortcut")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	item := s.svc.FindByShortcut(shortcut)
	if item == nil {
		return mcp.NewToolResultError(fmt.Sprintf("no snippet for shortcut: %s", shortcut)), nil
	}

	vars := map[string]string{}
	if raw, err := req.RequireString("variables"); err == nil && raw != "" {
		if err := json.Unmarshal([]byte(raw), &vars); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("variables must be a JSON object of strings: %v", err)), nil
		}
	}

	text := item.ContentText()
	for name, value := range vars {
		text = strings.ReplaceAll(text, "{{"+name+"}}", value)
	}
	if _, err := s.svc.IncrementUsage(ctx, item.ID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) getSnippetContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(SnippetFormatContract), nil
}

func (s *Server) readSnippetFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "citadelle://snippet-format",
			MIMEType: "text/markdown",
			Text:     SnippetFormatContract,
		},
	}, nil
}
