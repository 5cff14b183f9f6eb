package mcpserver

import (
	"encoding/json"
	"fmt"
	"log"

	"console/internal/domain"
	"console/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server is the MCP server for the console.
// It exposes collections and records as tools and resources so AI agents
// can read and edit them.
type Server struct {
	mcp *server.MCPServer
	app domain.AppContext

	collections *service.CollectionService
	records     *service.RecordService
	imports     *service.ImportService
}

// Deps holds the services the MCP server works through.
type Deps struct {
	// App is used when a tool call names no appId.
	App         domain.AppContext
	Collections *service.CollectionService
	Records     *service.RecordService
	Imports     *service.ImportService // optional
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	s := &Server{
		app:         deps.App,
		collections: deps.Collections,
		records:     deps.Records,
		imports:     deps.Imports,
	}

	s.mcp = server.NewMCPServer(
		"console-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerCollectionTools()
	s.registerRecordTools()
	if s.imports != nil {
		s.registerImportTools()
	}
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

// MCPServer exposes the underlying server, e.g. for an SSE transport.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// resolveApp returns the app named by the appId argument, or the default.
func (s *Server) resolveApp(args map[string]any) (domain.AppContext, error) {
	app := s.app
	if id, ok := args["appId"].(string); ok && id != "" {
		app = domain.AppContext{AppID: id, UserID: s.app.UserID}
	}
	if app.AppID == "" {
		return app, fmt.Errorf("no appId provided and no default app configured")
	}
	return app, nil
}

func boolPtr(v bool) *bool { return &v }
