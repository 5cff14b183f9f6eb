package mcpserver

import (
	"context"
	"fmt"

	"console/internal/etl"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerImportTools() {
	s.mcp.AddTool(mcp.NewTool("list_import_sources",
		mcp.WithDescription("List available import source types with their configuration fields"),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleListImportSources)

	s.mcp.AddTool(mcp.NewTool("list_imports",
		mcp.WithDescription("List the import jobs of an app"),
		mcp.WithString("appId", mcp.Description("App ID (optional)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleListImports)

	s.mcp.AddTool(mcp.NewTool("preview_import_source",
		mcp.WithDescription("Read a few rows from a source and propose collection schema fields for them. Nothing is written."),
		mcp.WithString("sourceType", mcp.Description("Source type"), mcp.Required()),
		mcp.WithString("sourceConfigJSON", mcp.Description("Source configuration as JSON"), mcp.Required()),
	), s.handlePreviewImportSource)

	s.mcp.AddTool(mcp.NewTool("run_import",
		mcp.WithDescription("🛑 DESTRUCTIVE: Run an import job. In replace mode this overwrites the target collection's records. Only runs when confirm is true."),
		mcp.WithString("appId", mcp.Description("App ID (optional)")),
		mcp.WithString("jobId", mcp.Description("Import job ID"), mcp.Required()),
		mcp.WithBoolean("confirm", mcp.Description("Must be true to run"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleRunImport)
}

func (s *Server) handleListImportSources(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.imports.ListSources())
}

func (s *Server) handleListImports(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	app, err := s.resolveApp(req.GetArguments())
	if err != nil {
		return nil, err
	}
	jobs, err := s.imports.ListJobs(ctx, app)
	if err != nil {
		return nil, err
	}
	return jsonResult(jobs)
}

func (s *Server) handlePreviewImportSource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sourceType := req.GetString("sourceType", "")
	sourceConfigStr := req.GetString("sourceConfigJSON", "")
	if sourceType == "" || sourceConfigStr == "" {
		return nil, fmt.Errorf("sourceType and sourceConfigJSON are required")
	}

	var cfg etl.SourceConfig
	if err := parseJSON(sourceConfigStr, &cfg); err != nil {
		return nil, fmt.Errorf("parse sourceConfig: %w", err)
	}
	preview, err := s.imports.Discover(ctx, sourceType, cfg)
	if err != nil {
		return nil, fmt.Errorf("preview source: %w", err)
	}
	return jsonResult(preview)
}

func (s *Server) handleRunImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	app, err := s.resolveApp(args)
	if err != nil {
		return nil, err
	}
	jobID, err := stringArg(args, "jobId")
	if err != nil {
		return nil, err
	}
	if confirm, _ := args["confirm"].(bool); !confirm {
		return textResult("Not run: set confirm to true to run this import"), nil
	}

	result, err := s.imports.RunJob(ctx, app, jobID)
	if err != nil {
		return nil, fmt.Errorf("run import: %w", err)
	}
	return jsonResult(result)
}
