package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerRecordTools() {
	s.mcp.AddTool(mcp.NewTool("create_record",
		mcp.WithDescription("Create a record in a collection. data is a JSON object keyed by schema field key."),
		mcp.WithString("appId", mcp.Description("App ID (optional)")),
		mcp.WithString("collection", mcp.Description("Collection name"), mcp.Required()),
		mcp.WithString("data", mcp.Description(`Record data as JSON object, e.g. {"title":"Hello","tags":["a"]}`), mcp.Required()),
	), s.handleCreateRecord)

	s.mcp.AddTool(mcp.NewTool("update_record",
		mcp.WithDescription("Replace the data of a record. Send the full record; missing keys are dropped."),
		mcp.WithString("appId", mcp.Description("App ID (optional)")),
		mcp.WithString("collection", mcp.Description("Collection name"), mcp.Required()),
		mcp.WithString("recordId", mcp.Description("Record ID"), mcp.Required()),
		mcp.WithString("data", mcp.Description("Record data as JSON object"), mcp.Required()),
	), s.handleUpdateRecord)

	s.mcp.AddTool(mcp.NewTool("delete_record",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a record. Only runs when confirm is true."),
		mcp.WithString("appId", mcp.Description("App ID (optional)")),
		mcp.WithString("collection", mcp.Description("Collection name"), mcp.Required()),
		mcp.WithString("recordId", mcp.Description("Record ID to delete"), mcp.Required()),
		mcp.WithBoolean("confirm", mcp.Description("Must be true to delete"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteRecord)
}

func (s *Server) handleCreateRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	app, err := s.resolveApp(args)
	if err != nil {
		return nil, err
	}
	name, err := stringArg(args, "collection")
	if err != nil {
		return nil, err
	}
	data, err := recordArg(args, "data")
	if err != nil {
		return nil, err
	}

	rec, err := s.records.Create(ctx, app, name, data)
	if err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}
	return jsonResult(rec)
}

func (s *Server) handleUpdateRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	app, err := s.resolveApp(args)
	if err != nil {
		return nil, err
	}
	name, err := stringArg(args, "collection")
	if err != nil {
		return nil, err
	}
	id, err := stringArg(args, "recordId")
	if err != nil {
		return nil, err
	}
	data, err := recordArg(args, "data")
	if err != nil {
		return nil, err
	}

	rec, err := s.records.Update(ctx, app, name, id, data)
	if err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}
	return jsonResult(rec)
}

func (s *Server) handleDeleteRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	app, err := s.resolveApp(args)
	if err != nil {
		return nil, err
	}
	name, err := stringArg(args, "collection")
	if err != nil {
		return nil, err
	}
	id, err := stringArg(args, "recordId")
	if err != nil {
		return nil, err
	}
	if confirm, _ := args["confirm"].(bool); !confirm {
		return textResult("Not deleted: set confirm to true to delete this record"), nil
	}

	if err := s.records.Delete(ctx, app, name, id); err != nil {
		return nil, fmt.Errorf("delete record: %w", err)
	}
	return textResult(fmt.Sprintf("Deleted record %s from %s", id, name)), nil
}
