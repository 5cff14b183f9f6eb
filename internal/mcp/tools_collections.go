package mcpserver

import (
	"context"

	"console/internal/form"
	"console/internal/view"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerCollectionTools() {
	s.mcp.AddTool(mcp.NewTool("list_collections",
		mcp.WithDescription("List the collections of an app with their schemas"),
		mcp.WithString("appId", mcp.Description("App ID (optional, defaults to the configured app)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleListCollections)

	s.mcp.AddTool(mcp.NewTool("get_collection",
		mcp.WithDescription("Get a collection's metadata, schema and record count"),
		mcp.WithString("appId", mcp.Description("App ID (optional)")),
		mcp.WithString("collection", mcp.Description("Collection name"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleGetCollection)

	s.mcp.AddTool(mcp.NewTool("list_records",
		mcp.WithDescription("List the records of a collection. With query, only records where some schema column contains the text (case-insensitive) are returned."),
		mcp.WithString("appId", mcp.Description("App ID (optional)")),
		mcp.WithString("collection", mcp.Description("Collection name"), mcp.Required()),
		mcp.WithString("query", mcp.Description("Search text (optional)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleListRecords)

	s.mcp.AddTool(mcp.NewTool("describe_form",
		mcp.WithDescription("Describe the form fields (widget kind, current value, choices) that edit a record of a collection. Without recordId, describes the form for a new record."),
		mcp.WithString("appId", mcp.Description("App ID (optional)")),
		mcp.WithString("collection", mcp.Description("Collection name"), mcp.Required()),
		mcp.WithString("recordId", mcp.Description("Record ID (optional)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleDescribeForm)
}

func (s *Server) handleListCollections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	app, err := s.resolveApp(req.GetArguments())
	if err != nil {
		return nil, err
	}
	cols, err := s.collections.List(ctx, app)
	if err != nil {
		return nil, err
	}
	return jsonResult(cols)
}

func (s *Server) handleGetCollection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	app, err := s.resolveApp(args)
	if err != nil {
		return nil, err
	}
	name, err := stringArg(args, "collection")
	if err != nil {
		return nil, err
	}

	c, err := s.collections.Get(ctx, app, name)
	if err != nil {
		return nil, err
	}
	stats, err := s.collections.Stats(ctx, app, name)
	if err != nil {
		return nil, err
	}
	return jsonResult(map[string]any{
		"collection": c,
		"stats":      stats,
	})
}

func (s *Server) handleListRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	app, err := s.resolveApp(args)
	if err != nil {
		return nil, err
	}
	name, err := stringArg(args, "collection")
	if err != nil {
		return nil, err
	}

	c, err := s.collections.Get(ctx, app, name)
	if err != nil {
		return nil, err
	}
	records, err := s.records.List(ctx, app, name)
	if err != nil {
		return nil, err
	}
	if query, _ := args["query"].(string); query != "" {
		records = view.Search(view.ColumnsFromSchema(c.Schema), records, query)
	}
	return jsonResult(map[string]any{
		"items": records,
		"count": len(records),
	})
}

// formField is the agent-facing description of one widget.
type formField struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Widget   string   `json:"widget"`
	Value    any      `json:"value,omitempty"`
	Choices  []string `json:"choices,omitempty"`
	Required bool     `json:"required,omitempty"`
	ReadOnly bool     `json:"readOnly,omitempty"`
	Inferred bool     `json:"inferred,omitempty"`
	HelpText string   `json:"helpText,omitempty"`
}

func (s *Server) handleDescribeForm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	app, err := s.resolveApp(args)
	if err != nil {
		return nil, err
	}
	name, err := stringArg(args, "collection")
	if err != nil {
		return nil, err
	}
	c, err := s.collections.Get(ctx, app, name)
	if err != nil {
		return nil, err
	}

	f := form.NewForm(c.Schema, nil)
	if id, _ := args["recordId"].(string); id != "" {
		rec, err := s.records.Get(ctx, app, name, id)
		if err != nil {
			return nil, err
		}
		f = form.NewForm(c.Schema, rec)
	}

	widgets := f.Widgets()
	fields := make([]formField, 0, len(widgets))
	for _, w := range widgets {
		field := formField{
			Key:      w.Key,
			Label:    w.Label,
			Type:     string(w.Type),
			Widget:   string(w.Kind),
			Value:    f.Value(w.Key),
			Required: w.Required,
			ReadOnly: w.ReadOnly,
			Inferred: w.Extra,
			HelpText: w.HelpText,
		}
		for _, ch := range w.Choices {
			field.Choices = append(field.Choices, ch.Value)
		}
		fields = append(fields, field)
	}
	return jsonResult(fields)
}
