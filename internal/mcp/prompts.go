package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("fill_collection",
		mcp.WithPromptDescription("Guide through adding records to a collection that match its schema"),
		mcp.WithArgument("collection",
			mcp.ArgumentDescription("Collection name"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("description",
			mcp.ArgumentDescription("What the new records should contain"),
			mcp.RequiredArgument(),
		),
	), s.handleFillCollectionPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("clean_collection",
		mcp.WithPromptDescription("Review a collection for records that do not fit its schema and fix them"),
		mcp.WithArgument("collection",
			mcp.ArgumentDescription("Collection name"),
			mcp.RequiredArgument(),
		),
	), s.handleCleanCollectionPrompt)
}

func (s *Server) handleFillCollectionPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	collection := req.Params.Arguments["collection"]
	description := req.Params.Arguments["description"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Add records to %s", collection),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Add records to the "%s" collection: %s. Follow these steps:

1. Use describe_form with collection "%s" to see each field, its widget and allowed choices
2. Use list_records to check what already exists and avoid duplicates
3. Create each record with create_record, using only the listed keys
   - select fields take one of the choices, multiselect and tags take a list
   - dates are YYYY-MM-DD, datetimes RFC3339, times HH:MM, colors #rrggbb
4. Finish by listing the records you created`, collection, description, collection),
				},
			},
		},
	}, nil
}

func (s *Server) handleCleanCollectionPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	collection := req.Params.Arguments["collection"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Clean up %s", collection),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Review the "%s" collection. Follow these steps:

1. Use get_collection to read its schema
2. Use list_records and look for records with keys outside the schema, wrong value types, or choices not in the options
3. Propose the fixes and apply them with update_record, sending the full record each time
4. Never delete a record without asking first; delete_record needs confirm set to true`, collection),
				},
			},
		},
	}, nil
}
