package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"console/internal/domain"
	"console/internal/service"
	"console/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.New(filepath.Join(dir, "console.db"), filepath.Join(dir, "data"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	collStore := storage.NewCollectionStore(db)
	recStore := storage.NewRecordStore(db)
	collections := service.NewCollectionService(collStore, recStore, service.NopEmitter{})
	records := service.NewRecordService(collections, recStore, service.NopEmitter{})

	app := domain.AppContext{AppID: "app1"}
	_, err = collections.Create(context.Background(), app, service.CollectionInput{
		Name: "tasks",
		Schema: domain.Schema{
			{Key: "title", Label: "Title", Type: domain.FieldText, Required: true},
			{Key: "status", Label: "Status", Type: domain.FieldSelect, Options: []domain.FieldOption{
				{Value: "todo", Label: "To do"}, {Value: "done", Label: "Done"},
			}},
		},
	})
	require.NoError(t, err)
	for _, title := range []string{"Write docs", "Fix login bug"} {
		_, err := records.Create(context.Background(), app, "tasks", domain.Record{"title": title, "status": "todo"})
		require.NoError(t, err)
	}

	return New(Deps{App: app, Collections: collections, Records: records})
}

func callTool(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestListCollections(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleListCollections(context.Background(), callTool(nil))
	require.NoError(t, err)

	var cols []domain.DynamicCollection
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &cols))
	require.Len(t, cols, 1)
	assert.Equal(t, "tasks", cols[0].Name)
}

func TestListRecords_Query(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleListRecords(context.Background(), callTool(map[string]any{
		"collection": "tasks",
		"query":      "LOGIN",
	}))
	require.NoError(t, err)

	var out struct {
		Items []domain.Record `json:"items"`
		Count int             `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, "Fix login bug", out.Items[0]["title"])
}

func TestGetCollection_NotFound(t *testing.T) {
	s := newTestServer(t)
	_, err := s.handleGetCollection(context.Background(), callTool(map[string]any{"collection": "missing"}))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateUpdateDeleteRecord(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleCreateRecord(ctx, callTool(map[string]any{
		"collection": "tasks",
		"data":       `{"title":"Ship it","status":"done"}`,
	}))
	require.NoError(t, err)
	var created domain.Record
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &created))
	id := created["id"].(string)

	res, err = s.handleUpdateRecord(ctx, callTool(map[string]any{
		"collection": "tasks",
		"recordId":   id,
		"data":       map[string]any{"title": "Shipped", "status": "done"},
	}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "Shipped")

	res, err = s.handleDeleteRecord(ctx, callTool(map[string]any{
		"collection": "tasks",
		"recordId":   id,
	}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "Not deleted")

	_, err = s.records.Get(ctx, s.app, "tasks", id)
	require.NoError(t, err)

	res, err = s.handleDeleteRecord(ctx, callTool(map[string]any{
		"collection": "tasks",
		"recordId":   id,
		"confirm":    true,
	}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "Deleted record")

	_, err = s.records.Get(ctx, s.app, "tasks", id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateRecord_BadData(t *testing.T) {
	s := newTestServer(t)
	_, err := s.handleCreateRecord(context.Background(), callTool(map[string]any{
		"collection": "tasks",
		"data":       `not json`,
	}))
	assert.Error(t, err)
}

func TestDescribeForm(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleDescribeForm(context.Background(), callTool(map[string]any{"collection": "tasks"}))
	require.NoError(t, err)

	var fields []formField
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &fields))
	require.Len(t, fields, 2)
	assert.Equal(t, "title", fields[0].Key)
	assert.Equal(t, "input", fields[0].Widget)
	assert.True(t, fields[0].Required)
	assert.Equal(t, "select", fields[1].Widget)
	assert.Equal(t, []string{"todo", "done"}, fields[1].Choices)
}

func TestResolveApp(t *testing.T) {
	s := &Server{}
	_, err := s.resolveApp(map[string]any{})
	assert.Error(t, err)

	app, err := s.resolveApp(map[string]any{"appId": "other"})
	require.NoError(t, err)
	assert.Equal(t, "other", app.AppID)
}

func TestParseResourceURI(t *testing.T) {
	app, name, ok := parseResourceURI("console://apps/app1/collections/tasks/records")
	assert.True(t, ok)
	assert.Equal(t, "app1", app)
	assert.Equal(t, "tasks", name)

	app, name, ok = parseResourceURI("console://apps/app1/collections")
	assert.True(t, ok)
	assert.Equal(t, "app1", app)
	assert.Empty(t, name)

	_, _, ok = parseResourceURI("notes://page/x/blocks")
	assert.False(t, ok)
}
