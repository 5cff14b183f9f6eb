package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"console/internal/api"
	"console/internal/client"
	"console/internal/domain"
	"console/internal/preference"
	"console/internal/service"
	"console/internal/storage"
	"console/internal/upload"
)

func TestUnwrapList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"data.items", `{"data":{"items":[{"a":1},{"a":2}]}}`, 2},
		{"items", `{"items":[{"a":1}],"count":1}`, 1},
		{"bare array", `[1,2,3]`, 3},
		{"first array key", `{"total":2,"results":[{"a":1},{"a":2}]}`, 2},
		{"empty items", `{"items":[]}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := client.UnwrapList(json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Len(t, items, tt.want)
		})
	}
}

func TestUnwrapList_NoList(t *testing.T) {
	_, err := client.UnwrapList(json.RawMessage(`{"count":3}`))
	assert.ErrorIs(t, err, client.ErrNoList)

	_, err = client.UnwrapList(json.RawMessage(`"text"`))
	assert.ErrorIs(t, err, client.ErrNoList)
}

func TestClient_APIErrorAndHeaders(t *testing.T) {
	var gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = r.Header.Get("X-User-ID")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"collection missing: not found","code":"NOT_FOUND"}`))
	}))
	defer srv.Close()

	c := client.New(client.Config{BaseURL: srv.URL + "/", UserID: "u1"})
	_, err := c.GetEntityType(context.Background(), "app1", "missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
	assert.Equal(t, "u1", gotUser)
}

func TestClient_WrappedListShapes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"items":[{"id":"r1","title":"x"}]}}`))
	}))
	defer srv.Close()

	records, err := client.New(client.Config{BaseURL: srv.URL}).GetEntities(context.Background(), "app1", "posts")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "x", records[0]["title"])
}

// ── Against a real server ──────────────────────────────────

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.New(filepath.Join(dir, "console.db"), filepath.Join(dir, "data"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	collStore := storage.NewCollectionStore(db)
	recStore := storage.NewRecordStore(db)
	collections := service.NewCollectionService(collStore, recStore, service.NopEmitter{})
	uploader, err := upload.NewDiskUploader(filepath.Join(dir, "files"), "/files")
	require.NoError(t, err)

	srv := httptest.NewServer(api.New(api.Deps{
		Collections: collections,
		Records:     service.NewRecordService(collections, recStore, service.NopEmitter{}),
		Settings:    service.NewSettingsService(storage.NewSettingsStore(db)),
		Uploader:    uploader,
	}).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_RoundTrip(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	c := client.New(client.Config{BaseURL: srv.URL})

	col, err := c.CreateEntityType(ctx, "app1", service.CollectionInput{
		Name:   "notes",
		Schema: domain.Schema{{Key: "body", Label: "Body", Type: domain.FieldTextarea}},
	})
	require.NoError(t, err)
	assert.Equal(t, "notes", col.Name)

	cols, err := c.ListEntityTypes(ctx, "app1")
	require.NoError(t, err)
	require.Len(t, cols, 1)

	col, err = c.UpdateEntityType(ctx, "app1", "notes", service.CollectionInput{Name: "notes", DisplayName: "Notes"})
	require.NoError(t, err)
	assert.Equal(t, "Notes", col.DisplayName)

	rec, err := c.CreateEntity(ctx, "app1", "notes", domain.Record{"body": "hello"})
	require.NoError(t, err)
	id, _ := rec["id"].(string)
	require.NotEmpty(t, id)

	_, err = c.UpdateEntity(ctx, "app1", "notes", id, domain.Record{"body": "changed"})
	require.NoError(t, err)

	records, err := c.GetEntities(ctx, "app1", "notes")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "changed", records[0]["body"])

	require.NoError(t, c.DeleteEntity(ctx, "app1", "notes", id))
	require.NoError(t, c.DeleteEntityType(ctx, "app1", "notes"))

	_, err = c.GetEntityType(ctx, "app1", "notes")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClient_UploadFile(t *testing.T) {
	srv := newServer(t)
	c := client.New(client.Config{BaseURL: srv.URL})

	url, err := c.UploadFile(context.Background(), "notes.txt", strings.NewReader("hi"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/files/"))
	assert.True(t, strings.HasSuffix(url, ".txt"))
}

func TestClient_Preferences(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	prefs := client.New(client.Config{BaseURL: srv.URL}).Preferences("app1")
	key := preference.ViewKey("posts", "app1")

	_, err := prefs.Get(ctx, key)
	assert.ErrorIs(t, err, preference.ErrNotFound)

	require.NoError(t, prefs.Save(ctx, key, "list"))
	v, err := prefs.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "list", v)
}
