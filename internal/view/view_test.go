package view

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"console/internal/domain"
	"console/internal/preference"
)

type failingStore struct {
	saves int
}

func (f *failingStore) Get(context.Context, string) (string, error) {
	return "", errors.New("backend down")
}

func (f *failingStore) Save(context.Context, string, string) error {
	f.saves++
	return errors.New("backend down")
}

var postsSchema = domain.Schema{
	{Key: "title", Label: "Title", Type: domain.FieldText, Required: true},
	{Key: "published", Label: "Published", Type: domain.FieldBoolean},
	{Key: "status", Label: "Status", Type: domain.FieldSelect, Options: []domain.FieldOption{{Value: "live", Label: "Live"}}},
	{Key: "internal", Label: "Internal", Type: domain.FieldText, Hidden: true},
}

func postsData() []domain.Record {
	return []domain.Record{
		{"id": "1", "title": "Hello World", "published": true, "status": "live",
			"author": map[string]any{"name": "Ada", "tags": []any{"x", "y"}}},
		{"id": "2", "title": "Second post", "published": false},
	}
}

func TestGetCellValue(t *testing.T) {
	rec := postsData()[0]

	assert.Equal(t, "Ada", GetCellValue(rec, Path("author.name")))
	assert.Equal(t, "y", GetCellValue(rec, Path("author.tags.1")))
	assert.Nil(t, GetCellValue(rec, Path("author.missing.deeper")))
	assert.Nil(t, GetCellValue(rec, Path("title.length")))
	assert.Nil(t, GetCellValue(rec, Path("author.tags.9")))
	assert.Nil(t, GetCellValue(rec, Path("author.tags.x")))
	assert.Nil(t, GetCellValue(nil, Path("a.b")))
	assert.Nil(t, GetCellValue(rec, Path("")))

	upper := Func(func(r domain.Record) any { return strings.ToUpper(r["title"].(string)) })
	assert.Equal(t, "HELLO WORLD", GetCellValue(rec, upper))

	// Func wins over Path.
	assert.Equal(t, 1, GetCellValue(rec, Accessor{Path: "title", Func: func(domain.Record) any { return 1 }}))
}

func TestSearch(t *testing.T) {
	cols := []Column{
		{ID: "title", Label: "Title", Accessor: Path("title")},
		{ID: "author", Label: "Author", Accessor: Path("author.name")},
	}
	data := postsData()

	all := Search(cols, data, "")
	assert.Equal(t, data, all)
	assert.Same(t, &data[0], &all[0])

	assert.Len(t, Search(cols, data, "hello"), 1)
	assert.Len(t, Search(cols, data, "ADA"), 1)
	assert.Len(t, Search(cols, data, "post"), 1)

	none := Search(cols, data, "zzz")
	assert.NotNil(t, none)
	assert.Empty(t, none)

	// Filtering twice with the same query changes nothing.
	once := Search(cols, data, "o")
	assert.Equal(t, once, Search(cols, once, "o"))
}

func TestColumnsFromSchema(t *testing.T) {
	cols := ColumnsFromSchema(postsSchema)
	require.Len(t, cols, 3)
	assert.Equal(t, "title", cols[0].ID)
	assert.Equal(t, "Yes", cols[1].Render(true, nil))
	assert.Equal(t, "No", cols[1].Render(nil, nil))
	assert.Equal(t, "Live", cols[2].Render("live", nil))
	assert.Equal(t, "other", cols[2].Render("other", nil))
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "", FormatCell(nil))
	assert.Equal(t, "3.5", FormatCell(3.5))
	assert.Equal(t, "a, b", FormatCell([]any{"a", "b"}))
	assert.Equal(t, "a, b", FormatCell([]string{"a", "b"}))
	assert.Equal(t, `{"k":1}`, FormatCell(map[string]any{"k": 1}))
}

func TestView_ModeSwitchMirrorsLocally(t *testing.T) {
	ctx := context.Background()
	local := preference.NewMemoryStore()
	remote := &failingStore{}
	prefs := &preference.Mirror{Local: local, Remote: remote}

	v := New(ctx, Config{Collection: "posts", App: domain.AppContext{AppID: "app1"}, Schema: postsSchema, Prefs: prefs})
	assert.Equal(t, ModeTable, v.Mode())

	require.NoError(t, v.SetMode(ctx, ModeGrid))
	assert.Equal(t, ModeGrid, v.Mode())

	got, err := local.Get(ctx, "collection_view_posts_app1")
	require.NoError(t, err)
	assert.Equal(t, "grid", got)
	assert.Equal(t, 1, remote.saves)

	// A new view falls back to the local mirror while the backend is down.
	again := New(ctx, Config{Collection: "posts", App: domain.AppContext{AppID: "app1"}, Prefs: prefs})
	assert.Equal(t, ModeGrid, again.Mode())

	assert.Error(t, v.SetMode(ctx, "carousel"))
	assert.Equal(t, ModeGrid, v.Mode())
}

func TestView_RowsFilteredAndRendered(t *testing.T) {
	v := New(context.Background(), Config{Collection: "posts", Schema: postsSchema, Data: postsData()})

	rows := v.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "1", rows[0].ID)
	assert.Equal(t, []string{"Hello World", "Yes", "Live"}, rows[0].Cells)
	assert.Equal(t, []string{"Second post", "No", ""}, rows[1].Cells)

	v.SetQuery("second")
	rows = v.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "2", rows[0].ID)
}

func TestView_AddModal(t *testing.T) {
	ctx := context.Background()
	var added domain.Record
	v := New(ctx, Config{
		Collection: "posts",
		Schema:     postsSchema,
		CanCreate:  true,
		OnAdd: func(_ context.Context, data domain.Record) error {
			added = data
			return nil
		},
	})

	modal, err := v.OpenAdd()
	require.NoError(t, err)
	modal.Form.HandleChange("title", "New")

	_, err = v.SubmitModal(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Record{"title": "New"}, added)
	assert.Nil(t, v.Modal())

	_, err = v.SubmitModal(ctx)
	assert.ErrorIs(t, err, ErrNoModal)
}

func TestView_EditModalKeepsOpenOnError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("save failed")
	var original domain.Record
	v := New(ctx, Config{
		Collection: "posts",
		Schema:     postsSchema,
		CanUpdate:  true,
		OnEdit: func(_ context.Context, record, _ domain.Record) error {
			original = record
			return boom
		},
	})

	rec := postsData()[1]
	_, err := v.OpenEdit(rec)
	require.NoError(t, err)

	_, err = v.SubmitModal(ctx)
	assert.ErrorIs(t, err, boom)
	assert.NotNil(t, v.Modal())
	assert.Equal(t, "2", original["id"])

	v.CloseModal()
	assert.Nil(t, v.Modal())
}

func TestView_CapabilitiesGateActions(t *testing.T) {
	ctx := context.Background()
	called := false
	noop := func(context.Context, domain.Record) error { called = true; return nil }

	v := New(ctx, Config{Collection: "posts", Schema: postsSchema, OnAdd: noop, OnDelete: noop})
	_, err := v.OpenAdd()
	assert.ErrorIs(t, err, ErrNotAllowed)
	assert.ErrorIs(t, v.Delete(ctx, postsData()[0]), ErrNotAllowed)
	assert.False(t, called)

	v = New(ctx, Config{Collection: "posts", CanCreate: true, OnAdd: noop})
	_, err = v.OpenAdd()
	assert.ErrorIs(t, err, ErrNoSchema)

	v = New(ctx, Config{Collection: "posts", CanDelete: true, OnDelete: noop})
	require.NoError(t, v.Delete(ctx, postsData()[0]))
	assert.True(t, called)
}

func TestView_RenderLayouts(t *testing.T) {
	ctx := context.Background()
	noop := func(context.Context, domain.Record) error { return nil }
	v := New(ctx, Config{
		Collection: "posts",
		Title:      "Posts",
		Schema:     postsSchema,
		Data:       postsData(),
		CanCreate:  true,
		CanDelete:  true,
		OnAdd:      noop,
		OnDelete:   noop,
		BasePath:   "/ui/apps/app1/collections/posts",
	})

	var buf bytes.Buffer
	require.NoError(t, v.Render(&buf))
	assert.Contains(t, buf.String(), "<table>")
	assert.Contains(t, buf.String(), "Hello World")
	assert.Contains(t, buf.String(), `action="/ui/apps/app1/collections/posts/records/1/delete"`)
	assert.NotContains(t, buf.String(), "/edit")

	for _, m := range []Mode{ModeList, ModeGrid} {
		require.NoError(t, v.SetMode(ctx, m))
		buf.Reset()
		require.NoError(t, v.Render(&buf))
		assert.Contains(t, buf.String(), "mode-"+string(m))
		assert.Contains(t, buf.String(), "Second post")
		assert.NotContains(t, buf.String(), "<table>")
	}

	_, err := v.OpenAdd()
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, v.Render(&buf))
	assert.Contains(t, buf.String(), "<dialog open")
	assert.Contains(t, buf.String(), `name="title"`)
}

func TestView_RenderErrorAndLoading(t *testing.T) {
	ctx := context.Background()

	var buf bytes.Buffer
	v := New(ctx, Config{Collection: "posts", Error: "fetch failed", BasePath: "/ui/x"})
	require.NoError(t, v.Render(&buf))
	assert.Contains(t, buf.String(), "fetch failed")
	assert.Contains(t, buf.String(), "Retry")

	buf.Reset()
	v = New(ctx, Config{Collection: "posts", Loading: true})
	require.NoError(t, v.Render(&buf))
	assert.Contains(t, buf.String(), "Loading")

	buf.Reset()
	v = New(ctx, Config{Collection: "posts"})
	require.NoError(t, v.Render(&buf))
	assert.Contains(t, buf.String(), "No records found.")
}
