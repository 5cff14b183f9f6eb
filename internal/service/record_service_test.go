package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"console/internal/domain"
	"console/internal/service"
)

func TestRecordService_CRUD(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.collections.Create(ctx, h.app, postsInput())
	require.NoError(t, err)

	created, err := h.records.Create(ctx, h.app, "posts", domain.Record{
		"title": "Hello",
		"tags":  []any{"a", "b"},
		"extra": map[string]any{"nested": true},
	})
	require.NoError(t, err)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)

	got, err := h.records.Get(ctx, h.app, "posts", id)
	require.NoError(t, err)
	assert.Equal(t, "Hello", got["title"])
	assert.Equal(t, []any{"a", "b"}, got["tags"])
	assert.Equal(t, map[string]any{"nested": true}, got["extra"])

	updated, err := h.records.Update(ctx, h.app, "posts", id, domain.Record{"id": "ignored", "title": ""})
	require.NoError(t, err)
	assert.Equal(t, "", updated["title"])
	assert.Equal(t, id, updated["id"])
	assert.NotContains(t, updated, "tags")

	require.NoError(t, h.records.Delete(ctx, h.app, "posts", id))
	_, err = h.records.Get(ctx, h.app, "posts", id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordService_ListKeepsInsertOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.collections.Create(ctx, h.app, postsInput())
	require.NoError(t, err)

	for _, title := range []string{"first", "second", "third"} {
		_, err := h.records.Create(ctx, h.app, "posts", domain.Record{"title": title})
		require.NoError(t, err)
	}

	list, err := h.records.List(ctx, h.app, "posts")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "first", list[0]["title"])
	assert.Equal(t, "third", list[2]["title"])
}

func TestRecordService_CapabilityFlags(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	no := false
	in := postsInput()
	in.CanUpdate = &no
	in.CanDelete = &no
	_, err := h.collections.Create(ctx, h.app, in)
	require.NoError(t, err)

	rec, err := h.records.Create(ctx, h.app, "posts", domain.Record{"title": "locked"})
	require.NoError(t, err)
	id := rec["id"].(string)

	_, err = h.records.Update(ctx, h.app, "posts", id, domain.Record{"title": "changed"})
	assert.ErrorIs(t, err, service.ErrForbidden)

	err = h.records.Delete(ctx, h.app, "posts", id)
	assert.ErrorIs(t, err, service.ErrForbidden)

	in.Name = "readonly"
	in.CanCreate = &no
	_, err = h.collections.Create(ctx, h.app, in)
	require.NoError(t, err)
	_, err = h.records.Create(ctx, h.app, "readonly", domain.Record{"title": "nope"})
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestRecordService_Duplicate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.collections.Create(ctx, h.app, postsInput())
	require.NoError(t, err)

	src, err := h.records.Create(ctx, h.app, "posts", domain.Record{"title": "original"})
	require.NoError(t, err)

	dup, err := h.records.Duplicate(ctx, h.app, "posts", src["id"].(string))
	require.NoError(t, err)
	assert.NotEqual(t, src["id"], dup["id"])
	assert.Equal(t, "original", dup["title"])

	list, err := h.records.List(ctx, h.app, "posts")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestRecordService_RecordFromOtherCollection(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.collections.Create(ctx, h.app, postsInput())
	require.NoError(t, err)
	other := postsInput()
	other.Name = "pages"
	_, err = h.collections.Create(ctx, h.app, other)
	require.NoError(t, err)

	rec, err := h.records.Create(ctx, h.app, "pages", domain.Record{"title": "p"})
	require.NoError(t, err)

	_, err = h.records.Get(ctx, h.app, "posts", rec["id"].(string))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordService_EmitsEvents(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.collections.Create(ctx, h.app, postsInput())
	require.NoError(t, err)

	rec, err := h.records.Create(ctx, h.app, "posts", domain.Record{"title": "x"})
	require.NoError(t, err)

	last := h.emitter.Events[len(h.emitter.Events)-1]
	assert.Equal(t, service.EventRecordChanged, last.Event)
	assert.Equal(t, service.RecordEvent{AppID: "app1", Collection: "posts", RecordID: rec["id"].(string), Action: "created"}, last.Data)
}
