package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"console/internal/domain"
	"console/internal/preference"
	"console/internal/service"
)

func TestSettingsService(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.settings.Set(ctx, "u1", "theme", "dark")
	require.NoError(t, err)
	_, err = h.settings.Set(ctx, "u1", "theme", "light")
	require.NoError(t, err)
	_, err = h.settings.Set(ctx, "u2", "theme", "dark")
	require.NoError(t, err)

	st, err := h.settings.Get(ctx, "u1", "theme")
	require.NoError(t, err)
	assert.Equal(t, "light", st.Value)

	list, err := h.settings.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, h.settings.Delete(ctx, "u1", "theme"))
	_, err = h.settings.Get(ctx, "u1", "theme")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = h.settings.Set(ctx, "u1", "", "x")
	var verr *service.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSettingsService_PreferenceStore(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	store := h.settings.PreferenceStore(service.AppScope("app1"))

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, preference.ErrNotFound)

	key := preference.ViewKey("posts", "app1")
	require.NoError(t, store.Save(ctx, key, "grid"))

	v, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "grid", v)

	st, err := h.settings.Get(ctx, "app:app1", "collection_view_posts_app1")
	require.NoError(t, err)
	assert.Equal(t, "grid", st.Value)
}
