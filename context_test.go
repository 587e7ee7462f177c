package scopetree_test

import (
	"context"
	"testing"

	"github.com/centraunit/scopetree"
	"github.com/centraunit/scopetree/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextCarriesScope(t *testing.T) {
	m, err := scopetree.NewManager(scopetree.WithRootServices("locale", "en"))
	require.NoError(t, err)
	album, err := m.Resolve(nil, &mock.AlbumScreen{ID: 42})
	require.NoError(t, err)

	ctx := scopetree.WithScope(context.Background(), album)

	got, ok := scopetree.FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, album, got)

	locale, err := scopetree.ServiceFrom[string](ctx, "locale")
	require.NoError(t, err)
	assert.Equal(t, "en", locale)

	component, err := scopetree.ServiceFrom[*mock.AlbumComponent](ctx, scopetree.ComponentService)
	require.NoError(t, err)
	assert.Equal(t, 42, component.Module.AlbumID)
}

func TestContextWithoutScope(t *testing.T) {
	_, ok := scopetree.FromContext(context.Background())
	assert.False(t, ok)

	_, err := scopetree.ServiceFrom[string](context.Background(), "locale")
	assert.ErrorIs(t, err, scopetree.ErrServiceNotFound)
}

func TestContextAfterScopeDestroyed(t *testing.T) {
	m, err := scopetree.NewManager()
	require.NoError(t, err)
	album, err := m.Resolve(nil, mock.NamedScreen("Album"), "title", "Trip")
	require.NoError(t, err)
	ctx := scopetree.WithScope(context.Background(), album)

	m.Destroy(album)

	_, err = scopetree.ServiceFrom[string](ctx, "title")
	assert.ErrorIs(t, err, scopetree.ErrScopeDestroyed)
	assert.True(t, scopetree.IsLifecycleTiming(err))
}
