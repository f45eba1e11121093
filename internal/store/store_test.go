package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	return s, path
}

func TestStore_GetMissing(t *testing.T) {
	s, _ := openTemp(t)
	defer func() { _ = s.Close() }()

	_, ok, err := s.Get(context.Background(), "poll_interval")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_SetOverwrites(t *testing.T) {
	s, _ := openTemp(t)
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "poll_interval", "60"))
	require.NoError(t, s.Set(ctx, "poll_interval", "150"))

	v, ok, err := s.Get(ctx, "poll_interval")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "150", v)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	s, path := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "poll_interval", "1800"))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	v, ok, err := reopened.Get(ctx, "poll_interval")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1800", v)
}
