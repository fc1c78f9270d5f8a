package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codesearch/internal/domain/errors/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesDatabaseInDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "cache")
	s, err := Open(dir, 0)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, dir, s.Dir())
	assert.False(t, s.Temporary())
	assert.FileExists(t, filepath.Join(dir, databaseFile))
}

func TestOpen_EmptyDirectory(t *testing.T) {
	t.Parallel()

	s, err := Open("", time.Hour)
	require.Error(t, err)
	assert.Nil(t, s)
}

func TestStore_PutGet(t *testing.T) {
	t.Parallel()

	s, err := Open(t.TempDir(), time.Hour)
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	_, found, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found, "unknown key should miss")

	require.NoError(t, s.Put(ctx, "k1", []byte(`{"a":1}`)))
	body, found, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"a":1}`, string(body))

	require.NoError(t, s.Put(ctx, "k1", []byte(`{"a":2}`)))
	body, _, err = s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2}`, string(body), "Put should replace the previous entry")
}

func TestStore_ExpiredEntriesMiss(t *testing.T) {
	t.Parallel()

	s, err := Open(t.TempDir(), time.Minute)
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	require.NoError(t, s.Put(ctx, "k", []byte("v")))

	s.now = func() time.Time { return base.Add(30 * time.Second) }
	_, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found, "entry within ttl should hit")

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, found, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found, "entry past ttl should miss")

	s.now = func() time.Time { return base }
	_, found, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found, "expired entry should have been deleted")
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	first, err := Open(dir, 0)
	require.NoError(t, err)
	require.NoError(t, first.Put(ctx, "k", []byte("v")))
	require.NoError(t, first.Teardown())
	assert.DirExists(t, dir, "teardown must not remove a caller-supplied directory")

	second, err := Open(dir, 0)
	require.NoError(t, err)
	defer second.Close()
	body, found, err := second.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", string(body))
}

func TestOpenTemp_TeardownRemovesDirectory(t *testing.T) {
	t.Parallel()

	s, err := OpenTemp(time.Hour)
	require.NoError(t, err)
	assert.True(t, s.Temporary())
	dir := s.Dir()
	assert.DirExists(t, dir)

	require.NoError(t, s.Teardown())
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr), "temporary cache directory should be removed")

	assert.NoError(t, s.Teardown(), "second teardown should be a no-op")
}

func TestStore_OperationsAfterClose(t *testing.T) {
	t.Parallel()

	s, err := Open(t.TempDir(), 0)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, _, err = s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, domain.ErrCacheClosed)
	assert.ErrorIs(t, s.Put(context.Background(), "k", nil), domain.ErrCacheClosed)
	assert.NoError(t, s.Close())
}
