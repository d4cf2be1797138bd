package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsflash/domain"
)

func TestStore_RoundTripAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.json")
	ctx := context.Background()

	in := &domain.CacheData{
		Items:      []domain.NewsItem{{ID: "1", Time: "10:00", Importance: 1, Data: domain.Payload{Title: "x"}}},
		LastUpdate: "2024-01-01 10:00:00",
	}
	require.NoError(t, New(path).Set(ctx, "news", in))

	got, err := New(path).Get(ctx, "news")
	require.NoError(t, err)
	assert.Equal(t, in, got)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"lastUpdate": "2024-01-01 10:00:00"`)
}

func TestStore_MissingFileAndKey(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "cache.json"))
	got, err := st.Get(context.Background(), "news")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_KeysAreIndependent(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "cache.json"))
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, "a", &domain.CacheData{LastUpdate: "a"}))
	require.NoError(t, st.Set(ctx, "b", &domain.CacheData{LastUpdate: "b"}))

	require.NoError(t, st.Set(ctx, "a", nil))

	a, err := st.Get(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, a)
	b, err := st.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "b", b.LastUpdate)
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{garbage"), 0o600))
	st := New(path)
	ctx := context.Background()

	_, err := st.Get(ctx, "news")
	assert.Error(t, err)

	require.NoError(t, st.Set(ctx, "news", &domain.CacheData{LastUpdate: "fresh"}))
	got, err := st.Get(ctx, "news")
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.LastUpdate)
}

func TestStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	st := New(filepath.Join(dir, "cache.json"))
	require.NoError(t, st.Set(context.Background(), "k", &domain.CacheData{}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cache.json", entries[0].Name())
}
