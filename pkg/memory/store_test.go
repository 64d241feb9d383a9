package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleModel() *KnowledgeModel {
	m := NewKnowledgeModel()
	m.addWord("hello")
	m.addWord("nexa")
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m.Patterns["hello"] = []PatternEntry{{Response: "Hi!", Intent: IntentGreeting, Count: 2, LastUsed: ts}}
	m.Intents[IntentGreeting] = []IntentExample{{Input: "hello nexa", Response: "Hi!", Timestamp: ts}}
	return m
}

func TestFileStore_MissingFileLoadsEmpty(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "absent", "model.json"))
	require.NoError(t, err)

	m, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, m.Vocabulary)
	assert.NotNil(t, m.Patterns)
	assert.NotNil(t, m.Intents)
}

func TestFileStore_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "model.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), sampleModel()))

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "nexa"}, got.Vocabulary)
	assert.True(t, got.knows("nexa"))
	assert.Equal(t, 2, got.Patterns["hello"][0].Count)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
	assert.Equal(t, "model.json", entries[0].Name())
}

func TestFileStore_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 99}`), 0o644))

	store, err := NewFileStore(path)
	require.NoError(t, err)
	_, err = store.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorage))
	assert.True(t, errors.Is(err, ErrUnreadableModel))
}

func TestSQLiteStore_RoundTripAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	empty, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, empty.Vocabulary)

	require.NoError(t, store.Save(context.Background(), sampleModel()))
	m := sampleModel()
	m.addWord("again")
	require.NoError(t, store.Save(context.Background(), m))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "nexa", "again"}, got.Vocabulary)
	assert.Equal(t, "sqlite:"+path, reopened.Describe())
}

func TestRedisStore_RoundTrip(t *testing.T) {
	url := os.Getenv("NEXA_TEST_REDIS_URL")
	if url == "" {
		t.Skip("NEXA_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	key := "nexa:test:" + t.Name()

	store, err := NewRedisStore(ctx, url, key)
	require.NoError(t, err)
	defer store.Close()
	defer store.client.Del(ctx, key)

	require.NoError(t, store.Save(ctx, sampleModel()))
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "nexa"}, got.Vocabulary)
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := OpenStore(ctx, StoreOptions{Path: filepath.Join(dir, "m.json")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = OpenStore(ctx, StoreOptions{Backend: "SQLite", Path: filepath.Join(dir, "m.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = OpenStore(ctx, StoreOptions{Backend: "redis"})
	require.Error(t, err)

	_, err = OpenStore(ctx, StoreOptions{Backend: "mongo"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownBackend))
}
