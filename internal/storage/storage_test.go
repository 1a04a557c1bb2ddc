package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseBackend runs the behaviour every backend must share.
func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := b.Get(ctx, "access_token")
	require.NoError(t, err)
	assert.False(t, ok, "empty backend should not have access_token")

	require.NoError(t, b.SetMany(ctx, map[string]string{
		"access_token":  "access_123",
		"refresh_token": "refresh_456",
		"expires_at":    "1700000000000",
	}))

	v, ok, err := b.Get(ctx, "access_token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "access_123", v)

	got, err := b.GetMany(ctx, "access_token", "expires_at", "granted_scopes")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"access_token": "access_123",
		"expires_at":   "1700000000000",
	}, got)

	require.NoError(t, b.SetMany(ctx, map[string]string{"access_token": "access_789"}))
	v, _, err = b.Get(ctx, "access_token")
	require.NoError(t, err)
	assert.Equal(t, "access_789", v, "SetMany should overwrite")

	require.NoError(t, b.Delete(ctx, "access_token", "refresh_token", "missing"))
	got, err = b.GetMany(ctx, "access_token", "refresh_token", "expires_at")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"expires_at": "1700000000000"}, got)

	require.NoError(t, b.Delete(ctx))
}

func TestMemoryBackend(t *testing.T) {
	exerciseBackend(t, NewMemoryBackend())
}

func TestFileBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	b, err := NewFileBackend(path)
	require.NoError(t, err)
	assert.Equal(t, path, b.Path())

	exerciseBackend(t, b)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileBackendRemovesEmptyFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	b, err := NewFileBackend(path)
	require.NoError(t, err)

	require.NoError(t, b.SetMany(ctx, map[string]string{"code_verifier": "v"}))
	require.NoError(t, b.Delete(ctx, "code_verifier"))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "session file should be removed once empty")
}

func TestFileBackendCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	b, err := NewFileBackend(path)
	require.NoError(t, err)

	_, _, err = b.Get(context.Background(), "access_token")
	assert.Error(t, err)
}

func TestFileBackendSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	first, err := NewFileBackend(path)
	require.NoError(t, err)
	require.NoError(t, first.SetMany(ctx, map[string]string{"access_token": "persisted"}))

	second, err := NewFileBackend(path)
	require.NoError(t, err)
	v, ok, err := second.Get(ctx, "access_token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "persisted", v)
}

func TestSQLiteBackend(t *testing.T) {
	b, err := NewSQLiteBackend(context.Background(), ":memory:")
	require.NoError(t, err)
	defer b.Close()

	exerciseBackend(t, b)
}

func TestSQLiteBackendFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	b, err := NewSQLiteBackend(ctx, path)
	require.NoError(t, err)
	require.NoError(t, b.SetMany(ctx, map[string]string{"granted_scopes": "a b"}))
	require.NoError(t, b.Close())

	reopened, err := NewSQLiteBackend(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.Get(ctx, "granted_scopes")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a b", v)
}

func TestRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)

	b, err := NewRedisBackend(context.Background(), RedisOptions{Addr: mr.Addr(), Prefix: "tempo-test:"})
	require.NoError(t, err)
	defer b.Close()

	exerciseBackend(t, b)
}

func TestRedisBackendPrefix(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("access_token", "other-tool"))

	b := NewRedisBackendFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "tempo:")
	defer b.Close()

	require.NoError(t, b.SetMany(ctx, map[string]string{
		"access_token":   "access_123",
		"granted_scopes": "user-top-read",
	}))

	v, err := mr.Get("tempo:access_token")
	require.NoError(t, err)
	assert.Equal(t, "access_123", v)
	v, err = mr.Get("access_token")
	require.NoError(t, err)
	assert.Equal(t, "other-tool", v, "unprefixed key must be left alone")

	got, err := b.GetMany(ctx, "access_token", "granted_scopes", "expires_at")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"access_token":   "access_123",
		"granted_scopes": "user-top-read",
	}, got)

	require.NoError(t, b.Delete(ctx, "access_token", "granted_scopes"))
	assert.False(t, mr.Exists("tempo:access_token"))
	assert.False(t, mr.Exists("tempo:granted_scopes"))
	assert.True(t, mr.Exists("access_token"))
}

func TestRedisBackendUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisBackend(context.Background(), RedisOptions{Addr: addr})
	assert.Error(t, err)
}

// TestRedisBackendLive runs the shared checks against a real server when one
// is configured.
func TestRedisBackendLive(t *testing.T) {
	addr := os.Getenv("TEMPO_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEMPO_TEST_REDIS_ADDR not set")
	}

	b, err := NewRedisBackend(context.Background(), RedisOptions{Addr: addr, Prefix: "tempo-test:"})
	require.NoError(t, err)
	defer b.Close()

	exerciseBackend(t, b)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	b, err := Open(ctx, Options{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryBackend{}, b)

	b, err = Open(ctx, Options{Backend: "file", Path: filepath.Join(t.TempDir(), "s.json")})
	require.NoError(t, err)
	assert.IsType(t, &FileBackend{}, b)

	_, err = Open(ctx, Options{Backend: "etcd"})
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
