package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerdash/internal/log"
)

type clockStore interface {
	Store
	setNow(func() time.Time)
}

func (s *SQLiteStore) setNow(f func() time.Time) { s.now = f }
func (m *MemoryStore) setNow(f func() time.Time) { m.now = f }

func stores(t *testing.T) map[string]clockStore {
	t.Helper()
	sq, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "sessions.db"), log.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })
	return map[string]clockStore{
		"sqlite": sq,
		"memory": NewMemoryStore(),
	}
}

func TestStore_GetSetDelete(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := s.Get(ctx, "s1", KeyToken)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Set(ctx, "s1", KeyToken, "abc"))
			require.NoError(t, s.Set(ctx, "s1", KeyToken, "def"))
			require.NoError(t, s.Set(ctx, "s1", KeyUser, `{"id":1}`))
			require.NoError(t, s.Set(ctx, "s2", KeyToken, "other"))

			v, ok, err := s.Get(ctx, "s1", KeyToken)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "def", v)

			require.NoError(t, s.Delete(ctx, "s1", SessionKeys...))
			for _, k := range SessionKeys {
				_, ok, err := s.Get(ctx, "s1", k)
				require.NoError(t, err)
				assert.False(t, ok, k)
			}

			v, ok, err = s.Get(ctx, "s2", KeyToken)
			require.NoError(t, err)
			assert.True(t, ok, "other sessions are untouched")
			assert.Equal(t, "other", v)

			assert.NoError(t, s.Delete(ctx, "missing", SessionKeys...), "deleting absent keys is not an error")
			assert.NoError(t, s.Ping(ctx))
		})
	}
}

func TestStore_PurgeIdle(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

			s.setNow(func() time.Time { return base })
			require.NoError(t, s.Set(ctx, "old", KeyToken, "t"))
			require.NoError(t, s.Set(ctx, "old", KeyUser, "u"))
			s.setNow(func() time.Time { return base.Add(2 * time.Hour) })
			require.NoError(t, s.Set(ctx, "fresh", KeyToken, "t"))

			n, err := s.PurgeIdle(ctx, base.Add(time.Hour))
			require.NoError(t, err)
			assert.Equal(t, int64(2), n)

			_, ok, _ := s.Get(ctx, "old", KeyToken)
			assert.False(t, ok)
			_, ok, _ = s.Get(ctx, "fresh", KeyToken)
			assert.True(t, ok)
		})
	}
}

func TestStore_TouchKeepsReadOnlySessionAlive(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

			s.setNow(func() time.Time { return base })
			require.NoError(t, s.Set(ctx, "reader", KeyToken, "t"))
			require.NoError(t, s.Set(ctx, "reader", KeyUser, "u"))
			require.NoError(t, s.Set(ctx, "gone", KeyToken, "t"))

			s.setNow(func() time.Time { return base.Add(2 * time.Hour) })
			require.NoError(t, s.Touch(ctx, "reader"))
			require.NoError(t, s.Touch(ctx, "missing"), "touching an unknown session is not an error")

			n, err := s.PurgeIdle(ctx, base.Add(time.Hour))
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)

			for _, k := range []string{KeyToken, KeyUser} {
				_, ok, _ := s.Get(ctx, "reader", k)
				assert.True(t, ok, k)
			}
			_, ok, _ := s.Get(ctx, "gone", KeyToken)
			assert.False(t, ok)
		})
	}
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	v1, err := RunMigrations(path)
	require.NoError(t, err)
	v2, err := RunMigrations(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), v1)
	assert.Equal(t, v1, v2)
}
