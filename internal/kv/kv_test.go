package kv

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"officeflow-api/internal/database"
)

// exerciseBackend runs the behavior every Backend must share.
func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	_, found, err := b.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, b.Put(ctx, "users", []byte("v1")))
	require.NoError(t, b.Put(ctx, "users", []byte("v2")))
	v, found, err := b.Get(ctx, "users")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v2"), v)

	require.NoError(t, b.Delete(ctx, "users"))
	_, found, err = b.Get(ctx, "users")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, b.Put(ctx, "stale", []byte("x")))
	require.NoError(t, WriteAll(ctx, b, []Entry{
		{Key: "domains", Value: []byte("d")},
		{Key: "workspaces", Value: []byte("w")},
		{Key: "stale", Value: nil},
	}))

	for key, want := range map[string]string{"domains": "d", "workspaces": "w"} {
		v, found, err := b.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, found, key)
		assert.Equal(t, want, string(v))
	}
	_, found, err = b.Get(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	exerciseBackend(t, m)
	assert.Equal(t, []string{"domains", "workspaces"}, m.Keys())

	require.NoError(t, m.Close())
	_, _, err := m.Get(context.Background(), "domains")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemory_CopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	buf := []byte("abc")
	require.NoError(t, m.Put(ctx, "k", buf))
	buf[0] = 'z'

	v, _, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(v))
}

func TestRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	b := NewRedis(client)
	defer b.Close()

	exerciseBackend(t, b)

	raw, err := mr.Get("domains")
	require.NoError(t, err)
	assert.Equal(t, "d", raw)
}

func TestRedis_Unavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	b := NewRedis(client)
	defer b.Close()
	mr.Close()

	err = b.PutBatch(context.Background(), []Entry{{Key: "users", Value: []byte("x")}})
	assert.Error(t, err)
}

func TestSQLite(t *testing.T) {
	b, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	defer b.Close()

	exerciseBackend(t, b)
}

func TestSQLite_BatchRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO kv_store").
		WithArgs("domains", []byte("d")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO kv_store").
		WithArgs("users", []byte("u")).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	b := NewSQLite(db)
	err = b.PutBatch(context.Background(), []Entry{
		{Key: "domains", Value: []byte("d")},
		{Key: "users", Value: []byte("u")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "users")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestPostgres_Integration requires DATABASE_URL and applies migrations.
//
// Run with: go test -v ./internal/kv -run TestPostgres_Integration
func TestPostgres_Integration(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	databaseURL := os.Getenv("DATABASE_URL")

	require.NoError(t, database.RunMigrations(databaseURL))

	pool, err := database.NewPool(ctx, databaseURL)
	require.NoError(t, err, "failed to connect to database")
	defer pool.Close()

	cleanup := func() {
		_, _ = pool.Exec(ctx, `DELETE FROM kv_store WHERE key IN ('users', 'domains', 'workspaces', 'stale')`)
	}
	cleanup()
	defer cleanup()

	exerciseBackend(t, NewPostgres(pool))
}
