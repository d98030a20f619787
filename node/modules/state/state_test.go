package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelDBState_CacheWrapWrite(t *testing.T) {
	var (
		req    = require.New(t)
		dbPath = filepath.Join(t.TempDir(), "rta_test_state")
	)

	stg, err := NewLevelDBState(dbPath)
	req.NoError(err)

	req.NoError(stg.Set("kept", []byte("1")))
	req.NoError(stg.Set("removed", []byte("2")))

	cache := stg.CacheWrap()
	req.NoError(cache.Set("added", []byte("3")))
	req.NoError(cache.Delete("removed"))

	value, err := cache.Get("removed")
	req.NoError(err)
	req.Nil(value)

	// Nothing reaches leveldb before Write.
	value, err = stg.Get("added")
	req.NoError(err)
	req.Nil(value)

	req.NoError(cache.Write())

	value, err = stg.Get("added")
	req.NoError(err)
	req.Equal([]byte("3"), value)
	value, err = stg.Get("removed")
	req.NoError(err)
	req.Nil(value)
	req.NoError(stg.Close())

	// Reopen to check the batch is durable.
	stg, err = NewLevelDBState(dbPath)
	req.NoError(err)
	defer stg.Close()
	value, err = stg.Get("kept")
	req.NoError(err)
	req.Equal([]byte("1"), value)
	value, err = stg.Get("added")
	req.NoError(err)
	req.Equal([]byte("3"), value)
}

func TestCacheWrap_NestedDiscard(t *testing.T) {
	req := require.New(t)
	stg := NewMemState()

	outer := stg.CacheWrap()
	req.NoError(outer.Set("confirmation", []byte("a")))

	inner := outer.CacheWrap()
	req.NoError(inner.Set("balance", []byte("1000")))
	value, err := inner.Get("confirmation")
	req.NoError(err)
	req.Equal([]byte("a"), value)
	inner.Discard()

	value, err = outer.Get("balance")
	req.NoError(err)
	req.Nil(value)

	req.NoError(outer.Write())
	value, err = stg.Get("confirmation")
	req.NoError(err)
	req.Equal([]byte("a"), value)
	value, err = stg.Get("balance")
	req.NoError(err)
	req.Nil(value)
}

func TestCacheWrap_NestedWrite(t *testing.T) {
	req := require.New(t)
	stg := NewMemState()
	req.NoError(stg.Set("stale", []byte("x")))

	outer := stg.CacheWrap()
	inner := outer.CacheWrap()
	req.NoError(inner.Set("balance", []byte("1000")))
	req.NoError(inner.Delete("stale"))
	req.NoError(inner.Write())

	// Still buffered in the outer cache.
	value, err := stg.Get("balance")
	req.NoError(err)
	req.Nil(value)

	req.NoError(outer.Write())
	value, err = stg.Get("balance")
	req.NoError(err)
	req.Equal([]byte("1000"), value)
	value, err = stg.Get("stale")
	req.NoError(err)
	req.Nil(value)
}

func TestCacheWrap_DiscardedWriteIsNoop(t *testing.T) {
	req := require.New(t)
	stg := NewMemState()

	cache := stg.CacheWrap()
	req.NoError(cache.Set("key", []byte("value")))
	cache.Discard()
	req.NoError(cache.Write())

	value, err := stg.Get("key")
	req.NoError(err)
	req.Nil(value)
}

func TestPostgresState(t *testing.T) {
	dsn := os.Getenv("RTA_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("RTA_TEST_POSTGRES_DSN is not set")
	}
	req := require.New(t)

	stg, err := NewPostgresState(context.Background(), dsn)
	req.NoError(err)
	defer stg.Close()

	req.NoError(stg.Delete("pg_test_key"))
	cache := stg.CacheWrap()
	req.NoError(cache.Set("pg_test_key", []byte("value")))
	req.NoError(cache.Write())

	value, err := stg.Get("pg_test_key")
	req.NoError(err)
	req.Equal([]byte("value"), value)
	req.NoError(stg.Delete("pg_test_key"))
}
