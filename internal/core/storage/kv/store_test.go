package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-ilp-connector/internal/core/storage/engine"
	"github.com/dep2p/go-ilp-connector/internal/core/storage/engine/badger"
)

func newEngine(t *testing.T) engine.Engine {
	t.Helper()
	e, err := badger.New(engine.Config{InMemory: true, MaxConflictRetries: 10})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

// TestStore_PrefixIsolation 不同前缀的 Store 互不可见
func TestStore_PrefixIsolation(t *testing.T) {
	eng := newEngine(t)
	accounts := New(eng, []byte("a/"))
	balances := New(eng, []byte("b/"))

	require.NoError(t, accounts.Put([]byte("bob"), []byte("settings")))
	require.NoError(t, balances.Put([]byte("bob"), []byte("balance")))

	v, err := accounts.Get([]byte("bob"))
	require.NoError(t, err)
	assert.Equal(t, []byte("settings"), v)

	// 底层键带前缀
	raw, err := eng.Get([]byte("b/bob"))
	require.NoError(t, err)
	assert.Equal(t, []byte("balance"), raw)

	var keys []string
	require.NoError(t, accounts.PrefixScan(nil, func(key, _ []byte) error {
		keys = append(keys, string(key))
		return nil
	}))
	assert.Equal(t, []string{"bob"}, keys)
}

// TestStore_JSON JSON 读写
func TestStore_JSON(t *testing.T) {
	s := New(newEngine(t), []byte("a/"))

	type record struct {
		ID    string `json:"id"`
		Value int    `json:"value"`
	}
	require.NoError(t, s.PutJSON([]byte("x"), record{ID: "x", Value: 7}))

	var got record
	require.NoError(t, s.GetJSON([]byte("x"), &got))
	assert.Equal(t, record{ID: "x", Value: 7}, got)

	err := s.GetJSON([]byte("missing"), &got)
	assert.True(t, engine.IsNotFound(err))
}

// TestStore_Update 事务内读写带前缀
func TestStore_Update(t *testing.T) {
	s := New(newEngine(t), []byte("b/"))

	require.NoError(t, s.Update(func(txn *Txn) error {
		_, err := txn.Get([]byte("k"))
		assert.True(t, engine.IsNotFound(err))
		return txn.Set([]byte("k"), []byte("1"))
	}))

	require.NoError(t, s.View(func(txn *Txn) error {
		v, err := txn.Get([]byte("k"))
		assert.Equal(t, []byte("1"), v)
		return err
	}))

	require.NoError(t, s.Delete([]byte("k")))
	_, err := s.Get([]byte("k"))
	assert.True(t, engine.IsNotFound(err))
}
