// Package kv 在 engine.Engine 上划分按前缀隔离的键空间
//
// 连接器使用的前缀：
//
//	a/  账户设置（JSON）
//	b/  余额记录（protowire）
//	s/  结算幂等记录（JSON）
package kv

import (
	"encoding/json"

	"github.com/dep2p/go-ilp-connector/internal/core/storage/engine"
)

// Store 前缀键空间，对调用方隐藏前缀
type Store struct {
	eng    engine.Engine
	prefix []byte
}

// New 返回 eng 上前缀为 prefix 的键空间
func New(eng engine.Engine, prefix []byte) *Store {
	return &Store{eng: eng, prefix: append([]byte(nil), prefix...)}
}

func (s *Store) full(key []byte) []byte {
	return append(append(make([]byte, 0, len(s.prefix)+len(key)), s.prefix...), key...)
}

func (s *Store) Get(key []byte) ([]byte, error) { return s.eng.Get(s.full(key)) }

func (s *Store) Put(key, value []byte) error { return s.eng.Put(s.full(key), value) }

func (s *Store) Delete(key []byte) error { return s.eng.Delete(s.full(key)) }

// GetJSON 读取并解码，键不存在时返回 engine.ErrNotFound
func (s *Store) GetJSON(key []byte, out any) error {
	raw, err := s.Get(key)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// PutJSON 编码后写入
func (s *Store) PutJSON(key []byte, in any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return s.Put(key, raw)
}

// PrefixScan 遍历 sub 下的键，回调收到的键不含 Store 前缀
func (s *Store) PrefixScan(sub []byte, fn func(key, value []byte) error) error {
	trim := len(s.prefix)
	return s.eng.ScanPrefix(s.full(sub), func(k, v []byte) error {
		return fn(k[trim:], v)
	})
}

// Update 读写事务，写冲突时 fn 会被重新执行
func (s *Store) Update(fn func(txn *Txn) error) error {
	return s.eng.Update(func(t engine.Transaction) error { return fn(&Txn{s, t}) })
}

// View 只读事务
func (s *Store) View(fn func(txn *Txn) error) error {
	return s.eng.View(func(t engine.Transaction) error { return fn(&Txn{s, t}) })
}

// Txn 事务视图，键同样自动加前缀
type Txn struct {
	s *Store
	t engine.Transaction
}

func (x *Txn) Get(key []byte) ([]byte, error) { return x.t.Get(x.s.full(key)) }

func (x *Txn) Set(key, value []byte) error { return x.t.Set(x.s.full(key), value) }

func (x *Txn) Delete(key []byte) error { return x.t.Delete(x.s.full(key)) }
