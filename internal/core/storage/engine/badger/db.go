// Package badger 以 BadgerDB 实现 engine.Engine
package badger

import (
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/dep2p/go-ilp-connector/internal/core/storage/engine"
	"github.com/dep2p/go-ilp-connector/pkg/lib/log"
)

var logger = log.Logger("storage/badger")

// DB BadgerDB 引擎
type DB struct {
	bdb     *badger.DB
	retries int
	closed  atomic.Bool

	stopGC chan struct{}
	gcDone sync.WaitGroup
}

// New 按配置打开数据库，落盘模式下会创建目录
func New(cfg engine.Config) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions("").WithInMemory(true)
	if !cfg.InMemory {
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, err
		}
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(cfg.SyncWrites)
	}

	bdb, err := badger.Open(opts.WithLogger(nil))
	if err != nil {
		return nil, err
	}
	db := &DB{
		bdb:     bdb,
		retries: cfg.MaxConflictRetries,
		stopGC:  make(chan struct{}),
	}
	if !cfg.InMemory && cfg.GCInterval > 0 {
		db.gcDone.Add(1)
		go db.collectGarbage(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return db, nil
}

// collectGarbage 周期回收值日志，每轮回收到无可回收文件为止
func (db *DB) collectGarbage(every time.Duration, ratio float64) {
	defer db.gcDone.Done()
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-db.stopGC:
			return
		case <-t.C:
		}
		rounds := 0
		for db.bdb.RunValueLogGC(ratio) == nil {
			rounds++
		}
		if rounds > 0 {
			logger.Debug("值日志已回收", "rounds", rounds)
		}
	}
}

func (db *DB) Get(key []byte) (value []byte, err error) {
	err = db.View(func(txn engine.Transaction) error {
		value, err = txn.Get(key)
		return err
	})
	return value, err
}

func (db *DB) Put(key, value []byte) error {
	return db.Update(func(txn engine.Transaction) error { return txn.Set(key, value) })
}

func (db *DB) Delete(key []byte) error {
	return db.Update(func(txn engine.Transaction) error { return txn.Delete(key) })
}

// Update 执行读写事务，ErrConflict 时最多执行 MaxConflictRetries 次
func (db *DB) Update(fn func(txn engine.Transaction) error) error {
	if db.closed.Load() {
		return engine.ErrClosed
	}
	body := func(t *badger.Txn) error { return fn(txn{t}) }
	for n := 1; n <= db.retries; n++ {
		err := db.bdb.Update(body)
		if !errors.Is(err, badger.ErrConflict) {
			return translate(err)
		}
		logger.Debug("写冲突", "attempt", n)
	}
	return engine.ErrTransactionConflict
}

func (db *DB) View(fn func(txn engine.Transaction) error) error {
	if db.closed.Load() {
		return engine.ErrClosed
	}
	return translate(db.bdb.View(func(t *badger.Txn) error { return fn(txn{t}) }))
}

func (db *DB) ScanPrefix(prefix []byte, fn func(key, value []byte) error) error {
	if db.closed.Load() {
		return engine.ErrClosed
	}
	return db.bdb.View(func(t *badger.Txn) error {
		it := t.NewIterator(badger.IteratorOptions{PrefetchValues: true, PrefetchSize: 64, Prefix: prefix})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(item.KeyCopy(nil), v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close 停止回收协程并关闭数据库，重复调用返回 nil
func (db *DB) Close() error {
	if !db.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(db.stopGC)
	db.gcDone.Wait()
	return db.bdb.Close()
}

// txn 适配 *badger.Txn，拒绝空键并转换错误
type txn struct{ t *badger.Txn }

func (x txn) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, engine.ErrEmptyKey
	}
	item, err := x.t.Get(key)
	if err != nil {
		return nil, translate(err)
	}
	return item.ValueCopy(nil)
}

func (x txn) Set(key, value []byte) error {
	if len(key) == 0 {
		return engine.ErrEmptyKey
	}
	return translate(x.t.Set(key, value))
}

func (x txn) Delete(key []byte) error {
	if len(key) == 0 {
		return engine.ErrEmptyKey
	}
	return translate(x.t.Delete(key))
}

var badgerErrors = map[error]error{
	badger.ErrKeyNotFound: engine.ErrNotFound,
	badger.ErrEmptyKey:    engine.ErrEmptyKey,
	badger.ErrConflict:    engine.ErrTransactionConflict,
	badger.ErrDBClosed:    engine.ErrClosed,
}

// translate 把 badger 的哨兵错误映射为 engine 错误，其余原样返回
func translate(err error) error {
	if err == nil {
		return nil
	}
	for from, to := range badgerErrors {
		if errors.Is(err, from) {
			return to
		}
	}
	return err
}

var (
	_ engine.Engine      = (*DB)(nil)
	_ engine.Transaction = txn{}
)
