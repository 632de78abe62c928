// Package engine 定义连接器持久化层使用的有序 KV 引擎
//
// 账户设置、余额记录和结算幂等记录共用一个引擎，键空间由 kv.Store 按前缀划分。
// 实现需要支持并发调用。
package engine

import (
	"errors"
	"time"
)

var (
	// ErrNotFound 键不存在
	ErrNotFound = errors.New("engine: no such key")

	// ErrEmptyKey 键为空
	ErrEmptyKey = errors.New("engine: key must not be empty")

	// ErrClosed 引擎已关闭
	ErrClosed = errors.New("engine: use of closed engine")

	// ErrTransactionConflict 余额等读改写事务多次重试后仍然冲突
	ErrTransactionConflict = errors.New("engine: write conflict persisted after retries")

	// ErrInvalidConfig 落盘模式缺少路径
	ErrInvalidConfig = errors.New("engine: path required unless in-memory")
)

// IsNotFound 报告 err 是否表示键不存在
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Engine 有序 KV 引擎
type Engine interface {
	// Get 读取值，不存在时返回 ErrNotFound
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error

	// Update 在读写事务中执行 fn
	//
	// 写冲突时会重新执行 fn，fn 不得有事务外副作用。
	Update(fn func(txn Transaction) error) error

	// View 在只读事务中执行 fn
	View(fn func(txn Transaction) error) error

	// ScanPrefix 按键序遍历前缀，fn 返回错误时停止并返回该错误
	ScanPrefix(prefix []byte, fn func(key, value []byte) error) error

	Close() error
}

// Transaction 事务内的读写视图
type Transaction interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
}

// Config 引擎参数
type Config struct {
	// Path 数据目录，InMemory 时忽略
	Path     string
	InMemory bool

	// SyncWrites 每次提交都 fsync
	SyncWrites bool

	// GCInterval 值日志回收周期，0 关闭回收
	GCInterval time.Duration

	// GCDiscardRatio 触发回收的可丢弃比例，超出 (0, 1] 时取 0.5
	GCDiscardRatio float64

	// MaxConflictRetries Update 的最大执行次数，至少 1
	MaxConflictRetries int
}

// Validate 检查路径并补全缺省值
func (c *Config) Validate() error {
	if c.Path == "" && !c.InMemory {
		return ErrInvalidConfig
	}
	if !(c.GCDiscardRatio > 0 && c.GCDiscardRatio <= 1) {
		c.GCDiscardRatio = 0.5
	}
	c.MaxConflictRetries = max(c.MaxConflictRetries, 1)
	return nil
}
