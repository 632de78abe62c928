// Package storage 打开连接器的 BadgerDB 并交给 Fx 管理生命周期
//
// 各组件通过 kv.New 在同一个引擎上取得自己的前缀键空间。
package storage

import (
	"context"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-ilp-connector/config"
	"github.com/dep2p/go-ilp-connector/internal/core/storage/engine"
	"github.com/dep2p/go-ilp-connector/internal/core/storage/engine/badger"
	"github.com/dep2p/go-ilp-connector/pkg/lib/log"
)

var logger = log.Logger("core/storage")

const (
	// gcInterval 落盘模式下的值日志回收周期
	gcInterval = 10 * time.Minute

	// conflictRetries 读改写事务的冲突重试次数
	conflictRetries = 32
)

// Params Storage 模块依赖参数
type Params struct {
	fx.In

	Config *config.Config `optional:"true"`
	LC     fx.Lifecycle
}

// Module 返回 Storage Fx 模块
func Module() fx.Option {
	return fx.Module("storage",
		fx.Provide(ProvideEngine),
	)
}

// ProvideEngine 打开引擎并在 OnStop 时关闭
func ProvideEngine(p Params) (engine.Engine, error) {
	cfg := EngineConfig(p.Config)
	eng, err := badger.New(cfg)
	if err != nil {
		logger.Error("打开存储失败", "path", cfg.Path, "error", err)
		return nil, err
	}
	logger.Debug("存储已打开", "path", cfg.Path, "inMemory", cfg.InMemory)

	p.LC.Append(fx.Hook{
		OnStop: func(context.Context) error {
			if err := eng.Close(); err != nil {
				logger.Warn("关闭存储失败", "error", err)
				return err
			}
			return nil
		},
	})
	return eng, nil
}

// EngineConfig 由统一配置得出引擎参数，cfg 为空时使用内存模式
func EngineConfig(cfg *config.Config) engine.Config {
	if cfg == nil || cfg.Storage.InMemory {
		return engine.Config{InMemory: true, MaxConflictRetries: conflictRetries}
	}
	return engine.Config{
		Path:               cfg.Storage.DBPath(),
		GCInterval:         gcInterval,
		MaxConflictRetries: conflictRetries,
	}
}
