package balance

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-ilp-connector/config"
	"github.com/dep2p/go-ilp-connector/internal/core/storage/engine"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/lib/log"
)

var logger = log.Logger("core/balance")

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("balance",
		fx.Provide(ProvideTracker),
	)
}

// ProvideTracker 按配置选择余额账本后端
func ProvideTracker(cfg *config.Config, eng engine.Engine) pkgif.BalanceTracker {
	if cfg.Balance.Backend == config.BalanceBackendBadger {
		logger.Info("余额账本使用 BadgerDB")
		return NewBadgerTracker(eng)
	}
	return NewMemoryTracker()
}
