package accounts

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-ilp-connector/config"
	"github.com/dep2p/go-ilp-connector/internal/core/storage/engine"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/lib/log"
)

var logger = log.Logger("core/accounts")

// Result 模块输出
type Result struct {
	fx.Out

	Repository pkgif.AccountSettingsRepository
	Cache      pkgif.AccountSettingsCache
}

// Module 返回 Fx 模块
//
// OnStart 把配置中的账户写入仓库。
func Module() fx.Option {
	return fx.Module("accounts",
		fx.Provide(ProvideAccounts),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideAccounts 提供仓库与加载缓存
func ProvideAccounts(cfg *config.Config, eng engine.Engine) Result {
	repo := NewRepository(eng)
	ping := PingAccountSettings(cfg.Connector.DefaultAssetCode, cfg.Connector.DefaultAssetScale)
	cache := NewLoadingCache(repo, cfg.Cache.AccountSettingsSize, cfg.Cache.AccountSettingsTTL.Duration(), ping)
	return Result{Repository: repo, Cache: cache}
}

func registerLifecycle(lc fx.Lifecycle, cfg *config.Config, repo pkgif.AccountSettingsRepository, cache pkgif.AccountSettingsCache) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			for i := range cfg.Accounts {
				s := cfg.Accounts[i].Clone()
				if err := repo.Put(ctx, s); err != nil {
					logger.Error("写入账户失败", "account", s.AccountID, "error", err)
					return err
				}
				cache.Invalidate(s.AccountID)
			}
			if n := len(cfg.Accounts); n > 0 {
				logger.Info("已加载账户", "count", n)
			}
			return nil
		},
	})
}
