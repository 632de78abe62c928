package rates

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-ilp-connector/config"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
)

// Params 模块依赖
type Params struct {
	fx.In

	Config   *config.Config
	Provider pkgif.ExchangeRateProvider `name:"external" optional:"true"`
}

// Result 模块输出
type Result struct {
	fx.Out

	Provider  pkgif.ExchangeRateProvider
	Converter *Converter
}

// Module 返回 Fx 模块
//
// 提供外部汇率源（name:"external"）时使用外部源，否则使用配置中的静态汇率。
func Module() fx.Option {
	return fx.Module("rates",
		fx.Provide(ProvideRates),
	)
}

// ProvideRates 提供汇率源与换算器
func ProvideRates(p Params) (Result, error) {
	provider := p.Provider
	if provider == nil {
		static, err := p.Config.Rates.Parse()
		if err != nil {
			return Result{}, err
		}
		provider = NewStaticProvider(static)
	}
	return Result{Provider: provider, Converter: NewConverter(provider)}, nil
}
