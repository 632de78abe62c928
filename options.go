package connector

import (
	"errors"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-ilp-connector/config"
	"github.com/dep2p/go-ilp-connector/internal/core/settlement"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	// 完整配置，为空时使用 config.NewConfig()
	config *config.Config

	// 配置文件路径，优先于 config
	configFile string

	// 覆盖项
	operatorAddress string
	dataDir         string
	accounts        []types.AccountSettings

	// 注入的协作者
	clock         clock.Clock
	linkFactories []pkgif.LinkFactory
	packetFilters []pkgif.PacketSwitchFilter
	settleDriver  settlement.Driver
	rateProvider  pkgif.ExchangeRateProvider
	userFxOptions []fx.Option
}

func newOptions() *options {
	return &options{}
}

// toConfig 合并配置来源与覆盖项
func (o *options) toConfig() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case o.configFile != "":
		loaded, err := config.LoadFile(o.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case o.config != nil:
		cfg = o.config
	default:
		cfg = config.NewConfig()
	}

	if o.operatorAddress != "" {
		cfg.Connector.OperatorAddress = o.operatorAddress
	}
	if o.dataDir != "" {
		cfg.Storage.DataDir = o.dataDir
		cfg.Storage.InMemory = false
	}
	cfg.Accounts = append(cfg.Accounts, o.accounts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WithConfig 使用完整配置
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("config cannot be nil")
		}
		o.config = cfg
		return nil
	}
}

// WithConfigFile 从 JSON 文件加载配置
func WithConfigFile(path string) Option {
	return func(o *options) error {
		if path == "" {
			return errors.New("config file path cannot be empty")
		}
		o.configFile = path
		return nil
	}
}

// WithOperatorAddress 设置本节点 ILP 地址
func WithOperatorAddress(addr string) Option {
	return func(o *options) error {
		o.operatorAddress = addr
		return nil
	}
}

// WithDataDir 设置数据目录并切换为落盘存储
func WithDataDir(dir string) Option {
	return func(o *options) error {
		if dir == "" {
			return errors.New("data dir cannot be empty")
		}
		o.dataDir = dir
		return nil
	}
}

// WithAccounts 追加启动时写入仓库的账户
func WithAccounts(accounts ...types.AccountSettings) Option {
	return func(o *options) error {
		o.accounts = append(o.accounts, accounts...)
		return nil
	}
}

// WithClock 替换时钟，测试中使用 clock.NewMock()
func WithClock(clk clock.Clock) Option {
	return func(o *options) error {
		o.clock = clk
		return nil
	}
}

// WithLinkFactory 注册链路工厂
func WithLinkFactory(factories ...pkgif.LinkFactory) Option {
	return func(o *options) error {
		o.linkFactories = append(o.linkFactories, factories...)
		return nil
	}
}

// WithPacketFilter 在内置过滤器之后追加数据包过滤器
func WithPacketFilter(filters ...pkgif.PacketSwitchFilter) Option {
	return func(o *options) error {
		o.packetFilters = append(o.packetFilters, filters...)
		return nil
	}
}

// WithSettlementDriver 接入结算引擎
func WithSettlementDriver(d settlement.Driver) Option {
	return func(o *options) error {
		o.settleDriver = d
		return nil
	}
}

// WithExchangeRateProvider 使用外部汇率源替代配置中的静态汇率
func WithExchangeRateProvider(p pkgif.ExchangeRateProvider) Option {
	return func(o *options) error {
		o.rateProvider = p
		return nil
	}
}

// WithFxOptions 追加自定义 Fx 选项
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.userFxOptions = append(o.userFxOptions, opts...)
		return nil
	}
}
