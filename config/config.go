// Package config 提供连接器统一配置
//
// 主 Config 聚合所有子配置，每个子配置在独立文件中定义，
// 提供 DefaultXxxConfig() 与 Validate()。
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	cfg.Connector.OperatorAddress = "test.alice"
//
//	// 从 JSON 加载
//	cfg, err := config.LoadFile("connector.json")
package config

import (
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// Config 连接器完整配置
type Config struct {
	// Connector 节点身份与数据包交换参数
	Connector ConnectorConfig `json:"connector"`

	// Routing CCP 路由
	Routing RoutingConfig `json:"routing"`

	// Balance 余额账本
	Balance BalanceConfig `json:"balance"`

	// Storage 持久化存储
	Storage StorageConfig `json:"storage"`

	// Cache 账户设置与限速器缓存
	Cache CacheConfig `json:"cache"`

	// Metrics 指标
	Metrics MetricsConfig `json:"metrics"`

	// Rates 静态汇率
	Rates RatesConfig `json:"rates"`

	// Accounts 启动时写入仓库的账户
	Accounts []types.AccountSettings `json:"accounts,omitempty"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Connector: DefaultConnectorConfig(),
		Routing:   DefaultRoutingConfig(),
		Balance:   DefaultBalanceConfig(),
		Storage:   DefaultStorageConfig(),
		Cache:     DefaultCacheConfig(),
		Metrics:   DefaultMetricsConfig(),
		Rates:     DefaultRatesConfig(),
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if err := c.Connector.Validate(); err != nil {
		return err
	}
	if err := c.Routing.Validate(); err != nil {
		return err
	}
	if err := c.Balance.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.Rates.Validate(); err != nil {
		return err
	}
	seen := make(map[types.AccountID]struct{}, len(c.Accounts))
	for i := range c.Accounts {
		acct := &c.Accounts[i]
		if err := acct.Validate(); err != nil {
			return fmtErr("accounts", err)
		}
		if _, dup := seen[acct.AccountID]; dup {
			return fmtErr("accounts", errDuplicateAccount(acct.AccountID))
		}
		seen[acct.AccountID] = struct{}{}
	}
	if c.Connector.ParentAccountID != "" {
		if _, ok := seen[types.AccountID(c.Connector.ParentAccountID)]; !ok && len(c.Accounts) > 0 {
			return fmtErr("connector", errUnknownParent(c.Connector.ParentAccountID))
		}
	}
	return nil
}
