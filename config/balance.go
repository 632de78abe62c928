package config

import "fmt"

// 余额账本后端
const (
	BalanceBackendMemory = "memory"
	BalanceBackendBadger = "badger"
)

// BalanceConfig 余额账本配置
type BalanceConfig struct {
	// Backend memory 或 badger
	Backend string `json:"backend"`
}

// DefaultBalanceConfig 返回默认余额配置
func DefaultBalanceConfig() BalanceConfig {
	return BalanceConfig{Backend: BalanceBackendMemory}
}

// Validate 验证余额配置
func (c *BalanceConfig) Validate() error {
	switch c.Backend {
	case BalanceBackendMemory, BalanceBackendBadger:
		return nil
	}
	return fmtErr("balance", fmt.Errorf("unknown backend %q", c.Backend))
}
