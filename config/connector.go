package config

import (
	"errors"
	"time"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
)

// ConnectorConfig 节点配置
type ConnectorConfig struct {
	// OperatorAddress 本节点 ILP 地址
	// 为空时必须设置 ParentAccountID，启动时通过 IL-DCP 从父节点获取
	OperatorAddress string `json:"operator_address"`

	// ParentAccountID 父账户
	ParentAccountID string `json:"parent_account_id,omitempty"`

	// DefaultAssetCode / DefaultAssetScale ping 伪账户使用的资产
	DefaultAssetCode  string `json:"default_asset_code"`
	DefaultAssetScale uint8  `json:"default_asset_scale"`

	// EnableIldcp 是否为子账户提供 IL-DCP
	EnableIldcp bool `json:"enable_ildcp"`

	// DisallowedDestinationSchemes 不允许作为目的地址的分配方案
	DisallowedDestinationSchemes []string `json:"disallowed_destination_schemes"`

	// MinMessageWindow 每一跳从过期时间中扣除的最小窗口
	MinMessageWindow Duration `json:"min_message_window"`

	// MaxHoldTime 出站 Prepare 的最长持有时间
	MaxHoldTime Duration `json:"max_hold_time"`
}

// DefaultConnectorConfig 返回默认节点配置
func DefaultConnectorConfig() ConnectorConfig {
	return ConnectorConfig{
		OperatorAddress:              "test.connector",
		DefaultAssetCode:             "XRP",
		DefaultAssetScale:            9,
		EnableIldcp:                  true,
		DisallowedDestinationSchemes: []string{"self", "example"},
		MinMessageWindow:             Duration(time.Second),
		MaxHoldTime:                  Duration(30 * time.Second),
	}
}

// Validate 验证节点配置
func (c *ConnectorConfig) Validate() error {
	if c.OperatorAddress == "" {
		if c.ParentAccountID == "" {
			return fmtErr("connector", errors.New("operator_address or parent_account_id is required"))
		}
	} else if _, err := ilp.ParseAddress(c.OperatorAddress); err != nil {
		return fmtErr("connector", err)
	}
	if c.DefaultAssetCode == "" {
		return fmtErr("connector", errors.New("default_asset_code cannot be empty"))
	}
	if c.MinMessageWindow <= 0 {
		return fmtErr("connector", errors.New("min_message_window must be positive"))
	}
	if c.MaxHoldTime <= c.MinMessageWindow {
		return fmtErr("connector", errors.New("max_hold_time must exceed min_message_window"))
	}
	return nil
}

// Address 返回解析后的节点地址，未配置时为零值
func (c *ConnectorConfig) Address() ilp.Address {
	if c.OperatorAddress == "" {
		return ""
	}
	return ilp.MustParseAddress(c.OperatorAddress)
}
