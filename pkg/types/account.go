package types

import (
	"errors"
	"fmt"
)

// AccountID 账户标识，在单个连接器实例内唯一
type AccountID string

// String 返回账户 ID 字符串
func (id AccountID) String() string {
	return string(id)
}

// PingAccountID ping 伪账户，累计本节点的 ping 收入，不参与结算
const PingAccountID AccountID = "__ping_account__"

// ============================================================================
//                              Relationship - 账户关系
// ============================================================================

// Relationship 账户与本节点的关系
type Relationship string

// 账户关系
const (
	RelationshipParent Relationship = "PARENT"
	RelationshipPeer   Relationship = "PEER"
	RelationshipChild  Relationship = "CHILD"
)

// Valid 关系值是否合法
func (r Relationship) Valid() bool {
	switch r {
	case RelationshipParent, RelationshipPeer, RelationshipChild:
		return true
	}
	return false
}

// ============================================================================
//                              LinkType - 链路类型
// ============================================================================

// LinkType 链路类型，LinkManager 据此选择 LinkFactory
type LinkType string

// 内置链路类型
const (
	// LinkTypePingLoopback ping 回环链路
	LinkTypePingLoopback LinkType = "PING_LOOPBACK"
	// LinkTypeLoopback 本地回环链路（以零原像应答）
	LinkTypeLoopback LinkType = "LOOPBACK"
	// LinkTypePipe 进程内管道链路，需预先注册
	LinkTypePipe LinkType = "PIPE"
)

// ============================================================================
//                              AccountSettings
// ============================================================================

// RateLimitSettings 速率限制
type RateLimitSettings struct {
	// MaxPacketsPerSecond 每秒最大数据包数，0 表示不限制
	MaxPacketsPerSecond int `json:"max_packets_per_second"`
}

// SettlementEngineDetails 结算引擎配置
type SettlementEngineDetails struct {
	// SettlementEngineAccountID 结算引擎侧的账户 ID
	SettlementEngineAccountID string `json:"settlement_engine_account_id"`

	// BaseURL 结算引擎地址
	BaseURL string `json:"base_url"`

	// SettleThreshold 清算余额超过该值时触发结算，nil 表示不自动结算
	SettleThreshold *int64 `json:"settle_threshold,omitempty"`

	// SettleTo 结算后清算余额回落到的值
	SettleTo int64 `json:"settle_to"`
}

// AccountSettings 账户设置
type AccountSettings struct {
	AccountID    AccountID    `json:"account_id"`
	AssetCode    string       `json:"asset_code"`
	AssetScale   uint8        `json:"asset_scale"`
	Relationship Relationship `json:"relationship"`
	LinkType     LinkType     `json:"link_type"`

	// MaximumPacketAmount 单包最大金额，nil 表示不限制
	MaximumPacketAmount *uint64 `json:"maximum_packet_amount,omitempty"`

	RateLimit  *RateLimitSettings       `json:"rate_limit,omitempty"`
	Settlement *SettlementEngineDetails `json:"settlement,omitempty"`

	CustomSettings map[string]any `json:"custom_settings,omitempty"`

	SendRoutes    bool `json:"send_routes"`
	ReceiveRoutes bool `json:"receive_routes"`
	Internal      bool `json:"internal"`
}

// ErrInvalidAccountSettings 账户设置非法
var ErrInvalidAccountSettings = errors.New("invalid account settings")

// Validate 校验账户设置
func (s *AccountSettings) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil", ErrInvalidAccountSettings)
	}
	if s.AccountID == "" {
		return fmt.Errorf("%w: empty account id", ErrInvalidAccountSettings)
	}
	if s.AssetCode == "" {
		return fmt.Errorf("%w: account %s: empty asset code", ErrInvalidAccountSettings, s.AccountID)
	}
	if !s.Relationship.Valid() {
		return fmt.Errorf("%w: account %s: relationship %q", ErrInvalidAccountSettings, s.AccountID, s.Relationship)
	}
	if s.LinkType == "" {
		return fmt.Errorf("%w: account %s: empty link type", ErrInvalidAccountSettings, s.AccountID)
	}
	if st := s.Settlement; st != nil && st.SettleThreshold != nil && st.SettleTo > *st.SettleThreshold {
		return fmt.Errorf("%w: account %s: settle_to %d above settle_threshold %d",
			ErrInvalidAccountSettings, s.AccountID, st.SettleTo, *st.SettleThreshold)
	}
	return nil
}

// IsChild 是否子账户
func (s *AccountSettings) IsChild() bool {
	return s.Relationship == RelationshipChild
}

// IsParent 是否父账户
func (s *AccountSettings) IsParent() bool {
	return s.Relationship == RelationshipParent
}

// MaxPacketAmount 返回单包上限
func (s *AccountSettings) MaxPacketAmount() (uint64, bool) {
	if s.MaximumPacketAmount == nil {
		return 0, false
	}
	return *s.MaximumPacketAmount, true
}

// SettleThreshold 返回结算阈值
func (s *AccountSettings) SettleThreshold() (int64, bool) {
	if s.Settlement == nil || s.Settlement.SettleThreshold == nil {
		return 0, false
	}
	return *s.Settlement.SettleThreshold, true
}

// Clone 深拷贝，用于在缓存之外修改
func (s *AccountSettings) Clone() *AccountSettings {
	cp := *s
	if s.MaximumPacketAmount != nil {
		v := *s.MaximumPacketAmount
		cp.MaximumPacketAmount = &v
	}
	if s.RateLimit != nil {
		rl := *s.RateLimit
		cp.RateLimit = &rl
	}
	if s.Settlement != nil {
		st := *s.Settlement
		if st.SettleThreshold != nil {
			v := *st.SettleThreshold
			st.SettleThreshold = &v
		}
		cp.Settlement = &st
	}
	if s.CustomSettings != nil {
		cp.CustomSettings = make(map[string]any, len(s.CustomSettings))
		for k, v := range s.CustomSettings {
			cp.CustomSettings[k] = v
		}
	}
	return &cp
}
