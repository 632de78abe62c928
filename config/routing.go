package config

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
)

// StaticRoute 静态路由，优先于 CCP 学习到的路由
type StaticRoute struct {
	Prefix  string `json:"prefix"`
	NextHop string `json:"next_hop"`

	// SourcePrefixRestriction 只向地址匹配该正则的对端通告此路由
	SourcePrefixRestriction string `json:"source_prefix_restriction,omitempty"`
}

// RoutingConfig CCP 路由配置
type RoutingConfig struct {
	// RoutingSecret 路由认证密钥材料，为空时启动时随机生成
	RoutingSecret string `json:"routing_secret"`

	// BroadcastInterval 路由更新心跳间隔
	BroadcastInterval Duration `json:"broadcast_interval"`

	// RouteExpiry 通告给对端的 hold-down 时间
	RouteExpiry Duration `json:"route_expiry"`

	// MaxEpochsPerMessage 单条更新消息覆盖的最大纪元数
	MaxEpochsPerMessage uint32 `json:"max_epochs_per_message"`

	// CleanupInterval 过期接收端的清理间隔
	CleanupInterval Duration `json:"cleanup_interval"`

	// StaticRoutes 静态路由
	StaticRoutes []StaticRoute `json:"static_routes,omitempty"`
}

// DefaultRoutingConfig 返回默认路由配置
func DefaultRoutingConfig() RoutingConfig {
	return RoutingConfig{
		BroadcastInterval:   Duration(30 * time.Second),
		RouteExpiry:         Duration(45 * time.Second),
		MaxEpochsPerMessage: 50,
		CleanupInterval:     Duration(time.Second),
	}
}

// Validate 验证路由配置
func (c *RoutingConfig) Validate() error {
	if c.BroadcastInterval <= 0 {
		return fmtErr("routing", errors.New("broadcast_interval must be positive"))
	}
	if c.RouteExpiry < c.BroadcastInterval {
		return fmtErr("routing", errors.New("route_expiry must not be shorter than broadcast_interval"))
	}
	if c.MaxEpochsPerMessage == 0 {
		return fmtErr("routing", errors.New("max_epochs_per_message must be positive"))
	}
	if c.CleanupInterval <= 0 {
		return fmtErr("routing", errors.New("cleanup_interval must be positive"))
	}
	for _, r := range c.StaticRoutes {
		if _, err := ilp.ParsePrefix(r.Prefix); err != nil {
			return fmtErr("routing", fmt.Errorf("static route %q: %v", r.Prefix, err))
		}
		if r.NextHop == "" {
			return fmtErr("routing", fmt.Errorf("static route %q: empty next_hop", r.Prefix))
		}
		if r.SourcePrefixRestriction != "" {
			if _, err := regexp.Compile(r.SourcePrefixRestriction); err != nil {
				return fmtErr("routing", fmt.Errorf("static route %q: %v", r.Prefix, err))
			}
		}
	}
	return nil
}
