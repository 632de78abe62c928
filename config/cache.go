package config

import (
	"errors"
	"time"
)

// CacheConfig 缓存配置
type CacheConfig struct {
	// AccountSettingsTTL 账户设置缓存有效期
	AccountSettingsTTL Duration `json:"account_settings_ttl"`

	// AccountSettingsSize 账户设置缓存容量
	AccountSettingsSize int `json:"account_settings_size"`

	// RateLimiterIdle 限速器空闲淘汰时间，淘汰后状态丢失
	RateLimiterIdle Duration `json:"rate_limiter_idle"`

	// RateLimiterSize 限速器缓存容量
	RateLimiterSize int `json:"rate_limiter_size"`
}

// DefaultCacheConfig 返回默认缓存配置
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		AccountSettingsTTL:  Duration(15 * time.Minute),
		AccountSettingsSize: 10000,
		RateLimiterIdle:     Duration(30 * time.Second),
		RateLimiterSize:     10000,
	}
}

// Validate 验证缓存配置
func (c *CacheConfig) Validate() error {
	if c.AccountSettingsTTL <= 0 || c.RateLimiterIdle <= 0 {
		return fmtErr("cache", errors.New("ttl must be positive"))
	}
	if c.AccountSettingsSize <= 0 || c.RateLimiterSize <= 0 {
		return fmtErr("cache", errors.New("size must be positive"))
	}
	return nil
}
