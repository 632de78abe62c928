package config

import "errors"

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Enabled 是否注册 prometheus 指标
	Enabled bool `json:"enabled"`

	// Namespace 指标命名空间
	Namespace string `json:"namespace"`

	// ListenAddr /metrics 的 HTTP 监听地址，为空时不监听
	ListenAddr string `json:"listen_addr,omitempty"`
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Namespace: "ilp_connector",
	}
}

// Validate 验证指标配置
func (c *MetricsConfig) Validate() error {
	if c.Enabled && c.Namespace == "" {
		return fmtErr("metrics", errors.New("namespace cannot be empty"))
	}
	return nil
}
