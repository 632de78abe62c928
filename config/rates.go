package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RatesConfig 静态汇率配置
//
//	{"static": {"USD/XRP": "4.5", "XRP/USD": "0.22"}}
//
// 同种资产之间的汇率恒为 1，无需配置。
type RatesConfig struct {
	Static map[string]string `json:"static,omitempty"`
}

// DefaultRatesConfig 返回默认汇率配置
func DefaultRatesConfig() RatesConfig {
	return RatesConfig{}
}

// Validate 验证汇率配置
func (c *RatesConfig) Validate() error {
	_, err := c.Parse()
	return err
}

// Parse 解析为 (源资产, 目标资产) -> 汇率
func (c *RatesConfig) Parse() (map[[2]string]decimal.Decimal, error) {
	out := make(map[[2]string]decimal.Decimal, len(c.Static))
	for pair, value := range c.Static {
		src, dst, ok := strings.Cut(pair, "/")
		if !ok || src == "" || dst == "" {
			return nil, fmtErr("rates", fmt.Errorf("pair %q must be SRC/DST", pair))
		}
		rate, err := decimal.NewFromString(value)
		if err != nil {
			return nil, fmtErr("rates", fmt.Errorf("pair %q: %v", pair, err))
		}
		if !rate.IsPositive() {
			return nil, fmtErr("rates", fmt.Errorf("pair %q: rate must be positive", pair))
		}
		out[[2]string{src, dst}] = rate
	}
	return out, nil
}
