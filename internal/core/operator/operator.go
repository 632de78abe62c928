// Package operator 持有本节点的 ILP 地址
//
// 地址来自配置，或在启动时由 IL-DCP 从父节点获取后写入。
package operator

import (
	"errors"
	"sync/atomic"

	"go.uber.org/fx"

	"github.com/dep2p/go-ilp-connector/config"
	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
)

// ErrAlreadySet 地址已设置
var ErrAlreadySet = errors.New("operator: address already set")

// Holder 节点地址
type Holder struct {
	addr atomic.Pointer[ilp.Address]
}

// NewHolder 创建持有者，addr 为空表示待 IL-DCP 设置
func NewHolder(addr ilp.Address) *Holder {
	h := &Holder{}
	if !addr.IsZero() {
		h.addr.Store(&addr)
	}
	return h
}

// Address 当前地址，未设置时为零值
func (h *Holder) Address() ilp.Address {
	if p := h.addr.Load(); p != nil {
		return *p
	}
	return ""
}

// IsSet 地址是否已设置
func (h *Holder) IsSet() bool {
	return h.addr.Load() != nil
}

// Set 设置地址，只能设置一次
func (h *Holder) Set(addr ilp.Address) error {
	if !h.addr.CompareAndSwap(nil, &addr) {
		return ErrAlreadySet
	}
	return nil
}

var _ pkgif.OperatorAddressSupplier = (*Holder)(nil)

// Result 模块输出
type Result struct {
	fx.Out

	Holder   *Holder
	Supplier pkgif.OperatorAddressSupplier
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("operator",
		fx.Provide(ProvideHolder),
	)
}

// ProvideHolder 从配置创建地址持有者
func ProvideHolder(cfg *config.Config) Result {
	h := NewHolder(cfg.Connector.Address())
	return Result{Holder: h, Supplier: h}
}
