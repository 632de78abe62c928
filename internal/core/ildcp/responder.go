package ildcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/protocol/ildcp"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// Responder 处理 peer.config 请求
type Responder struct {
	enabled  bool
	operator pkgif.OperatorAddressSupplier
	accounts pkgif.AccountSettingsCache
}

// NewResponder 创建应答端
func NewResponder(enabled bool, operator pkgif.OperatorAddressSupplier, accounts pkgif.AccountSettingsCache) *Responder {
	return &Responder{enabled: enabled, operator: operator, accounts: accounts}
}

// Enabled 是否启用
func (r *Responder) Enabled() bool {
	return r.enabled
}

// Handle 为来源账户生成 IL-DCP 应答
func (r *Responder) Handle(ctx context.Context, source types.AccountID, _ *ilp.Prepare) (ilp.Response, error) {
	self := r.operator.Address()
	if !r.enabled {
		return ilp.NewReject(ilp.F00BadRequest, self, "IL-DCP is not supported by this Connector."), nil
	}
	if self.IsZero() {
		return nil, ErrNoOperatorAddress
	}

	settings, err := r.accounts.Get(ctx, source)
	if errors.Is(err, types.ErrAccountNotFound) {
		return ilp.NewReject(ilp.F00BadRequest, self, fmt.Sprintf("Invalid Source Account: `%s`", source)), nil
	}
	if err != nil {
		return nil, err
	}

	client, err := self.With(string(source))
	if err != nil {
		return nil, fmt.Errorf("derive client address for %s: %w", source, err)
	}
	resp := &ildcp.Response{
		ClientAddress: client,
		AssetScale:    settings.AssetScale,
		AssetCode:     settings.AssetCode,
	}
	logger.Debug("IL-DCP 分配地址", "account", source, "address", client)
	return ildcp.NewFulfill(resp), nil
}
