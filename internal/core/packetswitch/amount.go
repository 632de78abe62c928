package packetswitch

import (
	"context"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// MaxPacketAmountFilter 来源账户单包金额上限
type MaxPacketAmountFilter struct {
	operator pkgif.OperatorAddressSupplier
}

// NewMaxPacketAmountFilter 创建过滤器
func NewMaxPacketAmountFilter(operator pkgif.OperatorAddressSupplier) *MaxPacketAmountFilter {
	return &MaxPacketAmountFilter{operator: operator}
}

// DoFilter 实现 PacketSwitchFilter
func (f *MaxPacketAmountFilter) DoFilter(ctx context.Context, source *types.AccountSettings, prepare *ilp.Prepare, chain pkgif.PacketSwitchFilterChain) (ilp.Response, error) {
	if maxAmount, ok := source.MaxPacketAmount(); ok && prepare.Amount > maxAmount {
		logger.Debug("超出单包金额上限", "account", source.AccountID, "amount", prepare.Amount, "max", maxAmount)
		return ilp.NewAmountTooLargeReject(f.operator.Address(), prepare.Amount, maxAmount), nil
	}
	return chain.DoFilter(ctx, source, prepare)
}
