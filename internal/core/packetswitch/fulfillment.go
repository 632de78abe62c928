package packetswitch

import (
	"context"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// ValidateFulfillmentFilter 校验下游返回的原像
//
// 原像与条件不匹配的 Fulfill 被替换为 F05。
type ValidateFulfillmentFilter struct {
	operator pkgif.OperatorAddressSupplier
}

// NewValidateFulfillmentFilter 创建过滤器
func NewValidateFulfillmentFilter(operator pkgif.OperatorAddressSupplier) *ValidateFulfillmentFilter {
	return &ValidateFulfillmentFilter{operator: operator}
}

// DoFilter 实现 PacketSwitchFilter
func (f *ValidateFulfillmentFilter) DoFilter(ctx context.Context, source *types.AccountSettings, prepare *ilp.Prepare, chain pkgif.PacketSwitchFilterChain) (ilp.Response, error) {
	resp, err := chain.DoFilter(ctx, source, prepare)
	if err != nil {
		return nil, err
	}
	if fulfill, ok := ilp.AsFulfill(resp); ok && !fulfill.Fulfillment.Validate(prepare.ExecutionCondition) {
		logger.Warn("下游返回错误的原像", "account", source.AccountID, "destination", prepare.Destination)
		return ilp.NewReject(ilp.F05WrongCondition, f.operator.Address(), "Received incorrect fulfillment"), nil
	}
	return resp, nil
}
