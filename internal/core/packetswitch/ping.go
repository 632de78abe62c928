package packetswitch

import (
	"context"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// PingProtocolFilter 处理发给本节点的 ping
//
// 条件正确时继续转发：下一跳解析到 ping 伪账户，由 ping 回环链路履约，
// 这样 ping 收入计入 ping 伪账户。条件错误直接 F00。
// 发往其他节点的 ping 按普通数据包转发。
type PingProtocolFilter struct {
	operator pkgif.OperatorAddressSupplier
}

// NewPingProtocolFilter 创建过滤器
func NewPingProtocolFilter(operator pkgif.OperatorAddressSupplier) *PingProtocolFilter {
	return &PingProtocolFilter{operator: operator}
}

// DoFilter 实现 PacketSwitchFilter
func (f *PingProtocolFilter) DoFilter(ctx context.Context, source *types.AccountSettings, prepare *ilp.Prepare, chain pkgif.PacketSwitchFilterChain) (ilp.Response, error) {
	self := f.operator.Address()
	if prepare.Destination != self {
		return chain.DoFilter(ctx, source, prepare)
	}
	if !prepare.ExecutionCondition.Equal(ilp.PingCondition) {
		return ilp.NewReject(ilp.F00BadRequest, self, "Invalid Ping Protocol Condition"), nil
	}
	logger.Debug("收到 ping", "account", source.AccountID, "amount", prepare.Amount)
	return chain.DoFilter(ctx, source, prepare)
}
