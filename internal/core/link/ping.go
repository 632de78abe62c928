package link

import (
	"context"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// PingLoopbackLink ping 伪账户的回环链路
//
// 条件为 ping 条件时以 ping 原像履约并回显 data，否则 F00 拒绝。
// 数据包经过出站链路过滤链后到达这里，ping 伪账户因此得到记账。
type PingLoopbackLink struct {
	baseLink
	operator pkgif.OperatorAddressSupplier
}

// NewPingLoopbackLink 创建 ping 回环链路（已连接）
func NewPingLoopbackLink(operator pkgif.OperatorAddressSupplier) *PingLoopbackLink {
	l := &PingLoopbackLink{operator: operator}
	l.accountID = types.PingAccountID
	l.connected = true
	return l
}

// SendPacket 应答 ping
func (l *PingLoopbackLink) SendPacket(_ context.Context, prepare *ilp.Prepare) (ilp.Response, error) {
	if prepare.ExecutionCondition != ilp.PingCondition {
		return ilp.NewReject(ilp.F00BadRequest, l.operator.Address(), "Invalid Ping Protocol Condition"), nil
	}
	return &ilp.Fulfill{Fulfillment: ilp.PingFulfillment, Data: prepare.Data}, nil
}

// RegisterPacketHandler ping 链路没有入站方向，忽略
func (l *PingLoopbackLink) RegisterPacketHandler(pkgif.PacketHandler) error {
	return nil
}

// pingFactory 为 PING_LOOPBACK 类型账户返回共享的 ping 链路
type pingFactory struct {
	link *PingLoopbackLink
}

func (f pingFactory) LinkType() types.LinkType { return types.LinkTypePingLoopback }

func (f pingFactory) NewLink(*types.AccountSettings) (pkgif.Link, error) {
	return f.link, nil
}

var _ pkgif.Link = (*PingLoopbackLink)(nil)
