package link

import (
	"context"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// SimulatedRejectSetting 账户自定义设置：回环链路以该错误码拒绝所有数据包
const SimulatedRejectSetting = "simulatedRejectErrorCode"

// LoopbackFulfillment 回环链路的履约原像：32 个零字节
var LoopbackFulfillment = ilp.Fulfillment{}

// LoopbackLink 本地回环链路，用于测试与演示
//
// 默认以零原像履约；账户设置了 simulatedRejectErrorCode 时按该错误码拒绝。
type LoopbackLink struct {
	baseLink
	operator     pkgif.OperatorAddressSupplier
	simulateCode ilp.ErrorCode
}

// NewLoopbackLink 创建回环链路
func NewLoopbackLink(settings *types.AccountSettings, operator pkgif.OperatorAddressSupplier) *LoopbackLink {
	l := &LoopbackLink{operator: operator}
	l.accountID = settings.AccountID
	if v, ok := settings.CustomSettings[SimulatedRejectSetting].(string); ok {
		if code := ilp.ErrorCode(v); code.Valid() {
			l.simulateCode = code
		}
	}
	return l
}

// SendPacket 履约或按设置拒绝
func (l *LoopbackLink) SendPacket(_ context.Context, prepare *ilp.Prepare) (ilp.Response, error) {
	if l.simulateCode != "" {
		return ilp.NewReject(l.simulateCode, l.operator.Address(), "Loopback set to reject"), nil
	}
	return &ilp.Fulfill{Fulfillment: LoopbackFulfillment, Data: prepare.Data}, nil
}

type loopbackFactory struct {
	operator pkgif.OperatorAddressSupplier
}

func (f loopbackFactory) LinkType() types.LinkType { return types.LinkTypeLoopback }

func (f loopbackFactory) NewLink(settings *types.AccountSettings) (pkgif.Link, error) {
	return NewLoopbackLink(settings, f.operator), nil
}

var _ pkgif.Link = (*LoopbackLink)(nil)
