package packetswitch

import (
	"context"
	"errors"

	"github.com/dep2p/go-ilp-connector/internal/core/routing"
	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/protocol"
	"github.com/dep2p/go-ilp-connector/pkg/protocol/ccp"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// IldcpHandler peer.config 处理器
type IldcpHandler interface {
	Handle(ctx context.Context, source types.AccountID, prepare *ilp.Prepare) (ilp.Response, error)
}

// RouteHandler peer.route.* 处理器
type RouteHandler interface {
	HandleRouteControl(ctx context.Context, source *types.AccountSettings, req *ccp.RouteControlRequest) error
	HandleRouteUpdate(ctx context.Context, source *types.AccountSettings, req *ccp.RouteUpdateRequest) error
}

// PeerProtocolFilter 拦截 peer. 分配方案下的数据包
//
// 对等协议数据包在这里终结，不会进入路由。
type PeerProtocolFilter struct {
	operator pkgif.OperatorAddressSupplier
	ildcp    IldcpHandler
	routes   RouteHandler
}

// NewPeerProtocolFilter 创建过滤器，ildcp 或 routes 为 nil 时对应协议不可用
func NewPeerProtocolFilter(operator pkgif.OperatorAddressSupplier, ildcp IldcpHandler, routes RouteHandler) *PeerProtocolFilter {
	return &PeerProtocolFilter{operator: operator, ildcp: ildcp, routes: routes}
}

// DoFilter 实现 PacketSwitchFilter
func (f *PeerProtocolFilter) DoFilter(ctx context.Context, source *types.AccountSettings, prepare *ilp.Prepare, chain pkgif.PacketSwitchFilterChain) (ilp.Response, error) {
	dest := prepare.Destination
	if !protocol.IsPeerProtocol(dest) {
		return chain.DoFilter(ctx, source, prepare)
	}
	self := f.operator.Address()

	switch dest {
	case protocol.IldcpAddress:
		if f.ildcp == nil {
			return ilp.NewReject(ilp.F00BadRequest, self, "IL-DCP is not supported by this Connector."), nil
		}
		return f.ildcp.Handle(ctx, source.AccountID, prepare)
	case protocol.RouteControlAddress, protocol.RouteUpdateAddress:
		return f.handleCcp(ctx, self, source, prepare)
	default:
		logger.Debug("未知的对等协议地址", "account", source.AccountID, "destination", dest)
		return ilp.NewReject(ilp.F02Unreachable, self, "Destination address is unreachable"), nil
	}
}

func (f *PeerProtocolFilter) handleCcp(ctx context.Context, self ilp.Address, source *types.AccountSettings, prepare *ilp.Prepare) (ilp.Response, error) {
	if !prepare.ExecutionCondition.Equal(ilp.PeerProtocolCondition) {
		return ilp.NewReject(ilp.F01InvalidPacket, self, "Packet does not contain correct condition for a peer protocol request."), nil
	}
	if f.routes == nil {
		return ilp.NewReject(ilp.F00BadRequest, self, "CCP is not supported by this Connector."), nil
	}

	var err error
	if prepare.Destination == protocol.RouteControlAddress {
		var req *ccp.RouteControlRequest
		if req, err = ccp.DecodeRouteControlRequest(prepare.Data); err != nil {
			return ilp.NewReject(ilp.F01InvalidPacket, self, "Invalid route control request"), nil
		}
		err = f.routes.HandleRouteControl(ctx, source, req)
	} else {
		var req *ccp.RouteUpdateRequest
		if req, err = ccp.DecodeRouteUpdateRequest(prepare.Data); err != nil {
			return ilp.NewReject(ilp.F01InvalidPacket, self, "Invalid route update request"), nil
		}
		err = f.routes.HandleRouteUpdate(ctx, source, req)
	}

	switch {
	case err == nil:
		return ccp.Ack(), nil
	case errors.Is(err, routing.ErrCcpSendingDisabled):
		return ilp.NewReject(ilp.F00BadRequest, self, "CCP sending is not enabled for this account"), nil
	case errors.Is(err, routing.ErrCcpReceivingDisabled):
		return ilp.NewReject(ilp.F00BadRequest, self, "CCP receiving is not enabled for this account"), nil
	default:
		return nil, err
	}
}
