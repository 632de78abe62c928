package packetswitch

import (
	"context"
	"errors"
	"fmt"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// LinkSender 经链路过滤链发送
type LinkSender interface {
	Send(ctx context.Context, link pkgif.Link, destination *types.AccountSettings, prepare *ilp.Prepare) (ilp.Response, error)
}

// Deps PacketSwitch 依赖
type Deps struct {
	Operator pkgif.OperatorAddressSupplier
	Accounts pkgif.AccountSettingsCache
	Mapper   pkgif.NextHopPacketMapper
	Links    pkgif.LinkManager
	Sender   LinkSender
}

// PacketSwitch 数据包交换入口
type PacketSwitch struct {
	filters []pkgif.PacketSwitchFilter
	deps    Deps
}

// New 创建数据包交换，filters 按给定顺序执行
func New(deps Deps, filters ...pkgif.PacketSwitchFilter) *PacketSwitch {
	return &PacketSwitch{filters: filters, deps: deps}
}

// SwitchPacket 处理来源账户上的 Prepare，总是返回 Fulfill 或 Reject
func (s *PacketSwitch) SwitchPacket(ctx context.Context, source types.AccountID, prepare *ilp.Prepare) (resp ilp.Response) {
	self := s.deps.Operator.Address()
	defer func() {
		if r := recover(); r != nil {
			resp = s.internalError(source, prepare, fmt.Errorf("%w: %v", ErrPanic, r))
		}
	}()

	if err := prepare.Validate(); err != nil {
		logger.Debug("Prepare 格式错误", "account", source, "error", err)
		return ilp.NewReject(ilp.F01InvalidPacket, self, "Invalid packet")
	}

	settings, err := s.deps.Accounts.Get(ctx, source)
	if errors.Is(err, types.ErrAccountNotFound) {
		return ilp.NewReject(ilp.F00BadRequest, self, fmt.Sprintf("Invalid Source Account: `%s`", source))
	}
	if err != nil {
		return s.internalError(source, prepare, err)
	}

	chain := newFilterChain(s.filters, s.forward)
	resp, err = chain.DoFilter(ctx, settings, prepare)
	if err != nil {
		if rj, ok := ilp.AsReject(err); ok {
			return rj
		}
		return s.internalError(source, prepare, err)
	}
	if resp == nil {
		return s.internalError(source, prepare, errors.New("filter chain returned no response"))
	}
	return resp
}

// HandleInbound 链路入站处理器
func (s *PacketSwitch) HandleInbound(ctx context.Context, source types.AccountID, prepare *ilp.Prepare) (ilp.Response, error) {
	return s.SwitchPacket(ctx, source, prepare), nil
}

// forward 解析下一跳并发往出站链路
func (s *PacketSwitch) forward(ctx context.Context, source *types.AccountSettings, prepare *ilp.Prepare) (ilp.Response, error) {
	info, err := s.deps.Mapper.GetNextHopPacket(ctx, source, prepare)
	if err != nil {
		return nil, err
	}
	dest, err := s.deps.Accounts.Get(ctx, info.NextHopAccountID)
	if err != nil {
		return nil, fmt.Errorf("load next hop %s: %w", info.NextHopAccountID, err)
	}

	var link pkgif.Link
	if dest.AccountID == types.PingAccountID {
		link = s.deps.Links.PingLink()
	} else if link, err = s.deps.Links.GetOrCreateLink(ctx, dest); err != nil {
		logger.Warn("无法获取出站链路", "account", dest.AccountID, "error", err)
		return ilp.NewReject(ilp.T01PeerUnreachable, s.deps.Operator.Address(), "Unable to reach next hop"), nil
	}

	return s.deps.Sender.Send(ctx, link, dest, info.NextHopPacket)
}

func (s *PacketSwitch) internalError(source types.AccountID, prepare *ilp.Prepare, err error) *ilp.Reject {
	var dest ilp.Address
	if prepare != nil {
		dest = prepare.Destination
	}
	logger.Error("数据包处理失败", "account", source, "destination", dest, "error", err)
	return ilp.NewReject(ilp.T00InternalError, s.deps.Operator.Address(), "Internal Error")
}

var _ pkgif.PacketSwitch = (*PacketSwitch)(nil)
