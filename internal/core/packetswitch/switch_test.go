package packetswitch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-ilp-connector/config"
	"github.com/dep2p/go-ilp-connector/internal/core/linkfilter"
	"github.com/dep2p/go-ilp-connector/internal/core/routing"
	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
	"github.com/dep2p/go-ilp-connector/tests/mocks"
)

// mapperFunc 测试用下一跳解析
type mapperFunc func(ctx context.Context, source *types.AccountSettings, prepare *ilp.Prepare) (*types.NextHopInfo, error)

func (f mapperFunc) GetNextHopPacket(ctx context.Context, source *types.AccountSettings, prepare *ilp.Prepare) (*types.NextHopInfo, error) {
	return f(ctx, source, prepare)
}

// toBob 总是转发给 bob
var toBob = mapperFunc(func(_ context.Context, _ *types.AccountSettings, p *ilp.Prepare) (*types.NextHopInfo, error) {
	return &types.NextHopInfo{NextHopAccountID: "bob", NextHopPacket: p}, nil
})

type switchFixture struct {
	links    *mocks.MockLinkManager
	accounts *mocks.MockAccountRepository
}

func newSwitch(mapper pkgif.NextHopPacketMapper, filters ...pkgif.PacketSwitchFilter) (*PacketSwitch, *switchFixture) {
	sf := &switchFixture{
		links:    mocks.NewMockLinkManager(),
		accounts: mocks.NewMockAccountRepository(account("paul"), account("bob")),
	}
	ps := New(Deps{
		Operator: self,
		Accounts: sf.accounts,
		Mapper:   mapper,
		Links:    sf.links,
		Sender:   linkfilter.NewSender(),
	}, filters...)
	return ps, sf
}

func (f *switchFixture) bobLink() *mocks.MockLink {
	return f.links.MockLink(account("bob"))
}

func TestSwitch_Forward(t *testing.T) {
	ps, sf := newSwitch(toBob)
	sf.bobLink().SendPacketFunc = func(context.Context, *ilp.Prepare) (ilp.Response, error) {
		return &ilp.Fulfill{Fulfillment: fulfillment}, nil
	}

	resp := ps.SwitchPacket(context.Background(), "paul", prepareTo("test.bob", 5))
	_, ok := ilp.AsFulfill(resp)
	assert.True(t, ok)
	assert.Len(t, sf.bobLink().Sent(), 1)
}

func TestSwitch_FilterOrder(t *testing.T) {
	var trace []string
	filter := func(name string, reject bool) pkgif.PacketSwitchFilter {
		return pkgif.PacketSwitchFilterFunc(func(ctx context.Context, s *types.AccountSettings, p *ilp.Prepare, chain pkgif.PacketSwitchFilterChain) (ilp.Response, error) {
			trace = append(trace, "pre-"+name)
			if reject {
				return ilp.NewReject(ilp.F99ApplicationError, self.Address(), name), nil
			}
			resp, err := chain.DoFilter(ctx, s, p)
			trace = append(trace, "post-"+name)
			return resp, err
		})
	}

	mapperCalls := 0
	counting := mapperFunc(func(ctx context.Context, s *types.AccountSettings, p *ilp.Prepare) (*types.NextHopInfo, error) {
		mapperCalls++
		return toBob(ctx, s, p)
	})

	ps, _ := newSwitch(counting, filter("1", false), filter("2", true), filter("3", false))
	resp := ps.SwitchPacket(context.Background(), "paul", prepareTo("test.bob", 5))

	assert.Equal(t, "2", requireReject(t, resp).Message)
	assert.Equal(t, []string{"pre-1", "pre-2", "post-1"}, trace)
	assert.Zero(t, mapperCalls)
}

func TestSwitch_UnknownSource(t *testing.T) {
	ps, _ := newSwitch(toBob)
	rj := requireReject(t, ps.SwitchPacket(context.Background(), "mallory", prepareTo("test.bob", 5)))
	assert.Equal(t, ilp.F00BadRequest, rj.Code)
	assert.Equal(t, "Invalid Source Account: `mallory`", rj.Message)
}

func TestSwitch_InvalidPacket(t *testing.T) {
	ps, _ := newSwitch(toBob)
	p := prepareTo("test.bob", 5)
	p.ExpiresAt = time.Time{}
	assert.Equal(t, ilp.F01InvalidPacket, requireReject(t, ps.SwitchPacket(context.Background(), "paul", p)).Code)
}

func TestSwitch_RejectErrorFromMapper(t *testing.T) {
	unreachable := mapperFunc(func(context.Context, *types.AccountSettings, *ilp.Prepare) (*types.NextHopInfo, error) {
		return nil, ilp.NewRejectError(ilp.F02Unreachable, "test.alice", "Destination address is unreachable")
	})

	var seen ilp.Response
	observer := pkgif.PacketSwitchFilterFunc(func(ctx context.Context, s *types.AccountSettings, p *ilp.Prepare, chain pkgif.PacketSwitchFilterChain) (ilp.Response, error) {
		resp, err := chain.DoFilter(ctx, s, p)
		seen = resp
		return resp, err
	})

	ps, _ := newSwitch(unreachable, observer)
	rj := requireReject(t, ps.SwitchPacket(context.Background(), "paul", prepareTo("test.nowhere", 5)))
	assert.Equal(t, ilp.F02Unreachable, rj.Code)
	assert.Equal(t, rj, seen, "过滤器在返回路径上看到的是 Reject 而不是错误")
}

func TestSwitch_InternalErrorBecomesT00(t *testing.T) {
	broken := mapperFunc(func(context.Context, *types.AccountSettings, *ilp.Prepare) (*types.NextHopInfo, error) {
		return nil, errors.New("boom")
	})
	ps, _ := newSwitch(broken)
	rj := requireReject(t, ps.SwitchPacket(context.Background(), "paul", prepareTo("test.bob", 5)))
	assert.Equal(t, ilp.T00InternalError, rj.Code)
	assert.Equal(t, ilp.Address("test.alice"), rj.TriggeredBy)
}

func TestSwitch_PanicBecomesT00(t *testing.T) {
	panicky := pkgif.PacketSwitchFilterFunc(func(context.Context, *types.AccountSettings, *ilp.Prepare, pkgif.PacketSwitchFilterChain) (ilp.Response, error) {
		panic("boom")
	})
	ps, _ := newSwitch(toBob, panicky)
	assert.Equal(t, ilp.T00InternalError, requireReject(t, ps.SwitchPacket(context.Background(), "paul", prepareTo("test.bob", 5))).Code)
}

func TestSwitch_LinkUnavailable(t *testing.T) {
	ps, sf := newSwitch(toBob)
	sf.links.GetOrCreateLinkFunc = func(context.Context, *types.AccountSettings) (pkgif.Link, error) {
		return nil, errors.New("dial failed")
	}
	assert.Equal(t, ilp.T01PeerUnreachable, requireReject(t, ps.SwitchPacket(context.Background(), "paul", prepareTo("test.bob", 5))).Code)
}

func TestSwitch_PingAccountUsesPingLink(t *testing.T) {
	toPing := mapperFunc(func(_ context.Context, _ *types.AccountSettings, p *ilp.Prepare) (*types.NextHopInfo, error) {
		return &types.NextHopInfo{NextHopAccountID: types.PingAccountID, NextHopPacket: p}, nil
	})
	ps, sf := newSwitch(toPing)
	require.NoError(t, sf.accounts.Put(context.Background(), &types.AccountSettings{
		AccountID: types.PingAccountID, AssetCode: "USD", Relationship: types.RelationshipChild, LinkType: types.LinkTypePingLoopback,
	}))

	ps.SwitchPacket(context.Background(), "paul", prepareTo("test.alice", 5))
	ping := sf.links.PingLink().(*mocks.MockLink)
	assert.Len(t, ping.Sent(), 1)
	assert.Empty(t, sf.links.GetOrCreateCalls)
}

func TestSwitch_HandleInbound(t *testing.T) {
	ps, _ := newSwitch(toBob)
	resp, err := ps.HandleInbound(context.Background(), "mallory", prepareTo("test.bob", 5))
	require.NoError(t, err)
	assert.Equal(t, ilp.F00BadRequest, requireReject(t, resp).Code)
}

func TestModule_RegistersInboundHandler(t *testing.T) {
	links := mocks.NewMockLinkManager()
	accounts := mocks.NewMockAccountRepository(account("paul"))

	var ps pkgif.PacketSwitch
	app := fxtest.New(t,
		fx.Supply(config.NewConfig()),
		fx.Provide(
			func() pkgif.OperatorAddressSupplier { return self },
			func() pkgif.AccountSettingsCache { return accounts },
			func() pkgif.RoutingTable { return routing.NewTable() },
			func() pkgif.NextHopPacketMapper { return toBob },
			func() pkgif.LinkManager { return links },
			func() pkgif.BalanceTracker { return &mocks.MockBalanceTracker{} },
			func() *linkfilter.Sender { return linkfilter.NewSender() },
		),
		Module(),
		fx.Populate(&ps),
	)
	app.RequireStart()
	defer app.RequireStop()

	require.NotNil(t, links.Inbound())
	resp, err := links.Inbound()(context.Background(), "paul", prepareTo("self.foo", 1))
	require.NoError(t, err)
	assert.Equal(t, ilp.F02Unreachable, requireReject(t, resp).Code)
}
