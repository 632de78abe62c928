package packetswitch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-ilp-connector/internal/core/metrics"
	"github.com/dep2p/go-ilp-connector/internal/core/routing"
	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	"github.com/dep2p/go-ilp-connector/pkg/protocol"
	"github.com/dep2p/go-ilp-connector/pkg/protocol/ccp"
	"github.com/dep2p/go-ilp-connector/pkg/types"
	"github.com/dep2p/go-ilp-connector/tests/mocks"
)

// ============================================================================
//                              ExpiryFilter
// ============================================================================

func TestExpiryFilter_AlreadyExpired(t *testing.T) {
	f := NewExpiryFilter(self, nil)
	p := prepareTo("test.bob", 10)
	p.ExpiresAt = time.Now().Add(-500 * time.Second)

	calls := 0
	resp, err := f.DoFilter(context.Background(), account("paul"), p, fulfilling(&calls))
	require.NoError(t, err)
	rj := requireReject(t, resp)
	assert.Equal(t, ilp.R02InsufficientTimeout, rj.Code)
	assert.Equal(t, ilp.Address("test.alice"), rj.TriggeredBy)
	assert.Zero(t, calls)
}

func TestExpiryFilter_PassesResult(t *testing.T) {
	f := NewExpiryFilter(self, nil)
	resp, err := f.DoFilter(context.Background(), account("paul"), prepareTo("test.bob", 10), fulfilling(nil))
	require.NoError(t, err)
	_, ok := ilp.AsFulfill(resp)
	assert.True(t, ok)
}

func TestExpiryFilter_Timeout(t *testing.T) {
	f := NewExpiryFilter(self, nil)
	p := prepareTo("test.bob", 10)
	p.ExpiresAt = time.Now().Add(50 * time.Millisecond)

	guards := make(chan *resolutionGuard, 1)
	slow := chainFunc(func(ctx context.Context, _ *types.AccountSettings, _ *ilp.Prepare) (ilp.Response, error) {
		guards <- guardFrom(ctx)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	resp, err := f.DoFilter(context.Background(), account("paul"), p, slow)
	require.NoError(t, err)
	assert.Equal(t, ilp.R00TransferTimedOut, requireReject(t, resp).Code)
	assert.False(t, (<-guards).Commit(), "超时后不能再记账")
}

func TestExpiryFilter_CommittedBeforeTimeout(t *testing.T) {
	f := NewExpiryFilter(self, nil)
	p := prepareTo("test.bob", 10)
	p.ExpiresAt = time.Now().Add(50 * time.Millisecond)

	committed := chainFunc(func(ctx context.Context, _ *types.AccountSettings, _ *ilp.Prepare) (ilp.Response, error) {
		assert.True(t, guardFrom(ctx).Commit())
		<-ctx.Done()
		return &ilp.Fulfill{Fulfillment: fulfillment}, nil
	})

	resp, err := f.DoFilter(context.Background(), account("paul"), p, committed)
	require.NoError(t, err)
	_, ok := ilp.AsFulfill(resp)
	assert.True(t, ok, "已记账的履约必须返回")
}

func TestExpiryFilter_RecoversPanic(t *testing.T) {
	f := NewExpiryFilter(self, nil)
	boom := chainFunc(func(context.Context, *types.AccountSettings, *ilp.Prepare) (ilp.Response, error) {
		panic("boom")
	})
	_, err := f.DoFilter(context.Background(), account("paul"), prepareTo("test.bob", 1), boom)
	assert.ErrorIs(t, err, ErrPanic)
}

// ============================================================================
//                              AllowedDestinationFilter
// ============================================================================

func TestAllowedDestinationFilter(t *testing.T) {
	table := routing.NewTable()
	table.AddRoute(&types.Route{Prefix: ilp.MustParsePrefix("test.alice.paul"), NextHopAccountID: "paul"})
	table.AddRoute(&types.Route{Prefix: ilp.MustParsePrefix("test.bob"), NextHopAccountID: "bob"})
	f := NewAllowedDestinationFilter(self, table, []string{"self", "example"})

	tests := []struct {
		name    string
		dest    string
		allowed bool
	}{
		{"self scheme", "self.foo", false},
		{"example scheme", "example.bob", false},
		{"loop back to source", "test.alice.paul.x", false},
		{"normal", "test.bob.x", true},
		{"own address", "test.alice", true},
		{"no route", "test.carl", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			resp, err := f.DoFilter(context.Background(), account("paul"), prepareTo(tt.dest, 1), fulfilling(&calls))
			require.NoError(t, err)
			if tt.allowed {
				assert.Equal(t, 1, calls)
				return
			}
			rj := requireReject(t, resp)
			assert.Equal(t, ilp.F02Unreachable, rj.Code)
			assert.Equal(t, "Destination address is unreachable", rj.Message)
			assert.Zero(t, calls)
		})
	}
}

// ============================================================================
//                              RateLimitFilter
// ============================================================================

func TestRateLimitFilter(t *testing.T) {
	f := NewRateLimitFilter(self, 10, time.Minute)
	limited := account("paul")
	limited.RateLimit = &types.RateLimitSettings{MaxPacketsPerSecond: 2}

	calls := 0
	for i := 0; i < 2; i++ {
		_, err := f.DoFilter(context.Background(), limited, prepareTo("test.bob", 1), fulfilling(&calls))
		require.NoError(t, err)
	}
	resp, err := f.DoFilter(context.Background(), limited, prepareTo("test.bob", 1), fulfilling(&calls))
	require.NoError(t, err)
	rj := requireReject(t, resp)
	assert.Equal(t, ilp.F00BadRequest, rj.Code)
	assert.Equal(t, "Rate Limit exceeded", rj.Message)
	assert.Equal(t, 2, calls)

	// 未配置限速的账户不受影响
	for i := 0; i < 10; i++ {
		_, err := f.DoFilter(context.Background(), account("bob"), prepareTo("test.carl", 1), fulfilling(&calls))
		require.NoError(t, err)
	}
	assert.Equal(t, 12, calls)
}

func TestRateLimitFilter_SettingsChange(t *testing.T) {
	f := NewRateLimitFilter(self, 10, time.Minute)
	acct := account("paul")
	acct.RateLimit = &types.RateLimitSettings{MaxPacketsPerSecond: 1}

	first := f.limiter(acct)
	assert.Same(t, first, f.limiter(acct))

	updated := account("paul")
	updated.RateLimit = &types.RateLimitSettings{MaxPacketsPerSecond: 5}
	assert.NotSame(t, first, f.limiter(updated))
}

// ============================================================================
//                              MaxPacketAmountFilter
// ============================================================================

func TestMaxPacketAmountFilter(t *testing.T) {
	f := NewMaxPacketAmountFilter(self)
	acct := account("paul")
	maxAmount := uint64(1000)
	acct.MaximumPacketAmount = &maxAmount

	calls := 0
	_, err := f.DoFilter(context.Background(), acct, prepareTo("test.bob", 1000), fulfilling(&calls))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	resp, err := f.DoFilter(context.Background(), acct, prepareTo("test.bob", 1001), fulfilling(&calls))
	require.NoError(t, err)
	rj := requireReject(t, resp)
	assert.Equal(t, ilp.F08AmountTooLarge, rj.Code)
	assert.Equal(t, "Packet size too large: maxAmount=1000 actualAmount=1001", rj.Message)
	assert.Equal(t, 1, calls)

	_, err = f.DoFilter(context.Background(), account("bob"), prepareTo("test.carl", ^uint64(0)), fulfilling(&calls))
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "未配置上限时放行")
}

// ============================================================================
//                              PeerProtocolFilter
// ============================================================================

type fakeIldcp struct{ calls int }

func (f *fakeIldcp) Handle(context.Context, types.AccountID, *ilp.Prepare) (ilp.Response, error) {
	f.calls++
	return &ilp.Fulfill{Fulfillment: ilp.PeerProtocolFulfillment}, nil
}

type fakeRoutes struct {
	controlErr error
	updateErr  error
	controls   []*ccp.RouteControlRequest
	updates    []*ccp.RouteUpdateRequest
}

func (f *fakeRoutes) HandleRouteControl(_ context.Context, _ *types.AccountSettings, req *ccp.RouteControlRequest) error {
	f.controls = append(f.controls, req)
	return f.controlErr
}

func (f *fakeRoutes) HandleRouteUpdate(_ context.Context, _ *types.AccountSettings, req *ccp.RouteUpdateRequest) error {
	f.updates = append(f.updates, req)
	return f.updateErr
}

func controlPrepare() *ilp.Prepare {
	return ccp.NewControlPrepare(&ccp.RouteControlRequest{Mode: ccp.ModeSync, LastKnownRoutingTableID: uuid.New()}, time.Now())
}

func TestPeerProtocolFilter_NotPeerScheme(t *testing.T) {
	f := NewPeerProtocolFilter(self, &fakeIldcp{}, &fakeRoutes{})
	calls := 0
	_, err := f.DoFilter(context.Background(), account("bob"), prepareTo("test.bob", 1), fulfilling(&calls))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestPeerProtocolFilter_Ildcp(t *testing.T) {
	ildcp := &fakeIldcp{}
	f := NewPeerProtocolFilter(self, ildcp, nil)

	calls := 0
	p := prepareTo("peer.config", 0)
	resp, err := f.DoFilter(context.Background(), account("bob"), p, fulfilling(&calls))
	require.NoError(t, err)
	_, ok := ilp.AsFulfill(resp)
	assert.True(t, ok)
	assert.Equal(t, 1, ildcp.calls)
	assert.Zero(t, calls, "对等协议不进入后续过滤器")

	resp, err = NewPeerProtocolFilter(self, nil, nil).DoFilter(context.Background(), account("bob"), p, fulfilling(&calls))
	require.NoError(t, err)
	assert.Equal(t, "IL-DCP is not supported by this Connector.", requireReject(t, resp).Message)
}

func TestPeerProtocolFilter_RouteControl(t *testing.T) {
	routes := &fakeRoutes{}
	f := NewPeerProtocolFilter(self, nil, routes)

	resp, err := f.DoFilter(context.Background(), account("bob"), controlPrepare(), fulfilling(nil))
	require.NoError(t, err)
	fulfill, ok := ilp.AsFulfill(resp)
	require.True(t, ok)
	assert.Equal(t, ilp.PeerProtocolFulfillment, fulfill.Fulfillment)
	require.Len(t, routes.controls, 1)
	assert.Equal(t, ccp.ModeSync, routes.controls[0].Mode)
}

func TestPeerProtocolFilter_WrongCondition(t *testing.T) {
	routes := &fakeRoutes{}
	f := NewPeerProtocolFilter(self, nil, routes)

	p := controlPrepare()
	p.ExecutionCondition = ilp.PingCondition
	resp, err := f.DoFilter(context.Background(), account("bob"), p, fulfilling(nil))
	require.NoError(t, err)
	assert.Equal(t, ilp.F01InvalidPacket, requireReject(t, resp).Code)
	assert.Empty(t, routes.controls)
}

func TestPeerProtocolFilter_MalformedData(t *testing.T) {
	f := NewPeerProtocolFilter(self, nil, &fakeRoutes{})

	p := controlPrepare()
	p.Data = []byte{0xff}
	resp, err := f.DoFilter(context.Background(), account("bob"), p, fulfilling(nil))
	require.NoError(t, err)
	assert.Equal(t, ilp.F01InvalidPacket, requireReject(t, resp).Code)
}

func TestPeerProtocolFilter_DisabledDirections(t *testing.T) {
	routes := &fakeRoutes{controlErr: routing.ErrCcpSendingDisabled, updateErr: routing.ErrCcpReceivingDisabled}
	f := NewPeerProtocolFilter(self, nil, routes)

	resp, err := f.DoFilter(context.Background(), account("bob"), controlPrepare(), fulfilling(nil))
	require.NoError(t, err)
	rj := requireReject(t, resp)
	assert.Equal(t, ilp.F00BadRequest, rj.Code)
	assert.Equal(t, "CCP sending is not enabled for this account", rj.Message)

	update := ccp.NewUpdatePrepare(&ccp.RouteUpdateRequest{RoutingTableID: uuid.New(), Speaker: "test.bob"}, time.Now())
	resp, err = f.DoFilter(context.Background(), account("bob"), update, fulfilling(nil))
	require.NoError(t, err)
	rj = requireReject(t, resp)
	assert.Equal(t, ilp.F00BadRequest, rj.Code)
	assert.Equal(t, "CCP receiving is not enabled for this account", rj.Message)
}

func TestPeerProtocolFilter_InternalError(t *testing.T) {
	f := NewPeerProtocolFilter(self, nil, &fakeRoutes{controlErr: errors.New("boom")})
	_, err := f.DoFilter(context.Background(), account("bob"), controlPrepare(), fulfilling(nil))
	assert.Error(t, err)
}

func TestPeerProtocolFilter_UnknownPeerAddress(t *testing.T) {
	f := NewPeerProtocolFilter(self, nil, nil)
	resp, err := f.DoFilter(context.Background(), account("bob"), prepareTo("peer.unknown", 0), fulfilling(nil))
	require.NoError(t, err)
	assert.Equal(t, ilp.F02Unreachable, requireReject(t, resp).Code)
	assert.True(t, protocol.IsPeerProtocol("peer.unknown"))
}

// ============================================================================
//                              PingProtocolFilter
// ============================================================================

func TestPingProtocolFilter(t *testing.T) {
	f := NewPingProtocolFilter(self)

	ping := prepareTo("test.alice", 10)
	ping.ExecutionCondition = ilp.PingCondition
	calls := 0
	_, err := f.DoFilter(context.Background(), account("bob"), ping, fulfilling(&calls))
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "正确的 ping 继续转发到 ping 伪账户")

	bad := prepareTo("test.alice", 10)
	resp, err := f.DoFilter(context.Background(), account("bob"), bad, fulfilling(&calls))
	require.NoError(t, err)
	rj := requireReject(t, resp)
	assert.Equal(t, ilp.F00BadRequest, rj.Code)
	assert.Equal(t, "Invalid Ping Protocol Condition", rj.Message)
	assert.Equal(t, 1, calls)

	elsewhere := prepareTo("test.bob", 10)
	elsewhere.ExecutionCondition = ilp.PingCondition
	_, err = f.DoFilter(context.Background(), account("paul"), elsewhere, fulfilling(&calls))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

// ============================================================================
//                              BalanceFilter
// ============================================================================

func TestBalanceFilter_Fulfill(t *testing.T) {
	tracker := &mocks.MockBalanceTracker{}
	f := NewBalanceFilter(tracker)

	_, err := f.DoFilter(context.Background(), account("paul"), prepareTo("test.bob", 10), fulfilling(nil))
	require.NoError(t, err)
	incoming, _ := tracker.Calls()
	assert.Equal(t, []mocks.BalanceCall{{AccountID: "paul", Amount: 10}}, incoming)
}

func TestBalanceFilter_RejectDoesNotMutate(t *testing.T) {
	tracker := &mocks.MockBalanceTracker{}
	f := NewBalanceFilter(tracker)

	reject := chainFunc(func(context.Context, *types.AccountSettings, *ilp.Prepare) (ilp.Response, error) {
		return ilp.NewReject(ilp.T02PeerBusy, "test.bob", "busy"), nil
	})
	resp, err := f.DoFilter(context.Background(), account("paul"), prepareTo("test.bob", 10), reject)
	require.NoError(t, err)
	assert.Equal(t, ilp.T02PeerBusy, requireReject(t, resp).Code)
	incoming, _ := tracker.Calls()
	assert.Empty(t, incoming)
}

func TestBalanceFilter_AbandonedRequest(t *testing.T) {
	tracker := &mocks.MockBalanceTracker{}
	f := NewBalanceFilter(tracker)

	guard := &resolutionGuard{}
	require.True(t, guard.Abandon())
	ctx := withGuard(context.Background(), guard)

	_, err := f.DoFilter(ctx, account("paul"), prepareTo("test.bob", 10), fulfilling(nil))
	require.NoError(t, err)
	incoming, _ := tracker.Calls()
	assert.Empty(t, incoming)
}

func TestBalanceFilter_TrackerErrorKeepsFulfill(t *testing.T) {
	tracker := &mocks.MockBalanceTracker{
		IncomingFulfillFunc: func(context.Context, *types.AccountSettings, uint64) (types.AccountBalance, error) {
			return types.AccountBalance{}, errors.New("store down")
		},
	}
	resp, err := NewBalanceFilter(tracker).DoFilter(context.Background(), account("paul"), prepareTo("test.bob", 10), fulfilling(nil))
	require.NoError(t, err)
	_, ok := ilp.AsFulfill(resp)
	assert.True(t, ok)
}

// ============================================================================
//                              ValidateFulfillmentFilter
// ============================================================================

func TestValidateFulfillmentFilter(t *testing.T) {
	f := NewValidateFulfillmentFilter(self)

	resp, err := f.DoFilter(context.Background(), account("paul"), prepareTo("test.bob", 1), fulfilling(nil))
	require.NoError(t, err)
	_, ok := ilp.AsFulfill(resp)
	assert.True(t, ok)

	forged := chainFunc(func(context.Context, *types.AccountSettings, *ilp.Prepare) (ilp.Response, error) {
		return &ilp.Fulfill{Fulfillment: ilp.Fulfillment{1}}, nil
	})
	resp, err = f.DoFilter(context.Background(), account("paul"), prepareTo("test.bob", 1), forged)
	require.NoError(t, err)
	rj := requireReject(t, resp)
	assert.Equal(t, ilp.F05WrongCondition, rj.Code)
	assert.Equal(t, "Received incorrect fulfillment", rj.Message)
	assert.Equal(t, ilp.Address("test.alice"), rj.TriggeredBy)
}

// ============================================================================
//                              PacketMetricsFilter
// ============================================================================

func TestPacketMetricsFilter_PropagatesError(t *testing.T) {
	m := metrics.NewPacketMetrics("ps")
	f := NewPacketMetricsFilter(m)

	failing := chainFunc(func(context.Context, *types.AccountSettings, *ilp.Prepare) (ilp.Response, error) {
		return nil, errors.New("boom")
	})
	_, err := f.DoFilter(context.Background(), account("paul"), prepareTo("test.bob", 1), failing)
	assert.Error(t, err)

	_, err = NewPacketMetricsFilter(nil).DoFilter(context.Background(), account("paul"), prepareTo("test.bob", 1), fulfilling(nil))
	assert.NoError(t, err)
}
