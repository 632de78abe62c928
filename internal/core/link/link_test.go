package link

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-ilp-connector/internal/core/eventbus"
	"github.com/dep2p/go-ilp-connector/internal/core/operator"
	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

var testOperator = operator.NewHolder(ilp.MustParseAddress("test.alice"))

func prepare(cond ilp.Condition) *ilp.Prepare {
	return &ilp.Prepare{
		Destination:        ilp.MustParseAddress("test.alice"),
		Amount:             10,
		ExecutionCondition: cond,
		ExpiresAt:          time.Now().Add(time.Minute),
		Data:               []byte("hello"),
	}
}

func TestPingLoopbackLink(t *testing.T) {
	l := NewPingLoopbackLink(testOperator)
	assert.True(t, l.IsConnected())
	assert.Equal(t, types.PingAccountID, l.AccountID())

	resp, err := l.SendPacket(context.Background(), prepare(ilp.PingCondition))
	require.NoError(t, err)
	f, ok := ilp.AsFulfill(resp)
	require.True(t, ok)
	assert.Equal(t, ilp.PingFulfillment, f.Fulfillment)
	assert.Equal(t, []byte("hello"), f.Data)

	resp, err = l.SendPacket(context.Background(), prepare(ilp.Condition{1}))
	require.NoError(t, err)
	r, ok := ilp.AsRejectResponse(resp)
	require.True(t, ok)
	assert.Equal(t, ilp.F00BadRequest, r.Code)
	assert.Equal(t, "Invalid Ping Protocol Condition", r.Message)
	assert.Equal(t, ilp.Address("test.alice"), r.TriggeredBy)
}

func TestLoopbackLink_SimulatedReject(t *testing.T) {
	ok := NewLoopbackLink(&types.AccountSettings{AccountID: "lb"}, testOperator)
	resp, err := ok.SendPacket(context.Background(), prepare(ilp.Condition{}))
	require.NoError(t, err)
	_, fulfilled := ilp.AsFulfill(resp)
	assert.True(t, fulfilled)

	rej := NewLoopbackLink(&types.AccountSettings{
		AccountID:      "lb",
		CustomSettings: map[string]any{SimulatedRejectSetting: "T02"},
	}, testOperator)
	resp, err = rej.SendPacket(context.Background(), prepare(ilp.Condition{}))
	require.NoError(t, err)
	r, rejected := ilp.AsRejectResponse(resp)
	require.True(t, rejected)
	assert.Equal(t, ilp.T02PeerBusy, r.Code)
}

func TestPipe(t *testing.T) {
	a, b := NewPipe("bob", "alice")
	ctx := context.Background()

	resp, err := a.SendPacket(ctx, prepare(ilp.PingCondition))
	require.NoError(t, err)
	r, ok := ilp.AsRejectResponse(resp)
	require.True(t, ok)
	assert.Equal(t, ilp.T01PeerUnreachable, r.Code)

	require.NoError(t, a.Connect(ctx))
	require.NoError(t, b.Connect(ctx))
	require.NoError(t, b.RegisterPacketHandler(func(_ context.Context, p *ilp.Prepare) (ilp.Response, error) {
		return &ilp.Fulfill{Data: p.Data}, nil
	}))
	assert.ErrorIs(t, b.RegisterPacketHandler(nil), ErrHandlerRegistered)

	resp, err = a.SendPacket(ctx, prepare(ilp.PingCondition))
	require.NoError(t, err)
	f, ok := ilp.AsFulfill(resp)
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), f.Data)
}

func TestManager_GetOrCreateLink(t *testing.T) {
	bus := eventbus.NewBus()
	sub, err := bus.Subscribe(new(types.EvtLinkConnected))
	require.NoError(t, err)
	defer sub.Close()

	m, err := NewManager(testOperator, bus)
	require.NoError(t, err)
	defer m.Close()

	settings := &types.AccountSettings{AccountID: "lb", LinkType: types.LinkTypeLoopback}
	l1, err := m.GetOrCreateLink(context.Background(), settings)
	require.NoError(t, err)
	l2, err := m.GetOrCreateLink(context.Background(), settings)
	require.NoError(t, err)
	assert.Same(t, l1, l2)
	assert.True(t, l1.IsConnected())
	assert.Equal(t, []types.AccountID{"lb"}, m.ConnectedAccounts())

	select {
	case e := <-sub.Out():
		assert.Equal(t, types.AccountID("lb"), e.(types.EvtLinkConnected).AccountID)
	case <-time.After(time.Second):
		t.Fatal("no connected event")
	}

	ping, err := m.GetOrCreateLink(context.Background(), &types.AccountSettings{AccountID: types.PingAccountID})
	require.NoError(t, err)
	assert.Same(t, m.PingLink(), ping)

	_, err = m.GetOrCreateLink(context.Background(), &types.AccountSettings{AccountID: "x", LinkType: "HTTP"})
	assert.ErrorIs(t, err, ErrUnsupportedLinkType)
}

func TestManager_InboundDispatch(t *testing.T) {
	m, err := NewManager(testOperator, nil)
	require.NoError(t, err)

	local, remote := NewPipe("bob", "alice")
	require.NoError(t, m.RegisterLink(context.Background(), local))
	require.NoError(t, remote.Connect(context.Background()))

	// 未设置入站处理器
	_, err = remote.SendPacket(context.Background(), prepare(ilp.PingCondition))
	assert.ErrorIs(t, err, ErrNoInboundHandler)

	var gotSource types.AccountID
	m.SetInboundHandler(func(_ context.Context, source types.AccountID, p *ilp.Prepare) (ilp.Response, error) {
		gotSource = source
		return &ilp.Fulfill{}, nil
	})
	_, err = remote.SendPacket(context.Background(), prepare(ilp.PingCondition))
	require.NoError(t, err)
	assert.Equal(t, types.AccountID("bob"), gotSource)

	assert.Error(t, m.RegisterLink(context.Background(), local))
}

func TestManager_RemoveAndClose(t *testing.T) {
	bus := eventbus.NewBus()
	sub, err := bus.Subscribe(new(types.EvtLinkDisconnected))
	require.NoError(t, err)
	defer sub.Close()

	m, err := NewManager(testOperator, bus)
	require.NoError(t, err)

	_, err = m.GetOrCreateLink(context.Background(), &types.AccountSettings{AccountID: "lb", LinkType: types.LinkTypeLoopback})
	require.NoError(t, err)
	require.NoError(t, m.RemoveLink(context.Background(), "lb"))
	_, ok := m.Link("lb")
	assert.False(t, ok)

	select {
	case e := <-sub.Out():
		assert.Equal(t, types.AccountID("lb"), e.(types.EvtLinkDisconnected).AccountID)
	case <-time.After(time.Second):
		t.Fatal("no disconnected event")
	}

	require.NoError(t, m.Close())
	_, err = m.GetOrCreateLink(context.Background(), &types.AccountSettings{AccountID: "lb", LinkType: types.LinkTypeLoopback})
	assert.ErrorIs(t, err, ErrManagerClosed)
}

type failingFactory struct{}

func (failingFactory) LinkType() types.LinkType { return "FAIL" }

func (failingFactory) NewLink(*types.AccountSettings) (pkgif.Link, error) {
	return nil, errors.New("boom")
}

func TestManager_FactoryError(t *testing.T) {
	m, err := NewManager(testOperator, nil)
	require.NoError(t, err)
	m.RegisterFactory(failingFactory{})

	_, err = m.GetOrCreateLink(context.Background(), &types.AccountSettings{AccountID: "x", LinkType: "FAIL"})
	assert.Error(t, err)
	_, ok := m.Link("x")
	assert.False(t, ok)
}
