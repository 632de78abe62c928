package settlement

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-ilp-connector/internal/core/balance"
	"github.com/dep2p/go-ilp-connector/internal/core/eventbus"
	"github.com/dep2p/go-ilp-connector/internal/core/storage/engine"
	"github.com/dep2p/go-ilp-connector/internal/core/storage/engine/badger"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

func settledAccount() *types.AccountSettings {
	threshold := int64(100)
	return &types.AccountSettings{
		AccountID:    "bob",
		AssetCode:    "XRP",
		AssetScale:   9,
		Relationship: types.RelationshipPeer,
		LinkType:     types.LinkTypePipe,
		Settlement:   &types.SettlementEngineDetails{SettlementEngineAccountID: "se-bob", SettleThreshold: &threshold},
	}
}

func newService(t *testing.T, driver Driver, bus pkgif.EventBus) *Service {
	t.Helper()
	eng, err := badger.New(engine.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	svc, err := NewService(driver, eng, bus)
	require.NoError(t, err)
	return svc
}

// TestService_Idempotent 相同幂等键只调用一次驱动
func TestService_Idempotent(t *testing.T) {
	var calls atomic.Int32
	driver := DriverFunc(func(_ context.Context, req Request) (uint64, error) {
		calls.Add(1)
		assert.Equal(t, "se-bob", req.EngineAccountID)
		return req.Amount, nil
	})
	bus := eventbus.NewBus()
	sub, err := bus.Subscribe(new(types.EvtSettlementInitiated))
	require.NoError(t, err)

	svc := newService(t, driver, bus)
	ctx := context.Background()

	n, err := svc.InitiateLocalSettlement(ctx, "k1", settledAccount(), 50)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), n)

	n, err = svc.InitiateLocalSettlement(ctx, "k1", settledAccount(), 50)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), n)
	assert.Equal(t, int32(1), calls.Load())

	evt := (<-sub.Out()).(types.EvtSettlementInitiated)
	assert.Equal(t, "k1", evt.IdempotencyKey)
}

// TestService_Validation 零金额与未配置结算引擎
func TestService_Validation(t *testing.T) {
	svc := newService(t, LoggingDriver{}, eventbus.NewBus())
	ctx := context.Background()

	_, err := svc.InitiateLocalSettlement(ctx, "k", settledAccount(), 0)
	assert.ErrorIs(t, err, ErrZeroAmount)

	acct := settledAccount()
	acct.Settlement = nil
	_, err = svc.InitiateLocalSettlement(ctx, "k", acct, 1)
	assert.ErrorIs(t, err, ErrNoSettlementEngine)
}

// TestTrigger_RefundOnFailure 结算失败时退回清算余额
func TestTrigger_RefundOnFailure(t *testing.T) {
	bus := eventbus.NewBus()
	failed, err := bus.Subscribe(new(types.EvtSettlementFailed))
	require.NoError(t, err)

	driver := DriverFunc(func(context.Context, Request) (uint64, error) {
		return 0, errors.New("engine down")
	})
	tracker := balance.NewMemoryTracker()
	trigger := NewTrigger(newService(t, driver, bus), tracker)

	key, err := trigger.Settle(settledAccount(), 40)
	require.NoError(t, err)
	assert.NotEmpty(t, key)
	require.NoError(t, trigger.Close())

	b, err := tracker.Balance(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(40), b.ClearingBalance)

	select {
	case evt := <-failed.Out():
		assert.Equal(t, key, evt.(types.EvtSettlementFailed).IdempotencyKey)
	case <-time.After(time.Second):
		t.Fatal("no failure event")
	}

	_, err = trigger.Settle(settledAccount(), 1)
	assert.ErrorIs(t, err, ErrClosed)
}

// TestTrigger_PartialSettlement 部分结算时退回差额
func TestTrigger_PartialSettlement(t *testing.T) {
	driver := DriverFunc(func(_ context.Context, req Request) (uint64, error) {
		return req.Amount - 5, nil
	})
	tracker := balance.NewMemoryTracker()
	trigger := NewTrigger(newService(t, driver, eventbus.NewBus()), tracker)

	_, err := trigger.Settle(settledAccount(), 40)
	require.NoError(t, err)
	require.NoError(t, trigger.Close())

	b, _ := tracker.Balance(context.Background(), "bob")
	assert.Equal(t, int64(5), b.ClearingBalance)
}
