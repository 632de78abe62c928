package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

func receive(t *testing.T, sub pkgif.Subscription) any {
	t.Helper()
	select {
	case evt := <-sub.Out():
		return evt
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return nil
	}
}

// TestBus_EmitAndReceive 按类型分发
func TestBus_EmitAndReceive(t *testing.T) {
	bus := NewBus()

	sub, err := bus.Subscribe(new(types.EvtLinkDisconnected))
	require.NoError(t, err)
	defer sub.Close()

	other, err := bus.Subscribe(new(types.EvtLinkConnected))
	require.NoError(t, err)
	defer other.Close()

	em, err := bus.Emitter(new(types.EvtLinkDisconnected))
	require.NoError(t, err)
	require.NoError(t, em.Emit(types.EvtLinkDisconnected{AccountID: "bob"}))

	evt := receive(t, sub).(types.EvtLinkDisconnected)
	assert.Equal(t, types.AccountID("bob"), evt.AccountID)

	select {
	case <-other.Out():
		t.Fatal("unexpected event on other type")
	default:
	}
}

// TestBus_InvalidType 非指针类型
func TestBus_InvalidType(t *testing.T) {
	bus := NewBus()
	_, err := bus.Subscribe(types.EvtLinkConnected{})
	assert.ErrorIs(t, err, ErrNonPointerType)
	_, err = bus.Emitter(nil)
	assert.ErrorIs(t, err, ErrInvalidEventType)
}

// TestBus_Stateful 新订阅者收到最后一个事件
func TestBus_Stateful(t *testing.T) {
	bus := NewBus()
	em, err := bus.Emitter(new(types.EvtLinkConnected), pkgif.Stateful())
	require.NoError(t, err)
	require.NoError(t, em.Emit(types.EvtLinkConnected{AccountID: "a"}))
	require.NoError(t, em.Emit(types.EvtLinkConnected{AccountID: "b"}))

	sub, err := bus.Subscribe(new(types.EvtLinkConnected))
	require.NoError(t, err)
	evt := receive(t, sub).(types.EvtLinkConnected)
	assert.Equal(t, types.AccountID("b"), evt.AccountID)
}

// TestBus_SlowConsumerDoesNotBlock 缓冲区满时丢弃
func TestBus_SlowConsumerDoesNotBlock(t *testing.T) {
	bus := NewBus()
	sub, err := bus.Subscribe(new(types.EvtLinkConnected), pkgif.BufSize(1))
	require.NoError(t, err)
	em, _ := bus.Emitter(new(types.EvtLinkConnected))

	for i := 0; i < 10; i++ {
		require.NoError(t, em.Emit(types.EvtLinkConnected{}))
	}
	assert.Len(t, sub.Out(), 1)
}

// TestSubscription_Close 关闭后通道关闭，可重复调用
func TestSubscription_Close(t *testing.T) {
	bus := NewBus()
	sub, _ := bus.Subscribe(new(types.EvtLinkConnected))
	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	_, ok := <-sub.Out()
	assert.False(t, ok)

	em, _ := bus.Emitter(new(types.EvtLinkConnected))
	require.NoError(t, em.Emit(types.EvtLinkConnected{}))
	require.NoError(t, em.Close())
	assert.ErrorIs(t, em.Emit(types.EvtLinkConnected{}), ErrEmitterClosed)
}

// TestEmitter_WrongType 发射器只接受自身类型的值
func TestEmitter_WrongType(t *testing.T) {
	bus := NewBus()
	em, err := bus.Emitter(new(types.EvtLinkConnected))
	require.NoError(t, err)

	assert.ErrorIs(t, em.Emit(types.EvtLinkDisconnected{}), ErrWrongEventType)
	assert.ErrorIs(t, em.Emit(&types.EvtLinkConnected{}), ErrWrongEventType)
	assert.NoError(t, em.Emit(types.EvtLinkConnected{}))
}

// TestModule_Load 模块提供 EventBus
func TestModule_Load(t *testing.T) {
	var bus pkgif.EventBus
	app := fxtest.New(t, Module(), fx.Populate(&bus))
	app.RequireStart()
	assert.NotNil(t, bus)
	app.RequireStop()
}
