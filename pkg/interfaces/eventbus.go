package interfaces

// EventBus 连接器内部事件总线
//
// 事件以类型区分：订阅与发射时传入事件类型的指针，例如
//
//	sub, _ := bus.Subscribe(new(types.EvtLinkDisconnected))
//	em, _ := bus.Emitter(new(types.EvtLinkDisconnected))
//	em.Emit(types.EvtLinkDisconnected{AccountID: "bob"})
type EventBus interface {
	// Subscribe 订阅指定类型的事件
	Subscribe(eventType any, opts ...SubscriptionOpt) (Subscription, error)

	// Emitter 获取指定事件类型的发射器
	Emitter(eventType any, opts ...EmitterOpt) (Emitter, error)
}

// Subscription 事件订阅
type Subscription interface {
	// Out 事件通道，Close 后关闭
	Out() <-chan any

	// Close 取消订阅，可重复调用
	Close() error
}

// Emitter 事件发射器
type Emitter interface {
	// Emit 发射事件，订阅者缓冲区满时丢弃，不阻塞调用方
	Emit(event any) error

	Close() error
}

// SubscriptionOpt 订阅选项
type SubscriptionOpt func(*SubscriptionSettings)

// EmitterOpt 发射器选项
type EmitterOpt func(*EmitterSettings)

// SubscriptionSettings 订阅设置
type SubscriptionSettings struct {
	Buffer int
}

// EmitterSettings 发射器设置
type EmitterSettings struct {
	// Stateful 保留最后一个事件，新订阅者立即收到
	Stateful bool
}

// BufSize 设置订阅缓冲区大小
func BufSize(size int) SubscriptionOpt {
	return func(s *SubscriptionSettings) {
		s.Buffer = size
	}
}

// Stateful 设置发射器为有状态模式
func Stateful() EmitterOpt {
	return func(s *EmitterSettings) {
		s.Stateful = true
	}
}
