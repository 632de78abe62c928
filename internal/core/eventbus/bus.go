// Package eventbus 实现连接器内部事件总线
//
// 事件按值的 Go 类型分发。发射从不阻塞：订阅者缓冲区满时丢弃事件，
// 订阅者应当只用事件驱动幂等的状态迁移（例如 CCP 发送端切回 IDLE）。
package eventbus

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/lib/log"
)

var logger = log.Logger("core/eventbus")

var (
	// ErrInvalidEventType 事件类型为空
	ErrInvalidEventType = errors.New("eventbus: nil event type")
	// ErrNonPointerType 事件类型需以指针传入，例如 new(types.EvtLinkConnected)
	ErrNonPointerType = errors.New("eventbus: event type must be a pointer")
	// ErrEmitterClosed 发射器已关闭
	ErrEmitterClosed = errors.New("eventbus: emitter closed")
	// ErrWrongEventType 发射的值与发射器类型不符
	ErrWrongEventType = errors.New("eventbus: wrong event type for emitter")
)

const defaultBuffer = 16

// Bus 事件总线，每个事件类型一个 topic
type Bus struct {
	mu     sync.Mutex
	topics map[reflect.Type]*topic
}

// NewBus 创建事件总线
func NewBus() *Bus {
	return &Bus{topics: map[reflect.Type]*topic{}}
}

func (b *Bus) topicOf(eventType any) (*topic, error) {
	if eventType == nil {
		return nil, ErrInvalidEventType
	}
	ptr := reflect.TypeOf(eventType)
	if ptr.Kind() != reflect.Pointer {
		return nil, fmt.Errorf("%w: got %s", ErrNonPointerType, ptr)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	t := b.topics[ptr.Elem()]
	if t == nil {
		t = &topic{typ: ptr.Elem()}
		b.topics[ptr.Elem()] = t
	}
	return t, nil
}

// Subscribe 订阅事件，默认缓冲 16 个
func (b *Bus) Subscribe(eventType any, opts ...pkgif.SubscriptionOpt) (pkgif.Subscription, error) {
	t, err := b.topicOf(eventType)
	if err != nil {
		return nil, err
	}
	s := pkgif.SubscriptionSettings{Buffer: defaultBuffer}
	for _, opt := range opts {
		opt(&s)
	}
	return t.subscribe(max(s.Buffer, 1)), nil
}

// Emitter 返回事件发射器，Stateful 时 topic 会记住最后一个事件
func (b *Bus) Emitter(eventType any, opts ...pkgif.EmitterOpt) (pkgif.Emitter, error) {
	t, err := b.topicOf(eventType)
	if err != nil {
		return nil, err
	}
	var s pkgif.EmitterSettings
	for _, opt := range opts {
		opt(&s)
	}
	if s.Stateful {
		t.mu.Lock()
		t.sticky = true
		t.mu.Unlock()
	}
	return &Emitter{topic: t}, nil
}

// topic 单个事件类型的订阅者
type topic struct {
	typ reflect.Type

	mu     sync.Mutex
	subs   []*Subscription
	sticky bool
	last   any
}

func (t *topic) subscribe(buffer int) *Subscription {
	s := &Subscription{topic: t, ch: make(chan any, buffer)}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subs = append(t.subs, s)
	if t.last != nil {
		s.ch <- t.last
	}
	return s
}

func (t *topic) publish(event any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sticky {
		t.last = event
	}
	for _, s := range t.subs {
		s.offer(event)
	}
}

func (t *topic) unsubscribe(target *Subscription) {
	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.subs[:0]
	for _, s := range t.subs {
		if s != target {
			kept = append(kept, s)
		}
	}
	clear(t.subs[len(kept):])
	t.subs = kept
}

// Subscription 事件订阅
type Subscription struct {
	topic   *topic
	ch      chan any
	dropped atomic.Uint64
	once    sync.Once
}

// offer 非阻塞投递，调用方持有 topic 锁
func (s *Subscription) offer(event any) {
	select {
	case s.ch <- event:
		return
	default:
	}
	// 每 100 次丢弃告警一次
	if n := s.dropped.Add(1); n%100 == 1 {
		logger.Warn("订阅者处理过慢，事件被丢弃", "type", s.topic.typ, "dropped", n)
	}
}

func (s *Subscription) Out() <-chan any { return s.ch }

// Close 退订并关闭通道，可重复调用
func (s *Subscription) Close() error {
	s.once.Do(func() {
		// 退订后 publish 不会再写入 ch
		s.topic.unsubscribe(s)
		close(s.ch)
	})
	return nil
}

// Emitter 事件发射器
type Emitter struct {
	topic  *topic
	closed atomic.Bool
}

// Emit 发射事件，event 必须是发射器对应类型的值
func (e *Emitter) Emit(event any) error {
	if e.closed.Load() {
		return ErrEmitterClosed
	}
	if got := reflect.TypeOf(event); got != e.topic.typ {
		return fmt.Errorf("%w: want %s, got %v", ErrWrongEventType, e.topic.typ, got)
	}
	e.topic.publish(event)
	return nil
}

func (e *Emitter) Close() error {
	e.closed.Store(true)
	return nil
}

var _ pkgif.EventBus = (*Bus)(nil)
