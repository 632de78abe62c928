package ilp

import (
	"bytes"
	"fmt"
	"time"
)

// PacketType ILPv4 数据包类型
type PacketType uint8

// 数据包类型值
const (
	TypePrepare PacketType = 12
	TypeFulfill PacketType = 13
	TypeReject  PacketType = 14
)

// Packet 任意 ILPv4 数据包
type Packet interface {
	Type() PacketType
}

// Response Prepare 的应答：*Fulfill 或 *Reject，没有第三种状态
type Response interface {
	Packet
	ResponseData() []byte
	isResponse()
}

// ============================================================================
//                              Prepare
// ============================================================================

// Prepare ILP Prepare 数据包
type Prepare struct {
	Destination        Address
	Amount             uint64
	ExecutionCondition Condition
	ExpiresAt          time.Time
	Data               []byte
}

// Type 实现 Packet
func (p *Prepare) Type() PacketType { return TypePrepare }

// WithAmount 返回修改金额后的副本
func (p *Prepare) WithAmount(amount uint64) *Prepare {
	cp := *p
	cp.Amount = amount
	return &cp
}

// WithExpiresAt 返回修改过期时间后的副本
func (p *Prepare) WithExpiresAt(t time.Time) *Prepare {
	cp := *p
	cp.ExpiresAt = t
	return &cp
}

// Expired 在 now 时刻是否已过期
func (p *Prepare) Expired(now time.Time) bool {
	return !p.ExpiresAt.After(now)
}

// Validate 校验必填字段
func (p *Prepare) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil prepare", ErrInvalidPacket)
	}
	if p.Destination.IsZero() {
		return fmt.Errorf("%w: missing destination", ErrInvalidPacket)
	}
	if p.ExpiresAt.IsZero() {
		return fmt.Errorf("%w: missing expiresAt", ErrInvalidPacket)
	}
	if len(p.Data) > MaxDataLength {
		return fmt.Errorf("%w: data exceeds %d bytes", ErrInvalidPacket, MaxDataLength)
	}
	return nil
}

// String 日志友好的摘要（不含 data）
func (p *Prepare) String() string {
	return fmt.Sprintf("Prepare{destination=%s amount=%d expiresAt=%s}",
		p.Destination, p.Amount, p.ExpiresAt.UTC().Format(time.RFC3339Nano))
}

// ============================================================================
//                              Fulfill
// ============================================================================

// Fulfill ILP Fulfill 数据包
type Fulfill struct {
	Fulfillment Fulfillment
	Data        []byte
}

// Type 实现 Packet
func (f *Fulfill) Type() PacketType { return TypeFulfill }

// ResponseData 实现 Response
func (f *Fulfill) ResponseData() []byte { return f.Data }

func (f *Fulfill) isResponse() {}

// ============================================================================
//                              Reject
// ============================================================================

// Reject ILP Reject 数据包
type Reject struct {
	Code        ErrorCode
	TriggeredBy Address
	Message     string
	Data        []byte
}

// Type 实现 Packet
func (r *Reject) Type() PacketType { return TypeReject }

// ResponseData 实现 Response
func (r *Reject) ResponseData() []byte { return r.Data }

func (r *Reject) isResponse() {}

// String 日志友好的摘要
func (r *Reject) String() string {
	return fmt.Sprintf("Reject{code=%s triggeredBy=%s message=%q}", r.Code, r.TriggeredBy, r.Message)
}

// NewReject 构造 Reject
func NewReject(code ErrorCode, triggeredBy Address, message string) *Reject {
	return &Reject{Code: code, TriggeredBy: triggeredBy, Message: message}
}

// ============================================================================
//                              辅助函数
// ============================================================================

// AsFulfill 类型断言为 Fulfill
func AsFulfill(r Response) (*Fulfill, bool) {
	f, ok := r.(*Fulfill)
	return f, ok && f != nil
}

// AsRejectResponse 类型断言为 Reject
func AsRejectResponse(r Response) (*Reject, bool) {
	rj, ok := r.(*Reject)
	return rj, ok && rj != nil
}

// ResponseEqual 比较两个应答是否相同（测试与去重使用）
func ResponseEqual(a, b Response) bool {
	switch x := a.(type) {
	case *Fulfill:
		y, ok := b.(*Fulfill)
		return ok && x.Fulfillment == y.Fulfillment && bytes.Equal(x.Data, y.Data)
	case *Reject:
		y, ok := b.(*Reject)
		return ok && x.Code == y.Code && x.TriggeredBy == y.TriggeredBy &&
			x.Message == y.Message && bytes.Equal(x.Data, y.Data)
	default:
		return false
	}
}
