package ilp

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// Condition 执行条件（32 字节 SHA-256 摘要）
type Condition [32]byte

// Fulfillment 履约原像（32 字节）
type Fulfillment [32]byte

// ConditionFromBase64 从 base64 解析条件
func ConditionFromBase64(s string) (Condition, error) {
	var c Condition
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return c, fmt.Errorf("decode condition: %w", err)
	}
	if len(b) != len(c) {
		return c, fmt.Errorf("%w: condition must be 32 bytes, got %d", ErrInvalidPacket, len(b))
	}
	copy(c[:], b)
	return c, nil
}

// FulfillmentFromBytes 从字节构造原像
func FulfillmentFromBytes(b []byte) (Fulfillment, error) {
	var f Fulfillment
	if len(b) != len(f) {
		return f, fmt.Errorf("%w: fulfillment must be 32 bytes, got %d", ErrInvalidPacket, len(b))
	}
	copy(f[:], b)
	return f, nil
}

// Equal 常量时间比较
func (c Condition) Equal(other Condition) bool {
	return subtle.ConstantTimeCompare(c[:], other[:]) == 1
}

// String 返回 base64 表示
func (c Condition) String() string {
	return base64.StdEncoding.EncodeToString(c[:])
}

// Condition 计算该原像对应的条件
func (f Fulfillment) Condition() Condition {
	return Condition(sha256.Sum256(f[:]))
}

// Validate 校验原像是否满足条件（常量时间）
func (f Fulfillment) Validate(c Condition) bool {
	return f.Condition().Equal(c)
}

// String 返回 base64 表示
func (f Fulfillment) String() string {
	return base64.StdEncoding.EncodeToString(f[:])
}

// ============================================================================
//                              协议常量
// ============================================================================

var (
	// PingFulfillment ping 协议原像："pingpingpingpingpingpingpingping"
	PingFulfillment = Fulfillment([]byte("pingpingpingpingpingpingpingping"))

	// PingCondition ping 协议条件 = SHA-256(PingFulfillment)
	PingCondition = PingFulfillment.Condition()

	// PeerProtocolFulfillment 对等协议（IL-DCP / CCP）原像：32 个零字节
	PeerProtocolFulfillment = Fulfillment{}

	// PeerProtocolCondition 对等协议条件 = SHA-256(32 个零字节)
	PeerProtocolCondition = PeerProtocolFulfillment.Condition()
)
