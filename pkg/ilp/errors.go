package ilp

import (
	"errors"
	"fmt"
)

// MaxDataLength 数据字段最大长度（RFC 27）
const MaxDataLength = 32767

// 错误定义
var (
	// ErrInvalidAddress 地址格式非法
	ErrInvalidAddress = errors.New("ilp: invalid address")

	// ErrInvalidPacket 数据包格式非法
	ErrInvalidPacket = errors.New("ilp: invalid packet")
)

// RejectError 以 error 形式携带的协议拒绝
//
// 协作者（下一跳解析、账户仓库等）返回 RejectError 表示业务失败，
// 过滤链在边界处把它转换为 Reject 应答，而不是 T00。
type RejectError struct {
	Reject *Reject
}

// NewRejectError 构造 RejectError
func NewRejectError(code ErrorCode, triggeredBy Address, format string, args ...any) *RejectError {
	return &RejectError{Reject: NewReject(code, triggeredBy, fmt.Sprintf(format, args...))}
}

// Error 实现 error
func (e *RejectError) Error() string {
	return fmt.Sprintf("ilp reject %s: %s", e.Reject.Code, e.Reject.Message)
}

// AsReject 从错误链中提取 Reject
func AsReject(err error) (*Reject, bool) {
	var re *RejectError
	if errors.As(err, &re) && re.Reject != nil {
		return re.Reject, true
	}
	return nil, false
}
