package ilp

// ErrorCode ILP 错误码（3 字符 ASCII）
//
// 首字母决定类别：F 最终错误、T 临时错误、R 相对错误。
type ErrorCode string

// RFC 27 定义的错误码
const (
	F00BadRequest               ErrorCode = "F00"
	F01InvalidPacket            ErrorCode = "F01"
	F02Unreachable              ErrorCode = "F02"
	F03InvalidAmount            ErrorCode = "F03"
	F04InsufficientDestAmount   ErrorCode = "F04"
	F05WrongCondition           ErrorCode = "F05"
	F06UnexpectedPayment        ErrorCode = "F06"
	F07CannotReceive            ErrorCode = "F07"
	F08AmountTooLarge           ErrorCode = "F08"
	F99ApplicationError         ErrorCode = "F99"
	T00InternalError            ErrorCode = "T00"
	T01PeerUnreachable          ErrorCode = "T01"
	T02PeerBusy                 ErrorCode = "T02"
	T03ConnectorBusy            ErrorCode = "T03"
	T04InsufficientLiquidity    ErrorCode = "T04"
	T05RateLimited              ErrorCode = "T05"
	T99ApplicationError         ErrorCode = "T99"
	R00TransferTimedOut         ErrorCode = "R00"
	R01InsufficientSourceAmount ErrorCode = "R01"
	R02InsufficientTimeout      ErrorCode = "R02"
	R99ApplicationError         ErrorCode = "R99"
)

var errorCodeNames = map[ErrorCode]string{
	F00BadRequest:               "Bad Request",
	F01InvalidPacket:            "Invalid Packet",
	F02Unreachable:              "Unreachable",
	F03InvalidAmount:            "Invalid Amount",
	F04InsufficientDestAmount:   "Insufficient Destination Amount",
	F05WrongCondition:           "Wrong Condition",
	F06UnexpectedPayment:        "Unexpected Payment",
	F07CannotReceive:            "Cannot Receive",
	F08AmountTooLarge:           "Amount Too Large",
	F99ApplicationError:         "Application Error",
	T00InternalError:            "Internal Error",
	T01PeerUnreachable:          "Peer Unreachable",
	T02PeerBusy:                 "Peer Busy",
	T03ConnectorBusy:            "Connector Busy",
	T04InsufficientLiquidity:    "Insufficient Liquidity",
	T05RateLimited:              "Rate Limited",
	T99ApplicationError:         "Application Error",
	R00TransferTimedOut:         "Transfer Timed Out",
	R01InsufficientSourceAmount: "Insufficient Source Amount",
	R02InsufficientTimeout:      "Insufficient Timeout",
	R99ApplicationError:         "Application Error",
}

// Name 返回错误码的可读名称，未知错误码返回 "Unknown"
func (c ErrorCode) Name() string {
	if n, ok := errorCodeNames[c]; ok {
		return n
	}
	return "Unknown"
}

// String 形如 "F02 Unreachable"
func (c ErrorCode) String() string {
	return string(c) + " " + c.Name()
}

// IsFinal F 类错误
func (c ErrorCode) IsFinal() bool { return len(c) == 3 && c[0] == 'F' }

// IsTemporary T 类错误
func (c ErrorCode) IsTemporary() bool { return len(c) == 3 && c[0] == 'T' }

// IsRelative R 类错误
func (c ErrorCode) IsRelative() bool { return len(c) == 3 && c[0] == 'R' }

// Valid 错误码格式是否合法（类别字母 + 两位数字）
func (c ErrorCode) Valid() bool {
	if len(c) != 3 || (c[0] != 'F' && c[0] != 'T' && c[0] != 'R') {
		return false
	}
	return c[1] >= '0' && c[1] <= '9' && c[2] >= '0' && c[2] <= '9'
}
