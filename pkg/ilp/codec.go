package ilp

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dep2p/go-ilp-connector/pkg/lib/oer"
)

// timestampLayout ILP 时间戳：UTC，YYYYMMDDHHmmssSSS（17 字节，无分隔符）
const timestampLayout = "20060102150405"

// Encode 将数据包编码为 OER 信封（类型字节 + 变长内容）
func Encode(p Packet) ([]byte, error) {
	content := oer.NewWriter()
	switch pkt := p.(type) {
	case *Prepare:
		if err := pkt.Validate(); err != nil {
			return nil, err
		}
		content.WriteUint64(pkt.Amount)
		content.WriteOctets([]byte(formatTimestamp(pkt.ExpiresAt)))
		content.WriteOctets(pkt.ExecutionCondition[:])
		content.WriteVarString(string(pkt.Destination))
		content.WriteVarOctetString(pkt.Data)
	case *Fulfill:
		content.WriteOctets(pkt.Fulfillment[:])
		content.WriteVarOctetString(pkt.Data)
	case *Reject:
		if !pkt.Code.Valid() {
			return nil, fmt.Errorf("%w: error code %q", ErrInvalidPacket, pkt.Code)
		}
		content.WriteOctets([]byte(pkt.Code))
		content.WriteVarString(string(pkt.TriggeredBy))
		content.WriteVarString(pkt.Message)
		content.WriteVarOctetString(pkt.Data)
	default:
		return nil, fmt.Errorf("%w: unsupported packet %T", ErrInvalidPacket, p)
	}

	env := oer.NewWriter()
	env.WriteUint8(uint8(p.Type()))
	env.WriteVarOctetString(content.Bytes())
	return env.Bytes(), nil
}

// Decode 解码 OER 信封
func Decode(b []byte) (Packet, error) {
	env := oer.NewReader(b)
	typ, err := env.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPacket, err)
	}
	body, err := env.ReadVarOctetString()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPacket, err)
	}
	r := oer.NewReader(body)

	switch PacketType(typ) {
	case TypePrepare:
		return decodePrepare(r)
	case TypeFulfill:
		return decodeFulfill(r)
	case TypeReject:
		return decodeReject(r)
	default:
		return nil, fmt.Errorf("%w: unknown type %d", ErrInvalidPacket, typ)
	}
}

// DecodeResponse 解码 Fulfill 或 Reject
func DecodeResponse(b []byte) (Response, error) {
	p, err := Decode(b)
	if err != nil {
		return nil, err
	}
	resp, ok := p.(Response)
	if !ok {
		return nil, fmt.Errorf("%w: expected fulfill or reject, got type %d", ErrInvalidPacket, p.Type())
	}
	return resp, nil
}

func decodePrepare(r *oer.Reader) (*Prepare, error) {
	amount, err := r.ReadUint64()
	if err != nil {
		return nil, wrapDecode("amount", err)
	}
	ts, err := r.ReadOctets(17)
	if err != nil {
		return nil, wrapDecode("expiresAt", err)
	}
	expiresAt, err := parseTimestamp(string(ts))
	if err != nil {
		return nil, wrapDecode("expiresAt", err)
	}
	cond, err := r.ReadOctets(32)
	if err != nil {
		return nil, wrapDecode("executionCondition", err)
	}
	dest, err := r.ReadVarString()
	if err != nil {
		return nil, wrapDecode("destination", err)
	}
	addr, err := ParseAddress(dest)
	if err != nil {
		return nil, wrapDecode("destination", err)
	}
	data, err := r.ReadVarOctetString()
	if err != nil {
		return nil, wrapDecode("data", err)
	}
	p := &Prepare{
		Destination: addr,
		Amount:      amount,
		ExpiresAt:   expiresAt,
		Data:        data,
	}
	copy(p.ExecutionCondition[:], cond)
	return p, nil
}

func decodeFulfill(r *oer.Reader) (*Fulfill, error) {
	f, err := r.ReadOctets(32)
	if err != nil {
		return nil, wrapDecode("fulfillment", err)
	}
	data, err := r.ReadVarOctetString()
	if err != nil {
		return nil, wrapDecode("data", err)
	}
	out := &Fulfill{Data: data}
	copy(out.Fulfillment[:], f)
	return out, nil
}

func decodeReject(r *oer.Reader) (*Reject, error) {
	code, err := r.ReadOctets(3)
	if err != nil {
		return nil, wrapDecode("code", err)
	}
	triggeredBy, err := r.ReadVarString()
	if err != nil {
		return nil, wrapDecode("triggeredBy", err)
	}
	var by Address
	if triggeredBy != "" {
		if by, err = ParseAddress(triggeredBy); err != nil {
			return nil, wrapDecode("triggeredBy", err)
		}
	}
	msg, err := r.ReadVarString()
	if err != nil {
		return nil, wrapDecode("message", err)
	}
	data, err := r.ReadVarOctetString()
	if err != nil {
		return nil, wrapDecode("data", err)
	}
	return &Reject{Code: ErrorCode(code), TriggeredBy: by, Message: msg, Data: data}, nil
}

func wrapDecode(field string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrInvalidPacket, field, err)
}

func formatTimestamp(t time.Time) string {
	t = t.UTC()
	return t.Format(timestampLayout) + fmt.Sprintf("%03d", t.Nanosecond()/int(time.Millisecond))
}

func parseTimestamp(s string) (time.Time, error) {
	if len(s) != 17 {
		return time.Time{}, fmt.Errorf("timestamp must be 17 bytes, got %d", len(s))
	}
	t, err := time.ParseInLocation(timestampLayout, s[:14], time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	ms, err := strconv.Atoi(s[14:])
	if err != nil {
		return time.Time{}, err
	}
	return t.Add(time.Duration(ms) * time.Millisecond), nil
}
