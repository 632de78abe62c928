package ilp

import (
	"fmt"

	"github.com/dep2p/go-ilp-connector/pkg/lib/oer"
)

// AmountTooLargeData F08 Reject 的 data：收到的金额与允许的最大金额，各为 uint64
type AmountTooLargeData struct {
	ReceivedAmount uint64
	MaximumAmount  uint64
}

// Encode 编码为 16 字节
func (d AmountTooLargeData) Encode() []byte {
	w := oer.NewWriter()
	w.WriteUint64(d.ReceivedAmount)
	w.WriteUint64(d.MaximumAmount)
	return w.Bytes()
}

// DecodeAmountTooLargeData 解码 F08 Reject 的 data
func DecodeAmountTooLargeData(data []byte) (AmountTooLargeData, error) {
	var d AmountTooLargeData
	if len(data) != 16 {
		return d, fmt.Errorf("%w: amount too large data must be 16 bytes, got %d", ErrInvalidPacket, len(data))
	}
	r := oer.NewReader(data)
	d.ReceivedAmount, _ = r.ReadUint64()
	d.MaximumAmount, _ = r.ReadUint64()
	return d, nil
}

// NewAmountTooLargeReject 构造 F08 Reject
//
//	Packet size too large: maxAmount=<max> actualAmount=<amount>
func NewAmountTooLargeReject(triggeredBy Address, amount, maximum uint64) *Reject {
	rj := NewReject(F08AmountTooLarge, triggeredBy,
		fmt.Sprintf("Packet size too large: maxAmount=%d actualAmount=%d", maximum, amount))
	rj.Data = AmountTooLargeData{ReceivedAmount: amount, MaximumAmount: maximum}.Encode()
	return rj
}
