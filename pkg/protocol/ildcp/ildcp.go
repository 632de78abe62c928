// Package ildcp 实现 IL-DCP（Interledger Dynamic Configuration Protocol）线上编码
//
// 子账户向父节点发送目的地址为 peer.config 的零金额 Prepare，
// 父节点以 Fulfill 应答，data 中携带分配给子账户的 ILP 地址与资产信息。
package ildcp

import (
	"errors"
	"fmt"
	"time"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	"github.com/dep2p/go-ilp-connector/pkg/lib/oer"
	"github.com/dep2p/go-ilp-connector/pkg/protocol"
)

// RequestTimeout IL-DCP 请求的过期窗口
const RequestTimeout = 60 * time.Second

// ErrInvalidResponse 应答数据无法解析
var ErrInvalidResponse = errors.New("ildcp: invalid response")

// Response IL-DCP 应答
type Response struct {
	ClientAddress ilp.Address
	AssetScale    uint8
	AssetCode     string
}

// NewRequest 构造 IL-DCP 请求
func NewRequest(now time.Time) *ilp.Prepare {
	return &ilp.Prepare{
		Destination:        protocol.IldcpAddress,
		Amount:             0,
		ExecutionCondition: ilp.PeerProtocolCondition,
		ExpiresAt:          now.Add(RequestTimeout),
	}
}

// Encode 编码应答数据
func (r *Response) Encode() []byte {
	w := oer.NewWriter()
	w.WriteVarString(string(r.ClientAddress))
	w.WriteUint8(r.AssetScale)
	w.WriteVarString(r.AssetCode)
	return w.Bytes()
}

// DecodeResponse 解码应答数据
func DecodeResponse(data []byte) (*Response, error) {
	r := oer.NewReader(data)
	addr, err := r.ReadVarString()
	if err != nil {
		return nil, fmt.Errorf("%w: client address: %v", ErrInvalidResponse, err)
	}
	client, err := ilp.ParseAddress(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	scale, err := r.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("%w: asset scale: %v", ErrInvalidResponse, err)
	}
	code, err := r.ReadVarString()
	if err != nil {
		return nil, fmt.Errorf("%w: asset code: %v", ErrInvalidResponse, err)
	}
	return &Response{ClientAddress: client, AssetScale: scale, AssetCode: code}, nil
}

// NewFulfill 把应答包装为 Fulfill
func NewFulfill(r *Response) *ilp.Fulfill {
	return &ilp.Fulfill{Fulfillment: ilp.PeerProtocolFulfillment, Data: r.Encode()}
}
