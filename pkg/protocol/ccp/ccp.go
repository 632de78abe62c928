// Package ccp 实现 CCP（Connector-to-Connector Protocol）消息的线上编码
//
// 两种消息都作为零金额 Prepare 的 data 发送：
//   - RouteControlRequest  -> peer.route.control，请求对端进入 IDLE / SYNC
//   - RouteUpdateRequest   -> peer.route.update，携带 [from, to) 纪元区间的路由变化
//
// 对端以对等协议原像 Fulfill 作为确认。
package ccp

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	"github.com/dep2p/go-ilp-connector/pkg/lib/oer"
	"github.com/dep2p/go-ilp-connector/pkg/protocol"
)

// MessageTimeout CCP 消息的过期窗口
const MessageTimeout = 30 * time.Second

// ErrInvalidMessage CCP 消息无法解析
var ErrInvalidMessage = errors.New("ccp: invalid message")

// Mode 路由发送模式
type Mode uint8

// 发送模式
const (
	ModeIdle Mode = 0
	ModeSync Mode = 1
)

// String 返回模式名称
func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "IDLE"
	case ModeSync:
		return "SYNC"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// RouteControlRequest 路由控制请求
type RouteControlRequest struct {
	Mode                    Mode
	LastKnownRoutingTableID uuid.UUID
	LastKnownEpoch          uint32
	Features                []string
}

// RouteProp 路由属性
type RouteProp struct {
	Optional   bool
	Transitive bool
	Partial    bool
	UTF8       bool
	ID         uint16
	Value      []byte
}

// Route 通告的路由
type Route struct {
	Prefix ilp.AddressPrefix
	Path   []ilp.Address
	Auth   [32]byte
	Props  []RouteProp
}

// RouteUpdateRequest 路由更新请求
type RouteUpdateRequest struct {
	RoutingTableID    uuid.UUID
	CurrentEpochIndex uint32
	FromEpochIndex    uint32
	ToEpochIndex      uint32
	HoldDownTime      time.Duration
	Speaker           ilp.Address
	NewRoutes         []Route
	WithdrawnRoutes   []ilp.AddressPrefix
}

// ============================================================================
//                              编码
// ============================================================================

// Encode 编码路由控制请求
func (r *RouteControlRequest) Encode() []byte {
	w := oer.NewWriter()
	w.WriteUint8(uint8(r.Mode))
	w.WriteOctets(r.LastKnownRoutingTableID[:])
	w.WriteUint32(r.LastKnownEpoch)
	w.WriteVarUint(uint64(len(r.Features)))
	for _, f := range r.Features {
		w.WriteVarString(f)
	}
	return w.Bytes()
}

// Encode 编码路由更新请求
func (r *RouteUpdateRequest) Encode() []byte {
	w := oer.NewWriter()
	w.WriteOctets(r.RoutingTableID[:])
	w.WriteUint32(r.CurrentEpochIndex)
	w.WriteUint32(r.FromEpochIndex)
	w.WriteUint32(r.ToEpochIndex)
	w.WriteUint32(uint32(r.HoldDownTime / time.Millisecond))
	w.WriteVarString(string(r.Speaker))

	w.WriteVarUint(uint64(len(r.NewRoutes)))
	for _, route := range r.NewRoutes {
		w.WriteVarString(string(route.Prefix))
		w.WriteVarUint(uint64(len(route.Path)))
		for _, hop := range route.Path {
			w.WriteVarString(string(hop))
		}
		w.WriteOctets(route.Auth[:])
		w.WriteVarUint(uint64(len(route.Props)))
		for _, p := range route.Props {
			w.WriteUint8(p.flags())
			w.WriteUint16(p.ID)
			w.WriteVarOctetString(p.Value)
		}
	}

	w.WriteVarUint(uint64(len(r.WithdrawnRoutes)))
	for _, prefix := range r.WithdrawnRoutes {
		w.WriteVarString(string(prefix))
	}
	return w.Bytes()
}

func (p RouteProp) flags() uint8 {
	var f uint8
	if p.Optional {
		f |= 0x80
	}
	if p.Transitive {
		f |= 0x40
	}
	if p.Partial {
		f |= 0x20
	}
	if p.UTF8 {
		f |= 0x10
	}
	return f
}

// ============================================================================
//                              解码
// ============================================================================

// DecodeRouteControlRequest 解码路由控制请求
func DecodeRouteControlRequest(data []byte) (*RouteControlRequest, error) {
	r := oer.NewReader(data)
	mode, err := r.ReadUint8()
	if err != nil {
		return nil, invalid("mode", err)
	}
	if Mode(mode) != ModeIdle && Mode(mode) != ModeSync {
		return nil, fmt.Errorf("%w: unknown mode %d", ErrInvalidMessage, mode)
	}
	id, err := readUUID(r)
	if err != nil {
		return nil, invalid("routing table id", err)
	}
	epoch, err := r.ReadUint32()
	if err != nil {
		return nil, invalid("epoch", err)
	}
	features, err := readStrings(r)
	if err != nil {
		return nil, invalid("features", err)
	}
	return &RouteControlRequest{
		Mode:                    Mode(mode),
		LastKnownRoutingTableID: id,
		LastKnownEpoch:          epoch,
		Features:                features,
	}, nil
}

// DecodeRouteUpdateRequest 解码路由更新请求
func DecodeRouteUpdateRequest(data []byte) (*RouteUpdateRequest, error) {
	r := oer.NewReader(data)
	req := &RouteUpdateRequest{}
	var err error

	if req.RoutingTableID, err = readUUID(r); err != nil {
		return nil, invalid("routing table id", err)
	}
	if req.CurrentEpochIndex, err = r.ReadUint32(); err != nil {
		return nil, invalid("current epoch", err)
	}
	if req.FromEpochIndex, err = r.ReadUint32(); err != nil {
		return nil, invalid("from epoch", err)
	}
	if req.ToEpochIndex, err = r.ReadUint32(); err != nil {
		return nil, invalid("to epoch", err)
	}
	holdDown, err := r.ReadUint32()
	if err != nil {
		return nil, invalid("hold down time", err)
	}
	req.HoldDownTime = time.Duration(holdDown) * time.Millisecond

	speaker, err := r.ReadVarString()
	if err != nil {
		return nil, invalid("speaker", err)
	}
	if req.Speaker, err = ilp.ParseAddress(speaker); err != nil {
		return nil, invalid("speaker", err)
	}

	count, err := readCount(r)
	if err != nil {
		return nil, invalid("new routes", err)
	}
	for i := 0; i < count; i++ {
		route, err := readRoute(r)
		if err != nil {
			return nil, invalid(fmt.Sprintf("route %d", i), err)
		}
		req.NewRoutes = append(req.NewRoutes, route)
	}

	withdrawn, err := readStrings(r)
	if err != nil {
		return nil, invalid("withdrawn routes", err)
	}
	for _, s := range withdrawn {
		prefix, err := ilp.ParsePrefix(s)
		if err != nil {
			return nil, invalid("withdrawn routes", err)
		}
		req.WithdrawnRoutes = append(req.WithdrawnRoutes, prefix)
	}

	if req.FromEpochIndex > req.ToEpochIndex {
		return nil, fmt.Errorf("%w: fromEpoch %d > toEpoch %d", ErrInvalidMessage, req.FromEpochIndex, req.ToEpochIndex)
	}
	return req, nil
}

func readRoute(r *oer.Reader) (Route, error) {
	var route Route
	s, err := r.ReadVarString()
	if err != nil {
		return route, err
	}
	if route.Prefix, err = ilp.ParsePrefix(s); err != nil {
		return route, err
	}
	hops, err := readStrings(r)
	if err != nil {
		return route, err
	}
	for _, h := range hops {
		addr, err := ilp.ParseAddress(h)
		if err != nil {
			return route, err
		}
		route.Path = append(route.Path, addr)
	}
	auth, err := r.ReadOctets(32)
	if err != nil {
		return route, err
	}
	copy(route.Auth[:], auth)

	n, err := readCount(r)
	if err != nil {
		return route, err
	}
	for i := 0; i < n; i++ {
		flags, err := r.ReadUint8()
		if err != nil {
			return route, err
		}
		id, err := r.ReadUint16()
		if err != nil {
			return route, err
		}
		value, err := r.ReadVarOctetString()
		if err != nil {
			return route, err
		}
		route.Props = append(route.Props, RouteProp{
			Optional:   flags&0x80 != 0,
			Transitive: flags&0x40 != 0,
			Partial:    flags&0x20 != 0,
			UTF8:       flags&0x10 != 0,
			ID:         id,
			Value:      value,
		})
	}
	return route, nil
}

func readUUID(r *oer.Reader) (uuid.UUID, error) {
	b, err := r.ReadOctets(16)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.FromBytes(b)
}

// readCount 读取序列长度；上限防止恶意长度导致大量分配
func readCount(r *oer.Reader) (int, error) {
	n, err := r.ReadVarUint()
	if err != nil {
		return 0, err
	}
	if n > uint64(r.Remaining()) {
		return 0, oer.ErrUnexpectedEnd
	}
	return int(n), nil
}

func readStrings(r *oer.Reader) ([]string, error) {
	n, err := readCount(r)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		s, err := r.ReadVarString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func invalid(field string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrInvalidMessage, field, err)
}

// ============================================================================
//                              Prepare 构造
// ============================================================================

// NewControlPrepare 将路由控制请求包装为 Prepare
func NewControlPrepare(req *RouteControlRequest, now time.Time) *ilp.Prepare {
	return &ilp.Prepare{
		Destination:        protocol.RouteControlAddress,
		ExecutionCondition: ilp.PeerProtocolCondition,
		ExpiresAt:          now.Add(MessageTimeout),
		Data:               req.Encode(),
	}
}

// NewUpdatePrepare 将路由更新请求包装为 Prepare
func NewUpdatePrepare(req *RouteUpdateRequest, now time.Time) *ilp.Prepare {
	return &ilp.Prepare{
		Destination:        protocol.RouteUpdateAddress,
		ExecutionCondition: ilp.PeerProtocolCondition,
		ExpiresAt:          now.Add(MessageTimeout),
		Data:               req.Encode(),
	}
}

// Ack 对等协议确认
func Ack() *ilp.Fulfill {
	return &ilp.Fulfill{Fulfillment: ilp.PeerProtocolFulfillment}
}
