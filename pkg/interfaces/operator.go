package interfaces

import "github.com/dep2p/go-ilp-connector/pkg/ilp"

// OperatorAddressSupplier 本节点 ILP 地址
//
// 地址可以来自配置，也可以在启动时通过 IL-DCP 从父节点获取，
// 因此各组件在处理数据包时读取，而不是在构造时缓存。
type OperatorAddressSupplier interface {
	Address() ilp.Address
}
