package link

import "errors"

var (
	// ErrUnsupportedLinkType 没有对应链路类型的工厂
	ErrUnsupportedLinkType = errors.New("link: unsupported link type")

	// ErrHandlerRegistered 入站处理器已注册
	ErrHandlerRegistered = errors.New("link: packet handler already registered")

	// ErrNoInboundHandler 链路管理器尚未设置入站处理器
	ErrNoInboundHandler = errors.New("link: no inbound handler")

	// ErrManagerClosed 链路管理器已关闭
	ErrManagerClosed = errors.New("link: manager closed")
)
