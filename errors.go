package connector

import "errors"

// 公共错误定义
var (
	// ErrNotStarted 连接器未启动
	ErrNotStarted = errors.New("connector not started")

	// ErrAlreadyStarted 连接器已启动
	ErrAlreadyStarted = errors.New("connector already started")

	// ErrClosed 连接器已关闭
	ErrClosed = errors.New("connector closed")

	// ErrNilAccount 账户设置为空
	ErrNilAccount = errors.New("account settings is nil")
)
