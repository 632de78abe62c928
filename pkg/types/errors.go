package types

import "errors"

// ErrAccountNotFound 账户不存在
var ErrAccountNotFound = errors.New("account not found")
