package config

import (
	"errors"
	"fmt"

	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// ErrInvalidConfig 配置非法
var ErrInvalidConfig = errors.New("invalid config")

func fmtErr(section string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, section, err)
}

func errDuplicateAccount(id types.AccountID) error {
	return fmt.Errorf("duplicate account %q", id)
}

func errUnknownParent(id string) error {
	return fmt.Errorf("parent_account_id %q is not among accounts", id)
}
