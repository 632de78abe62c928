package ilp

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxAddressLength ILP 地址最大长度
const MaxAddressLength = 1023

var (
	addressPattern = regexp.MustCompile(`^(g|private|example|peer|self|test[1-3]?|local)([.][a-zA-Z0-9_~-]+)+$`)
	prefixPattern  = regexp.MustCompile(`^(g|private|example|peer|self|test[1-3]?|local)([.][a-zA-Z0-9_~-]+)*$`)
	segmentPattern = regexp.MustCompile(`^[a-zA-Z0-9_~-]+$`)
)

// Address ILP 地址
//
// 零值无效；只能通过 ParseAddress / MustParseAddress / With 得到合法值。
type Address string

// ParseAddress 解析并校验 ILP 地址
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	if len(s) > MaxAddressLength {
		return "", fmt.Errorf("%w: length %d exceeds %d", ErrInvalidAddress, len(s), MaxAddressLength)
	}
	if !addressPattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return Address(s), nil
}

// MustParseAddress 解析地址，失败时 panic（仅用于常量与测试）
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String 返回地址字符串
func (a Address) String() string {
	return string(a)
}

// IsZero 是否为空地址
func (a Address) IsZero() bool {
	return a == ""
}

// Scheme 返回分配方案（第一个段）
func (a Address) Scheme() string {
	s := string(a)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return s[:i]
	}
	return s
}

// With 派生子地址
func (a Address) With(segment string) (Address, error) {
	if !segmentPattern.MatchString(segment) {
		return "", fmt.Errorf("%w: invalid segment %q", ErrInvalidAddress, segment)
	}
	return ParseAddress(string(a) + "." + segment)
}

// StartsWith 判断地址是否以 prefix 开头（按段对齐）
func (a Address) StartsWith(prefix AddressPrefix) bool {
	return prefix.Matches(a)
}

// Prefix 将地址视为前缀
func (a Address) Prefix() AddressPrefix {
	return AddressPrefix(a)
}

// AddressPrefix 路由前缀，可以只包含分配方案（如 "g"、"test"）
type AddressPrefix string

// ParsePrefix 解析并校验地址前缀
func ParsePrefix(s string) (AddressPrefix, error) {
	if s == "" || len(s) > MaxAddressLength || !prefixPattern.MatchString(s) {
		return "", fmt.Errorf("%w: prefix %q", ErrInvalidAddress, s)
	}
	return AddressPrefix(s), nil
}

// MustParsePrefix 解析前缀，失败时 panic
func MustParsePrefix(s string) AddressPrefix {
	p, err := ParsePrefix(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String 返回前缀字符串
func (p AddressPrefix) String() string {
	return string(p)
}

// Matches 判断地址是否位于该前缀之下
//
// "test.alice" 匹配 "test.alice" 与 "test.alice.bob"，不匹配 "test.alicex"。
func (p AddressPrefix) Matches(a Address) bool {
	s, ps := string(a), string(p)
	if !strings.HasPrefix(s, ps) {
		return false
	}
	return len(s) == len(ps) || s[len(ps)] == '.'
}

// Contains 判断另一前缀是否位于该前缀之下
func (p AddressPrefix) Contains(other AddressPrefix) bool {
	return p.Matches(Address(other))
}
