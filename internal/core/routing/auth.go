package routing

import (
	"crypto/hmac"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// routeAuthInfo HKDF info，区分路由认证密钥与其他用途
const routeAuthInfo = "ilp-connector ccp route auth v1"

// RouteAuth 路由认证
//
// 密钥由路由密钥材料经 HKDF-SHA256 派生；本地路由的 auth 为 HMAC(prefix)，
// 转发路由的 auth 为 HMAC(上游 auth)，对端无法伪造本节点通告的 auth 链。
type RouteAuth struct {
	key [32]byte
}

// NewRouteAuth 从密钥材料派生认证密钥
func NewRouteAuth(secret []byte) *RouteAuth {
	a := &RouteAuth{}
	r := hkdf.New(sha256.New, secret, nil, []byte(routeAuthInfo))
	// HKDF-SHA256 可输出 255*32 字节，读取 32 字节不会失败
	_, _ = io.ReadFull(r, a.key[:])
	return a
}

// Sign 计算 HMAC-SHA256
func (a *RouteAuth) Sign(data []byte) [32]byte {
	mac := hmac.New(sha256.New, a.key[:])
	mac.Write(data)
	var out [32]byte
	copy(out[:], mac.Sum(nil))
	return out
}

// Verify 常数时间比较
func (a *RouteAuth) Verify(data []byte, auth [32]byte) bool {
	expected := a.Sign(data)
	return hmac.Equal(expected[:], auth[:])
}
