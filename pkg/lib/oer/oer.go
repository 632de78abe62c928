// Package oer 实现 ILP 线上格式使用的 OER 编码原语
//
// 只覆盖 ILPv4 / IL-DCP / CCP 需要的子集：
//   - 定长无符号整数（大端）
//   - 长度前缀（< 128 单字节，否则 0x80|n 后跟 n 字节长度）
//   - 变长八位组串（长度前缀 + 内容）
//   - 变长无符号整数（以最短大端字节串编码为变长八位组串）
package oer

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// 错误定义
var (
	// ErrUnexpectedEnd 数据在读取完成前结束
	ErrUnexpectedEnd = errors.New("oer: unexpected end of data")

	// ErrLengthTooLarge 长度前缀超出支持范围
	ErrLengthTooLarge = errors.New("oer: length prefix too large")

	// ErrNonCanonical 长度前缀不是最短编码
	ErrNonCanonical = errors.New("oer: non-canonical length prefix")

	// ErrVarUintTooLarge 变长整数超过 8 字节
	ErrVarUintTooLarge = errors.New("oer: var uint exceeds 64 bits")
)

// MaxLength 单个八位组串允许的最大长度
const MaxLength = 1 << 24

// ============================================================================
//                              Writer
// ============================================================================

// Writer OER 编码器
type Writer struct {
	buf bytes.Buffer
}

// NewWriter 创建编码器
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes 返回已编码的数据
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len 返回已编码的字节数
func (w *Writer) Len() int {
	return w.buf.Len()
}

// WriteUint8 写入 1 字节无符号整数
func (w *Writer) WriteUint8(v uint8) {
	w.buf.WriteByte(v)
}

// WriteUint16 写入 2 字节无符号整数
func (w *Writer) WriteUint16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

// WriteUint32 写入 4 字节无符号整数
func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

// WriteUint64 写入 8 字节无符号整数
func (w *Writer) WriteUint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

// WriteOctets 写入定长八位组串
func (w *Writer) WriteOctets(b []byte) {
	w.buf.Write(b)
}

// WriteLength 写入长度前缀
func (w *Writer) WriteLength(n int) {
	if n < 0x80 {
		w.buf.WriteByte(byte(n))
		return
	}
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(n))
	i := 0
	for i < 7 && tmp[i] == 0 {
		i++
	}
	w.buf.WriteByte(0x80 | byte(8-i))
	w.buf.Write(tmp[i:])
}

// WriteVarOctetString 写入变长八位组串
func (w *Writer) WriteVarOctetString(b []byte) {
	w.WriteLength(len(b))
	w.buf.Write(b)
}

// WriteVarString 写入 UTF-8 字符串
func (w *Writer) WriteVarString(s string) {
	w.WriteLength(len(s))
	w.buf.WriteString(s)
}

// WriteVarUint 写入变长无符号整数
func (w *Writer) WriteVarUint(v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	i := 0
	for i < 7 && tmp[i] == 0 {
		i++
	}
	w.WriteVarOctetString(tmp[i:])
}

// ============================================================================
//                              Reader
// ============================================================================

// Reader OER 解码器
type Reader struct {
	data []byte
	off  int
}

// NewReader 创建解码器
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Remaining 返回未读取的字节数
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, ErrUnexpectedEnd
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

// ReadUint8 读取 1 字节无符号整数
func (r *Reader) ReadUint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadUint16 读取 2 字节无符号整数
func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadUint32 读取 4 字节无符号整数
func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadUint64 读取 8 字节无符号整数
func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// ReadOctets 读取定长八位组串（返回副本）
func (r *Reader) ReadOctets(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadLength 读取长度前缀
func (r *Reader) ReadLength() (int, error) {
	first, err := r.ReadUint8()
	if err != nil {
		return 0, err
	}
	if first&0x80 == 0 {
		return int(first), nil
	}
	n := int(first & 0x7f)
	if n == 0 || n > 4 {
		return 0, ErrLengthTooLarge
	}
	b, err := r.take(n)
	if err != nil {
		return 0, err
	}
	if b[0] == 0 {
		return 0, ErrNonCanonical
	}
	var length int
	for _, c := range b {
		length = length<<8 | int(c)
	}
	if length < 0x80 {
		return 0, ErrNonCanonical
	}
	if length > MaxLength {
		return 0, ErrLengthTooLarge
	}
	return length, nil
}

// ReadVarOctetString 读取变长八位组串（返回副本）
func (r *Reader) ReadVarOctetString() ([]byte, error) {
	n, err := r.ReadLength()
	if err != nil {
		return nil, err
	}
	return r.ReadOctets(n)
}

// ReadVarString 读取 UTF-8 字符串
func (r *Reader) ReadVarString() (string, error) {
	n, err := r.ReadLength()
	if err != nil {
		return "", err
	}
	b, err := r.take(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadVarUint 读取变长无符号整数
func (r *Reader) ReadVarUint() (uint64, error) {
	n, err := r.ReadLength()
	if err != nil {
		return 0, err
	}
	if n == 0 || n > 8 {
		return 0, ErrVarUintTooLarge
	}
	b, err := r.take(n)
	if err != nil {
		return 0, err
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v, nil
}
