package ilp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_Prepare(t *testing.T) {
	expires := time.Date(2026, 10, 15, 12, 30, 45, 123_456_789, time.UTC)
	p := &Prepare{
		Destination:        MustParseAddress("test.bob"),
		Amount:             107,
		ExecutionCondition: PingCondition,
		ExpiresAt:          expires,
		Data:               []byte("hello"),
	}

	b, err := Encode(p)
	require.NoError(t, err)
	assert.Equal(t, byte(TypePrepare), b[0])

	got, err := Decode(b)
	require.NoError(t, err)
	prep, ok := got.(*Prepare)
	require.True(t, ok)

	assert.Equal(t, p.Destination, prep.Destination)
	assert.Equal(t, p.Amount, prep.Amount)
	assert.True(t, prep.ExecutionCondition.Equal(PingCondition))
	// 线上格式精度为毫秒
	assert.Equal(t, expires.Truncate(time.Millisecond), prep.ExpiresAt)
	assert.Equal(t, p.Data, prep.Data)
}

func TestEncodeDecode_Reject(t *testing.T) {
	r := NewReject(F02Unreachable, MustParseAddress("test.alice"), "Destination address is unreachable")

	b, err := Encode(r)
	require.NoError(t, err)

	resp, err := DecodeResponse(b)
	require.NoError(t, err)
	assert.True(t, ResponseEqual(r, resp))
}

func TestDecodeResponse_RejectsPrepare(t *testing.T) {
	b, err := Encode(&Prepare{Destination: "test.a", ExpiresAt: time.Now()})
	require.NoError(t, err)

	_, err = DecodeResponse(b)
	assert.ErrorIs(t, err, ErrInvalidPacket)
}

func TestEncode_InvalidRejectCode(t *testing.T) {
	_, err := Encode(&Reject{Code: "X1"})
	assert.ErrorIs(t, err, ErrInvalidPacket)
}

func TestRejectError(t *testing.T) {
	err := NewRejectError(F08AmountTooLarge, "test.a", "too big: %d", 5)
	wrapped := fmtWrap(err)

	rej, ok := AsReject(wrapped)
	require.True(t, ok)
	assert.Equal(t, F08AmountTooLarge, rej.Code)
	assert.Equal(t, "too big: 5", rej.Message)
}

func fmtWrap(err error) error {
	return &wrapErr{err}
}

type wrapErr struct{ inner error }

func (w *wrapErr) Error() string { return "wrapped: " + w.inner.Error() }
func (w *wrapErr) Unwrap() error { return w.inner }

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "F02 Unreachable", F02Unreachable.String())
	assert.True(t, R00TransferTimedOut.IsRelative())
	assert.True(t, T00InternalError.IsTemporary())
	assert.True(t, F05WrongCondition.IsFinal())
	assert.False(t, ErrorCode("Z00").Valid())
}
