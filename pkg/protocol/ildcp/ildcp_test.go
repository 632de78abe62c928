package ildcp

import (
	"testing"
	"time"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponse_RoundTrip(t *testing.T) {
	resp := &Response{ClientAddress: ilp.MustParseAddress("test.alice.paul"), AssetScale: 9, AssetCode: "XRP"}

	f := NewFulfill(resp)
	assert.True(t, f.Fulfillment.Validate(ilp.PeerProtocolCondition))

	got, err := DecodeResponse(f.Data)
	require.NoError(t, err)
	assert.Equal(t, resp, got)
}

func TestDecodeResponse_Garbage(t *testing.T) {
	_, err := DecodeResponse([]byte{0x03, 'a'})
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestNewRequest(t *testing.T) {
	now := time.Now()
	p := NewRequest(now)
	assert.Equal(t, "peer.config", p.Destination.String())
	assert.Zero(t, p.Amount)
	assert.Equal(t, now.Add(RequestTimeout), p.ExpiresAt)
}
