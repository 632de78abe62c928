package ilp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAmountTooLargeReject(t *testing.T) {
	rj := NewAmountTooLargeReject("test.alice", 100, 10)

	assert.Equal(t, F08AmountTooLarge, rj.Code)
	assert.Equal(t, Address("test.alice"), rj.TriggeredBy)
	assert.Equal(t, "Packet size too large: maxAmount=10 actualAmount=100", rj.Message)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 100, 0, 0, 0, 0, 0, 0, 0, 10}, rj.Data)

	d, err := DecodeAmountTooLargeData(rj.Data)
	require.NoError(t, err)
	assert.Equal(t, AmountTooLargeData{ReceivedAmount: 100, MaximumAmount: 10}, d)
}

func TestDecodeAmountTooLargeData_Short(t *testing.T) {
	_, err := DecodeAmountTooLargeData([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidPacket)
}
