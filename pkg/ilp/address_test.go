package ilp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	valid := []string{"test.alice", "g.us.bank.bob", "peer.config", "self.foo", "test3.x~y_z-1", "private.a"}
	for _, s := range valid {
		_, err := ParseAddress(s)
		assert.NoError(t, err, s)
	}

	invalid := []string{"", "test", "foo.bar", "test.", "test..a", "test.a b", "test4.a", strings.Repeat("a", 2000)}
	for _, s := range invalid {
		_, err := ParseAddress(s)
		assert.ErrorIs(t, err, ErrInvalidAddress, s)
	}
}

func TestAddress_With(t *testing.T) {
	a := MustParseAddress("test.alice")

	child, err := a.With("paul")
	require.NoError(t, err)
	assert.Equal(t, Address("test.alice.paul"), child)

	_, err = a.With("bad.segment")
	assert.Error(t, err)
}

func TestAddressPrefix_Matches(t *testing.T) {
	p := MustParsePrefix("test.alice")

	assert.True(t, p.Matches("test.alice"))
	assert.True(t, p.Matches("test.alice.bob"))
	assert.False(t, p.Matches("test.alicex"))
	assert.False(t, p.Matches("test.bob"))

	assert.True(t, MustParsePrefix("test").Matches("test.bob"))
	assert.True(t, MustParsePrefix("test").Contains("test.alice"))
}

func TestAddress_Scheme(t *testing.T) {
	assert.Equal(t, "peer", MustParseAddress("peer.route.control").Scheme())
	assert.Equal(t, "test", MustParseAddress("test.a").Scheme())
}
