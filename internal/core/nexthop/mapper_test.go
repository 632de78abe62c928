package nexthop

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-ilp-connector/internal/core/accounts"
	"github.com/dep2p/go-ilp-connector/internal/core/operator"
	"github.com/dep2p/go-ilp-connector/internal/core/rates"
	"github.com/dep2p/go-ilp-connector/internal/core/routing"
	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	"github.com/dep2p/go-ilp-connector/pkg/types"
	"github.com/dep2p/go-ilp-connector/tests/mocks"
)

type fixture struct {
	mapper *Mapper
	table  *routing.Table
	clock  *clock.Mock
	rates  *rates.StaticProvider
	paul   *types.AccountSettings
}

func account(id types.AccountID, code string, scale uint8) *types.AccountSettings {
	return &types.AccountSettings{
		AccountID:    id,
		AssetCode:    code,
		AssetScale:   scale,
		Relationship: types.RelationshipPeer,
		LinkType:     types.LinkTypeLoopback,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	paul := account("paul", "USD", 2)
	bob := account("bob", "USD", 2)
	eur := account("eur", "EUR", 2)
	limited := account("limited", "USD", 2)
	maxAmount := uint64(50)
	limited.MaximumPacketAmount = &maxAmount

	repo := mocks.NewMockAccountRepository(paul, bob, eur, limited, accounts.PingAccountSettings("XRP", 9))
	table := routing.NewTable()
	table.AddRoute(&types.Route{Prefix: ilp.MustParsePrefix("test.bob"), NextHopAccountID: "bob"})
	table.AddRoute(&types.Route{Prefix: ilp.MustParsePrefix("test.eur"), NextHopAccountID: "eur"})
	table.AddRoute(&types.Route{Prefix: ilp.MustParsePrefix("test.limited"), NextHopAccountID: "limited"})
	table.AddRoute(&types.Route{Prefix: ilp.MustParsePrefix("test.ghost"), NextHopAccountID: "ghost"})

	clk := clock.NewMock()
	clk.Set(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	provider := rates.NewStaticProvider(nil)

	m := NewMapper(operator.NewHolder("test.alice"), table, repo, rates.NewConverter(provider), clk, Config{
		MinMessageWindow: time.Second,
		MaxHoldTime:      30 * time.Second,
	})
	return &fixture{mapper: m, table: table, clock: clk, rates: provider, paul: paul}
}

func (f *fixture) prepare(dest string, amount uint64, ttl time.Duration) *ilp.Prepare {
	return &ilp.Prepare{
		Destination: ilp.MustParseAddress(dest),
		Amount:      amount,
		ExpiresAt:   f.clock.Now().Add(ttl),
	}
}

func rejectCode(t *testing.T, err error) ilp.ErrorCode {
	t.Helper()
	rj, ok := ilp.AsReject(err)
	require.True(t, ok, "expected reject error, got %v", err)
	return rj.Code
}

func TestMapper_Forward(t *testing.T) {
	f := newFixture(t)
	p := f.prepare("test.bob.x", 100, 10*time.Second)

	info, err := f.mapper.GetNextHopPacket(context.Background(), f.paul, p)
	require.NoError(t, err)
	assert.Equal(t, types.AccountID("bob"), info.NextHopAccountID)
	assert.Equal(t, uint64(100), info.NextHopPacket.Amount)
	assert.Equal(t, p.ExpiresAt.Add(-time.Second), info.NextHopPacket.ExpiresAt)
	assert.Equal(t, p.Destination, info.NextHopPacket.Destination)
	assert.Equal(t, time.Duration(10*time.Second), p.ExpiresAt.Sub(f.clock.Now()), "原包不被修改")
}

func TestMapper_OwnAddressGoesToPingAccount(t *testing.T) {
	f := newFixture(t)
	info, err := f.mapper.GetNextHopPacket(context.Background(), f.paul, f.prepare("test.alice", 10, 10*time.Second))
	require.NoError(t, err)
	assert.Equal(t, types.PingAccountID, info.NextHopAccountID)
	assert.Equal(t, uint64(10), info.NextHopPacket.Amount)
}

func TestMapper_NoRoute(t *testing.T) {
	f := newFixture(t)
	_, err := f.mapper.GetNextHopPacket(context.Background(), f.paul, f.prepare("test.nobody", 10, 10*time.Second))
	assert.Equal(t, ilp.F02Unreachable, rejectCode(t, err))
}

func TestMapper_ExpiredRoute(t *testing.T) {
	f := newFixture(t)
	f.table.AddRoute(&types.Route{
		Prefix:           ilp.MustParsePrefix("test.old"),
		NextHopAccountID: "bob",
		ExpiresAt:        f.clock.Now().Add(-time.Second),
	})
	_, err := f.mapper.GetNextHopPacket(context.Background(), f.paul, f.prepare("test.old.x", 10, 10*time.Second))
	assert.Equal(t, ilp.F02Unreachable, rejectCode(t, err))
}

func TestMapper_UnknownNextHopAccount(t *testing.T) {
	f := newFixture(t)
	_, err := f.mapper.GetNextHopPacket(context.Background(), f.paul, f.prepare("test.ghost", 10, 10*time.Second))
	assert.Equal(t, ilp.F02Unreachable, rejectCode(t, err))
}

func TestMapper_Conversion(t *testing.T) {
	f := newFixture(t)
	f.rates.SetRate("USD", "EUR", decimal.RequireFromString("0.915"))

	info, err := f.mapper.GetNextHopPacket(context.Background(), f.paul, f.prepare("test.eur.x", 1000, 10*time.Second))
	require.NoError(t, err)
	assert.Equal(t, uint64(915), info.NextHopPacket.Amount)

	info, err = f.mapper.GetNextHopPacket(context.Background(), f.paul, f.prepare("test.eur.x", 3, 10*time.Second))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), info.NextHopPacket.Amount, "向零截断")
}

func TestMapper_MissingRate(t *testing.T) {
	f := newFixture(t)
	_, err := f.mapper.GetNextHopPacket(context.Background(), f.paul, f.prepare("test.eur.x", 1000, 10*time.Second))
	assert.Equal(t, ilp.F02Unreachable, rejectCode(t, err))
}

func TestMapper_ConversionOverflow(t *testing.T) {
	f := newFixture(t)
	f.rates.SetRate("USD", "EUR", decimal.NewFromInt(10))

	_, err := f.mapper.GetNextHopPacket(context.Background(), f.paul, f.prepare("test.eur.x", ^uint64(0), 10*time.Second))
	assert.Equal(t, ilp.F08AmountTooLarge, rejectCode(t, err))
}

func TestMapper_DestinationMaxPacketAmount(t *testing.T) {
	f := newFixture(t)

	_, err := f.mapper.GetNextHopPacket(context.Background(), f.paul, f.prepare("test.limited", 50, 10*time.Second))
	require.NoError(t, err)

	_, err = f.mapper.GetNextHopPacket(context.Background(), f.paul, f.prepare("test.limited", 51, 10*time.Second))
	rj, ok := ilp.AsReject(err)
	require.True(t, ok)
	assert.Equal(t, ilp.F08AmountTooLarge, rj.Code)
	assert.Equal(t, "Packet size too large: maxAmount=50 actualAmount=51", rj.Message)
}

func TestMapper_MaxHoldTime(t *testing.T) {
	f := newFixture(t)
	info, err := f.mapper.GetNextHopPacket(context.Background(), f.paul, f.prepare("test.bob", 1, time.Hour))
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().Add(30*time.Second), info.NextHopPacket.ExpiresAt)
}

func TestMapper_InsufficientTimeout(t *testing.T) {
	f := newFixture(t)
	_, err := f.mapper.GetNextHopPacket(context.Background(), f.paul, f.prepare("test.bob", 1, 500*time.Millisecond))
	assert.Equal(t, ilp.R02InsufficientTimeout, rejectCode(t, err))
}

func TestMapper_NoOperatorAddress(t *testing.T) {
	f := newFixture(t)
	f.mapper.operator = operator.NewHolder("")
	_, err := f.mapper.GetNextHopPacket(context.Background(), f.paul, f.prepare("test.bob", 1, 10*time.Second))
	assert.ErrorIs(t, err, ErrNoOperatorAddress)
}
