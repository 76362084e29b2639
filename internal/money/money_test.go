package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRound2HalfAwayFromZero(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1.005", "1.01"},
		{"1.004", "1"},
		{"2.675", "2.68"},
		{"-1.005", "-1.01"},
		{"99.9", "99.9"},
	}
	for _, tc := range cases {
		got := Round2(decimal.RequireFromString(tc.in))
		require.True(t, got.Equal(decimal.RequireFromString(tc.want)), "round %s got %s", tc.in, got)
	}
}

func TestPercent(t *testing.T) {
	got := Percent(decimal.RequireFromString("999"), decimal.NewFromInt(10))
	require.True(t, got.Equal(decimal.RequireFromString("99.9")))

	got = Percent(decimal.RequireFromString("11497"), decimal.NewFromInt(15))
	require.True(t, got.Equal(decimal.RequireFromString("1724.55")))
}

func TestCentsRoundTrip(t *testing.T) {
	d := decimal.RequireFromString("899.10")
	require.Equal(t, int64(89910), Cents(d))
	require.True(t, FromCents(89910).Equal(d))
}

func TestClampAndMin(t *testing.T) {
	zero := decimal.Zero
	neg := decimal.RequireFromString("-3.50")
	require.True(t, ClampFloor(neg, zero).Equal(zero))
	require.True(t, ClampFloor(decimal.NewFromInt(5), zero).Equal(decimal.NewFromInt(5)))
	require.True(t, Min(decimal.NewFromInt(2), decimal.NewFromInt(7)).Equal(decimal.NewFromInt(2)))
}
