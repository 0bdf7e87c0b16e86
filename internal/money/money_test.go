package money

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParseMinorUnits(t *testing.T) {
	cases := map[string]Minor{
		"29.99":  2999,
		"14.49":  1449,
		"1449":   1449,
		"0.005":  1,
		"300":    300,
		" 12.5 ": 1250,
		"100.00": 10000,
	}
	for in, want := range cases {
		got, err := ParseMinorUnits(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
}

func TestParseMinorUnitsRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "12,50", "-3.00", "1e3"} {
		_, err := ParseMinorUnits(in)
		require.Error(t, err, in)
		require.True(t, errors.Is(err, ErrInvalidAmount), in)
	}
}

func TestDisplayRoundTrip(t *testing.T) {
	for _, in := range []string{"29.99", "0.01", "14.485", "36.994", "100", "2.675", "9999.995"} {
		x := MustDisplay(in)
		want := RoundDecimal(x.Decimal(), 2).StringFixed(2)
		require.Equal(t, want, FromDisplay(x).Display().String(), in)
	}
}

func TestRoundDecimalHalfAwayFromZero(t *testing.T) {
	require.Equal(t, "2.68", RoundDecimal(decimal.RequireFromString("2.675"), 2).StringFixed(2))
	require.Equal(t, "-2.68", RoundDecimal(decimal.RequireFromString("-2.675"), 2).StringFixed(2))
	require.Equal(t, "5.5", RoundDecimal(decimal.RequireFromString("5.45"), 1).String())
}

func TestMinorFormatting(t *testing.T) {
	require.Equal(t, "29.99", Minor(2999).String())
	require.Equal(t, "$250.00", Minor(25000).Dollars())
	require.Equal(t, "0.05", Minor(5).String())
	require.Equal(t, Minor(0), Minor(-40).NonNegative())
	require.Equal(t, Minor(4347), Minor(1449).Times(3))
}

func TestWireAmountDecoding(t *testing.T) {
	var payload struct {
		A WireAmount `json:"a"`
		B WireAmount `json:"b"`
		C WireAmount `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":14.49,"b":"29.99","c":1449}`), &payload))
	require.Equal(t, Minor(1449), payload.A.Minor())
	require.Equal(t, Minor(2999), payload.B.Minor())
	require.Equal(t, Minor(1449), payload.C.Minor())

	var bad struct {
		A WireAmount `json:"a"`
	}
	err := json.Unmarshal([]byte(`{"a":"twelve"}`), &bad)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidAmount))
}

func TestDisplayJSON(t *testing.T) {
	out, err := json.Marshal(MustDisplay("36.9"))
	require.NoError(t, err)
	require.JSONEq(t, `"36.90"`, string(out))

	var d Display
	require.NoError(t, json.Unmarshal([]byte(`6000`), &d))
	require.Equal(t, Minor(600000), d.Minor())
	require.NoError(t, json.Unmarshal([]byte(`"12.34"`), &d))
	require.Equal(t, Minor(1234), d.Minor())
}
