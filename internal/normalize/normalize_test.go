package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("01/03/2024")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, time.March, d.Month())
	assert.Equal(t, 1, d.Day())
	assert.Equal(t, time.UTC, d.Location())
}

func TestParseDate_LeapDay(t *testing.T) {
	d, err := ParseDate("29/02/2024")
	require.NoError(t, err)
	assert.Equal(t, 29, d.Day())
}

func TestParseDate_Invalid(t *testing.T) {
	tests := []string{
		"31/02/2024", // not a calendar date
		"29/02/2023",
		"2024-02-31", // wrong shape
		"2024-03-01",
		"1/3/2024",
		"01/03/24",
		"13/13/2024",
		"01-03-2024",
		" 01/03/2024",
		"",
		"NOTADATE",
	}
	for _, s := range tests {
		_, err := ParseDate(s)
		assert.ErrorIs(t, err, ErrInvalidDate, "ParseDate(%q)", s)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"3.388,00", "3388.00"},
		{"1234,56", "1234.56"},
		{"150", "150"},
		{"-42,10", "-42.10"},
		{"-1.234.567,89", "-1234567.89"},
		{"  7,5 ", "7.50"},
		{"12.5", "12.50"},
		{"1.234", "1.234"}, // lone dot is not disambiguated
		{"0,01", "0.01"},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.input)
		require.NoError(t, err, "ParseAmount(%q)", tt.input)
		want, err := ParseAmount(tt.want)
		require.NoError(t, err)
		assert.True(t, got.Equal(want), "ParseAmount(%q) = %s, want %s", tt.input, got, tt.want)
	}
}

func TestParseAmount_ExactDecimal(t *testing.T) {
	got, err := ParseAmount("3.388,00")
	require.NoError(t, err)
	assert.Equal(t, "3388.00", got.StringFixed(2))

	// 0,1 + 0,2 must be exactly 0.3.
	a, err := ParseAmount("0,1")
	require.NoError(t, err)
	b, err := ParseAmount("0,2")
	require.NoError(t, err)
	assert.Equal(t, "0.3", a.Add(b).String())
}

func TestParseAmount_Idempotent(t *testing.T) {
	for _, s := range []string{"3388.00", "-42.1", "150", "0.99"} {
		first, err := ParseAmount(s)
		require.NoError(t, err)
		second, err := ParseAmount(first.String())
		require.NoError(t, err)
		assert.True(t, first.Equal(second), "ParseAmount not idempotent for %q", s)
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	for _, s := range []string{"", "   ", "abc", "1.234.567", "12,34,56", "EUR 10"} {
		_, err := ParseAmount(s)
		assert.ErrorIs(t, err, ErrInvalidAmount, "ParseAmount(%q)", s)
	}
}
