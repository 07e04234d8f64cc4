package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidLuhn(t *testing.T) {
	cases := []struct {
		number string
		want   bool
	}{
		{"4111111111111111", true},
		{"4111 1111 1111 1111", true},
		{"5555555555554444", true},
		{"378282246310005", true},
		{"4111111111111112", false},
		{"1234", false},
		{"", false},
		{"41111111111111111111111", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ValidLuhn(tc.number), "number %q", tc.number)
	}
}

func TestDetectCardNetwork(t *testing.T) {
	cases := []struct {
		number string
		want   string
	}{
		{"4111111111111111", "visa"},
		{"5555555555554444", "mastercard"},
		{"2221000000000009", "mastercard"},
		{"378282246310005", "amex"},
		{"6011000000000004", "rupay"},
		{"8100000000000000", "rupay"},
		{"9999999999999999", "unknown"},
		{"", "unknown"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, DetectCardNetwork(tc.number), "number %q", tc.number)
	}
}

func TestValidExpiry(t *testing.T) {
	now := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)

	require.True(t, ValidExpiry(12, 26, now))
	require.True(t, ValidExpiry(6, 2026, now))
	require.True(t, ValidExpiry(1, 2030, now))
	require.False(t, ValidExpiry(5, 26, now))
	require.False(t, ValidExpiry(12, 25, now))
	require.False(t, ValidExpiry(0, 30, now))
	require.False(t, ValidExpiry(13, 30, now))
}

func TestValidVPA(t *testing.T) {
	require.True(t, ValidVPA("alice@okbank"))
	require.True(t, ValidVPA("alice.bob-1@upi"))
	require.False(t, ValidVPA("alice"))
	require.False(t, ValidVPA("@upi"))
	require.False(t, ValidVPA("a@upi"))
	require.False(t, ValidVPA("alice@upi1"))
	require.False(t, ValidVPA(""))
}
