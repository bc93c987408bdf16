package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferPrice(t *testing.T) {
	testCases := []struct {
		minutes  int
		expected string
	}{
		{0, "0"},
		{14, "0"},
		{15, "0.75"},
		{29, "0.75"},
		{30, "2.25"},
		{59, "2.25"},
		{60, "5.25"},
		{119, "5.25"},
		{120, "13.25"},
		{1000, "13.25"},
	}

	for _, tc := range testCases {
		price, err := BufferPrice(tc.minutes)
		require.NoError(t, err)
		assert.Truef(t, price.Equal(decimal.RequireFromString(tc.expected)),
			"BufferPrice(%d) = %s, want %s", tc.minutes, price, tc.expected)
	}
}

func TestBufferPriceNegative(t *testing.T) {
	_, err := BufferPrice(-1)
	assert.ErrorIs(t, err, ErrNegativeMinutes)
}

func TestPenalty(t *testing.T) {
	testCases := []struct {
		minutes  int
		expected string
	}{
		{0, "0"},
		{1, "0.10"},
		{10, "1.00"},
	}

	for _, tc := range testCases {
		penalty, err := Penalty(tc.minutes)
		require.NoError(t, err)
		assert.Truef(t, penalty.Equal(decimal.RequireFromString(tc.expected)),
			"Penalty(%d) = %s, want %s", tc.minutes, penalty, tc.expected)
	}
}

func TestPenaltyNegative(t *testing.T) {
	_, err := Penalty(-5)
	assert.ErrorIs(t, err, ErrNegativeMinutes)
}
