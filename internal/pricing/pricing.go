package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNegativeMinutes is returned when a caller passes a negative
// duration to a pricing function.
var ErrNegativeMinutes = errors.New("pricing: minutes must be non-negative")

// CycleSeconds is the fixed wash/dry cycle duration (40 minutes).
const CycleSeconds = 2400

var (
	// BasePrice is charged for every session regardless of buffer.
	BasePrice = decimal.RequireFromString("3.00")

	// PreAuthHold is the card hold placed at session start, covering
	// the worst-case penalty before settlement.
	PreAuthHold = decimal.RequireFromString("10.00")

	// PenaltyPerMinute accrues for each minute of overstay.
	PenaltyPerMinute = decimal.RequireFromString("0.10")
)

// bufferTiers are cumulative: every tier at or below the requested
// minutes contributes its price.
var bufferTiers = []struct {
	minutes int
	price   decimal.Decimal
}{
	{15, decimal.RequireFromString("0.75")},
	{30, decimal.RequireFromString("1.50")},
	{60, decimal.RequireFromString("3.00")},
	{120, decimal.RequireFromString("8.00")},
}

// BufferPrice returns the cost of reserving the given number of buffer
// minutes. Tiers stack: 15 min costs 0.75, 30 min costs 2.25, 60 min
// 5.25, 120 min 13.25. Anything under 15 minutes is free.
func BufferPrice(minutes int) (decimal.Decimal, error) {
	if minutes < 0 {
		return decimal.Zero, ErrNegativeMinutes
	}

	total := decimal.Zero
	for _, tier := range bufferTiers {
		if minutes >= tier.minutes {
			total = total.Add(tier.price)
		}
	}
	return total, nil
}

// Penalty returns the charge for the given number of overstay minutes.
func Penalty(overstayMinutes int) (decimal.Decimal, error) {
	if overstayMinutes < 0 {
		return decimal.Zero, ErrNegativeMinutes
	}
	return PenaltyPerMinute.Mul(decimal.NewFromInt(int64(overstayMinutes))), nil
}
