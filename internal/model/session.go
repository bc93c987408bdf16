package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Session records one wash/dry usage of a machine. A machine may
// accumulate many sessions over its lifetime, but at most one may be
// active at any instant.
type Session struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	MachineID int64  `gorm:"index;not null" json:"machine_id"`
	UserName  string `gorm:"size:50" json:"user_name"`

	// Time tracking, all in seconds.
	CycleSeconds  int       `gorm:"not null" json:"cycle_seconds"`
	BufferSeconds int       `gorm:"not null" json:"buffer_seconds"`
	StartedAt     time.Time `gorm:"not null" json:"started_at"`

	// Amounts are fixed at creation; PenaltyAmount stays zero unless a
	// separate settlement path writes it.
	BasePaid      decimal.Decimal `gorm:"type:decimal(20,2)" json:"base_paid"`
	BufferPaid    decimal.Decimal `gorm:"type:decimal(20,2)" json:"buffer_paid"`
	PenaltyAmount decimal.Decimal `gorm:"type:decimal(20,2)" json:"penalty_amount"`

	// Once false, never reverts to true.
	IsActive bool `gorm:"index;not null" json:"is_active"`
}
