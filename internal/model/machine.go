package model

import "time"

// MachineType distinguishes washers from dryers.
type MachineType string

const (
	TypeWasher MachineType = "washer"
	TypeDryer  MachineType = "dryer"
)

// MachineStatus is the closed set of machine states. Only `available`
// and `in_cycle` are driven by the session protocol; `in_buffer` and
// `overstay` are advisory labels maintained by the lifecycle poller.
type MachineStatus string

const (
	StatusAvailable MachineStatus = "available"
	StatusInCycle   MachineStatus = "in_cycle"
	StatusInBuffer  MachineStatus = "in_buffer"
	StatusOverstay  MachineStatus = "overstay"
)

// Valid reports whether s is one of the recognized statuses.
func (s MachineStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusInCycle, StatusInBuffer, StatusOverstay:
		return true
	}
	return false
}

// Machine represents a single washer or dryer in the fixed fleet.
type Machine struct {
	ID        int64         `gorm:"primaryKey" json:"id"`
	Type      MachineType   `gorm:"size:10;not null" json:"type"`
	Status    MachineStatus `gorm:"size:20;not null;default:available" json:"status"`
	CreatedAt time.Time     `json:"-"`
	UpdatedAt time.Time     `json:"-"`

	// Associations
	Sessions []Session `gorm:"foreignKey:MachineID" json:"-"`
}
