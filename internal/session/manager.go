package session

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"laundrospin-backend/internal/model"
	"laundrospin-backend/internal/pricing"
	"laundrospin-backend/internal/store"
)

// DefaultUserName is used when a start request carries no name.
const DefaultUserName = "Anonymous"

// machineLocks hands out one mutex per machine id so that the
// check-then-act sequence in Start is serialized per machine. Two
// concurrent starts on the same machine cannot both observe it as
// available.
type machineLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newMachineLocks() *machineLocks {
	return &machineLocks{locks: make(map[int64]*sync.Mutex)}
}

func (l *machineLocks) get(machineID int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, exists := l.locks[machineID]
	if !exists {
		lock = &sync.Mutex{}
		l.locks[machineID] = lock
	}
	return lock
}

// Manager enforces the start/end session protocol and keeps machine and
// session state consistent.
type Manager struct {
	store store.Store
	locks *machineLocks
	now   func() time.Time
}

// NewManager creates a session manager backed by the given store.
func NewManager(s store.Store) *Manager {
	return &Manager{
		store: s,
		locks: newMachineLocks(),
		now:   time.Now,
	}
}

// Start begins a session on the given machine. The machine must be
// available; pricing is fixed at creation time. Returns
// store.ErrMachineNotFound or store.ErrMachineUnavailable on a rejected
// precondition, and pricing.ErrNegativeMinutes for a negative buffer.
func (m *Manager) Start(ctx context.Context, machineID int64, userName string, bufferMinutes int) (*model.Session, error) {
	if userName == "" {
		userName = DefaultUserName
	}

	bufferPrice, err := pricing.BufferPrice(bufferMinutes)
	if err != nil {
		return nil, err
	}

	sess := &model.Session{
		MachineID:     machineID,
		UserName:      userName,
		CycleSeconds:  pricing.CycleSeconds,
		BufferSeconds: bufferMinutes * 60,
		StartedAt:     m.now(),
		BasePaid:      pricing.BasePrice,
		BufferPaid:    bufferPrice,
		PenaltyAmount: decimal.Zero,
		IsActive:      true,
	}

	lock := m.locks.get(machineID)
	lock.Lock()
	defer lock.Unlock()

	if err := m.store.CreateSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// End finishes a session and frees its machine. Penalty settlement is
// not part of this path; PenaltyAmount is left untouched. Returns
// store.ErrSessionNotFound or store.ErrSessionAlreadyEnded.
func (m *Manager) End(ctx context.Context, sessionID int64) (*model.Session, error) {
	sess, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	lock := m.locks.get(sess.MachineID)
	lock.Lock()
	defer lock.Unlock()

	return m.store.FinishSession(ctx, sessionID)
}
