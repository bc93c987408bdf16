package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"laundrospin-backend/internal/model"
)

// Typed errors surfaced to callers; no partial side effects accompany
// any of them.
var (
	ErrMachineNotFound     = errors.New("machine not found")
	ErrSessionNotFound     = errors.New("session not found")
	ErrMachineUnavailable  = errors.New("machine not available")
	ErrSessionAlreadyEnded = errors.New("session already ended")
)

// Store defines the interface for all database operations.
type Store interface {
	ListMachines(ctx context.Context) ([]model.Machine, error)
	GetMachine(ctx context.Context, id int64) (*model.Machine, error)
	GetSession(ctx context.Context, id int64) (*model.Session, error)
	ActiveSession(ctx context.Context, machineID int64) (*model.Session, error)
	ActiveSessions(ctx context.Context) (map[int64]model.Session, error)
	CreateSession(ctx context.Context, sess *model.Session) error
	FinishSession(ctx context.Context, sessionID int64) (*model.Session, error)
	SetMachineStatus(ctx context.Context, id int64, status model.MachineStatus) (*model.Machine, error)
	AdvanceMachineStatus(ctx context.Context, machineID int64, status model.MachineStatus) (bool, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// ListMachines returns the whole fleet in stable id order.
func (s *gormStore) ListMachines(ctx context.Context) ([]model.Machine, error) {
	var machines []model.Machine
	if err := s.db.WithContext(ctx).Order("id").Find(&machines).Error; err != nil {
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}
	return machines, nil
}

// GetMachine looks up a single machine by id.
func (s *gormStore) GetMachine(ctx context.Context, id int64) (*model.Machine, error) {
	var machine model.Machine
	if err := s.db.WithContext(ctx).First(&machine, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMachineNotFound
		}
		return nil, fmt.Errorf("failed to load machine %d: %w", id, err)
	}
	return &machine, nil
}

// GetSession looks up a single session by id.
func (s *gormStore) GetSession(ctx context.Context, id int64) (*model.Session, error) {
	var sess model.Session
	if err := s.db.WithContext(ctx).First(&sess, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session %d: %w", id, err)
	}
	return &sess, nil
}

// ActiveSession returns the machine's active session, or nil when the
// machine is idle.
func (s *gormStore) ActiveSession(ctx context.Context, machineID int64) (*model.Session, error) {
	var sess model.Session
	err := s.db.WithContext(ctx).
		Where("machine_id = ? AND is_active = ?", machineID, true).
		First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load active session for machine %d: %w", machineID, err)
	}
	return &sess, nil
}

// ActiveSessions fetches every active session in one query, keyed by
// machine id, for the fleet-wide projection.
func (s *gormStore) ActiveSessions(ctx context.Context) (map[int64]model.Session, error) {
	var sessions []model.Session
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to load active sessions: %w", err)
	}
	sessionMap := make(map[int64]model.Session, len(sessions))
	for _, sess := range sessions {
		sessionMap[sess.MachineID] = sess
	}
	return sessionMap, nil
}

// CreateSession persists a new session and flips the machine to
// in_cycle in one transaction. The availability precondition is
// re-checked inside the transaction so a rejected start leaves no
// trace.
func (s *gormStore) CreateSession(ctx context.Context, sess *model.Session) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Row lock so two starts racing on separate connections cannot
		// both pass the availability check. SQLite has no row locks;
		// its driver drops the clause and the caller's per-machine
		// mutex carries the guarantee there.
		var machine model.Machine
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&machine, sess.MachineID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMachineNotFound
			}
			return fmt.Errorf("failed to load machine %d: %w", sess.MachineID, err)
		}

		if machine.Status != model.StatusAvailable {
			return ErrMachineUnavailable
		}

		if err := tx.Create(sess).Error; err != nil {
			return fmt.Errorf("failed to create session on machine %d: %w", sess.MachineID, err)
		}

		if err := tx.Model(&machine).Update("status", model.StatusInCycle).Error; err != nil {
			return fmt.Errorf("failed to mark machine %d in_cycle: %w", sess.MachineID, err)
		}
		return nil
	})
}

// FinishSession deactivates the session and frees its machine in one
// transaction. The machine is returned to available unconditionally,
// even if the poller had moved it to in_buffer or overstay.
func (s *gormStore) FinishSession(ctx context.Context, sessionID int64) (*model.Session, error) {
	var sess model.Session
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sess, sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("failed to load session %d: %w", sessionID, err)
		}

		if !sess.IsActive {
			return ErrSessionAlreadyEnded
		}

		if err := tx.Model(&sess).Update("is_active", false).Error; err != nil {
			return fmt.Errorf("failed to deactivate session %d: %w", sessionID, err)
		}
		sess.IsActive = false

		if err := tx.Model(&model.Machine{}).
			Where("id = ?", sess.MachineID).
			Update("status", model.StatusAvailable).Error; err != nil {
			return fmt.Errorf("failed to free machine %d: %w", sess.MachineID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// SetMachineStatus is the administrative path used by the lifecycle
// poller and simulation tooling. It bypasses session-state validation.
// Unrecognized status values are ignored and the machine returned
// unchanged, preserving the original permissive contract.
func (s *gormStore) SetMachineStatus(ctx context.Context, id int64, status model.MachineStatus) (*model.Machine, error) {
	var machine model.Machine
	if err := s.db.WithContext(ctx).First(&machine, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMachineNotFound
		}
		return nil, fmt.Errorf("failed to load machine %d: %w", id, err)
	}

	if !status.Valid() {
		log.Printf("ignoring unrecognized status %q for machine %d", status, id)
		return &machine, nil
	}

	if err := s.db.WithContext(ctx).Model(&machine).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("failed to set status of machine %d: %w", id, err)
	}
	return &machine, nil
}

// AdvanceMachineStatus writes an advisory status on behalf of the
// lifecycle poller. The write is guarded: it only lands while the
// machine is still occupied, so a session ending between the poller's
// read and its write can never strand a freed machine in in_buffer or
// overstay. Reports whether the write landed.
func (s *gormStore) AdvanceMachineStatus(ctx context.Context, machineID int64, status model.MachineStatus) (bool, error) {
	if !status.Valid() {
		return false, fmt.Errorf("invalid advisory status %q for machine %d", status, machineID)
	}

	res := s.db.WithContext(ctx).Model(&model.Machine{}).
		Where("id = ? AND status <> ?", machineID, model.StatusAvailable).
		Update("status", status)
	if res.Error != nil {
		return false, fmt.Errorf("failed to advance machine %d to %s: %w", machineID, status, res.Error)
	}
	return res.RowsAffected > 0, nil
}
