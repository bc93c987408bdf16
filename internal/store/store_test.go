package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"laundrospin-backend/internal/model"
)

// newTestDB opens an isolated in-memory SQLite database with the schema
// migrated and a two-machine fleet seeded.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:store_%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.Machine{}, &model.Session{}))
	require.NoError(t, db.Create(&[]model.Machine{
		{ID: 1, Type: model.TypeWasher, Status: model.StatusAvailable},
		{ID: 2, Type: model.TypeDryer, Status: model.StatusAvailable},
	}).Error)

	return db
}

func newTestSession(machineID int64) *model.Session {
	return &model.Session{
		MachineID:     machineID,
		UserName:      "Anonymous",
		CycleSeconds:  2400,
		BufferSeconds: 0,
		StartedAt:     time.Now(),
		BasePaid:      decimal.RequireFromString("3.00"),
		BufferPaid:    decimal.Zero,
		PenaltyAmount: decimal.Zero,
		IsActive:      true,
	}
}

func TestListMachinesOrdering(t *testing.T) {
	s := NewGormStore(newTestDB(t))

	machines, err := s.ListMachines(context.Background())
	require.NoError(t, err)
	require.Len(t, machines, 2)
	assert.Equal(t, int64(1), machines[0].ID)
	assert.Equal(t, int64(2), machines[1].ID)
}

func TestGetMachineNotFound(t *testing.T) {
	s := NewGormStore(newTestDB(t))

	_, err := s.GetMachine(context.Background(), 99)
	assert.ErrorIs(t, err, ErrMachineNotFound)
}

func TestCreateSession(t *testing.T) {
	db := newTestDB(t)
	s := NewGormStore(db)
	ctx := context.Background()

	sess := newTestSession(1)
	require.NoError(t, s.CreateSession(ctx, sess))
	assert.NotZero(t, sess.ID)

	machine, err := s.GetMachine(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInCycle, machine.Status)

	active, err := s.ActiveSession(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, sess.ID, active.ID)
}

func TestCreateSessionMachineUnavailable(t *testing.T) {
	db := newTestDB(t)
	s := NewGormStore(db)
	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, newTestSession(1)))

	// A second start against the occupied machine must fail and leave
	// no session behind.
	err := s.CreateSession(ctx, newTestSession(1))
	assert.ErrorIs(t, err, ErrMachineUnavailable)

	var count int64
	require.NoError(t, db.Model(&model.Session{}).Where("machine_id = ?", 1).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateSessionMachineNotFound(t *testing.T) {
	s := NewGormStore(newTestDB(t))

	err := s.CreateSession(context.Background(), newTestSession(99))
	assert.ErrorIs(t, err, ErrMachineNotFound)
}

func TestFinishSession(t *testing.T) {
	db := newTestDB(t)
	s := NewGormStore(db)
	ctx := context.Background()

	sess := newTestSession(1)
	require.NoError(t, s.CreateSession(ctx, sess))

	finished, err := s.FinishSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, finished.IsActive)
	assert.True(t, finished.PenaltyAmount.IsZero())

	machine, err := s.GetMachine(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAvailable, machine.Status)

	active, err := s.ActiveSession(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, active)

	// Ending twice fails the second time.
	_, err = s.FinishSession(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionAlreadyEnded)
}

func TestFinishSessionNotFound(t *testing.T) {
	s := NewGormStore(newTestDB(t))

	_, err := s.FinishSession(context.Background(), 1234)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

// FinishSession frees the machine unconditionally, even after the
// poller has moved it past in_cycle.
func TestFinishSessionFreesOverstayedMachine(t *testing.T) {
	s := NewGormStore(newTestDB(t))
	ctx := context.Background()

	sess := newTestSession(2)
	require.NoError(t, s.CreateSession(ctx, sess))

	_, err := s.SetMachineStatus(ctx, 2, model.StatusOverstay)
	require.NoError(t, err)

	_, err = s.FinishSession(ctx, sess.ID)
	require.NoError(t, err)

	machine, err := s.GetMachine(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAvailable, machine.Status)
}

func TestSetMachineStatus(t *testing.T) {
	s := NewGormStore(newTestDB(t))
	ctx := context.Background()

	machine, err := s.SetMachineStatus(ctx, 1, model.StatusInBuffer)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInBuffer, machine.Status)

	_, err = s.SetMachineStatus(ctx, 99, model.StatusAvailable)
	assert.ErrorIs(t, err, ErrMachineNotFound)
}

func TestSetMachineStatusIgnoresUnrecognizedValue(t *testing.T) {
	s := NewGormStore(newTestDB(t))
	ctx := context.Background()

	machine, err := s.SetMachineStatus(ctx, 1, model.MachineStatus("exploded"))
	require.NoError(t, err)
	assert.Equal(t, model.StatusAvailable, machine.Status)

	reloaded, err := s.GetMachine(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAvailable, reloaded.Status)
}

func TestAdvanceMachineStatus(t *testing.T) {
	s := NewGormStore(newTestDB(t))
	ctx := context.Background()

	// The guarded write must not land on a free machine.
	advanced, err := s.AdvanceMachineStatus(ctx, 1, model.StatusOverstay)
	require.NoError(t, err)
	assert.False(t, advanced)

	machine, err := s.GetMachine(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAvailable, machine.Status)

	// An occupied machine advances.
	require.NoError(t, s.CreateSession(ctx, newTestSession(1)))

	advanced, err = s.AdvanceMachineStatus(ctx, 1, model.StatusInBuffer)
	require.NoError(t, err)
	assert.True(t, advanced)

	machine, err = s.GetMachine(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInBuffer, machine.Status)
}

func TestAdvanceMachineStatusRejectsUnknownValue(t *testing.T) {
	s := NewGormStore(newTestDB(t))

	_, err := s.AdvanceMachineStatus(context.Background(), 1, model.MachineStatus("exploded"))
	assert.Error(t, err)
}

func TestActiveSessionsProjection(t *testing.T) {
	s := NewGormStore(newTestDB(t))
	ctx := context.Background()

	sess := newTestSession(2)
	require.NoError(t, s.CreateSession(ctx, sess))

	active, err := s.ActiveSessions(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, sess.ID, active[2].ID)
}
