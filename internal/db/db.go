package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"laundrospin-backend/config"
	"laundrospin-backend/internal/model"
)

// Init opens the database connection, tunes the pool, and runs
// migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Println("Running database migrations...")
	if err := db.AutoMigrate(
		&model.Machine{},
		&model.Session{},
	); err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// SeedMachines creates the fixed fleet on first run: washers 1-4 and
// dryers 5-8, all available. A non-empty machines table is left alone,
// so repeated startups never grow the fleet.
func SeedMachines(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Machine{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count machines: %w", err)
	}
	if count > 0 {
		return nil
	}

	machines := make([]model.Machine, 0, 8)
	for id := int64(1); id <= 8; id++ {
		machineType := model.TypeWasher
		if id > 4 {
			machineType = model.TypeDryer
		}
		machines = append(machines, model.Machine{
			ID:     id,
			Type:   machineType,
			Status: model.StatusAvailable,
		})
	}

	if err := db.Create(&machines).Error; err != nil {
		return fmt.Errorf("failed to seed machines: %w", err)
	}
	log.Printf("Seeded %d machines", len(machines))
	return nil
}
