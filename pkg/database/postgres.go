package database

import (
	"fmt"
	"log"

	"github.com/Eursukkul/booking-settlement/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := Migrate(db); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	return db
}

// Migrate creates the schema. Shared by the service, sqlite-backed unit tests
// and the integration suite.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Booking{},
		&models.CancellationRecord{},
		&models.CancellationEconomicExecution{},
		&models.Payout{},
		&models.RetainedFund{},
		&models.PayeeAccount{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	// Partial unique index: at most one cancellation under review per booking
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_cancellation_pending
		ON cancellation_records (booking_id)
		WHERE review_status = 'PENDING'
	`).Error; err != nil {
		return fmt.Errorf("create pending cancellation index: %w", err)
	}

	return nil
}
