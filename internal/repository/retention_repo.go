package repository

import (
	"context"

	"github.com/Eursukkul/booking-settlement/internal/models"
	"gorm.io/gorm"
)

type RetentionRepository interface {
	Record(ctx context.Context, entry *models.RetainedFund) error
	Balance(ctx context.Context, bookingID string) (int64, error)
	HasSufficientFunds(ctx context.Context, bookingID string, amountCents int64) (bool, error)
}

type retentionRepository struct {
	db *gorm.DB
}

func NewRetentionRepository(db *gorm.DB) RetentionRepository {
	return &retentionRepository{db: db}
}

func (r *retentionRepository) Record(ctx context.Context, entry *models.RetainedFund) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *retentionRepository) Balance(ctx context.Context, bookingID string) (int64, error) {
	var balance int64
	err := r.db.WithContext(ctx).
		Model(&models.RetainedFund{}).
		Where("booking_id = ?", bookingID).
		Select("COALESCE(SUM(CASE WHEN movement = ? THEN amount_cents ELSE -amount_cents END), 0)", models.FundHold).
		Scan(&balance).Error
	return balance, err
}

func (r *retentionRepository) HasSufficientFunds(ctx context.Context, bookingID string, amountCents int64) (bool, error) {
	balance, err := r.Balance(ctx, bookingID)
	if err != nil {
		return false, err
	}
	return balance >= amountCents, nil
}
