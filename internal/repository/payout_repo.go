package repository

import (
	"context"
	"time"

	"github.com/Eursukkul/booking-settlement/internal/models"
	"gorm.io/gorm"
)

type PayoutRepository interface {
	Create(ctx context.Context, payout *models.Payout) error
	FindByID(ctx context.Context, id string) (*models.Payout, error)
	AcquireLock(ctx context.Context, id string, executedBy models.ExecutorRole, at time.Time) (bool, error)
	MarkPaid(ctx context.Context, id string, artistRef string, managerRef *string, at time.Time) error
	MarkFailed(ctx context.Context, id, reason string, artistRef *string, at time.Time) error
	FindStaleExecuting(ctx context.Context, lockedBefore time.Time) ([]models.Payout, error)
	ExpireLock(ctx context.Context, id string, lockedBefore time.Time, reason string, at time.Time) (bool, error)
}

type payoutRepository struct {
	db *gorm.DB
}

func NewPayoutRepository(db *gorm.DB) PayoutRepository {
	return &payoutRepository{db: db}
}

func (r *payoutRepository) Create(ctx context.Context, payout *models.Payout) error {
	return r.db.WithContext(ctx).Create(payout).Error
}

func (r *payoutRepository) FindByID(ctx context.Context, id string) (*models.Payout, error) {
	var payout models.Payout
	if err := r.db.WithContext(ctx).First(&payout, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payout, nil
}

// AcquireLock moves the payout READY_TO_PAY -> EXECUTING in one conditional
// UPDATE. Only one caller across all processes can observe true.
func (r *payoutRepository) AcquireLock(ctx context.Context, id string, executedBy models.ExecutorRole, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payout{}).
		Where("id = ? AND status = ?", id, models.PayoutReadyToPay).
		Updates(map[string]any{
			"status":      models.PayoutExecuting,
			"executed_by": executedBy,
			"locked_at":   at,
			"updated_at":  at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *payoutRepository) MarkPaid(ctx context.Context, id string, artistRef string, managerRef *string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Payout{}).
		Where("id = ? AND status = ?", id, models.PayoutExecuting).
		Updates(map[string]any{
			"status":               models.PayoutPaid,
			"paid_at":              at,
			"artist_transfer_ref":  artistRef,
			"manager_transfer_ref": managerRef,
			"updated_at":           at,
		})
	return conditional(res)
}

func (r *payoutRepository) MarkFailed(ctx context.Context, id, reason string, artistRef *string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Payout{}).
		Where("id = ? AND status = ?", id, models.PayoutExecuting).
		Updates(map[string]any{
			"status":              models.PayoutFailed,
			"failed_at":           at,
			"failure_reason":      reason,
			"artist_transfer_ref": artistRef,
			"updated_at":          at,
		})
	return conditional(res)
}

func (r *payoutRepository) FindStaleExecuting(ctx context.Context, lockedBefore time.Time) ([]models.Payout, error) {
	var payouts []models.Payout
	if err := r.db.WithContext(ctx).
		Where("status = ? AND locked_at < ?", models.PayoutExecuting, lockedBefore).
		Order("locked_at ASC").
		Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}

// ExpireLock fails a payout whose lock is older than lockedBefore. It reports
// false when the execution finished in the meantime.
func (r *payoutRepository) ExpireLock(ctx context.Context, id string, lockedBefore time.Time, reason string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payout{}).
		Where("id = ? AND status = ? AND locked_at < ?", id, models.PayoutExecuting, lockedBefore).
		Updates(map[string]any{
			"status":         models.PayoutFailed,
			"failed_at":      at,
			"failure_reason": reason,
			"updated_at":     at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
