package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Eursukkul/booking-settlement/internal/models"
	"gorm.io/gorm"
)

type CancellationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, record *models.CancellationRecord) error
	FindByID(ctx context.Context, id string) (*models.CancellationRecord, error)
	FindByBookingID(ctx context.Context, bookingID string) ([]models.CancellationRecord, error)
	FindPendingByBookingID(ctx context.Context, tx *gorm.DB, bookingID string) ([]models.CancellationRecord, error)
	UpdateReviewStatus(ctx context.Context, tx *gorm.DB, recordID string, status models.ReviewStatus, at time.Time) error
}

type cancellationRepository struct {
	db *gorm.DB
}

func NewCancellationRepository(db *gorm.DB) CancellationRepository {
	return &cancellationRepository{db: db}
}

func (r *cancellationRepository) Create(ctx context.Context, tx *gorm.DB, record *models.CancellationRecord) error {
	if err := tx.WithContext(ctx).Create(record).Error; err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("cancellation for booking %s: %w", record.BookingID, ErrDuplicate)
		}
		return err
	}
	return nil
}

func (r *cancellationRepository) FindByID(ctx context.Context, id string) (*models.CancellationRecord, error) {
	var record models.CancellationRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *cancellationRepository) FindByBookingID(ctx context.Context, bookingID string) ([]models.CancellationRecord, error) {
	var records []models.CancellationRecord
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *cancellationRepository) FindPendingByBookingID(ctx context.Context, tx *gorm.DB, bookingID string) ([]models.CancellationRecord, error) {
	if tx == nil {
		tx = r.db
	}
	var records []models.CancellationRecord
	if err := tx.WithContext(ctx).
		Where("booking_id = ? AND review_status = ?", bookingID, models.ReviewPending).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// UpdateReviewStatus closes a PENDING review exactly once.
func (r *cancellationRepository) UpdateReviewStatus(ctx context.Context, tx *gorm.DB, recordID string, status models.ReviewStatus, at time.Time) error {
	res := tx.WithContext(ctx).
		Model(&models.CancellationRecord{}).
		Where("id = ? AND review_status = ?", recordID, models.ReviewPending).
		Updates(map[string]any{"review_status": status, "reviewed_at": at})
	return conditional(res)
}
