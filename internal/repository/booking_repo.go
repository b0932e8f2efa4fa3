package repository

import (
	"context"

	"github.com/Eursukkul/booking-settlement/internal/models"
	"gorm.io/gorm"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	FindByID(ctx context.Context, tx *gorm.DB, id string) (*models.Booking, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, booking *models.Booking, from models.BookingStatus) error
	GetDB() *gorm.DB
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *bookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, tx *gorm.DB, id string) (*models.Booking, error) {
	if tx == nil {
		tx = r.db
	}
	var booking models.Booking
	if err := tx.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// UpdateStatus persists booking.Status and UpdatedAt only if the stored status
// still equals from. A concurrent writer makes it return ErrStaleWrite.
func (r *bookingRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, booking *models.Booking, from models.BookingStatus) error {
	if tx == nil {
		tx = r.db
	}
	res := tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", booking.ID, from).
		Updates(map[string]any{"status": booking.Status, "updated_at": booking.UpdatedAt})
	return conditional(res)
}
