package repository

import (
	"context"

	"github.com/Eursukkul/booking-settlement/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PayeeRepository interface {
	Upsert(ctx context.Context, account *models.PayeeAccount) error
	FindRecipientID(ctx context.Context, userID string) (string, error)
}

type payeeRepository struct {
	db *gorm.DB
}

func NewPayeeRepository(db *gorm.DB) PayeeRepository {
	return &payeeRepository{db: db}
}

func (r *payeeRepository) Upsert(ctx context.Context, account *models.PayeeAccount) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"recipient_id", "updated_at"}),
	}).Create(account).Error
}

func (r *payeeRepository) FindRecipientID(ctx context.Context, userID string) (string, error) {
	var account models.PayeeAccount
	if err := r.db.WithContext(ctx).First(&account, "user_id = ?", userID).Error; err != nil {
		return "", err
	}
	return account.RecipientID, nil
}
