package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FundMovement string

const (
	FundHold    FundMovement = "HOLD"
	FundRelease FundMovement = "RELEASE"
)

// RetainedFund is one entry of the per-booking retention ledger. The balance
// is the sum of HOLD amounts minus RELEASE amounts.
type RetainedFund struct {
	ID          string       `gorm:"type:varchar(36);primaryKey" json:"id"`
	BookingID   string       `gorm:"type:varchar(36);not null;index" json:"booking_id"`
	Movement    FundMovement `gorm:"type:varchar(16);not null" json:"movement"`
	AmountCents int64        `gorm:"not null" json:"amount_cents"`
	Reference   string       `gorm:"type:varchar(128)" json:"reference"`
	CreatedAt   time.Time    `json:"created_at"`
}

func (f *RetainedFund) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// PayeeAccount maps a platform user to the recipient registered with the
// payment provider.
type PayeeAccount struct {
	UserID      string    `gorm:"type:varchar(36);primaryKey" json:"user_id"`
	RecipientID string    `gorm:"type:varchar(128);not null" json:"recipient_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
