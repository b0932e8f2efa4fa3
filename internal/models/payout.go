package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PayoutStatus string

const (
	PayoutPending    PayoutStatus = "PENDING"
	PayoutReadyToPay PayoutStatus = "READY_TO_PAY"
	// PayoutExecuting marks a payout locked by an in-flight execution.
	PayoutExecuting PayoutStatus = "EXECUTING"
	PayoutPaid      PayoutStatus = "PAID"
	PayoutFailed    PayoutStatus = "FAILED"
)

type Payout struct {
	ID                 string        `gorm:"type:varchar(36);primaryKey" json:"id"`
	BookingID          string        `gorm:"type:varchar(36);not null;index" json:"booking_id"`
	ArtistID           string        `gorm:"type:varchar(36);not null" json:"artist_id"`
	ManagerID          *string       `gorm:"type:varchar(36)" json:"manager_id,omitempty"`
	GrossAmountCents   int64         `gorm:"not null" json:"gross_amount_cents"`
	ArtistAmountCents  int64         `gorm:"not null" json:"artist_amount_cents"`
	ManagerAmountCents int64         `gorm:"not null;default:0" json:"manager_amount_cents"`
	PlatformFeeCents   int64         `gorm:"not null;default:0" json:"platform_fee_cents"`
	Currency           string        `gorm:"type:varchar(3);not null" json:"currency"`
	Status             PayoutStatus  `gorm:"type:varchar(16);not null;index" json:"status"`
	ExecutedBy         *ExecutorRole `gorm:"type:varchar(16)" json:"executed_by,omitempty"`
	LockedAt           *time.Time    `json:"locked_at,omitempty"`
	PaidAt             *time.Time    `json:"paid_at,omitempty"`
	FailedAt           *time.Time    `json:"failed_at,omitempty"`
	FailureReason      *string       `gorm:"type:text" json:"failure_reason,omitempty"`
	ArtistTransferRef  *string       `gorm:"type:varchar(128)" json:"artist_transfer_ref,omitempty"`
	ManagerTransferRef *string       `gorm:"type:varchar(128)" json:"manager_transfer_ref,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

func (p *Payout) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// HasManager reports whether a representative is attached to the payout.
func (p *Payout) HasManager() bool {
	return p.ManagerID != nil && *p.ManagerID != ""
}

// SplitIsBalanced checks artist + manager + fee == gross with a positive gross
// and no negative part. Parts are subtracted from gross so corrupted values
// cannot wrap around int64.
func (p *Payout) SplitIsBalanced() bool {
	if p.GrossAmountCents <= 0 {
		return false
	}
	remaining := p.GrossAmountCents
	for _, part := range []int64{p.ArtistAmountCents, p.ManagerAmountCents, p.PlatformFeeCents} {
		if part < 0 || part > remaining {
			return false
		}
		remaining -= part
	}
	return remaining == 0
}
