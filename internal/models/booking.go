package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	StatusPending                BookingStatus = "PENDING"
	StatusNegotiating            BookingStatus = "NEGOTIATING"
	StatusFinalOfferSent         BookingStatus = "FINAL_OFFER_SENT"
	StatusAccepted               BookingStatus = "ACCEPTED"
	StatusContractSigned         BookingStatus = "CONTRACT_SIGNED"
	StatusPaidPartial            BookingStatus = "PAID_PARTIAL"
	StatusPaidFull               BookingStatus = "PAID_FULL"
	StatusCompleted              BookingStatus = "COMPLETED"
	StatusCancelledPendingReview BookingStatus = "CANCELLED_PENDING_REVIEW"
	StatusCancelled              BookingStatus = "CANCELLED"
)

// ErrIllegalTransition is wrapped by every rejected status change.
var ErrIllegalTransition = errors.New("illegal booking status transition")

var allowedTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:                {StatusNegotiating, StatusAccepted},
	StatusNegotiating:            {StatusFinalOfferSent, StatusAccepted},
	StatusFinalOfferSent:         {StatusNegotiating, StatusAccepted},
	StatusAccepted:               {StatusContractSigned},
	StatusContractSigned:         {StatusPaidPartial, StatusPaidFull, StatusCancelled, StatusCancelledPendingReview},
	StatusPaidPartial:            {StatusPaidFull, StatusCancelled, StatusCancelledPendingReview},
	StatusPaidFull:               {StatusCompleted},
	StatusCancelledPendingReview: {StatusCancelled},
}

// IsTerminal reports whether no transition leaves the status.
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ValidateTransition checks a status change against the booking state machine.
func ValidateTransition(current, next BookingStatus) error {
	for _, state := range allowedTransitions[current] {
		if state == next {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current, next)
}

type Booking struct {
	ID         string        `gorm:"type:varchar(36);primaryKey" json:"id"`
	ArtistID   string        `gorm:"type:varchar(36);not null;index" json:"artist_id"`
	VenueID    string        `gorm:"type:varchar(36);index" json:"venue_id"`
	PromoterID string        `gorm:"type:varchar(36);index" json:"promoter_id"`
	Status     BookingStatus `gorm:"type:varchar(32);not null;default:'PENDING'" json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// ChangeStatus is the only mutator of Status. It rejects transitions outside
// the state machine and leaves the booking untouched in that case.
func (b *Booking) ChangeStatus(to BookingStatus, at time.Time) error {
	if err := ValidateTransition(b.Status, to); err != nil {
		return err
	}
	b.Status = to
	b.UpdatedAt = at
	return nil
}
