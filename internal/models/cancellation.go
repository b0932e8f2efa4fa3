package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CancellationInitiator string

const (
	InitiatorArtist   CancellationInitiator = "ARTIST"
	InitiatorVenue    CancellationInitiator = "VENUE"
	InitiatorPromoter CancellationInitiator = "PROMOTER"
)

func (i CancellationInitiator) Valid() bool {
	switch i {
	case InitiatorArtist, InitiatorVenue, InitiatorPromoter:
		return true
	}
	return false
}

// IsOrganizerSide reports whether the initiator acts for the organizing party.
func (i CancellationInitiator) IsOrganizerSide() bool {
	return i == InitiatorVenue || i == InitiatorPromoter
}

type CancellationReason string

const (
	ReasonArtistJustified   CancellationReason = "ARTIST_JUSTIFIED"
	ReasonArtistUnjustified CancellationReason = "ARTIST_UNJUSTIFIED"
	ReasonVenue             CancellationReason = "VENUE"
	ReasonPromoter          CancellationReason = "PROMOTER"
)

func (r CancellationReason) Valid() bool {
	switch r {
	case ReasonArtistJustified, ReasonArtistUnjustified, ReasonVenue, ReasonPromoter:
		return true
	}
	return false
}

func (r CancellationReason) IsArtistReason() bool {
	return r == ReasonArtistJustified || r == ReasonArtistUnjustified
}

type ReviewStatus string

const (
	ReviewPending     ReviewStatus = "PENDING"
	ReviewApproved    ReviewStatus = "APPROVED"
	ReviewRejected    ReviewStatus = "REJECTED"
	ReviewNotRequired ReviewStatus = "NOT_REQUIRED"
)

// CancellationRecord is the audit entry of one cancellation decision. Only
// ReviewStatus changes after insert, and only from PENDING.
type CancellationRecord struct {
	ID              string                `gorm:"type:varchar(36);primaryKey" json:"id"`
	BookingID       string                `gorm:"type:varchar(36);not null;index" json:"booking_id"`
	Initiator       CancellationInitiator `gorm:"type:varchar(16);not null" json:"initiator"`
	Reason          CancellationReason    `gorm:"type:varchar(32);not null" json:"reason"`
	Description     *string               `gorm:"type:text" json:"description,omitempty"`
	PreviousStatus  BookingStatus         `gorm:"type:varchar(32);not null" json:"previous_status"`
	ResultingStatus BookingStatus         `gorm:"type:varchar(32);not null" json:"resulting_status"`
	ReviewStatus    ReviewStatus          `gorm:"type:varchar(16);not null" json:"review_status"`
	ReviewedAt      *time.Time            `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
}

func (c *CancellationRecord) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
