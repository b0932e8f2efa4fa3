package dto

import (
	"time"

	"github.com/Eursukkul/booking-settlement/internal/models"
	"github.com/Eursukkul/booking-settlement/internal/service"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type BookingResponse struct {
	ID         string               `json:"id"`
	ArtistID   string               `json:"artist_id"`
	VenueID    string               `json:"venue_id,omitempty"`
	PromoterID string               `json:"promoter_id,omitempty"`
	Status     models.BookingStatus `json:"status"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

type CancelBookingResponse struct {
	BookingID       string               `json:"booking_id"`
	CancellationID  string               `json:"cancellation_id"`
	ResultingStatus models.BookingStatus `json:"resulting_status"`
	ReviewRequired  bool                 `json:"review_required"`
}

type CancellationResponse struct {
	ID              string                       `json:"id"`
	BookingID       string                       `json:"booking_id"`
	Initiator       models.CancellationInitiator `json:"initiator"`
	Reason          models.CancellationReason    `json:"reason"`
	Description     *string                      `json:"description,omitempty"`
	PreviousStatus  models.BookingStatus         `json:"previous_status"`
	ResultingStatus models.BookingStatus         `json:"resulting_status"`
	ReviewStatus    models.ReviewStatus          `json:"review_status"`
	ReviewedAt      *time.Time                   `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time                    `json:"created_at"`
}

type ReviewResponse struct {
	BookingID     string               `json:"booking_id"`
	BookingStatus models.BookingStatus `json:"booking_status"`
	Cancellation  CancellationResponse `json:"cancellation"`
}

type RefundResponse struct {
	ID                      string              `json:"id"`
	CancellationCaseID      string              `json:"cancellation_case_id"`
	AmountCents             int64               `json:"amount_cents"`
	ExternalRefundReference *string             `json:"external_refund_reference"`
	ExecutedByUserID        string              `json:"executed_by_user_id"`
	ExecutedByRole          models.ExecutorRole `json:"executed_by_role"`
	ExecutedAt              *time.Time          `json:"executed_at"`
}

func ToBookingResponse(b *models.Booking) BookingResponse {
	return BookingResponse{
		ID:         b.ID,
		ArtistID:   b.ArtistID,
		VenueID:    b.VenueID,
		PromoterID: b.PromoterID,
		Status:     b.Status,
		UpdatedAt:  b.UpdatedAt,
	}
}

func ToCancelBookingResponse(r *service.CancelResult) CancelBookingResponse {
	return CancelBookingResponse{
		BookingID:       r.BookingID,
		CancellationID:  r.CancellationID,
		ResultingStatus: r.ResultingStatus,
		ReviewRequired:  r.ReviewRequired,
	}
}

func ToCancellationResponse(r *models.CancellationRecord) CancellationResponse {
	return CancellationResponse{
		ID:              r.ID,
		BookingID:       r.BookingID,
		Initiator:       r.Initiator,
		Reason:          r.Reason,
		Description:     r.Description,
		PreviousStatus:  r.PreviousStatus,
		ResultingStatus: r.ResultingStatus,
		ReviewStatus:    r.ReviewStatus,
		ReviewedAt:      r.ReviewedAt,
		CreatedAt:       r.CreatedAt,
	}
}

func ToReviewResponse(r *service.ReviewResult) ReviewResponse {
	return ReviewResponse{
		BookingID:     r.Booking.ID,
		BookingStatus: r.Booking.Status,
		Cancellation:  ToCancellationResponse(r.Record),
	}
}

func ToRefundResponse(e *models.CancellationEconomicExecution) RefundResponse {
	return RefundResponse{
		ID:                      e.ID,
		CancellationCaseID:      e.CancellationCaseID,
		AmountCents:             e.AmountCents,
		ExternalRefundReference: e.ExternalRefundReference,
		ExecutedByUserID:        e.ExecutedByUserID,
		ExecutedByRole:          e.ExecutedByRole,
		ExecutedAt:              e.ExecutedAt,
	}
}
