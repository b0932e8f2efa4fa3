package service

import (
	"time"

	"github.com/Eursukkul/booking-settlement/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	RoutingBookingCancelled     = "booking.cancelled"
	RoutingCancellationApproved = "cancellation.approved"
	RoutingCancellationRejected = "cancellation.rejected"
	RoutingRefundExecuted       = "refund.executed"
	RoutingPayoutPaid           = "payout.paid"
	RoutingPayoutFailed         = "payout.failed"
)

type BookingCancelledEvent struct {
	BookingID       string                       `json:"booking_id"`
	CancellationID  string                       `json:"cancellation_id"`
	Initiator       models.CancellationInitiator `json:"initiator"`
	Reason          models.CancellationReason    `json:"reason"`
	ResultingStatus models.BookingStatus         `json:"resulting_status"`
	ReviewRequired  bool                         `json:"review_required"`
	OccurredAt      time.Time                    `json:"occurred_at"`
}

type CancellationReviewedEvent struct {
	BookingID      string              `json:"booking_id"`
	CancellationID string              `json:"cancellation_id"`
	Decision       models.ReviewStatus `json:"decision"`
	OccurredAt     time.Time           `json:"occurred_at"`
}

type RefundExecutedEvent struct {
	ExecutionID        string    `json:"execution_id"`
	CancellationCaseID string    `json:"cancellation_case_id"`
	AmountCents        int64     `json:"amount_cents"`
	ExternalReference  string    `json:"external_reference"`
	OccurredAt         time.Time `json:"occurred_at"`
}

type PayoutEvent struct {
	PayoutID      string              `json:"payout_id"`
	BookingID     string              `json:"booking_id"`
	Status        models.PayoutStatus `json:"status"`
	FailureReason string              `json:"failure_reason,omitempty"`
	OccurredAt    time.Time           `json:"occurred_at"`
}

func publish(pub EventPublisher, log *logrus.Entry, key string, payload any) {
	if pub == nil {
		return
	}
	if err := pub.Publish(key, payload); err != nil {
		log.WithError(err).WithField("routing_key", key).Warn("failed to publish domain event")
	}
}
