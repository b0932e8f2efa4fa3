package dto

import "github.com/Eursukkul/booking-settlement/internal/models"

type CancelBookingRequest struct {
	Initiator   models.CancellationInitiator `json:"initiator" validate:"required"`
	Reason      models.CancellationReason    `json:"reason" validate:"required"`
	Description *string                      `json:"description"`
}

type ExecuteRefundRequest struct {
	PaymentReference string `json:"payment_reference" validate:"required"`
	AmountCents      int64  `json:"amount_cents" validate:"required,gt=0"`
}

// PayoutCommand is the body of a payout.execute message.
type PayoutCommand struct {
	PayoutID   string              `json:"payout_id" validate:"required"`
	ExecutedBy models.ExecutorRole `json:"executed_by" validate:"required,oneof=SYSTEM ADMIN"`
}
