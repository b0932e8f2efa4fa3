package service

import "context"

// TransferProvider moves payout funds to payees. Each call returns the
// provider's transfer reference.
type TransferProvider interface {
	TransferToArtist(ctx context.Context, artistID string, amountCents int64, currency, bookingID string) (string, error)
	TransferToManager(ctx context.Context, managerID string, amountCents int64, currency, bookingID string) (string, error)
}

type RefundResult struct {
	ExternalReference string
}

// RefundProvider refunds a captured payment.
type RefundProvider interface {
	RefundPaymentIntent(ctx context.Context, paymentReference string, amountCents int64) (*RefundResult, error)
}

// FundsRetention answers whether funds held against a booking cover an amount.
type FundsRetention interface {
	HasSufficientFunds(ctx context.Context, bookingID string, amountCents int64) (bool, error)
}

// EventPublisher emits domain events. Publishing is best effort.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}
