package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Eursukkul/booking-settlement/internal/service"
	"github.com/Eursukkul/booking-settlement/pkg/logger"
	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrNoRecipient   = errors.New("payee has no registered transfer recipient")
	ErrInvalidAmount = errors.New("transfer amount must be positive")

	// Omise transfers settle in the account currency; there is no per-transfer currency.
	ErrCurrencyMismatch = errors.New("transfer currency differs from account currency")
)

// NewOmiseClient builds the API client shared by the refund and transfer providers.
func NewOmiseClient(publicKey, secretKey string) (*omise.Client, error) {
	return omise.NewClient(publicKey, secretKey)
}

// OmiseRefundProvider refunds captured Omise charges. The payment reference
// is the charge id.
type OmiseRefundProvider struct {
	client *omise.Client
	log    *logrus.Entry
}

func NewOmiseRefundProvider(client *omise.Client) *OmiseRefundProvider {
	return &OmiseRefundProvider{client: client, log: logger.For("omise-refunds")}
}

func (p *OmiseRefundProvider) RefundPaymentIntent(ctx context.Context, paymentReference string, amountCents int64) (*service.RefundResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	refund := &omise.Refund{}
	if err := p.client.Do(refund, &operations.CreateRefund{
		ChargeID: paymentReference,
		Amount:   amountCents,
	}); err != nil {
		return nil, fmt.Errorf("omise refund on %s: %w", paymentReference, err)
	}

	p.log.WithFields(logrus.Fields{
		"charge_id": paymentReference,
		"refund_id": refund.ID,
		"amount":    amountCents,
	}).Info("omise refund created")
	return &service.RefundResult{ExternalReference: refund.ID}, nil
}

// RecipientDirectory resolves a payee to its Omise recipient id.
type RecipientDirectory interface {
	FindRecipientID(ctx context.Context, userID string) (string, error)
}

// OmiseTransferProvider sends payout legs to Omise recipients registered in
// the payee directory. Legs in any currency other than the account currency
// are rejected before the API is called.
type OmiseTransferProvider struct {
	client          *omise.Client
	payees          RecipientDirectory
	accountCurrency string
	log             *logrus.Entry
}

func NewOmiseTransferProvider(client *omise.Client, payees RecipientDirectory, accountCurrency string) *OmiseTransferProvider {
	return &OmiseTransferProvider{
		client:          client,
		payees:          payees,
		accountCurrency: accountCurrency,
		log:             logger.For("omise-transfers"),
	}
}

func (p *OmiseTransferProvider) TransferToArtist(ctx context.Context, artistID string, amountCents int64, currency, bookingID string) (string, error) {
	return p.transfer(ctx, "artist", artistID, amountCents, currency, bookingID)
}

func (p *OmiseTransferProvider) TransferToManager(ctx context.Context, managerID string, amountCents int64, currency, bookingID string) (string, error) {
	return p.transfer(ctx, "manager", managerID, amountCents, currency, bookingID)
}

func (p *OmiseTransferProvider) transfer(ctx context.Context, leg, payeeID string, amountCents int64, currency, bookingID string) (string, error) {
	if amountCents <= 0 {
		return "", ErrInvalidAmount
	}
	if !strings.EqualFold(currency, p.accountCurrency) {
		return "", fmt.Errorf("%s %s in %q, account settles in %q: %w", leg, payeeID, currency, p.accountCurrency, ErrCurrencyMismatch)
	}

	recipient, err := p.payees.FindRecipientID(ctx, payeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%s %s: %w", leg, payeeID, ErrNoRecipient)
		}
		return "", err
	}
	if recipient == "" {
		return "", fmt.Errorf("%s %s: %w", leg, payeeID, ErrNoRecipient)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	transfer := &omise.Transfer{}
	if err := p.client.Do(transfer, &operations.CreateTransfer{
		Amount:    amountCents,
		Recipient: recipient,
	}); err != nil {
		return "", fmt.Errorf("omise transfer to %s: %w", recipient, err)
	}

	p.log.WithFields(logrus.Fields{
		"leg":         leg,
		"booking_id":  bookingID,
		"recipient":   recipient,
		"transfer_id": transfer.ID,
		"amount":      amountCents,
		"currency":    currency,
	}).Info("omise transfer created")
	return transfer.ID, nil
}
