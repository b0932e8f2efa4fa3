package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Eursukkul/booking-settlement/internal/metrics"
	"github.com/Eursukkul/booking-settlement/internal/models"
	"github.com/Eursukkul/booking-settlement/internal/repository"
	"github.com/Eursukkul/booking-settlement/pkg/logger"
	"github.com/sirupsen/logrus"
)

const lockExpiredReason = "execution lock expired"

type PayoutService interface {
	ExecutePayout(ctx context.Context, payoutID string, executedBy models.ExecutorRole) error
	GetPayout(ctx context.Context, id string) (*models.Payout, error)
	ReapStaleLocks(ctx context.Context, ttl time.Duration) (int, error)
}

type payoutService struct {
	payoutRepo  repository.PayoutRepository
	bookingRepo repository.BookingRepository
	funds       FundsRetention
	transfers   TransferProvider
	publisher   EventPublisher
	metrics     *metrics.Settlement
	log         *logrus.Entry
	now         func() time.Time
}

func NewPayoutService(
	payoutRepo repository.PayoutRepository,
	bookingRepo repository.BookingRepository,
	funds FundsRetention,
	transfers TransferProvider,
	publisher EventPublisher,
	m *metrics.Settlement,
) PayoutService {
	return &payoutService{
		payoutRepo:  payoutRepo,
		bookingRepo: bookingRepo,
		funds:       funds,
		transfers:   transfers,
		publisher:   publisher,
		metrics:     m,
		log:         logger.For("payout-service"),
		now:         time.Now,
	}
}

func (s *payoutService) GetPayout(ctx context.Context, id string) (*models.Payout, error) {
	payout, err := s.payoutRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrPayoutNotFound)
	}
	return payout, nil
}

// ExecutePayout transfers a READY_TO_PAY payout to its payees. Calling it on
// a PAID payout is a no-op. Every precondition is checked before the lock is
// taken, and every transfer failure is persisted as FAILED before it is
// returned.
func (s *payoutService) ExecutePayout(ctx context.Context, payoutID string, executedBy models.ExecutorRole) error {
	if !executedBy.Valid() {
		return ErrInvalidExecutor
	}
	log := s.log.WithFields(logrus.Fields{"payout_id": payoutID, "executed_by": executedBy})

	payout, err := s.GetPayout(ctx, payoutID)
	if err != nil {
		return err
	}
	switch payout.Status {
	case models.PayoutPaid:
		log.Debug("payout already paid, nothing to do")
		s.metrics.RecordPayout("noop", 0)
		return nil
	case models.PayoutReadyToPay:
	case models.PayoutExecuting:
		return ErrPayoutLocked
	default:
		return fmt.Errorf("payout %s is %s: %w", payout.ID, payout.Status, ErrPayoutNotPayable)
	}

	booking, err := s.bookingRepo.FindByID(ctx, nil, payout.BookingID)
	if err != nil {
		return lookupError(err, ErrBookingNotFound)
	}
	if booking.Status != models.StatusCompleted {
		return fmt.Errorf("booking %s is %s: %w", booking.ID, booking.Status, ErrBookingNotCompleted)
	}

	ok, err := s.funds.HasSufficientFunds(ctx, payout.BookingID, payout.GrossAmountCents)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("booking %s needs %d: %w", payout.BookingID, payout.GrossAmountCents, ErrInsufficientFunds)
	}

	if !payout.SplitIsBalanced() {
		log.WithFields(logrus.Fields{
			"gross":    payout.GrossAmountCents,
			"artist":   payout.ArtistAmountCents,
			"manager":  payout.ManagerAmountCents,
			"platform": payout.PlatformFeeCents,
		}).Error("payout split does not reconcile")
		return ErrInvalidSplit
	}

	locked, err := s.payoutRepo.AcquireLock(ctx, payout.ID, executedBy, s.now())
	if err != nil {
		return err
	}
	if !locked {
		current, err := s.GetPayout(ctx, payout.ID)
		if err != nil {
			return err
		}
		if current.Status == models.PayoutPaid {
			s.metrics.RecordPayout("noop", 0)
			return nil
		}
		s.metrics.RecordPayout("conflict", 0)
		return ErrPayoutLocked
	}

	started := time.Now()
	artistRef, err := s.transfers.TransferToArtist(ctx, payout.ArtistID, payout.ArtistAmountCents, payout.Currency, payout.BookingID)
	if err != nil {
		return s.fail(ctx, log, payout, fmt.Sprintf("artist transfer failed: %v", err), nil, err, started)
	}

	var managerRef *string
	if payout.ManagerAmountCents > 0 && !payout.HasManager() {
		log.WithField("manager_amount", payout.ManagerAmountCents).
			Warn("manager share has no manager, leg skipped")
	}
	if payout.ManagerAmountCents > 0 && payout.HasManager() {
		ref, err := s.transfers.TransferToManager(ctx, *payout.ManagerID, payout.ManagerAmountCents, payout.Currency, payout.BookingID)
		if err != nil {
			// The artist leg already moved money. Operators reconcile from FAILED.
			reason := fmt.Sprintf("manager transfer failed after artist transfer %s: %v", artistRef, err)
			return s.fail(ctx, log, payout, reason, &artistRef, err, started)
		}
		managerRef = &ref
	}

	if err := s.payoutRepo.MarkPaid(context.WithoutCancel(ctx), payout.ID, artistRef, managerRef, s.now()); err != nil {
		log.WithError(err).WithField("artist_transfer_ref", artistRef).
			Error("transfers completed but payout could not be marked paid")
		return err
	}

	s.metrics.RecordPayout("paid", time.Since(started))
	log.WithFields(logrus.Fields{
		"booking_id":          payout.BookingID,
		"artist_transfer_ref": artistRef,
	}).Info("payout paid")

	publish(s.publisher, log, RoutingPayoutPaid, PayoutEvent{
		PayoutID:   payout.ID,
		BookingID:  payout.BookingID,
		Status:     models.PayoutPaid,
		OccurredAt: s.now(),
	})
	return nil
}

// fail persists FAILED with reason and returns the provider error wrapped as
// PROVIDER_FAILURE. The write ignores caller cancellation so the payout is
// never left EXECUTING because the request went away.
func (s *payoutService) fail(
	ctx context.Context,
	log *logrus.Entry,
	payout *models.Payout,
	reason string,
	artistRef *string,
	cause error,
	started time.Time,
) error {
	if err := s.payoutRepo.MarkFailed(context.WithoutCancel(ctx), payout.ID, reason, artistRef, s.now()); err != nil {
		log.WithError(err).Error("payout transfer failed and FAILED state could not be stored")
		return errors.Join(fmt.Errorf("%w: %w", ErrProviderFailure, cause), err)
	}

	s.metrics.RecordPayout("failed", time.Since(started))
	entry := log.WithError(cause).WithField("booking_id", payout.BookingID)
	if artistRef != nil {
		entry = entry.WithField("artist_transfer_ref", *artistRef)
		entry.Error("payout partially transferred, manual reconciliation required")
	} else {
		entry.Warn("payout transfer failed")
	}

	publish(s.publisher, log, RoutingPayoutFailed, PayoutEvent{
		PayoutID:      payout.ID,
		BookingID:     payout.BookingID,
		Status:        models.PayoutFailed,
		FailureReason: reason,
		OccurredAt:    s.now(),
	})
	return fmt.Errorf("%w: %w", ErrProviderFailure, cause)
}

// ReapStaleLocks fails payouts that have been EXECUTING for longer than ttl.
// Transfers are never retried here since a stale lock may hide a transfer
// that went through.
func (s *payoutService) ReapStaleLocks(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := s.now().Add(-ttl)
	stale, err := s.payoutRepo.FindStaleExecuting(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	reaped := 0
	for _, payout := range stale {
		expired, err := s.payoutRepo.ExpireLock(ctx, payout.ID, cutoff, lockExpiredReason, s.now())
		if err != nil {
			return reaped, err
		}
		if !expired {
			continue
		}
		reaped++
		s.metrics.RecordPayout("expired", 0)
		s.log.WithFields(logrus.Fields{
			"payout_id":  payout.ID,
			"booking_id": payout.BookingID,
			"locked_at":  payout.LockedAt,
		}).Warn("payout execution lock expired, marked FAILED for reconciliation")

		publish(s.publisher, s.log, RoutingPayoutFailed, PayoutEvent{
			PayoutID:      payout.ID,
			BookingID:     payout.BookingID,
			Status:        models.PayoutFailed,
			FailureReason: lockExpiredReason,
			OccurredAt:    s.now(),
		})
	}
	return reaped, nil
}
