package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Eursukkul/booking-settlement/internal/metrics"
	"github.com/Eursukkul/booking-settlement/internal/models"
	"github.com/Eursukkul/booking-settlement/internal/repository"
	"github.com/Eursukkul/booking-settlement/pkg/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const maxDescriptionLength = 1000

type CancelInput struct {
	BookingID   string
	Initiator   models.CancellationInitiator
	Reason      models.CancellationReason
	Description *string
}

type CancelResult struct {
	BookingID       string
	CancellationID  string
	ResultingStatus models.BookingStatus
	ReviewRequired  bool
}

type ReviewResult struct {
	Booking *models.Booking
	Record  *models.CancellationRecord
}

type CancellationService interface {
	Cancel(ctx context.Context, in CancelInput) (*CancelResult, error)
	Approve(ctx context.Context, bookingID string) (*ReviewResult, error)
	Reject(ctx context.Context, bookingID string) (*ReviewResult, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListCancellations(ctx context.Context, bookingID string) ([]models.CancellationRecord, error)
}

type cancellationService struct {
	bookingRepo repository.BookingRepository
	cancelRepo  repository.CancellationRepository
	publisher   EventPublisher
	metrics     *metrics.Settlement
	log         *logrus.Entry
	now         func() time.Time
}

func NewCancellationService(
	bookingRepo repository.BookingRepository,
	cancelRepo repository.CancellationRepository,
	publisher EventPublisher,
	m *metrics.Settlement,
) CancellationService {
	return &cancellationService{
		bookingRepo: bookingRepo,
		cancelRepo:  cancelRepo,
		publisher:   publisher,
		metrics:     m,
		log:         logger.For("cancellation-service"),
		now:         time.Now,
	}
}

// ReviewRequired applies the initiator/reason rule table. Artists may only
// give artist reasons, organizer-side initiators may not. Only a justified
// artist cancellation goes to review.
func ReviewRequired(initiator models.CancellationInitiator, reason models.CancellationReason) (bool, error) {
	if !initiator.Valid() {
		return false, fmt.Errorf("initiator %q: %w", initiator, ErrInvalidInitiator)
	}
	if !reason.Valid() {
		return false, fmt.Errorf("reason %q: %w", reason, ErrInvalidReason)
	}
	if initiator == models.InitiatorArtist && !reason.IsArtistReason() {
		return false, fmt.Errorf("artist cannot cancel for %s: %w", reason, ErrInvalidReason)
	}
	if initiator.IsOrganizerSide() && reason.IsArtistReason() {
		return false, fmt.Errorf("%s cannot cancel for %s: %w", initiator, reason, ErrInvalidReason)
	}
	return initiator == models.InitiatorArtist && reason == models.ReasonArtistJustified, nil
}

func isCancellable(status models.BookingStatus) bool {
	return status == models.StatusContractSigned || status == models.StatusPaidPartial
}

func normalizeDescription(desc *string) (*string, error) {
	if desc == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*desc)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) > maxDescriptionLength {
		return nil, ErrInvalidDescription
	}
	return &trimmed, nil
}

func (s *cancellationService) Cancel(ctx context.Context, in CancelInput) (*CancelResult, error) {
	reviewRequired, err := ReviewRequired(in.Initiator, in.Reason)
	if err != nil {
		return nil, err
	}
	description, err := normalizeDescription(in.Description)
	if err != nil {
		return nil, err
	}

	resulting := models.StatusCancelled
	reviewStatus := models.ReviewNotRequired
	if reviewRequired {
		resulting = models.StatusCancelledPendingReview
		reviewStatus = models.ReviewPending
	}

	var record *models.CancellationRecord

	// Record append and status change commit together or not at all
	err = s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.bookingRepo.FindByID(ctx, tx, in.BookingID)
		if err != nil {
			return lookupError(err, ErrBookingNotFound)
		}
		if !isCancellable(booking.Status) {
			return fmt.Errorf("booking %s is %s: %w", booking.ID, booking.Status, ErrBookingNotCancellable)
		}

		previous := booking.Status
		if err := booking.ChangeStatus(resulting, s.now()); err != nil {
			return err
		}

		record = &models.CancellationRecord{
			BookingID:       booking.ID,
			Initiator:       in.Initiator,
			Reason:          in.Reason,
			Description:     description,
			PreviousStatus:  previous,
			ResultingStatus: resulting,
			ReviewStatus:    reviewStatus,
		}
		if err := s.cancelRepo.Create(ctx, tx, record); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return fmt.Errorf("%w: %w", ErrConcurrentUpdate, err)
			}
			return err
		}

		if err := s.bookingRepo.UpdateStatus(ctx, tx, booking, previous); err != nil {
			if errors.Is(err, repository.ErrStaleWrite) {
				return fmt.Errorf("booking %s: %w", booking.ID, ErrConcurrentUpdate)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordCancellation(string(in.Initiator), reviewRequired)
	s.log.WithFields(logrus.Fields{
		"booking_id":      in.BookingID,
		"cancellation_id": record.ID,
		"initiator":       in.Initiator,
		"reason":          in.Reason,
		"review_required": reviewRequired,
	}).Info("booking cancelled")

	publish(s.publisher, s.log, RoutingBookingCancelled, BookingCancelledEvent{
		BookingID:       in.BookingID,
		CancellationID:  record.ID,
		Initiator:       in.Initiator,
		Reason:          in.Reason,
		ResultingStatus: resulting,
		ReviewRequired:  reviewRequired,
		OccurredAt:      s.now(),
	})

	return &CancelResult{
		BookingID:       in.BookingID,
		CancellationID:  record.ID,
		ResultingStatus: resulting,
		ReviewRequired:  reviewRequired,
	}, nil
}

func (s *cancellationService) Approve(ctx context.Context, bookingID string) (*ReviewResult, error) {
	return s.resolveReview(ctx, bookingID, models.ReviewApproved)
}

func (s *cancellationService) Reject(ctx context.Context, bookingID string) (*ReviewResult, error) {
	return s.resolveReview(ctx, bookingID, models.ReviewRejected)
}

// resolveReview closes the single pending review and finalizes the booking as
// CANCELLED. Approval and rejection differ only in the recorded decision.
func (s *cancellationService) resolveReview(ctx context.Context, bookingID string, decision models.ReviewStatus) (*ReviewResult, error) {
	var result ReviewResult

	err := s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.bookingRepo.FindByID(ctx, tx, bookingID)
		if err != nil {
			return lookupError(err, ErrBookingNotFound)
		}
		if booking.Status != models.StatusCancelledPendingReview {
			return fmt.Errorf("booking %s is %s: %w", booking.ID, booking.Status, ErrBookingNotUnderReview)
		}

		pending, err := s.cancelRepo.FindPendingByBookingID(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		switch len(pending) {
		case 0:
			return fmt.Errorf("booking %s: %w", bookingID, ErrNoPendingReview)
		case 1:
		default:
			s.log.WithFields(logrus.Fields{
				"booking_id": bookingID,
				"pending":    len(pending),
			}).Error("data integrity fault: multiple pending cancellation reviews")
			return fmt.Errorf("booking %s has %d pending reviews: %w", bookingID, len(pending), ErrMultiplePending)
		}

		record := pending[0]
		now := s.now()
		if err := s.cancelRepo.UpdateReviewStatus(ctx, tx, record.ID, decision, now); err != nil {
			if errors.Is(err, repository.ErrStaleWrite) {
				return fmt.Errorf("cancellation %s: %w", record.ID, ErrConcurrentUpdate)
			}
			return err
		}
		record.ReviewStatus = decision
		record.ReviewedAt = &now

		previous := booking.Status
		if err := booking.ChangeStatus(models.StatusCancelled, now); err != nil {
			return err
		}
		if err := s.bookingRepo.UpdateStatus(ctx, tx, booking, previous); err != nil {
			if errors.Is(err, repository.ErrStaleWrite) {
				return fmt.Errorf("booking %s: %w", booking.ID, ErrConcurrentUpdate)
			}
			return err
		}

		result.Booking = booking
		result.Record = &record
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordReview(strings.ToLower(string(decision)))
	s.log.WithFields(logrus.Fields{
		"booking_id":      bookingID,
		"cancellation_id": result.Record.ID,
		"decision":        decision,
	}).Info("cancellation review resolved")

	key := RoutingCancellationApproved
	if decision == models.ReviewRejected {
		key = RoutingCancellationRejected
	}
	publish(s.publisher, s.log, key, CancellationReviewedEvent{
		BookingID:      bookingID,
		CancellationID: result.Record.ID,
		Decision:       decision,
		OccurredAt:     s.now(),
	})

	return &result, nil
}

func (s *cancellationService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, lookupError(err, ErrBookingNotFound)
	}
	return booking, nil
}

func (s *cancellationService) ListCancellations(ctx context.Context, bookingID string) ([]models.CancellationRecord, error) {
	if _, err := s.GetBooking(ctx, bookingID); err != nil {
		return nil, err
	}
	return s.cancelRepo.FindByBookingID(ctx, bookingID)
}

// lookupError maps a missing row to notFound and passes other errors through.
func lookupError(err error, notFound *Error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}
