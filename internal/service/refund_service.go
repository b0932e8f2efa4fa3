package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Eursukkul/booking-settlement/internal/metrics"
	"github.com/Eursukkul/booking-settlement/internal/models"
	"github.com/Eursukkul/booking-settlement/internal/repository"
	"github.com/Eursukkul/booking-settlement/pkg/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type RefundInput struct {
	CancellationCaseID string
	PaymentReference   string
	AmountCents        int64
	ExecutedByUserID   string
	ExecutedByRole     models.ExecutorRole
}

type RefundService interface {
	ExecuteRefund(ctx context.Context, in RefundInput) (*models.CancellationEconomicExecution, error)
}

type refundService struct {
	cancelRepo repository.CancellationRepository
	execRepo   repository.ExecutionRepository
	provider   RefundProvider
	publisher  EventPublisher
	metrics    *metrics.Settlement
	log        *logrus.Entry
	now        func() time.Time
}

func NewRefundService(
	cancelRepo repository.CancellationRepository,
	execRepo repository.ExecutionRepository,
	provider RefundProvider,
	publisher EventPublisher,
	m *metrics.Settlement,
) RefundService {
	return &refundService{
		cancelRepo: cancelRepo,
		execRepo:   execRepo,
		provider:   provider,
		publisher:  publisher,
		metrics:    m,
		log:        logger.For("refund-service"),
		now:        time.Now,
	}
}

// ExecuteRefund refunds the payment behind a cancellation case at most once.
// The execution row is claimed before the provider is called so that the
// unique index on the case id arbitrates concurrent requests. A provider
// failure releases the claim and leaves nothing persisted.
func (s *refundService) ExecuteRefund(ctx context.Context, in RefundInput) (*models.CancellationEconomicExecution, error) {
	in.PaymentReference = strings.TrimSpace(in.PaymentReference)
	if in.AmountCents <= 0 || in.PaymentReference == "" {
		return nil, ErrInvalidRefund
	}
	if !in.ExecutedByRole.Valid() || in.ExecutedByUserID == "" {
		return nil, ErrInvalidExecutor
	}

	log := s.log.WithField("case_id", in.CancellationCaseID)

	record, err := s.cancelRepo.FindByID(ctx, in.CancellationCaseID)
	if err != nil {
		return nil, lookupError(err, ErrCancellationNotFound)
	}
	if record.ReviewStatus == models.ReviewPending {
		return nil, fmt.Errorf("case %s: %w", record.ID, ErrCaseUnderReview)
	}

	if _, err := s.execRepo.FindByCancellationCaseID(ctx, in.CancellationCaseID); err == nil {
		s.metrics.RecordRefund("duplicate")
		return nil, ErrAlreadyExecuted
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	execution := &models.CancellationEconomicExecution{
		CancellationCaseID: in.CancellationCaseID,
		ResolutionType:     models.ResolutionRefund,
		AmountCents:        in.AmountCents,
		PaymentReference:   in.PaymentReference,
		ExecutedByUserID:   in.ExecutedByUserID,
		ExecutedByRole:     in.ExecutedByRole,
	}
	if err := s.execRepo.Claim(ctx, execution); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.metrics.RecordRefund("duplicate")
			return nil, ErrAlreadyExecuted
		}
		return nil, err
	}

	result, err := s.provider.RefundPaymentIntent(ctx, in.PaymentReference, in.AmountCents)
	if err == nil && (result == nil || result.ExternalReference == "") {
		err = errors.New("provider returned no refund reference")
	}
	if err != nil {
		if releaseErr := s.execRepo.Release(context.WithoutCancel(ctx), execution.ID); releaseErr != nil {
			log.WithError(releaseErr).Error("failed to release refund claim, case is blocked until cleared manually")
		}
		s.metrics.RecordRefund("provider_failure")
		log.WithError(err).Warn("refund provider call failed")
		return nil, fmt.Errorf("%w: %w", ErrProviderFailure, err)
	}

	executedAt := s.now()
	if err := s.execRepo.Complete(context.WithoutCancel(ctx), execution.ID, result.ExternalReference, executedAt); err != nil {
		// Money has moved. Keep the claim in place so the case cannot be refunded twice.
		log.WithError(err).WithField("external_reference", result.ExternalReference).
			Error("refund succeeded but receipt could not be stored")
		return nil, err
	}
	execution.ExternalRefundReference = &result.ExternalReference
	execution.ExecutedAt = &executedAt

	s.metrics.RecordRefund("executed")
	log.WithFields(logrus.Fields{
		"execution_id":       execution.ID,
		"amount_cents":       in.AmountCents,
		"external_reference": result.ExternalReference,
	}).Info("refund executed")

	publish(s.publisher, log, RoutingRefundExecuted, RefundExecutedEvent{
		ExecutionID:        execution.ID,
		CancellationCaseID: in.CancellationCaseID,
		AmountCents:        in.AmountCents,
		ExternalReference:  result.ExternalReference,
		OccurredAt:         executedAt,
	})

	return execution, nil
}
