package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Eursukkul/booking-settlement/internal/models"
	"gorm.io/gorm"
)

type ExecutionRepository interface {
	FindByCancellationCaseID(ctx context.Context, caseID string) (*models.CancellationEconomicExecution, error)
	Claim(ctx context.Context, execution *models.CancellationEconomicExecution) error
	Complete(ctx context.Context, id, externalReference string, at time.Time) error
	Release(ctx context.Context, id string) error
}

type executionRepository struct {
	db *gorm.DB
}

func NewExecutionRepository(db *gorm.DB) ExecutionRepository {
	return &executionRepository{db: db}
}

func (r *executionRepository) FindByCancellationCaseID(ctx context.Context, caseID string) (*models.CancellationEconomicExecution, error) {
	var execution models.CancellationEconomicExecution
	if err := r.db.WithContext(ctx).
		Where("cancellation_case_id = ?", caseID).
		First(&execution).Error; err != nil {
		return nil, err
	}
	return &execution, nil
}

// Claim inserts the execution before the provider is called. The unique index
// on cancellation_case_id turns a concurrent second claim into ErrDuplicate.
func (r *executionRepository) Claim(ctx context.Context, execution *models.CancellationEconomicExecution) error {
	if err := r.db.WithContext(ctx).Create(execution).Error; err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("execution for case %s: %w", execution.CancellationCaseID, ErrDuplicate)
		}
		return err
	}
	return nil
}

func (r *executionRepository) Complete(ctx context.Context, id, externalReference string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.CancellationEconomicExecution{}).
		Where("id = ? AND external_refund_reference IS NULL", id).
		Updates(map[string]any{"external_refund_reference": externalReference, "executed_at": at})
	return conditional(res)
}

// Release removes an unfinished claim so the case can be retried.
func (r *executionRepository) Release(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND external_refund_reference IS NULL", id).
		Delete(&models.CancellationEconomicExecution{}).Error
}
