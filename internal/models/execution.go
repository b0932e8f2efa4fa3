package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ResolutionType string

const ResolutionRefund ResolutionType = "REFUND"

type ExecutorRole string

const (
	RoleSystem ExecutorRole = "SYSTEM"
	RoleAdmin  ExecutorRole = "ADMIN"
)

func (r ExecutorRole) Valid() bool {
	return r == RoleSystem || r == RoleAdmin
}

// CancellationEconomicExecution records the money movement for a cancellation
// case. cancellation_case_id is unique: one execution per case, ever.
// ExternalRefundReference is nil while the provider call is in flight.
type CancellationEconomicExecution struct {
	ID                      string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	CancellationCaseID      string         `gorm:"type:varchar(36);not null;uniqueIndex:idx_execution_case" json:"cancellation_case_id"`
	ResolutionType          ResolutionType `gorm:"type:varchar(16);not null" json:"resolution_type"`
	AmountCents             int64          `gorm:"not null" json:"amount_cents"`
	PaymentReference        string         `gorm:"type:varchar(128);not null" json:"payment_reference"`
	ExecutedByUserID        string         `gorm:"type:varchar(36);not null" json:"executed_by_user_id"`
	ExecutedByRole          ExecutorRole   `gorm:"type:varchar(16);not null" json:"executed_by_role"`
	ExternalRefundReference *string        `gorm:"type:varchar(128)" json:"external_refund_reference,omitempty"`
	ExecutedAt              *time.Time     `json:"executed_at,omitempty"`
	CreatedAt               time.Time      `json:"created_at"`
}

func (e *CancellationEconomicExecution) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
