package models

import (
	"time"

	"gorm.io/datatypes"
)

// Payment statuses for an application.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)

// Payment currencies. CurrencyCredits marks applications paid with prepaid
// placement credits instead of money.
const (
	CurrencyINR     = "INR"
	CurrencyCredits = "CREDITS"
)

// Application binds a candidate, a job and a finalized payment. The composite
// unique index on (candidate_id, job_id) is what makes duplicate submissions
// impossible even under concurrent requests.
type Application struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	CandidateID     uint           `gorm:"not null;uniqueIndex:idx_applications_candidate_job" json:"candidate_id"`
	JobID           uint           `gorm:"not null;uniqueIndex:idx_applications_candidate_job" json:"job_id"`
	EmployerID      uint           `gorm:"not null;index" json:"employer_id"`
	CoverLetter     string         `gorm:"type:text" json:"cover_letter"`
	Resume          datatypes.JSON `gorm:"type:json" json:"resume,omitempty"`
	PaymentStatus   string         `gorm:"size:32;not null;default:pending" json:"payment_status"`
	PaymentID       string         `gorm:"size:128" json:"payment_id"`
	OrderID         string         `gorm:"size:128" json:"order_id"`
	PaymentAmount   int64          `json:"payment_amount"`
	PaymentCurrency string         `gorm:"size:16;not null;default:INR" json:"payment_currency"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Candidate       Candidate      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"candidate"`
	Job             Job            `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"job"`
}
