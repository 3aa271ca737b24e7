package dto

import (
	"time"

	"github.com/jobsetu/jobsetu-api/internal/models"
)

// ApplyWithCreditsRequest applies to a job consuming one placement credit.
type ApplyWithCreditsRequest struct {
	JobID       uint   `json:"job_id" validate:"required,gt=0"`
	CoverLetter string `json:"cover_letter" validate:"omitempty,max=10000"`
}

// ApplicationResponse is returned to API clients after an application is
// finalized or listed.
type ApplicationResponse struct {
	ID              uint      `json:"id"`
	CandidateID     uint      `json:"candidate_id"`
	JobID           uint      `json:"job_id"`
	EmployerID      uint      `json:"employer_id"`
	JobTitle        string    `json:"job_title,omitempty"`
	CoverLetter     string    `json:"cover_letter"`
	PaymentStatus   string    `json:"payment_status"`
	PaymentID       string    `json:"payment_id"`
	OrderID         string    `json:"order_id"`
	PaymentAmount   int64     `json:"payment_amount"`
	PaymentCurrency string    `json:"payment_currency"`
	CreatedAt       time.Time `json:"created_at"`
}

// ApplyResult pairs the created application with the candidate's remaining
// credit balance for the credit path.
type ApplyResult struct {
	Application      ApplicationResponse `json:"application"`
	RemainingCredits *int                `json:"remaining_credits,omitempty"`
}

// NewApplicationResponse converts an Application model into a DTO.
func NewApplicationResponse(model models.Application) ApplicationResponse {
	response := ApplicationResponse{
		ID:              model.ID,
		CandidateID:     model.CandidateID,
		JobID:           model.JobID,
		EmployerID:      model.EmployerID,
		CoverLetter:     model.CoverLetter,
		PaymentStatus:   model.PaymentStatus,
		PaymentID:       model.PaymentID,
		OrderID:         model.OrderID,
		PaymentAmount:   model.PaymentAmount,
		PaymentCurrency: model.PaymentCurrency,
		CreatedAt:       model.CreatedAt,
	}

	if model.Job.ID != 0 {
		response.JobTitle = model.Job.Title
	}

	return response
}

// NewApplicationResponseSlice converts application models into DTOs.
func NewApplicationResponseSlice(applications []models.Application) []ApplicationResponse {
	responses := make([]ApplicationResponse, 0, len(applications))
	for _, application := range applications {
		responses = append(responses, NewApplicationResponse(application))
	}

	return responses
}
