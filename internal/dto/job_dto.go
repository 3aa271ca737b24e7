package dto

import (
	"encoding/json"
	"time"

	"github.com/jobsetu/jobsetu-api/internal/models"
)

// JobCreateRequest describes a new posting authored by an employer.
type JobCreateRequest struct {
	Title           string                  `json:"title" validate:"required,min=3,max=255"`
	Description     string                  `json:"description" validate:"required,min=10"`
	Location        string                  `json:"location" validate:"required,max=255"`
	SalaryMin       int64                   `json:"salary_min" validate:"gte=0"`
	SalaryMax       int64                   `json:"salary_max" validate:"gtefield=SalaryMin"`
	Vacancies       int                     `json:"vacancies" validate:"required,gt=0"`
	AssessmentID    *uint                   `json:"assessment_id" validate:"omitempty,gt=0"`
	InterviewRounds []models.InterviewRound `json:"interview_rounds" validate:"omitempty,dive"`
}

// JobUpdateRequest patches an existing posting.
type JobUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=3,max=255"`
	Description *string `json:"description" validate:"omitempty,min=10"`
	Location    *string `json:"location" validate:"omitempty,max=255"`
	Vacancies   *int    `json:"vacancies" validate:"omitempty,gt=0"`
	Status      *string `json:"status" validate:"omitempty,oneof=open closed"`
}

// JobFilter describes query string filters for the public listing.
type JobFilter struct {
	Search   string `query:"search"`
	Location string `query:"location"`
	Sort     string `query:"sort"`
	Page     int    `query:"page" validate:"omitempty,gte=1"`
	PageSize int    `query:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// JobResponse is returned to API clients when viewing postings.
type JobResponse struct {
	ID               uint                    `json:"id"`
	EmployerID       uint                    `json:"employer_id"`
	CompanyName      string                  `json:"company_name,omitempty"`
	Title            string                  `json:"title"`
	Description      string                  `json:"description"`
	Location         string                  `json:"location"`
	SalaryMin        int64                   `json:"salary_min"`
	SalaryMax        int64                   `json:"salary_max"`
	Vacancies        int                     `json:"vacancies"`
	Status           string                  `json:"status"`
	AssessmentID     *uint                   `json:"assessment_id"`
	InterviewRounds  []models.InterviewRound `json:"interview_rounds,omitempty"`
	ApplicationCount int64                   `json:"application_count"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// JobListResponse wraps a paginated listing.
type JobListResponse struct {
	Jobs  []JobResponse `json:"jobs"`
	Total int64         `json:"total"`
}

// NewJobResponse converts a Job model into a DTO.
func NewJobResponse(model models.Job) JobResponse {
	response := JobResponse{
		ID:               model.ID,
		EmployerID:       model.EmployerID,
		Title:            model.Title,
		Description:      model.Description,
		Location:         model.Location,
		SalaryMin:        model.SalaryMin,
		SalaryMax:        model.SalaryMax,
		Vacancies:        model.Vacancies,
		Status:           model.Status,
		AssessmentID:     model.AssessmentID,
		ApplicationCount: model.ApplicationCount,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}

	if model.Employer.ID != 0 {
		response.CompanyName = model.Employer.CompanyName
	}

	if len(model.InterviewRounds) > 0 {
		var rounds []models.InterviewRound
		if err := json.Unmarshal(model.InterviewRounds, &rounds); err == nil {
			response.InterviewRounds = rounds
		}
	}

	return response
}

// NewJobResponseSlice converts job models into DTOs.
func NewJobResponseSlice(jobs []models.Job) []JobResponse {
	responses := make([]JobResponse, 0, len(jobs))
	for _, job := range jobs {
		responses = append(responses, NewJobResponse(job))
	}

	return responses
}
