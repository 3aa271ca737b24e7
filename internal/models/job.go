package models

import (
	"time"

	"gorm.io/datatypes"
)

// Interview round types a job posting may configure.
const (
	RoundTypeAssessment = "assessment"
	RoundTypeTechnical  = "technical"
	RoundTypeHR         = "hr"
	RoundTypeGroup      = "group_discussion"
)

// Job statuses.
const (
	JobStatusOpen   = "open"
	JobStatusClosed = "closed"
)

// Job represents an employer-authored posting candidates can apply to.
type Job struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	EmployerID       uint           `gorm:"not null;index" json:"employer_id"`
	Title            string         `gorm:"size:255;not null" json:"title"`
	Description      string         `gorm:"type:text" json:"description"`
	Location         string         `gorm:"size:255" json:"location"`
	SalaryMin        int64          `json:"salary_min"`
	SalaryMax        int64          `json:"salary_max"`
	Vacancies        int            `gorm:"not null;default:1" json:"vacancies"`
	Status           string         `gorm:"size:32;not null;default:open" json:"status"`
	AssessmentID     *uint          `gorm:"index" json:"assessment_id"`
	InterviewRounds  datatypes.JSON `gorm:"type:json" json:"interview_rounds,omitempty"`
	ApplicationCount int64          `gorm:"not null;default:0" json:"application_count"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	Employer         Employer       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"employer"`
}

// InterviewRound describes one ordered stage of a job's hiring pipeline.
type InterviewRound struct {
	Order int    `json:"order"`
	Type  string `json:"type"`
	Name  string `json:"name"`
}

// IsOpen reports whether the job still accepts applications.
func (j Job) IsOpen() bool {
	return j.Status == JobStatusOpen
}
