package models

import (
	"time"

	"gorm.io/datatypes"
)

// Question types supported by the assessment engine. Only choice types are
// auto-scored; text and upload answers default to zero until manually graded.
const (
	QuestionTypeMCQ       = "mcq"
	QuestionTypeVisualMCQ = "visual_mcq"
	QuestionTypeText      = "text"
	QuestionTypeImage     = "image"
	QuestionTypeFile      = "file"
)

// Assessment is an employer-owned question bank with a timed attempt window.
type Assessment struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	EmployerID      uint       `gorm:"not null;index" json:"employer_id"`
	Title           string     `gorm:"size:255;not null" json:"title"`
	DurationMinutes int        `gorm:"not null" json:"duration_minutes"`
	PassPercentage  float64    `gorm:"not null;default:50" json:"pass_percentage"`
	Questions       []Question `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Question belongs to an assessment at a fixed position.
type Question struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	AssessmentID uint           `gorm:"not null;index" json:"assessment_id"`
	Position     int            `gorm:"not null" json:"position"`
	Type         string         `gorm:"size:32;not null" json:"type"`
	Prompt       string         `gorm:"type:text;not null" json:"prompt"`
	Options      datatypes.JSON `gorm:"type:json" json:"options,omitempty"`
	CorrectIndex *int           `json:"-"`
	Marks        float64        `gorm:"not null" json:"marks"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Duration returns the attempt window length.
func (a Assessment) Duration() time.Duration {
	return time.Duration(a.DurationMinutes) * time.Minute
}

// TotalMarks sums the marks across every question, regardless of type.
func (a Assessment) TotalMarks() float64 {
	var total float64
	for _, q := range a.Questions {
		total += q.Marks
	}
	return total
}

// AutoScored reports whether the question can be graded without human review.
func (q Question) AutoScored() bool {
	return q.Type == QuestionTypeMCQ || q.Type == QuestionTypeVisualMCQ
}
