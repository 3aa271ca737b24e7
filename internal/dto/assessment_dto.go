package dto

import (
	"encoding/json"
	"time"

	"github.com/jobsetu/jobsetu-api/internal/models"
)

// QuestionCreateRequest describes one question in a new assessment. Choice
// questions must carry at least two options and a correct index.
type QuestionCreateRequest struct {
	Type         string   `json:"type" validate:"required,oneof=mcq visual_mcq text image file"`
	Prompt       string   `json:"prompt" validate:"required,min=3"`
	Options      []string `json:"options" validate:"omitempty,min=2,dive,required"`
	CorrectIndex *int     `json:"correct_index" validate:"omitempty,gte=0"`
	Marks        float64  `json:"marks" validate:"required,gt=0"`
}

// AssessmentCreateRequest describes an employer's new question bank.
type AssessmentCreateRequest struct {
	Title           string                  `json:"title" validate:"required,min=3,max=255"`
	DurationMinutes int                     `json:"duration_minutes" validate:"required,gt=0,lte=480"`
	PassPercentage  float64                 `json:"pass_percentage" validate:"gte=0,lte=100"`
	Questions       []QuestionCreateRequest `json:"questions" validate:"required,min=1,dive"`
}

// QuestionResponse serializes a question. Correct indices are only included
// for the owning employer, never for candidates taking the test.
type QuestionResponse struct {
	ID           uint     `json:"id"`
	Position     int      `json:"position"`
	Type         string   `json:"type"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options,omitempty"`
	CorrectIndex *int     `json:"correct_index,omitempty"`
	Marks        float64  `json:"marks"`
}

// AssessmentResponse is returned to API clients when viewing assessments.
type AssessmentResponse struct {
	ID              uint               `json:"id"`
	EmployerID      uint               `json:"employer_id"`
	Title           string             `json:"title"`
	DurationMinutes int                `json:"duration_minutes"`
	PassPercentage  float64            `json:"pass_percentage"`
	TotalMarks      float64            `json:"total_marks"`
	Questions       []QuestionResponse `json:"questions"`
	CreatedAt       time.Time          `json:"created_at"`
}

// NewAssessmentResponse converts an Assessment model into a DTO. When
// includeAnswers is false, correct indices are stripped.
func NewAssessmentResponse(model models.Assessment, includeAnswers bool) AssessmentResponse {
	questions := make([]QuestionResponse, 0, len(model.Questions))
	for _, question := range model.Questions {
		item := QuestionResponse{
			ID:       question.ID,
			Position: question.Position,
			Type:     question.Type,
			Prompt:   question.Prompt,
			Marks:    question.Marks,
		}

		if len(question.Options) > 0 {
			var options []string
			if err := json.Unmarshal(question.Options, &options); err == nil {
				item.Options = options
			}
		}

		if includeAnswers {
			item.CorrectIndex = question.CorrectIndex
		}

		questions = append(questions, item)
	}

	return AssessmentResponse{
		ID:              model.ID,
		EmployerID:      model.EmployerID,
		Title:           model.Title,
		DurationMinutes: model.DurationMinutes,
		PassPercentage:  model.PassPercentage,
		TotalMarks:      model.TotalMarks(),
		Questions:       questions,
		CreatedAt:       model.CreatedAt,
	}
}
