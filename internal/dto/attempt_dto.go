package dto

import (
	"time"

	"github.com/jobsetu/jobsetu-api/internal/models"
)

// AnswerRequest records or overwrites the answer at one question index.
// All payload fields are optional: an entirely empty answer is legal and
// simply contributes zero to the score.
type AnswerRequest struct {
	SelectedIndex *int    `json:"selected_index" validate:"omitempty,gte=0"`
	TextAnswer    *string `json:"text_answer" validate:"omitempty,max=20000"`
	FileURL       *string `json:"file_url" validate:"omitempty,url,max=512"`
}

// ViolationRequest logs a proctoring event against an in-progress attempt.
type ViolationRequest struct {
	Type    string                 `json:"type" validate:"required,oneof=tab_switch window_minimize copy_paste right_click"`
	Details map[string]interface{} `json:"details"`
}

// AttemptAnswerResponse serializes one recorded answer.
type AttemptAnswerResponse struct {
	QuestionIndex int     `json:"question_index"`
	SelectedIndex *int    `json:"selected_index"`
	TextAnswer    *string `json:"text_answer"`
	FileURL       *string `json:"file_url"`
}

// AttemptViolationResponse serializes one logged proctoring event.
type AttemptViolationResponse struct {
	Type       string                 `json:"type"`
	Details    map[string]interface{} `json:"details"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// AttemptResponse is returned for all attempt reads and transitions.
type AttemptResponse struct {
	ID           uint                       `json:"id"`
	AssessmentID uint                       `json:"assessment_id"`
	CandidateID  uint                       `json:"candidate_id"`
	Status       models.AttemptStatus       `json:"status"`
	StartTime    time.Time                  `json:"start_time"`
	EndTime      *time.Time                 `json:"end_time"`
	Score        float64                    `json:"score"`
	TotalMarks   float64                    `json:"total_marks"`
	Percentage   float64                    `json:"percentage"`
	Result       string                     `json:"result,omitempty"`
	Answers      []AttemptAnswerResponse    `json:"answers"`
	Violations   []AttemptViolationResponse `json:"violations"`
}

// NewAttemptResponse converts an attempt model into a DTO.
func NewAttemptResponse(model models.AssessmentAttempt) AttemptResponse {
	answers := make([]AttemptAnswerResponse, 0, len(model.Answers))
	for _, answer := range model.Answers {
		answers = append(answers, AttemptAnswerResponse{
			QuestionIndex: answer.QuestionIndex,
			SelectedIndex: answer.SelectedIndex,
			TextAnswer:    answer.TextAnswer,
			FileURL:       answer.FileURL,
		})
	}

	violations := make([]AttemptViolationResponse, 0, len(model.Violations))
	for _, violation := range model.Violations {
		violations = append(violations, AttemptViolationResponse{
			Type:       violation.Type,
			Details:    violation.Details,
			OccurredAt: violation.OccurredAt,
		})
	}

	return AttemptResponse{
		ID:           model.ID,
		AssessmentID: model.AssessmentID,
		CandidateID:  model.CandidateID,
		Status:       model.Status,
		StartTime:    model.StartTime,
		EndTime:      model.EndTime,
		Score:        model.Score,
		TotalMarks:   model.TotalMarks,
		Percentage:   model.Percentage,
		Result:       model.Result,
		Answers:      answers,
		Violations:   violations,
	}
}
