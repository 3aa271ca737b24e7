package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// AttemptStatus is the explicit lifecycle state of an assessment attempt.
type AttemptStatus string

// Attempt lifecycle states. Both completed and expired are terminal.
const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptExpired    AttemptStatus = "expired"
)

// Attempt results.
const (
	AttemptResultPass = "pass"
	AttemptResultFail = "fail"
)

// Violation types logged during a proctored attempt.
const (
	ViolationTabSwitch      = "tab_switch"
	ViolationWindowMinimize = "window_minimize"
	ViolationCopyPaste      = "copy_paste"
	ViolationRightClick     = "right_click"
)

// AssessmentAttempt is one candidate's timed session against one assessment.
type AssessmentAttempt struct {
	ID           uint               `gorm:"primaryKey" json:"id"`
	AssessmentID uint               `gorm:"not null;index" json:"assessment_id"`
	CandidateID  uint               `gorm:"not null;index" json:"candidate_id"`
	Status       AttemptStatus      `gorm:"size:32;not null;default:in_progress" json:"status"`
	StartTime    time.Time          `gorm:"not null" json:"start_time"`
	EndTime      *time.Time         `json:"end_time"`
	Score        float64            `json:"score"`
	TotalMarks   float64            `json:"total_marks"`
	Percentage   float64            `json:"percentage"`
	Result       string             `gorm:"size:16" json:"result"`
	Answers      []AttemptAnswer    `gorm:"foreignKey:AttemptID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"answers"`
	Violations   []AttemptViolation `gorm:"foreignKey:AttemptID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"violations"`
	Captures     []AttemptCapture   `gorm:"foreignKey:AttemptID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"captures"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// AttemptAnswer holds the candidate's answer for one question index. At most
// one row exists per (attempt, index); later submissions overwrite it.
type AttemptAnswer struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	AttemptID     uint      `gorm:"not null;uniqueIndex:idx_attempt_answer_position" json:"attempt_id"`
	QuestionIndex int       `gorm:"not null;uniqueIndex:idx_attempt_answer_position" json:"question_index"`
	SelectedIndex *int      `json:"selected_index"`
	TextAnswer    *string   `gorm:"type:text" json:"text_answer"`
	FileURL       *string   `gorm:"size:512" json:"file_url"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AttemptViolation is an append-only proctoring event.
type AttemptViolation struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	AttemptID  uint              `gorm:"not null;index" json:"attempt_id"`
	Type       string            `gorm:"size:64;not null" json:"type"`
	Details    datatypes.JSONMap `gorm:"type:json" json:"details"`
	OccurredAt time.Time         `gorm:"not null" json:"occurred_at"`
}

// AttemptCapture is a periodic proctoring snapshot taken during the attempt.
type AttemptCapture struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	AttemptID  uint      `gorm:"not null;index" json:"attempt_id"`
	ImageURL   string    `gorm:"size:512;not null" json:"image_url"`
	CapturedAt time.Time `gorm:"not null" json:"captured_at"`
}

// Deadline returns the instant after which no further answers are accepted.
func (a AssessmentAttempt) Deadline(duration time.Duration) time.Time {
	return a.StartTime.Add(duration)
}

// IsTerminal reports whether the attempt can no longer change.
func (a AssessmentAttempt) IsTerminal() bool {
	return a.Status == AttemptCompleted || a.Status == AttemptExpired
}

// Complete transitions the attempt to its completed terminal state.
func (a *AssessmentAttempt) Complete(endTime time.Time) error {
	if a.Status != AttemptInProgress {
		return fmt.Errorf("cannot complete attempt in state %q", a.Status)
	}
	a.Status = AttemptCompleted
	a.EndTime = &endTime
	return nil
}

// Expire transitions the attempt to its expired terminal state. The end time
// is pinned to the deadline, not the observation time.
func (a *AssessmentAttempt) Expire(duration time.Duration) error {
	if a.Status != AttemptInProgress {
		return fmt.Errorf("cannot expire attempt in state %q", a.Status)
	}
	deadline := a.Deadline(duration)
	a.Status = AttemptExpired
	a.EndTime = &deadline
	return nil
}

// IsEmpty reports whether the answer carries no payload at all. Empty answers
// still appear in results and contribute zero to the score.
func (ans AttemptAnswer) IsEmpty() bool {
	return ans.SelectedIndex == nil && ans.TextAnswer == nil && ans.FileURL == nil
}
