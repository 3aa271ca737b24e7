package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jobsetu/jobsetu-api/internal/models"
)

// AttemptRepository defines persistence operations for assessment attempts.
type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.AssessmentAttempt) error
	GetByID(ctx context.Context, id uint) (models.AssessmentAttempt, error)
	// GetInProgress returns the single in-progress attempt for the
	// (candidate, assessment) pair, or gorm.ErrRecordNotFound.
	GetInProgress(ctx context.Context, candidateID, assessmentID uint) (models.AssessmentAttempt, error)
	Update(ctx context.Context, attempt *models.AssessmentAttempt) error
	// UpsertAnswer stores the answer for a question index, overwriting any
	// prior answer at the same position.
	UpsertAnswer(ctx context.Context, answer *models.AttemptAnswer) error
	AppendViolation(ctx context.Context, violation *models.AttemptViolation) error
	AppendCapture(ctx context.Context, capture *models.AttemptCapture) error
}

type attemptRepository struct {
	db *gorm.DB
}

// NewAttemptRepository instantiates a GORM-backed repository.
func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.AssessmentAttempt{}).
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_index ASC")
		}).
		Preload("Violations", func(db *gorm.DB) *gorm.DB {
			return db.Order("occurred_at ASC, id ASC")
		}).
		Preload("Captures")
}

func (r *attemptRepository) Create(ctx context.Context, attempt *models.AssessmentAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *attemptRepository) GetByID(ctx context.Context, id uint) (models.AssessmentAttempt, error) {
	var attempt models.AssessmentAttempt
	if err := r.baseQuery(ctx).First(&attempt, id).Error; err != nil {
		return models.AssessmentAttempt{}, err
	}

	return attempt, nil
}

func (r *attemptRepository) GetInProgress(ctx context.Context, candidateID, assessmentID uint) (models.AssessmentAttempt, error) {
	var attempt models.AssessmentAttempt
	if err := r.baseQuery(ctx).
		Where("candidate_id = ?", candidateID).
		Where("assessment_id = ?", assessmentID).
		Where("status = ?", models.AttemptInProgress).
		First(&attempt).Error; err != nil {
		return models.AssessmentAttempt{}, err
	}

	return attempt, nil
}

func (r *attemptRepository) Update(ctx context.Context, attempt *models.AssessmentAttempt) error {
	return r.db.WithContext(ctx).Omit("Answers", "Violations", "Captures").Save(attempt).Error
}

func (r *attemptRepository) UpsertAnswer(ctx context.Context, answer *models.AttemptAnswer) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "question_index"}},
			DoUpdates: clause.AssignmentColumns([]string{"selected_index", "text_answer", "file_url", "updated_at"}),
		}).
		Create(answer).Error
}

func (r *attemptRepository) AppendViolation(ctx context.Context, violation *models.AttemptViolation) error {
	return r.db.WithContext(ctx).Create(violation).Error
}

func (r *attemptRepository) AppendCapture(ctx context.Context, capture *models.AttemptCapture) error {
	return r.db.WithContext(ctx).Create(capture).Error
}
