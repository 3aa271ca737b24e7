package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/jobsetu/jobsetu-api/internal/models"
)

// ApplicationRepository defines persistence operations for job applications.
type ApplicationRepository interface {
	ExistsForCandidateAndJob(ctx context.Context, candidateID, jobID uint) (bool, error)
	// CreateWithSideEffects runs the whole commit point of the application
	// workflow in one transaction: insert the application, bump the job's
	// application counter, and record the outbox event. The event builder
	// runs inside the transaction so it sees the assigned application id.
	CreateWithSideEffects(ctx context.Context, application *models.Application, buildEvent func(models.Application) (*models.OutboxEvent, error)) error
	GetByID(ctx context.Context, id uint) (models.Application, error)
	ListByCandidate(ctx context.Context, candidateID uint) ([]models.Application, error)
	ListByJob(ctx context.Context, jobID uint) ([]models.Application, error)
}

type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository instantiates a GORM-backed repository.
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) ExistsForCandidateAndJob(ctx context.Context, candidateID, jobID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("candidate_id = ? AND job_id = ?", candidateID, jobID).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *applicationRepository) CreateWithSideEffects(ctx context.Context, application *models.Application, buildEvent func(models.Application) (*models.OutboxEvent, error)) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(application).Error; err != nil {
			return err
		}

		result := tx.Model(&models.Job{}).
			Where("id = ?", application.JobID).
			UpdateColumn("application_count", gorm.Expr("application_count + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if buildEvent != nil {
			event, err := buildEvent(*application)
			if err != nil {
				return err
			}
			if err := tx.Create(event).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *applicationRepository) GetByID(ctx context.Context, id uint) (models.Application, error) {
	var application models.Application
	if err := r.db.WithContext(ctx).
		Preload("Job").
		Preload("Candidate").
		First(&application, id).Error; err != nil {
		return models.Application{}, err
	}

	return application, nil
}

func (r *applicationRepository) ListByCandidate(ctx context.Context, candidateID uint) ([]models.Application, error) {
	var applications []models.Application
	if err := r.db.WithContext(ctx).
		Preload("Job").
		Where("candidate_id = ?", candidateID).
		Order("created_at DESC").
		Find(&applications).Error; err != nil {
		return nil, err
	}

	return applications, nil
}

func (r *applicationRepository) ListByJob(ctx context.Context, jobID uint) ([]models.Application, error) {
	var applications []models.Application
	if err := r.db.WithContext(ctx).
		Preload("Candidate").
		Where("job_id = ?", jobID).
		Order("created_at DESC").
		Find(&applications).Error; err != nil {
		return nil, err
	}

	return applications, nil
}

// IsDuplicateKey reports whether the error came from a unique-constraint
// violation, covering both GORM's translated error and raw driver messages.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
