package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/jobsetu/jobsetu-api/internal/models"
)

// CandidateRepository defines persistence operations for candidates.
type CandidateRepository interface {
	Create(ctx context.Context, candidate *models.Candidate) error
	GetByID(ctx context.Context, id uint) (models.Candidate, error)
	GetByEmail(ctx context.Context, email string) (models.Candidate, error)
	Update(ctx context.Context, candidate *models.Candidate) error
	ListByPlacement(ctx context.Context, placementID uint) ([]models.Candidate, error)
	// ConsumeCredit decrements the balance by one only when it is positive.
	// It reports whether a credit was actually consumed, so concurrent
	// callers can never drive the balance below zero.
	ConsumeCredit(ctx context.Context, id uint) (bool, error)
	// AddCredits atomically increments the balance by the given amount.
	AddCredits(ctx context.Context, id uint, amount int) error
}

type candidateRepository struct {
	db *gorm.DB
}

// NewCandidateRepository instantiates a GORM-backed repository.
func NewCandidateRepository(db *gorm.DB) CandidateRepository {
	return &candidateRepository{db: db}
}

func (r *candidateRepository) Create(ctx context.Context, candidate *models.Candidate) error {
	candidate.Email = strings.ToLower(strings.TrimSpace(candidate.Email))
	return r.db.WithContext(ctx).Create(candidate).Error
}

func (r *candidateRepository) GetByID(ctx context.Context, id uint) (models.Candidate, error) {
	var candidate models.Candidate
	if err := r.db.WithContext(ctx).First(&candidate, id).Error; err != nil {
		return models.Candidate{}, err
	}

	return candidate, nil
}

func (r *candidateRepository) GetByEmail(ctx context.Context, email string) (models.Candidate, error) {
	var candidate models.Candidate
	normalized := strings.ToLower(strings.TrimSpace(email))
	if err := r.db.WithContext(ctx).Where("LOWER(email) = ?", normalized).First(&candidate).Error; err != nil {
		return models.Candidate{}, err
	}

	return candidate, nil
}

func (r *candidateRepository) Update(ctx context.Context, candidate *models.Candidate) error {
	return r.db.WithContext(ctx).Save(candidate).Error
}

func (r *candidateRepository) ListByPlacement(ctx context.Context, placementID uint) ([]models.Candidate, error) {
	var candidates []models.Candidate
	if err := r.db.WithContext(ctx).
		Where("placement_id = ?", placementID).
		Order("name ASC").
		Find(&candidates).Error; err != nil {
		return nil, err
	}

	return candidates, nil
}

func (r *candidateRepository) ConsumeCredit(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Candidate{}).
		Where("id = ? AND credits > 0", id).
		UpdateColumn("credits", gorm.Expr("credits - 1"))
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *candidateRepository) AddCredits(ctx context.Context, id uint, amount int) error {
	result := r.db.WithContext(ctx).
		Model(&models.Candidate{}).
		Where("id = ?", id).
		UpdateColumn("credits", gorm.Expr("credits + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
