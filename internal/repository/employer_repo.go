package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/jobsetu/jobsetu-api/internal/models"
)

// EmployerRepository defines persistence operations for employer accounts.
type EmployerRepository interface {
	Create(ctx context.Context, employer *models.Employer) error
	GetByID(ctx context.Context, id uint) (models.Employer, error)
	GetByEmail(ctx context.Context, email string) (models.Employer, error)
}

type employerRepository struct {
	db *gorm.DB
}

// NewEmployerRepository instantiates the repository.
func NewEmployerRepository(db *gorm.DB) EmployerRepository {
	return &employerRepository{db: db}
}

func (r *employerRepository) Create(ctx context.Context, employer *models.Employer) error {
	employer.Email = strings.ToLower(strings.TrimSpace(employer.Email))
	return r.db.WithContext(ctx).Create(employer).Error
}

func (r *employerRepository) GetByID(ctx context.Context, id uint) (models.Employer, error) {
	var employer models.Employer
	if err := r.db.WithContext(ctx).First(&employer, id).Error; err != nil {
		return models.Employer{}, err
	}

	return employer, nil
}

func (r *employerRepository) GetByEmail(ctx context.Context, email string) (models.Employer, error) {
	var employer models.Employer
	normalized := strings.ToLower(strings.TrimSpace(email))
	if err := r.db.WithContext(ctx).Where("LOWER(email) = ?", normalized).First(&employer).Error; err != nil {
		return models.Employer{}, err
	}

	return employer, nil
}
