package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/jobsetu/jobsetu-api/internal/models"
)

// PlacementRepository defines persistence operations for placement officers.
type PlacementRepository interface {
	Create(ctx context.Context, officer *models.PlacementOfficer) error
	GetByID(ctx context.Context, id uint) (models.PlacementOfficer, error)
	GetByEmail(ctx context.Context, email string) (models.PlacementOfficer, error)
}

type placementRepository struct {
	db *gorm.DB
}

// NewPlacementRepository instantiates the repository.
func NewPlacementRepository(db *gorm.DB) PlacementRepository {
	return &placementRepository{db: db}
}

func (r *placementRepository) Create(ctx context.Context, officer *models.PlacementOfficer) error {
	officer.Email = strings.ToLower(strings.TrimSpace(officer.Email))
	return r.db.WithContext(ctx).Create(officer).Error
}

func (r *placementRepository) GetByID(ctx context.Context, id uint) (models.PlacementOfficer, error) {
	var officer models.PlacementOfficer
	if err := r.db.WithContext(ctx).First(&officer, id).Error; err != nil {
		return models.PlacementOfficer{}, err
	}

	return officer, nil
}

func (r *placementRepository) GetByEmail(ctx context.Context, email string) (models.PlacementOfficer, error) {
	var officer models.PlacementOfficer
	normalized := strings.ToLower(strings.TrimSpace(email))
	if err := r.db.WithContext(ctx).Where("LOWER(email) = ?", normalized).First(&officer).Error; err != nil {
		return models.PlacementOfficer{}, err
	}

	return officer, nil
}
