package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/jobsetu/jobsetu-api/internal/models"
)

// JobFilter describes pagination & search options for job listings.
type JobFilter struct {
	Search     string
	Location   string
	EmployerID *uint
	Sort       string
	Page       int
	PageSize   int
}

// JobRepository defines persistence operations for job postings.
type JobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	Update(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id uint) (models.Job, error)
	ListWithFilter(ctx context.Context, filter JobFilter) ([]models.Job, int64, error)
	// IncrementApplications bumps the denormalized counter without a
	// read-modify-write cycle.
	IncrementApplications(ctx context.Context, id uint) error
}

type jobRepository struct {
	db *gorm.DB
}

// NewJobRepository instantiates a GORM-backed repository.
func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) Create(ctx context.Context, job *models.Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *jobRepository) Update(ctx context.Context, job *models.Job) error {
	return r.db.WithContext(ctx).Save(job).Error
}

func (r *jobRepository) GetByID(ctx context.Context, id uint) (models.Job, error) {
	var job models.Job
	if err := r.db.WithContext(ctx).Preload("Employer").First(&job, id).Error; err != nil {
		return models.Job{}, err
	}

	return job, nil
}

func (r *jobRepository) ListWithFilter(ctx context.Context, filter JobFilter) ([]models.Job, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Job{})

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	if filter.Location != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Location)) + "%"
		query = query.Where("LOWER(location) LIKE ?", pattern)
	}

	if filter.EmployerID != nil {
		query = query.Where("employer_id = ?", *filter.EmployerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order(normalizeJobSort(filter.Sort))

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var jobs []models.Job
	if err := query.Preload("Employer").Find(&jobs).Error; err != nil {
		return nil, 0, err
	}

	return jobs, total, nil
}

func (r *jobRepository) IncrementApplications(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", id).
		UpdateColumn("application_count", gorm.Expr("application_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func normalizeJobSort(sort string) string {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case "applications", "applications:desc", "-applications":
		return "application_count DESC"
	case "created_at", "created_at:asc", "oldest":
		return "created_at ASC"
	case "title", "title:asc":
		return "title ASC"
	case "-title", "title:desc":
		return "title DESC"
	default:
		return "created_at DESC"
	}
}
