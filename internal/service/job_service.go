package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jobsetu/jobsetu-api/internal/dto"
	"github.com/jobsetu/jobsetu-api/internal/models"
	"github.com/jobsetu/jobsetu-api/internal/repository"
)

// ErrJobNotFound indicates a job posting could not be found.
var ErrJobNotFound = errors.New("job not found")

// ErrJobForbidden indicates the caller does not own the job.
var ErrJobForbidden = errors.New("job does not belong to this employer")

// jobCacheKey is shared with the application workflow, which must invalidate
// the cached entry whenever the application counter changes.
func jobCacheKey(id uint) string {
	return fmt.Sprintf("job:%d", id)
}

// JobService manages employer job postings and the cached public catalog.
type JobService interface {
	Create(ctx context.Context, employerID uint, payload dto.JobCreateRequest) (dto.JobResponse, error)
	Update(ctx context.Context, employerID, jobID uint, payload dto.JobUpdateRequest) (dto.JobResponse, error)
	Get(ctx context.Context, id uint) (dto.JobResponse, error)
	List(ctx context.Context, filter dto.JobFilter) (dto.JobListResponse, error)
}

type jobService struct {
	jobs      repository.JobRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewJobService constructs a JobService instance.
func NewJobService(jobs repository.JobRepository, cache *redis.Client, ttl time.Duration, validate *validator.Validate, logger zerolog.Logger) JobService {
	return &jobService{
		jobs:      jobs,
		cache:     cache,
		cacheTTL:  ttl,
		validator: validate,
		logger:    logger.With().Str("component", "job_service").Logger(),
	}
}

func (s *jobService) Create(ctx context.Context, employerID uint, payload dto.JobCreateRequest) (dto.JobResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.JobResponse{}, err
	}

	job := models.Job{
		EmployerID:   employerID,
		Title:        payload.Title,
		Description:  payload.Description,
		Location:     payload.Location,
		SalaryMin:    payload.SalaryMin,
		SalaryMax:    payload.SalaryMax,
		Vacancies:    payload.Vacancies,
		Status:       models.JobStatusOpen,
		AssessmentID: payload.AssessmentID,
	}

	if len(payload.InterviewRounds) > 0 {
		rounds, err := json.Marshal(payload.InterviewRounds)
		if err != nil {
			return dto.JobResponse{}, fmt.Errorf("failed to encode interview rounds: %w", err)
		}
		job.InterviewRounds = datatypes.JSON(rounds)
	}

	if err := s.jobs.Create(ctx, &job); err != nil {
		return dto.JobResponse{}, err
	}

	s.logger.Info().Uint("job_id", job.ID).Uint("employer_id", employerID).Msg("job created")

	return dto.NewJobResponse(job), nil
}

func (s *jobService) Update(ctx context.Context, employerID, jobID uint, payload dto.JobUpdateRequest) (dto.JobResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.JobResponse{}, err
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.JobResponse{}, ErrJobNotFound
		}
		return dto.JobResponse{}, err
	}

	if job.EmployerID != employerID {
		return dto.JobResponse{}, ErrJobForbidden
	}

	if payload.Title != nil {
		job.Title = *payload.Title
	}
	if payload.Description != nil {
		job.Description = *payload.Description
	}
	if payload.Location != nil {
		job.Location = *payload.Location
	}
	if payload.Vacancies != nil {
		job.Vacancies = *payload.Vacancies
	}
	if payload.Status != nil {
		job.Status = *payload.Status
	}

	if err := s.jobs.Update(ctx, &job); err != nil {
		return dto.JobResponse{}, err
	}

	s.invalidate(ctx, job.ID)

	return dto.NewJobResponse(job), nil
}

func (s *jobService) Get(ctx context.Context, id uint) (dto.JobResponse, error) {
	cacheKey := jobCacheKey(id)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.JobResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("job_id", id).Msg("job cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read job cache")
		}
	}

	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.JobResponse{}, ErrJobNotFound
		}
		return dto.JobResponse{}, err
	}

	response := dto.NewJobResponse(job)

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store job cache")
			}
		}
	}

	return response, nil
}

func (s *jobService) List(ctx context.Context, filter dto.JobFilter) (dto.JobListResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return dto.JobListResponse{}, err
	}

	pageSize := filter.PageSize
	if pageSize == 0 {
		pageSize = 20
	}

	jobs, total, err := s.jobs.ListWithFilter(ctx, repository.JobFilter{
		Search:   filter.Search,
		Location: filter.Location,
		Sort:     filter.Sort,
		Page:     filter.Page,
		PageSize: pageSize,
	})
	if err != nil {
		return dto.JobListResponse{}, err
	}

	return dto.JobListResponse{Jobs: dto.NewJobResponseSlice(jobs), Total: total}, nil
}

func (s *jobService) invalidate(ctx context.Context, id uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, jobCacheKey(id)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("job_id", id).Msg("failed to invalidate job cache")
	}
}
