package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jobsetu/jobsetu-api/internal/dto"
	"github.com/jobsetu/jobsetu-api/internal/models"
	"github.com/jobsetu/jobsetu-api/internal/repository"
)

// ErrAssessmentNotFound indicates an assessment could not be found.
var ErrAssessmentNotFound = errors.New("assessment not found")

// AssessmentService manages employer question banks.
type AssessmentService interface {
	Create(ctx context.Context, employerID uint, payload dto.AssessmentCreateRequest) (dto.AssessmentResponse, error)
	// Get returns the assessment; correct answers are included only when the
	// caller owns it.
	Get(ctx context.Context, id, callerEmployerID uint) (dto.AssessmentResponse, error)
}

type assessmentService struct {
	assessments repository.AssessmentRepository
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewAssessmentService constructs an AssessmentService instance.
func NewAssessmentService(assessments repository.AssessmentRepository, validate *validator.Validate, logger zerolog.Logger) AssessmentService {
	return &assessmentService{
		assessments: assessments,
		validator:   validate,
		logger:      logger.With().Str("component", "assessment_service").Logger(),
	}
}

func (s *assessmentService) Create(ctx context.Context, employerID uint, payload dto.AssessmentCreateRequest) (dto.AssessmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssessmentResponse{}, err
	}

	questions := make([]models.Question, 0, len(payload.Questions))
	for position, item := range payload.Questions {
		question := models.Question{
			Position: position,
			Type:     item.Type,
			Prompt:   item.Prompt,
			Marks:    item.Marks,
		}

		if question.AutoScored() {
			if len(item.Options) < 2 {
				return dto.AssessmentResponse{}, fmt.Errorf("question %d: choice questions need at least two options", position)
			}
			if item.CorrectIndex == nil || *item.CorrectIndex >= len(item.Options) {
				return dto.AssessmentResponse{}, fmt.Errorf("question %d: correct index must point at an option", position)
			}
			question.CorrectIndex = item.CorrectIndex
		}

		if len(item.Options) > 0 {
			options, err := json.Marshal(item.Options)
			if err != nil {
				return dto.AssessmentResponse{}, fmt.Errorf("failed to encode options: %w", err)
			}
			question.Options = datatypes.JSON(options)
		}

		questions = append(questions, question)
	}

	assessment := models.Assessment{
		EmployerID:      employerID,
		Title:           payload.Title,
		DurationMinutes: payload.DurationMinutes,
		PassPercentage:  payload.PassPercentage,
		Questions:       questions,
	}

	if err := s.assessments.Create(ctx, &assessment); err != nil {
		return dto.AssessmentResponse{}, err
	}

	s.logger.Info().Uint("assessment_id", assessment.ID).Int("questions", len(questions)).Msg("assessment created")

	return dto.NewAssessmentResponse(assessment, true), nil
}

func (s *assessmentService) Get(ctx context.Context, id, callerEmployerID uint) (dto.AssessmentResponse, error) {
	assessment, err := s.assessments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrAssessmentNotFound
		}
		return dto.AssessmentResponse{}, err
	}

	includeAnswers := callerEmployerID != 0 && callerEmployerID == assessment.EmployerID

	return dto.NewAssessmentResponse(assessment, includeAnswers), nil
}
