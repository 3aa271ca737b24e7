package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"sort"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/jobsetu/jobsetu-api/internal/dto"
	"github.com/jobsetu/jobsetu-api/internal/models"
	"github.com/jobsetu/jobsetu-api/internal/observability"
	"github.com/jobsetu/jobsetu-api/internal/repository"
)

// ErrAttemptNotFound indicates an attempt could not be found.
var ErrAttemptNotFound = errors.New("attempt not found")

// ErrAttemptConflict indicates an in-progress attempt already exists for the
// (candidate, assessment) pair.
var ErrAttemptConflict = errors.New("an attempt is already in progress")

// ErrAttemptExpired indicates the attempt deadline has passed.
var ErrAttemptExpired = errors.New("attempt has expired")

// ErrAttemptFinished indicates the attempt is already in a terminal state.
var ErrAttemptFinished = errors.New("attempt is already finished")

// ErrAttemptForbidden indicates the attempt belongs to another candidate.
var ErrAttemptForbidden = errors.New("attempt belongs to another candidate")

// ErrQuestionIndexInvalid indicates the answered index has no question.
var ErrQuestionIndexInvalid = errors.New("question index out of range")

// AttemptService governs the timed test-taking session: it creates attempts,
// records answers and proctoring events, and computes the final score.
//
// Expiry is detected lazily: every read or mutation first checks the
// wall-clock deadline and, when it has passed, transitions the attempt to its
// expired terminal state before the requested operation is evaluated. There
// is no background sweep.
type AttemptService interface {
	Start(ctx context.Context, candidateID, assessmentID uint) (dto.AttemptResponse, error)
	RecordAnswer(ctx context.Context, candidateID, attemptID uint, questionIndex int, payload dto.AnswerRequest) (dto.AttemptResponse, error)
	RecordViolation(ctx context.Context, candidateID, attemptID uint, payload dto.ViolationRequest) error
	RecordCapture(ctx context.Context, candidateID, attemptID uint, file *multipart.FileHeader) error
	Submit(ctx context.Context, candidateID, attemptID uint) (dto.AttemptResponse, error)
	Get(ctx context.Context, candidateID, attemptID uint) (dto.AttemptResponse, error)
}

type attemptService struct {
	attempts    repository.AttemptRepository
	assessments repository.AssessmentRepository
	validator   *validator.Validate
	uploader    FileUploader
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAttemptService constructs an AttemptService instance.
func NewAttemptService(attempts repository.AttemptRepository, assessments repository.AssessmentRepository, validate *validator.Validate, uploader FileUploader, logger zerolog.Logger) AttemptService {
	return &attemptService{
		attempts:    attempts,
		assessments: assessments,
		validator:   validate,
		uploader:    uploader,
		logger:      logger.With().Str("component", "attempt_service").Logger(),
		now:         time.Now,
	}
}

func (s *attemptService) Start(ctx context.Context, candidateID, assessmentID uint) (dto.AttemptResponse, error) {
	assessment, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttemptResponse{}, ErrAssessmentNotFound
		}
		return dto.AttemptResponse{}, err
	}

	existing, err := s.attempts.GetInProgress(ctx, candidateID, assessmentID)
	switch {
	case err == nil:
		// A stale in-progress attempt past its deadline is expired here
		// rather than blocking a fresh start.
		if s.now().After(existing.Deadline(assessment.Duration())) {
			if _, err := s.finalizeExpired(ctx, &existing, assessment); err != nil {
				return dto.AttemptResponse{}, err
			}
		} else {
			return dto.AttemptResponse{}, ErrAttemptConflict
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return dto.AttemptResponse{}, err
	}

	attempt := models.AssessmentAttempt{
		AssessmentID: assessmentID,
		CandidateID:  candidateID,
		Status:       models.AttemptInProgress,
		StartTime:    s.now(),
		TotalMarks:   assessment.TotalMarks(),
	}

	if err := s.attempts.Create(ctx, &attempt); err != nil {
		return dto.AttemptResponse{}, err
	}

	s.logger.Info().Uint("attempt_id", attempt.ID).Uint("candidate_id", candidateID).Msg("attempt started")

	return dto.NewAttemptResponse(attempt), nil
}

func (s *attemptService) RecordAnswer(ctx context.Context, candidateID, attemptID uint, questionIndex int, payload dto.AnswerRequest) (dto.AttemptResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AttemptResponse{}, err
	}

	attempt, assessment, err := s.loadFresh(ctx, candidateID, attemptID)
	if err != nil {
		return dto.AttemptResponse{}, err
	}

	if attempt.Status != models.AttemptInProgress {
		return dto.AttemptResponse{}, terminalStateError(attempt.Status)
	}

	if questionIndex < 0 || questionIndex >= len(assessment.Questions) {
		return dto.AttemptResponse{}, ErrQuestionIndexInvalid
	}

	answer := models.AttemptAnswer{
		AttemptID:     attempt.ID,
		QuestionIndex: questionIndex,
		SelectedIndex: payload.SelectedIndex,
		TextAnswer:    payload.TextAnswer,
		FileURL:       payload.FileURL,
	}

	if err := s.attempts.UpsertAnswer(ctx, &answer); err != nil {
		return dto.AttemptResponse{}, err
	}

	updated, err := s.attempts.GetByID(ctx, attempt.ID)
	if err != nil {
		return dto.AttemptResponse{}, err
	}

	return dto.NewAttemptResponse(updated), nil
}

func (s *attemptService) RecordViolation(ctx context.Context, candidateID, attemptID uint, payload dto.ViolationRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	attempt, _, err := s.loadFresh(ctx, candidateID, attemptID)
	if err != nil {
		return err
	}

	if attempt.Status != models.AttemptInProgress {
		return terminalStateError(attempt.Status)
	}

	violation := models.AttemptViolation{
		AttemptID:  attempt.ID,
		Type:       payload.Type,
		Details:    payload.Details,
		OccurredAt: s.now(),
	}

	return s.attempts.AppendViolation(ctx, &violation)
}

func (s *attemptService) RecordCapture(ctx context.Context, candidateID, attemptID uint, file *multipart.FileHeader) error {
	attempt, _, err := s.loadFresh(ctx, candidateID, attemptID)
	if err != nil {
		return err
	}

	if attempt.Status != models.AttemptInProgress {
		return terminalStateError(attempt.Status)
	}

	if file == nil {
		return fmt.Errorf("capture file is required")
	}

	if err := validateImageFile(file); err != nil {
		return err
	}

	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open capture: %w", err)
	}
	defer reader.Close()

	url, err := s.uploader.Upload(ctx, file.Filename, reader)
	if err != nil {
		return fmt.Errorf("failed to upload capture: %w", err)
	}

	capture := models.AttemptCapture{
		AttemptID:  attempt.ID,
		ImageURL:   url,
		CapturedAt: s.now(),
	}

	return s.attempts.AppendCapture(ctx, &capture)
}

func (s *attemptService) Submit(ctx context.Context, candidateID, attemptID uint) (dto.AttemptResponse, error) {
	attempt, assessment, err := s.loadFresh(ctx, candidateID, attemptID)
	if err != nil {
		return dto.AttemptResponse{}, err
	}

	if attempt.Status != models.AttemptInProgress {
		return dto.AttemptResponse{}, terminalStateError(attempt.Status)
	}

	scoreAttempt(&attempt, assessment)
	if err := attempt.Complete(s.now()); err != nil {
		return dto.AttemptResponse{}, err
	}

	if err := s.attempts.Update(ctx, &attempt); err != nil {
		return dto.AttemptResponse{}, err
	}

	observability.AttemptsFinalized().WithLabelValues(string(models.AttemptCompleted)).Inc()
	s.logger.Info().
		Uint("attempt_id", attempt.ID).
		Float64("score", attempt.Score).
		Str("result", attempt.Result).
		Msg("attempt submitted")

	return dto.NewAttemptResponse(attempt), nil
}

func (s *attemptService) Get(ctx context.Context, candidateID, attemptID uint) (dto.AttemptResponse, error) {
	attempt, _, err := s.loadFresh(ctx, candidateID, attemptID)
	if err != nil {
		return dto.AttemptResponse{}, err
	}

	return dto.NewAttemptResponse(attempt), nil
}

// loadFresh fetches the attempt, checks ownership, and applies the lazy
// expiry transition when the deadline has passed.
func (s *attemptService) loadFresh(ctx context.Context, candidateID, attemptID uint) (models.AssessmentAttempt, models.Assessment, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.AssessmentAttempt{}, models.Assessment{}, ErrAttemptNotFound
		}
		return models.AssessmentAttempt{}, models.Assessment{}, err
	}

	if attempt.CandidateID != candidateID {
		return models.AssessmentAttempt{}, models.Assessment{}, ErrAttemptForbidden
	}

	assessment, err := s.assessments.GetByID(ctx, attempt.AssessmentID)
	if err != nil {
		return models.AssessmentAttempt{}, models.Assessment{}, err
	}

	if attempt.Status == models.AttemptInProgress && s.now().After(attempt.Deadline(assessment.Duration())) {
		attempt, err = s.finalizeExpired(ctx, &attempt, assessment)
		if err != nil {
			return models.AssessmentAttempt{}, models.Assessment{}, err
		}
	}

	return attempt, assessment, nil
}

func (s *attemptService) finalizeExpired(ctx context.Context, attempt *models.AssessmentAttempt, assessment models.Assessment) (models.AssessmentAttempt, error) {
	scoreAttempt(attempt, assessment)
	if err := attempt.Expire(assessment.Duration()); err != nil {
		return models.AssessmentAttempt{}, err
	}

	if err := s.attempts.Update(ctx, attempt); err != nil {
		return models.AssessmentAttempt{}, err
	}

	observability.AttemptsFinalized().WithLabelValues(string(models.AttemptExpired)).Inc()
	s.logger.Info().Uint("attempt_id", attempt.ID).Msg("attempt expired")

	return *attempt, nil
}

// scoreAttempt applies the scoring rule shared by submit and expiry: every
// choice-type answer whose selected index equals the question's correct index
// earns that question's marks. Text and upload answers are left for manual
// grading and contribute zero.
func scoreAttempt(attempt *models.AssessmentAttempt, assessment models.Assessment) {
	questions := make([]models.Question, len(assessment.Questions))
	copy(questions, assessment.Questions)
	sort.Slice(questions, func(i, j int) bool { return questions[i].Position < questions[j].Position })

	var score float64
	for _, answer := range attempt.Answers {
		if answer.QuestionIndex < 0 || answer.QuestionIndex >= len(questions) {
			continue
		}
		question := questions[answer.QuestionIndex]
		if !question.AutoScored() || question.CorrectIndex == nil || answer.SelectedIndex == nil {
			continue
		}
		if *answer.SelectedIndex == *question.CorrectIndex {
			score += question.Marks
		}
	}

	attempt.Score = score
	attempt.TotalMarks = assessment.TotalMarks()

	if attempt.TotalMarks > 0 {
		attempt.Percentage = math.Round(score/attempt.TotalMarks*10000) / 100
	} else {
		attempt.Percentage = 0
	}

	if attempt.Percentage >= assessment.PassPercentage {
		attempt.Result = models.AttemptResultPass
	} else {
		attempt.Result = models.AttemptResultFail
	}
}

func terminalStateError(status models.AttemptStatus) error {
	if status == models.AttemptExpired {
		return ErrAttemptExpired
	}
	return ErrAttemptFinished
}

func validateImageFile(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}

	allowed := []string{"image/jpeg", "image/png", "image/webp"}
	for _, a := range allowed {
		if mime.Is(a) {
			return nil
		}
	}

	return fmt.Errorf("unsupported capture type: %s", mime.String())
}
