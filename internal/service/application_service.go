package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jobsetu/jobsetu-api/internal/dto"
	"github.com/jobsetu/jobsetu-api/internal/models"
	"github.com/jobsetu/jobsetu-api/internal/observability"
	"github.com/jobsetu/jobsetu-api/internal/repository"
	"github.com/jobsetu/jobsetu-api/pkg/razorpay"
)

// ErrCandidateNotFound indicates the candidate record is missing.
var ErrCandidateNotFound = errors.New("candidate not found")

// ErrDuplicateApplication indicates the candidate already applied to the job.
var ErrDuplicateApplication = errors.New("application already exists for this job")

// ErrInsufficientCredits indicates the candidate's balance is empty.
var ErrInsufficientCredits = errors.New("insufficient credits")

// ErrCreditsNotAllowed indicates the candidate is not placement-sponsored and
// cannot pay with credits.
var ErrCreditsNotAllowed = errors.New("credit payments require a placement-linked account")

// ErrInvalidSignature indicates the gateway callback signature did not match.
var ErrInvalidSignature = errors.New("payment signature verification failed")

// ErrJobClosed indicates the posting no longer accepts applications.
var ErrJobClosed = errors.New("job is closed for applications")

// ApplicationEvent is the outbox payload recorded when an application is
// finalized. The dispatcher uses it to notify the employer and mail the
// candidate without coupling delivery to the request path.
type ApplicationEvent struct {
	ApplicationID  uint   `json:"application_id"`
	JobID          uint   `json:"job_id"`
	JobTitle       string `json:"job_title"`
	EmployerID     uint   `json:"employer_id"`
	CandidateID    uint   `json:"candidate_id"`
	CandidateName  string `json:"candidate_name"`
	CandidateEmail string `json:"candidate_email"`
	PaymentMethod  string `json:"payment_method"`
}

// Payment methods recorded on application events.
const (
	PaymentMethodGateway = "gateway"
	PaymentMethodCredits = "credits"
)

// ApplicationService binds a candidate, a job and a payment into exactly one
// application record. Both payment paths share the same commit point: the
// application row, the job counter bump and the outbox event are written in
// one transaction, after which the cached job entry is invalidated.
type ApplicationService interface {
	ApplyWithGatewayPayment(ctx context.Context, candidateID uint, payload dto.VerifyPaymentRequest) (dto.ApplyResult, error)
	ApplyWithCredits(ctx context.Context, candidateID uint, payload dto.ApplyWithCreditsRequest) (dto.ApplyResult, error)
	ListForCandidate(ctx context.Context, candidateID uint) ([]dto.ApplicationResponse, error)
}

type applicationService struct {
	applications repository.ApplicationRepository
	jobs         repository.JobRepository
	candidates   repository.CandidateRepository
	gateway      razorpay.Gateway
	cache        *redis.Client
	sanitizer    *bluemonday.Policy
	validator    *validator.Validate
	logger       zerolog.Logger
	tracer       trace.Tracer
	fee          int64
	now          func() time.Time
}

// NewApplicationService constructs an ApplicationService instance. The fee is
// the fixed per-application charge in the smallest currency unit for the
// gateway path.
func NewApplicationService(applications repository.ApplicationRepository, jobs repository.JobRepository, candidates repository.CandidateRepository, gateway razorpay.Gateway, cache *redis.Client, validate *validator.Validate, fee int64, logger zerolog.Logger) ApplicationService {
	return &applicationService{
		applications: applications,
		jobs:         jobs,
		candidates:   candidates,
		gateway:      gateway,
		cache:        cache,
		sanitizer:    bluemonday.StrictPolicy(),
		validator:    validate,
		logger:       logger.With().Str("component", "application_service").Logger(),
		tracer:       otel.Tracer("github.com/jobsetu/jobsetu-api/internal/service/application"),
		fee:          fee,
		now:          time.Now,
	}
}

func (s *applicationService) ApplyWithGatewayPayment(ctx context.Context, candidateID uint, payload dto.VerifyPaymentRequest) (dto.ApplyResult, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ApplyResult{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "applications.apply_gateway", trace.WithAttributes(
		attribute.Int64("candidate.id", int64(candidateID)),
		attribute.Int64("job.id", int64(payload.JobID)),
	))
	defer span.End()

	// Signature mismatch is fatal and side-effect-free: nothing has been
	// written yet.
	if !s.gateway.VerifySignature(payload.RazorpayOrderID, payload.RazorpayPaymentID, payload.RazorpaySignature) {
		observability.PaymentsVerified().WithLabelValues("invalid_signature").Inc()
		return dto.ApplyResult{}, ErrInvalidSignature
	}

	job, candidate, err := s.loadJobAndCandidate(spanCtx, payload.JobID, candidateID)
	if err != nil {
		return dto.ApplyResult{}, err
	}

	if exists, err := s.applications.ExistsForCandidateAndJob(spanCtx, candidateID, job.ID); err != nil {
		return dto.ApplyResult{}, err
	} else if exists {
		return dto.ApplyResult{}, ErrDuplicateApplication
	}

	application := models.Application{
		CandidateID:     candidateID,
		JobID:           job.ID,
		EmployerID:      job.EmployerID,
		CoverLetter:     s.sanitizer.Sanitize(payload.CoverLetter),
		Resume:          candidate.Resume,
		PaymentStatus:   models.PaymentStatusPaid,
		PaymentID:       payload.RazorpayPaymentID,
		OrderID:         payload.RazorpayOrderID,
		PaymentAmount:   s.fee,
		PaymentCurrency: models.CurrencyINR,
	}

	if err := s.finalize(spanCtx, &application, job, candidate, PaymentMethodGateway); err != nil {
		span.RecordError(err)
		return dto.ApplyResult{}, err
	}

	observability.PaymentsVerified().WithLabelValues("verified").Inc()
	observability.ApplicationsCreated().WithLabelValues(PaymentMethodGateway).Inc()

	return dto.ApplyResult{Application: dto.NewApplicationResponse(application)}, nil
}

func (s *applicationService) ApplyWithCredits(ctx context.Context, candidateID uint, payload dto.ApplyWithCreditsRequest) (dto.ApplyResult, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ApplyResult{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "applications.apply_credits", trace.WithAttributes(
		attribute.Int64("candidate.id", int64(candidateID)),
		attribute.Int64("job.id", int64(payload.JobID)),
	))
	defer span.End()

	job, candidate, err := s.loadJobAndCandidate(spanCtx, payload.JobID, candidateID)
	if err != nil {
		return dto.ApplyResult{}, err
	}

	if !candidate.CreditEligible() {
		return dto.ApplyResult{}, ErrCreditsNotAllowed
	}
	if candidate.Credits <= 0 {
		return dto.ApplyResult{}, ErrInsufficientCredits
	}

	if exists, err := s.applications.ExistsForCandidateAndJob(spanCtx, candidateID, job.ID); err != nil {
		return dto.ApplyResult{}, err
	} else if exists {
		return dto.ApplyResult{}, ErrDuplicateApplication
	}

	// The conditional decrement is the serialization point for the credit
	// balance: concurrent callers race on the WHERE clause, not on a
	// read-modify-write cycle, so the balance can never go below zero.
	consumed, err := s.candidates.ConsumeCredit(spanCtx, candidateID)
	if err != nil {
		return dto.ApplyResult{}, err
	}
	if !consumed {
		return dto.ApplyResult{}, ErrInsufficientCredits
	}

	token := fmt.Sprintf("credit_%d_%s", s.now().UnixMilli(), truncateID(candidateID))
	application := models.Application{
		CandidateID:     candidateID,
		JobID:           job.ID,
		EmployerID:      job.EmployerID,
		CoverLetter:     s.sanitizer.Sanitize(payload.CoverLetter),
		Resume:          candidate.Resume,
		PaymentStatus:   models.PaymentStatusPaid,
		PaymentID:       token,
		OrderID:         token,
		PaymentAmount:   0,
		PaymentCurrency: models.CurrencyCredits,
	}

	if err := s.finalize(spanCtx, &application, job, candidate, PaymentMethodCredits); err != nil {
		span.RecordError(err)
		// The credit was consumed but the application never committed;
		// hand the credit back so no partial state is observable.
		if refundErr := s.candidates.AddCredits(spanCtx, candidateID, 1); refundErr != nil {
			s.logger.Error().Err(refundErr).Uint("candidate_id", candidateID).Msg("failed to refund credit after aborted application")
		}
		return dto.ApplyResult{}, err
	}

	observability.ApplicationsCreated().WithLabelValues(PaymentMethodCredits).Inc()

	remaining := candidate.Credits - 1
	if fresh, err := s.candidates.GetByID(spanCtx, candidateID); err == nil {
		remaining = fresh.Credits
	}

	return dto.ApplyResult{
		Application:      dto.NewApplicationResponse(application),
		RemainingCredits: &remaining,
	}, nil
}

func (s *applicationService) ListForCandidate(ctx context.Context, candidateID uint) ([]dto.ApplicationResponse, error) {
	applications, err := s.applications.ListByCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	return dto.NewApplicationResponseSlice(applications), nil
}

func (s *applicationService) loadJobAndCandidate(ctx context.Context, jobID, candidateID uint) (models.Job, models.Candidate, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Job{}, models.Candidate{}, ErrJobNotFound
		}
		return models.Job{}, models.Candidate{}, err
	}

	if !job.IsOpen() {
		return models.Job{}, models.Candidate{}, ErrJobClosed
	}

	candidate, err := s.candidates.GetByID(ctx, candidateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Job{}, models.Candidate{}, ErrCandidateNotFound
		}
		return models.Job{}, models.Candidate{}, err
	}

	return job, candidate, nil
}

// finalize is the shared commit point: one transaction covers the application
// row, the job counter and the outbox event. The unique index on
// (candidate_id, job_id) closes the race the pre-check alone would leave
// open. Cache invalidation afterwards is best-effort.
func (s *applicationService) finalize(ctx context.Context, application *models.Application, job models.Job, candidate models.Candidate, method string) error {
	buildEvent := func(created models.Application) (*models.OutboxEvent, error) {
		return buildApplicationEvent(created, job, candidate, method)
	}

	if err := s.applications.CreateWithSideEffects(ctx, application, buildEvent); err != nil {
		if repository.IsDuplicateKey(err) {
			return ErrDuplicateApplication
		}
		return err
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, jobCacheKey(job.ID)).Err(); err != nil {
			s.logger.Warn().Err(err).Uint("job_id", job.ID).Msg("failed to invalidate job cache")
		}
	}

	s.logger.Info().
		Uint("application_id", application.ID).
		Uint("job_id", job.ID).
		Str("method", method).
		Msg("application created")

	return nil
}

func buildApplicationEvent(application models.Application, job models.Job, candidate models.Candidate, method string) (*models.OutboxEvent, error) {
	payload, err := json.Marshal(ApplicationEvent{
		ApplicationID:  application.ID,
		JobID:          job.ID,
		JobTitle:       job.Title,
		EmployerID:     job.EmployerID,
		CandidateID:    candidate.ID,
		CandidateName:  candidate.Name,
		CandidateEmail: candidate.Email,
		PaymentMethod:  method,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode application event: %w", err)
	}

	return &models.OutboxEvent{
		EventID: uuid.NewString(),
		Type:    models.EventApplicationCreated,
		Payload: datatypes.JSON(payload),
		Status:  models.OutboxPending,
	}, nil
}

// truncateID shortens the numeric id the same way receipts do, keeping
// synthetic payment tokens compact.
func truncateID(id uint) string {
	text := fmt.Sprintf("%d", id)
	if len(text) > 8 {
		text = text[:8]
	}
	return text
}
