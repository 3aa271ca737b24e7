package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/jobsetu/jobsetu-api/internal/dto"
	"github.com/jobsetu/jobsetu-api/internal/models"
	"github.com/jobsetu/jobsetu-api/internal/observability"
	"github.com/jobsetu/jobsetu-api/internal/repository"
	"github.com/jobsetu/jobsetu-api/pkg/razorpay"
)

// ErrGatewayNotConfigured indicates the payment provider credentials are
// missing from the deployment.
var ErrGatewayNotConfigured = errors.New("payment gateway is not configured")

// PaymentService fronts the payment gateway: order creation before checkout
// and the credit top-up flow. Application finalization after a successful
// payment lives in ApplicationService.
type PaymentService interface {
	PublicKey() (dto.PaymentKeyResponse, error)
	CreateOrder(ctx context.Context, candidateID uint, payload dto.CreateOrderRequest) (dto.OrderResponse, error)
	VerifyCreditTopUp(ctx context.Context, candidateID uint, payload dto.VerifyCreditPaymentRequest) (dto.CreditBalanceResponse, error)
}

type paymentService struct {
	gateway    razorpay.Gateway
	jobs       repository.JobRepository
	candidates repository.CandidateRepository
	validator  *validator.Validate
	logger     zerolog.Logger
	fee        int64
	now        func() time.Time
}

// NewPaymentService constructs a PaymentService instance.
func NewPaymentService(gateway razorpay.Gateway, jobs repository.JobRepository, candidates repository.CandidateRepository, validate *validator.Validate, fee int64, logger zerolog.Logger) PaymentService {
	return &paymentService{
		gateway:    gateway,
		jobs:       jobs,
		candidates: candidates,
		validator:  validate,
		logger:     logger.With().Str("component", "payment_service").Logger(),
		fee:        fee,
		now:        time.Now,
	}
}

func (s *paymentService) PublicKey() (dto.PaymentKeyResponse, error) {
	if !s.gateway.Configured() {
		return dto.PaymentKeyResponse{}, ErrGatewayNotConfigured
	}

	return dto.PaymentKeyResponse{PublicKey: s.gateway.KeyID()}, nil
}

// CreateOrder registers a gateway order for the application fee. Nothing is
// persisted locally, so a failure here leaves no partial state behind.
func (s *paymentService) CreateOrder(ctx context.Context, candidateID uint, payload dto.CreateOrderRequest) (dto.OrderResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.OrderResponse{}, err
	}

	if !s.gateway.Configured() {
		return dto.OrderResponse{}, ErrGatewayNotConfigured
	}

	if _, err := s.jobs.GetByID(ctx, payload.JobID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.OrderResponse{}, ErrJobNotFound
		}
		return dto.OrderResponse{}, err
	}

	amount := payload.Amount
	if amount <= 0 {
		amount = s.fee
	}

	receipt := fmt.Sprintf("rcpt_%d_%s", s.now().UnixMilli(), truncateID(candidateID))

	order, err := s.gateway.CreateOrder(ctx, amount, models.CurrencyINR, receipt)
	if err != nil {
		return dto.OrderResponse{}, err
	}

	s.logger.Info().Str("order_id", order.ID).Uint("job_id", payload.JobID).Msg("payment order created")

	return dto.OrderResponse{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Receipt:  order.Receipt,
	}, nil
}

// VerifyCreditTopUp verifies the gateway signature exactly like the
// application path, then increments the candidate's balance by the purchased
// amount. No application is created.
func (s *paymentService) VerifyCreditTopUp(ctx context.Context, candidateID uint, payload dto.VerifyCreditPaymentRequest) (dto.CreditBalanceResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CreditBalanceResponse{}, err
	}

	if !s.gateway.VerifySignature(payload.RazorpayOrderID, payload.RazorpayPaymentID, payload.RazorpaySignature) {
		observability.PaymentsVerified().WithLabelValues("invalid_signature").Inc()
		return dto.CreditBalanceResponse{}, ErrInvalidSignature
	}

	if err := s.candidates.AddCredits(ctx, candidateID, payload.Credits); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CreditBalanceResponse{}, ErrCandidateNotFound
		}
		return dto.CreditBalanceResponse{}, err
	}

	observability.PaymentsVerified().WithLabelValues("verified").Inc()

	candidate, err := s.candidates.GetByID(ctx, candidateID)
	if err != nil {
		return dto.CreditBalanceResponse{}, err
	}

	s.logger.Info().
		Uint("candidate_id", candidateID).
		Int("credits_added", payload.Credits).
		Int("balance", candidate.Credits).
		Msg("credit top-up verified")

	return dto.CreditBalanceResponse{Credits: candidate.Credits}, nil
}
