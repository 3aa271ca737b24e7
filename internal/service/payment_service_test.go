package service

import (
	"context"
	"io"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jobsetu/jobsetu-api/internal/dto"
	"github.com/jobsetu/jobsetu-api/internal/models"
	"github.com/jobsetu/jobsetu-api/internal/repository"
	"github.com/jobsetu/jobsetu-api/pkg/razorpay"
)

const topUpTestSecret = "topup-gateway-secret"

func setupPaymentService(t *testing.T, cfg razorpay.Config) (PaymentService, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Employer{}, &models.Candidate{}, &models.Job{}))

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())
	gateway := razorpay.New(cfg, logger)

	svc := NewPaymentService(
		gateway,
		repository.NewJobRepository(db),
		repository.NewCandidateRepository(db),
		validate,
		4900,
		logger,
	)

	return svc, db
}

func TestPublicKeyRequiresConfiguredGateway(t *testing.T) {
	svc, _ := setupPaymentService(t, razorpay.Config{})

	_, err := svc.PublicKey()
	require.ErrorIs(t, err, ErrGatewayNotConfigured)

	svc, _ = setupPaymentService(t, razorpay.Config{KeyID: "rzp_test_key", KeySecret: topUpTestSecret})
	key, err := svc.PublicKey()
	require.NoError(t, err)
	require.Equal(t, "rzp_test_key", key.PublicKey)
}

func TestCreateOrderUnconfiguredGateway(t *testing.T) {
	svc, db := setupPaymentService(t, razorpay.Config{})

	employer := models.Employer{CompanyName: "Acme", Email: "hr@acme.test"}
	require.NoError(t, db.Create(&employer).Error)
	job := models.Job{EmployerID: employer.ID, Title: "Role", Description: "Open", Location: "Pune", Vacancies: 1, Status: models.JobStatusOpen}
	require.NoError(t, db.Create(&job).Error)

	_, err := svc.CreateOrder(context.Background(), 1, dto.CreateOrderRequest{JobID: job.ID})
	require.ErrorIs(t, err, ErrGatewayNotConfigured)
}

func TestVerifyCreditTopUpAddsCredits(t *testing.T) {
	svc, db := setupPaymentService(t, razorpay.Config{KeyID: "rzp_test_key", KeySecret: topUpTestSecret})

	candidate := models.Candidate{Name: "Ravi", Email: "ravi@example.com", RegistrationMethod: models.RegistrationPlacement, Credits: 2}
	require.NoError(t, db.Create(&candidate).Error)

	balance, err := svc.VerifyCreditTopUp(context.Background(), candidate.ID, dto.VerifyCreditPaymentRequest{
		RazorpayOrderID:   "order_topup",
		RazorpayPaymentID: "pay_topup",
		RazorpaySignature: razorpay.Sign(topUpTestSecret, "order_topup", "pay_topup"),
		Amount:            9900,
		Credits:           5,
	})
	require.NoError(t, err)
	require.Equal(t, 7, balance.Credits)
}

func TestVerifyCreditTopUpRejectsBadSignature(t *testing.T) {
	svc, db := setupPaymentService(t, razorpay.Config{KeyID: "rzp_test_key", KeySecret: topUpTestSecret})

	candidate := models.Candidate{Name: "Ravi", Email: "ravi@example.com", RegistrationMethod: models.RegistrationPlacement, Credits: 2}
	require.NoError(t, db.Create(&candidate).Error)

	_, err := svc.VerifyCreditTopUp(context.Background(), candidate.ID, dto.VerifyCreditPaymentRequest{
		RazorpayOrderID:   "order_topup",
		RazorpayPaymentID: "pay_topup",
		RazorpaySignature: "forged",
		Amount:            9900,
		Credits:           5,
	})
	require.ErrorIs(t, err, ErrInvalidSignature)

	var fresh models.Candidate
	require.NoError(t, db.First(&fresh, candidate.ID).Error)
	require.Equal(t, 2, fresh.Credits)
}

func TestVerifyCreditTopUpUnknownCandidate(t *testing.T) {
	svc, _ := setupPaymentService(t, razorpay.Config{KeyID: "rzp_test_key", KeySecret: topUpTestSecret})

	_, err := svc.VerifyCreditTopUp(context.Background(), 999, dto.VerifyCreditPaymentRequest{
		RazorpayOrderID:   "order_topup",
		RazorpayPaymentID: "pay_topup",
		RazorpaySignature: razorpay.Sign(topUpTestSecret, "order_topup", "pay_topup"),
		Amount:            9900,
		Credits:           5,
	})
	require.ErrorIs(t, err, ErrCandidateNotFound)
}
