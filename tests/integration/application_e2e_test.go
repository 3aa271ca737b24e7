package integration_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jobsetu/jobsetu-api/internal/config"
	"github.com/jobsetu/jobsetu-api/internal/dto"
	"github.com/jobsetu/jobsetu-api/internal/handler"
	"github.com/jobsetu/jobsetu-api/internal/models"
	"github.com/jobsetu/jobsetu-api/internal/repository"
	"github.com/jobsetu/jobsetu-api/internal/router"
	"github.com/jobsetu/jobsetu-api/internal/service"
	"github.com/jobsetu/jobsetu-api/pkg/mailer"
	"github.com/jobsetu/jobsetu-api/pkg/razorpay"
)

const (
	testJWTSecret  = "integration-secret"
	testGatewayKey = "rzp_test_integration"
	testGatewaySec = "gateway-secret"
)

type e2eEnv struct {
	app        *fiber.App
	db         *gorm.DB
	dispatcher *service.OutboxDispatcher
}

func setupEnv(t *testing.T) e2eEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Candidate{},
		&models.Employer{},
		&models.PlacementOfficer{},
		&models.Job{},
		&models.Application{},
		&models.OutboxEvent{},
		&models.Notification{},
	))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	candidateRepo := repository.NewCandidateRepository(db)
	placementRepo := repository.NewPlacementRepository(db)
	jobRepo := repository.NewJobRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	gateway := razorpay.New(razorpay.Config{KeyID: testGatewayKey, KeySecret: testGatewaySec}, logger)
	mail := mailer.New(mailer.Config{}, logger)

	jobService := service.NewJobService(jobRepo, nil, time.Minute, validate, logger)
	applicationService := service.NewApplicationService(applicationRepo, jobRepo, candidateRepo, gateway, nil, validate, 4900, logger)
	paymentService := service.NewPaymentService(gateway, jobRepo, candidateRepo, validate, 4900, logger)
	placementService := service.NewPlacementService(placementRepo, candidateRepo, outboxRepo, validate, logger)
	notificationService := service.NewNotificationService(notificationRepo, validate, logger)
	dispatcher := service.NewOutboxDispatcher(outboxRepo, notificationService, nil, "jobsetu", mail, time.Second, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "JobSetu Test", JWTSecret: testJWTSecret}, router.Dependencies{
		JobHandler:          handler.NewJobHandler(jobService, testJWTSecret, logger),
		ApplicationHandler:  handler.NewApplicationHandler(applicationService, logger),
		PaymentHandler:      handler.NewPaymentHandler(paymentService, applicationService, logger),
		PlacementHandler:    handler.NewPlacementHandler(placementService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger),
	})

	return e2eEnv{app: app, db: db, dispatcher: dispatcher}
}

func signToken(t *testing.T, id uint, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  id,
		"role": role,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func postJSON(t *testing.T, app *fiber.App, path, token string, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response, target *T) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target))
}

func TestGatewayApplicationFlow(t *testing.T) {
	env := setupEnv(t)

	employer := models.Employer{CompanyName: "Acme", Email: "hr@acme.test"}
	require.NoError(t, env.db.Create(&employer).Error)
	job := models.Job{EmployerID: employer.ID, Title: "Backend Engineer", Description: "Build services", Location: "Remote", Vacancies: 2, Status: models.JobStatusOpen}
	require.NoError(t, env.db.Create(&job).Error)
	candidate := models.Candidate{Name: "Asha", Email: "asha@example.com", PasswordHash: "x", RegistrationMethod: models.RegistrationSignup}
	require.NoError(t, env.db.Create(&candidate).Error)

	token := signToken(t, candidate.ID, "candidate")
	orderID := "order_e2e_1"
	paymentID := "pay_e2e_1"

	// Tampered signature is rejected before anything is written.
	resp := postJSON(t, env.app, "/api/v1/payment/verify-payment", token, map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
		"razorpay_signature":  "deadbeef",
		"job_id":              job.ID,
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	var count int64
	require.NoError(t, env.db.Model(&models.Application{}).Count(&count).Error)
	require.Zero(t, count)

	// Valid signature finalizes the application.
	resp = postJSON(t, env.app, "/api/v1/payment/verify-payment", token, map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
		"razorpay_signature":  razorpay.Sign(testGatewaySec, orderID, paymentID),
		"job_id":              job.ID,
		"cover_letter":        "Excited to apply.",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created struct {
		Success bool            `json:"success"`
		Data    dto.ApplyResult `json:"data"`
	}
	decodeBody(t, resp, &created)
	require.True(t, created.Success)
	require.Equal(t, "paid", created.Data.Application.PaymentStatus)
	require.Equal(t, "INR", created.Data.Application.PaymentCurrency)

	var storedJob models.Job
	require.NoError(t, env.db.First(&storedJob, job.ID).Error)
	require.Equal(t, int64(1), storedJob.ApplicationCount)

	// Second application to the same job is a conflict.
	resp = postJSON(t, env.app, "/api/v1/payment/verify-payment", token, map[string]interface{}{
		"razorpay_order_id":   "order_e2e_2",
		"razorpay_payment_id": "pay_e2e_2",
		"razorpay_signature":  razorpay.Sign(testGatewaySec, "order_e2e_2", "pay_e2e_2"),
		"job_id":              job.ID,
	})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// The outbox event produces an employer notification once dispatched.
	env.dispatcher.DispatchPending(t.Context())

	var notifications []models.Notification
	require.NoError(t, env.db.Find(&notifications).Error)
	require.Len(t, notifications, 1)
	require.Equal(t, "employer:"+itoa(employer.ID), notifications[0].UserID)

	var event models.OutboxEvent
	require.NoError(t, env.db.First(&event).Error)
	require.Equal(t, models.OutboxDelivered, event.Status)
}

func TestCreditApplicationFlow(t *testing.T) {
	env := setupEnv(t)

	employer := models.Employer{CompanyName: "Acme", Email: "hr@acme.test"}
	require.NoError(t, env.db.Create(&employer).Error)
	officer := models.PlacementOfficer{Name: "Officer", Email: "tpo@college.test"}
	require.NoError(t, env.db.Create(&officer).Error)

	jobs := make([]models.Job, 0, 3)
	for _, title := range []string{"Role A", "Role B", "Role C"} {
		job := models.Job{EmployerID: employer.ID, Title: title, Description: "Open role", Location: "Pune", Vacancies: 1, Status: models.JobStatusOpen}
		require.NoError(t, env.db.Create(&job).Error)
		jobs = append(jobs, job)
	}

	sponsored := models.Candidate{
		Name:               "Ravi",
		Email:              "ravi@example.com",
		PasswordHash:       "x",
		RegistrationMethod: models.RegistrationPlacement,
		PlacementID:        &officer.ID,
		Credits:            2,
	}
	require.NoError(t, env.db.Create(&sponsored).Error)
	regular := models.Candidate{Name: "Meena", Email: "meena@example.com", PasswordHash: "x", RegistrationMethod: models.RegistrationSignup}
	require.NoError(t, env.db.Create(&regular).Error)

	sponsoredToken := signToken(t, sponsored.ID, "candidate")
	regularToken := signToken(t, regular.ID, "candidate")

	// Non-sponsored candidates cannot pay with credits.
	resp := postJSON(t, env.app, "/api/v1/applications/apply-with-credits", regularToken, map[string]interface{}{"job_id": jobs[0].ID})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Each successful credit application decrements the balance by one.
	for i, wantRemaining := range []int{1, 0} {
		resp = postJSON(t, env.app, "/api/v1/applications/apply-with-credits", sponsoredToken, map[string]interface{}{"job_id": jobs[i].ID})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)

		var result struct {
			Data dto.ApplyResult `json:"data"`
		}
		decodeBody(t, resp, &result)
		require.NotNil(t, result.Data.RemainingCredits)
		require.Equal(t, wantRemaining, *result.Data.RemainingCredits)
		require.Equal(t, "CREDITS", result.Data.Application.PaymentCurrency)
	}

	// Balance exhausted.
	resp = postJSON(t, env.app, "/api/v1/applications/apply-with-credits", sponsoredToken, map[string]interface{}{"job_id": jobs[2].ID})
	require.Equal(t, fiber.StatusPaymentRequired, resp.StatusCode)
	resp.Body.Close()

	// Reapplying to an already-applied job conflicts and refunds nothing.
	officerToken := signToken(t, officer.ID, "placement")
	resp = postJSON(t, env.app, "/api/v1/placements/candidates/"+itoa(sponsored.ID)+"/credits", officerToken, map[string]interface{}{"credits": 3})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var balance struct {
		Data dto.CreditBalanceResponse `json:"data"`
	}
	decodeBody(t, resp, &balance)
	require.Equal(t, 3, balance.Data.Credits)

	resp = postJSON(t, env.app, "/api/v1/applications/apply-with-credits", sponsoredToken, map[string]interface{}{"job_id": jobs[0].ID})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	var fresh models.Candidate
	require.NoError(t, env.db.First(&fresh, sponsored.ID).Error)
	require.Equal(t, 3, fresh.Credits)
}

func itoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
