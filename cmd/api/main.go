package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jobsetu/jobsetu-api/internal/config"
	"github.com/jobsetu/jobsetu-api/internal/database"
	"github.com/jobsetu/jobsetu-api/internal/handler"
	"github.com/jobsetu/jobsetu-api/internal/middleware"
	"github.com/jobsetu/jobsetu-api/internal/models"
	"github.com/jobsetu/jobsetu-api/internal/repository"
	"github.com/jobsetu/jobsetu-api/internal/router"
	"github.com/jobsetu/jobsetu-api/internal/service"
	"github.com/jobsetu/jobsetu-api/pkg/mailer"
	"github.com/jobsetu/jobsetu-api/pkg/razorpay"
	"github.com/jobsetu/jobsetu-api/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Candidate{},
		&models.Employer{},
		&models.PlacementOfficer{},
		&models.Job{},
		&models.Assessment{},
		&models.Question{},
		&models.AssessmentAttempt{},
		&models.AttemptAnswer{},
		&models.AttemptViolation{},
		&models.AttemptCapture{},
		&models.Application{},
		&models.OutboxEvent{},
		&models.Notification{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	uploader, err := storage.New(storage.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create storage client: %v", err)
	}

	gateway := razorpay.New(razorpay.Config{
		KeyID:     cfg.RazorpayKeyID,
		KeySecret: cfg.RazorpayKeySecret,
	}, logger)

	mail := mailer.New(mailer.Config{
		APIURL:    cfg.MailerURL,
		APIKey:    cfg.MailerAPIKey,
		FromEmail: cfg.MailerFrom,
	}, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())

	candidateRepo := repository.NewCandidateRepository(db)
	employerRepo := repository.NewEmployerRepository(db)
	placementRepo := repository.NewPlacementRepository(db)
	jobRepo := repository.NewJobRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	authService := service.NewAuthService(candidateRepo, employerRepo, placementRepo, validate, cfg.JWTSecret, 24*time.Hour, logger)
	jobService := service.NewJobService(jobRepo, redisClient, cfg.JobCacheTTL, validate, logger)
	assessmentService := service.NewAssessmentService(assessmentRepo, validate, logger)
	attemptService := service.NewAttemptService(attemptRepo, assessmentRepo, validate, uploader, logger)
	applicationService := service.NewApplicationService(applicationRepo, jobRepo, candidateRepo, gateway, redisClient, validate, cfg.ApplicationFee, logger)
	paymentService := service.NewPaymentService(gateway, jobRepo, candidateRepo, validate, cfg.ApplicationFee, logger)
	placementService := service.NewPlacementService(placementRepo, candidateRepo, outboxRepo, validate, logger)
	notificationService := service.NewNotificationService(notificationRepo, validate, logger)

	dispatcher := service.NewOutboxDispatcher(outboxRepo, notificationService, natsConn, cfg.NATSSubjectBase, mail, cfg.OutboxInterval, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:         handler.NewAuthHandler(authService, logger),
		JobHandler:          handler.NewJobHandler(jobService, cfg.JWTSecret, logger),
		AssessmentHandler:   handler.NewAssessmentHandler(assessmentService, logger),
		AttemptHandler:      handler.NewAttemptHandler(attemptService, logger),
		ApplicationHandler:  handler.NewApplicationHandler(applicationService, logger),
		PaymentHandler:      handler.NewPaymentHandler(paymentService, applicationService, logger),
		PlacementHandler:    handler.NewPlacementHandler(placementService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger),
	})

	dispatcherCtx, stopDispatcher := context.WithCancel(context.Background())
	dispatcher.Start(dispatcherCtx)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, stopDispatcher)
}

func waitForShutdown(app *fiber.App, stopDispatcher context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	stopDispatcher()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
