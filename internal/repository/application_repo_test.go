package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jobsetu/jobsetu-api/internal/models"
)

func setupRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Employer{},
		&models.Candidate{},
		&models.Job{},
		&models.Application{},
		&models.OutboxEvent{},
	))

	return db
}

func seedCandidateAndJob(t *testing.T, db *gorm.DB) (models.Candidate, models.Job) {
	t.Helper()

	employer := models.Employer{CompanyName: "Acme", Email: "hr@acme.test"}
	require.NoError(t, db.Create(&employer).Error)
	job := models.Job{EmployerID: employer.ID, Title: "Backend Engineer", Description: "Open role", Location: "Remote", Vacancies: 1, Status: models.JobStatusOpen}
	require.NoError(t, db.Create(&job).Error)
	candidate := models.Candidate{Name: "Asha", Email: "asha@example.com", RegistrationMethod: models.RegistrationSignup}
	require.NoError(t, db.Create(&candidate).Error)

	return candidate, job
}

func paidApplication(candidate models.Candidate, job models.Job, order string) models.Application {
	return models.Application{
		CandidateID:     candidate.ID,
		JobID:           job.ID,
		EmployerID:      job.EmployerID,
		PaymentStatus:   models.PaymentStatusPaid,
		PaymentID:       "pay_" + order,
		OrderID:         order,
		PaymentAmount:   4900,
		PaymentCurrency: models.CurrencyINR,
	}
}

func TestCreateWithSideEffectsCommitsAllThreeWrites(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewApplicationRepository(db)
	candidate, job := seedCandidateAndJob(t, db)
	ctx := context.Background()

	application := paidApplication(candidate, job, "order_1")
	var seenID uint
	err := repo.CreateWithSideEffects(ctx, &application, func(created models.Application) (*models.OutboxEvent, error) {
		seenID = created.ID
		return &models.OutboxEvent{
			EventID: uuid.NewString(),
			Type:    models.EventApplicationCreated,
			Payload: datatypes.JSON(`{}`),
			Status:  models.OutboxPending,
		}, nil
	})
	require.NoError(t, err)
	require.NotZero(t, application.ID)
	// The event builder runs inside the transaction, after the insert.
	require.Equal(t, application.ID, seenID)

	var storedJob models.Job
	require.NoError(t, db.First(&storedJob, job.ID).Error)
	require.Equal(t, int64(1), storedJob.ApplicationCount)

	var events int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&events).Error)
	require.Equal(t, int64(1), events)
}

func TestCreateWithSideEffectsRollsBackOnBuilderError(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewApplicationRepository(db)
	candidate, job := seedCandidateAndJob(t, db)
	ctx := context.Background()

	application := paidApplication(candidate, job, "order_1")
	err := repo.CreateWithSideEffects(ctx, &application, func(models.Application) (*models.OutboxEvent, error) {
		return nil, context.Canceled
	})
	require.Error(t, err)

	var applications, events int64
	require.NoError(t, db.Model(&models.Application{}).Count(&applications).Error)
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&events).Error)
	require.Zero(t, applications)
	require.Zero(t, events)

	var storedJob models.Job
	require.NoError(t, db.First(&storedJob, job.ID).Error)
	require.Zero(t, storedJob.ApplicationCount)
}

func TestUniqueIndexRejectsSecondApplication(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewApplicationRepository(db)
	candidate, job := seedCandidateAndJob(t, db)
	ctx := context.Background()

	first := paidApplication(candidate, job, "order_1")
	require.NoError(t, repo.CreateWithSideEffects(ctx, &first, nil))

	second := paidApplication(candidate, job, "order_2")
	err := repo.CreateWithSideEffects(ctx, &second, nil)
	require.Error(t, err)
	require.True(t, IsDuplicateKey(err))

	// The counter bump from the failed insert rolled back with it.
	var storedJob models.Job
	require.NoError(t, db.First(&storedJob, job.ID).Error)
	require.Equal(t, int64(1), storedJob.ApplicationCount)
}

func TestExistsForCandidateAndJob(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewApplicationRepository(db)
	candidate, job := seedCandidateAndJob(t, db)
	ctx := context.Background()

	exists, err := repo.ExistsForCandidateAndJob(ctx, candidate.ID, job.ID)
	require.NoError(t, err)
	require.False(t, exists)

	application := paidApplication(candidate, job, "order_1")
	require.NoError(t, repo.CreateWithSideEffects(ctx, &application, nil))

	exists, err = repo.ExistsForCandidateAndJob(ctx, candidate.ID, job.ID)
	require.NoError(t, err)
	require.True(t, exists)
}

func TestConsumeCreditStopsAtZero(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewCandidateRepository(db)
	ctx := context.Background()

	candidate := models.Candidate{Name: "Ravi", Email: "ravi@example.com", RegistrationMethod: models.RegistrationPlacement, Credits: 2}
	require.NoError(t, db.Create(&candidate).Error)

	for _, want := range []bool{true, true, false, false} {
		consumed, err := repo.ConsumeCredit(ctx, candidate.ID)
		require.NoError(t, err)
		require.Equal(t, want, consumed)
	}

	var fresh models.Candidate
	require.NoError(t, db.First(&fresh, candidate.ID).Error)
	require.Zero(t, fresh.Credits)
}

func TestAddCreditsUnknownCandidate(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewCandidateRepository(db)

	err := repo.AddCredits(context.Background(), 999, 5)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
