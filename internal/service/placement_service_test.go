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
)

func setupPlacementService(t *testing.T) (PlacementService, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.PlacementOfficer{}, &models.Candidate{}, &models.OutboxEvent{}))

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())

	svc := NewPlacementService(
		repository.NewPlacementRepository(db),
		repository.NewCandidateRepository(db),
		repository.NewOutboxRepository(db),
		validate,
		logger,
	)

	return svc, db
}

func TestTopUpCreditsForSponsoredCandidate(t *testing.T) {
	svc, db := setupPlacementService(t)

	officer := models.PlacementOfficer{Name: "Officer", Email: "tpo@college.test"}
	require.NoError(t, db.Create(&officer).Error)
	candidate := models.Candidate{
		Name:               "Ravi",
		Email:              "ravi@example.com",
		RegistrationMethod: models.RegistrationPlacement,
		PlacementID:        &officer.ID,
		Credits:            1,
	}
	require.NoError(t, db.Create(&candidate).Error)

	balance, err := svc.TopUpCredits(context.Background(), officer.ID, candidate.ID, dto.TopUpCreditsRequest{Credits: 4})
	require.NoError(t, err)
	require.Equal(t, 5, balance.Credits)

	// The grant leaves a pending outbox event for the mail follow-up.
	var event models.OutboxEvent
	require.NoError(t, db.First(&event).Error)
	require.Equal(t, models.EventCreditsPurchased, event.Type)
	require.Equal(t, models.OutboxPending, event.Status)
}

func TestTopUpCreditsRejectsForeignCandidate(t *testing.T) {
	svc, db := setupPlacementService(t)

	owner := models.PlacementOfficer{Name: "Owner", Email: "owner@college.test"}
	require.NoError(t, db.Create(&owner).Error)
	other := models.PlacementOfficer{Name: "Other", Email: "other@college.test"}
	require.NoError(t, db.Create(&other).Error)

	candidate := models.Candidate{
		Name:               "Ravi",
		Email:              "ravi@example.com",
		RegistrationMethod: models.RegistrationPlacement,
		PlacementID:        &owner.ID,
		Credits:            1,
	}
	require.NoError(t, db.Create(&candidate).Error)

	_, err := svc.TopUpCredits(context.Background(), other.ID, candidate.ID, dto.TopUpCreditsRequest{Credits: 4})
	require.ErrorIs(t, err, ErrPlacementForbidden)

	var fresh models.Candidate
	require.NoError(t, db.First(&fresh, candidate.ID).Error)
	require.Equal(t, 1, fresh.Credits)
}

func TestTopUpCreditsValidation(t *testing.T) {
	svc, db := setupPlacementService(t)

	officer := models.PlacementOfficer{Name: "Officer", Email: "tpo@college.test"}
	require.NoError(t, db.Create(&officer).Error)

	_, err := svc.TopUpCredits(context.Background(), officer.ID, 1, dto.TopUpCreditsRequest{Credits: 0})
	require.Error(t, err)

	_, err = svc.TopUpCredits(context.Background(), officer.ID, 1, dto.TopUpCreditsRequest{Credits: 1001})
	require.Error(t, err)
}

func TestImportCandidatesSkipsTakenEmails(t *testing.T) {
	svc, db := setupPlacementService(t)
	ctx := context.Background()

	officer := models.PlacementOfficer{Name: "Officer", Email: "tpo@college.test"}
	require.NoError(t, db.Create(&officer).Error)
	existing := models.Candidate{Name: "Meena", Email: "meena@example.com", RegistrationMethod: models.RegistrationSignup}
	require.NoError(t, db.Create(&existing).Error)

	result, err := svc.ImportCandidates(ctx, officer.ID, dto.CandidateImportRequest{
		Candidates: []dto.CandidateImportItem{
			{Name: "Ravi", Email: "ravi@example.com", Credits: 3},
			{Name: "Asha", Email: "asha@example.com", Password: "chosen-by-tpo"},
			{Name: "Dup", Email: "meena@example.com"},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Imported, 2)
	require.Len(t, result.Skipped, 1)
	require.Equal(t, "meena@example.com", result.Skipped[0].Email)

	// Generated credentials are returned; caller-supplied ones are not echoed.
	require.NotEmpty(t, result.Imported[0].TemporaryPassword)
	require.Empty(t, result.Imported[1].TemporaryPassword)

	var ravi models.Candidate
	require.NoError(t, db.Where("email = ?", "ravi@example.com").First(&ravi).Error)
	require.Equal(t, models.RegistrationPlacement, ravi.RegistrationMethod)
	require.NotNil(t, ravi.PlacementID)
	require.Equal(t, officer.ID, *ravi.PlacementID)
	require.Equal(t, 3, ravi.Credits)
}

func TestListCandidatesScopedToOfficer(t *testing.T) {
	svc, db := setupPlacementService(t)

	owner := models.PlacementOfficer{Name: "Owner", Email: "owner@college.test"}
	require.NoError(t, db.Create(&owner).Error)
	other := models.PlacementOfficer{Name: "Other", Email: "other@college.test"}
	require.NoError(t, db.Create(&other).Error)

	mine := models.Candidate{Name: "Ravi", Email: "ravi@example.com", RegistrationMethod: models.RegistrationPlacement, PlacementID: &owner.ID}
	require.NoError(t, db.Create(&mine).Error)
	theirs := models.Candidate{Name: "Meena", Email: "meena@example.com", RegistrationMethod: models.RegistrationPlacement, PlacementID: &other.ID}
	require.NoError(t, db.Create(&theirs).Error)

	listed, err := svc.ListCandidates(context.Background(), owner.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, mine.ID, listed[0].ID)
}
