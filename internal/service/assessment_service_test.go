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

func setupAssessmentService(t *testing.T) AssessmentService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Assessment{}, &models.Question{}))

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())

	return NewAssessmentService(repository.NewAssessmentRepository(db), validate, logger)
}

func screeningPayload() dto.AssessmentCreateRequest {
	correct := 1
	return dto.AssessmentCreateRequest{
		Title:           "Screening",
		DurationMinutes: 30,
		PassPercentage:  50,
		Questions: []dto.QuestionCreateRequest{
			{Type: models.QuestionTypeMCQ, Prompt: "Pick B", Options: []string{"A", "B", "C"}, CorrectIndex: &correct, Marks: 5},
			{Type: models.QuestionTypeText, Prompt: "Explain your approach", Marks: 5},
		},
	}
}

func TestAssessmentCreatePreservesQuestionOrder(t *testing.T) {
	svc := setupAssessmentService(t)

	created, err := svc.Create(context.Background(), 4, screeningPayload())
	require.NoError(t, err)
	require.Equal(t, 10.0, created.TotalMarks)
	require.Len(t, created.Questions, 2)
	require.Equal(t, 0, created.Questions[0].Position)
	require.Equal(t, 1, created.Questions[1].Position)
	// The owner sees the answer key right after creation.
	require.NotNil(t, created.Questions[0].CorrectIndex)
}

func TestAssessmentCreateRejectsChoiceWithoutValidAnswer(t *testing.T) {
	svc := setupAssessmentService(t)
	ctx := context.Background()

	payload := screeningPayload()
	payload.Questions[0].CorrectIndex = nil
	_, err := svc.Create(ctx, 4, payload)
	require.Error(t, err)

	outOfRange := 9
	payload = screeningPayload()
	payload.Questions[0].CorrectIndex = &outOfRange
	_, err = svc.Create(ctx, 4, payload)
	require.Error(t, err)

	payload = screeningPayload()
	payload.Questions[0].Options = []string{"only one"}
	_, err = svc.Create(ctx, 4, payload)
	require.Error(t, err)
}

func TestAssessmentGetHidesAnswersFromNonOwners(t *testing.T) {
	svc := setupAssessmentService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 4, screeningPayload())
	require.NoError(t, err)

	asOwner, err := svc.Get(ctx, created.ID, 4)
	require.NoError(t, err)
	require.NotNil(t, asOwner.Questions[0].CorrectIndex)

	asCandidate, err := svc.Get(ctx, created.ID, 0)
	require.NoError(t, err)
	require.Nil(t, asCandidate.Questions[0].CorrectIndex)
	require.Equal(t, []string{"A", "B", "C"}, asCandidate.Questions[0].Options)

	asOtherEmployer, err := svc.Get(ctx, created.ID, 99)
	require.NoError(t, err)
	require.Nil(t, asOtherEmployer.Questions[0].CorrectIndex)
}

func TestAssessmentGetUnknownID(t *testing.T) {
	svc := setupAssessmentService(t)

	_, err := svc.Get(context.Background(), 42, 4)
	require.ErrorIs(t, err, ErrAssessmentNotFound)
}
