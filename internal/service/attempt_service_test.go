package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jobsetu/jobsetu-api/internal/dto"
	"github.com/jobsetu/jobsetu-api/internal/models"
	"github.com/jobsetu/jobsetu-api/internal/repository"
)

func setupAttemptService(t *testing.T) (*attemptService, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Assessment{},
		&models.Question{},
		&models.AssessmentAttempt{},
		&models.AttemptAnswer{},
		&models.AttemptViolation{},
		&models.AttemptCapture{},
	))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	svc := NewAttemptService(
		repository.NewAttemptRepository(db),
		repository.NewAssessmentRepository(db),
		validate,
		nil,
		logger,
	).(*attemptService)

	return svc, db
}

func seedAssessment(t *testing.T, db *gorm.DB) models.Assessment {
	t.Helper()

	correctFirst := 0
	correctThird := 2
	assessment := models.Assessment{
		EmployerID:      1,
		Title:           "Screening",
		DurationMinutes: 30,
		PassPercentage:  50,
		Questions: []models.Question{
			{Position: 0, Type: models.QuestionTypeMCQ, Prompt: "Pick A", Marks: 5, CorrectIndex: &correctFirst},
			{Position: 1, Type: models.QuestionTypeText, Prompt: "Explain", Marks: 5},
			{Position: 2, Type: models.QuestionTypeMCQ, Prompt: "Pick C", Marks: 5, CorrectIndex: &correctThird},
		},
	}
	require.NoError(t, db.Create(&assessment).Error)
	return assessment
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func TestSubmitScoresOnlyChoiceQuestions(t *testing.T) {
	svc, db := setupAttemptService(t)
	assessment := seedAssessment(t, db)
	ctx := context.Background()

	started, err := svc.Start(ctx, 7, assessment.ID)
	require.NoError(t, err)
	require.Equal(t, models.AttemptInProgress, started.Status)
	require.Equal(t, 15.0, started.TotalMarks)

	_, err = svc.RecordAnswer(ctx, 7, started.ID, 0, dto.AnswerRequest{SelectedIndex: intPtr(0)})
	require.NoError(t, err)
	_, err = svc.RecordAnswer(ctx, 7, started.ID, 1, dto.AnswerRequest{TextAnswer: strPtr("free-form essay")})
	require.NoError(t, err)
	_, err = svc.RecordAnswer(ctx, 7, started.ID, 2, dto.AnswerRequest{SelectedIndex: intPtr(1)})
	require.NoError(t, err)

	submitted, err := svc.Submit(ctx, 7, started.ID)
	require.NoError(t, err)
	require.Equal(t, models.AttemptCompleted, submitted.Status)
	require.Equal(t, 5.0, submitted.Score)
	require.Equal(t, 33.33, submitted.Percentage)
	require.Equal(t, models.AttemptResultFail, submitted.Result)
	require.NotNil(t, submitted.EndTime)
}

func TestAnswerOverwriteKeepsSingleRow(t *testing.T) {
	svc, db := setupAttemptService(t)
	assessment := seedAssessment(t, db)
	ctx := context.Background()

	started, err := svc.Start(ctx, 7, assessment.ID)
	require.NoError(t, err)

	_, err = svc.RecordAnswer(ctx, 7, started.ID, 0, dto.AnswerRequest{SelectedIndex: intPtr(1)})
	require.NoError(t, err)
	updated, err := svc.RecordAnswer(ctx, 7, started.ID, 0, dto.AnswerRequest{SelectedIndex: intPtr(0)})
	require.NoError(t, err)

	require.Len(t, updated.Answers, 1)
	require.Equal(t, 0, *updated.Answers[0].SelectedIndex)

	var count int64
	require.NoError(t, db.Model(&models.AttemptAnswer{}).Where("attempt_id = ?", started.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestAnswerIndexOutOfRange(t *testing.T) {
	svc, db := setupAttemptService(t)
	assessment := seedAssessment(t, db)
	ctx := context.Background()

	started, err := svc.Start(ctx, 7, assessment.ID)
	require.NoError(t, err)

	_, err = svc.RecordAnswer(ctx, 7, started.ID, 5, dto.AnswerRequest{SelectedIndex: intPtr(0)})
	require.ErrorIs(t, err, ErrQuestionIndexInvalid)
}

func TestLazyExpiryFinalizesPastDeadline(t *testing.T) {
	svc, db := setupAttemptService(t)
	assessment := seedAssessment(t, db)
	ctx := context.Background()

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	started, err := svc.Start(ctx, 7, assessment.ID)
	require.NoError(t, err)

	_, err = svc.RecordAnswer(ctx, 7, started.ID, 0, dto.AnswerRequest{SelectedIndex: intPtr(0)})
	require.NoError(t, err)

	// 31 minutes into a 30-minute window: the next read expires the attempt
	// and the recorded answers still count.
	svc.now = func() time.Time { return base.Add(31 * time.Minute) }

	fetched, err := svc.Get(ctx, 7, started.ID)
	require.NoError(t, err)
	require.Equal(t, models.AttemptExpired, fetched.Status)
	require.Equal(t, 5.0, fetched.Score)
	require.NotNil(t, fetched.EndTime)
	require.True(t, fetched.EndTime.Equal(base.Add(30*time.Minute)))

	_, err = svc.RecordAnswer(ctx, 7, started.ID, 2, dto.AnswerRequest{SelectedIndex: intPtr(2)})
	require.ErrorIs(t, err, ErrAttemptExpired)

	_, err = svc.Submit(ctx, 7, started.ID)
	require.ErrorIs(t, err, ErrAttemptExpired)
}

func TestStartConflictsWithLiveAttempt(t *testing.T) {
	svc, db := setupAttemptService(t)
	assessment := seedAssessment(t, db)
	ctx := context.Background()

	_, err := svc.Start(ctx, 7, assessment.ID)
	require.NoError(t, err)

	_, err = svc.Start(ctx, 7, assessment.ID)
	require.ErrorIs(t, err, ErrAttemptConflict)

	// A different candidate is unaffected.
	_, err = svc.Start(ctx, 8, assessment.ID)
	require.NoError(t, err)
}

func TestStartReplacesStaleAttempt(t *testing.T) {
	svc, db := setupAttemptService(t)
	assessment := seedAssessment(t, db)
	ctx := context.Background()

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	stale, err := svc.Start(ctx, 7, assessment.ID)
	require.NoError(t, err)

	svc.now = func() time.Time { return base.Add(45 * time.Minute) }

	fresh, err := svc.Start(ctx, 7, assessment.ID)
	require.NoError(t, err)
	require.NotEqual(t, stale.ID, fresh.ID)

	expired, err := svc.Get(ctx, 7, stale.ID)
	require.NoError(t, err)
	require.Equal(t, models.AttemptExpired, expired.Status)
}

func TestViolationsRecordedInOrder(t *testing.T) {
	svc, db := setupAttemptService(t)
	assessment := seedAssessment(t, db)
	ctx := context.Background()

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	started, err := svc.Start(ctx, 7, assessment.ID)
	require.NoError(t, err)

	types := []string{
		models.ViolationTabSwitch,
		models.ViolationCopyPaste,
		models.ViolationTabSwitch,
		models.ViolationWindowMinimize,
		models.ViolationRightClick,
	}
	for i, violationType := range types {
		offset := time.Duration(i) * time.Minute
		svc.now = func() time.Time { return base.Add(offset) }
		require.NoError(t, svc.RecordViolation(ctx, 7, started.ID, dto.ViolationRequest{Type: violationType}))
	}

	svc.now = func() time.Time { return base.Add(10 * time.Minute) }
	fetched, err := svc.Get(ctx, 7, started.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Violations, 5)
	for i, violation := range fetched.Violations {
		require.Equal(t, types[i], violation.Type)
	}
}

func TestAttemptOwnershipEnforced(t *testing.T) {
	svc, db := setupAttemptService(t)
	assessment := seedAssessment(t, db)
	ctx := context.Background()

	started, err := svc.Start(ctx, 7, assessment.ID)
	require.NoError(t, err)

	_, err = svc.Get(ctx, 9, started.ID)
	require.ErrorIs(t, err, ErrAttemptForbidden)
}
