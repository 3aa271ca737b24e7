package performance_test

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jobsetu/jobsetu-api/internal/handler"
	"github.com/jobsetu/jobsetu-api/internal/models"
	"github.com/jobsetu/jobsetu-api/internal/repository"
	"github.com/jobsetu/jobsetu-api/internal/service"
)

func setupJobsPerformanceApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Employer{}, &models.Job{}))

	employer := models.Employer{CompanyName: "Acme", Email: "hr@acme.test"}
	require.NoError(t, db.Create(&employer).Error)

	for i := 0; i < 200; i++ {
		job := models.Job{
			EmployerID:  employer.ID,
			Title:       fmt.Sprintf("Engineer %03d", i),
			Description: "Open engineering role with assessments.",
			Location:    "Bengaluru",
			Vacancies:   1 + i%4,
			Status:      models.JobStatusOpen,
		}
		require.NoError(t, db.Create(&job).Error)
	}

	jobRepo := repository.NewJobRepository(db)
	validate := validator.New(validator.WithRequiredStructEnabled())
	jobService := service.NewJobService(jobRepo, nil, time.Minute, validate, zerolog.Nop())
	jobHandler := handler.NewJobHandler(jobService, "secret", zerolog.Nop())

	app := fiber.New()
	jobHandler.Register(app.Group("/api/v1/jobs"))

	return app
}

func TestJobListingP95LatencyBelow250ms(t *testing.T) {
	app := setupJobsPerformanceApp(t)

	runs := 40
	durations := make([]time.Duration, 0, runs)

	for i := 0; i < runs; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/?search=engineer&page=1&page_size=20", nil)
		start := time.Now()
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		durations = append(durations, time.Since(start))
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	index := int(math.Ceil(0.95*float64(len(durations)))) - 1
	if index < 0 {
		index = 0
	}
	p95 := durations[index]

	require.LessOrEqual(t, p95, 250*time.Millisecond)
}
