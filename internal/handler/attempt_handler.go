package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jobsetu/jobsetu-api/internal/dto"
	"github.com/jobsetu/jobsetu-api/internal/service"
	"github.com/jobsetu/jobsetu-api/internal/utils"
)

// AttemptHandler drives the proctored test-taking session.
type AttemptHandler struct {
	service service.AttemptService
	logger  zerolog.Logger
}

// NewAttemptHandler constructs an attempt handler.
func NewAttemptHandler(service service.AttemptService, logger zerolog.Logger) *AttemptHandler {
	return &AttemptHandler{
		service: service,
		logger:  logger.With().Str("component", "attempt_handler").Logger(),
	}
}

// Register wires the attempt routes. All routes require an authenticated
// candidate.
func (h *AttemptHandler) Register(router fiber.Router) {
	router.Post("/assessments/:assessmentId/attempts", h.start)
	router.Get("/attempts/:id", h.get)
	router.Put("/attempts/:id/answers/:index", h.answer)
	router.Post("/attempts/:id/violations", h.violation)
	router.Post("/attempts/:id/captures", h.capture)
	router.Post("/attempts/:id/submit", h.submit)
}

func (h *AttemptHandler) start(c *fiber.Ctx) error {
	assessmentID, err := parseIDParam(c, "assessmentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.Start(c.UserContext(), userIDFromContext(c), assessmentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "attempt started", response)
}

func (h *AttemptHandler) get(c *fiber.Ctx) error {
	attemptID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.Get(c.UserContext(), userIDFromContext(c), attemptID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "attempt", response)
}

func (h *AttemptHandler) answer(c *fiber.Ctx) error {
	attemptID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	index, err := c.ParamsInt("index")
	if err != nil || index < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid question index")
	}

	var payload dto.AnswerRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.RecordAnswer(c.UserContext(), userIDFromContext(c), attemptID, index, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "answer recorded", response)
}

func (h *AttemptHandler) violation(c *fiber.Ctx) error {
	attemptID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ViolationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	if err := h.service.RecordViolation(c.UserContext(), userIDFromContext(c), attemptID, payload); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "violation recorded", nil)
}

func (h *AttemptHandler) capture(c *fiber.Ctx) error {
	attemptID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	file, err := c.FormFile("image")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "capture image is required")
	}

	if err := h.service.RecordCapture(c.UserContext(), userIDFromContext(c), attemptID, file); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "capture recorded", nil)
}

func (h *AttemptHandler) submit(c *fiber.Ctx) error {
	attemptID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.Submit(c.UserContext(), userIDFromContext(c), attemptID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "attempt submitted", response)
}

func (h *AttemptHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAssessmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assessment not found")
	case errors.Is(err, service.ErrAttemptNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "attempt not found")
	case errors.Is(err, service.ErrAttemptForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "attempt belongs to another candidate")
	case errors.Is(err, service.ErrAttemptConflict):
		return utils.SendError(c, fiber.StatusConflict, "an attempt is already in progress")
	case errors.Is(err, service.ErrAttemptExpired):
		return utils.SendError(c, fiber.StatusGone, "attempt has expired")
	case errors.Is(err, service.ErrAttemptFinished):
		return utils.SendError(c, fiber.StatusConflict, "attempt is already finished")
	case errors.Is(err, service.ErrQuestionIndexInvalid):
		return utils.SendError(c, fiber.StatusBadRequest, "question index out of range")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("attempt request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "attempt request failed")
	}
}
