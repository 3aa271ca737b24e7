package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jobsetu/jobsetu-api/internal/dto"
	"github.com/jobsetu/jobsetu-api/internal/service"
	"github.com/jobsetu/jobsetu-api/internal/utils"
)

// ApplicationHandler exposes the credit application path and the candidate's
// application history. The gateway path lives under the payment routes because
// it doubles as the payment verification callback.
type ApplicationHandler struct {
	service service.ApplicationService
	logger  zerolog.Logger
}

// NewApplicationHandler constructs an application handler.
func NewApplicationHandler(service service.ApplicationService, logger zerolog.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		service: service,
		logger:  logger.With().Str("component", "application_handler").Logger(),
	}
}

// Register wires the application routes.
func (h *ApplicationHandler) Register(router fiber.Router) {
	router.Post("/apply-with-credits", h.applyWithCredits)
	router.Get("/", h.list)
}

func (h *ApplicationHandler) applyWithCredits(c *fiber.Ctx) error {
	var payload dto.ApplyWithCreditsRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.ApplyWithCredits(c.UserContext(), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "application created", result)
}

func (h *ApplicationHandler) list(c *fiber.Ctx) error {
	applications, err := h.service.ListForCandidate(c.UserContext(), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "applications", applications)
}

func (h *ApplicationHandler) handleError(c *fiber.Ctx, err error) error {
	return applicationError(c, err, h.logger)
}

// applicationError maps the shared application workflow errors; the payment
// handler reuses it for the gateway path.
func applicationError(c *fiber.Ctx, err error, logger zerolog.Logger) error {
	switch {
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrJobNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "job not found")
	case errors.Is(err, service.ErrJobClosed):
		return utils.SendError(c, fiber.StatusConflict, "job is closed for applications")
	case errors.Is(err, service.ErrCandidateNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "candidate not found")
	case errors.Is(err, service.ErrDuplicateApplication):
		return utils.SendError(c, fiber.StatusConflict, "you have already applied to this job")
	case errors.Is(err, service.ErrInsufficientCredits):
		return utils.SendError(c, fiber.StatusPaymentRequired, "insufficient credits")
	case errors.Is(err, service.ErrCreditsNotAllowed):
		return utils.SendError(c, fiber.StatusForbidden, "credit payments require a placement-linked account")
	case errors.Is(err, service.ErrInvalidSignature):
		return utils.SendError(c, fiber.StatusBadRequest, "payment signature verification failed")
	default:
		requestLogger(logger, c).Error().Err(err).Msg("application request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "application request failed")
	}
}
