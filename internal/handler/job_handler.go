package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jobsetu/jobsetu-api/internal/dto"
	"github.com/jobsetu/jobsetu-api/internal/middleware"
	"github.com/jobsetu/jobsetu-api/internal/service"
	"github.com/jobsetu/jobsetu-api/internal/utils"
)

// JobHandler exposes the job catalog and employer posting management.
type JobHandler struct {
	service   service.JobService
	jwtSecret string
	logger    zerolog.Logger
}

// NewJobHandler constructs a job handler.
func NewJobHandler(service service.JobService, jwtSecret string, logger zerolog.Logger) *JobHandler {
	return &JobHandler{
		service:   service,
		jwtSecret: jwtSecret,
		logger:    logger.With().Str("component", "job_handler").Logger(),
	}
}

// Register wires the job routes. Reads are public; writes require the
// employer role.
func (h *JobHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Get("/:id", h.get)

	protected := router.Group("", middleware.JWTProtected(h.jwtSecret), middleware.RequireRole("employer"))
	protected.Post("/", h.create)
	protected.Put("/:id", h.update)
}

func (h *JobHandler) list(c *fiber.Ctx) error {
	var filter dto.JobFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query")
	}

	response, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "jobs", response)
}

func (h *JobHandler) get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "job", response)
}

func (h *JobHandler) create(c *fiber.Ctx) error {
	var payload dto.JobCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Create(c.UserContext(), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "job created", response)
}

func (h *JobHandler) update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.JobUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Update(c.UserContext(), userIDFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "job updated", response)
}

func (h *JobHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrJobNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "job not found")
	case errors.Is(err, service.ErrJobForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "job does not belong to this employer")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("job request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "job request failed")
	}
}
