package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jobsetu/jobsetu-api/internal/dto"
	"github.com/jobsetu/jobsetu-api/internal/service"
	"github.com/jobsetu/jobsetu-api/internal/utils"
)

// PlacementHandler manages a placement officer's sponsored candidates.
type PlacementHandler struct {
	service service.PlacementService
	logger  zerolog.Logger
}

// NewPlacementHandler constructs a placement handler.
func NewPlacementHandler(service service.PlacementService, logger zerolog.Logger) *PlacementHandler {
	return &PlacementHandler{
		service: service,
		logger:  logger.With().Str("component", "placement_handler").Logger(),
	}
}

// Register wires the placement routes. All routes require the placement role.
func (h *PlacementHandler) Register(router fiber.Router) {
	router.Get("/candidates", h.listCandidates)
	router.Post("/candidates", h.importCandidates)
	router.Post("/candidates/:id/credits", h.topUpCredits)
}

func (h *PlacementHandler) importCandidates(c *fiber.Ctx) error {
	var payload dto.CandidateImportRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.ImportCandidates(c.UserContext(), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "candidates imported", result)
}

func (h *PlacementHandler) listCandidates(c *fiber.Ctx) error {
	candidates, err := h.service.ListCandidates(c.UserContext(), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "candidates", candidates)
}

func (h *PlacementHandler) topUpCredits(c *fiber.Ctx) error {
	candidateID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.TopUpCreditsRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.TopUpCredits(c.UserContext(), userIDFromContext(c), candidateID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "credits granted", response)
}

func (h *PlacementHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrCandidateNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "candidate not found")
	case errors.Is(err, service.ErrPlacementForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "candidate is not sponsored by this placement account")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("placement request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "placement request failed")
	}
}
