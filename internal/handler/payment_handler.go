package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jobsetu/jobsetu-api/internal/dto"
	"github.com/jobsetu/jobsetu-api/internal/service"
	"github.com/jobsetu/jobsetu-api/internal/utils"
)

// PaymentHandler fronts the payment gateway flow: key discovery, order
// creation, and the two verification callbacks.
type PaymentHandler struct {
	payments     service.PaymentService
	applications service.ApplicationService
	logger       zerolog.Logger
}

// NewPaymentHandler constructs a payment handler.
func NewPaymentHandler(payments service.PaymentService, applications service.ApplicationService, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments:     payments,
		applications: applications,
		logger:       logger.With().Str("component", "payment_handler").Logger(),
	}
}

// Register wires the payment routes.
func (h *PaymentHandler) Register(router fiber.Router) {
	router.Get("/key", h.key)
	router.Post("/create-order", h.createOrder)
	router.Post("/verify-payment", h.verifyPayment)
	router.Post("/verify-credit-payment", h.verifyCreditPayment)
}

func (h *PaymentHandler) key(c *fiber.Ctx) error {
	response, err := h.payments.PublicKey()
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "payment key", response)
}

func (h *PaymentHandler) createOrder(c *fiber.Ctx) error {
	var payload dto.CreateOrderRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.payments.CreateOrder(c.UserContext(), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "order created", response)
}

func (h *PaymentHandler) verifyPayment(c *fiber.Ctx) error {
	var payload dto.VerifyPaymentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.applications.ApplyWithGatewayPayment(c.UserContext(), userIDFromContext(c), payload)
	if err != nil {
		return applicationError(c, err, h.logger)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "payment verified, application created", result)
}

func (h *PaymentHandler) verifyCreditPayment(c *fiber.Ctx) error {
	var payload dto.VerifyCreditPaymentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.payments.VerifyCreditTopUp(c.UserContext(), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "credits added", response)
}

func (h *PaymentHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrGatewayNotConfigured):
		return utils.SendError(c, fiber.StatusServiceUnavailable, "payment gateway is not configured")
	case errors.Is(err, service.ErrJobNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "job not found")
	case errors.Is(err, service.ErrCandidateNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "candidate not found")
	case errors.Is(err, service.ErrInvalidSignature):
		return utils.SendError(c, fiber.StatusBadRequest, "payment signature verification failed")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("payment request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "payment request failed")
	}
}
