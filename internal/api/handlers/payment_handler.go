package handlers

import (
	"Rongsokin-Backend/domain"
	"Rongsokin-Backend/internal/api/presenters"
	"Rongsokin-Backend/pkg/payment"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
)

type (
	PaymentHandler interface {
		MidtransWebhookHandler(c *fiber.Ctx) error
	}

	paymentHandler struct {
		paymentService payment.PaymentService
	}
)

func NewPaymentHandler(paymentService payment.PaymentService) PaymentHandler {
	return &paymentHandler{
		paymentService: paymentService,
	}
}

func (h *paymentHandler) MidtransWebhookHandler(c *fiber.Ctx) error {
	var notification domain.PaymentNotification
	if err := json.Unmarshal(c.Body(), &notification); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if notification.OrderID == "" {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedWebhook, nil)
	}

	if err := h.paymentService.HandleNotification(c.Context(), notification); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedWebhook, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, "ok")
}
