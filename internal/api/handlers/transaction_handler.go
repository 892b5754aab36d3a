package handlers

import (
	"Rongsokin-Backend/domain"
	"Rongsokin-Backend/internal/api/presenters"
	"Rongsokin-Backend/pkg/transaction"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type (
	TransactionHandler interface {
		GetUserTransactions(c *fiber.Ctx) error
		GetTransactionByID(c *fiber.Ctx) error
	}

	transactionHandler struct {
		transactionService transaction.TransactionService
	}
)

func NewTransactionHandler(transactionService transaction.TransactionService) TransactionHandler {
	return &transactionHandler{
		transactionService: transactionService,
	}
}

func (h *transactionHandler) GetUserTransactions(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	role := c.Locals("role").(string)

	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}

	transactions, count, err := h.transactionService.GetUserTransactions(c.Context(), userID, role, page, limit)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetTransactions, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{
		"transactions": transactions,
		"pagination": fiber.Map{
			"page":        page,
			"limit":       limit,
			"total":       count,
			"total_pages": (count + int64(limit) - 1) / int64(limit),
		},
	}, fiber.StatusOK, domain.MessageSuccessGetTransactions)
}

func (h *transactionHandler) GetTransactionByID(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	transactionID := c.Params("id")

	if transactionID == "" {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetTransaction, domain.ErrTransactionNotFound)
	}

	result, err := h.transactionService.GetTransactionByID(c.Context(), transactionID, userID)
	if err != nil {
		status := fiber.StatusBadRequest
		if errors.Is(err, domain.ErrTransactionNotFound) {
			status = fiber.StatusNotFound
		} else if errors.Is(err, domain.ErrUserNotAllowed) {
			status = fiber.StatusForbidden
		}
		return presenters.ErrorResponse(c, status, domain.MessageFailedGetTransaction, err)
	}

	return presenters.SuccessResponse(c, result, fiber.StatusOK, domain.MessageSuccessGetTransaction)
}
