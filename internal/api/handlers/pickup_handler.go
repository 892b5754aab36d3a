package handlers

import (
	"Rongsokin-Backend/domain"
	"Rongsokin-Backend/internal/api/presenters"
	"Rongsokin-Backend/pkg/pickup"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	PickupHandler interface {
		CreatePickup(c *fiber.Ctx) error
		GetUserPickups(c *fiber.Ctx) error
		GetNearbyPickups(c *fiber.Ctx) error
		GetPickupByID(c *fiber.Ctx) error
		AcceptPickup(c *fiber.Ctx) error
		StartPickup(c *fiber.Ctx) error
		CompletePickup(c *fiber.Ctx) error
		CancelPickup(c *fiber.Ctx) error
		GetPickupStatistics(c *fiber.Ctx) error
	}

	pickupHandler struct {
		pickupService pickup.PickupService
		validator     *validator.Validate
	}
)

func NewPickupHandler(pickupService pickup.PickupService, validator *validator.Validate) PickupHandler {
	return &pickupHandler{
		pickupService: pickupService,
		validator:     validator,
	}
}

// pickupErrorStatus maps lifecycle errors onto HTTP statuses so a lost
// accept race reads as a conflict, not a generic failure.
func pickupErrorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrPickupNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrPickupNoLongerAvailable), errors.Is(err, domain.ErrInvalidTransition):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrUserNotAllowed), errors.Is(err, domain.ErrNotRequestOwner), errors.Is(err, domain.ErrNotAssignedCollector):
		return fiber.StatusForbidden
	default:
		return fiber.StatusBadRequest
	}
}

func (h *pickupHandler) CreatePickup(c *fiber.Ctx) error {
	householdID := c.Locals("user_id").(string)

	req := new(domain.CreatePickupRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	// Get waste photo if provided
	req.Photo, _ = c.FormFile("photo")

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCreatePickup, err)
	}

	result, err := h.pickupService.CreatePickup(c.Context(), *req, householdID)
	if err != nil {
		return presenters.ErrorResponse(c, pickupErrorStatus(err), domain.MessageFailedCreatePickup, err)
	}

	return presenters.SuccessResponse(c, result, fiber.StatusCreated, domain.MessageSuccessCreatePickup)
}

func (h *pickupHandler) GetUserPickups(c *fiber.Ctx) error {
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

	status := c.Query("status", "All")

	pickups, count, err := h.pickupService.GetUserPickups(c.Context(), userID, role, status, page, limit)
	if err != nil {
		return presenters.ErrorResponse(c, pickupErrorStatus(err), domain.MessageFailedGetPickups, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{
		"pickups": pickups,
		"pagination": fiber.Map{
			"page":        page,
			"limit":       limit,
			"total":       count,
			"total_pages": (count + int64(limit) - 1) / int64(limit),
		},
	}, fiber.StatusOK, domain.MessageSuccessGetPickups)
}

func (h *pickupHandler) GetNearbyPickups(c *fiber.Ctx) error {
	lat, err := strconv.ParseFloat(c.Query("latitude"), 64)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, domain.ErrInvalidCoordinates)
	}

	lng, err := strconv.ParseFloat(c.Query("longitude"), 64)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, domain.ErrInvalidCoordinates)
	}

	radius, err := strconv.ParseFloat(c.Query("radius", "5"), 64)
	if err != nil || radius <= 0 || radius > 25 {
		radius = 5 // Default radius
	}

	req := domain.GetNearbyPickupsRequest{
		Latitude:  lat,
		Longitude: lng,
		Radius:    radius,
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetNearbyPickups, err)
	}

	pickups, err := h.pickupService.GetNearbyPickups(c.Context(), req)
	if err != nil {
		return presenters.ErrorResponse(c, pickupErrorStatus(err), domain.MessageFailedGetNearbyPickups, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{
		"pickups": pickups,
	}, fiber.StatusOK, domain.MessageSuccessGetNearbyPickups)
}

func (h *pickupHandler) GetPickupByID(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	role := c.Locals("role").(string)
	pickupID := c.Params("id")

	if pickupID == "" {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetPickups, domain.ErrPickupNotFound)
	}

	result, err := h.pickupService.GetPickupByID(c.Context(), pickupID, userID, role)
	if err != nil {
		return presenters.ErrorResponse(c, pickupErrorStatus(err), domain.MessageFailedGetPickups, err)
	}

	return presenters.SuccessResponse(c, result, fiber.StatusOK, domain.MessageSuccessGetPickups)
}

func (h *pickupHandler) AcceptPickup(c *fiber.Ctx) error {
	collectorID := c.Locals("user_id").(string)
	pickupID := c.Params("id")

	result, err := h.pickupService.AcceptPickup(c.Context(), pickupID, collectorID)
	if err != nil {
		if errors.Is(err, domain.ErrPickupNoLongerAvailable) {
			return presenters.ErrorResponse(c, fiber.StatusConflict, domain.MessagePickupNoLongerAvailable, err)
		}
		return presenters.ErrorResponse(c, pickupErrorStatus(err), domain.MessageFailedAcceptPickup, err)
	}

	return presenters.SuccessResponse(c, result, fiber.StatusOK, domain.MessageSuccessAcceptPickup)
}

func (h *pickupHandler) StartPickup(c *fiber.Ctx) error {
	collectorID := c.Locals("user_id").(string)
	pickupID := c.Params("id")

	if err := h.pickupService.StartPickup(c.Context(), pickupID, collectorID); err != nil {
		return presenters.ErrorResponse(c, pickupErrorStatus(err), domain.MessageFailedStartPickup, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessStartPickup)
}

func (h *pickupHandler) CompletePickup(c *fiber.Ctx) error {
	collectorID := c.Locals("user_id").(string)
	pickupID := c.Params("id")

	req := new(domain.CompletePickupRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCompletePickup, err)
	}

	result, err := h.pickupService.CompletePickup(c.Context(), pickupID, *req, collectorID)
	if err != nil {
		return presenters.ErrorResponse(c, pickupErrorStatus(err), domain.MessageFailedCompletePickup, err)
	}

	return presenters.SuccessResponse(c, result, fiber.StatusOK, domain.MessageSuccessCompletePickup)
}

func (h *pickupHandler) CancelPickup(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	role := c.Locals("role").(string)
	pickupID := c.Params("id")

	if err := h.pickupService.CancelPickup(c.Context(), pickupID, userID, role); err != nil {
		return presenters.ErrorResponse(c, pickupErrorStatus(err), domain.MessageFailedCancelPickup, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessCancelPickup)
}

func (h *pickupHandler) GetPickupStatistics(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	role := c.Locals("role").(string)

	stats, err := h.pickupService.GetPickupStatistics(c.Context(), userID, role)
	if err != nil {
		return presenters.ErrorResponse(c, pickupErrorStatus(err), domain.MessageFailedGetPickupStats, err)
	}

	return presenters.SuccessResponse(c, stats, fiber.StatusOK, domain.MessageSuccessGetPickupStats)
}
