package domain

import (
	"errors"
	"mime/multipart"
	"time"
)

var (
	MessageSuccessCreatePickup     = "pickup request created successfully"
	MessageSuccessGetPickups       = "pickup requests retrieved successfully"
	MessageSuccessGetNearbyPickups = "nearby pickup requests retrieved successfully"
	MessageSuccessAcceptPickup     = "pickup request accepted successfully"
	MessageSuccessStartPickup      = "pickup started successfully"
	MessageSuccessCompletePickup   = "pickup completed successfully"
	MessageSuccessCancelPickup     = "pickup request cancelled successfully"
	MessageSuccessGetPickupStats   = "pickup statistics retrieved successfully"

	MessageFailedCreatePickup     = "failed to create pickup request"
	MessageFailedGetPickups       = "failed to retrieve pickup requests"
	MessageFailedGetNearbyPickups = "failed to retrieve nearby pickup requests"
	MessageFailedAcceptPickup     = "failed to accept pickup request"
	MessageFailedStartPickup      = "failed to start pickup"
	MessageFailedCompletePickup   = "failed to complete pickup"
	MessageFailedCancelPickup     = "failed to cancel pickup request"
	MessageFailedGetPickupStats   = "failed to retrieve pickup statistics"

	MessagePickupNoLongerAvailable = "this request was just taken by another collector"

	ErrPickupNotFound          = errors.New("pickup request not found")
	ErrPickupNoLongerAvailable = errors.New("pickup request no longer available")
	ErrInvalidTransition       = errors.New("invalid pickup request status transition")
	ErrNotRequestOwner         = errors.New("pickup request does not belong to this household")
	ErrNotAssignedCollector    = errors.New("pickup request is not assigned to this collector")
	ErrEmptyWasteItems         = errors.New("at least one waste item is required")
	ErrInvalidWeight           = errors.New("waste item weight must be greater than zero")
	ErrBlankAddress            = errors.New("pickup address must not be blank")
	ErrInvalidCoordinates      = errors.New("invalid coordinates")
)

type (
	WasteItemRequest struct {
		WasteType      string  `json:"waste_type" validate:"required,oneof=Plastic Paper Metal Glass Electronic Organic"`
		Weight         float64 `json:"weight" validate:"required,gt=0"`
		EstimatedValue float64 `json:"estimated_value" validate:"omitempty,gte=0"`
		Description    string  `json:"description" validate:"omitempty"`
	}

	CreatePickupRequest struct {
		Items     []WasteItemRequest    `json:"items" validate:"required,min=1,dive"`
		Latitude  float64               `json:"latitude" validate:"required"`
		Longitude float64               `json:"longitude" validate:"required"`
		Address   string                `json:"address" validate:"required"`
		Notes     string                `json:"notes" validate:"omitempty"`
		Photo     *multipart.FileHeader `json:"photo" form:"photo"`
	}

	GetNearbyPickupsRequest struct {
		Latitude  float64 `json:"latitude" validate:"required"`
		Longitude float64 `json:"longitude" validate:"required"`
		Radius    float64 `json:"radius" validate:"required,min=1,max=25"`
	}

	WasteItemSummary struct {
		ID             string  `json:"id"`
		WasteType      string  `json:"waste_type"`
		Weight         float64 `json:"weight"`
		EstimatedValue float64 `json:"estimated_value"`
		Description    string  `json:"description,omitempty"`
	}

	PickupRequest struct {
		ID          string              `json:"id"`
		HouseholdID string              `json:"household_id"`
		CollectorID string              `json:"collector_id,omitempty"`
		Status      string              `json:"status"`
		TotalValue  float64             `json:"total_value"`
		Latitude    float64             `json:"latitude"`
		Longitude   float64             `json:"longitude"`
		Distance    float64             `json:"distance,omitempty"` // meters, nearby queries only
		Address     string              `json:"address"`
		Notes       string              `json:"notes,omitempty"`
		ImageURL    string              `json:"image_url,omitempty"`
		Items       []*WasteItemSummary `json:"items"`
		CreatedAt   time.Time           `json:"created_at"`
		UpdatedAt   time.Time           `json:"updated_at"`
		CompletedAt *time.Time          `json:"completed_at,omitempty"`
	}

	PickupStatistics struct {
		TotalRequests       int     `json:"total_requests"`
		PendingRequests     int     `json:"pending_requests"`
		ActiveRequests      int     `json:"active_requests"`
		CompletedRequests   int     `json:"completed_requests"`
		CancelledRequests   int     `json:"cancelled_requests"`
		TotalEstimatedValue float64 `json:"total_estimated_value"`
		TotalSettledValue   float64 `json:"total_settled_value"`
		TotalWeightKg       float64 `json:"total_weight_kg"`
	}
)
