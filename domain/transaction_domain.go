package domain

import (
	"errors"
	"time"
)

const (
	PaymentMethodCash    = "Cash"
	PaymentMethodEWallet = "EWallet"

	PaymentStatusPending = "Pending"
	PaymentStatusSettled = "Settled"
)

var (
	MessageSuccessGetTransactions = "transactions retrieved successfully"
	MessageSuccessGetTransaction  = "transaction retrieved successfully"

	MessageFailedGetTransactions = "failed to retrieve transactions"
	MessageFailedGetTransaction  = "failed to retrieve transaction"
	MessageFailedWebhook         = "failed to process payment notification"

	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrNegativeFinalAmount  = errors.New("final amount must not be negative")
	ErrEmptyCollectedItems  = errors.New("at least one collected item is required")
	ErrInvalidPaymentMethod = errors.New("payment method must be Cash or EWallet")
	ErrInvoiceCreation      = errors.New("failed to create payment invoice")
)

type (
	CollectedItemRequest struct {
		WasteType string  `json:"waste_type" validate:"required,oneof=Plastic Paper Metal Glass Electronic Organic"`
		Weight    float64 `json:"weight" validate:"required,gt=0"`
		Value     float64 `json:"value" validate:"omitempty,gte=0"`
	}

	CompletePickupRequest struct {
		Items         []CollectedItemRequest `json:"items" validate:"required,min=1,dive"`
		FinalAmount   float64                `json:"final_amount" validate:"gte=0"`
		PaymentMethod string                 `json:"payment_method" validate:"required,oneof=Cash EWallet"`
		Notes         string                 `json:"notes" validate:"omitempty"`
	}

	CollectedItemSummary struct {
		ID        string  `json:"id"`
		WasteType string  `json:"waste_type"`
		Weight    float64 `json:"weight"`
		Value     float64 `json:"value"`
	}

	Transaction struct {
		ID              string                  `json:"id"`
		PickupRequestID string                  `json:"pickup_request_id"`
		HouseholdID     string                  `json:"household_id"`
		CollectorID     string                  `json:"collector_id"`
		FinalAmount     float64                 `json:"final_amount"`
		PaymentMethod   string                  `json:"payment_method"`
		PaymentStatus   string                  `json:"payment_status"`
		InvoiceURL      string                  `json:"invoice_url,omitempty"`
		Notes           string                  `json:"notes,omitempty"`
		Items           []*CollectedItemSummary `json:"items"`
		CompletedAt     time.Time               `json:"completed_at"`
	}

	PaymentNotification struct {
		OrderID           string `json:"order_id"`
		TransactionStatus string `json:"transaction_status"`
		FraudStatus       string `json:"fraud_status"`
	}
)
