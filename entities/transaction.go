package entities

import (
	"time"

	"github.com/google/uuid"
)

type Transaction struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	PickupRequestID uuid.UUID `gorm:"uniqueIndex" json:"pickup_request_id"`
	HouseholdID     uuid.UUID `json:"household_id"`
	CollectorID     uuid.UUID `json:"collector_id"`
	FinalAmount     float64   `json:"final_amount"`
	PaymentMethod   string    `json:"payment_method"` // Cash or EWallet
	PaymentStatus   string    `json:"payment_status"` // Pending or Settled
	InvoiceURL      string    `json:"invoice_url,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CompletedAt     time.Time `json:"completed_at"`

	PickupRequest *PickupRequest     `gorm:"foreignKey:PickupRequestID"`
	Household     *User              `gorm:"foreignKey:HouseholdID"`
	Collector     *User              `gorm:"foreignKey:CollectorID"`
	Items         []*TransactionItem `gorm:"foreignKey:TransactionID"`
	Timestamp
}

type TransactionItem struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	WasteType     string    `json:"waste_type"`
	Weight        float64   `json:"weight"` // actual collected weight in kg
	Value         float64   `json:"value"`

	Transaction *Transaction `gorm:"foreignKey:TransactionID"`
	Timestamp
}
