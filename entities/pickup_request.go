package entities

import (
	"time"

	"github.com/google/uuid"
)

type PickupRequest struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	HouseholdID uuid.UUID  `json:"household_id"`
	CollectorID *uuid.UUID `json:"collector_id,omitempty"`
	Status      string     `json:"status"` // Pending, Accepted, InProgress, Completed, Cancelled
	TotalValue  float64    `json:"total_value"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	Address     string     `json:"address"`
	Notes       string     `json:"notes,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// populated by the nearby query only, never stored
	Distance float64 `gorm:"->;-:migration" json:"distance,omitempty"`

	Household  *User        `gorm:"foreignKey:HouseholdID"`
	Collector  *User        `gorm:"foreignKey:CollectorID"`
	WasteItems []*WasteItem `gorm:"foreignKey:PickupRequestID"`
	Timestamp
}

type WasteItem struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	PickupRequestID uuid.UUID `json:"pickup_request_id"`
	WasteType       string    `json:"waste_type"` // Plastic, Paper, Metal, Glass, Electronic, Organic
	Weight          float64   `json:"weight"`     // in kg
	EstimatedValue  float64   `json:"estimated_value"`
	Description     string    `json:"description,omitempty"`

	PickupRequest *PickupRequest `gorm:"foreignKey:PickupRequestID"`
	Timestamp
}
