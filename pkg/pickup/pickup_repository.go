package pickup

import (
	"Rongsokin-Backend/domain"
	"Rongsokin-Backend/entities"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	PickupRepository interface {
		CreatePickupRequest(ctx context.Context, request *entities.PickupRequest) error
		GetPickupRequestByID(ctx context.Context, id string) (*entities.PickupRequest, error)
		GetHouseholdPickupRequests(ctx context.Context, householdID string, status string, page, limit int) ([]*entities.PickupRequest, int64, error)
		GetCollectorPickupRequests(ctx context.Context, collectorID string, status string, page, limit int) ([]*entities.PickupRequest, int64, error)
		GetNearbyPendingRequests(ctx context.Context, lat, lng float64, radius float64) ([]*entities.PickupRequest, error)

		// Lifecycle transitions. Each one is a single conditional write so the
		// guard check and the status change cannot be separated by a
		// concurrent writer. The bool result reports whether a row matched
		// the predicate; false with a nil error is the lost-guard outcome.
		AcceptPickupRequest(ctx context.Context, id string, collectorID uuid.UUID) (bool, error)
		StartPickup(ctx context.Context, id string, collectorID string) (bool, error)
		CancelByHousehold(ctx context.Context, id string, householdID string) (bool, error)
		CancelByCollector(ctx context.Context, id string, collectorID string) (bool, error)
		CompletePickupRequest(ctx context.Context, id string, collectorID string, transaction *entities.Transaction) (bool, error)

		GetPickupStatistics(ctx context.Context, userID string, role string) (map[string]interface{}, error)
	}

	pickupRepository struct {
		db *gorm.DB
	}
)

func NewPickupRepository(db *gorm.DB) PickupRepository {
	return &pickupRepository{db: db}
}

func (r *pickupRepository) CreatePickupRequest(ctx context.Context, request *entities.PickupRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *pickupRepository) GetPickupRequestByID(ctx context.Context, id string) (*entities.PickupRequest, error) {
	var request entities.PickupRequest
	if err := r.db.WithContext(ctx).
		Preload("Household").
		Preload("Collector").
		Preload("WasteItems").
		Where("id = ?", id).
		First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Return nil, nil if not found
		}
		return nil, err
	}
	return &request, nil
}

func (r *pickupRepository) GetHouseholdPickupRequests(ctx context.Context, householdID string, status string, page, limit int) ([]*entities.PickupRequest, int64, error) {
	return r.getUserPickupRequests(ctx, "household_id", householdID, status, page, limit)
}

func (r *pickupRepository) GetCollectorPickupRequests(ctx context.Context, collectorID string, status string, page, limit int) ([]*entities.PickupRequest, int64, error) {
	return r.getUserPickupRequests(ctx, "collector_id", collectorID, status, page, limit)
}

func (r *pickupRepository) getUserPickupRequests(ctx context.Context, column, userID string, status string, page, limit int) ([]*entities.PickupRequest, int64, error) {
	var requests []*entities.PickupRequest
	var count int64
	offset := (page - 1) * limit

	query := r.db.WithContext(ctx).Where(column+" = ?", userID)

	if status != "All" && status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Model(&entities.PickupRequest{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("WasteItems").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, count, nil
}

func (r *pickupRepository) GetNearbyPendingRequests(ctx context.Context, lat, lng float64, radius float64) ([]*entities.PickupRequest, error) {
	var requests []*entities.PickupRequest

	// Using PostgreSQL's earthdistance extension for location-based queries
	// Make sure you've installed the extension with:
	// CREATE EXTENSION IF NOT EXISTS "earthdistance" CASCADE;
	// CREATE EXTENSION IF NOT EXISTS "cube";
	query := `
		SELECT *,
		       earth_distance(ll_to_earth(?, ?), ll_to_earth(latitude, longitude)) as distance
		FROM pickup_requests
		WHERE earth_box(ll_to_earth(?, ?), ?) @> ll_to_earth(latitude, longitude)
		  AND status = 'Pending'
		ORDER BY distance ASC
	`

	// radius in km, convert to meters for the query
	radiusMeters := radius * 1000

	if err := r.db.WithContext(ctx).Raw(query, lat, lng, lat, lng, radiusMeters).Scan(&requests).Error; err != nil {
		return nil, err
	}

	// Eager-load waste items for each request
	for i, request := range requests {
		if err := r.db.WithContext(ctx).Model(&request).Association("WasteItems").Find(&request.WasteItems); err != nil {
			continue
		}
		requests[i] = request
	}

	return requests, nil
}

// AcceptPickupRequest is the accept-race arbiter: the status check and the
// claim are one UPDATE scoped to the request row, so Postgres serializes
// concurrent collectors and at most one of them matches the predicate.
// No client-side locking or retry; losing is reported via the bool result.
func (r *pickupRepository) AcceptPickupRequest(ctx context.Context, id string, collectorID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.PickupRequest{}).
		Where("id = ? AND status = ? AND collector_id IS NULL", id, domain.StatusPending).
		Updates(map[string]interface{}{
			"status":       domain.StatusAccepted,
			"collector_id": collectorID,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *pickupRepository) StartPickup(ctx context.Context, id string, collectorID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.PickupRequest{}).
		Where("id = ? AND status = ? AND collector_id = ?", id, domain.StatusAccepted, collectorID).
		Update("status", domain.StatusInProgress)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *pickupRepository) CancelByHousehold(ctx context.Context, id string, householdID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.PickupRequest{}).
		Where("id = ? AND status = ? AND household_id = ?", id, domain.StatusPending, householdID).
		Update("status", domain.StatusCancelled)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *pickupRepository) CancelByCollector(ctx context.Context, id string, collectorID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.PickupRequest{}).
		Where("id = ? AND status IN ? AND collector_id = ?", id, []string{domain.StatusAccepted, domain.StatusInProgress}, collectorID).
		Update("status", domain.StatusCancelled)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

var errCompleteGuardFailed = errors.New("complete guard failed")

// CompletePickupRequest flips the request to Completed and records the
// settlement transaction in one database transaction. A reader never
// observes a completed request without its settlement record, or the
// record without the completed status.
func (r *pickupRepository) CompletePickupRequest(ctx context.Context, id string, collectorID string, transaction *entities.Transaction) (bool, error) {
	now := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Model(&entities.PickupRequest{}).
			Where("id = ? AND status = ? AND collector_id = ?", id, domain.StatusInProgress, collectorID).
			Updates(map[string]interface{}{
				"status":       domain.StatusCompleted,
				"completed_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errCompleteGuardFailed
		}
		return tx.Create(transaction).Error
	})
	if errors.Is(err, errCompleteGuardFailed) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *pickupRepository) GetPickupStatistics(ctx context.Context, userID string, role string) (map[string]interface{}, error) {
	column := "household_id"
	if role == domain.RoleCollector {
		column = "collector_id"
	}

	statusCounts := map[string]int64{}
	for _, status := range []string{domain.StatusPending, domain.StatusAccepted, domain.StatusInProgress, domain.StatusCompleted, domain.StatusCancelled} {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&entities.PickupRequest{}).
			Where(column+" = ? AND status = ?", userID, status).
			Count(&count).Error; err != nil {
			return nil, err
		}
		statusCounts[status] = count
	}

	var estimated struct {
		TotalValue float64
	}
	if err := r.db.WithContext(ctx).
		Model(&entities.PickupRequest{}).
		Select("COALESCE(SUM(total_value), 0) as total_value").
		Where(column+" = ? AND status = ?", userID, domain.StatusCompleted).
		Scan(&estimated).Error; err != nil {
		return nil, err
	}

	var settled struct {
		FinalAmount float64
	}
	if err := r.db.WithContext(ctx).
		Model(&entities.Transaction{}).
		Select("COALESCE(SUM(final_amount), 0) as final_amount").
		Where(column+" = ?", userID).
		Scan(&settled).Error; err != nil {
		return nil, err
	}

	var weight struct {
		TotalWeight float64
	}
	if err := r.db.WithContext(ctx).
		Model(&entities.TransactionItem{}).
		Select("COALESCE(SUM(transaction_items.weight), 0) as total_weight").
		Joins("JOIN transactions ON transaction_items.transaction_id = transactions.id").
		Where("transactions."+column+" = ?", userID).
		Scan(&weight).Error; err != nil {
		return nil, err
	}

	stats := map[string]interface{}{
		"total_requests":        statusCounts[domain.StatusPending] + statusCounts[domain.StatusAccepted] + statusCounts[domain.StatusInProgress] + statusCounts[domain.StatusCompleted] + statusCounts[domain.StatusCancelled],
		"pending_requests":      statusCounts[domain.StatusPending],
		"active_requests":       statusCounts[domain.StatusAccepted] + statusCounts[domain.StatusInProgress],
		"completed_requests":    statusCounts[domain.StatusCompleted],
		"cancelled_requests":    statusCounts[domain.StatusCancelled],
		"total_estimated_value": estimated.TotalValue,
		"total_settled_value":   settled.FinalAmount,
		"total_weight_kg":       weight.TotalWeight,
	}

	return stats, nil
}
