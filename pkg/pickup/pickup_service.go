package pickup

import (
	"Rongsokin-Backend/domain"
	"Rongsokin-Backend/entities"
	"Rongsokin-Backend/internal/utils/storage"
	"Rongsokin-Backend/pkg/notification"
	"Rongsokin-Backend/pkg/payment"
	"Rongsokin-Backend/pkg/transaction"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

type (
	PickupService interface {
		CreatePickup(ctx context.Context, req domain.CreatePickupRequest, householdID string) (*domain.PickupRequest, error)
		GetUserPickups(ctx context.Context, userID string, role string, status string, page, limit int) ([]*domain.PickupRequest, int64, error)
		GetNearbyPickups(ctx context.Context, req domain.GetNearbyPickupsRequest) ([]*domain.PickupRequest, error)
		GetPickupByID(ctx context.Context, id string, userID string, role string) (*domain.PickupRequest, error)
		AcceptPickup(ctx context.Context, id string, collectorID string) (*domain.PickupRequest, error)
		StartPickup(ctx context.Context, id string, collectorID string) error
		CompletePickup(ctx context.Context, id string, req domain.CompletePickupRequest, collectorID string) (*domain.Transaction, error)
		CancelPickup(ctx context.Context, id string, userID string, role string) error
		GetPickupStatistics(ctx context.Context, userID string, role string) (*domain.PickupStatistics, error)
	}

	pickupService struct {
		pickupRepository PickupRepository
		paymentService   payment.PaymentService
		notifier         notification.Notifier
		s3               storage.AwsS3
	}
)

func NewPickupService(pickupRepository PickupRepository, paymentService payment.PaymentService, notifier notification.Notifier, s3 storage.AwsS3) PickupService {
	return &pickupService{
		pickupRepository: pickupRepository,
		paymentService:   paymentService,
		notifier:         notifier,
		s3:               s3,
	}
}

func (s *pickupService) CreatePickup(ctx context.Context, req domain.CreatePickupRequest, householdID string) (*domain.PickupRequest, error) {
	if len(req.Items) == 0 {
		return nil, domain.ErrEmptyWasteItems
	}
	if strings.TrimSpace(req.Address) == "" {
		return nil, domain.ErrBlankAddress
	}

	totalValue := 0.0
	for _, item := range req.Items {
		if item.Weight <= 0 {
			return nil, domain.ErrInvalidWeight
		}
		totalValue += item.EstimatedValue
	}

	householdUUID, err := uuid.Parse(householdID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	requestID := uuid.New()

	// Process waste photo if provided
	var imageURL string
	if req.Photo != nil {
		objectKey, err := s.s3.UploadFile(
			fmt.Sprintf("pickup-%s", requestID.String()),
			req.Photo,
			"pickups",
			storage.AllowImage...,
		)
		if err != nil {
			return nil, err
		}
		imageURL = s.s3.GetPublicLinkKey(objectKey)
	}

	wasteItems := make([]*entities.WasteItem, 0, len(req.Items))
	for _, item := range req.Items {
		wasteItems = append(wasteItems, &entities.WasteItem{
			ID:              uuid.New(),
			PickupRequestID: requestID,
			WasteType:       item.WasteType,
			Weight:          item.Weight,
			EstimatedValue:  item.EstimatedValue,
			Description:     item.Description,
		})
	}

	request := &entities.PickupRequest{
		ID:          requestID,
		HouseholdID: householdUUID,
		Status:      domain.StatusPending,
		TotalValue:  totalValue,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Address:     req.Address,
		Notes:       req.Notes,
		ImageURL:    imageURL,
		WasteItems:  wasteItems,
	}

	if err := s.pickupRepository.CreatePickupRequest(ctx, request); err != nil {
		return nil, err
	}

	created, err := s.pickupRepository.GetPickupRequestByID(ctx, requestID.String())
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, domain.ErrPickupNotFound
	}

	return ToDomainPickup(created), nil
}

func (s *pickupService) GetUserPickups(ctx context.Context, userID string, role string, status string, page, limit int) ([]*domain.PickupRequest, int64, error) {
	var requests []*entities.PickupRequest
	var count int64
	var err error

	if role == domain.RoleCollector {
		requests, count, err = s.pickupRepository.GetCollectorPickupRequests(ctx, userID, status, page, limit)
	} else {
		requests, count, err = s.pickupRepository.GetHouseholdPickupRequests(ctx, userID, status, page, limit)
	}
	if err != nil {
		return nil, 0, err
	}

	result := make([]*domain.PickupRequest, 0, len(requests))
	for _, request := range requests {
		result = append(result, ToDomainPickup(request))
	}

	return result, count, nil
}

func (s *pickupService) GetNearbyPickups(ctx context.Context, req domain.GetNearbyPickupsRequest) ([]*domain.PickupRequest, error) {
	requests, err := s.pickupRepository.GetNearbyPendingRequests(ctx, req.Latitude, req.Longitude, req.Radius)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.PickupRequest, 0, len(requests))
	for _, request := range requests {
		result = append(result, ToDomainPickup(request))
	}

	return result, nil
}

func (s *pickupService) GetPickupByID(ctx context.Context, id string, userID string, role string) (*domain.PickupRequest, error) {
	request, err := s.pickupRepository.GetPickupRequestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, domain.ErrPickupNotFound
	}

	// Owner and assigned collector always; any collector while still open
	allowed := request.HouseholdID.String() == userID ||
		(request.CollectorID != nil && request.CollectorID.String() == userID) ||
		(role == domain.RoleCollector && request.Status == domain.StatusPending)
	if !allowed {
		return nil, domain.ErrUserNotAllowed
	}

	return ToDomainPickup(request), nil
}

// AcceptPickup claims a pending request for the calling collector. The
// claim itself is a single conditional write in the repository; when it
// reports no matching row the request was either never there or another
// collector won the race, and the two are told apart with a plain read.
func (s *pickupService) AcceptPickup(ctx context.Context, id string, collectorID string) (*domain.PickupRequest, error) {
	collectorUUID, err := uuid.Parse(collectorID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	claimed, err := s.pickupRepository.AcceptPickupRequest(ctx, id, collectorUUID)
	if err != nil {
		return nil, err
	}

	if !claimed {
		request, err := s.pickupRepository.GetPickupRequestByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if request == nil {
			return nil, domain.ErrPickupNotFound
		}
		return nil, domain.ErrPickupNoLongerAvailable
	}

	request, err := s.pickupRepository.GetPickupRequestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, domain.ErrPickupNotFound
	}

	s.notifyHousehold(ctx, request, notification.EventRequestAccepted)

	return ToDomainPickup(request), nil
}

func (s *pickupService) StartPickup(ctx context.Context, id string, collectorID string) error {
	started, err := s.pickupRepository.StartPickup(ctx, id, collectorID)
	if err != nil {
		return err
	}

	if !started {
		return s.explainCollectorGuardFailure(ctx, id, collectorID)
	}

	if request, err := s.pickupRepository.GetPickupRequestByID(ctx, id); err == nil && request != nil {
		s.notifyHousehold(ctx, request, notification.EventPickupStarted)
	}

	return nil
}

func (s *pickupService) CompletePickup(ctx context.Context, id string, req domain.CompletePickupRequest, collectorID string) (*domain.Transaction, error) {
	if len(req.Items) == 0 {
		return nil, domain.ErrEmptyCollectedItems
	}
	if req.FinalAmount < 0 {
		return nil, domain.ErrNegativeFinalAmount
	}
	if req.PaymentMethod != domain.PaymentMethodCash && req.PaymentMethod != domain.PaymentMethodEWallet {
		return nil, domain.ErrInvalidPaymentMethod
	}
	for _, item := range req.Items {
		if item.Weight <= 0 {
			return nil, domain.ErrInvalidWeight
		}
	}

	request, err := s.pickupRepository.GetPickupRequestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, domain.ErrPickupNotFound
	}
	if request.CollectorID == nil || request.CollectorID.String() != collectorID {
		return nil, domain.ErrNotAssignedCollector
	}
	if request.Status != domain.StatusInProgress {
		return nil, domain.ErrInvalidTransition
	}

	collectorUUID, err := uuid.Parse(collectorID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	transactionID := uuid.New()

	paymentStatus := domain.PaymentStatusSettled
	var invoiceURL string
	if req.PaymentMethod == domain.PaymentMethodEWallet {
		paymentStatus = domain.PaymentStatusPending

		var householdName, householdEmail string
		if request.Household != nil {
			householdName = request.Household.Name
			householdEmail = request.Household.Email
		}

		invoiceURL, err = s.paymentService.CreateInvoice(ctx, transactionID.String(), int64(req.FinalAmount), householdName, householdEmail)
		if err != nil {
			log.Printf("failed to create settlement invoice for request %s: %v", id, err)
			return nil, domain.ErrInvoiceCreation
		}
	}

	items := make([]*entities.TransactionItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, &entities.TransactionItem{
			ID:            uuid.New(),
			TransactionID: transactionID,
			WasteType:     item.WasteType,
			Weight:        item.Weight,
			Value:         item.Value,
		})
	}

	settlement := &entities.Transaction{
		ID:              transactionID,
		PickupRequestID: request.ID,
		HouseholdID:     request.HouseholdID,
		CollectorID:     collectorUUID,
		FinalAmount:     req.FinalAmount,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   paymentStatus,
		InvoiceURL:      invoiceURL,
		Notes:           req.Notes,
		CompletedAt:     time.Now(),
		Items:           items,
	}

	completed, err := s.pickupRepository.CompletePickupRequest(ctx, id, collectorID, settlement)
	if err != nil {
		return nil, err
	}
	if !completed {
		// Lost a race against a concurrent cancel or a duplicate complete
		return nil, domain.ErrInvalidTransition
	}

	request.Status = domain.StatusCompleted
	s.notifyHousehold(ctx, request, notification.EventPickupCompleted)

	return transaction.ToDomainTransaction(settlement), nil
}

func (s *pickupService) CancelPickup(ctx context.Context, id string, userID string, role string) error {
	if role == domain.RoleCollector {
		cancelled, err := s.pickupRepository.CancelByCollector(ctx, id, userID)
		if err != nil {
			return err
		}
		if !cancelled {
			return s.explainCollectorGuardFailure(ctx, id, userID)
		}
		if request, err := s.pickupRepository.GetPickupRequestByID(ctx, id); err == nil && request != nil {
			s.notifyHousehold(ctx, request, notification.EventRequestCancelled)
		}
		return nil
	}

	cancelled, err := s.pickupRepository.CancelByHousehold(ctx, id, userID)
	if err != nil {
		return err
	}
	if !cancelled {
		request, err := s.pickupRepository.GetPickupRequestByID(ctx, id)
		if err != nil {
			return err
		}
		if request == nil {
			return domain.ErrPickupNotFound
		}
		if request.HouseholdID.String() != userID {
			return domain.ErrNotRequestOwner
		}
		return domain.ErrInvalidTransition
	}
	return nil
}

func (s *pickupService) GetPickupStatistics(ctx context.Context, userID string, role string) (*domain.PickupStatistics, error) {
	stats, err := s.pickupRepository.GetPickupStatistics(ctx, userID, role)
	if err != nil {
		return nil, err
	}

	return &domain.PickupStatistics{
		TotalRequests:       int(stats["total_requests"].(int64)),
		PendingRequests:     int(stats["pending_requests"].(int64)),
		ActiveRequests:      int(stats["active_requests"].(int64)),
		CompletedRequests:   int(stats["completed_requests"].(int64)),
		CancelledRequests:   int(stats["cancelled_requests"].(int64)),
		TotalEstimatedValue: stats["total_estimated_value"].(float64),
		TotalSettledValue:   stats["total_settled_value"].(float64),
		TotalWeightKg:       stats["total_weight_kg"].(float64),
	}, nil
}

// explainCollectorGuardFailure turns a failed conditional write into the
// specific error the caller should see.
func (s *pickupService) explainCollectorGuardFailure(ctx context.Context, id string, collectorID string) error {
	request, err := s.pickupRepository.GetPickupRequestByID(ctx, id)
	if err != nil {
		return err
	}
	if request == nil {
		return domain.ErrPickupNotFound
	}
	if request.CollectorID == nil || request.CollectorID.String() != collectorID {
		return domain.ErrNotAssignedCollector
	}
	return domain.ErrInvalidTransition
}

func (s *pickupService) notifyHousehold(ctx context.Context, request *entities.PickupRequest, event notification.Event) {
	if err := s.notifier.Notify(ctx, request.Household, event, request.ID.String(), request.Status); err != nil {
		log.Printf("failed to notify household for request %s: %v", request.ID.String(), err)
	}
}

func ToDomainPickup(request *entities.PickupRequest) *domain.PickupRequest {
	items := make([]*domain.WasteItemSummary, 0, len(request.WasteItems))
	for _, item := range request.WasteItems {
		items = append(items, &domain.WasteItemSummary{
			ID:             item.ID.String(),
			WasteType:      item.WasteType,
			Weight:         item.Weight,
			EstimatedValue: item.EstimatedValue,
			Description:    item.Description,
		})
	}

	result := &domain.PickupRequest{
		ID:          request.ID.String(),
		HouseholdID: request.HouseholdID.String(),
		Status:      request.Status,
		TotalValue:  request.TotalValue,
		Distance:    request.Distance,
		Latitude:    request.Latitude,
		Longitude:   request.Longitude,
		Address:     request.Address,
		Notes:       request.Notes,
		ImageURL:    request.ImageURL,
		Items:       items,
		CreatedAt:   request.CreatedAt,
		UpdatedAt:   request.UpdatedAt,
		CompletedAt: request.CompletedAt,
	}

	if request.CollectorID != nil {
		result.CollectorID = request.CollectorID.String()
	}

	return result
}
