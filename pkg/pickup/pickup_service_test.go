package pickup

import (
	"Rongsokin-Backend/domain"
	"Rongsokin-Backend/entities"
	"Rongsokin-Backend/pkg/notification"
	"context"
	"errors"
	"mime/multipart"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePickupRepository keeps requests in memory behind a mutex so every
// conditional write is atomic, the same contract the Postgres-backed
// repository gets from single-statement UPDATEs.
type fakePickupRepository struct {
	mu           sync.Mutex
	requests     map[string]*entities.PickupRequest
	transactions map[string]*entities.Transaction
}

func newFakePickupRepository() *fakePickupRepository {
	return &fakePickupRepository{
		requests:     make(map[string]*entities.PickupRequest),
		transactions: make(map[string]*entities.Transaction),
	}
}

func (r *fakePickupRepository) CreatePickupRequest(ctx context.Context, request *entities.PickupRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	request.CreatedAt = time.Now()
	request.UpdatedAt = time.Now()
	r.requests[request.ID.String()] = request
	return nil
}

func (r *fakePickupRepository) GetPickupRequestByID(ctx context.Context, id string) (*entities.PickupRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.requests[id]
	if !ok {
		return nil, nil
	}
	cp := *request
	return &cp, nil
}

func (r *fakePickupRepository) GetHouseholdPickupRequests(ctx context.Context, householdID string, status string, page, limit int) ([]*entities.PickupRequest, int64, error) {
	return r.listByColumn(func(req *entities.PickupRequest) bool {
		return req.HouseholdID.String() == householdID
	}, status)
}

func (r *fakePickupRepository) GetCollectorPickupRequests(ctx context.Context, collectorID string, status string, page, limit int) ([]*entities.PickupRequest, int64, error) {
	return r.listByColumn(func(req *entities.PickupRequest) bool {
		return req.CollectorID != nil && req.CollectorID.String() == collectorID
	}, status)
}

func (r *fakePickupRepository) listByColumn(match func(*entities.PickupRequest) bool, status string) ([]*entities.PickupRequest, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*entities.PickupRequest
	for _, req := range r.requests {
		if !match(req) {
			continue
		}
		if status != "All" && status != "" && req.Status != status {
			continue
		}
		cp := *req
		result = append(result, &cp)
	}
	return result, int64(len(result)), nil
}

func (r *fakePickupRepository) GetNearbyPendingRequests(ctx context.Context, lat, lng float64, radius float64) ([]*entities.PickupRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*entities.PickupRequest
	for _, req := range r.requests {
		if req.Status == domain.StatusPending {
			cp := *req
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (r *fakePickupRepository) AcceptPickupRequest(ctx context.Context, id string, collectorID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.requests[id]
	if !ok || request.Status != domain.StatusPending || request.CollectorID != nil {
		return false, nil
	}
	request.Status = domain.StatusAccepted
	request.CollectorID = &collectorID
	request.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakePickupRepository) StartPickup(ctx context.Context, id string, collectorID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.requests[id]
	if !ok || request.Status != domain.StatusAccepted || request.CollectorID == nil || request.CollectorID.String() != collectorID {
		return false, nil
	}
	request.Status = domain.StatusInProgress
	return true, nil
}

func (r *fakePickupRepository) CancelByHousehold(ctx context.Context, id string, householdID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.requests[id]
	if !ok || request.Status != domain.StatusPending || request.HouseholdID.String() != householdID {
		return false, nil
	}
	request.Status = domain.StatusCancelled
	return true, nil
}

func (r *fakePickupRepository) CancelByCollector(ctx context.Context, id string, collectorID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.requests[id]
	if !ok || request.CollectorID == nil || request.CollectorID.String() != collectorID {
		return false, nil
	}
	if request.Status != domain.StatusAccepted && request.Status != domain.StatusInProgress {
		return false, nil
	}
	request.Status = domain.StatusCancelled
	return true, nil
}

func (r *fakePickupRepository) CompletePickupRequest(ctx context.Context, id string, collectorID string, transaction *entities.Transaction) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.requests[id]
	if !ok || request.Status != domain.StatusInProgress || request.CollectorID == nil || request.CollectorID.String() != collectorID {
		return false, nil
	}
	now := time.Now()
	request.Status = domain.StatusCompleted
	request.CompletedAt = &now
	r.transactions[transaction.ID.String()] = transaction
	return true, nil
}

func (r *fakePickupRepository) GetPickupStatistics(ctx context.Context, userID string, role string) (map[string]interface{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[string]int64{}
	for _, req := range r.requests {
		owner := req.HouseholdID.String()
		if role == domain.RoleCollector {
			if req.CollectorID == nil {
				continue
			}
			owner = req.CollectorID.String()
		}
		if owner == userID {
			counts[req.Status]++
		}
	}
	var settled float64
	for _, txn := range r.transactions {
		if txn.HouseholdID.String() == userID || txn.CollectorID.String() == userID {
			settled += txn.FinalAmount
		}
	}
	return map[string]interface{}{
		"total_requests":        counts[domain.StatusPending] + counts[domain.StatusAccepted] + counts[domain.StatusInProgress] + counts[domain.StatusCompleted] + counts[domain.StatusCancelled],
		"pending_requests":      counts[domain.StatusPending],
		"active_requests":       counts[domain.StatusAccepted] + counts[domain.StatusInProgress],
		"completed_requests":    counts[domain.StatusCompleted],
		"cancelled_requests":    counts[domain.StatusCancelled],
		"total_estimated_value": float64(0),
		"total_settled_value":   settled,
		"total_weight_kg":       float64(0),
	}, nil
}

func (r *fakePickupRepository) transactionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.transactions)
}

func (r *fakePickupRepository) transactionForRequest(requestID string) *entities.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, txn := range r.transactions {
		if txn.PickupRequestID.String() == requestID {
			return txn
		}
	}
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification.Event
}

func (n *recordingNotifier) Notify(ctx context.Context, recipient *entities.User, event notification.Event, requestID string, status string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) recorded() []notification.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification.Event(nil), n.events...)
}

type fakePaymentService struct {
	invoiceURL string
	err        error
	calls      int
}

func (f *fakePaymentService) CreateInvoice(ctx context.Context, orderID string, amount int64, customerName, customerEmail string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.invoiceURL, nil
}

func (f *fakePaymentService) HandleNotification(ctx context.Context, notification domain.PaymentNotification) error {
	return nil
}

type stubStorage struct{}

func (stubStorage) UploadFile(name string, file *multipart.FileHeader, folder string, allowedTypes ...string) (string, error) {
	return folder + "/" + name, nil
}

func (stubStorage) GetPublicLinkKey(objectKey string) string {
	return "https://cdn.test/" + objectKey
}

func newTestService(repo *fakePickupRepository) (PickupService, *recordingNotifier, *fakePaymentService) {
	notifier := &recordingNotifier{}
	payments := &fakePaymentService{invoiceURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/test"}
	return NewPickupService(repo, payments, notifier, stubStorage{}), notifier, payments
}

func seedRequest(repo *fakePickupRepository, status string, household uuid.UUID, collector *uuid.UUID) *entities.PickupRequest {
	request := &entities.PickupRequest{
		ID:          uuid.New(),
		HouseholdID: household,
		CollectorID: collector,
		Status:      status,
		TotalValue:  23.0,
		Latitude:    -6.2,
		Longitude:   106.8,
		Address:     "Jl. Kebon Jeruk No. 7",
		Household: &entities.User{
			ID:    household,
			Name:  "Sari",
			Email: "sari@example.com",
			Role:  domain.RoleHousehold,
		},
		WasteItems: []*entities.WasteItem{
			{ID: uuid.New(), WasteType: "Plastic", Weight: 5.5, EstimatedValue: 15},
			{ID: uuid.New(), WasteType: "Paper", Weight: 3.0, EstimatedValue: 8},
		},
	}
	repo.requests[request.ID.String()] = request
	return request
}

func TestCreatePickup(t *testing.T) {
	repo := newFakePickupRepository()
	service, _, _ := newTestService(repo)
	household := uuid.New()

	req := domain.CreatePickupRequest{
		Items: []domain.WasteItemRequest{
			{WasteType: "Plastic", Weight: 5.5, EstimatedValue: 15},
			{WasteType: "Paper", Weight: 3.0, EstimatedValue: 8},
		},
		Latitude:  -6.2,
		Longitude: 106.8,
		Address:   "Jl. Kebon Jeruk No. 7",
	}

	result, err := service.CreatePickup(context.Background(), req, household.String())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, result.Status)
	assert.Equal(t, 23.0, result.TotalValue)
	assert.Empty(t, result.CollectorID)
	assert.Len(t, result.Items, 2)
}

func TestCreatePickupValidation(t *testing.T) {
	repo := newFakePickupRepository()
	service, _, _ := newTestService(repo)
	household := uuid.New().String()

	base := domain.CreatePickupRequest{
		Items:     []domain.WasteItemRequest{{WasteType: "Plastic", Weight: 2.0, EstimatedValue: 5}},
		Latitude:  -6.2,
		Longitude: 106.8,
		Address:   "Jl. Kebon Jeruk No. 7",
	}

	noItems := base
	noItems.Items = nil
	_, err := service.CreatePickup(context.Background(), noItems, household)
	assert.ErrorIs(t, err, domain.ErrEmptyWasteItems)

	zeroWeight := base
	zeroWeight.Items = []domain.WasteItemRequest{{WasteType: "Plastic", Weight: 0, EstimatedValue: 5}}
	_, err = service.CreatePickup(context.Background(), zeroWeight, household)
	assert.ErrorIs(t, err, domain.ErrInvalidWeight)

	blankAddress := base
	blankAddress.Address = "   "
	_, err = service.CreatePickup(context.Background(), blankAddress, household)
	assert.ErrorIs(t, err, domain.ErrBlankAddress)

	assert.Empty(t, repo.requests, "no request should be persisted on validation failure")
}

func TestAcceptPickup(t *testing.T) {
	repo := newFakePickupRepository()
	service, notifier, _ := newTestService(repo)
	request := seedRequest(repo, domain.StatusPending, uuid.New(), nil)
	collector := uuid.New()

	result, err := service.AcceptPickup(context.Background(), request.ID.String(), collector.String())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusAccepted, result.Status)
	assert.Equal(t, collector.String(), result.CollectorID)
	assert.Contains(t, notifier.recorded(), notification.EventRequestAccepted)
}

func TestAcceptPickupNotFound(t *testing.T) {
	repo := newFakePickupRepository()
	service, _, _ := newTestService(repo)

	_, err := service.AcceptPickup(context.Background(), uuid.New().String(), uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrPickupNotFound)
}

func TestAcceptPickupRace(t *testing.T) {
	repo := newFakePickupRepository()
	service, _, _ := newTestService(repo)
	request := seedRequest(repo, domain.StatusPending, uuid.New(), nil)

	const contenders = 8
	collectors := make([]uuid.UUID, contenders)
	for i := range collectors {
		collectors[i] = uuid.New()
	}

	var wg sync.WaitGroup
	results := make([]error, contenders)
	winners := make([]*domain.PickupRequest, contenders)

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			winners[i], results[i] = service.AcceptPickup(context.Background(), request.ID.String(), collectors[i].String())
		}(i)
	}
	wg.Wait()

	winnerCount := 0
	winnerIndex := -1
	for i, err := range results {
		if err == nil {
			winnerCount++
			winnerIndex = i
		} else {
			assert.ErrorIs(t, err, domain.ErrPickupNoLongerAvailable)
		}
	}
	require.Equal(t, 1, winnerCount, "exactly one collector must win the accept race")

	final, err := repo.GetPickupRequestByID(context.Background(), request.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, final.Status)
	require.NotNil(t, final.CollectorID)
	assert.Equal(t, collectors[winnerIndex].String(), final.CollectorID.String())
	assert.Equal(t, collectors[winnerIndex].String(), winners[winnerIndex].CollectorID)
}

func TestAcceptPickupAfterCancel(t *testing.T) {
	repo := newFakePickupRepository()
	service, _, _ := newTestService(repo)
	household := uuid.New()
	request := seedRequest(repo, domain.StatusPending, household, nil)

	require.NoError(t, service.CancelPickup(context.Background(), request.ID.String(), household.String(), domain.RoleHousehold))

	_, err := service.AcceptPickup(context.Background(), request.ID.String(), uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrPickupNoLongerAvailable)
}

func TestStartPickupGuards(t *testing.T) {
	repo := newFakePickupRepository()
	service, notifier, _ := newTestService(repo)
	collector := uuid.New()
	request := seedRequest(repo, domain.StatusAccepted, uuid.New(), &collector)

	err := service.StartPickup(context.Background(), request.ID.String(), uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrNotAssignedCollector)

	require.NoError(t, service.StartPickup(context.Background(), request.ID.String(), collector.String()))

	final, _ := repo.GetPickupRequestByID(context.Background(), request.ID.String())
	assert.Equal(t, domain.StatusInProgress, final.Status)
	assert.Contains(t, notifier.recorded(), notification.EventPickupStarted)

	// starting twice is an invalid transition
	err = service.StartPickup(context.Background(), request.ID.String(), collector.String())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func completeRequest() domain.CompletePickupRequest {
	return domain.CompletePickupRequest{
		Items: []domain.CollectedItemRequest{
			{WasteType: "Plastic", Weight: 5.0, Value: 12},
			{WasteType: "Paper", Weight: 3.0, Value: 8},
		},
		FinalAmount:   20.0,
		PaymentMethod: domain.PaymentMethodCash,
	}
}

func TestCompletePickup(t *testing.T) {
	repo := newFakePickupRepository()
	service, notifier, _ := newTestService(repo)
	collector := uuid.New()
	request := seedRequest(repo, domain.StatusInProgress, uuid.New(), &collector)

	result, err := service.CompletePickup(context.Background(), request.ID.String(), completeRequest(), collector.String())
	require.NoError(t, err)

	assert.Equal(t, 20.0, result.FinalAmount)
	assert.Equal(t, domain.PaymentMethodCash, result.PaymentMethod)
	assert.Equal(t, domain.PaymentStatusSettled, result.PaymentStatus)
	assert.Equal(t, request.ID.String(), result.PickupRequestID)
	assert.Len(t, result.Items, 2)

	final, _ := repo.GetPickupRequestByID(context.Background(), request.ID.String())
	assert.Equal(t, domain.StatusCompleted, final.Status)
	assert.NotNil(t, final.CompletedAt)
	require.NotNil(t, repo.transactionForRequest(request.ID.String()))
	assert.Contains(t, notifier.recorded(), notification.EventPickupCompleted)
}

func TestCompletePickupTwice(t *testing.T) {
	repo := newFakePickupRepository()
	service, _, _ := newTestService(repo)
	collector := uuid.New()
	request := seedRequest(repo, domain.StatusInProgress, uuid.New(), &collector)

	_, err := service.CompletePickup(context.Background(), request.ID.String(), completeRequest(), collector.String())
	require.NoError(t, err)

	_, err = service.CompletePickup(context.Background(), request.ID.String(), completeRequest(), collector.String())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, 1, repo.transactionCount(), "retry after success must not create a second transaction")
}

func TestCompletePickupGuards(t *testing.T) {
	repo := newFakePickupRepository()
	service, _, _ := newTestService(repo)
	collector := uuid.New()
	request := seedRequest(repo, domain.StatusInProgress, uuid.New(), &collector)

	// non-assigned caller
	_, err := service.CompletePickup(context.Background(), request.ID.String(), completeRequest(), uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrNotAssignedCollector)

	// wrong source state
	accepted := seedRequest(repo, domain.StatusAccepted, uuid.New(), &collector)
	_, err = service.CompletePickup(context.Background(), accepted.ID.String(), completeRequest(), collector.String())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// malformed settlements
	negative := completeRequest()
	negative.FinalAmount = -1
	_, err = service.CompletePickup(context.Background(), request.ID.String(), negative, collector.String())
	assert.ErrorIs(t, err, domain.ErrNegativeFinalAmount)

	empty := completeRequest()
	empty.Items = nil
	_, err = service.CompletePickup(context.Background(), request.ID.String(), empty, collector.String())
	assert.ErrorIs(t, err, domain.ErrEmptyCollectedItems)

	badMethod := completeRequest()
	badMethod.PaymentMethod = "Transfer"
	_, err = service.CompletePickup(context.Background(), request.ID.String(), badMethod, collector.String())
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentMethod)

	assert.Equal(t, 0, repo.transactionCount())
}

func TestCompletePickupEWallet(t *testing.T) {
	repo := newFakePickupRepository()
	service, _, payments := newTestService(repo)
	collector := uuid.New()
	request := seedRequest(repo, domain.StatusInProgress, uuid.New(), &collector)

	req := completeRequest()
	req.PaymentMethod = domain.PaymentMethodEWallet

	result, err := service.CompletePickup(context.Background(), request.ID.String(), req, collector.String())
	require.NoError(t, err)

	assert.Equal(t, 1, payments.calls)
	assert.Equal(t, payments.invoiceURL, result.InvoiceURL)
	assert.Equal(t, domain.PaymentStatusPending, result.PaymentStatus)
}

func TestCompletePickupEWalletInvoiceFailure(t *testing.T) {
	repo := newFakePickupRepository()
	service, _, payments := newTestService(repo)
	payments.err = errors.New("midtrans unavailable")
	collector := uuid.New()
	request := seedRequest(repo, domain.StatusInProgress, uuid.New(), &collector)

	req := completeRequest()
	req.PaymentMethod = domain.PaymentMethodEWallet

	_, err := service.CompletePickup(context.Background(), request.ID.String(), req, collector.String())
	assert.ErrorIs(t, err, domain.ErrInvoiceCreation)

	final, _ := repo.GetPickupRequestByID(context.Background(), request.ID.String())
	assert.Equal(t, domain.StatusInProgress, final.Status, "failed invoice must leave the request untouched")
	assert.Equal(t, 0, repo.transactionCount())
}

func TestCancelPickup(t *testing.T) {
	repo := newFakePickupRepository()
	service, notifier, _ := newTestService(repo)
	household := uuid.New()

	// household cancels their own pending request
	pending := seedRequest(repo, domain.StatusPending, household, nil)
	require.NoError(t, service.CancelPickup(context.Background(), pending.ID.String(), household.String(), domain.RoleHousehold))
	final, _ := repo.GetPickupRequestByID(context.Background(), pending.ID.String())
	assert.Equal(t, domain.StatusCancelled, final.Status)

	// a different household may not cancel
	other := seedRequest(repo, domain.StatusPending, household, nil)
	err := service.CancelPickup(context.Background(), other.ID.String(), uuid.New().String(), domain.RoleHousehold)
	assert.ErrorIs(t, err, domain.ErrNotRequestOwner)

	// household may not cancel once accepted
	collector := uuid.New()
	accepted := seedRequest(repo, domain.StatusAccepted, household, &collector)
	err = service.CancelPickup(context.Background(), accepted.ID.String(), household.String(), domain.RoleHousehold)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// the assigned collector withdraws
	require.NoError(t, service.CancelPickup(context.Background(), accepted.ID.String(), collector.String(), domain.RoleCollector))
	final, _ = repo.GetPickupRequestByID(context.Background(), accepted.ID.String())
	assert.Equal(t, domain.StatusCancelled, final.Status)
	assert.Contains(t, notifier.recorded(), notification.EventRequestCancelled)
}

func TestGetPickupStatistics(t *testing.T) {
	repo := newFakePickupRepository()
	service, _, _ := newTestService(repo)
	household := uuid.New()
	collector := uuid.New()

	seedRequest(repo, domain.StatusPending, household, nil)
	request := seedRequest(repo, domain.StatusInProgress, household, &collector)

	_, err := service.CompletePickup(context.Background(), request.ID.String(), completeRequest(), collector.String())
	require.NoError(t, err)

	stats, err := service.GetPickupStatistics(context.Background(), household.String(), domain.RoleHousehold)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalRequests)
	assert.Equal(t, 1, stats.PendingRequests)
	assert.Equal(t, 1, stats.CompletedRequests)
	assert.Equal(t, 20.0, stats.TotalSettledValue)
}

func TestCollectorIDNeverCleared(t *testing.T) {
	repo := newFakePickupRepository()
	service, _, _ := newTestService(repo)
	collector := uuid.New()
	request := seedRequest(repo, domain.StatusInProgress, uuid.New(), &collector)

	require.NoError(t, service.CancelPickup(context.Background(), request.ID.String(), collector.String(), domain.RoleCollector))

	final, _ := repo.GetPickupRequestByID(context.Background(), request.ID.String())
	assert.Equal(t, domain.StatusCancelled, final.Status)
	require.NotNil(t, final.CollectorID, "collector assignment survives cancellation")
	assert.Equal(t, collector.String(), final.CollectorID.String())
}
