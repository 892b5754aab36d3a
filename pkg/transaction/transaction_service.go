package transaction

import (
	"Rongsokin-Backend/domain"
	"Rongsokin-Backend/entities"
	"context"
)

type (
	TransactionService interface {
		GetUserTransactions(ctx context.Context, userID string, role string, page, limit int) ([]*domain.Transaction, int64, error)
		GetTransactionByID(ctx context.Context, id string, userID string) (*domain.Transaction, error)
	}

	transactionService struct {
		transactionRepository TransactionRepository
	}
)

func NewTransactionService(transactionRepository TransactionRepository) TransactionService {
	return &transactionService{
		transactionRepository: transactionRepository,
	}
}

func (s *transactionService) GetUserTransactions(ctx context.Context, userID string, role string, page, limit int) ([]*domain.Transaction, int64, error) {
	transactions, count, err := s.transactionRepository.GetUserTransactions(ctx, userID, role, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]*domain.Transaction, 0, len(transactions))
	for _, transaction := range transactions {
		result = append(result, ToDomainTransaction(transaction))
	}

	return result, count, nil
}

func (s *transactionService) GetTransactionByID(ctx context.Context, id string, userID string) (*domain.Transaction, error) {
	transaction, err := s.transactionRepository.GetTransactionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if transaction == nil {
		return nil, domain.ErrTransactionNotFound
	}

	// Only the two settlement parties may read the record
	if transaction.HouseholdID.String() != userID && transaction.CollectorID.String() != userID {
		return nil, domain.ErrUserNotAllowed
	}

	return ToDomainTransaction(transaction), nil
}

func ToDomainTransaction(transaction *entities.Transaction) *domain.Transaction {
	items := make([]*domain.CollectedItemSummary, 0, len(transaction.Items))
	for _, item := range transaction.Items {
		items = append(items, &domain.CollectedItemSummary{
			ID:        item.ID.String(),
			WasteType: item.WasteType,
			Weight:    item.Weight,
			Value:     item.Value,
		})
	}

	return &domain.Transaction{
		ID:              transaction.ID.String(),
		PickupRequestID: transaction.PickupRequestID.String(),
		HouseholdID:     transaction.HouseholdID.String(),
		CollectorID:     transaction.CollectorID.String(),
		FinalAmount:     transaction.FinalAmount,
		PaymentMethod:   transaction.PaymentMethod,
		PaymentStatus:   transaction.PaymentStatus,
		InvoiceURL:      transaction.InvoiceURL,
		Notes:           transaction.Notes,
		Items:           items,
		CompletedAt:     transaction.CompletedAt,
	}
}
