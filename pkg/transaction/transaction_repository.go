package transaction

import (
	"Rongsokin-Backend/domain"
	"Rongsokin-Backend/entities"
	"context"
	"errors"

	"gorm.io/gorm"
)

type (
	TransactionRepository interface {
		GetTransactionByID(ctx context.Context, id string) (*entities.Transaction, error)
		GetTransactionByRequestID(ctx context.Context, requestID string) (*entities.Transaction, error)
		GetUserTransactions(ctx context.Context, userID string, role string, page, limit int) ([]*entities.Transaction, int64, error)
		MarkTransactionSettled(ctx context.Context, id string) error
	}

	transactionRepository struct {
		db *gorm.DB
	}
)

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) GetTransactionByID(ctx context.Context, id string) (*entities.Transaction, error) {
	var transaction entities.Transaction
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Return nil, nil if not found
		}
		return nil, err
	}
	return &transaction, nil
}

func (r *transactionRepository) GetTransactionByRequestID(ctx context.Context, requestID string) (*entities.Transaction, error) {
	var transaction entities.Transaction
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("pickup_request_id = ?", requestID).
		First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Return nil, nil if not found
		}
		return nil, err
	}
	return &transaction, nil
}

func (r *transactionRepository) GetUserTransactions(ctx context.Context, userID string, role string, page, limit int) ([]*entities.Transaction, int64, error) {
	var transactions []*entities.Transaction
	var count int64
	offset := (page - 1) * limit

	column := "household_id"
	if role == domain.RoleCollector {
		column = "collector_id"
	}

	query := r.db.WithContext(ctx).Where(column+" = ?", userID)

	if err := query.Model(&entities.Transaction{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("Items").
		Order("completed_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&transactions).Error; err != nil {
		return nil, 0, err
	}

	return transactions, count, nil
}

// MarkTransactionSettled flips only the operational payment status; the
// settlement amounts and items are an audit record and stay untouched.
func (r *transactionRepository) MarkTransactionSettled(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&entities.Transaction{}).
		Where("id = ?", id).
		Update("payment_status", domain.PaymentStatusSettled).Error
}
