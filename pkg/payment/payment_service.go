package payment

import (
	"Rongsokin-Backend/domain"
	"Rongsokin-Backend/internal/utils"
	"Rongsokin-Backend/pkg/transaction"
	"context"
	"log"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

type (
	PaymentService interface {
		CreateInvoice(ctx context.Context, orderID string, amount int64, customerName, customerEmail string) (string, error)
		HandleNotification(ctx context.Context, notification domain.PaymentNotification) error
	}

	paymentService struct {
		snapClient            snap.Client
		transactionRepository transaction.TransactionRepository
	}
)

func NewPaymentService(transactionRepository transaction.TransactionRepository) PaymentService {
	env := midtrans.Sandbox
	if utils.GetConfig("IsProd") == "true" {
		env = midtrans.Production
	}

	var client snap.Client
	client.New(utils.GetConfig("SERVER_KEY"), env)

	return &paymentService{
		snapClient:            client,
		transactionRepository: transactionRepository,
	}
}

func (s *paymentService) CreateInvoice(ctx context.Context, orderID string, amount int64, customerName, customerEmail string) (string, error) {
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: amount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: customerName,
			Email: customerEmail,
		},
	}

	resp, errMidtrans := s.snapClient.CreateTransaction(req)
	if errMidtrans != nil {
		return "", errMidtrans
	}

	return resp.RedirectURL, nil
}

func (s *paymentService) HandleNotification(ctx context.Context, notification domain.PaymentNotification) error {
	switch notification.TransactionStatus {
	case "settlement", "capture":
		if notification.FraudStatus == "deny" {
			log.Printf("payment for order %s denied by fraud check", notification.OrderID)
			return nil
		}
		return s.transactionRepository.MarkTransactionSettled(ctx, notification.OrderID)
	case "expire", "cancel", "deny":
		log.Printf("payment for order %s ended with status %s", notification.OrderID, notification.TransactionStatus)
		return nil
	default:
		return nil
	}
}
