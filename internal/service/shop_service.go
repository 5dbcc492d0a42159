package service

import (
	"errors"
	"fmt"

	"classcoins/internal/models"
)

var ErrInsufficientBalance = errors.New("insufficient balance")

// ShopService turns purchases into negative settled log entries. The
// balance check happens here, before the append; the ledger itself
// never rejects or rewrites entries to keep balances non-negative.
type ShopService struct {
	ledger *LedgerService
}

// NewShopService creates a shop service.
func NewShopService(ledger *LedgerService) *ShopService {
	return &ShopService{ledger: ledger}
}

// Purchase spends coins on an item. It fails with
// ErrInsufficientBalance when the student's settled balance does not
// cover the price; the log is never appended in that case.
func (s *ShopService) Purchase(studentID, item string, price int) (*models.Transaction, error) {
	if price <= 0 {
		return nil, fmt.Errorf("price must be positive")
	}

	balance, err := s.ledger.Balance(studentID)
	if err != nil {
		return nil, err
	}
	if balance < price {
		return nil, ErrInsufficientBalance
	}

	return s.ledger.Append(studentID, models.SourceShopPurchase, -price, models.StatusPurchase, 0, item)
}
