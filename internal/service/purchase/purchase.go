package purchase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/looksia/looksledger/internal/apperrors"
	"github.com/looksia/looksledger/internal/models"
	"github.com/looksia/looksledger/internal/repository"
)

// PriceOption is one purchasable bundle of the store catalog
type PriceOption struct {
	Product  models.ProductType
	Quantity int32
	Price    decimal.Decimal
}

// Catalog returns the store price list, amounts in BRL
func Catalog() []PriceOption {
	price := func(s string) decimal.Decimal {
		return decimal.RequireFromString(s)
	}

	return []PriceOption{
		{Product: models.ProductSpins, Quantity: 3, Price: price("2.99")},
		{Product: models.ProductSpins, Quantity: 5, Price: price("4.99")},
		{Product: models.ProductSpins, Quantity: 10, Price: price("8.99")},
		{Product: models.ProductProAnalyses, Quantity: 1, Price: price("9.99")},
		{Product: models.ProductProAnalyses, Quantity: 3, Price: price("16.99")},
		{Product: models.ProductProAnalyses, Quantity: 5, Price: price("19.99")},
	}
}

// PurchaseResult carries the journal row and whether the request was a
// replay of an already processed idempotency key
type PurchaseResult struct {
	Purchase models.Purchase
	Repeated bool
}

type PurchaseService struct {
	storage repository.Storage
	catalog []PriceOption
}

func NewService(storage repository.Storage) *PurchaseService {
	return &PurchaseService{
		storage: storage,
		catalog: Catalog(),
	}
}

// Purchase records the transaction and grants the purchased credits as one
// atomic unit. A repeated request with the same idempotency key observes
// the existing transaction and performs no additional grant
//
// Payment capture is an external concern: this workflow only guarantees the
// ledger side effect of a confirmed purchase is applied exactly once
func (s *PurchaseService) Purchase(ctx context.Context, userID uuid.UUID, product models.ProductType, quantity int32, amount decimal.Decimal, idempotencyKey string) (PurchaseResult, error) {
	var result PurchaseResult

	if !product.IsValid() {
		return result, fmt.Errorf("invalid product type %q: %w", product, apperrors.ErrUnknownProductType)
	}
	if idempotencyKey == "" {
		return result, fmt.Errorf("idempotency key must not be empty: %w", apperrors.ErrUnknownPriceOption)
	}
	if err := s.checkPrice(product, quantity, amount); err != nil {
		return result, err
	}

	err := s.storage.InTx(ctx, func(stor repository.Storage) error {
		created, isNew, err := stor.Purchases().CreatePurchase(ctx, models.Purchase{
			ID:             uuid.New(),
			UserID:         userID,
			ProductType:    product,
			Quantity:       quantity,
			Amount:         amount,
			Status:         models.PurchaseCompleted,
			IdempotencyKey: idempotencyKey,
			CreatedAt:      time.Now(),
		})
		if err != nil {
			return err
		}

		result = PurchaseResult{Purchase: created, Repeated: !isNew}

		// Key replay: the grant already happened with the original row
		if !isNew {
			return nil
		}

		_, err = stor.Credits().Grant(ctx, userID, product.CreditKind(), quantity)
		return err
	})

	if err != nil {
		return PurchaseResult{}, err
	}

	return result, nil
}

func (s *PurchaseService) History(ctx context.Context, userID uuid.UUID) ([]models.Purchase, error) {
	return s.storage.Purchases().ListPurchases(ctx, userID)
}

// checkPrice rejects quantities and amounts that don't match the catalog
// before any ledger access happens
func (s *PurchaseService) checkPrice(product models.ProductType, quantity int32, amount decimal.Decimal) error {
	for _, option := range s.catalog {
		if option.Product == product && option.Quantity == quantity {
			if !option.Price.Equal(amount) {
				return fmt.Errorf("amount %s does not match catalog price %s: %w", amount, option.Price, apperrors.ErrUnknownPriceOption)
			}
			return nil
		}
	}

	return fmt.Errorf("no option for %d x %s: %w", quantity, product, apperrors.ErrUnknownPriceOption)
}
