package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductType is the credit kind a purchase pays for
type ProductType string

// Product kinds sold by the store
const (
	ProductSpins       ProductType = "spins"
	ProductProAnalyses ProductType = "pro_analyses"
)

// Purchase lifecycle statuses
const (
	PurchasePending   = "pending"
	PurchaseCompleted = "completed"
	PurchaseFailed    = "failed"
)

func (p ProductType) IsValid() bool {
	return p == ProductSpins || p == ProductProAnalyses
}

// CreditKind returns the balance counter the product grants to
func (p ProductType) CreditKind() CreditKind {
	if p == ProductProAnalyses {
		return CreditProAnalyses
	}
	return CreditSpins
}

// Purchase is created once per purchase attempt, keyed by the caller
// supplied idempotency key, and never mutated
type Purchase struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	ProductType    ProductType
	Quantity       int32
	Amount         decimal.Decimal
	Status         string
	IdempotencyKey string
	CreatedAt      time.Time
}
