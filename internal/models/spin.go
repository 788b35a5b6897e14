package models

import (
	"time"

	"github.com/google/uuid"
)

// PrizeType is the kind of analysis won on a spin (or requested directly)
type PrizeType string

// Prize kinds the wheel may resolve to
const (
	PrizeBasic PrizeType = "basic"
	PrizePro   PrizeType = "pro"
)

func (p PrizeType) IsValid() bool {
	return p == PrizeBasic || p == PrizePro
}

// CreditKind returns the balance counter the prize grants to
func (p PrizeType) CreditKind() CreditKind {
	if p == PrizePro {
		return CreditProAnalyses
	}
	return CreditBasicAnalyses
}

// SpinRecord is created once per resolved spin and never mutated
type SpinRecord struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	PrizeType PrizeType
	CreatedAt time.Time
}
