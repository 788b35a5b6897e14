package models

import (
	"github.com/google/uuid"
)

// CreditKind names a single counter of the user credit balance
type CreditKind string

// Kinds of consumable entitlements a user may hold
const (
	CreditBasicAnalyses CreditKind = "basic_analyses"
	CreditProAnalyses   CreditKind = "pro_analyses"
	CreditSpins         CreditKind = "spins"
)

// Starting bonus granted when an account is created
const (
	StartingBasicAnalyses = 1
	StartingProAnalyses   = 0
	StartingSpins         = 3
)

func (k CreditKind) IsValid() bool {
	switch k {
	case CreditBasicAnalyses, CreditProAnalyses, CreditSpins:
		return true
	}
	return false
}

func (k CreditKind) String() string {
	return string(k)
}

// CreditBalance holds per user counts of consumable entitlements
// Counters never go below zero: every mutation is an atomic conditional update
type CreditBalance struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	BasicAnalyses int32
	ProAnalyses   int32
	Spins         int32
}

// Count returns the counter value for the given kind
func (b CreditBalance) Count(kind CreditKind) int32 {
	switch kind {
	case CreditBasicAnalyses:
		return b.BasicAnalyses
	case CreditProAnalyses:
		return b.ProAnalyses
	case CreditSpins:
		return b.Spins
	}
	return 0
}
