package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/looksia/looksledger/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// If user with username exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, username string, hashedPassword string) (models.User, error)

	// Get user by its id or username
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Save token in repository
	Save(ctx context.Context, token models.RefreshToken) error

	// Return the token if it exists
	// If token not found must return apperrors.ErrRefreshTokenNotFound
	Get(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Mark token as used
	// Must not overwrite 'used_at' of an already used token;
	// in that case has to return apperrors.ErrRefreshTokenIsUsed
	MarkUsed(ctx context.Context, tokenString string) (models.RefreshToken, error)
}

// Credits repository: the only owner of user_credits rows
// Every mutation is a single conditional SQL statement, so two concurrent
// consumes of a balance of one never both succeed
type CreditsRepo interface {
	// Create balance for user seeded with the given counters
	CreateBalance(ctx context.Context, userID uuid.UUID, basic, pro, spins int32) error

	// Point-in-time read, not part of any atomicity contract by itself
	GetBalance(ctx context.Context, userID uuid.UUID) (models.CreditBalance, error)

	// Decrement kind by one iff its current value is >= 1
	// Returns apperrors.ErrInsufficientCredit otherwise, without side effects
	Consume(ctx context.Context, userID uuid.UUID, kind models.CreditKind) (models.CreditBalance, error)

	// Increment kind by amount (amount >= 1)
	Grant(ctx context.Context, userID uuid.UUID, kind models.CreditKind, amount int32) (models.CreditBalance, error)
}

// Spin history journal, append only
type SpinRepo interface {
	CreateRecord(ctx context.Context, record models.SpinRecord) (models.SpinRecord, error)
	ListRecords(ctx context.Context, userID uuid.UUID) ([]models.SpinRecord, error)
}

// Purchase journal, append only
type PurchaseRepo interface {
	// Insert purchase keyed by its idempotency key
	// If a purchase with the key exists already return it as is with created=false
	CreatePurchase(ctx context.Context, purchase models.Purchase) (p models.Purchase, created bool, err error)
	GetByKey(ctx context.Context, idempotencyKey string) (models.Purchase, error)
	ListPurchases(ctx context.Context, userID uuid.UUID) ([]models.Purchase, error)
}

// Analysis history journal, append only
type AnalysisRepo interface {
	// Insert record keyed by the charge attempt idempotency key
	// If a record with the key exists already return it as is with created=false
	CreateRecord(ctx context.Context, record models.AnalysisRecord) (r models.AnalysisRecord, created bool, err error)

	// Return the record stored under the key
	// If no record carries the key must return apperrors.ErrAnalysisNotFound
	GetByKey(ctx context.Context, idempotencyKey string) (models.AnalysisRecord, error)

	ListRecords(ctx context.Context, userID uuid.UUID) ([]models.AnalysisRecord, error)
}

// Storage aggregates all repositories over a shared connection or transaction
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
	Credits() CreditsRepo
	Spins() SpinRepo
	Purchases() PurchaseRepo
	Analyses() AnalysisRepo

	// Run fn inside a db transaction
	// Commit if fn returns nil, rollback every step otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}
