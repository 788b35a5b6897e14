package credits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"

	"github.com/looksia/looksledger/internal/apperrors"
	"github.com/looksia/looksledger/internal/models"
	"github.com/looksia/looksledger/internal/repository"
)

const (
	maxConflictRetries = 3
	retryBaseDelay     = 10 * time.Millisecond
)

// CreditService exposes atomic consume/grant operations over user balances
// Counter mutations are conditional SQL statements, never read-then-write,
// so concurrent requests can't lose updates or drive a counter negative
type CreditService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *CreditService {
	return &CreditService{storage: storage}
}

func (s *CreditService) GetBalance(ctx context.Context, userID uuid.UUID) (models.CreditBalance, error) {
	return s.storage.Credits().GetBalance(ctx, userID)
}

// Consume decrements the kind counter by one iff its current value is >= 1
// Fails with apperrors.ErrInsufficientCredit otherwise, without side effects
func (s *CreditService) Consume(ctx context.Context, userID uuid.UUID, kind models.CreditKind) (models.CreditBalance, error) {
	var balance models.CreditBalance

	err := s.retryOnConflict(ctx, func(ctx context.Context) error {
		var err error
		balance, err = s.storage.Credits().Consume(ctx, userID, kind)
		return err
	})

	return balance, err
}

func (s *CreditService) Grant(ctx context.Context, userID uuid.UUID, kind models.CreditKind, amount int32) (models.CreditBalance, error) {
	var balance models.CreditBalance

	err := s.retryOnConflict(ctx, func(ctx context.Context) error {
		var err error
		balance, err = s.storage.Credits().Grant(ctx, userID, kind, amount)
		return err
	})

	return balance, err
}

// Transfer decrements consumeKind by one and increments grantKind by amount
// as one indivisible unit: both happen or neither does
func (s *CreditService) Transfer(ctx context.Context, userID uuid.UUID, consumeKind, grantKind models.CreditKind, amount int32) (models.CreditBalance, error) {
	var balance models.CreditBalance

	err := s.retryOnConflict(ctx, func(ctx context.Context) error {
		return s.storage.InTx(ctx, func(stor repository.Storage) error {
			if _, err := stor.Credits().Consume(ctx, userID, consumeKind); err != nil {
				return err
			}

			var err error
			balance, err = stor.Credits().Grant(ctx, userID, grantKind, amount)
			return err
		})
	})

	return balance, err
}

// retryOnConflict retries fn a bounded number of times when storage reports
// a transient conflict. Domain errors like ErrInsufficientCredit are never
// retried: the precondition won't start holding by trying again
func (s *CreditService) retryOnConflict(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(maxConflictRetries, retry.NewFibonacci(retryBaseDelay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if isTransientConflict(err) {
			return retry.RetryableError(err)
		}
		return err
	})

	if isTransientConflict(err) {
		return fmt.Errorf("%w: %v", apperrors.ErrConcurrentUpdate, err)
	}

	return err
}

func isTransientConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
}
