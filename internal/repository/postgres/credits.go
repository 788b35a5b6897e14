package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/looksia/looksledger/internal/apperrors"
	"github.com/looksia/looksledger/internal/models"
)

type CreditsRepo struct {
	DB DBTX
}

const balanceColumns = "id, user_id, basic_analyses, pro_analyses, spins"

func (r *CreditsRepo) CreateBalance(ctx context.Context, userID uuid.UUID, basic, pro, spins int32) error {
	const createBalance = `
	INSERT INTO user_credits (id, user_id, basic_analyses, pro_analyses, spins)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id
	`

	_, err := r.DB.Exec(ctx, createBalance, uuid.New(), userID, basic, pro, spins)

	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation:
			return fmt.Errorf("user balance already exists: %w", err)
		case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation:
			return fmt.Errorf("repo error: %w", apperrors.ErrUserNotFound)
		}

		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *CreditsRepo) GetBalance(ctx context.Context, userID uuid.UUID) (models.CreditBalance, error) {
	const getBalanceByUserID = `
	SELECT id, user_id, basic_analyses, pro_analyses, spins FROM user_credits
	WHERE user_id = $1
	`

	rows, _ := r.DB.Query(ctx, getBalanceByUserID, userID)
	balance, err := pgx.CollectOneRow(rows, rowToBalance)

	switch {
	case err == nil:
		return balance, nil
	case errors.Is(err, pgx.ErrNoRows):
		return balance, fmt.Errorf("repo error: %w", apperrors.ErrUserNotFound)
	default:
		return balance, fmt.Errorf("db error: %w", err)
	}
}

// Consume decrements the kind counter by one in a single conditional
// statement. The row predicate guards the race where two requests both saw
// a counter of one: only one of them matches the row
func (r *CreditsRepo) Consume(ctx context.Context, userID uuid.UUID, kind models.CreditKind) (models.CreditBalance, error) {
	var balance models.CreditBalance

	if !kind.IsValid() {
		return balance, fmt.Errorf("repo error: %w", apperrors.ErrUnknownCreditKind)
	}

	// kind is validated against the enum above, interpolation is safe
	consume := fmt.Sprintf(`
	UPDATE user_credits
	SET %[1]s = %[1]s - 1
	WHERE user_id = $1 AND %[1]s >= 1
	RETURNING `+balanceColumns, kind)

	rows, _ := r.DB.Query(ctx, consume, userID)
	balance, err := pgx.CollectOneRow(rows, rowToBalance)

	switch {
	case err == nil:
		return balance, nil
	case errors.Is(err, pgx.ErrNoRows):
		// No row matched: either the user has no balance row at all
		// or the counter is already zero
		if _, getErr := r.GetBalance(ctx, userID); getErr != nil {
			return balance, getErr
		}
		return balance, fmt.Errorf("repo error: %w", apperrors.ErrInsufficientCredit)
	default:
		return balance, fmt.Errorf("db error: %w", err)
	}
}

func (r *CreditsRepo) Grant(ctx context.Context, userID uuid.UUID, kind models.CreditKind, amount int32) (models.CreditBalance, error) {
	var balance models.CreditBalance

	if !kind.IsValid() {
		return balance, fmt.Errorf("repo error: %w", apperrors.ErrUnknownCreditKind)
	}
	if amount < 1 {
		return balance, fmt.Errorf("repo error: grant amount must be positive, got %d", amount)
	}

	grant := fmt.Sprintf(`
	UPDATE user_credits
	SET %[1]s = %[1]s + $2
	WHERE user_id = $1
	RETURNING `+balanceColumns, kind)

	rows, _ := r.DB.Query(ctx, grant, userID, amount)
	balance, err := pgx.CollectOneRow(rows, rowToBalance)

	switch {
	case err == nil:
		return balance, nil
	case errors.Is(err, pgx.ErrNoRows):
		return balance, fmt.Errorf("repo error: %w", apperrors.ErrUserNotFound)
	default:
		return balance, fmt.Errorf("db error: %w", err)
	}
}

func rowToBalance(row pgx.CollectableRow) (models.CreditBalance, error) {
	var b models.CreditBalance
	err := row.Scan(&b.ID, &b.UserID, &b.BasicAnalyses, &b.ProAnalyses, &b.Spins)
	return b, err
}
