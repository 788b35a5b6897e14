package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/looksia/looksledger/internal/apperrors"
	"github.com/looksia/looksledger/internal/models"
)

type PurchaseRepo struct {
	DB DBTX
}

// Insert purchase keyed by its idempotency key
// If a purchase with the key already exists return the existing row as is,
// so a retried request observes the original attempt
const createPurchase = `-- name: CreatePurchase
WITH insert_purchase AS (
	INSERT INTO transactions (id, user_id, product_type, quantity, amount, status, idempotency_key, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (idempotency_key) DO NOTHING
	RETURNING id, user_id, product_type, quantity, amount, status, idempotency_key, created_at
)
SELECT * FROM insert_purchase
UNION
SELECT id, user_id, product_type, quantity, amount, status, idempotency_key, created_at
FROM transactions WHERE idempotency_key = $7
`

func (r *PurchaseRepo) CreatePurchase(ctx context.Context, purchase models.Purchase) (models.Purchase, bool, error) {
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	if purchase.CreatedAt.IsZero() {
		purchase.CreatedAt = time.Now()
	}

	rows, _ := r.DB.Query(ctx, createPurchase,
		purchase.ID,
		purchase.UserID,
		purchase.ProductType,
		purchase.Quantity,
		purchase.Amount,
		purchase.Status,
		purchase.IdempotencyKey,
		purchase.CreatedAt,
	)
	p, err := pgx.CollectOneRow(rows, rowToPurchase)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return p, false, fmt.Errorf("repo error: %w", apperrors.ErrUserNotFound)
		}
		return p, false, fmt.Errorf("db error: %w", err)
	}

	return p, p.ID == purchase.ID, nil
}

const getPurchaseByKey = `-- name: GetPurchaseByKey
SELECT id, user_id, product_type, quantity, amount, status, idempotency_key, created_at
FROM transactions
WHERE idempotency_key = $1
`

func (r *PurchaseRepo) GetByKey(ctx context.Context, idempotencyKey string) (models.Purchase, error) {
	rows, _ := r.DB.Query(ctx, getPurchaseByKey, idempotencyKey)
	p, err := pgx.CollectOneRow(rows, rowToPurchase)

	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, pgx.ErrNoRows):
		return p, fmt.Errorf("repo error: %w", apperrors.ErrPurchaseNotFound)
	default:
		return p, fmt.Errorf("db error: %w", err)
	}
}

const listPurchases = `-- name: ListPurchases
SELECT id, user_id, product_type, quantity, amount, status, idempotency_key, created_at
FROM transactions
WHERE user_id = $1
ORDER BY created_at DESC
`

func (r *PurchaseRepo) ListPurchases(ctx context.Context, userID uuid.UUID) ([]models.Purchase, error) {
	rows, _ := r.DB.Query(ctx, listPurchases, userID)
	purchases, err := pgx.CollectRows(rows, rowToPurchase)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return purchases, nil
}

func rowToPurchase(row pgx.CollectableRow) (models.Purchase, error) {
	var p models.Purchase
	err := row.Scan(&p.ID, &p.UserID, &p.ProductType, &p.Quantity, &p.Amount, &p.Status, &p.IdempotencyKey, &p.CreatedAt)
	return p, err
}
