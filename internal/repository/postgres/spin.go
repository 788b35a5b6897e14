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

type SpinRepo struct {
	DB DBTX
}

const createSpinRecord = `-- name: CreateSpinRecord
INSERT INTO spin_history (id, user_id, prize_type, created_at)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, prize_type, created_at
`

func (r *SpinRepo) CreateRecord(ctx context.Context, record models.SpinRecord) (models.SpinRecord, error) {
	rows, _ := r.DB.Query(ctx, createSpinRecord, record.ID, record.UserID, record.PrizeType, record.CreatedAt)
	created, err := pgx.CollectOneRow(rows, rowToSpinRecord)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return created, fmt.Errorf("repo error: %w", apperrors.ErrUserNotFound)
		}
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const listSpinRecords = `-- name: ListSpinRecords
SELECT id, user_id, prize_type, created_at FROM spin_history
WHERE user_id = $1
ORDER BY created_at DESC
`

func (r *SpinRepo) ListRecords(ctx context.Context, userID uuid.UUID) ([]models.SpinRecord, error) {
	rows, _ := r.DB.Query(ctx, listSpinRecords, userID)
	records, err := pgx.CollectRows(rows, rowToSpinRecord)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return records, nil
}

func rowToSpinRecord(row pgx.CollectableRow) (models.SpinRecord, error) {
	var s models.SpinRecord
	err := row.Scan(&s.ID, &s.UserID, &s.PrizeType, &s.CreatedAt)
	return s, err
}
