package postgres

import (
	"context"
	"encoding/json"
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

type AnalysisRepo struct {
	DB DBTX
}

// Insert analysis record keyed by the charge attempt idempotency key
// Replaying the same attempt returns the original row instead of inserting
// a second one, which keeps the decrement+record unit retry safe
const createAnalysisRecord = `-- name: CreateAnalysisRecord
WITH insert_record AS (
	INSERT INTO analysis_history (id, user_id, analysis_type, score, result_data, idempotency_key, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (idempotency_key) DO NOTHING
	RETURNING id, user_id, analysis_type, score, result_data, idempotency_key, created_at
)
SELECT * FROM insert_record
UNION
SELECT id, user_id, analysis_type, score, result_data, idempotency_key, created_at
FROM analysis_history WHERE idempotency_key = $6
`

func (r *AnalysisRepo) CreateRecord(ctx context.Context, record models.AnalysisRecord) (models.AnalysisRecord, bool, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	resultData, err := json.Marshal(record.Report)
	if err != nil {
		return record, false, fmt.Errorf("can't encode report: %w", err)
	}

	rows, _ := r.DB.Query(ctx, createAnalysisRecord,
		record.ID,
		record.UserID,
		record.AnalysisType,
		record.Score,
		resultData,
		record.IdempotencyKey,
		record.CreatedAt,
	)
	created, err := pgx.CollectOneRow(rows, rowToAnalysisRecord)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return created, false, fmt.Errorf("repo error: %w", apperrors.ErrUserNotFound)
		}
		return created, false, fmt.Errorf("db error: %w", err)
	}

	return created, created.ID == record.ID, nil
}

const getAnalysisByKey = `-- name: GetAnalysisByKey
SELECT id, user_id, analysis_type, score, result_data, idempotency_key, created_at
FROM analysis_history
WHERE idempotency_key = $1
`

func (r *AnalysisRepo) GetByKey(ctx context.Context, idempotencyKey string) (models.AnalysisRecord, error) {
	rows, _ := r.DB.Query(ctx, getAnalysisByKey, idempotencyKey)
	record, err := pgx.CollectOneRow(rows, rowToAnalysisRecord)

	switch {
	case err == nil:
		return record, nil
	case errors.Is(err, pgx.ErrNoRows):
		return record, fmt.Errorf("repo error: %w", apperrors.ErrAnalysisNotFound)
	default:
		return record, fmt.Errorf("db error: %w", err)
	}
}

const listAnalysisRecords = `-- name: ListAnalysisRecords
SELECT id, user_id, analysis_type, score, result_data, idempotency_key, created_at
FROM analysis_history
WHERE user_id = $1
ORDER BY created_at DESC
`

func (r *AnalysisRepo) ListRecords(ctx context.Context, userID uuid.UUID) ([]models.AnalysisRecord, error) {
	rows, _ := r.DB.Query(ctx, listAnalysisRecords, userID)
	records, err := pgx.CollectRows(rows, rowToAnalysisRecord)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return records, nil
}

func rowToAnalysisRecord(row pgx.CollectableRow) (models.AnalysisRecord, error) {
	var a models.AnalysisRecord
	var resultData []byte

	err := row.Scan(&a.ID, &a.UserID, &a.AnalysisType, &a.Score, &resultData, &a.IdempotencyKey, &a.CreatedAt)
	if err != nil {
		return a, err
	}

	err = json.Unmarshal(resultData, &a.Report)
	return a, err
}
