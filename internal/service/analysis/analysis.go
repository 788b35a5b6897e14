package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/looksia/looksledger/internal/apperrors"
	"github.com/looksia/looksledger/internal/logger"
	"github.com/looksia/looksledger/internal/models"
	"github.com/looksia/looksledger/internal/repository"
	"github.com/looksia/looksledger/internal/service/scorer"
)

// faceScorer is the external scoring collaborator
type faceScorer interface {
	AnalyzeFace(ctx context.Context, image string) (models.FaceReport, error)
}

type AnalysisService struct {
	storage repository.Storage
	scorer  faceScorer
	logger  logger.Logger
}

func NewService(storage repository.Storage, faceScorer faceScorer, l logger.Logger) *AnalysisService {
	return &AnalysisService{
		storage: storage,
		scorer:  faceScorer,
		logger:  l,
	}
}

// Analyze runs one analysis request end to end:
// validate input, precheck balance, call the scorer, then charge the credit
// and journal the result in a single transaction
//
// The scorer is called before any ledger mutation, so a collaborator failure
// costs the user nothing. The charge is keyed by idempotencyKey: a caller
// retrying the same key after a failure gets the already stored record back
// without a second decrement. An empty key means the attempt is not
// retryable and gets a fresh one
func (s *AnalysisService) Analyze(ctx context.Context, userID uuid.UUID, analysisType models.PrizeType, image string, idempotencyKey string) (models.AnalysisRecord, error) {
	var record models.AnalysisRecord

	if !analysisType.IsValid() {
		return record, fmt.Errorf("invalid analysis type %q: %w", analysisType, apperrors.ErrUnknownCreditKind)
	}
	if strings.TrimSpace(image) == "" {
		return record, apperrors.ErrEmptyImage
	}
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	} else {
		// Attempt replay: return the stored record without touching the
		// scorer or the ledger again
		stored, err := s.storage.Analyses().GetByKey(ctx, idempotencyKey)
		switch {
		case err == nil:
			return stored, nil
		case !errors.Is(err, apperrors.ErrAnalysisNotFound):
			return record, err
		}
	}

	// Read-only precheck, not authoritative: it saves a pointless scorer
	// call, the real guard is the conditional consume below
	balance, err := s.storage.Credits().GetBalance(ctx, userID)
	if err != nil {
		return record, err
	}
	if balance.Count(analysisType.CreditKind()) < 1 {
		return record, fmt.Errorf("no %s credits left: %w", analysisType, apperrors.ErrInsufficientCredit)
	}

	report, err := s.scorer.AnalyzeFace(ctx, image)
	if err != nil {
		s.logger.Warn("Scoring call failed, nothing charged", "user_id", userID, "error", err)

		var scorerErr *scorer.ScorerError
		if errors.As(err, &scorerErr) {
			return record, fmt.Errorf("%w: %v", apperrors.ErrScoringUnavailable, err)
		}
		return record, err
	}

	return s.charge(ctx, userID, analysisType, report, idempotencyKey)
}

// charge decrements the credit and appends the analysis record as one unit
// attemptKey identifies this charge attempt: replaying it returns the
// already stored record without a second decrement
func (s *AnalysisService) charge(ctx context.Context, userID uuid.UUID, analysisType models.PrizeType, report models.FaceReport, attemptKey string) (models.AnalysisRecord, error) {
	var record models.AnalysisRecord

	err := s.storage.InTx(ctx, func(stor repository.Storage) error {
		stored, created, err := stor.Analyses().CreateRecord(ctx, models.AnalysisRecord{
			ID:             uuid.New(),
			UserID:         userID,
			AnalysisType:   analysisType,
			Score:          report.Score,
			Report:         report,
			IdempotencyKey: attemptKey,
			CreatedAt:      time.Now(),
		})
		if err != nil {
			return err
		}

		record = stored

		// Attempt replay: the credit was consumed when the record was
		// first written, do not consume it again
		if !created {
			return nil
		}

		_, err = stor.Credits().Consume(ctx, userID, analysisType.CreditKind())
		return err
	})

	if err != nil {
		return models.AnalysisRecord{}, err
	}

	return record, nil
}

func (s *AnalysisService) History(ctx context.Context, userID uuid.UUID) ([]models.AnalysisRecord, error) {
	return s.storage.Analyses().ListRecords(ctx, userID)
}
