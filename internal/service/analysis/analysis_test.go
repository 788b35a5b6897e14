package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looksia/looksledger/internal/apperrors"
	"github.com/looksia/looksledger/internal/logger"
	"github.com/looksia/looksledger/internal/models"
	"github.com/looksia/looksledger/internal/repository/postgres"
	"github.com/looksia/looksledger/internal/service/scorer"
	"github.com/looksia/looksledger/internal/testutil"
)

// Allow to use a function as the scoring collaborator
type scorerFunc func(ctx context.Context, image string) (models.FaceReport, error)

func (f scorerFunc) AnalyzeFace(ctx context.Context, image string) (models.FaceReport, error) {
	return f(ctx, image)
}

func okScorer(report models.FaceReport) scorerFunc {
	return func(ctx context.Context, image string) (models.FaceReport, error) {
		return report, nil
	}
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	report := models.FaceReport{
		Score:    7.2,
		Label:    "Attractive",
		Insights: []string{"good symmetry"},
	}

	// Helper to create AnalysisService with given scorer and seeded balance
	withTx := func(t *testing.T, faceScorer faceScorer, basic, pro int32, fn func(s *AnalysisService, user models.User)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)

			user, err := storage.User().CreateUser(t.Context(), "analysis-user", "hash")
			require.NoError(t, err, "creating user should not fail")
			err = storage.Credits().CreateBalance(t.Context(), user.ID, basic, pro, 0)
			require.NoError(t, err, "creating balance should not fail")

			fn(NewService(storage, faceScorer, logger.NewNoOpLogger()), user)
		})
	}

	t.Run("basic analysis charges one basic credit", func(t *testing.T) {
		withTx(t, okScorer(report), 2, 0, func(s *AnalysisService, user models.User) {
			record, err := s.Analyze(t.Context(), user.ID, models.PrizeBasic, "aGVsbG8=", "")

			require.NoError(t, err, "analyze should not fail")
			assert.Equal(t, models.PrizeBasic, record.AnalysisType)
			assert.InDelta(t, 7.2, record.Score, 1e-9)
			assert.Equal(t, report, record.Report)

			balance, err := s.storage.Credits().GetBalance(t.Context(), user.ID)
			require.NoError(t, err)
			assert.Equal(t, int32(1), balance.BasicAnalyses, "exactly one basic credit consumed")
		})
	})

	t.Run("pro analysis charges one pro credit", func(t *testing.T) {
		withTx(t, okScorer(report), 1, 1, func(s *AnalysisService, user models.User) {
			record, err := s.Analyze(t.Context(), user.ID, models.PrizePro, "aGVsbG8=", "")

			require.NoError(t, err, "analyze should not fail")
			assert.Equal(t, models.PrizePro, record.AnalysisType)

			balance, err := s.storage.Credits().GetBalance(t.Context(), user.ID)
			require.NoError(t, err)
			assert.Equal(t, int32(1), balance.BasicAnalyses, "basic counter must not change")
			assert.Equal(t, int32(0), balance.ProAnalyses, "exactly one pro credit consumed")
		})
	})

	t.Run("no credit means no scorer call", func(t *testing.T) {
		called := false
		countingScorer := scorerFunc(func(ctx context.Context, image string) (models.FaceReport, error) {
			called = true
			return report, nil
		})

		withTx(t, countingScorer, 0, 0, func(s *AnalysisService, user models.User) {
			_, err := s.Analyze(t.Context(), user.ID, models.PrizeBasic, "aGVsbG8=", "")

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInsufficientCredit, "should return well known error")
			assert.False(t, called, "scorer must not be called without credit")
		})
	})

	t.Run("scorer failure costs nothing", func(t *testing.T) {
		failingScorer := scorerFunc(func(ctx context.Context, image string) (models.FaceReport, error) {
			return models.FaceReport{}, scorer.NewScorerError(scorer.CodeTimeout, errors.New("deadline exceeded"))
		})

		withTx(t, failingScorer, 2, 0, func(s *AnalysisService, user models.User) {
			_, err := s.Analyze(t.Context(), user.ID, models.PrizeBasic, "aGVsbG8=", "")

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrScoringUnavailable, "should return well known error")

			// Balance untouched and nothing journaled
			balance, err := s.storage.Credits().GetBalance(t.Context(), user.ID)
			require.NoError(t, err)
			assert.Equal(t, int32(2), balance.BasicAnalyses, "failed scoring must not charge")

			history, err := s.History(t.Context(), user.ID)
			require.NoError(t, err)
			assert.Empty(t, history, "failed scoring must not be journaled")
		})
	})

	t.Run("empty image rejected", func(t *testing.T) {
		withTx(t, okScorer(report), 2, 0, func(s *AnalysisService, user models.User) {
			_, err := s.Analyze(t.Context(), user.ID, models.PrizeBasic, "   ", "")

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrEmptyImage)
		})
	})

	t.Run("unknown analysis type rejected", func(t *testing.T) {
		withTx(t, okScorer(report), 2, 0, func(s *AnalysisService, user models.User) {
			_, err := s.Analyze(t.Context(), user.ID, models.PrizeType("ultra"), "aGVsbG8=", "")

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrUnknownCreditKind)
		})
	})

	t.Run("charge replay does not bill twice", func(t *testing.T) {
		withTx(t, okScorer(report), 2, 0, func(s *AnalysisService, user models.User) {
			first, err := s.charge(t.Context(), user.ID, models.PrizeBasic, report, "attempt-key")
			require.NoError(t, err, "charge should not fail")

			second, err := s.charge(t.Context(), user.ID, models.PrizeBasic, report, "attempt-key")
			require.NoError(t, err, "charge replay should not fail")
			assert.Equal(t, first.ID, second.ID, "replay must return the stored record")

			balance, err := s.storage.Credits().GetBalance(t.Context(), user.ID)
			require.NoError(t, err)
			assert.Equal(t, int32(1), balance.BasicAnalyses, "replayed attempt must not consume again")
		})
	})

	t.Run("retry with same idempotency key does not bill twice", func(t *testing.T) {
		calls := 0
		countingScorer := scorerFunc(func(ctx context.Context, image string) (models.FaceReport, error) {
			calls++
			return report, nil
		})

		withTx(t, countingScorer, 1, 0, func(s *AnalysisService, user models.User) {
			first, err := s.Analyze(t.Context(), user.ID, models.PrizeBasic, "aGVsbG8=", "retry-key")
			require.NoError(t, err, "analyze should not fail")

			// The last credit is gone, yet the retry must still succeed
			second, err := s.Analyze(t.Context(), user.ID, models.PrizeBasic, "aGVsbG8=", "retry-key")
			require.NoError(t, err, "retry should not fail")
			assert.Equal(t, first.ID, second.ID, "retry must return the stored record")
			assert.Equal(t, 1, calls, "scorer must not be called on a replayed attempt")

			balance, err := s.storage.Credits().GetBalance(t.Context(), user.ID)
			require.NoError(t, err)
			assert.Equal(t, int32(0), balance.BasicAnalyses, "exactly one credit consumed across retries")

			history, err := s.History(t.Context(), user.ID)
			require.NoError(t, err)
			assert.Len(t, history, 1, "exactly one record across retries")
		})
	})

	t.Run("history newest first", func(t *testing.T) {
		withTx(t, okScorer(report), 2, 0, func(s *AnalysisService, user models.User) {
			_, err := s.Analyze(t.Context(), user.ID, models.PrizeBasic, "aGVsbG8=", "")
			require.NoError(t, err)
			_, err = s.Analyze(t.Context(), user.ID, models.PrizeBasic, "aGVsbG8=", "")
			require.NoError(t, err)

			history, err := s.History(t.Context(), user.ID)

			require.NoError(t, err)
			assert.Len(t, history, 2)
		})
	})
}
