package spin

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looksia/looksledger/internal/apperrors"
	"github.com/looksia/looksledger/internal/models"
	"github.com/looksia/looksledger/internal/repository/postgres"
	"github.com/looksia/looksledger/internal/service/reward"
	"github.com/looksia/looksledger/internal/testutil"
)

func TestSpin(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Helper to create SpinService with fixed draw value and seeded balance
	withTx := func(t *testing.T, drawValue float64, basic, pro, spins int32, fn func(s *SpinService, user models.User)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)

			engine, err := reward.New(reward.DefaultTable(), func() float64 { return drawValue })
			require.NoError(t, err, "creating reward engine should not fail")

			user, err := storage.User().CreateUser(t.Context(), "spin-user", "hash")
			require.NoError(t, err, "creating user should not fail")
			err = storage.Credits().CreateBalance(t.Context(), user.ID, basic, pro, spins)
			require.NoError(t, err, "creating balance should not fail")

			fn(NewService(storage, engine), user)
		})
	}

	t.Run("spin wins pro analysis on low draw", func(t *testing.T) {
		withTx(t, 0.05, 1, 0, 2, func(s *SpinService, user models.User) {
			result, err := s.Spin(t.Context(), user.ID)

			require.NoError(t, err, "spin should not fail")
			assert.Equal(t, models.PrizePro, result.Prize)
			assert.Equal(t, int32(1), result.Balance.BasicAnalyses)
			assert.Equal(t, int32(1), result.Balance.ProAnalyses, "pro counter should grow by one")
			assert.Equal(t, int32(1), result.Balance.Spins, "one spin token should be consumed")
		})
	})

	t.Run("spin wins basic analysis on high draw", func(t *testing.T) {
		withTx(t, 0.95, 1, 0, 2, func(s *SpinService, user models.User) {
			result, err := s.Spin(t.Context(), user.ID)

			require.NoError(t, err, "spin should not fail")
			assert.Equal(t, models.PrizeBasic, result.Prize)
			assert.Equal(t, int32(2), result.Balance.BasicAnalyses, "basic counter should grow by one")
			assert.Equal(t, int32(0), result.Balance.ProAnalyses)
			assert.Equal(t, int32(1), result.Balance.Spins)
		})
	})

	t.Run("spin journals the outcome", func(t *testing.T) {
		withTx(t, 0.95, 1, 0, 2, func(s *SpinService, user models.User) {
			result, err := s.Spin(t.Context(), user.ID)
			require.NoError(t, err, "spin should not fail")

			history, err := s.History(t.Context(), user.ID)

			require.NoError(t, err)
			require.Len(t, history, 1, "exactly one record per spin")
			assert.Equal(t, result.Record.ID, history[0].ID)
			assert.Equal(t, models.PrizeBasic, history[0].PrizeType)
		})
	})

	t.Run("spin without tokens", func(t *testing.T) {
		withTx(t, 0.05, 1, 0, 0, func(s *SpinService, user models.User) {
			_, err := s.Spin(t.Context(), user.ID)

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInsufficientCredit, "should return well known error")

			// No grant and no record may survive the rollback
			history, err := s.History(t.Context(), user.ID)
			require.NoError(t, err)
			assert.Empty(t, history, "failed spin must not be journaled")
		})
	})

	t.Run("last token spins fine", func(t *testing.T) {
		withTx(t, 0.05, 0, 0, 1, func(s *SpinService, user models.User) {
			result, err := s.Spin(t.Context(), user.ID)

			require.NoError(t, err)
			assert.Equal(t, int32(0), result.Balance.Spins)

			// The next one fails
			_, err = s.Spin(t.Context(), user.ID)
			assert.ErrorIs(t, err, apperrors.ErrInsufficientCredit)
		})
	})
}
