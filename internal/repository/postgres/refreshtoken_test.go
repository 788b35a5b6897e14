package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looksia/looksledger/internal/apperrors"
	"github.com/looksia/looksledger/internal/models"
	"github.com/looksia/looksledger/internal/testutil"
)

func Test_RefreshTokenRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Create token for user in single tx
	saveToken := func(t *testing.T, tx pgx.Tx, tokenString string) models.RefreshToken {
		t.Helper()

		user := createTestUser(t, tx, "token-owner-"+tokenString)
		token := models.RefreshToken{
			ID:        uuid.New(),
			UserID:    user.ID,
			Token:     tokenString,
			CreatedAt: time.Now(),
			ExpiresAt: time.Now().Add(24 * time.Hour),
			UsedAt:    nil,
		}

		r := RefreshTokenRepo{DB: tx}
		err := r.Save(t.Context(), token)
		require.NoError(t, err, "should save refresh token")

		return token
	}

	t.Run("save and get token ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := RefreshTokenRepo{DB: tx}
			saved := saveToken(t, tx, "secret-token")

			got, err := r.Get(t.Context(), "secret-token")

			require.NoError(t, err)
			assert.Equal(t, saved.ID, got.ID)
			assert.Equal(t, saved.UserID, got.UserID)
			assert.Equal(t, "secret-token", got.Token)
			assert.Nil(t, got.UsedAt, "fresh token should not be used")
			assert.WithinDuration(t, saved.ExpiresAt, got.ExpiresAt, time.Second)
		})
	})

	t.Run("get token not found", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := RefreshTokenRepo{DB: tx}

			_, err := r.Get(t.Context(), "no-such-token")

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound, "should return well known error")
		})
	})

	t.Run("mark used ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := RefreshTokenRepo{DB: tx}
			saveToken(t, tx, "to-be-used")

			got, err := r.MarkUsed(t.Context(), "to-be-used")

			require.NoError(t, err)
			require.NotNil(t, got.UsedAt, "used token should have used_at set")
			assert.WithinDuration(t, time.Now(), *got.UsedAt, time.Second)
		})
	})

	t.Run("mark used twice", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := RefreshTokenRepo{DB: tx}
			saveToken(t, tx, "used-twice")

			first, err := r.MarkUsed(t.Context(), "used-twice")
			require.NoError(t, err)

			second, err := r.MarkUsed(t.Context(), "used-twice")

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrRefreshTokenIsUsed, "should return well known error")
			require.NotNil(t, second.UsedAt)
			assert.Equal(t, first.UsedAt.UTC(), second.UsedAt.UTC(), "used_at must keep its first value")
		})
	})

	t.Run("mark used not found", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := RefreshTokenRepo{DB: tx}

			_, err := r.MarkUsed(t.Context(), "no-such-token")

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound, "should return well known error")
		})
	})
}
