package auth

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/looksia/looksledger/internal/testutil"
	"github.com/looksia/looksledger/tests/e2e"
)

const (
	RegisterURL = "/api/user/register"
)

func Test_AuthRegister(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	e2e.ServeWithTx(pg.Pool, t, func(tx pgx.Tx, srvURL string, s e2e.Services) {
		t.Run("register ok", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				data := `{"login": "nk", "password": "StrongEnoughPassword"}`

				resp, err := http.Post(srvURL+RegisterURL, "application/json", strings.NewReader(data))
				require.NoError(t, err)
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				defer func() { _ = resp.Body.Close() }()

				require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", string(body))
				require.JSONEq(t, `
					{
						"message": "User registered successfully"
					}`, string(body))

				require.Equal(t, 2, len(resp.Cookies()), "access and refresh cookies expected")
				for _, cookie := range resp.Cookies() {
					require.Contains(t, []string{"access_token", "refresh_token"}, cookie.Name)
					require.True(t, cookie.HttpOnly, "auth cookies should be HttpOnly")
					require.Equal(t, "/", cookie.Path, "auth cookies should be available on / path")
					require.Equal(t, http.SameSiteLaxMode, cookie.SameSite, "auth cookies should be SameSite Lax")
					require.NotEmpty(t, cookie.Value, "auth cookies should not be empty")
				}
			})
		})

		t.Run("register existed user fails", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				_, err := s.AuthService.Register(t.Context(), "nk", "StrongEnoughPassword")
				require.NoError(t, err)

				data := `{"login": "nk", "password": "StrongEnoughPassword"}`
				resp, err := http.Post(srvURL+RegisterURL, "application/json", strings.NewReader(data))
				require.NoError(t, err)
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				defer func() { _ = resp.Body.Close() }()

				require.Equalf(t, http.StatusConflict, resp.StatusCode, "not expected code. Body: %s", string(body))
				require.JSONEq(t, `
					{
						"error": "service_error",
						"message": "User already exists"
					}`, string(body))

				require.Equal(t, 0, len(resp.Cookies()), "no cookies should be set for failed register")
			})
		})
	})
}
