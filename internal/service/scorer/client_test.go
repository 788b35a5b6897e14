package scorer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looksia/looksledger/internal/logger"
	"github.com/looksia/looksledger/internal/models"
)

func TestClient_AnalyzeFace(t *testing.T) {
	t.Parallel()

	report := models.FaceReport{
		Score:           8.1,
		Label:           "Very Attractive",
		Symmetry:        8.5,
		Proportions:     7.9,
		Insights:        []string{"balanced features"},
		Recommendations: []string{"keep it up"},
	}

	t.Run("ok", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/analyze", r.URL.Path)
			assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var request struct {
				Image string `json:"image"`
			}
			err := json.NewDecoder(r.Body).Decode(&request)
			require.NoError(t, err, "request body should be valid json")
			assert.Equal(t, "aGVsbG8=", request.Image)

			err = json.NewEncoder(w).Encode(report)
			require.NoError(t, err)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "test-api-key", time.Second, logger.NewNoOpLogger())

		got, err := c.AnalyzeFace(t.Context(), "aGVsbG8=")

		require.NoError(t, err, "analyze should not fail")
		assert.Equal(t, report, got)
	})

	t.Run("non success status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error": "model overloaded"}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "test-api-key", time.Second, logger.NewNoOpLogger())

		_, err := c.AnalyzeFace(t.Context(), "aGVsbG8=")

		require.Error(t, err)
		var scorerErr *ScorerError
		require.ErrorAs(t, err, &scorerErr, "failure must be typed")
		assert.Equal(t, CodeBadStatus, scorerErr.Code)
	})

	t.Run("broken payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json at all"))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "test-api-key", time.Second, logger.NewNoOpLogger())

		_, err := c.AnalyzeFace(t.Context(), "aGVsbG8=")

		require.Error(t, err)
		var scorerErr *ScorerError
		require.ErrorAs(t, err, &scorerErr)
		assert.Equal(t, CodeBadPayload, scorerErr.Code)
	})

	t.Run("timeout", func(t *testing.T) {
		slow := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-slow
		}))
		defer srv.Close()
		defer close(slow)

		c := NewClient(srv.URL, "test-api-key", 50*time.Millisecond, logger.NewNoOpLogger())

		start := time.Now()
		_, err := c.AnalyzeFace(t.Context(), "aGVsbG8=")

		require.Error(t, err)
		var scorerErr *ScorerError
		require.ErrorAs(t, err, &scorerErr)
		assert.Equal(t, CodeTimeout, scorerErr.Code)
		assert.Less(t, time.Since(start), time.Second, "call must be bounded by the client timeout")
	})

	t.Run("unreachable host", func(t *testing.T) {
		c := NewClient("http://127.0.0.1:1", "test-api-key", time.Second, logger.NewNoOpLogger())

		_, err := c.AnalyzeFace(t.Context(), "aGVsbG8=")

		require.Error(t, err)
		var scorerErr *ScorerError
		require.ErrorAs(t, err, &scorerErr)
		assert.Equal(t, CodeUnknown, scorerErr.Code)
	})

	t.Run("default timeout applied", func(t *testing.T) {
		c := NewClient("http://localhost:3000", "key", 0, logger.NewNoOpLogger())

		assert.Equal(t, defaultTimeout, c.timeout)
	})
}
