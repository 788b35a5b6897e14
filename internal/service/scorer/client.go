package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/looksia/looksledger/internal/logger"
	"github.com/looksia/looksledger/internal/models"
)

const (
	CodeTimeout    = "timeout"
	CodeBadStatus  = "bad-status"
	CodeBadPayload = "bad-payload"
	CodeUnknown    = "unknown"
)

const defaultTimeout = 30 * time.Second

// ScorerError classifies scoring collaborator failures
// Whatever the code, the caller must not charge the user
type ScorerError struct {
	Code string
	Err  error
}

func (e *ScorerError) Error() string {
	return fmt.Sprintf("code: %s, error: %v", e.Code, e.Err)
}

func (e *ScorerError) Unwrap() error {
	return e.Err
}

func NewScorerError(code string, err error) *ScorerError {
	return &ScorerError{Code: code, Err: err}
}

// Client calls the external face scoring gateway
type Client struct {
	ScorerAddr string

	apiKey  string
	timeout time.Duration
	client  *http.Client
	logger  logger.Logger
}

func NewClient(addr string, apiKey string, timeout time.Duration, l logger.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		ScorerAddr: addr,
		apiKey:     apiKey,
		timeout:    timeout,
		client:     &http.Client{},
		logger:     l,
	}
}

// AnalyzeFace sends the base64 encoded picture and returns the scoring payload
// The call is bounded by the client timeout; on timeout the caller treats it
// as a collaborator failure and applies no charge
func (c *Client) AnalyzeFace(ctx context.Context, image string) (models.FaceReport, error) {
	var report models.FaceReport

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(struct {
		Image string `json:"image"`
	}{Image: image})
	if err != nil {
		return report, NewScorerError(CodeUnknown, fmt.Errorf("failed to encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ScorerAddr+"/v1/analyze", bytes.NewReader(body))
	if err != nil {
		return report, NewScorerError(CodeUnknown, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			c.logger.Warn("Scoring request timed out", "timeout", c.timeout)
			return report, NewScorerError(CodeTimeout, fmt.Errorf("scoring request timed out: %w", err))
		}
		return report, NewScorerError(CodeUnknown, fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		failure := struct {
			Error string `json:"error"`
		}{}
		_ = json.NewDecoder(resp.Body).Decode(&failure)

		c.logger.Warn("Scoring service returned non-success", "status_code", resp.StatusCode, "error", failure.Error)
		return report, NewScorerError(CodeBadStatus, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, failure.Error))
	}

	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		c.logger.Warn("Failed to decode scoring response", "error", err)
		return report, NewScorerError(CodeBadPayload, fmt.Errorf("failed to decode response: %w", err))
	}

	c.logger.Debug("Scoring response", "score", report.Score, "label", report.Label)
	return report, nil
}
