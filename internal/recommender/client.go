// Package recommender is the HTTP adapter for the external recommendation
// engine. It owns the transport concerns the service layer never sees: base
// URL, request timeout and the engine's response envelope.
package recommender

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/itinera/backend/internal/domain"
)

const (
	recommendPath   = "/api/v1/recommendations"
	maxResponseSize = 4 << 20
)

// Client calls the recommendation engine. Each call is made exactly once;
// there is no retry.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a Client for the engine at baseURL. timeout bounds every
// request end to end, including reading the body.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With("adapter", "recommender"),
	}
}

// envelope is the engine's standard response wrapper.
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
}

// Recommend posts req to the engine and returns the recommendation payload.
// A {"status":"success","data":...} envelope is unwrapped; a bare JSON array
// is returned as is. Non-2xx statuses and malformed bodies are errors.
func (c *Client) Recommend(ctx context.Context, req domain.RecommendationRequest) (domain.RecommendationResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("recommender: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+recommendPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("recommender: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("recommender: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("recommender: read body: %w", err)
	}

	c.log.DebugContext(ctx, "recommender response",
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(raw)),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("recommender: unexpected status %d", resp.StatusCode)
	}
	return decode(raw)
}

func decode(raw []byte) (domain.RecommendationResult, error) {
	trimmed := bytes.TrimSpace(raw)
	if !json.Valid(trimmed) {
		return nil, errors.New("recommender: malformed response body")
	}

	switch trimmed[0] {
	case '[':
		return domain.RecommendationResult(trimmed), nil
	case '{':
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("recommender: decode envelope: %w", err)
		}
		if env.Status != "success" {
			return nil, fmt.Errorf("recommender: engine reported status %q: %s", env.Status, env.Error)
		}
		if len(env.Data) == 0 || string(env.Data) == "null" {
			return nil, errors.New("recommender: envelope has no data")
		}
		return domain.RecommendationResult(env.Data), nil
	default:
		return nil, errors.New("recommender: response is neither an envelope nor an array")
	}
}
