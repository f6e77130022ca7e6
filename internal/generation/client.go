// Package generation implements the HTTP client for the remote podcast
// generation service.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/cadenzahq/cadenza/internal/models"
)

const (
	// DefaultBaseURL is the base URL for a local generation service.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateInterval is the default minimum spacing between requests.
	DefaultRateInterval = 500 * time.Millisecond
)

// Client is a generation service API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateInterval sets the minimum spacing between requests.
func WithRateInterval(interval time.Duration) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
}

// NewClient creates a new generation service client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Every(DefaultRateInterval), 1),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is a non-2xx response from the generation service.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("generation API error %d on %s: %s", e.StatusCode, e.Endpoint, e.Message)
}

// submitResponse is the envelope returned by the generate endpoint
type submitResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"job_id"`
	Error   string `json:"error,omitempty"`
}

// statusResponse wraps one job observation
type statusResponse struct {
	Success bool                    `json:"success"`
	Job     models.GenerationStatus `json:"job"`
	Error   string                  `json:"error,omitempty"`
}

type estimateResponse struct {
	Success  bool                `json:"success"`
	Estimate models.CostEstimate `json:"estimate"`
	Error    string              `json:"error,omitempty"`
}

type voicesResponse struct {
	Success bool                 `json:"success"`
	Voices  []models.VoicePreset `json:"voices"`
	Error   string               `json:"error,omitempty"`
}

// Submit sends a generation request and returns the remote job id.
func (c *Client) Submit(ctx context.Context, req models.GenerationRequest) (string, error) {
	var resp submitResponse
	if err := c.post(ctx, "/api/podcast/generate", req, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("generation submission rejected: %s", resp.Error)
	}
	if resp.JobID == "" {
		return "", fmt.Errorf("generation submission returned no job id")
	}

	if c.logger != nil {
		c.logger.Debug().Str("job_id", resp.JobID).Msg("Generation job submitted")
	}
	return resp.JobID, nil
}

// Status queries a submitted job by id.
func (c *Client) Status(ctx context.Context, jobID string) (*models.GenerationStatus, error) {
	var resp statusResponse
	if err := c.get(ctx, "/api/podcast/status/"+jobID, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("status query rejected: %s", resp.Error)
	}
	return &resp.Job, nil
}

// EstimateCost returns the remote cost estimate for the given content.
func (c *Client) EstimateCost(ctx context.Context, content string) (*models.CostEstimate, error) {
	payload := map[string]string{"document_text": content}

	var resp estimateResponse
	if err := c.post(ctx, "/api/podcast/estimate-cost", payload, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("cost estimate rejected: %s", resp.Error)
	}
	return &resp.Estimate, nil
}

// Voices returns the voice presets known to the remote service.
func (c *Client) Voices(ctx context.Context) ([]models.VoicePreset, error) {
	var resp voicesResponse
	if err := c.get(ctx, "/api/podcast/voices", &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("voice listing rejected: %s", resp.Error)
	}
	return resp.Voices, nil
}

// Health reports whether the remote service is reachable and ready.
func (c *Client) Health(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	return c.get(ctx, "/health", &resp)
}

// get performs a rate-limited GET request.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.do(req, path, result)
}

// post performs a rate-limited POST request with a JSON body.
func (c *Client) post(ctx context.Context, path string, payload, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to serialize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, path, result)
}

func (c *Client) do(req *http.Request, path string, result interface{}) error {
	if c.logger != nil {
		c.logger.Debug().
			Str("method", req.Method).
			Str("path", path).
			Msg("Generation API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
