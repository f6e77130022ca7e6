// Package topics consumes the external topic discovery service and
// normalizes topic content into generation-ready markdown.
package topics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/cadenzahq/cadenza/internal/models"
)

// DefaultTimeout is the default HTTP timeout for discovery requests.
const DefaultTimeout = 15 * time.Second

// Service is a client for the topic discovery API.
type Service struct {
	baseURL    string
	httpClient *http.Client
	logger     arbor.ILogger
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ServiceOption {
	return func(s *Service) {
		s.httpClient = httpClient
	}
}

// NewService creates a topic discovery client. An empty baseURL disables
// discovery; Discover then returns an empty list so callers can still
// enqueue caller-supplied topics.
func NewService(baseURL string, logger arbor.ILogger, opts ...ServiceOption) *Service {
	s := &Service{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// discoverResponse is the envelope returned by the discovery endpoint
type discoverResponse struct {
	Success bool           `json:"success"`
	Topics  []models.Topic `json:"topics"`
	Error   string         `json:"error,omitempty"`
}

type topicResponse struct {
	Success bool         `json:"success"`
	Topic   models.Topic `json:"topic"`
	Error   string       `json:"error,omitempty"`
}

// Discover returns up to limit topics for a category ("" = any). Topic
// content is normalized before return.
func (s *Service) Discover(ctx context.Context, category string, limit int) ([]models.Topic, error) {
	if s.baseURL == "" {
		return nil, nil
	}

	url := fmt.Sprintf("%s/api/topics?limit=%d", s.baseURL, limit)
	if category != "" {
		url += "&category=" + category
	}

	var resp discoverResponse
	if err := s.get(ctx, url, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("topic discovery rejected: %s", resp.Error)
	}

	for i := range resp.Topics {
		resp.Topics[i].Content = NormalizeContent(resp.Topics[i].Content)
	}

	s.logger.Debug().
		Str("category", category).
		Int("topics", len(resp.Topics)).
		Msg("Topics discovered")

	return resp.Topics, nil
}

// Get returns a single topic by id with normalized content.
func (s *Service) Get(ctx context.Context, id string) (*models.Topic, error) {
	if s.baseURL == "" {
		return nil, fmt.Errorf("topic discovery is not configured")
	}

	var resp topicResponse
	if err := s.get(ctx, s.baseURL+"/api/topics/"+id, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("topic lookup rejected: %s", resp.Error)
	}

	resp.Topic.Content = NormalizeContent(resp.Topic.Content)
	return &resp.Topic, nil
}

func (s *Service) get(ctx context.Context, url string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("topic discovery error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
