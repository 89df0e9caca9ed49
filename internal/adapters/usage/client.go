package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"searchfuel/internal/domain"
	"searchfuel/internal/infra/metrics"
)

// Client читает счётчики использования из биллингового сервиса.
// Ядро никогда не вычисляет счётчики само; любой отказ биллинга
// транслируется в domain.ErrUsageUnavailable, и действие запрещается.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// Option настраивает клиент.
type Option func(*Client)

// WithHTTPClient подменяет транспорт.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout задаёт таймаут запросов.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if c.httpClient == nil {
			c.httpClient = &http.Client{}
		}
		c.httpClient.Timeout = timeout
	}
}

// New создаёт клиент биллингового сервиса.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme == "" {
		parsed.Scheme = "http"
	}
	client := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

var _ domain.UsageProvider = (*Client)(nil)

type usageResponse struct {
	AccountID                   uuid.UUID `json:"account_id"`
	PlanName                    string    `json:"plan_name"`
	ArticlesGeneratedThisPeriod int       `json:"articles_generated_this_period"`
	KeywordsTotal               int       `json:"keywords_total"`
}

// Snapshot реализует domain.UsageProvider.
func (c *Client) Snapshot(ctx context.Context, accountID uuid.UUID) (domain.UsageSnapshot, error) {
	endpoint := fmt.Sprintf("/api/v1/accounts/%s/usage", accountID)
	req, err := c.newRequest(ctx, http.MethodGet, endpoint)
	if err != nil {
		return domain.UsageSnapshot{}, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveNetworkRequest("billing", "usage", "accounts", start, err)
	if err != nil {
		return domain.UsageSnapshot{}, fmt.Errorf("%w: %v", domain.ErrUsageUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.UsageSnapshot{}, fmt.Errorf("%w: status %d: %s", domain.ErrUsageUnavailable, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var payload usageResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.UsageSnapshot{}, fmt.Errorf("%w: decode response: %v", domain.ErrUsageUnavailable, err)
	}
	return domain.UsageSnapshot{
		AccountID:                   payload.AccountID,
		PlanName:                    payload.PlanName,
		ArticlesGeneratedThisPeriod: payload.ArticlesGeneratedThisPeriod,
		KeywordsTotal:               payload.KeywordsTotal,
	}, nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string) (*http.Request, error) {
	resolved := *c.baseURL
	basePath := strings.TrimSuffix(c.baseURL.Path, "/")
	resolved.Path = path.Clean(basePath + endpoint)
	req, err := http.NewRequestWithContext(ctx, method, resolved.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return req, nil
}
