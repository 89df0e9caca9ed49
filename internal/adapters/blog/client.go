package blog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"searchfuel/internal/domain"
	"searchfuel/internal/infra/metrics"
)

// Config описывает подключение к внешней блог-платформе.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// RPS ограничивает исходящие публикации; внешние CMS режут частые запросы.
	RPS float64
}

// Client выполняет фактический вызов публикации во внешнюю CMS.
// Успех или ошибка этого вызова — триггер перехода publishing -> published|failed,
// сам клиент статусами не управляет.
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient создаёт клиента блог-платформы.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("blog base url is required")
	}
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = 2
	}
	return &Client{
		baseURL:    parsed,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

var _ domain.PublishAdapter = (*Client)(nil)

type createPostRequest struct {
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Content string `json:"content"`
	Status  string `json:"status"`
}

type createPostResponse struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
}

type apiError struct {
	Error string `json:"error"`
}

// Publish реализует domain.PublishAdapter.
func (c *Client) Publish(ctx context.Context, article domain.Article) (domain.PublishResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.PublishResult{}, err
	}

	payload, err := json.Marshal(createPostRequest{
		Title:   article.Title,
		Slug:    article.Slug,
		Content: article.Content,
		Status:  "publish",
	})
	if err != nil {
		return domain.PublishResult{}, fmt.Errorf("marshal post: %w", err)
	}

	endpoint := c.baseURL.ResolveReference(&url.URL{Path: "/api/v1/posts"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return domain.PublishResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveNetworkRequest("blog", "publish", "posts", start, err)
	if err != nil {
		return domain.PublishResult{}, fmt.Errorf("publish request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var errBody apiError
		data, readErr := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if readErr == nil && len(data) > 0 {
			_ = json.Unmarshal(data, &errBody)
		}
		if errBody.Error == "" {
			errBody.Error = strings.TrimSpace(string(data))
		}
		return domain.PublishResult{}, fmt.Errorf("publish failed: status %d: %s", resp.StatusCode, errBody.Error)
	}

	var created createPostResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return domain.PublishResult{}, fmt.Errorf("decode response: %w", err)
	}
	if created.ID == "" {
		return domain.PublishResult{}, fmt.Errorf("publish response without post id")
	}
	return domain.PublishResult{
		PostID:      created.ID,
		PostURL:     created.URL,
		PublishedAt: created.PublishedAt,
	}, nil
}
