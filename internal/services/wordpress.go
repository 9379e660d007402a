// WordPress REST API client
//
// Endpoints based on https://developer.wordpress.org/rest-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/wpx/internal/models"
	"github.com/desertthunder/wpx/internal/shared"
	"golang.org/x/time/rate"
)

// Paginated WordPress collections
const (
	ResourcePosts = "posts"
	ResourceUsers = "users"
)

// WordPressService downloads public content from a WordPress site's REST API (e.g. https://example.com/wp-json/wp/v2).
type WordPressService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewWordPressService creates a client for the API rooted at baseURL.
//
// rps limits requests per second; zero disables limiting. A nil client defaults to [http.DefaultClient].
func NewWordPressService(baseURL string, rps float64, client *http.Client) (*WordPressService, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: wordpress api_url", shared.ErrMissingConfig)
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("%w: wordpress api_url: %v", shared.ErrInvalidConfig, err)
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &WordPressService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		limiter:    newLimiter(rps),
	}, nil
}

func (w *WordPressService) Name() string {
	return "WordPress"
}

// BaseURL returns the API root without a trailing slash.
func (w *WordPressService) BaseURL() string {
	return w.baseURL
}

func (w *WordPressService) get(ctx context.Context, endpoint string) (int, []byte, error) {
	if err := waitLimiter(ctx, w.limiter); err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+endpoint, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// Page fetches page n (1-based) of a paginated collection such as [ResourcePosts].
//
// WordPress answers 400 once n is past the last page; that is reported as [shared.ErrEndOfPages].
// Every other non-200 status is a [StatusError].
func (w *WordPressService) Page(ctx context.Context, resource string, n int) ([]json.RawMessage, error) {
	endpoint := fmt.Sprintf("/%s?page=%d", resource, n)

	status, body, err := w.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	switch status {
	case http.StatusOK:
	case http.StatusBadRequest:
		return nil, shared.ErrEndOfPages
	default:
		return nil, &StatusError{Service: w.Name(), Method: http.MethodGet, URL: endpoint, StatusCode: status, Body: truncate(body)}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s page %d: %w", resource, n, err)
	}
	return items, nil
}

// Media retrieves a single attachment by id.
func (w *WordPressService) Media(ctx context.Context, id int) (*models.WPMedia, error) {
	endpoint := fmt.Sprintf("/media/%d", id)

	status, body, err := w.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &StatusError{Service: w.Name(), Method: http.MethodGet, URL: endpoint, StatusCode: status, Body: truncate(body)}
	}

	var media models.WPMedia
	if err := json.Unmarshal(body, &media); err != nil {
		return nil, fmt.Errorf("failed to decode media %d: %w", id, err)
	}
	return &media, nil
}
