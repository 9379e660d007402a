// Contentful Content Management API client
//
// Endpoints based on https://www.contentful.com/developers/docs/references/content-management-api/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/wpx/internal/models"
	"github.com/desertthunder/wpx/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	defaultContentfulBaseURL = "https://api.contentful.com"
	contentfulMediaType      = "application/vnd.contentful.management.v1+json"
	entriesPageSize          = 100
)

// ContentfulOpts configures a [ContentfulService].
type ContentfulOpts struct {
	BaseURL     string
	AccessToken string
	SpaceID     string
	Environment string
	Locale      string
	RateLimit   float64      // requests per second; zero disables limiting
	Client      *http.Client // underlying transport for the OAuth2 client
}

// ContentfulService talks to one environment of a Contentful space.
//
// Requests carry the management token as a bearer token through an [oauth2.Client] backed by a static token source.
type ContentfulService struct {
	baseURL     string
	spaceID     string
	environment string
	locale      string
	httpClient  *http.Client
	limiter     *rate.Limiter
}

// NewContentfulService validates opts and builds an authenticated client.
func NewContentfulService(ctx context.Context, opts ContentfulOpts) (*ContentfulService, error) {
	if opts.AccessToken == "" {
		return nil, fmt.Errorf("%w: contentful access_token", shared.ErrMissingCredentials)
	}
	if opts.SpaceID == "" {
		return nil, fmt.Errorf("%w: contentful space_id", shared.ErrMissingConfig)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultContentfulBaseURL
	}
	if opts.Environment == "" {
		opts.Environment = "master"
	}
	if opts.Locale == "" {
		opts.Locale = "en-US"
	}
	if opts.Client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, opts.Client)
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.AccessToken, TokenType: "Bearer"})

	return &ContentfulService{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		spaceID:     opts.SpaceID,
		environment: opts.Environment,
		locale:      opts.Locale,
		httpClient:  oauth2.NewClient(ctx, src),
		limiter:     newLimiter(opts.RateLimit),
	}, nil
}

func (c *ContentfulService) Name() string {
	return "Contentful"
}

// Locale returns the locale code used for asset processing and field values.
func (c *ContentfulService) Locale() string {
	return c.locale
}

func (c *ContentfulService) envPath(format string, args ...any) string {
	return fmt.Sprintf("/spaces/%s/environments/%s", url.PathEscape(c.spaceID), url.PathEscape(c.environment)) +
		fmt.Sprintf(format, args...)
}

// doRequest performs an authenticated request against the space environment.
//
// body is encoded as JSON when non-nil; result is decoded from the response when non-nil and the response has content.
func (c *ContentfulService) doRequest(ctx context.Context, method, endpoint string, headers map[string]string, body, result any) error {
	if err := waitLimiter(ctx, c.limiter); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", contentfulMediaType)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Service: c.Name(), Method: method, URL: endpoint, StatusCode: resp.StatusCode, Body: truncate(data)}
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func versionHeader(v int) map[string]string {
	return map[string]string{"X-Contentful-Version": strconv.Itoa(v)}
}

// FindEntries returns the entries of contentType whose slug field equals slug.
func (c *ContentfulService) FindEntries(ctx context.Context, contentType, slug string) (*models.EntryCollection, error) {
	q := url.Values{}
	q.Set("content_type", contentType)
	q.Set("fields.slug[in]", slug)

	var coll models.EntryCollection
	if err := c.doRequest(ctx, http.MethodGet, c.envPath("/entries?%s", q.Encode()), nil, nil, &coll); err != nil {
		return nil, err
	}
	return &coll, nil
}

// ListEntries returns every entry of contentType, following skip/limit pagination.
func (c *ContentfulService) ListEntries(ctx context.Context, contentType string) (*models.EntryCollection, error) {
	all := &models.EntryCollection{}

	for skip := 0; ; {
		q := url.Values{}
		q.Set("content_type", contentType)
		q.Set("skip", strconv.Itoa(skip))
		q.Set("limit", strconv.Itoa(entriesPageSize))

		var page models.EntryCollection
		if err := c.doRequest(ctx, http.MethodGet, c.envPath("/entries?%s", q.Encode()), nil, nil, &page); err != nil {
			return nil, err
		}

		all.Items = append(all.Items, page.Items...)
		all.Total = page.Total
		skip += len(page.Items)

		if len(page.Items) == 0 || skip >= page.Total {
			break
		}
	}

	all.Limit = len(all.Items)
	return all, nil
}

// CreateEntry creates a draft entry of contentType.
func (c *ContentfulService) CreateEntry(ctx context.Context, contentType string, fields models.EntryFields) (*models.Entry, error) {
	headers := map[string]string{"X-Contentful-Content-Type": contentType}
	body := map[string]any{"fields": fields}

	var entry models.Entry
	if err := c.doRequest(ctx, http.MethodPost, c.envPath("/entries"), headers, body, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// PublishEntry publishes the given version of an entry.
func (c *ContentfulService) PublishEntry(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
	if entry == nil || entry.Sys.ID == "" {
		return nil, fmt.Errorf("%w: entry has no id", shared.ErrInvalidInput)
	}

	var published models.Entry
	endpoint := c.envPath("/entries/%s/published", url.PathEscape(entry.Sys.ID))
	if err := c.doRequest(ctx, http.MethodPut, endpoint, versionHeader(entry.Sys.Version), nil, &published); err != nil {
		return nil, err
	}
	return &published, nil
}

// CreateAsset creates a draft asset whose file points at a remote upload URL.
func (c *ContentfulService) CreateAsset(ctx context.Context, fields models.AssetFields) (*models.Asset, error) {
	var asset models.Asset
	if err := c.doRequest(ctx, http.MethodPost, c.envPath("/assets"), nil, map[string]any{"fields": fields}, &asset); err != nil {
		return nil, err
	}
	return &asset, nil
}

// ProcessAsset asks Contentful to fetch and process the asset's file for the configured locale.
//
// Processing is asynchronous; poll [ContentfulService.GetAsset] until the file URL appears.
func (c *ContentfulService) ProcessAsset(ctx context.Context, asset *models.Asset) error {
	if asset == nil || asset.Sys.ID == "" {
		return fmt.Errorf("%w: asset has no id", shared.ErrInvalidInput)
	}

	endpoint := c.envPath("/assets/%s/files/%s/process", url.PathEscape(asset.Sys.ID), url.PathEscape(c.locale))
	return c.doRequest(ctx, http.MethodPut, endpoint, versionHeader(asset.Sys.Version), nil, nil)
}

// GetAsset retrieves an asset by id.
func (c *ContentfulService) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	var asset models.Asset
	if err := c.doRequest(ctx, http.MethodGet, c.envPath("/assets/%s", url.PathEscape(id)), nil, nil, &asset); err != nil {
		return nil, err
	}
	return &asset, nil
}

// PublishAsset publishes the given version of an asset.
func (c *ContentfulService) PublishAsset(ctx context.Context, asset *models.Asset) (*models.Asset, error) {
	if asset == nil || asset.Sys.ID == "" {
		return nil, fmt.Errorf("%w: asset has no id", shared.ErrInvalidInput)
	}

	var published models.Asset
	endpoint := c.envPath("/assets/%s/published", url.PathEscape(asset.Sys.ID))
	if err := c.doRequest(ctx, http.MethodPut, endpoint, versionHeader(asset.Sys.Version), nil, &published); err != nil {
		return nil, err
	}
	return &published, nil
}
