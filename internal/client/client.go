/*
Package client talks to the announcement API that fronts the scraper.
*/
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shanehull/anndash/internal/textutil"
	"github.com/shanehull/anndash/internal/types"
)

var (
	// ErrTransport covers network failures and non-2xx responses.
	ErrTransport = errors.New("transport failure")
	// ErrDecode covers malformed response bodies.
	ErrDecode = errors.New("decode failure")
)

const (
	defaultMaxIdleConnsPerHost = 10
	defaultIdleConnTimeout     = 90 * time.Second
	maxErrorBody               = 512
)

// Service is the data access surface the dashboard depends on.
type Service interface {
	Announcements(ctx context.Context) ([]types.Announcement, error)
	Stats(ctx context.Context) (types.Stats, error)
	SetChecked(ctx context.Context, id int64, checked types.Checked) error
	StartScrape(ctx context.Context) error
	ScrapeStatus(ctx context.Context) (types.ScrapeStatus, error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ Service = (*Client)(nil)

// New creates a client rooted at baseURL. A zero timeout leaves requests bounded
// only by their context and the transport defaults.
func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, newHTTPClient(timeout))
}

func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
			IdleConnTimeout:     defaultIdleConnTimeout,
		},
	}
}

func (c *Client) Announcements(ctx context.Context) ([]types.Announcement, error) {
	var anns []types.Announcement
	if err := c.doJSON(ctx, http.MethodGet, "/api/announcements", nil, &anns); err != nil {
		return nil, err
	}
	for i := range anns {
		normalize(&anns[i])
	}
	return anns, nil
}

func (c *Client) Stats(ctx context.Context) (types.Stats, error) {
	var stats types.Stats
	if err := c.doJSON(ctx, http.MethodGet, "/api/stats", nil, &stats); err != nil {
		return types.Stats{}, err
	}
	return stats, nil
}

// SetChecked writes the review flag for one announcement. The response body is ignored.
func (c *Client) SetChecked(ctx context.Context, id int64, checked types.Checked) error {
	body := struct {
		Checked types.Checked `json:"checked"`
	}{Checked: checked}
	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/announcements/%d/check", id), body, nil)
}

// StartScrape asks the API to launch a scrape job. The response body is ignored.
func (c *Client) StartScrape(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/scrape", nil, nil)
}

func (c *Client) ScrapeStatus(ctx context.Context) (types.ScrapeStatus, error) {
	var status types.ScrapeStatus
	if err := c.doJSON(ctx, http.MethodGet, "/api/scrape/status", nil, &status); err != nil {
		return types.ScrapeStatus{}, err
	}
	return status, nil
}

// doJSON sends requestBody as JSON and decodes a 2xx response into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, requestBody, out any) error {
	endpoint := c.baseURL + path

	var bodyReader io.Reader
	if requestBody != nil {
		body, err := json.Marshal(requestBody)
		if err != nil {
			return fmt.Errorf("marshal request for %s: %w", path, err)
		}
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("create request %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if requestBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s response: %w", ErrTransport, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(method, path, resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %s response: %w", ErrDecode, path, err)
	}
	return nil
}

func statusError(method, path string, code int, body []byte) error {
	var errorResp struct {
		Error string `json:"error"`
	}
	if jsonErr := json.Unmarshal(body, &errorResp); jsonErr == nil && errorResp.Error != "" {
		return fmt.Errorf("%w: %s %s: status %d: %s", ErrTransport, method, path, code, errorResp.Error)
	}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return fmt.Errorf("%w: %s %s: status %d, body: %s", ErrTransport, method, path, code, bytes.TrimSpace(body))
}

// normalize strips markup the scraper sometimes leaves in the descriptive fields.
func normalize(a *types.Announcement) {
	a.CompanyName = textutil.PlainText(a.CompanyName)
	a.Title = textutil.PlainText(a.Title)
	a.Description = textutil.PlainText(a.Description)
	a.Products = textutil.PlainText(a.Products)
	a.Location = textutil.PlainText(a.Location)
	a.Type = textutil.PlainText(a.Type)
}
