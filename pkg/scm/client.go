package scm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"
)

const (
	configPath    = "/api/scm.config/1.0/"
	reportingPath = "/api/scm.reporting/1.0/"
)

// Client talks to the config and reporting APIs of a single realm.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger

	realm    string
	username string
	password string

	configURL    string
	reportingURL string
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithBaseURL points the client at scheme://host instead of https://<realm>.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.configURL = base + configPath
		c.reportingURL = base + reportingPath
	}
}

// NewClient creates a client for realm authenticating with basic auth.
func NewClient(realm, username, password string, opts ...Option) *Client {
	base := "https://" + realm
	c := &Client{
		httpClient:   cleanhttp.DefaultClient(),
		logger:       zap.NewNop(),
		realm:        realm,
		username:     username,
		password:     password,
		configURL:    base + configPath,
		reportingURL: base + reportingPath,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Realm returns the realm hostname the client was created for.
func (c *Client) Realm() string {
	return c.realm
}

type envelope struct {
	Items json.RawMessage `json:"items"`
}

// fetch performs an authenticated GET of url. With single set, the whole
// body is returned and an HTTP error status yields (nil, nil). Otherwise
// the items list of the envelope is returned.
func (c *Client) fetch(ctx context.Context, url string, single bool) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &RequestError{URL: url, Err: err}
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("Request failed", zap.String("url", url), zap.Error(err))
		if ctx.Err() == nil && isConnectFailure(err) {
			return nil, &ConnectError{URL: url, Err: err}
		}
		return nil, &RequestError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{URL: url, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	c.logger.Debug("GET",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode >= 400 && resp.StatusCode < 600 {
		if single {
			return nil, nil
		}
		return nil, &HTTPError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &UnexpectedStatusError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       body,
		}
	}

	if single {
		if !json.Valid(body) {
			return nil, fmt.Errorf("failed to decode response from %s: invalid JSON", url)
		}
		return body, nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	if len(env.Items) == 0 || bytes.Equal(env.Items, []byte("null")) {
		return json.RawMessage("[]"), nil
	}
	return env.Items, nil
}

// getItems fetches a collection and decodes its items into v.
func (c *Client) getItems(ctx context.Context, url string, v any) error {
	raw, err := c.fetch(ctx, url, false)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode items from %s: %w", url, err)
	}
	return nil
}

// getSingle fetches one object into v. It reports false when the realm
// answered with an HTTP error status or a null body.
func (c *Client) getSingle(ctx context.Context, url string, v any) (bool, error) {
	raw, err := c.fetch(ctx, url, true)
	if err != nil {
		return false, err
	}
	if raw == nil || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", url, err)
	}
	return true, nil
}
