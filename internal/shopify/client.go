package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/wholesale-pricing/internal/resilience"
)

// DefaultAPIVersion is the Admin REST version used when none is configured.
const DefaultAPIVersion = "2024-01"

const accessTokenHeader = "X-Shopify-Access-Token"

var (
	ErrNotFound     = errors.New("shopify: resource not found")
	ErrUnauthorized = errors.New("shopify: unauthorized")
	ErrConfig       = errors.New("shopify: invalid configuration")

	// ErrHistoryTruncated means the order history ran past maxOrderPages, so
	// any total computed from it would be short.
	ErrHistoryTruncated = errors.New("shopify: order history exceeds page limit")
)

// APIError is a non-2xx response that is neither 401/403 nor 404.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shopify: status %d: %s", e.StatusCode, e.Body)
}

// Config configures the Admin REST client.
type Config struct {
	ShopName    string
	AccessToken string
	APIVersion  string
	// BaseURL overrides https://{ShopName}; used by tests and proxies.
	BaseURL string
	// HTTP carries retry and breaker settings. A nil HTTP.Client gets an
	// otelhttp instrumented default.
	HTTP resilience.HTTPClient
}

// Client talks to the Shopify Admin REST API.
type Client struct {
	base  *url.URL
	token string
	http  resilience.HTTPClient
}

// NewHTTPClient returns a traced http.Client for Shopify calls.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// New validates cfg and builds a Client.
func New(cfg Config) (*Client, error) {
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, fmt.Errorf("%w: access token is required", ErrConfig)
	}
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		shop := strings.TrimSpace(cfg.ShopName)
		if shop == "" {
			return nil, fmt.Errorf("%w: shop name is required", ErrConfig)
		}
		if !strings.Contains(shop, ".") {
			shop += ".myshopify.com"
		}
		raw = "https://" + shop
	}
	version := strings.TrimSpace(cfg.APIVersion)
	if version == "" {
		version = DefaultAPIVersion
	}
	base, err := url.Parse(strings.TrimRight(raw, "/") + "/admin/api/" + version + "/")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	hc := cfg.HTTP
	if hc.Client == nil {
		hc.Client = NewHTTPClient(hc.Timeout)
	}
	if hc.Target == "" {
		hc.Target = "shopify"
	}
	return &Client{base: base, token: token, http: hc}, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.base.ResolveReference(&url.URL{Path: strings.TrimLeft(path, "/") + ".json"})
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends one request and decodes the JSON body into out. It returns the
// response headers so callers can follow pagination links.
func (c *Client) do(ctx context.Context, method, rawURL string, in, out any) (http.Header, error) {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("shopify: encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set(accessTokenHeader, c.token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return resp.Header, ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return resp.Header, ErrUnauthorized
	case resp.StatusCode >= 300:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return resp.Header, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.Header, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return resp.Header, fmt.Errorf("shopify: decode response: %w", err)
	}
	return resp.Header, nil
}

var nextLinkPattern = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// nextPage extracts the rel="next" URL from a Link header.
func nextPage(h http.Header) string {
	for _, link := range h.Values("Link") {
		if m := nextLinkPattern.FindStringSubmatch(link); m != nil {
			return m[1]
		}
	}
	return ""
}
