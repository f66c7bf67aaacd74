package connection

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/minikv-go/internal/infra/buildinfo"
)

// HTTPClient provides HTTP communication with the server.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// APIError is a non-2xx answer carrying the server's error envelope.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Health is the answer of GET /health.
type Health struct {
	Status  string `json:"status" yaml:"status"`
	Version string `json:"version" yaml:"version"`
	Keys    int    `json:"keys" yaml:"keys"`
}

// Plain renders the health report for plain output.
func (h Health) Plain() string {
	return fmt.Sprintf("status: %s\nversion: %s\nkeys: %d", h.Status, h.Version, h.Keys)
}

// Headers and Rows render the report as a table.
func (h Health) Headers() []string { return []string{"STATUS", "VERSION", "KEYS"} }

func (h Health) Rows() [][]string {
	return [][]string{{h.Status, h.Version, strconv.Itoa(h.Keys)}}
}

// KeyList is the answer of GET /keys.
type KeyList struct {
	Keys []string `json:"keys" yaml:"keys"`
}

// Plain renders one key per line, or (empty).
func (k KeyList) Plain() string {
	if len(k.Keys) == 0 {
		return "(empty)"
	}
	return strings.Join(k.Keys, "\n")
}

func (k KeyList) Headers() []string { return []string{"KEY"} }

func (k KeyList) Rows() [][]string {
	rows := make([][]string, len(k.Keys))
	for i, key := range k.Keys {
		rows[i] = []string{key}
	}
	return rows
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*http.Client)

// WithTLSConfig sets the TLS config for https servers.
func WithTLSConfig(cfg *tls.Config) HTTPOption {
	return func(c *http.Client) {
		c.Transport = &http.Transport{TLSClientConfig: cfg}
	}
}

// NewHTTPClient creates a new HTTP client. server may omit the scheme.
func NewHTTPClient(server string, timeout time.Duration, opts ...HTTPOption) *HTTPClient {
	baseURL := server
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	for _, opt := range opts {
		opt(client)
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Health fetches GET /health.
func (c *HTTPClient) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.do(ctx, http.MethodGet, "/health", &h)
	return h, err
}

// Keys fetches GET /keys.
func (c *HTTPClient) Keys(ctx context.Context) (KeyList, error) {
	var k KeyList
	err := c.do(ctx, http.MethodGet, "/keys", &k)
	return k, err
}

// Get fetches GET /get/{key}. ok is false when the key does not exist.
func (c *HTTPClient) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	var v struct {
		Value string `json:"value"`
	}
	err = c.do(ctx, http.MethodGet, "/get/"+url.PathEscape(key), &v)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v.Value, true, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "minikv-cli/"+buildinfo.Get().Version)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	return ParseResponse(resp, target)
}

// ParseResponse decodes a JSON response body into target, or returns an
// *APIError for non-2xx statuses.
func ParseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		var env struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
			RequestID string `json:"request_id"`
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if json.Unmarshal(body, &env) == nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.RequestID = env.RequestID
		}
		return apiErr
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}
