// Package gateway talks to a remote tracker gateway over HTTP. The gateway
// performs the chain reads; this package adapts its JSON endpoints to the
// contenthub capability interfaces.
//
// Routes, relative to the base URL:
//
//	GET /v1/{chain}/{type}/{address}                          collection info
//	GET /v1/{chain}/{type}/{address}/tokens?max=N             token IDs
//	GET /v1/{chain}/{type}/{address}/tokens/{id}              token metadata
//	GET /v1/{chain}/{type}/{address}/tokens/{id}/ownership    ownership record
//	GET /v1/{chain}/{type}/{address}/tokens/{id}/rights       rights record
//	GET /v1/{chain}/{type}/{address}/owners/{owner}/tokens    tokens of an owner
//	GET /v1/{chain}/authors/{address}                         author record
//	GET /v1/{chain}/authors/{address}/content                 author publications
//	GET /v1/{chain}/collections/{address}                     collection lookup
//	GET /v1/{chain}/collections/{address}/items?limit=&offset=
//	GET /v1/prices                                            price sample
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pagedao/hub-api/pkg/contenthub"
)

// StatusError is returned for non-2xx gateway answers.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps 404 to contenthub.ErrNotFound.
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return contenthub.ErrNotFound
	}
	return nil
}

// Client is a tracker factory, price source and directory provider backed
// by a gateway.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	types         []contenthub.ContentType
	retryAttempts int
	retryDelay    time.Duration
}

// ClientOption is a functional option for configuring a Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRetry configures retry behavior of token and directory reads.
// Validation reads are never retried.
func WithRetry(attempts int, delay time.Duration) ClientOption {
	return func(c *Client) {
		if attempts > 0 {
			c.retryAttempts = attempts
		}
		c.retryDelay = delay
	}
}

// WithTypes sets the registered content types, in probe order
func WithTypes(types ...contenthub.ContentType) ClientOption {
	return func(c *Client) {
		c.types = types
	}
}

// DefaultTypes are registered when WithTypes is not given.
var DefaultTypes = []contenthub.ContentType{contenthub.TypeBook, contenthub.TypeNFT, contenthub.TypePublication}

// NewClient creates a gateway client
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid gateway URL %q", baseURL)
	}
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		types:         DefaultTypes,
		retryAttempts: 2,
		retryDelay:    250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// RegisteredTypes returns the configured content types.
func (c *Client) RegisteredTypes() []contenthub.ContentType {
	out := make([]contenthub.ContentType, len(c.types))
	copy(out, c.types)
	return out
}

// NewTracker returns an unvalidated tracker. No request is made.
func (c *Client) NewTracker(address string, contentType contenthub.ContentType, chain contenthub.Chain) (contenthub.Tracker, error) {
	if contentType == "" || chain == "" {
		return nil, fmt.Errorf("content type and chain are required")
	}
	return &Tracker{client: c, address: address, chain: chain, kind: contentType}, nil
}

// FetchPrices reads one price sample.
func (c *Client) FetchPrices(ctx context.Context) (contenthub.DataPoint, error) {
	var point contenthub.DataPoint
	err := c.get(ctx, []string{"prices"}, nil, &point, c.retryAttempts)
	return point, err
}

// get decodes the JSON answer of GET /v1/{segments...}. Server errors are
// retried up to attempts times; client errors never are.
func (c *Client) get(ctx context.Context, segments []string, query url.Values, out any, attempts int) error {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	target := c.baseURL + "/v1/" + strings.Join(escaped, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	if attempts <= 0 {
		attempts = 1
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), uint64(attempts-1)), ctx)
	return backoff.Retry(func() error {
		err := c.do(ctx, target, out)
		var statusErr *StatusError
		if err != nil && errors.As(err, &statusErr) && statusErr.StatusCode >= 500 {
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}, b)
}

func (c *Client) do(ctx context.Context, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return nil
}

// errorMessage extracts {"error": "..."} bodies, falling back to the raw text.
func errorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(body))
}
