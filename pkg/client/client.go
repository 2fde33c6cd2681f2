// Package client implements the placement API client: HTTP transport,
// microversion negotiation, and client-side version gating of operations.
package client

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

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	placementerrors "github.com/placement-tools/placementctl/pkg/errors"
	"github.com/placement-tools/placementctl/pkg/placement"
	"github.com/placement-tools/placementctl/pkg/version"
)

// VersionHeader carries the requested microversion on every request.
const VersionHeader = "OpenStack-API-Version"

const defaultTimeout = 30 * time.Second

// vocabCacheSize bounds the per-process cache of resolved resource class
// vocabularies, keyed by endpoint.
const vocabCacheSize = 8

// Client talks to one placement service at a fixed microversion.
type Client struct {
	endpoint string
	hc       *http.Client
	version  version.Version

	vocabCache *lru.Cache[string, placement.Vocabulary]
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithMicroversion sets the microversion requested on every call.
func WithMicroversion(v version.Version) Option {
	return func(c *Client) { c.version = v }
}

// WithTimeout bounds each request round trip.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.hc.Timeout = d }
}

// New creates a Client for the service at endpoint.
func New(endpoint string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("placement endpoint must not be empty")
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid placement endpoint %q: %w", endpoint, err)
	}

	cache, err := lru.New[string, placement.Vocabulary](vocabCacheSize)
	if err != nil {
		return nil, err
	}

	c := &Client{
		endpoint:   endpoint,
		hc:         &http.Client{Timeout: defaultTimeout},
		version:    version.Min,
		vocabCache: cache,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Microversion returns the version the client requests on every call.
func (c *Client) Microversion() version.Version { return c.version }

// do issues one request. Failures carry an ErrorCode: transport problems
// map to TRANSPORT_ERROR, HTTP error statuses to their matching code with
// the server's message plus an "(HTTP n)." suffix.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.endpoint + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(VersionHeader, "placement "+c.version.String())
	req.Header.Set("X-Request-Id", uuid.New().String())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return placementerrors.Wrap(placementerrors.ErrCodeTransport,
			"placement API request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.errorFromResponse(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return placementerrors.Wrap(placementerrors.ErrCodeTransport,
			"failed to decode placement API response", err)
	}
	return nil
}

// errorResponse is the error body shape the service returns.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) errorFromResponse(resp *http.Response) error {
	code := placementerrors.CodeFromHTTPStatus(resp.StatusCode)

	message := resp.Status
	var body errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Message != "" {
		message = body.Message
	}

	return placementerrors.Newf(code, "%s (HTTP %d).", message, resp.StatusCode)
}
