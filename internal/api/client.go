// Package api is the HTTP client for the website generation service.
//
// Client.Do is the raw transport: it resolves a path against the configured
// base URL and returns the response untouched. The endpoint helpers in
// endpoints.go are layered on top and do the decoding.
package api

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ontree-co/sitegen/internal/telemetry"
	"github.com/ontree-co/sitegen/internal/version"
)

// RequestIDHeader correlates a client call with the service's logs.
const RequestIDHeader = "X-Request-ID"

// Client talks to the generation service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for the service at baseURL. The default
// http.Client has no timeout; callers bound calls through ctx.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		userAgent:  version.UserAgent(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL resolves path against the base URL, adding the leading slash if missing.
func (c *Client) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Do performs a request and returns the raw response. It neither retries nor
// interprets the status code; the caller owns the response body.
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader, header http.Header) (*http.Response, error) {
	ctx, span := telemetry.StartSpan(ctx, "api."+strings.ToLower(method))
	defer span.End()

	target := c.URL(path)
	requestID := uuid.NewString()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.url", target),
		attribute.String("sitegen.request_id", requestID),
	)

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request")
		return nil, err
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	return resp, nil
}
