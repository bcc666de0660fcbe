package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/albertocavalcante/go-nodetransform/specifier"
)

// HTTP client defaults.
const (
	DefaultMaxIdleConns        = 50
	DefaultMaxIdleConnsPerHost = 20
	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultRequestTimeout      = 30 * time.Second

	// DefaultMaxBodySize bounds a single module download.
	DefaultMaxBodySize = 64 << 20
)

// HTTP loads http:// and https:// specifiers.
//
// Redirects are followed by the underlying client; the final URL is reported
// as Response.Specifier so the graph can collapse the chain.
type HTTP struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
}

// HTTPOption configures an HTTP loader.
type HTTPOption func(*HTTP)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(h *HTTP) {
		h.client = client
	}
}

// WithTimeout sets the request timeout.
// Zero or negative values fall back to DefaultRequestTimeout.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(h *HTTP) {
		if timeout > 0 {
			h.client.Timeout = timeout
		} else {
			h.client.Timeout = DefaultRequestTimeout
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) HTTPOption {
	return func(h *HTTP) {
		h.userAgent = ua
	}
}

// WithMaxBodySize bounds the size of a single response body.
func WithMaxBodySize(n int64) HTTPOption {
	return func(h *HTTP) {
		if n > 0 {
			h.maxBodySize = n
		}
	}
}

// NewHTTP creates an HTTP loader with pooled connections.
func NewHTTP(opts ...HTTPOption) *HTTP {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
	}

	h := &HTTP{
		client: &http.Client{
			Timeout:   DefaultRequestTimeout,
			Transport: transport,
		},
		userAgent:   "go-nodetransform",
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Load fetches spec with a GET request.
func (h *HTTP) Load(ctx context.Context, spec specifier.Specifier) (*Response, error) {
	switch spec.Scheme() {
	case "http", "https":
	default:
		return nil, fmt.Errorf("%w %q: http loader", ErrUnsupportedScheme, spec.Scheme())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, spec.String(), http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/typescript, application/javascript, text/javascript, application/json, */*;q=0.1")
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	final := spec
	if resp.Request != nil && resp.Request.URL != nil {
		if s, err := specifier.Parse(resp.Request.URL.String()); err == nil {
			final = s
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Specifier: final, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", final, err)
	}
	if int64(len(data)) > h.maxBodySize {
		return nil, fmt.Errorf("read %s: body exceeds %d bytes", final, h.maxBodySize)
	}

	return &Response{
		Specifier: final,
		MediaType: specifier.DetectMediaType(final, resp.Header.Get("Content-Type")),
		Content:   data,
	}, nil
}
