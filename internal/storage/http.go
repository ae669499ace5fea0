package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 15 * time.Second

// DefaultUserAgent is the user agent sent with every request.
const DefaultUserAgent = "ekoatlas-data-api/1.0"

// DefaultMaxBodySize caps a single downloaded file.
const DefaultMaxBodySize = 256 << 20

// ErrTooLarge is returned when a file exceeds the configured body size.
var ErrTooLarge = errors.New("storage: file too large")

// HTTPOptions configures the HTTP store.
type HTTPOptions struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	Client    *http.Client
	// MaxBodySize rejects larger files instead of truncating them.
	MaxBodySize int64
}

// HTTPStore fetches files by URL from a static file host.
type HTTPStore struct {
	base    *url.URL
	client  *http.Client
	options HTTPOptions
}

// NewHTTPStore returns a store resolving paths against baseURL.
func NewHTTPStore(baseURL string, opts HTTPOptions) (*HTTPStore, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = DefaultMaxBodySize
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &HTTPStore{base: base, client: client, options: opts}, nil
}

func (s *HTTPStore) Read(ctx context.Context, name string) ([]byte, error) {
	clean, err := CleanPath(name)
	if err != nil {
		return nil, err
	}
	target := s.base.ResolveReference(&url.URL{Path: clean})

	resp, err := s.get(ctx, target.String())
	if err != nil {
		return nil, &Error{Path: clean, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &Error{Path: clean, Cause: ErrNotFound}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &Error{Path: clean, Cause: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	limit := s.options.MaxBodySize
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, &Error{Path: clean, Cause: fmt.Errorf("failed to read response body: %w", err)}
	}
	if int64(len(body)) > limit {
		return nil, &Error{Path: clean, Cause: fmt.Errorf("%w: over %d bytes", ErrTooLarge, limit)}
	}
	return body, nil
}

func (s *HTTPStore) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.base.String(), nil)
	if err != nil {
		return err
	}
	s.setHeaders(req)
	resp, err := s.client.Do(req)
	if err != nil {
		return &Error{Path: s.base.String(), Cause: err}
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 500 {
		return &Error{Path: s.base.String(), Cause: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	return nil
}

func (s *HTTPStore) Name() string {
	return "http:" + s.base.String()
}

func (s *HTTPStore) get(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	s.setHeaders(req)
	return s.client.Do(req)
}

func (s *HTTPStore) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", s.options.UserAgent)
	req.Header.Set("Accept", "application/json")
	for key, value := range s.options.Headers {
		req.Header.Set(key, value)
	}
}
