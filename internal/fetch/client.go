// Package fetch is the transport boundary of the aggregation engine. Every
// upstream interaction goes through Client, and every failure mode — network
// error, timeout, non-2xx status, undecodable body — surfaces as the single
// ErrUnavailable sentinel. The engine never distinguishes between them.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// ErrUnavailable is the uniform "this sub-fetch failed" signal.
var ErrUnavailable = errors.New("fetch: upstream unavailable")

const defaultUserAgent = "Mozilla/5.0"

// Row is one CSV record keyed by header name.
type Row map[string]string

// Sanitizer rewrites raw CSV cells before they are keyed into a Row.
type Sanitizer func(string) string

// Client performs single-attempt upstream fetches with a bounded wait.
// Retrying is a caller-level policy, never the client's.
type Client interface {
	GetJSON(ctx context.Context, rawURL string, out any) error
	GetText(ctx context.Context, rawURL string) (string, error)
	GetCSV(ctx context.Context, rawURL string, sanitize Sanitizer) ([]Row, error)
	Probe(ctx context.Context, rawURL string) bool
	PostJSON(ctx context.Context, rawURL string, body, out any) error
}

// Recorder observes upstream request outcomes.
type Recorder interface {
	RecordUpstreamRequest(host string, ok bool)
}

// Config tunes the HTTP client. Zero values fall back to the observed
// upstream contract: 20s timeout, browser-like user agent.
type Config struct {
	Timeout   time.Duration
	UserAgent string
}

// HTTPClient is the production Client. Each upstream host gets its own
// circuit breaker so one flapping feed cannot poison the rest of a fan-out.
type HTTPClient struct {
	client    *http.Client
	userAgent string
	recorder  Recorder

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewHTTPClient builds an HTTPClient. recorder may be nil.
func NewHTTPClient(cfg Config, recorder Recorder) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &HTTPClient{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		recorder:  recorder,
		breakers:  make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (c *HTTPClient) breakerFor(host string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()
	cb, ok := c.breakers[host]
	if !ok {
		cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    host,
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		})
		c.breakers[host] = cb
	}
	return cb
}

func (c *HTTPClient) do(ctx context.Context, method, rawURL string, body io.Reader, contentType string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	result, err := c.breakerFor(u.Host).Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", c.userAgent)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("status %d", resp.StatusCode)
		}

		return io.ReadAll(resp.Body)
	})

	if c.recorder != nil {
		c.recorder.RecordUpstreamRequest(u.Host, err == nil)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, u.Host, err)
	}
	return result.([]byte), nil
}

// GetJSON fetches rawURL and decodes the body into out.
func (c *HTTPClient) GetJSON(ctx context.Context, rawURL string, out any) error {
	data, err := c.do(ctx, http.MethodGet, rawURL, nil, "")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return nil
}

// GetText fetches rawURL and returns the body as a string.
func (c *HTTPClient) GetText(ctx context.Context, rawURL string) (string, error) {
	data, err := c.do(ctx, http.MethodGet, rawURL, nil, "")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GetCSV fetches rawURL and parses it into rows keyed by the header line.
// sanitize, when non-nil, is applied to every header and cell.
func (c *HTTPClient) GetCSV(ctx context.Context, rawURL string, sanitize Sanitizer) ([]Row, error) {
	text, err := c.GetText(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	rows, err := ParseCSV(text, sanitize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return rows, nil
}

// Probe performs an existence-only check: true iff the URL answers 2xx.
func (c *HTTPClient) Probe(ctx context.Context, rawURL string) bool {
	_, err := c.do(ctx, http.MethodHead, rawURL, nil, "")
	return err == nil
}

// PostJSON posts body as JSON and decodes the response into out.
func (c *HTTPClient) PostJSON(ctx context.Context, rawURL string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrUnavailable, err)
	}
	data, err := c.do(ctx, http.MethodPost, rawURL, bytes.NewReader(encoded), "application/json")
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return nil
}

// ParseCSV splits text into header-keyed rows. Upstream station dumps are
// plain comma-separated with no quoting, so a line split matches the source
// format exactly.
func ParseCSV(text string, sanitize Sanitizer) ([]Row, error) {
	if sanitize == nil {
		sanitize = func(s string) string { return s }
	}
	lines := splitLines(text)
	if len(lines) < 2 {
		return nil, errors.New("csv: missing header or rows")
	}
	headers := strings.Split(lines[0], ",")
	rows := make([]Row, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		values := strings.Split(line, ",")
		row := make(Row, len(headers))
		for i := 0; i < len(headers) && i < len(values); i++ {
			row[sanitize(headers[i])] = sanitize(values[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func splitLines(text string) []string {
	return strings.FieldsFunc(strings.ReplaceAll(text, "\r\n", "\n"), func(r rune) bool {
		return r == '\n' || r == '\r'
	})
}
