package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "bundlepull/dev"
	maxBodyBytes     = 512 << 20
)

// Config describes the transport configuration.
type Config struct {
	BaseURL            string
	UserAgent          string
	Referer            string
	Headers            map[string]string
	Timeout            time.Duration
	InsecureSkipVerify bool
	HTTPClient         *http.Client
}

// Response is a fully-read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
	URL        string
}

// OK reports whether the response carried HTTP 200.
func (r Response) OK() bool { return r.StatusCode == http.StatusOK }

// NotFound reports whether the response carried HTTP 404.
func (r Response) NotFound() bool { return r.StatusCode == http.StatusNotFound }

// Getter is the minimal surface the resolvers depend on.
type Getter interface {
	Get(ctx context.Context, target string) (Response, error)
}

// Client fetches resources relative to a base URL.
type Client struct {
	baseURL   *url.URL
	userAgent string
	referer   string
	headers   map[string]string
	http      *http.Client
}

// New creates a Client from the supplied configuration.
func New(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, errors.New("transport: base url is required")
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("transport: parse base url: %w", err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("transport: base url %q must be absolute", base)
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		tr := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.InsecureSkipVerify {
			tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // operator opt-in
		}
		client = &http.Client{Timeout: timeout, Transport: tr}
	}
	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		if k = strings.TrimSpace(k); k != "" {
			headers[k] = v
		}
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		referer:   strings.TrimSpace(cfg.Referer),
		headers:   headers,
		http:      client,
	}, nil
}

// BaseURL returns the normalised base URL, always ending in '/'.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Resolve joins a relative resource path onto the base URL. Absolute URLs
// are returned unchanged.
func (c *Client) Resolve(target string) (string, error) {
	ref, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("transport: parse %q: %w", target, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	return c.baseURL.ResolveReference(ref).String(), nil
}

// Get issues a GET for target (relative to the base URL or absolute) and
// returns the status and body. Non-2xx statuses are not errors.
func (c *Client) Get(ctx context.Context, target string) (Response, error) {
	if c == nil {
		return Response{}, errors.New("transport: client is nil")
	}
	full, err := c.Resolve(target)
	if err != nil {
		return Response{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return Response{}, fmt.Errorf("transport: build request: %w", err)
	}
	c.applyHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return Response{URL: full}, fmt.Errorf("transport: get %s: %w", full, err)
	}
	defer resp.Body.Close()

	out := Response{StatusCode: resp.StatusCode, URL: full}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return out, nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return out, fmt.Errorf("transport: read %s: %w", full, err)
	}
	out.Body = body
	return out, nil
}

func (c *Client) applyHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "*/*")
	if c.referer != "" {
		req.Header.Set("Referer", c.referer)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
}
