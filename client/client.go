package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "erpsync/1.0"
	maxErrorBody     = 512
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	client    *http.Client
	base      http.RoundTripper
	userAgent string
}

type Option func(*Client)

// WithTimeout bounds each request including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.base = rt }
}

func New(opts ...Option) *Client {
	httpClient := http.Client{
		Timeout: defaultTimeout,
	}
	c := &Client{
		client:    &httpClient,
		base:      http.DefaultTransport,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	httpClient.Transport = c
	return c
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	return c.base.RoundTrip(req)
}

// GetJSON issues a GET and decodes the body into response. Numbers are kept
// as json.Number so monetary values never pass through float64. Header keys
// are sent exactly as given.
func (c *Client) GetJSON(ctx context.Context, url string, header http.Header, response any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to perform request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(response); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}
