// Package apiclient talks JSON to the accounting backend.
//
// Every call sends Content-Type: application/json and, when the bound token
// source yields a token, Authorization: Bearer <token>. Non-2xx statuses,
// transport failures and non-JSON bodies come back as typed errors. There is
// no retry, no client-side timeout and no caching; cancellation follows the
// caller's context.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"ledgerdash/internal/log"
)

const snippetLen = 100

// TokenSource returns the bearer token to attach, or "" for none.
type TokenSource func(ctx context.Context) string

type validator interface {
	Validate() error
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
	logger     *log.Logger
}

type Option func(*Client)

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l.WithComponent(log.ComponentAPIClient) }
}

// New returns a client for baseURL with no token bound.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     log.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTokenSource returns a copy of c that authenticates with ts.
func (c *Client) WithTokenSource(ts TokenSource) *Client {
	cp := *c
	cp.token = ts
	return &cp
}

func (c *Client) BaseURL() string { return c.baseURL }

// Request sends body (JSON encoded when non-nil) and decodes the response into out.
//
// A 204 response is accepted only when out is nil.
func (c *Client) Request(ctx context.Context, method, endpoint string, body, out any) error {
	url := c.baseURL + endpoint

	err := c.do(ctx, method, endpoint, url, body, out)
	if err != nil {
		c.logger.WarnContext(ctx, "API request failed",
			log.FieldMethod, method,
			log.FieldEndpoint, endpoint,
			log.FieldErrorType, Kind(err),
			log.FieldError, err.Error())
	}
	return err
}

func (c *Client) do(ctx context.Context, method, endpoint, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		if v, ok := body.(validator); ok {
			if err := v.Validate(); err != nil {
				return &ValidationError{Endpoint: endpoint, Err: err}
			}
		}
		buf, err := json.Marshal(body)
		if err != nil {
			return &ValidationError{Endpoint: endpoint, Err: fmt.Errorf("encode body: %w", err)}
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return &NetworkError{Method: method, URL: url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != nil {
		if tok := c.token(ctx); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Method: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &HTTPError{Method: method, URL: url, StatusCode: resp.StatusCode, Status: statusText(resp)}
	}

	if resp.StatusCode == http.StatusNoContent && out == nil {
		return nil
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		head, _ := io.ReadAll(io.LimitReader(resp.Body, snippetLen))
		return &FormatError{URL: url, ContentType: contentType, Snippet: string(head)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &FormatError{URL: url, ContentType: contentType, Err: err}
	}
	return nil
}

// statusText strips the numeric prefix net/http puts in resp.Status.
func statusText(resp *http.Response) string {
	if _, text, ok := strings.Cut(resp.Status, " "); ok && text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
