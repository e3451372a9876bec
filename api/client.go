// Package api is the HTTP gateway to the task-board server.
//
// Every failed call goes through a single failure path: the error is
// classified, the notifier is told exactly once, and an *Error is
// returned to the caller.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// DefaultBaseURL is used when no address is configured.
const DefaultBaseURL = "http://localhost:3001"

// Client calls the task-board REST API.
type Client struct {
	baseURL  string
	client   *http.Client
	notifier Notifier
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithNotifier sets the notifier told about every failure.
func WithNotifier(notifier Notifier) Option {
	return func(c *Client) {
		if notifier != nil {
			c.notifier = notifier
		}
	}
}

// WithLogger sets the logger used for failed requests.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the given address or URL.
func NewClient(addr string, opts ...Option) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(addr), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	c := &Client{
		baseURL:  baseURL,
		client:   &http.Client{},
		notifier: discardNotifier{},
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues a GET request and decodes the response into dest.
func (c *Client) Get(ctx context.Context, path string, query url.Values, dest any) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, dest)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any, dest any) error {
	return c.do(ctx, http.MethodPost, path, body, dest)
}

// Patch issues a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any, dest any) error {
	return c.do(ctx, http.MethodPatch, path, body, dest)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, dest any) error {
	return c.do(ctx, http.MethodDelete, path, nil, dest)
}

func (c *Client) do(ctx context.Context, method, path string, body any, dest any) error {
	if err := c.exchange(ctx, method, path, body, dest); err != nil {
		return c.fail(method, path, err)
	}
	return nil
}

// exchange performs one request. It returns an *Error for server and
// transport failures and a plain error for anything else.
func (c *Client) exchange(ctx context.Context, method, path string, body any, dest any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readErrorResponse(resp)
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return err
	}
	return nil
}

// fail is the only place failures are reported.
func (c *Client) fail(method, path string, err error) *Error {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		apiErr = unexpectedError(err)
	}
	apiErr.Method = method
	apiErr.Path = path

	c.logger.Warn("api request failed",
		"method", method,
		"path", path,
		"kind", apiErr.Kind.String(),
		"status", apiErr.Status,
		"error", apiErr.Message,
	)
	c.notifier.Notify(apiErr.Message)
	return apiErr
}

func readErrorResponse(resp *http.Response) *Error {
	var payload envelope
	data, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(data, &payload); err == nil && payload.Message != "" {
		return serverError(resp.StatusCode, payload.Message)
	}
	return statusError(resp.StatusCode)
}
