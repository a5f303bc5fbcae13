package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/compozy/docchunk/engine/document"
	"github.com/compozy/docchunk/engine/infra/server/routes"
	"github.com/compozy/docchunk/engine/splitter"
	"github.com/compozy/docchunk/pkg/config"
	"github.com/compozy/docchunk/pkg/logger"
	"github.com/go-resty/resty/v2"
)

const (
	retryCount   = 2
	retryWait    = 100 * time.Millisecond
	retryMaxWait = 2 * time.Second
)

// Error is a problem document returned by the server.
type Error struct {
	Status int            `json:"status"`
	Title  string         `json:"title"`
	Detail string         `json:"detail,omitempty"`
	Code   string         `json:"code,omitempty"`
	Extras map[string]any `json:"-"`
}

func (e *Error) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Title
	}
	if e.Code != "" {
		return fmt.Sprintf("%s (%d %s)", msg, e.Status, e.Code)
	}
	return fmt.Sprintf("%s (%d)", msg, e.Status)
}

// Health is the server health report.
type Health struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database struct {
		Ready bool   `json:"ready"`
		Error string `json:"error,omitempty"`
	} `json:"database"`
}

// ListOptions filters a document listing. Zero values use server defaults.
type ListOptions struct {
	Page        int
	PerPage     int
	Status      string
	ContentType string
}

// Client talks to a running docchunk server.
type Client struct {
	http *resty.Client
}

// NewClient builds a client for cfg.CLI.ServerURL.
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	base, err := baseURL(cfg.CLI.ServerURL)
	if err != nil {
		return nil, err
	}
	client := resty.New().
		SetBaseURL(base).
		SetTimeout(cfg.CLI.Timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(retryCount).
		SetRetryWaitTime(retryWait).
		SetRetryMaxWaitTime(retryMaxWait).
		AddRetryCondition(retryCondition)
	if cfg.Runtime.LogLevel == "debug" {
		client.SetDebug(true)
	}
	return &Client{http: client}, nil
}

func baseURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("server URL scheme must be http or https, got: %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("server URL must have a host, got: %s", raw)
	}
	return strings.TrimSuffix(u.String(), "/"), nil
}

// retryCondition retries transient gateway and throttling responses only;
// uploads are not idempotent.
func retryCondition(r *resty.Response, err error) bool {
	if err != nil || r == nil {
		return false
	}
	switch r.StatusCode() {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Upload sends a file for processing. A nil cfg uses the server defaults.
func (c *Client) Upload(ctx context.Context, name string, data []byte, cfg *splitter.Config) (*document.Detail, error) {
	req := c.http.R().SetContext(ctx).SetFileReader("file", name, bytes.NewReader(data))
	if cfg != nil {
		raw, err := json.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to encode splitter config: %w", err)
		}
		req.SetFormData(map[string]string{"splitter_config": string(raw)})
	}
	var out document.Detail
	resp, err := req.SetResult(&out).Post(routes.Upload())
	if err := check(ctx, resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns a page of documents.
func (c *Client) List(ctx context.Context, opts ListOptions) (*document.ListResult, error) {
	params := map[string]string{}
	if opts.Page > 0 {
		params["page"] = strconv.Itoa(opts.Page)
	}
	if opts.PerPage > 0 {
		params["per_page"] = strconv.Itoa(opts.PerPage)
	}
	if opts.Status != "" {
		params["status"] = opts.Status
	}
	if opts.ContentType != "" {
		params["content_type"] = opts.ContentType
	}
	var out document.ListResult
	resp, err := c.http.R().SetContext(ctx).SetQueryParams(params).SetResult(&out).Get(routes.Documents())
	if err := check(ctx, resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get returns a document with its chunks.
func (c *Client) Get(ctx context.Context, id string) (*document.Detail, error) {
	var out document.Detail
	resp, err := c.http.R().SetContext(ctx).SetPathParam("id", id).SetResult(&out).
		Get(routes.Documents() + "/{id}")
	if err := check(ctx, resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a document.
func (c *Client) Delete(ctx context.Context, id string) error {
	resp, err := c.http.R().SetContext(ctx).SetPathParam("id", id).
		Delete(routes.Documents() + "/{id}")
	return check(ctx, resp, err)
}

// Stats returns aggregate counters.
func (c *Client) Stats(ctx context.Context) (*document.Stats, error) {
	var out document.Stats
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get(routes.Stats())
	if err := check(ctx, resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health returns the server health report. An unavailable server still
// yields a report.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).SetError(&out).Get(routes.HealthVersioned())
	if err != nil {
		return nil, transportError(err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusServiceUnavailable {
		return nil, decodeError(resp)
	}
	return &out, nil
}

func check(ctx context.Context, resp *resty.Response, err error) error {
	if err != nil {
		return transportError(err)
	}
	if resp.IsError() {
		apiErr := decodeError(resp)
		logger.FromContext(ctx).Debug("API request failed", "status", resp.StatusCode(), "error", apiErr)
		return apiErr
	}
	return nil
}

func transportError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("request failed: %w", err)
}

func decodeError(resp *resty.Response) *Error {
	apiErr := &Error{Status: resp.StatusCode(), Title: http.StatusText(resp.StatusCode())}
	body := resp.Body()
	if len(body) == 0 {
		return apiErr
	}
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		apiErr.Detail = strings.TrimSpace(string(body))
		return apiErr
	}
	_ = json.Unmarshal(body, apiErr)
	if apiErr.Status == 0 {
		apiErr.Status = resp.StatusCode()
	}
	for _, k := range []string{"type", "title", "status", "detail", "instance", "code"} {
		delete(fields, k)
	}
	if len(fields) > 0 {
		apiErr.Extras = fields
	}
	return apiErr
}
