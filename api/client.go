// Package api is the HTTP client for the Knowrithm platform. It injects
// the configured base URL and credentials, normalizes response decoding,
// and understands the asynchronous task envelope long-running endpoints
// return.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/Knowrithm/knowrithm-cli/config"
)

// Version is the client version reported in the User-Agent header,
// overwritten at startup with the build version.
var Version = "dev"

func userAgent() string {
	return "knowrithm-cli/" + Version
}

// AuthMode selects how a request is authenticated.
type AuthMode int

const (
	// AuthAuto prefers a usable JWT session, then the API key pair.
	AuthAuto AuthMode = iota
	AuthJWT
	AuthAPIKey
	AuthNone
)

// ParseAuthMode maps the --auth flag values to an AuthMode.
func ParseAuthMode(s string) (AuthMode, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return AuthAuto, nil
	case "jwt":
		return AuthJWT, nil
	case "api-key":
		return AuthAPIKey, nil
	case "none":
		return AuthNone, nil
	}
	return AuthAuto, fmt.Errorf("unknown auth mode %q (expected auto, jwt, api-key or none)", s)
}

// Client talks to the Knowrithm backend.
type Client struct {
	baseURL string
	http    *http.Client
	cfg     *config.Config
	log     hclog.Logger
}

// NewClient builds a client from the persisted configuration. Transport
// failures are retried a couple of times; HTTP error statuses are never
// retried here, only task polling loops.
func NewClient(cfg *config.Config, logger hclog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = logger
	rc.HTTPClient.Timeout = 30 * time.Second
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if err != nil {
			return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
		}
		return false, nil
	}
	if !cfg.VerifySSL {
		rc.HTTPClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    rc.StandardClient(),
		cfg:     cfg,
		log:     logger,
	}, nil
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.baseURL }

// RequestOptions carries the optional parts of a request.
type RequestOptions struct {
	Params  url.Values
	Body    any
	Headers http.Header
	Auth    AuthMode
}

// Do issues a request and decodes the JSON response.
func (c *Client) Do(ctx context.Context, method, path string, opts *RequestOptions) (any, error) {
	if opts == nil {
		opts = &RequestOptions{}
	}

	u := c.buildURL(path)
	if len(opts.Params) > 0 {
		u += "?" + opts.Params.Encode()
	}

	var body io.Reader
	if opts.Body != nil {
		data, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if opts.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range opts.Headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if err := c.authorize(req, opts.Auth); err != nil {
		return nil, err
	}
	return c.send(req)
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, opts *RequestOptions) (any, error) {
	return c.Do(ctx, http.MethodGet, path, opts)
}

// Post issues a POST request.
func (c *Client) Post(ctx context.Context, path string, opts *RequestOptions) (any, error) {
	return c.Do(ctx, http.MethodPost, path, opts)
}

// Put issues a PUT request.
func (c *Client) Put(ctx context.Context, path string, opts *RequestOptions) (any, error) {
	return c.Do(ctx, http.MethodPut, path, opts)
}

// Patch issues a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, opts *RequestOptions) (any, error) {
	return c.Do(ctx, http.MethodPatch, path, opts)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, opts *RequestOptions) (any, error) {
	return c.Do(ctx, http.MethodDelete, path, opts)
}

func (c *Client) buildURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func (c *Client) authorize(req *http.Request, mode AuthMode) error {
	switch mode {
	case AuthNone:
		return nil

	case AuthJWT:
		token := c.cfg.Auth.JWT.AccessToken
		if token == "" {
			return ErrNoCredentials
		}
		req.Header.Set("Authorization", "Bearer "+token)

	case AuthAPIKey:
		creds := c.cfg.Auth.APIKey
		if creds.Key == "" || creds.Secret == "" {
			return fmt.Errorf("API key authentication requested but no credentials are configured; set them via `knowrithm auth set-api-key`")
		}
		req.Header.Set("X-API-Key", creds.Key)
		req.Header.Set("X-API-Secret", creds.Secret)

	default: // AuthAuto
		token := c.cfg.Auth.JWT.AccessToken
		if token != "" && !TokenExpired(token) {
			req.Header.Set("Authorization", "Bearer "+token)
			return nil
		}
		creds := c.cfg.Auth.APIKey
		if creds.Key != "" && creds.Secret != "" {
			req.Header.Set("X-API-Key", creds.Key)
			req.Header.Set("X-API-Secret", creds.Secret)
			return nil
		}
		if token != "" {
			// Expired and nothing to fall back to. Send it anyway and
			// let the server make the call.
			c.log.Warn("access token looks expired; run `knowrithm auth refresh`")
			req.Header.Set("Authorization", "Bearer "+token)
			return nil
		}
		return ErrNoCredentials
	}
	return nil
}

func (c *Client) send(req *http.Request) (any, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent())

	c.log.Debug("api request", "method", req.Method, "url", req.URL.String())
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	c.log.Debug("api response", "status", resp.StatusCode, "bytes", len(data))

	if resp.StatusCode >= 400 {
		return nil, decodeError(resp.StatusCode, data)
	}
	if len(data) == 0 {
		// Deletes routinely answer 204; report something useful.
		if req.Method == http.MethodDelete {
			return map[string]any{"status": "success"}, nil
		}
		return nil, nil
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		return map[string]any{"raw": string(data)}, nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("malformed JSON response: %w", err)
	}
	return v, nil
}
