// Package emsapi is the typed client of the upstream EMS REST API.
//
// Every JSON call carries the JSON content type and the XMLHttpRequest marker
// the upstream uses to answer with JSON instead of redirects. A non-2xx
// status is returned as *HTTPError. A 2xx response that is not JSON is
// ErrUnexpectedFormat. A JSON envelope with success=false is *APIError.
package emsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"emsconsole/internal/requestctx"
)

const maxResponseBytes = 4 << 20

// Observer receives one observation per upstream call.
type Observer interface {
	ObserveUpstream(endpoint, outcome string, duration time.Duration)
}

type Options struct {
	Timeout   time.Duration
	Transport http.RoundTripper
	Observer  Observer
}

type Client struct {
	baseURL  *url.URL
	http     *http.Client
	noFollow *http.Client
	observer Observer
}

func New(baseURL string, opts Options) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("api base url must be absolute: %q", baseURL)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Client{
		baseURL: parsed,
		http:    &http.Client{Timeout: timeout, Transport: transport},
		noFollow: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		observer: opts.Observer,
	}, nil
}

// BaseURL is the upstream root, used by health probes and logs.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

type call struct {
	endpoint string
	method   string
	path     string
	query    url.Values
	body     any
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) newRequest(ctx context.Context, cl call) (*http.Request, error) {
	var body io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", cl.endpoint, err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, c.resolve(cl.path, cl.query), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if requestID := requestctx.GetRequestID(ctx); requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}
	CredentialsFrom(ctx).apply(req)
	return req, nil
}

// doJSON performs the call and decodes the JSON body into out.
func (c *Client) doJSON(ctx context.Context, cl call, out any) (err error) {
	start := time.Now()
	defer func() {
		c.observe(cl.endpoint, outcomeOf(err), time.Since(start))
	}()

	req, err := c.newRequest(ctx, cl)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		slog.Warn("upstream call failed", "endpoint", cl.endpoint, "err", err)
		return fmt.Errorf("%s %s: %w", cl.method, cl.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", cl.endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text := strings.TrimSpace(string(raw))
		if text == "" {
			text = http.StatusText(resp.StatusCode)
		}
		slog.Warn("upstream returned error status", "endpoint", cl.endpoint, "status", resp.StatusCode)
		return &HTTPError{Method: cl.method, Path: cl.path, Status: resp.StatusCode, Body: text}
	}
	if !isJSON(resp.Header.Get("Content-Type")) {
		return ErrUnexpectedFormat
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", cl.endpoint, err)
	}
	return nil
}

// do performs a call that answers with the {success, ...} envelope and turns
// success=false into *APIError.
func (c *Client) do(ctx context.Context, cl call) (*Envelope, error) {
	var env Envelope
	if err := c.doJSON(ctx, cl, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return &env, &APIError{Endpoint: cl.endpoint, Message: env.FailureText(), Code: env.Code, Kind: env.Type}
	}
	return &env, nil
}

func (c *Client) observe(endpoint, outcome string, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveUpstream(endpoint, outcome, d)
	}
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
