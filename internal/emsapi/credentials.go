package emsapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Credentials are the upstream session cookies, keyed by cookie name.
type Credentials map[string]string

type credentialsKey struct{}

func WithCredentials(ctx context.Context, creds Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey{}, creds)
}

func CredentialsFrom(ctx context.Context) Credentials {
	creds, _ := ctx.Value(credentialsKey{}).(Credentials)
	return creds
}

func (c Credentials) apply(req *http.Request) {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		req.AddCookie(&http.Cookie{Name: name, Value: c[name]})
	}
}

func (c Credentials) merge(cookies []*http.Cookie) Credentials {
	out := Credentials{}
	for name, value := range c {
		out[name] = value
	}
	for _, cookie := range cookies {
		if cookie.MaxAge < 0 || cookie.Value == "" {
			delete(out, cookie.Name)
			continue
		}
		out[cookie.Name] = cookie.Value
	}
	return out
}

// Login posts the upstream login form. The upstream answers a successful login
// with a redirect away from /login and a session cookie; a failed one
// re-renders the login page.
func (c *Client) Login(ctx context.Context, email, password string) (creds Credentials, err error) {
	start := time.Now()
	defer func() {
		c.observe("auth.login", outcomeOf(err), time.Since(start))
	}()

	form := url.Values{}
	form.Set("email", email)
	form.Set("password", password)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve("/login", nil), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.noFollow.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST /login: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode >= 500 {
		return nil, &HTTPError{Method: http.MethodPost, Path: "/login", Status: resp.StatusCode, Body: http.StatusText(resp.StatusCode)}
	}
	location := resp.Header.Get("Location")
	redirected := resp.StatusCode >= 300 && resp.StatusCode < 400 && location != "" && !strings.Contains(location, "/login")
	creds = Credentials{}.merge(resp.Cookies())
	if !redirected || len(creds) == 0 {
		return nil, ErrInvalidCredentials
	}
	return creds, nil
}

// Logout ends the upstream session. Failures are returned but callers
// typically drop the console session regardless.
func (c *Client) Logout(ctx context.Context) (err error) {
	start := time.Now()
	defer func() {
		c.observe("auth.logout", outcomeOf(err), time.Since(start))
	}()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve("/logout", nil), nil)
	if err != nil {
		return err
	}
	CredentialsFrom(ctx).apply(req)
	resp, err := c.noFollow.Do(req)
	if err != nil {
		return fmt.Errorf("GET /logout: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return &HTTPError{Method: http.MethodGet, Path: "/logout", Status: resp.StatusCode, Body: http.StatusText(resp.StatusCode)}
	}
	return nil
}

// Ping checks that the upstream answers at all. Any status below 500 counts.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() {
		c.observe("health.ping", outcomeOf(err), time.Since(start))
	}()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve("/login", nil), nil)
	if err != nil {
		return err
	}
	resp, err := c.noFollow.Do(req)
	if err != nil {
		return fmt.Errorf("ping upstream: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode >= 500 {
		return &HTTPError{Method: http.MethodGet, Path: "/login", Status: resp.StatusCode, Body: http.StatusText(resp.StatusCode)}
	}
	return nil
}
