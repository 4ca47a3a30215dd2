package emsapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnexpectedFormat is returned when a 2xx response is not JSON.
var ErrUnexpectedFormat = errors.New("unexpected response format")

// ErrInvalidCredentials is returned by Login when the upstream rejects the email or password.
var ErrInvalidCredentials = errors.New("invalid email or password")

type HTTPError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: upstream status %d: %s", e.Method, e.Path, e.Status, truncate(e.Body, 200))
}

// Message extracts the upstream error text when the body is a JSON envelope.
func (e *HTTPError) Message() string {
	var env Envelope
	if err := json.Unmarshal([]byte(e.Body), &env); err == nil {
		if text := env.FailureText(); text != "" {
			return text
		}
	}
	return ""
}

type APIError struct {
	Endpoint string
	Message  string
	Code     string
	Kind     string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return e.Endpoint + ": request was not successful"
	}
	return e.Endpoint + ": " + e.Message
}

// IsUnauthorized reports whether the upstream session is gone.
func IsUnauthorized(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status == http.StatusUnauthorized
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == "UNAUTHORIZED"
	}
	return false
}

// UserMessage picks the text shown to a user for err. Upstream-provided
// messages win; transport and format failures fall back to the generic text.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if text := httpErr.Message(); text != "" {
			return text
		}
	}
	return fallback
}

func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "..."
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	var httpErr *HTTPError
	var apiErr *APIError
	switch {
	case errors.As(err, &httpErr):
		return "http_error"
	case errors.As(err, &apiErr):
		return "rejected"
	case errors.Is(err, ErrUnexpectedFormat):
		return "format_error"
	case errors.Is(err, ErrInvalidCredentials):
		return "rejected"
	default:
		return "transport_error"
	}
}
