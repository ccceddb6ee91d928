package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotConfigured is returned when no base URL has been set.
var ErrNotConfigured = errors.New("API base URL is not configured; run `knowrithm config set-base-url <url>`")

// ErrNoCredentials is returned when a request requires authentication
// but neither a JWT session nor an API key pair is available.
var ErrNoCredentials = errors.New("authentication required but no credentials configured; use `knowrithm auth login` or `knowrithm auth set-api-key`")

// Error is a server-returned error payload.
type Error struct {
	StatusCode int
	Message    string
	Details    any
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("[HTTP %d] %s", e.StatusCode, e.Message)
	}
	return e.Message
}

// decodeError builds an Error from a non-2xx response body. The backend
// is not consistent about its envelope, so the common keys are tried in
// order and the raw body is the fallback.
func decodeError(status int, body []byte) *Error {
	e := &Error{StatusCode: status, Message: strings.TrimSpace(string(body))}
	var payload map[string]any
	if json.Unmarshal(body, &payload) == nil {
		for _, key := range []string{"error", "message", "detail"} {
			if s, ok := payload[key].(string); ok && s != "" {
				e.Message = s
				break
			}
		}
		if d, ok := payload["details"]; ok {
			e.Details = d
		}
	}
	if e.Message == "" {
		e.Message = "unknown error"
	}
	return e
}
