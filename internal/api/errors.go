package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinels for errors.Is. The concrete types below match them.
var (
	ErrValidation   = errors.New("validation failed")
	ErrAuthRequired = errors.New("authentication required")
	ErrHTTP         = errors.New("server returned an error")
	ErrNetwork      = errors.New("network failure")
	ErrDecode       = errors.New("unexpected response shape")
)

// ValidationError lists required fields that were empty or whitespace-only.
// It is raised locally, before any request is sent.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Require takes name/value pairs and returns a ValidationError naming every
// blank value, or nil.
func Require(pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, pairs[i])
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &ValidationError{Fields: missing}
}

// HTTPError is a non-2xx response. Message carries the server's own text.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server returned %d %s", e.Status, http.StatusText(e.Status))
}

func (e *HTTPError) Is(target error) bool { return target == ErrHTTP }

// IsUnauthorized reports a 401 or 403
func (e *HTTPError) IsUnauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// NetworkError is a transport failure: no response was received.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// DecodeError means the response did not have the expected shape.
type DecodeError struct {
	What string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.What, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// Message renders an error for the person at the keyboard.
func Message(err error) string {
	var (
		httpErr *HTTPError
		valErr  *ValidationError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &valErr):
		return "Please fill in: " + strings.Join(valErr.Fields, ", ")
	case errors.Is(err, ErrAuthRequired):
		return "Not logged in"
	case errors.As(err, &httpErr):
		if httpErr.Message != "" {
			return httpErr.Message
		}
		return fmt.Sprintf("Request failed (%d)", httpErr.Status)
	case errors.Is(err, ErrNetwork):
		return "Could not reach server"
	case errors.Is(err, ErrDecode):
		return "Unexpected response from server"
	default:
		return err.Error()
	}
}

const maxErrorText = 200

// extractError pulls the server's message out of an error body: the JSON
// "error" field, then "message", then short plain text.
func extractError(body []byte) string {
	var payload struct {
		Error   any    `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if s, ok := payload.Error.(string); ok && s != "" {
			return s
		}
		if payload.Message != "" {
			return payload.Message
		}
		return ""
	}

	text := strings.TrimSpace(string(body))
	if text == "" || strings.HasPrefix(text, "<") || len(text) > maxErrorText {
		return ""
	}
	return text
}
