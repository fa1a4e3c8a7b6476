package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/hupe1980/loop/internal/casing"
)

// Sentinel errors for status classes. Use errors.Is against an *Error.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrServer       = errors.New("server error")
)

// Error is a non-2xx API response.
type Error struct {
	StatusCode int
	Status     string
	// Detail is the top-level "detail" message, when present.
	Detail string
	// Fields holds per-field validation messages (snake_case keys as sent
	// by the server are converted to camelCase).
	Fields map[string][]string
}

func (e *Error) Error() string {
	msg := e.Detail

	if msg == "" && len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], " ")))
		}

		msg = strings.Join(parts, "; ")
	}

	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}

	return fmt.Sprintf("api %d: %s", e.StatusCode, msg)
}

// Is maps the status code onto the package sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrBadRequest:
		return e.StatusCode == http.StatusBadRequest
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrServer:
		return e.StatusCode >= http.StatusInternalServerError
	default:
		return false
	}
}

// parseError builds an *Error from a response status and body. Bodies that
// are not JSON objects leave Detail and Fields empty.
func parseError(statusCode int, status string, body []byte) *Error {
	apiErr := &Error{StatusCode: statusCode, Status: status}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return apiErr
	}

	for key, value := range raw {
		if key == "detail" {
			if s, ok := value.(string); ok {
				apiErr.Detail = s
			}

			continue
		}

		msgs := messages(value)
		if len(msgs) == 0 {
			continue
		}

		if apiErr.Fields == nil {
			apiErr.Fields = make(map[string][]string)
		}

		apiErr.Fields[casing.CamelKey(key)] = msgs
	}

	return apiErr
}

func messages(v any) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}

		return out
	default:
		return nil
	}
}
