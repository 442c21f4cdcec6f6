package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
)

var (
	ErrUnavailable        = errors.New("server unavailable")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrUnexpectedResponse = errors.New("unexpected response")
)

// Error is a rejection reported by the service in a response body.
type Error struct {
	StatusCode int
	Message    string
	// Fields holds the first message per field when the body had any.
	Fields map[string]string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// parseError builds an *Error out of a non-2xx body. The message is the
// first non_field_errors entry, then detail, then the first field message
// in key order, then the status text.
func parseError(status int, body []byte) *Error {
	e := &Error{StatusCode: status, Message: http.StatusText(status)}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return e
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		if k == "non_field_errors" || k == "detail" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if msg, ok := firstMessage(raw[k]); ok {
			if e.Fields == nil {
				e.Fields = make(map[string]string)
			}
			e.Fields[k] = msg
		}
	}

	if msg, ok := firstMessage(raw["non_field_errors"]); ok {
		e.Message = msg
		return e
	}
	if msg, ok := firstMessage(raw["detail"]); ok {
		e.Message = msg
		return e
	}
	for _, k := range keys {
		if msg, ok := e.Fields[k]; ok {
			e.Message = msg
			return e
		}
	}
	return e
}

// firstMessage accepts either "text" or ["text", ...].
func firstMessage(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, s != ""
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 && list[0] != "" {
		return list[0], true
	}
	return "", false
}
