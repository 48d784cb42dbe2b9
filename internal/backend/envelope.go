package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// Pagination as reported by the backend.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit,omitempty"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Result is a successfully decoded backend response.
type Result[T any] struct {
	Data       T
	Pagination *Pagination
	Message    string
}

// Error is a backend response that did not succeed, either by HTTP status or
// by an explicit success=false.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// list payloads some endpoints nest inside data
var listKeys = []string{"items", "products", "categories", "docs", "results"}

// decode is the single normalization step for backend bodies. It accepts the
// standard envelope, a bare array or a bare object.
func decode[T any](status int, body []byte) (Result[T], error) {
	var res Result[T]
	body = bytes.TrimSpace(body)

	fields := map[string]json.RawMessage{}
	isObject := len(body) > 0 && body[0] == '{'
	if isObject {
		if err := json.Unmarshal(body, &fields); err != nil {
			return res, fmt.Errorf("decode backend response: %w", err)
		}
	}

	if status < 200 || status > 299 {
		return res, &Error{Status: status, Message: messageOf(fields, status)}
	}

	if len(body) == 0 {
		return res, nil
	}

	_, hasSuccess := fields["success"]
	_, hasData := fields["data"]
	if !isObject || (!hasSuccess && !hasData) {
		if err := json.Unmarshal(body, &res.Data); err != nil {
			return res, fmt.Errorf("decode backend response: %w", err)
		}
		return res, nil
	}

	if hasSuccess {
		var ok bool
		if err := json.Unmarshal(fields["success"], &ok); err == nil && !ok {
			return res, &Error{Status: http.StatusUnprocessableEntity, Message: messageOf(fields, status)}
		}
	}

	if raw, ok := fields["message"]; ok {
		_ = json.Unmarshal(raw, &res.Message)
	}
	if raw, ok := fields["pagination"]; ok {
		var p Pagination
		if err := json.Unmarshal(raw, &p); err == nil {
			res.Pagination = &p
		}
	}

	data := bytes.TrimSpace(fields["data"])
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return res, nil
	}

	err := json.Unmarshal(data, &res.Data)
	if err == nil {
		return res, nil
	}
	if data[0] != '{' {
		return res, fmt.Errorf("decode backend data: %w", err)
	}

	// data is an object wrapping the list, e.g. {"products": [...], "pagination": {...}}
	var nested map[string]json.RawMessage
	if jerr := json.Unmarshal(data, &nested); jerr != nil {
		return res, fmt.Errorf("decode backend data: %w", err)
	}
	for _, key := range listKeys {
		raw, ok := nested[key]
		if !ok {
			continue
		}
		if jerr := json.Unmarshal(raw, &res.Data); jerr != nil {
			return res, fmt.Errorf("decode backend %s: %w", key, jerr)
		}
		if raw, ok := nested["pagination"]; ok && res.Pagination == nil {
			var p Pagination
			if jerr := json.Unmarshal(raw, &p); jerr == nil {
				res.Pagination = &p
			}
		}
		return res, nil
	}
	return res, fmt.Errorf("decode backend data: %w", err)
}

func messageOf(fields map[string]json.RawMessage, status int) string {
	for _, key := range []string{"message", "error"} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var msg string
		if err := json.Unmarshal(raw, &msg); err == nil && msg != "" {
			return msg
		}
	}
	if text := http.StatusText(status); text != "" && (status < 200 || status > 299) {
		return text
	}
	return "request failed"
}
