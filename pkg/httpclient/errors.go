package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	apperrors "github.com/DavidAnato/AgriConnect/pkg/errors"
)

// envelopeError is the {"error":{"code","message"}} body some endpoints use.
type envelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into an AppError. It understands the REST framework shapes the backend
// emits:
//
//	{"detail": "..."}
//	{"error": "..."} or {"error": {"code": "...", "message": "..."}}
//	{"message": "..."}
//	{"email": ["already taken"], "non_field_errors": ["..."]}
//
// The caller should only invoke this when resp.StatusCode indicates an error.
// The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB limit
	if err != nil {
		return mapStatus(resp.StatusCode, "", fmt.Sprintf("%s returned status %d (failed to read body: %v)", serviceName, resp.StatusCode, err), nil)
	}

	code, message, fields := parseErrorBody(bodyBytes)
	if message == "" {
		message = http.StatusText(resp.StatusCode)
		if message == "" {
			message = fmt.Sprintf("%s returned status %d", serviceName, resp.StatusCode)
		}
	}
	return mapStatus(resp.StatusCode, code, message, fields)
}

// parseErrorBody extracts an error code, a human-readable message and
// per-field messages from a JSON error body. Non-JSON bodies yield nothing.
func parseErrorBody(body []byte) (code, message string, fields map[string]string) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		var list []string
		if json.Unmarshal(body, &list) == nil && len(list) > 0 {
			return "", strings.Join(list, " "), nil
		}
		return "", "", nil
	}

	if v, ok := raw["error"]; ok {
		var env envelopeError
		if json.Unmarshal(v, &env) == nil && (env.Code != "" || env.Message != "") {
			code, message = env.Code, env.Message
		} else {
			message = asText(v)
		}
	}
	for _, key := range []string{"detail", "message", "non_field_errors"} {
		if message != "" {
			break
		}
		if v, ok := raw[key]; ok {
			message = asText(v)
		}
	}
	if v, ok := raw["code"]; ok && code == "" {
		code = asText(v)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		switch k {
		case "error", "detail", "message", "non_field_errors", "code":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		text := asText(raw[k])
		if text == "" {
			continue
		}
		if fields == nil {
			fields = make(map[string]string)
		}
		fields[k] = text
		if message == "" {
			message = k + ": " + text
		}
	}
	return code, message, fields
}

// asText renders a JSON string or list of strings as a single string.
func asText(v json.RawMessage) string {
	var s string
	if json.Unmarshal(v, &s) == nil {
		return s
	}
	var list []string
	if json.Unmarshal(v, &list) == nil {
		return strings.Join(list, " ")
	}
	return ""
}

// mapStatus translates a backend status code into an AppError that keeps the
// backend's semantics and message.
func mapStatus(status int, code, message string, fields map[string]string) error {
	var e *apperrors.AppError
	switch {
	case status == http.StatusBadRequest:
		e = apperrors.InvalidInput(message)
	case status == http.StatusUnauthorized:
		e = apperrors.Unauthorized(message)
	case status == http.StatusForbidden:
		e = apperrors.Forbidden(message)
	case status == http.StatusNotFound:
		e = apperrors.NotFound(message)
	case status == http.StatusConflict:
		e = apperrors.Conflict(message)
	case status == http.StatusServiceUnavailable:
		e = &apperrors.AppError{Code: "SERVICE_UNAVAILABLE", Message: message, Status: status, Err: apperrors.ErrServiceUnavail}
	case status >= 500:
		e = &apperrors.AppError{Code: "BACKEND_ERROR", Message: message, Status: http.StatusBadGateway, Err: apperrors.ErrInternal}
	default:
		e = &apperrors.AppError{Code: "BACKEND_REJECTED", Message: message, Status: status}
	}
	e.Code = orDefault(code, e.Code)
	e.Fields = fields
	return e
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
