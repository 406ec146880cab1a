package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	apperrors "github.com/DavidAnato/AgriConnect/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeResponse creates an *http.Response with the given status code and body string.
func makeResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func asAppError(t *testing.T, err error) *apperrors.AppError {
	t.Helper()
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	return appErr
}

func TestParseResponseError_Detail(t *testing.T) {
	resp := makeResponse(http.StatusNotFound, `{"detail":"No Product matches the given query."}`)
	appErr := asAppError(t, ParseResponseError(resp, "agriconnect"))

	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
	assert.Equal(t, "No Product matches the given query.", appErr.Message)
	assert.True(t, errors.Is(appErr, apperrors.ErrNotFound))
}

func TestParseResponseError_ErrorString(t *testing.T) {
	resp := makeResponse(http.StatusBadRequest, `{"error":"Invalid OTP code"}`)
	appErr := asAppError(t, ParseResponseError(resp, "agriconnect"))

	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "Invalid OTP code", appErr.Message)
	assert.True(t, errors.Is(appErr, apperrors.ErrInvalidInput))
}

func TestParseResponseError_ErrorEnvelope(t *testing.T) {
	resp := makeResponse(http.StatusConflict, `{"error":{"code":"OUT_OF_STOCK","message":"not enough quantity"}}`)
	appErr := asAppError(t, ParseResponseError(resp, "agriconnect"))

	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Equal(t, "OUT_OF_STOCK", appErr.Code)
	assert.Equal(t, "not enough quantity", appErr.Message)
	assert.True(t, errors.Is(appErr, apperrors.ErrConflict))
}

func TestParseResponseError_FieldErrors(t *testing.T) {
	resp := makeResponse(http.StatusBadRequest,
		`{"email":["user with this email already exists."],"password":["Too short.","Too common."]}`)
	appErr := asAppError(t, ParseResponseError(resp, "agriconnect"))

	assert.Equal(t, "INVALID_INPUT", appErr.Code)
	assert.Equal(t, "user with this email already exists.", appErr.Fields["email"])
	assert.Equal(t, "Too short. Too common.", appErr.Fields["password"])
	assert.Equal(t, "email: user with this email already exists.", appErr.Message)
}

func TestParseResponseError_NonFieldErrors(t *testing.T) {
	resp := makeResponse(http.StatusBadRequest, `{"non_field_errors":["Unable to log in with provided credentials."]}`)
	appErr := asAppError(t, ParseResponseError(resp, "agriconnect"))

	assert.Equal(t, "Unable to log in with provided credentials.", appErr.Message)
	assert.Empty(t, appErr.Fields)
}

func TestParseResponseError_DetailWithCode(t *testing.T) {
	resp := makeResponse(http.StatusUnauthorized,
		`{"detail":"Given token not valid for any token type","code":"token_not_valid"}`)
	appErr := asAppError(t, ParseResponseError(resp, "agriconnect"))

	assert.Equal(t, "token_not_valid", appErr.Code)
	assert.True(t, apperrors.IsAuth(appErr))
}

func TestParseResponseError_Forbidden(t *testing.T) {
	resp := makeResponse(http.StatusForbidden, `{"detail":"You do not have permission to perform this action."}`)
	appErr := asAppError(t, ParseResponseError(resp, "agriconnect"))

	assert.Equal(t, http.StatusForbidden, appErr.Status)
	assert.True(t, errors.Is(appErr, apperrors.ErrForbidden))
}

func TestParseResponseError_ServiceUnavailable(t *testing.T) {
	resp := makeResponse(http.StatusServiceUnavailable, `{"detail":"maintenance"}`)
	appErr := asAppError(t, ParseResponseError(resp, "agriconnect"))

	assert.Equal(t, http.StatusServiceUnavailable, appErr.Status)
	assert.Equal(t, "SERVICE_UNAVAILABLE", appErr.Code)
	assert.True(t, errors.Is(appErr, apperrors.ErrServiceUnavail))
}

func TestParseResponseError_ServerErrorBecomesBadGateway(t *testing.T) {
	resp := makeResponse(http.StatusInternalServerError, "<html><body><h1>Server Error (500)</h1></body></html>")
	appErr := asAppError(t, ParseResponseError(resp, "agriconnect"))

	assert.Equal(t, http.StatusBadGateway, appErr.Status)
	assert.Equal(t, "BACKEND_ERROR", appErr.Code)
	assert.Equal(t, "Internal Server Error", appErr.Message)
	assert.True(t, errors.Is(appErr, apperrors.ErrInternal))
}

func TestParseResponseError_EmptyBody(t *testing.T) {
	resp := makeResponse(http.StatusBadRequest, "")
	appErr := asAppError(t, ParseResponseError(resp, "agriconnect"))

	assert.Equal(t, "Bad Request", appErr.Message)
	assert.True(t, errors.Is(appErr, apperrors.ErrInvalidInput))
}

func TestParseResponseError_ListBody(t *testing.T) {
	resp := makeResponse(http.StatusBadRequest, `["Cart is empty."]`)
	appErr := asAppError(t, ParseResponseError(resp, "agriconnect"))

	assert.Equal(t, "Cart is empty.", appErr.Message)
}

func TestParseResponseError_NullError(t *testing.T) {
	resp := makeResponse(http.StatusBadRequest, `{"error":null}`)
	appErr := asAppError(t, ParseResponseError(resp, "agriconnect"))

	assert.Equal(t, "Bad Request", appErr.Message)
}

func TestParseResponseError_DefaultStatusCode(t *testing.T) {
	resp := makeResponse(http.StatusTooManyRequests, `{"detail":"Request was throttled."}`)
	appErr := asAppError(t, ParseResponseError(resp, "agriconnect"))

	assert.Equal(t, http.StatusTooManyRequests, appErr.Status)
	assert.Equal(t, "BACKEND_REJECTED", appErr.Code)
	assert.Equal(t, "Request was throttled.", appErr.Message)
}

// --- IsClientError tests ---

func TestMapStatus_ClassifiesByStatus(t *testing.T) {
	tests := []struct {
		status     int
		wantCode   string
		wantStatus int
		wantErr    error
	}{
		{http.StatusBadRequest, "INVALID_INPUT", http.StatusBadRequest, apperrors.ErrInvalidInput},
		{http.StatusUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized, apperrors.ErrUnauthorized},
		{http.StatusForbidden, "FORBIDDEN", http.StatusForbidden, apperrors.ErrForbidden},
		{http.StatusNotFound, "NOT_FOUND", http.StatusNotFound, apperrors.ErrNotFound},
		{http.StatusConflict, "CONFLICT", http.StatusConflict, apperrors.ErrConflict},
		{http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, apperrors.ErrServiceUnavail},
		{http.StatusInternalServerError, "BACKEND_ERROR", http.StatusBadGateway, apperrors.ErrInternal},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			appErr := asAppError(t, mapStatus(tt.status, "", "backend said no", nil))
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Equal(t, tt.wantStatus, appErr.Status)
			assert.Equal(t, "backend said no", appErr.Message)
			assert.True(t, errors.Is(appErr, tt.wantErr))

			coded := asAppError(t, mapStatus(tt.status, "token_not_valid", "x", map[string]string{"email": "taken"}))
			assert.Equal(t, "token_not_valid", coded.Code)
			assert.Equal(t, map[string]string{"email": "taken"}, coded.Fields)
		})
	}
}

func TestIsClientError(t *testing.T) {
	for _, status := range []int{400, 401, 403, 404, 409, 429, 499} {
		assert.True(t, IsClientError(status), "status %d should be a client error", status)
	}
	for _, status := range []int{200, 204, 302, 399, 500, 502, 503} {
		assert.False(t, IsClientError(status), "status %d should NOT be a client error", status)
	}
}
