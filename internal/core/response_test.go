package core

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airline/internal/types"
)

func TestJSON_WritesEnvelope(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/airline", nil)
	rr := httptest.NewRecorder()

	JSON(rr, req, http.StatusOK, APIResponse{Data: map[string]string{"name": "aeroline"}})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"name":"aeroline"}}`, rr.Body.String())
}

func TestError_AppErrorMapsStatus(t *testing.T) {
	cases := []struct {
		code   types.ErrorCode
		status int
	}{
		{types.ErrCodeValidationInvalidSchedule, http.StatusBadRequest},
		{types.ErrCodeAuthInvalidCreds, http.StatusUnauthorized},
		{types.ErrCodePermissionRole, http.StatusForbidden},
		{types.ErrCodeNotFoundFlight, http.StatusNotFound},
		{types.ErrCodeConflictFlightDeparted, http.StatusConflict},
		{types.ErrCodeUpstreamRateLimited, http.StatusTooManyRequests},
		{types.ErrCodeUpstreamUnavailable, http.StatusBadGateway},
		{types.ErrCodeInternalDB, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/v1/flights/fl_x", nil)
		rr := httptest.NewRecorder()

		Error(rr, req, types.NewAppError(tc.code, "boom", nil))

		assert.Equal(t, tc.status, rr.Code, "code %s", tc.code)
		assert.Contains(t, rr.Body.String(), string(tc.code))
	}
}

func TestError_GenericErrorHidesDetails(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/airline", nil)
	rr := httptest.NewRecorder()

	Error(rr, req, errors.New("pq: connection refused to 10.0.0.5"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), string(types.ErrCodeInternalUnexpected))
	assert.NotContains(t, rr.Body.String(), "10.0.0.5")
}

func TestError_IncludesRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/airline", nil)
	req = req.WithContext(types.WithRequestID(req.Context(), "req-123"))
	rr := httptest.NewRecorder()

	Error(rr, req, types.NewAppError(types.ErrCodeNotFoundAirline, "Cannot find airline with name: x", nil))

	assert.Contains(t, rr.Body.String(), "req-123")
}

func TestDecodeJSON_Valid(t *testing.T) {
	body := strings.NewReader(`{"origin":"Madrid"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/flights", body)
	rr := httptest.NewRecorder()

	var dst struct {
		Origin string `json:"origin"`
	}
	require.NoError(t, DecodeJSON(rr, req, &dst))
	assert.Equal(t, "Madrid", dst.Origin)
}

func TestDecodeJSON_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/flights", strings.NewReader(""))
	rr := httptest.NewRecorder()

	var dst struct{}
	err := DecodeJSON(rr, req, &dst)
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationInvalidJSON, appErr.Code)
	assert.Contains(t, appErr.Message, "must not be empty")
}

func TestDecodeJSON_UnknownField(t *testing.T) {
	body := strings.NewReader(`{"bogus":true}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/flights", body)
	rr := httptest.NewRecorder()

	var dst struct{}
	err := DecodeJSON(rr, req, &dst)
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationInvalidJSON, appErr.Code)
	assert.Contains(t, appErr.Message, "unknown field")
}

func TestDecodeJSON_TrailingValue(t *testing.T) {
	body := strings.NewReader(`{"origin":"Madrid"}{"origin":"Paris"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/flights", body)
	rr := httptest.NewRecorder()

	var dst struct {
		Origin string `json:"origin"`
	}
	err := DecodeJSON(rr, req, &dst)
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationInvalidJSON, appErr.Code)
}

func TestDecodeJSON_WrongType(t *testing.T) {
	body := strings.NewReader(`{"capacity":"lots"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/planes", body)
	rr := httptest.NewRecorder()

	var dst struct {
		Capacity int `json:"capacity"`
	}
	err := DecodeJSON(rr, req, &dst)
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationInvalidJSON, appErr.Code)
	assert.Equal(t, "capacity", appErr.Details["field"])
}

func TestDecodeJSON_OversizedBody(t *testing.T) {
	padding := bytes.Repeat([]byte("a"), maxRequestBodySize+1)
	body := bytes.NewReader(append([]byte(`{"origin":"`), append(padding, []byte(`"}`)...)...))
	req := httptest.NewRequest(http.MethodPost, "/v1/flights", body)
	rr := httptest.NewRecorder()

	var dst struct {
		Origin string `json:"origin"`
	}
	err := DecodeJSON(rr, req, &dst)
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationInvalidJSON, appErr.Code)
	assert.Contains(t, appErr.Message, "1MB")
}
