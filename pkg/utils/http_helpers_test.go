package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "nusantara-erp/pkg/errors"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func respond(t *testing.T, target string, h func(c echo.Context) error) (int, map[string]any) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), rec)
	require.NoError(t, h(c))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestSuccessResponseEnvelope(t *testing.T) {
	code, body := respond(t, "/", func(c echo.Context) error {
		return SuccessResponse(c, map[string]any{"code": "KMJ"}, "Successfully", http.StatusCreated)
	})

	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]any{"code": "KMJ"}, body["data"])
	assert.NotContains(t, body, "error")
}

func TestSuccessResponseList(t *testing.T) {
	_, body := respond(t, "/?limit=10&page=2", func(c echo.Context) error {
		return SuccessResponse(c, []string{"a", "b"}, "Successfully", http.StatusOK, 25)
	})

	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "data should be an object, got %T", body["data"])
	assert.Equal(t, []any{"a", "b"}, data["list"])
	assert.Equal(t, map[string]any{"total_count": float64(25), "page": float64(2), "limit": float64(10), "total_pages": float64(3)}, data["pagination"])
}

func TestErrorResponseEnvelope(t *testing.T) {
	withDetails := apperrors.NewBadRequestError("budget exceeded")
	withDetails.Details = map[string]any{"remaining": float64(10)}

	cases := []struct {
		name    string
		err     error
		code    int
		message string
		details any
	}{
		{name: "http error", err: apperrors.NewNotFoundError("employee not found"), code: http.StatusNotFound, message: "employee not found"},
		{name: "http error with details", err: withDetails, code: http.StatusBadRequest, message: "budget exceeded", details: map[string]any{"remaining": float64(10)}},
		{name: "invalid input", err: apperrors.NewInvalidInputError("limit must be positive"), code: http.StatusBadRequest, message: "limit must be positive"},
		{name: "sentinel", err: apperrors.ErrNotFound, code: http.StatusNotFound, message: apperrors.ErrNotFound.Error()},
		{name: "unknown", err: errors.New("boom"), code: http.StatusInternalServerError, message: "internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := respond(t, "/", func(c echo.Context) error {
				return ErrorResponse(c, tc.err, zap.NewNop())
			})

			assert.Equal(t, tc.code, code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.message, body["error"])
			assert.NotContains(t, body, "data")
			if tc.details != nil {
				assert.Equal(t, tc.details, body["details"])
			} else {
				assert.NotContains(t, body, "details")
			}
		})
	}
}
