package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"nusantara-erp/internal/dto"
	"nusantara-erp/pkg/audittrail"
	apperrors "nusantara-erp/pkg/errors"
	"nusantara-erp/pkg/service"
	"nusantara-erp/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubSessions struct {
	revoked map[string]bool
}

func (s stubSessions) CheckSession(_ context.Context, id string) error {
	if s.revoked[id] {
		return apperrors.ErrSessionRevoked
	}
	return nil
}

type capturingRecorder struct {
	mu      sync.Mutex
	entries []dto.AuditEntry
}

func (r *capturingRecorder) Log(_ context.Context, e dto.AuditEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

type capturingRequests struct {
	endpoints []string
	statuses  []int
}

func (r *capturingRequests) RecordRequest(endpoint, _ string, status int, _ time.Duration) {
	r.endpoints = append(r.endpoints, endpoint)
	r.statuses = append(r.statuses, status)
}

var testJWT = service.NewJWTService("middleware-secret", time.Hour, 2*time.Hour)

func tokens(t *testing.T, role, sid string) (string, string) {
	t.Helper()
	access, refresh, err := testJWT.GenerateTokens(service.TokenSubject{UserID: 9, Username: "sari", Role: role, SessionID: sid})
	require.NoError(t, err)
	return access, refresh
}

func newProtectedEcho(sessions stubSessions, mws ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	auth := NewAuthMiddleware(testJWT, sessions, zap.NewNop())
	chain := append([]echo.MiddlewareFunc{auth.Auth}, mws...)
	e.GET("/api/private", func(c echo.Context) error {
		claims, err := utils.GetClaimsFromContext(c.Request().Context())
		if err != nil {
			return err
		}
		return c.String(http.StatusOK, claims.Username+"|"+claims.SessionID)
	}, chain...)
	return e
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	e := newProtectedEcho(stubSessions{revoked: map[string]bool{"dead": true}})
	access, refresh := tokens(t, dto.RoleStaff, "live")
	revokedAccess, _ := tokens(t, dto.RoleStaff, "dead")

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, apperrors.ErrEmptyAuthHeader.Error()},
		{"not bearer", "Basic abc", http.StatusUnauthorized, apperrors.ErrInvalidAuthHeader.Error()},
		{"garbage token", "Bearer nope", http.StatusUnauthorized, ""},
		{"refresh token", "Bearer " + refresh, http.StatusUnauthorized, apperrors.ErrTokenIsNotAccess.Error()},
		{"revoked session", "Bearer " + revokedAccess, http.StatusUnauthorized, apperrors.ErrSessionRevoked.Error()},
		{"valid", "Bearer " + access, http.StatusOK, "sari|live"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/private", nil)
			if tc.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tc.header)
			}
			rec := serve(e, req)
			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.body)
		})
	}
}

func TestRequireRoles(t *testing.T) {
	e := newProtectedEcho(stubSessions{}, RequireRoles(zap.NewNop(), dto.RoleAdmin, dto.RoleSuperAdmin))

	staff, _ := tokens(t, dto.RoleStaff, "s1")
	req := httptest.NewRequest(http.MethodGet, "/api/private", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+staff)
	assert.Equal(t, http.StatusForbidden, serve(e, req).Code)

	admin, _ := tokens(t, dto.RoleSuperAdmin, "s2")
	req = httptest.NewRequest(http.MethodGet, "/api/private", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+admin)
	assert.Equal(t, http.StatusOK, serve(e, req).Code)
}

func TestEntityTypeFromPath(t *testing.T) {
	assert.Equal(t, "additional_expense", entityTypeFromPath("/api/projects/P1/budget-validation/additional-expenses/3"))
	assert.Equal(t, "subsidiary", entityTypeFromPath("/api/subsidiaries/SUB001"))
	assert.Equal(t, "session", entityTypeFromPath("/api/security/session/abc"))
	assert.Equal(t, "widgets", entityTypeFromPath("/api/widgets/1"))
	assert.Equal(t, "unknown", entityTypeFromPath("/"))
}

func TestAuditTrailCapturesUpdate(t *testing.T) {
	recorder := &capturingRecorder{}
	e := echo.New()
	e.Use(AuditTrail(recorder, testJWT, zap.NewNop()))
	e.PUT("/api/subsidiaries/:id", func(c echo.Context) error {
		audittrail.SetBefore(c, map[string]any{"name": "PT Lama"})
		return utils.SuccessResponse(c, map[string]any{"id": c.Param("id"), "name": "PT Baru"}, "updated", http.StatusOK)
	})
	e.GET("/api/subsidiaries/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	access, _ := tokens(t, dto.RoleAdmin, "s1")
	req := httptest.NewRequest(http.MethodPut, "/api/subsidiaries/SUB001", strings.NewReader(`{"name":"PT Baru"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+access)
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	require.Equal(t, http.StatusOK, serve(e, req).Code)

	serve(e, httptest.NewRequest(http.MethodGet, "/api/subsidiaries/SUB001", nil))

	require.Len(t, recorder.entries, 1)
	entry := recorder.entries[0]
	assert.Equal(t, audittrail.ActionUpdate, entry.Action)
	assert.Equal(t, "subsidiary", entry.EntityType)
	assert.Equal(t, "SUB001", entry.EntityID)
	assert.Equal(t, "PT Baru", entry.EntityName)
	assert.Equal(t, "203.0.113.5", entry.IPAddress)
	assert.Equal(t, "sari", entry.Username)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, uint64(9), *entry.UserID)
	assert.Equal(t, "PT Lama", entry.Before["name"])
	assert.Equal(t, "PT Baru", entry.After["name"])
	assert.Equal(t, http.StatusOK, entry.StatusCode)
}

func TestAuditTrailRecordsErrorMessage(t *testing.T) {
	recorder := &capturingRecorder{}
	e := echo.New()
	e.Use(AuditTrail(recorder, testJWT, zap.NewNop()))
	e.DELETE("/api/manpower/:id", func(c echo.Context) error {
		return utils.ErrorResponse(c, apperrors.NewNotFoundError("employee not found"), zap.NewNop())
	})
	e.POST("/api/auth/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	serve(e, httptest.NewRequest(http.MethodDelete, "/api/manpower/EMP-001", nil))
	serve(e, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))

	require.Len(t, recorder.entries, 1)
	entry := recorder.entries[0]
	assert.Equal(t, audittrail.ActionDelete, entry.Action)
	assert.Equal(t, "manpower", entry.EntityType)
	assert.Equal(t, http.StatusNotFound, entry.StatusCode)
	assert.Equal(t, "employee not found", entry.ErrorMessage)
	assert.Nil(t, entry.UserID)
}

func TestMonitoringRecordsRoutePath(t *testing.T) {
	requests := &capturingRequests{}
	e := echo.New()
	e.Use(Monitoring(requests))
	e.GET("/api/subsidiaries/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot)
	})
	e.GET("/api/monitoring/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/api/subsidiaries/SUB001", nil))
	serve(e, httptest.NewRequest(http.MethodGet, "/api/monitoring/health", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, []string{"/api/subsidiaries/:id"}, requests.endpoints)
	assert.Equal(t, []int{http.StatusTeapot}, requests.statuses)
}
