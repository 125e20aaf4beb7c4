package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"nusantara-erp/internal/dto"
	"nusantara-erp/pkg/audittrail"
	"nusantara-erp/pkg/service"
	"nusantara-erp/pkg/utils"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const auditStartKey = "audit.start"

// AuditRecorder is satisfied by services.AuditService.
type AuditRecorder interface {
	Log(ctx context.Context, entry dto.AuditEntry)
}

type entityRoute struct {
	segment    string
	entityType string
}

// entityRoutes is checked in order; the first segment present in the path wins.
var entityRoutes = []entityRoute{
	{"additional-expenses", "additional_expense"},
	{"actual-costs", "actual_cost"},
	{"attachments", "subsidiary_attachment"},
	{"users", "user"},
	{"projects", "project"},
	{"subsidiaries", "subsidiary"},
	{"manpower", "manpower"},
	{"backup", "backup"},
	{"security", "session"},
	{"auth", "auth"},
}

// auditSkippedPaths are audited by the services themselves or not at all.
var auditSkippedPaths = map[string]struct{}{
	"/health":                 {},
	"/api/auth/login":         {},
	"/api/auth/logout":        {},
	"/api/auth/refresh-token": {},
}

var entityIDParams = []string{"id", "expenseId", "userId", "projectId", "sessionId"}

func skipAudit(c echo.Context) bool {
	path := c.Request().URL.Path
	if _, ok := auditSkippedPaths[path]; ok {
		return true
	}
	if strings.HasPrefix(path, "/api/monitoring") || strings.HasPrefix(path, "/api/audit") {
		return true
	}
	switch c.Request().Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return false
	}
	return true
}

func actionFromMethod(method string) audittrail.Action {
	switch method {
	case http.MethodPost:
		return audittrail.ActionCreate
	case http.MethodPut, http.MethodPatch:
		return audittrail.ActionUpdate
	case http.MethodDelete:
		return audittrail.ActionDelete
	default:
		return audittrail.ActionView
	}
}

func entityTypeFromPath(path string) string {
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	for _, route := range entityRoutes {
		for _, p := range parts {
			if p == route.segment {
				return route.entityType
			}
		}
	}
	if len(parts) > 1 {
		return parts[1]
	}
	return "unknown"
}

// envelope is the response shape written by utils.SuccessResponse and utils.ErrorResponse.
type envelope struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
	Error   string         `json:"error"`
}

func parseEnvelope(raw []byte) envelope {
	var env envelope
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &env)
	}
	return env
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			if s := fmt.Sprint(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func entityIDFrom(c echo.Context, response, request map[string]any) string {
	for _, name := range entityIDParams {
		if v := c.Param(name); v != "" {
			return v
		}
	}
	if id := stringField(response, "id"); id != "" {
		return id
	}
	return stringField(request, "id")
}

// AuditTrail records every mutating request once the handler has written its response.
// The user comes from the authenticated claims or, failing that, from a still-valid bearer token.
func AuditTrail(recorder AuditRecorder, jwtSvc service.JWTService, logger *zap.Logger) echo.MiddlewareFunc {
	dump := echomw.BodyDumpWithConfig(echomw.BodyDumpConfig{
		Skipper: skipAudit,
		Handler: func(c echo.Context, reqBody, resBody []byte) {
			entry := buildAuditEntry(c, jwtSvc, reqBody, resBody)
			logger.Debug("audit entry captured",
				zap.String("action", string(entry.Action)),
				zap.String("entityType", entry.EntityType),
				zap.String("entityID", entry.EntityID))
			recorder.Log(context.WithoutCancel(c.Request().Context()), entry)
		},
	})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		h := dump(next)
		return func(c echo.Context) error {
			c.Set(auditStartKey, time.Now())
			return h(c)
		}
	}
}

func buildAuditEntry(c echo.Context, jwtSvc service.JWTService, reqBody, resBody []byte) dto.AuditEntry {
	req := c.Request()
	res := parseEnvelope(resBody)
	var request map[string]any
	if len(reqBody) > 0 {
		_ = json.Unmarshal(reqBody, &request)
	}

	entry := dto.AuditEntry{
		Action:     actionFromMethod(req.Method),
		EntityType: entityTypeFromPath(req.URL.Path),
		EntityID:   entityIDFrom(c, res.Data, request),
		EntityName: stringField(res.Data, "name", "title", "username"),
		IPAddress:  utils.ClientIP(c),
		UserAgent:  req.UserAgent(),
		Method:     req.Method,
		Endpoint:   req.URL.Path,
		StatusCode: c.Response().Status,
	}
	if start, ok := c.Get(auditStartKey).(time.Time); ok {
		entry.Duration = int(time.Since(start).Milliseconds())
	}

	if claims, err := utils.GetClaimsFromContext(req.Context()); err == nil {
		id := claims.UserID
		entry.UserID, entry.Username = &id, claims.Username
	} else if token, err := bearerToken(c); err == nil {
		if claims, err := jwtSvc.ValidateToken(token); err == nil {
			id := claims.UserID
			entry.UserID, entry.Username = &id, claims.Username
		}
	}

	switch entry.Action {
	case audittrail.ActionCreate:
		entry.After = res.Data
	case audittrail.ActionUpdate:
		entry.Before = audittrail.GetBefore(c)
		entry.After = res.Data
		if entry.After == nil {
			entry.After = request
		}
	case audittrail.ActionDelete:
		entry.Before = audittrail.GetBefore(c)
	}

	if entry.StatusCode >= http.StatusBadRequest {
		entry.ErrorMessage = res.Error
	}
	return entry
}
