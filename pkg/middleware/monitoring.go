package middleware

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestRecorder is satisfied by services.MonitoringService.
type RequestRecorder interface {
	RecordRequest(endpoint, method string, statusCode int, duration time.Duration)
}

// Monitoring feeds response times into the API performance history.
// Requests to the monitoring API itself are not recorded.
func Monitoring(recorder RequestRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if strings.HasPrefix(c.Request().URL.Path, "/api/monitoring") {
				return next(c)
			}
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}
			endpoint := c.Path()
			if endpoint == "" {
				endpoint = c.Request().URL.Path
			}
			recorder.RecordRequest(endpoint, c.Request().Method, c.Response().Status, time.Since(start))
			return nil
		}
	}
}
