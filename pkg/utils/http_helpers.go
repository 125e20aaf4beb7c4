package utils

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	apperrors "nusantara-erp/pkg/errors"
	"nusantara-erp/pkg/types"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// HTTPResponse is the {success, data|error} envelope of every JSON reply.
type HTTPResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

func ParseFilterFromQuery(values url.Values) types.Filter {
	filterReq := types.Filter{
		Sort:   make(map[string]string),
		Filter: make(map[string]interface{}),
		Limit:  DefaultLimit,
		Page:   1,
	}

	if limitStr := values.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			if l > MaxLimit {
				filterReq.Limit = MaxLimit
			} else {
				filterReq.Limit = l
			}
		}
	}

	if pageStr := values.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			filterReq.Page = p
		}
	}

	if offsetStr := values.Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			filterReq.Offset = o
			filterReq.Page = o/filterReq.Limit + 1
		}
	} else {
		filterReq.Offset = (filterReq.Page - 1) * filterReq.Limit
	}

	filterReq.WithPagination = values.Get("withPagination") != "false"

	for key, vals := range values {
		if len(vals) == 0 || vals[0] == "" {
			continue
		}

		switch {
		case key == "search" || key == "q":
			filterReq.Search = vals[0]
		case key == "sortBy":
			direction := strings.ToLower(values.Get("order"))
			if direction != "asc" {
				direction = "desc"
			}
			filterReq.Sort[vals[0]] = direction
		case strings.HasPrefix(key, "sort[") && strings.HasSuffix(key, "]"):
			field := key[5 : len(key)-1]
			direction := strings.ToLower(vals[0])
			if direction == "asc" || direction == "desc" {
				filterReq.Sort[field] = direction
			}
		case strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]"):
			field := key[7 : len(key)-1]
			if existing, ok := filterReq.Filter[field]; ok {
				filterReq.Filter[field] = fmt.Sprintf("%v,%s", existing, vals[0])
			} else {
				filterReq.Filter[field] = vals[0]
			}
		}
	}

	return filterReq
}

// NewPagination computes the pagination block for a list response.
func NewPagination(total uint64, page, limit int) types.Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + uint64(limit) - 1) / uint64(limit))
	}
	return types.Pagination{TotalCount: total, Page: page, Limit: limit, TotalPages: totalPages}
}

// SuccessResponse wraps body into {list, pagination} when a total is supplied.
func SuccessResponse(ctx echo.Context, body interface{}, message string, code int, total ...uint64) error {
	response := &HTTPResponse{Success: true, Message: message}
	if len(total) > 0 {
		filter := ParseFilterFromQuery(ctx.Request().URL.Query())
		response.Data = map[string]interface{}{
			"list":       body,
			"pagination": NewPagination(total[0], filter.Page, filter.Limit),
		}
	} else {
		response.Data = body
	}
	return ctx.JSON(code, response)
}

func failure(c echo.Context, code int, message string, details interface{}) error {
	return c.JSON(code, &HTTPResponse{Error: message, Details: details})
}

func ErrorResponse(c echo.Context, err error, logger *zap.Logger) error {
	var httpErr *apperrors.HttpError
	if errors.As(err, &httpErr) {
		if httpErr.Err != nil {
			logger.Error("HTTP Error",
				zap.Int("code", httpErr.Code),
				zap.String("message", httpErr.Message),
				zap.Error(httpErr.Err),
				zap.Any("context", httpErr.Context),
			)
		}

		return failure(c, httpErr.Code, httpErr.Message, httpErr.Details)
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]map[string]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			details = append(details, map[string]string{
				"field":   e.Field(),
				"message": fmt.Sprintf("field '%s' failed on the '%s' rule", e.Field(), e.Tag()),
			})
		}
		return failure(c, http.StatusBadRequest, "validation error", details)
	}

	var inputErr *apperrors.InvalidInputError
	if errors.As(err, &inputErr) {
		return failure(c, http.StatusBadRequest, inputErr.Message, nil)
	}

	if code, ok := apperrors.StatusCode(err); ok {
		if code >= http.StatusInternalServerError {
			logger.Error("Request failed", zap.Error(err))
		}
		return failure(c, code, err.Error(), nil)
	}

	logger.Error("Unexpected Error", zap.Error(err))
	return failure(c, http.StatusInternalServerError, "internal server error", nil)
}

// ClientIP prefers proxy headers over the socket address.
func ClientIP(c echo.Context) string {
	if fwd := c.Request().Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if real := c.Request().Header.Get("X-Real-IP"); real != "" {
		return real
	}
	return c.RealIP()
}

func QueryInt(c echo.Context, name string, fallback int) int {
	if v, err := strconv.Atoi(c.QueryParam(name)); err == nil {
		return v
	}
	return fallback
}
