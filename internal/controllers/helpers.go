package controllers

import (
	"net/http"
	"strconv"
	"time"

	"nusantara-erp/internal/dto"
	apperrors "nusantara-erp/pkg/errors"
	"nusantara-erp/pkg/export"
	"nusantara-erp/pkg/types"
	"nusantara-erp/pkg/utils"

	"github.com/labstack/echo/v4"
)

func clientInfo(ctx echo.Context) dto.ClientInfo {
	return dto.ClientInfo{IPAddress: utils.ClientIP(ctx), UserAgent: ctx.Request().UserAgent()}
}

func actorFrom(ctx echo.Context, claims *dto.UserClaims) dto.Actor {
	return dto.ActorFromClaims(claims, clientInfo(ctx))
}

// bindAndValidate decodes the request into payload and runs the struct validator.
func bindAndValidate(ctx echo.Context, payload interface{}) error {
	if err := ctx.Bind(payload); err != nil {
		return apperrors.NewBadRequestError("invalid request payload")
	}
	return ctx.Validate(payload)
}

// listFilter parses the common list query and lifts plain keys such as ?status=active into Filter.
func listFilter(ctx echo.Context, plainKeys ...string) types.Filter {
	filter := utils.ParseFilterFromQuery(ctx.QueryParams())
	for _, key := range plainKeys {
		if v := ctx.QueryParam(key); v != "" {
			filter.Filter[key] = v
		}
	}
	return filter
}

func uintParam(ctx echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NewBadRequestError("invalid " + name)
	}
	return id, nil
}

// queryDate accepts YYYY-MM-DD or RFC 3339.
func queryDate(ctx echo.Context, name string) (*time.Time, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, apperrors.NewBadRequestError("invalid " + name + ", expected YYYY-MM-DD")
}

func sendFile(ctx echo.Context, f *export.File) error {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+f.Name+`"`)
	return ctx.Blob(http.StatusOK, f.ContentType, f.Data)
}
