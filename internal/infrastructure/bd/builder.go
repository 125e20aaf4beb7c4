package db

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"nusantara-erp/pkg/types"
)

// ApplyFilters adds an equality condition for every filter key present in allowedMap.
// Comma separated values become an IN list.
func ApplyFilters(builder sq.SelectBuilder, filter types.Filter, allowedMap map[string]string) sq.SelectBuilder {
	for jsonField, val := range filter.Filter {
		dbCol, ok := allowedMap[jsonField]
		if !ok {
			continue
		}

		if s, ok := val.(string); ok && strings.Contains(s, ",") {
			builder = builder.Where(sq.Eq{dbCol: strings.Split(s, ",")})
		} else {
			builder = builder.Where(sq.Eq{dbCol: val})
		}
	}
	return builder
}

// ApplySearch ORs an ILIKE over columns.
func ApplySearch(builder sq.SelectBuilder, search string, columns ...string) sq.SelectBuilder {
	if search == "" || len(columns) == 0 {
		return builder
	}
	pattern := "%" + search + "%"
	conditions := make(sq.Or, 0, len(columns))
	for _, col := range columns {
		conditions = append(conditions, sq.ILike{col: pattern})
	}
	return builder.Where(conditions)
}

// ApplySortAndPage orders by whitelisted columns, falling back to defaultOrder, then pages.
func ApplySortAndPage(builder sq.SelectBuilder, filter types.Filter, sortMap map[string]string, defaultOrder string) sq.SelectBuilder {
	ordered := false
	for jsonField, dir := range filter.Sort {
		dbCol, ok := sortMap[jsonField]
		if !ok {
			continue
		}
		sqlDir := "ASC"
		if strings.ToLower(dir) == "desc" {
			sqlDir = "DESC"
		}
		builder = builder.OrderBy(fmt.Sprintf("%s %s", dbCol, sqlDir))
		ordered = true
	}
	if !ordered && defaultOrder != "" {
		builder = builder.OrderBy(defaultOrder)
	}

	if filter.WithPagination {
		if filter.Limit > 0 {
			builder = builder.Limit(uint64(filter.Limit))
		}
		if filter.Offset >= 0 {
			builder = builder.Offset(uint64(filter.Offset))
		}
	}

	return builder
}

func ApplyListParams(builder sq.SelectBuilder, filter types.Filter, allowedMap map[string]string) sq.SelectBuilder {
	builder = ApplyFilters(builder, filter, allowedMap)
	return ApplySortAndPage(builder, filter, allowedMap, "")
}
