package types

// Filter carries list query parameters, for example
// /api/subsidiaries?search=karya&sort[name]=asc&filter[specialization]=infrastructure&limit=20&page=2
type Filter struct {
	Search         string                 `json:"search,omitempty"`
	Sort           map[string]string      `json:"sort,omitempty"`
	Filter         map[string]interface{} `json:"filter,omitempty"`
	Limit          int                    `json:"limit"`
	Offset         int                    `json:"offset"`
	Page           int                    `json:"page"`
	WithPagination bool                   `json:"with_pagination"`
}

// FilterString returns Filter[key] when it is a non-empty string.
func (f Filter) FilterString(key string) (string, bool) {
	v, ok := f.Filter[key].(string)
	return v, ok && v != ""
}

type Pagination struct {
	TotalCount uint64 `json:"total_count"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"total_pages"`
}
