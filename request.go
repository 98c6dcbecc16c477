package restbase

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// encodeQuery renders filters and options into the backend's query-string
// convention. Filters come first, in insertion order, each as
// column=eq.value; then select, order, limit and offset when present.
// Absent options emit nothing, so empty inputs yield an empty string.
func encodeQuery(filters Filters, opts *Options) string {
	var parts []string

	for _, f := range filters {
		parts = append(parts, url.QueryEscape(f.Column)+"="+url.QueryEscape("eq."+coerceValue(f.Value)))
	}

	if opts != nil {
		if len(opts.Select) > 0 {
			parts = append(parts, "select="+url.QueryEscape(strings.Join(opts.Select, ",")))
		}
		if opts.Order != nil {
			column := opts.Order.Column
			if column == "" {
				column = "id"
			}
			direction := opts.Order.Direction
			if direction == "" {
				direction = Asc
			}
			parts = append(parts, "order="+url.QueryEscape(column+"."+string(direction)))
		}
		if opts.Limit > 0 {
			parts = append(parts, "limit="+strconv.Itoa(opts.Limit))
		}
		if opts.Offset > 0 {
			parts = append(parts, "offset="+strconv.Itoa(opts.Offset))
		}
	}

	return strings.Join(parts, "&")
}

// coerceValue renders a filter value the way the backend compares it:
// booleans and numbers in their literal form, everything else via fmt.
func coerceValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// endpointURL returns the REST resource URL for table with the encoded
// query string appended, or the bare resource URL when nothing is encoded.
func endpointURL(base, table string, filters Filters, opts *Options) string {
	u := base + "/rest/v1/" + table
	if q := encodeQuery(filters, opts); q != "" {
		u += "?" + q
	}
	return u
}
