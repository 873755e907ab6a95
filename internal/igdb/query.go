package igdb

import (
	"fmt"
	"strconv"
	"strings"
)

// apicalypseQuery assembles the upstream query-language body. The clause
// order (search, fields, where, sort, limit) is what the API expects;
// Build emits clauses deterministically so identical queries serialize
// identically.
type apicalypseQuery struct {
	search string
	fields []string
	where  []string
	sort   string
	limit  int
}

func (q apicalypseQuery) Build() string {
	var b strings.Builder
	if q.search != "" {
		fmt.Fprintf(&b, "search %q; ", q.search)
	}
	if len(q.fields) > 0 {
		fmt.Fprintf(&b, "fields %s; ", strings.Join(q.fields, ","))
	}
	if len(q.where) > 0 {
		fmt.Fprintf(&b, "where %s; ", strings.Join(q.where, " & "))
	}
	if q.sort != "" {
		fmt.Fprintf(&b, "sort %s; ", q.sort)
	}
	if q.limit > 0 {
		fmt.Fprintf(&b, "limit %d;", q.limit)
	}
	return strings.TrimSpace(b.String())
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func joinInt64s(values []int64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return strings.Join(parts, ",")
}
