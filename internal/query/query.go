// Package query parses list query parameters (select, sort, page, limit
// and field filters) and renders them as parameterized SQL fragments.
package query

import (
	"cmp"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/atinyakov/NoteKeeper/internal/apperr"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	// DefaultLimit is the page size when none is requested.
	DefaultLimit = 25
	// MaxLimit caps the requested page size.
	MaxLimit = 100
)

// Type is the value type of a filterable field.
type Type int

const (
	String Type = iota
	Int
	Time
	UUID
)

// Field maps a JSON field name onto a column.
type Field struct {
	Column string
	Type   Type
}

// Schema lists the fields a resource exposes to list queries.
type Schema struct {
	// Fields is keyed by JSON field name.
	Fields map[string]Field
	// DefaultSort is used when no sort parameter is given, e.g. "-createdAt".
	DefaultSort string
}

// Order is one ORDER BY term.
type Order struct {
	Column string
	Desc   bool
}

// Filter is one WHERE term.
type Filter struct {
	Column string
	Op     string
	Value  any
}

// Query is a parsed list request.
type Query struct {
	Select  []string
	Sort    []Order
	Filters []Filter
	Page    int
	Limit   int
}

var operators = map[string]string{
	"":    "=",
	"eq":  "=",
	"gt":  ">",
	"gte": ">=",
	"lt":  "<",
	"lte": "<=",
	"in":  "in",
}

// Parse builds a Query from URL values. Unknown fields, operators and
// malformed values are reported as validation errors.
func Parse(values url.Values, schema Schema) (Query, error) {
	q := Query{Page: 1, Limit: DefaultLimit}

	if s := values.Get("select"); s != "" {
		for _, name := range splitList(s) {
			if _, ok := schema.Fields[name]; !ok {
				return Query{}, apperr.Validation("Unknown select field %s", name)
			}
			q.Select = append(q.Select, name)
		}
	}

	sort := values.Get("sort")
	if sort == "" {
		sort = schema.DefaultSort
	}
	for _, term := range splitList(sort) {
		desc := strings.HasPrefix(term, "-")
		name := strings.TrimPrefix(term, "-")
		f, ok := schema.Fields[name]
		if !ok {
			return Query{}, apperr.Validation("Unknown sort field %s", name)
		}
		q.Sort = append(q.Sort, Order{Column: f.Column, Desc: desc})
	}

	var err error
	if q.Page, err = positiveInt(values.Get("page"), 1); err != nil {
		return Query{}, apperr.Validation("Invalid page %q", values.Get("page"))
	}
	if q.Limit, err = positiveInt(values.Get("limit"), DefaultLimit); err != nil {
		return Query{}, apperr.Validation("Invalid limit %q", values.Get("limit"))
	}
	q.Limit = min(q.Limit, MaxLimit)
	// Page*Limit and Page+1 must not overflow.
	if q.Page >= math.MaxInt/q.Limit {
		return Query{}, apperr.Validation("Invalid page %q", values.Get("page"))
	}

	for key, vals := range values {
		switch key {
		case "select", "sort", "page", "limit":
			continue
		}
		name, op, err := splitKey(key)
		if err != nil {
			return Query{}, apperr.Validation("Invalid filter %s", key)
		}
		f, ok := schema.Fields[name]
		if !ok {
			return Query{}, apperr.Validation("Unknown filter field %s", name)
		}
		sqlOp, ok := operators[op]
		if !ok {
			return Query{}, apperr.Validation("Unknown filter operator %s", op)
		}
		raw := vals[0]
		if sqlOp == "in" {
			items := splitList(raw)
			for _, item := range items {
				if _, err := convert(item, f.Type); err != nil {
					return Query{}, apperr.Validation("Invalid value %q for %s", item, name)
				}
			}
			q.Filters = append(q.Filters, Filter{Column: f.Column, Op: sqlOp, Value: pq.Array(items)})
			continue
		}
		v, err := convert(raw, f.Type)
		if err != nil {
			return Query{}, apperr.Validation("Invalid value %q for %s", raw, name)
		}
		q.Filters = append(q.Filters, Filter{Column: f.Column, Op: sqlOp, Value: v})
	}
	sortFilters(q.Filters)

	return q, nil
}

// Where renders the filters as a WHERE clause whose placeholders start at
// $first. It returns an empty clause when there are no filters.
func (q Query) Where(first int) (string, []any) {
	if len(q.Filters) == 0 {
		return "", nil
	}
	terms := make([]string, 0, len(q.Filters))
	args := make([]any, 0, len(q.Filters))
	for i, f := range q.Filters {
		n := first + i
		if f.Op == "in" {
			terms = append(terms, fmt.Sprintf("%s = ANY($%d)", f.Column, n))
		} else {
			terms = append(terms, fmt.Sprintf("%s %s $%d", f.Column, f.Op, n))
		}
		args = append(args, f.Value)
	}
	return " WHERE " + strings.Join(terms, " AND "), args
}

// OrderBy renders the sort terms as an ORDER BY clause.
func (q Query) OrderBy() string {
	if len(q.Sort) == 0 {
		return ""
	}
	terms := make([]string, 0, len(q.Sort))
	for _, o := range q.Sort {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		terms = append(terms, o.Column+" "+dir)
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}

// Offset is the number of rows skipped before the current page.
func (q Query) Offset() int {
	return (q.Page - 1) * q.Limit
}

// SelectSQL renders base (a "SELECT ... FROM table" statement) with the
// filters, ordering and paging applied.
func (q Query) SelectSQL(base string) (string, []any) {
	where, args := q.Where(1)
	n := len(args) + 1
	stmt := fmt.Sprintf("%s%s%s LIMIT $%d OFFSET $%d", base, where, q.OrderBy(), n, n+1)
	return stmt, append(args, q.Limit, q.Offset())
}

// CountSQL renders base (a "SELECT COUNT(*) FROM table" statement) with
// the filters applied.
func (q Query) CountSQL(base string) (string, []any) {
	where, args := q.Where(1)
	return base + where, args
}

// PageRef points at a neighbouring page.
type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Pagination links the current page to its neighbours.
type Pagination struct {
	Prev *PageRef `json:"prev,omitempty"`
	Next *PageRef `json:"next,omitempty"`
}

// Paginate computes the neighbouring pages given the total number of matches.
func (q Query) Paginate(total int) Pagination {
	var p Pagination
	if q.Page*q.Limit < total {
		p.Next = &PageRef{Page: q.Page + 1, Limit: q.Limit}
	}
	if q.Offset() > 0 {
		p.Prev = &PageRef{Page: q.Page - 1, Limit: q.Limit}
	}
	return p
}

// Project reduces each item to the selected JSON fields plus "id". With no
// fields selected items are returned unchanged.
func Project[T any](items []T, fields []string) (any, error) {
	if len(fields) == 0 {
		return items, nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("project: %w", err)
		}
		var full map[string]any
		if err := json.Unmarshal(data, &full); err != nil {
			return nil, fmt.Errorf("project: %w", err)
		}
		m := map[string]any{"id": full["id"]}
		for _, f := range fields {
			if v, ok := full[f]; ok {
				m[f] = v
			}
		}
		out = append(out, m)
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// splitKey splits "field[op]" into field and op.
func splitKey(key string) (string, string, error) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return key, "", nil
	}
	if !strings.HasSuffix(key, "]") || open == 0 {
		return "", "", fmt.Errorf("malformed filter key %q", key)
	}
	return key[:open], key[open+1 : len(key)-1], nil
}

func positiveInt(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("not a positive integer: %q", s)
	}
	return n, nil
}

func convert(raw string, t Type) (any, error) {
	switch t {
	case Int:
		return strconv.Atoi(raw)
	case Time:
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			return ts, nil
		}
		return time.Parse(time.DateOnly, raw)
	case UUID:
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		return id.String(), nil
	case String:
		return raw, nil
	}
	return nil, fmt.Errorf("unknown field type %d", t)
}

// sortFilters orders filters by column then operator so rendered SQL is
// stable regardless of map iteration order.
func sortFilters(fs []Filter) {
	slices.SortFunc(fs, func(a, b Filter) int {
		return cmp.Or(cmp.Compare(a.Column, b.Column), cmp.Compare(a.Op, b.Op))
	})
}
