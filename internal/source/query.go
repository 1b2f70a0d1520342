package source

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultLimit caps result rows unless the query says otherwise.
const DefaultLimit = 10

// Format selects the envelope a query result is shaped into.
type Format string

const (
	FormatObject     Format = "object"
	FormatDataTables Format = "datatables"
	FormatChartJS    Format = "chartjs"
	FormatSchema     Format = "schema"
	FormatCount      Format = "count"
)

// Filter is one "field,op,value" condition.
type Filter struct {
	Field string
	Op    string
	Value string
}

// Group is one "field,op" group-by term; an op containing "count" also
// selects count(field) AS count.
type Group struct {
	Field string
	Op    string
}

func (g Group) Counts() bool {
	return strings.Contains(g.Op, "count")
}

// Order is the "field,asc|desc" ordering.
type Order struct {
	Field string
	Desc  bool
}

// Query is a data request decoded from URL parameters.
type Query struct {
	Filters []Filter
	GroupBy []Group
	OrderBy *Order
	Include []string
	Exclude []string
	Limit   int
	First   bool
	Count   bool
	Format  Format
}

var operators = map[string]string{
	"eq":   "=",
	"ne":   "!=",
	"gt":   ">",
	"lt":   "<",
	"ge":   ">=",
	"le":   "<=",
	"like": "LIKE",
}

// ParseQuery decodes the data endpoint parameters:
//
//	filter=f,op,v;f,op,v  groupby=f,count;f,group  orderby=f,desc
//	inc_fields=a,b  exc_fields=c  limit=N  getfirst=true  getcount=true
//	as_datatables=true  as_chartjs=true  as_schema=true
//
// The ";" separating terms must be sent percent-encoded (%3B).
func ParseQuery(values url.Values) (Query, error) {
	q := Query{Limit: DefaultLimit, Format: FormatObject}

	if raw := values.Get("filter"); raw != "" {
		for _, term := range splitTerms(raw) {
			parts := strings.SplitN(term, ",", 3)
			if len(parts) != 3 {
				return Query{}, fmt.Errorf("%w: filter %q needs field,op,value", ErrBadQuery, term)
			}
			if _, ok := operators[parts[1]]; !ok {
				return Query{}, fmt.Errorf("%w: unknown filter operator %q", ErrBadQuery, parts[1])
			}
			q.Filters = append(q.Filters, Filter{Field: parts[0], Op: parts[1], Value: parts[2]})
		}
	}

	if raw := values.Get("groupby"); raw != "" {
		for _, term := range splitTerms(raw) {
			parts := strings.Split(term, ",")
			if len(parts) != 2 {
				return Query{}, fmt.Errorf("%w: groupby %q needs field,op", ErrBadQuery, term)
			}
			q.GroupBy = append(q.GroupBy, Group{Field: parts[0], Op: parts[1]})
		}
	}

	if raw := values.Get("orderby"); raw != "" {
		parts := strings.Split(raw, ",")
		order := &Order{Field: parts[0]}
		if len(parts) > 1 {
			order.Desc = strings.EqualFold(parts[1], "desc")
		}
		q.OrderBy = order
	}

	q.Include = splitFields(values.Get("inc_fields"))
	q.Exclude = splitFields(values.Get("exc_fields"))

	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return Query{}, fmt.Errorf("%w: limit %q", ErrBadQuery, raw)
		}
		q.Limit = limit
	}

	q.First = flag(values, "getfirst")
	q.Count = flag(values, "getcount")

	switch {
	case flag(values, "as_schema"):
		q.Format = FormatSchema
	case q.Count:
		q.Format = FormatCount
	case flag(values, "as_datatables"):
		q.Format = FormatDataTables
	case flag(values, "as_chartjs"):
		q.Format = FormatChartJS
	}

	return q, nil
}

func flag(values url.Values, key string) bool {
	return strings.EqualFold(values.Get(key), "true")
}

func splitTerms(raw string) []string {
	var terms []string
	for _, term := range strings.Split(raw, ";") {
		if term = strings.TrimSpace(term); term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}

func splitFields(raw string) []string {
	var fields []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}
