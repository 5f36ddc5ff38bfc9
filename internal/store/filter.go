package store

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// condKind enumerates the supported predicate shapes.
type condKind int

const (
	condEq condKind = iota
	condIn
	condIsNull
	condNotNull
	condILike
)

type cond struct {
	kind   condKind
	column string
	value  interface{}
	values []interface{}
}

// Filter is a simple predicate builder for the tabular fetch capability.
// Conditions are combined with AND.
type Filter struct {
	conds   []cond
	orderBy []string
	limit   int
}

// NewFilter returns an empty filter.
func NewFilter() *Filter {
	return &Filter{}
}

// Eq adds a column = value condition.
func (f *Filter) Eq(column string, value interface{}) *Filter {
	f.conds = append(f.conds, cond{kind: condEq, column: column, value: value})
	return f
}

// In adds a column = ANY(values) condition. An empty value set matches
// nothing; callers are expected to skip the query instead.
func (f *Filter) In(column string, values []interface{}) *Filter {
	f.conds = append(f.conds, cond{kind: condIn, column: column, values: values})
	return f
}

// IsNull adds a column IS NULL condition.
func (f *Filter) IsNull(column string) *Filter {
	f.conds = append(f.conds, cond{kind: condIsNull, column: column})
	return f
}

// NotNull adds a column IS NOT NULL condition.
func (f *Filter) NotNull(column string) *Filter {
	f.conds = append(f.conds, cond{kind: condNotNull, column: column})
	return f
}

// ILike adds a case-insensitive pattern match.
func (f *Filter) ILike(column, pattern string) *Filter {
	f.conds = append(f.conds, cond{kind: condILike, column: column, value: pattern})
	return f
}

// OrderBy appends an ordering column, optionally suffixed " DESC".
func (f *Filter) OrderBy(column string) *Filter {
	f.orderBy = append(f.orderBy, column)
	return f
}

// Limit caps the number of returned rows.
func (f *Filter) Limit(n int) *Filter {
	f.limit = n
	return f
}

// build renders the filter as a WHERE/ORDER BY/LIMIT tail plus arguments.
// Identifiers are quoted; values are parameterized.
func (f *Filter) build() (string, []interface{}) {
	if f == nil {
		return "", nil
	}

	var sb strings.Builder
	var args []interface{}

	if len(f.conds) > 0 {
		sb.WriteString(" WHERE ")
		for i, c := range f.conds {
			if i > 0 {
				sb.WriteString(" AND ")
			}
			col := pq.QuoteIdentifier(c.column)
			switch c.kind {
			case condEq:
				args = append(args, c.value)
				fmt.Fprintf(&sb, "%s = $%d", col, len(args))
			case condIn:
				args = append(args, pq.Array(c.values))
				fmt.Fprintf(&sb, "%s = ANY($%d)", col, len(args))
			case condIsNull:
				fmt.Fprintf(&sb, "%s IS NULL", col)
			case condNotNull:
				fmt.Fprintf(&sb, "%s IS NOT NULL", col)
			case condILike:
				args = append(args, c.value)
				fmt.Fprintf(&sb, "%s ILIKE $%d", col, len(args))
			}
		}
	}

	if len(f.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(quoteSortClause(strings.Join(f.orderBy, ", ")))
	}

	if f.limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", f.limit)
	}

	return sb.String(), args
}

// quoteSortClause safely quotes column identifiers in an ORDER BY clause.
// Handles formats like "created_at DESC" or "name ASC, id DESC".
func quoteSortClause(orderBy string) string {
	parts := strings.Split(orderBy, ",")
	quoted := make([]string, 0, len(parts))

	for _, part := range parts {
		tokens := strings.Fields(strings.TrimSpace(part))
		if len(tokens) == 0 {
			continue
		}
		quotedCol := pq.QuoteIdentifier(tokens[0])
		if len(tokens) > 1 {
			direction := strings.ToUpper(tokens[1])
			if direction == "ASC" || direction == "DESC" {
				quoted = append(quoted, quotedCol+" "+direction)
				continue
			}
		}
		quoted = append(quoted, quotedCol)
	}

	return strings.Join(quoted, ", ")
}
