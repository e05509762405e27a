package storage

import (
	"fmt"
	"strings"
)

// Where accumulates AND-ed predicates with positional arguments for list queries.
type Where struct {
	clauses []string
	args    []any
}

func (w *Where) bind(value any) string {
	w.args = append(w.args, value)
	return fmt.Sprintf("$%d", len(w.args))
}

// Eq adds "column = value".
func (w *Where) Eq(column string, value any) {
	w.clauses = append(w.clauses, column+" = "+w.bind(value))
}

// Since adds "column >= value".
func (w *Where) Since(column string, value any) {
	w.clauses = append(w.clauses, column+" >= "+w.bind(value))
}

// Until adds "column < value".
func (w *Where) Until(column string, value any) {
	w.clauses = append(w.clauses, column+" < "+w.bind(value))
}

// Search adds a case-insensitive substring match across columns.
func (w *Where) Search(term string, columns ...string) {
	if len(columns) == 0 {
		return
	}
	placeholder := w.bind("%" + escapeLike(term) + "%")
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = col + " ILIKE " + placeholder
	}
	w.clauses = append(w.clauses, "("+strings.Join(parts, " OR ")+")")
}

// SQL renders the WHERE clause, or "" when no predicate was added.
func (w *Where) SQL() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// Limit renders LIMIT/OFFSET placeholders. Call it after every predicate.
func (w *Where) Limit(limit, offset int) string {
	return " LIMIT " + w.bind(limit) + " OFFSET " + w.bind(offset)
}

// Args returns the positional arguments in placeholder order.
func (w *Where) Args() []any {
	return w.args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
