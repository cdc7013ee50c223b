package repository

import (
	"context"
	"strings"
)

// scope accumulates the WHERE clause of a query.  The only constructor,
// liveScope, starts from the soft-delete guard, so a query built from a
// scope can never see deleted rows.
type scope struct {
	where []string
	args  []any
}

// liveScope returns a scope restricted to rows of alias with is_deleted = 0.
func liveScope(alias string) *scope {
	return &scope{where: []string{qualify(alias, "is_deleted") + " = 0"}}
}

func (s *scope) and(cond string, args ...any) *scope {
	s.where = append(s.where, cond)
	s.args = append(s.args, args...)
	return s
}

// anyOf adds "(c1 OR c2 ...)".  args are bound in the order of conds.
func (s *scope) anyOf(conds []string, args ...any) *scope {
	if len(conds) == 0 {
		return s
	}
	return s.and("("+strings.Join(conds, " OR ")+")", args...)
}

func (s *scope) sql() string { return strings.Join(s.where, " AND ") }

// bind returns the scope's args followed by extra, without aliasing.
func (s *scope) bind(extra ...any) []any {
	out := make([]any, 0, len(s.args)+len(extra))
	out = append(out, s.args...)
	return append(out, extra...)
}

func qualify(alias, col string) string {
	if alias == "" {
		return col
	}
	return alias + "." + col
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likeContains builds a case-insensitive substring pattern for
// "LOWER(col) LIKE ?".  LIKE metacharacters in s match literally.
func likeContains(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}

// findPage runs the COUNT and the page query for the same scope.  from is
// the FROM clause (tables and joins), cols the select list.
func findPage[T any](ctx context.Context, q Querier, from, cols, orderBy string, sc *scope, p Page, scan func(rowScanner) (T, error)) ([]T, int64, error) {
	p = p.Normalize()

	var total int64
	countSQL := "SELECT COUNT(*) FROM " + from + " WHERE " + sc.sql()
	if err := q.QueryRowContext(ctx, countSQL, sc.bind()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := "SELECT " + cols + " FROM " + from + " WHERE " + sc.sql() +
		" ORDER BY " + orderBy + " LIMIT ? OFFSET ?"
	items, err := queryAll(ctx, q, dataSQL, sc.bind(p.Limit, p.Offset()), scan)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func queryAll[T any](ctx context.Context, q Querier, query string, args []any, scan func(rowScanner) (T, error)) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
