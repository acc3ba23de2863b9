package rql

import (
	"cmp"
	"slices"
	"strings"

	"github.com/huangsam/catiq/schema"
)

// Execute runs a parsed statement. Evaluation order is WHERE, ORDER BY,
// projection, then LIMIT.
func Execute(tables schema.Tables, stmt *Select, limit int) Result {
	ts, ok := schema.LookupTable(stmt.Table)
	if !ok {
		return failure("Unknown table: %s", stmt.Table)
	}
	if col, ok := unknownColumn(ts, stmt); !ok {
		return failure("Unknown column: %s", col)
	}

	var filtered []schema.Row
	for _, row := range tables[ts.Name] {
		if matchesAll(row, stmt.Where) {
			filtered = append(filtered, row)
		}
	}
	rowCount := len(filtered)

	if stmt.OrderBy != nil {
		col, desc := stmt.OrderBy.Column, stmt.OrderBy.Desc
		slices.SortStableFunc(filtered, func(a, b schema.Row) int {
			av, bv := a[col], b[col]
			switch {
			case av == nil && bv == nil:
				return 0
			case av == nil:
				return 1
			case bv == nil:
				return -1
			}
			c := compareCells(av, bv)
			if desc {
				return -c
			}
			return c
		})
	}

	n := min(EffectiveLimit(limit, stmt.Limit), len(filtered))
	rows := make([]schema.Row, 0, n)
	for _, row := range filtered[:n] {
		rows = append(rows, project(row, stmt))
	}

	columns := ts.ColumnNames()
	if !stmt.Star {
		columns = make([]string, len(stmt.Columns))
		for i, p := range stmt.Columns {
			columns[i] = p.Name()
		}
	}
	return Result{OK: true, Rows: rows, RowCount: rowCount, Columns: columns}
}

func unknownColumn(ts schema.TableSchema, stmt *Select) (string, bool) {
	for _, p := range stmt.Columns {
		if p.Column != "" && !ts.HasColumn(p.Column) {
			return p.Column, false
		}
	}
	for _, w := range stmt.Where {
		if !ts.HasColumn(w.Column) {
			return w.Column, false
		}
	}
	if stmt.OrderBy != nil && !ts.HasColumn(stmt.OrderBy.Column) {
		return stmt.OrderBy.Column, false
	}
	return "", true
}

func project(row schema.Row, stmt *Select) schema.Row {
	out := make(schema.Row, len(row))
	if stmt.Star {
		for k, v := range row {
			out[k] = v
		}
		return out
	}
	for _, p := range stmt.Columns {
		if p.Column != "" {
			out[p.Name()] = row[p.Column]
		} else {
			out[p.Name()] = p.Expr
		}
	}
	return out
}

func matchesAll(row schema.Row, preds []Predicate) bool {
	for _, p := range preds {
		if !matches(row[p.Column], p) {
			return false
		}
	}
	return true
}

func matches(cell any, p Predicate) bool {
	switch p.Op {
	case OpIsNull:
		return cell == nil
	case OpIsNotNull:
		return cell != nil
	}
	if cell == nil {
		return false
	}

	switch p.Op {
	case OpIn, OpNotIn:
		s := strings.ToLower(schema.ToString(cell))
		found := slices.ContainsFunc(p.Values, func(v string) bool { return strings.ToLower(v) == s })
		return found == (p.Op == OpIn)
	case OpLike:
		return likeMatch(strings.ToLower(schema.ToString(cell)), strings.ToLower(p.Values[0]))
	case OpNotLike:
		return !likeMatch(strings.ToLower(schema.ToString(cell)), strings.ToLower(p.Values[0]))
	}

	c := compareCellLiteral(cell, p.Values[0])
	switch p.Op {
	case OpEq:
		return c == 0
	case OpNe:
		return c != 0
	case OpGt:
		return c > 0
	case OpLt:
		return c < 0
	case OpGe:
		return c >= 0
	case OpLe:
		return c <= 0
	}
	return false
}

// compareCellLiteral compares numerically when both sides parse as numbers,
// otherwise as case-insensitive strings.
func compareCellLiteral(cell any, lit string) int {
	cf, cok := schema.ToFloat(cell)
	lf, lok := schema.ToFloat(lit)
	if cok && lok {
		return cmp.Compare(cf, lf)
	}
	return strings.Compare(strings.ToLower(schema.ToString(cell)), strings.ToLower(lit))
}

func compareCells(a, b any) int {
	af, aok := schema.ToFloat(a)
	bf, bok := schema.ToFloat(b)
	if aok && bok {
		return cmp.Compare(af, bf)
	}
	return strings.Compare(strings.ToLower(schema.ToString(a)), strings.ToLower(schema.ToString(b)))
}

// likeMatch supports % wildcards anywhere in the pattern.
func likeMatch(s, pattern string) bool {
	if !strings.Contains(pattern, "%") {
		return s == pattern
	}
	parts := strings.Split(pattern, "%")
	if first := parts[0]; first != "" {
		if !strings.HasPrefix(s, first) {
			return false
		}
		s = s[len(first):]
	}
	last := parts[len(parts)-1]
	middle := parts[1 : len(parts)-1]
	for _, part := range middle {
		if part == "" {
			continue
		}
		i := strings.Index(s, part)
		if i < 0 {
			return false
		}
		s = s[i+len(part):]
	}
	return strings.HasSuffix(s, last)
}
