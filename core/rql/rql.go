// Package rql implements the restricted, read-only query language used by
// analyzers and by the model tool loop.
package rql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/huangsam/catiq/internal/metrics"
	"github.com/huangsam/catiq/schema"
)

// Limits applied to every query.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// disallowed are keywords that reject a query wherever they appear outside string literals.
var disallowed = map[string]struct{}{
	"INSERT": {}, "UPDATE": {}, "DELETE": {}, "DROP": {}, "ALTER": {},
	"CREATE": {}, "TRUNCATE": {}, "ATTACH": {}, "PRAGMA": {},
}

var disallowedRe = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|create|truncate|attach|pragma)\b`)

// Result is the outcome of one query. Failures carry Error and no rows.
type Result struct {
	OK       bool         `json:"ok"`
	Rows     []schema.Row `json:"rows"`
	RowCount int          `json:"rowCount"`
	Columns  []string     `json:"columns,omitempty"`
	Error    string       `json:"error,omitempty"`
}

func failure(format string, args ...any) Result {
	return Result{OK: false, Rows: []schema.Row{}, Error: fmt.Sprintf(format, args...)}
}

// Run parses and executes a query against the given tables.
// A positive limit overrides the query's own LIMIT.
func Run(tables schema.Tables, query string, limit int) Result {
	res := run(tables, query, limit)
	outcome := "ok"
	if !res.OK {
		outcome = "rejected"
	}
	metrics.SQLQueries.WithLabelValues(outcome).Inc()
	return res
}

func run(tables schema.Tables, query string, limit int) Result {
	text := strings.TrimSpace(query)

	toks, err := tokenize(text)
	if err != nil {
		if m := disallowedRe.FindString(text); m != "" {
			return failure("Disallowed SQL keyword: %s", strings.ToUpper(m))
		}
		return failure("Unsupported SQL syntax: %v", err)
	}
	for _, t := range toks {
		if t.kind != identToken {
			continue
		}
		for _, part := range strings.Split(t.text, ".") {
			if _, bad := disallowed[strings.ToUpper(part)]; bad {
				return failure("Disallowed SQL keyword: %s", strings.ToUpper(part))
			}
		}
	}
	if !toks[0].is("select") {
		return failure("Unsupported SQL syntax: only SELECT statements are allowed")
	}

	stmt, err := parseSelect(toks)
	if err != nil {
		return failure("Unsupported SQL syntax: %v", err)
	}
	return Execute(tables, stmt, limit)
}

// Parse parses a query without executing it.
func Parse(query string) (*Select, error) {
	toks, err := tokenize(strings.TrimSpace(query))
	if err != nil {
		return nil, err
	}
	return parseSelect(toks)
}

// EffectiveLimit resolves the caller limit, the query limit, and the default, clamped to [1, MaxLimit].
func EffectiveLimit(callerLimit int, queryLimit *int) int {
	n := DefaultLimit
	switch {
	case callerLimit > 0:
		n = callerLimit
	case queryLimit != nil:
		n = *queryLimit
	}
	return max(1, min(n, MaxLimit))
}

// Quote renders a string literal safe to embed in a query.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// QuoteList renders a parenthesized list of string literals for IN.
func QuoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = Quote(v)
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}
