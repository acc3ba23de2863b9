package core

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/huangsam/catiq/core/rql"
	"github.com/huangsam/catiq/schema"
)

// Tool names offered to the model.
const (
	ListTablesTool       = "list_tables"
	DescribeTableTool    = "describe_table"
	RunSQLTool           = "run_sql"
	SourceExcerptTool    = "get_source_excerpt"
	StarterQuestionsTool = "get_starter_questions"
)

// Source excerpt bounds, in characters.
const (
	DefaultExcerptChars = 1200
	MaxExcerptChars     = 4000
)

// TableDescription is the result of describe_table.
type TableDescription struct {
	schema.TableSchema
	RowCount int `json:"rowCount"`
}

// SourceExcerpt is the result of get_source_excerpt.
type SourceExcerpt struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Excerpt   string `json:"excerpt"`
	Truncated bool   `json:"truncated"`
}

// Toolbox is the read-only palette over one snapshot. It is shared by the
// model loop and the MCP server.
type Toolbox struct {
	snap *schema.Snapshot
}

// NewToolbox creates a toolbox for snap.
func NewToolbox(snap *schema.Snapshot) *Toolbox {
	return &Toolbox{snap: snap}
}

// ListTables returns the registry tables with their row counts.
func (tb *Toolbox) ListTables() []schema.TableInfo {
	all := schema.AllTables()
	out := make([]schema.TableInfo, 0, len(all))
	for _, t := range all {
		out = append(out, schema.TableInfo{Name: t.Name, Description: t.Description, RowCount: len(tb.snap.Tables[t.Name])})
	}
	return out
}

// DescribeTable returns the columns of one table.
func (tb *Toolbox) DescribeTable(name string) (TableDescription, error) {
	ts, ok := schema.LookupTable(strings.TrimSpace(name))
	if !ok {
		return TableDescription{}, fmt.Errorf("Unknown table: %s", name)
	}
	return TableDescription{TableSchema: ts, RowCount: len(tb.snap.Tables[ts.Name])}, nil
}

// RunSQL executes a restricted query against the snapshot tables.
func (tb *Toolbox) RunSQL(query string, limit int) rql.Result {
	return rql.Run(tb.snap.Tables, query, limit)
}

// SourceExcerpt returns the start of a source document. An empty id picks
// the first document whose text contains query, or the first document.
func (tb *Toolbox) SourceExcerpt(id, query string, maxChars int) (SourceExcerpt, error) {
	if len(tb.snap.Sources) == 0 {
		return SourceExcerpt{}, fmt.Errorf("no source documents for %s %s", tb.snap.Key.CategoryID, tb.snap.Key.Date)
	}
	if maxChars <= 0 {
		maxChars = DefaultExcerptChars
	}
	maxChars = min(maxChars, MaxExcerptChars)

	doc, ok := tb.findSource(strings.TrimSpace(id), strings.ToLower(strings.TrimSpace(query)))
	if !ok {
		return SourceExcerpt{}, fmt.Errorf("unknown source: %s", id)
	}
	runes := []rune(doc.Content)
	if query != "" {
		if i := indexFold(runes, []rune(strings.TrimSpace(query))); i > 0 {
			runes = runes[i:]
		}
	}
	excerpt := SourceExcerpt{ID: doc.ID, Title: doc.Title, Excerpt: string(runes)}
	if len(runes) > maxChars {
		excerpt.Excerpt = string(runes[:maxChars])
		excerpt.Truncated = true
	}
	return excerpt, nil
}

// indexFold returns the rune index of the first case-insensitive match of
// needle in text, or -1. Runes are lowered one by one so indexes stay aligned
// with text.
func indexFold(text, needle []rune) int {
	if len(needle) == 0 {
		return 0
	}
	lower := func(rs []rune) []rune {
		out := make([]rune, len(rs))
		for i, r := range rs {
			out[i] = unicode.ToLower(r)
		}
		return out
	}
	t, n := lower(text), lower(needle)
	for i := 0; i+len(n) <= len(t); i++ {
		if slices.Equal(t[i:i+len(n)], n) {
			return i
		}
	}
	return -1
}

func (tb *Toolbox) findSource(id, query string) (schema.SourceDoc, bool) {
	for _, doc := range tb.snap.Sources {
		if id != "" && strings.EqualFold(doc.ID, id) {
			return doc, true
		}
	}
	if id != "" {
		return schema.SourceDoc{}, false
	}
	if query != "" {
		for _, doc := range tb.snap.Sources {
			if strings.Contains(strings.ToLower(doc.Content), query) || strings.Contains(strings.ToLower(doc.Title), query) {
				return doc, true
			}
		}
	}
	return tb.snap.Sources[0], true
}

// StarterQuestions returns the opening questions for the snapshot's category.
func (tb *Toolbox) StarterQuestions() []string {
	return StarterQuestions(tb.snap)
}

// Specs describes the palette in JSON schema form.
func (tb *Toolbox) Specs() []schema.ToolSpec {
	return []schema.ToolSpec{
		{
			Name:        ListTablesTool,
			Description: "List the curated tables of the snapshot with descriptions and row counts.",
			Parameters:  objectSchema(nil),
		},
		{
			Name:        DescribeTableTool,
			Description: "Describe the columns of one table.",
			Parameters: objectSchema(map[string]any{
				"table": map[string]any{"type": "string", "description": "Table name from list_tables"},
			}, "table"),
		},
		{
			Name: RunSQLTool,
			Description: "Run a read-only query: SELECT <cols|*> FROM <table> [WHERE ...] [ORDER BY <col> [ASC|DESC]] [LIMIT n]. " +
				"Supports =, !=, <, >, <=, >=, LIKE, IN, IS NULL, IS NOT NULL joined by AND.",
			Parameters: objectSchema(map[string]any{
				"query": map[string]any{"type": "string", "description": "The SELECT statement"},
				"limit": map[string]any{"type": "integer", "description": "Maximum rows to return (1-500)"},
			}, "query"),
		},
		{
			Name:        SourceExcerptTool,
			Description: "Read an excerpt of a methodology or source document attached to the snapshot.",
			Parameters: objectSchema(map[string]any{
				"source_id": map[string]any{"type": "string", "description": "Document id; empty picks by query"},
				"query":     map[string]any{"type": "string", "description": "Text to search for"},
				"max_chars": map[string]any{"type": "integer", "description": "Excerpt length"},
			}),
		},
		{
			Name:        StarterQuestionsTool,
			Description: "List example questions for this category.",
			Parameters:  objectSchema(nil),
		},
	}
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	if properties == nil {
		properties = map[string]any{}
	}
	s := map[string]any{"type": "object", "properties": properties}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// toolArgs are the union of every tool's arguments.
type toolArgs struct {
	Table    string `json:"table"`
	Query    string `json:"query"`
	Limit    int    `json:"limit"`
	SourceID string `json:"source_id"`
	MaxChars int    `json:"max_chars"`
}

type toolFailure struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// Call runs one tool call from the model and returns its JSON result.
// Failures are returned as {"ok":false,"error":...} so the model can recover.
func (tb *Toolbox) Call(name, arguments string) string {
	var args toolArgs
	if strings.TrimSpace(arguments) != "" {
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return encodeResult(toolFailure{Error: "invalid arguments: " + err.Error()})
		}
	}

	switch name {
	case ListTablesTool:
		return encodeResult(tb.ListTables())
	case DescribeTableTool:
		desc, err := tb.DescribeTable(args.Table)
		if err != nil {
			return encodeResult(toolFailure{Error: err.Error()})
		}
		return encodeResult(desc)
	case RunSQLTool:
		return encodeResult(tb.RunSQL(args.Query, args.Limit))
	case SourceExcerptTool:
		excerpt, err := tb.SourceExcerpt(args.SourceID, args.Query, args.MaxChars)
		if err != nil {
			return encodeResult(toolFailure{Error: err.Error()})
		}
		return encodeResult(excerpt)
	case StarterQuestionsTool:
		return encodeResult(tb.StarterQuestions())
	default:
		return encodeResult(toolFailure{Error: "unknown tool: " + name})
	}
}

func encodeResult(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return `{"ok":false,"error":"failed to encode result"}`
	}
	return string(data)
}
