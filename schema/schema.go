// Package schema has the shared types of catiq.
package schema

import "time"

// Row is a single table row keyed by column name.
// Values are string, float64, or nil.
type Row map[string]any

// Tables maps table name to its rows.
type Tables map[string][]Row

// SnapshotKey identifies one month of data for one category.
// An empty Date means the latest snapshot of the category.
type SnapshotKey struct {
	CategoryID string `json:"category_id"`
	Date       string `json:"snapshot_date"`
}

// String returns the cache key form of the snapshot key.
func (k SnapshotKey) String() string {
	return k.CategoryID + "|" + k.Date
}

// SourceDoc is a read-only document or sheet preview attached to a snapshot.
type SourceDoc struct {
	ID      string `json:"id" yaml:"id"`
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

// Snapshot is the frozen dataset for one category and month.
type Snapshot struct {
	Key            SnapshotKey         `json:"key"`
	Tables         Tables              `json:"tables"`
	BrandAliases   map[string]string   `json:"brand_aliases,omitempty"`
	ProductAliases map[string][]string `json:"product_aliases,omitempty"`
	Sources        []SourceDoc         `json:"sources,omitempty"`
	LoadedAt       time.Time           `json:"loaded_at"`

	// Index is rebuilt from Tables and never persisted.
	Index *ProductIndex `json:"-"`
}

// ScopeHint is the brand scope suggested by the wording of a question.
type ScopeHint struct {
	Mode   ScopeMode `json:"mode"`
	Brands []string  `json:"brands,omitempty"`
}

// QueryPlan is the structured form of a question.
type QueryPlan struct {
	Intent           Intent           `json:"intent"`
	CategoryID       string           `json:"category_id"`
	Text             string           `json:"text"`
	Scope            ScopeHint        `json:"scope"`
	Metric           Metric           `json:"metric"`
	RankTarget       RankTarget       `json:"rank_target"`
	HistoricalWindow HistoricalWindow `json:"historical_window"`
	GrowthWindow     GrowthWindow     `json:"growth_window"`
	TargetLevel      TargetLevel      `json:"target_level"`
	TypeScope        string           `json:"type_scope,omitempty"`
	Limit            int              `json:"limit"`
}

// ResolvedScope is the brand set a question is evaluated against.
type ResolvedScope struct {
	Mode          ScopeMode `json:"mode"`
	Brands        []string  `json:"brands,omitempty"`
	Justification string    `json:"justification"`
}

// Entities are the references found in a question.
type Entities struct {
	Brands []string `json:"brands,omitempty"`
	Asins  []string `json:"asins,omitempty"`
}

// Resolution is the output of the entity resolver.
type Resolution struct {
	Entities        Entities          `json:"entities"`
	Scope           ResolvedScope     `json:"scope"`
	MatchedProducts []*IndexedProduct `json:"matched_products,omitempty"`
	Ambiguous       bool              `json:"ambiguous"`
	Clarification   string            `json:"clarification,omitempty"`
}

// Route is the output of the intent router.
type Route struct {
	Analyzer      Analyzer `json:"analyzer,omitempty"`
	Clarification string   `json:"clarification,omitempty"`
	Rule          string   `json:"rule"`
}

// CompetitorCandidate is one scored competitor.
type CompetitorCandidate struct {
	Product  *IndexedProduct `json:"product"`
	Score    float64         `json:"score"`
	Evidence []string        `json:"evidence"`
}

// CompetitorResult is the output of the competitor scoring engine.
type CompetitorResult struct {
	Target      *IndexedProduct       `json:"target"`
	Candidates  []CompetitorCandidate `json:"candidates"`
	Assumptions []string              `json:"assumptions"`
	Confidence  float64               `json:"confidence"`
}

// ProactiveSuggestion is one proactive signal surfaced to the user.
type ProactiveSuggestion struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	Severity   Severity `json:"severity"`
	Confidence float64  `json:"confidence"`
}

// Evidence is one labeled fact backing an answer.
type Evidence struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ChatRequest is the input of Engine.Answer.
type ChatRequest struct {
	Message      string `json:"message"`
	CategoryID   string `json:"categoryId"`
	SnapshotDate string `json:"snapshotDate"`
	TargetBrand  string `json:"targetBrand,omitempty"`
}

// ChatResponse is the output of Engine.Answer.
type ChatResponse struct {
	Intent             Intent                `json:"intent"`
	Answer             string                `json:"answer"`
	Bullets            []string              `json:"bullets"`
	Evidence           []Evidence            `json:"evidence"`
	Proactive          []ProactiveSuggestion `json:"proactive"`
	SuggestedQuestions []string              `json:"suggestedQuestions"`
	Warnings           []string              `json:"warnings"`
}
