// Package core answers questions about category snapshots. It wires the
// parser, resolver and router to the analyzers, and drives the optional
// model loop over a read-only tool palette.
package core

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/huangsam/catiq/core/algo"
	"github.com/huangsam/catiq/core/nlq"
	"github.com/huangsam/catiq/core/resolve"
	"github.com/huangsam/catiq/core/route"
	"github.com/huangsam/catiq/internal/contract"
	"github.com/huangsam/catiq/internal/logger"
	"github.com/huangsam/catiq/internal/metrics"
	"github.com/huangsam/catiq/schema"
	"go.uber.org/zap"
)

// MaxMessageRunes bounds the length of a question.
const MaxMessageRunes = 2000

// Answer paths, used as metric labels.
const (
	deterministicPath = "deterministic"
	rephrasedPath     = "rephrased"
	modelPath         = "model"
	fallbackPath      = "fallback"
	clarificationPath = "clarification"
	invalidPath       = "invalid"
)

// Warnings shown to the user.
const (
	toolLimitWarning = "The model reached the tool-call limit; showing the deterministic answer."
	modelFailWarning = "The model could not answer; showing the deterministic answer."
	canceledWarning  = "The request was canceled before the model finished; showing the deterministic answer."
	noModelWarning   = "Generative mode needs a model client; showing the deterministic answer."
)

// Engine answers chat requests. It holds no per-request state and is safe
// for concurrent use.
type Engine struct {
	source  contract.SnapshotSource
	model   contract.ModelClient
	history contract.HistoryStore
	cfg     *contract.Config
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithModel sets the external model used in hybrid and generative modes.
func WithModel(model contract.ModelClient) Option {
	return func(e *Engine) { e.model = model }
}

// WithHistory records every answer in store.
func WithHistory(store contract.HistoryStore) Option {
	return func(e *Engine) { e.history = store }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger.OrNop(l) }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator replaces the request id generator.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// NewEngine creates an engine over source. A nil cfg uses the defaults.
func NewEngine(source contract.SnapshotSource, cfg *contract.Config, opts ...Option) *Engine {
	e := &Engine{
		source: source,
		cfg:    engineConfig(cfg),
		logger: zap.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// engineConfig fills the settings the engine cannot run without.
func engineConfig(cfg *contract.Config) *contract.Config {
	if cfg == nil {
		return &contract.Config{
			OwnBrands:           slices.Clone(contract.DefaultOwnBrands),
			GenerationMode:      schema.HybridMode,
			ConfidenceThreshold: contract.DefaultConfidenceThreshold,
			MaxToolRounds:       contract.DefaultMaxToolRounds,
			CompetitorWeights:   maps.Clone(contract.DefaultCompetitorWeights),
		}
	}
	c := cfg.Clone()
	if c.GenerationMode == "" {
		c.GenerationMode = schema.HybridMode
	}
	if c.MaxToolRounds <= 0 {
		c.MaxToolRounds = contract.DefaultMaxToolRounds
	}
	if len(c.CompetitorWeights) == 0 {
		c.CompetitorWeights = maps.Clone(contract.DefaultCompetitorWeights)
	}
	return c
}

// answerRun is the response plus what the history store records about it.
type answerRun struct {
	response   schema.ChatResponse
	key        schema.SnapshotKey
	analyzer   schema.Analyzer
	path       string
	confidence float64
}

// Answer answers one question. It never fails: invalid input, missing data
// and model errors are reported as warnings on the response.
func (e *Engine) Answer(ctx context.Context, req schema.ChatRequest) schema.ChatResponse {
	start := e.now()
	requestID, ok := requestIDFromContext(ctx)
	if !ok {
		requestID = e.newID()
	}
	logger := e.logger.With(zap.String("request_id", requestID))

	run := e.answer(ctx, logger, req)
	resp := finalize(run.response)
	end := e.now()

	metrics.AnswersTotal.WithLabelValues(string(resp.Intent), run.path).Inc()
	metrics.AnswerDuration.WithLabelValues(run.path).Observe(end.Sub(start).Seconds())
	logger.Info("answered",
		zap.String("intent", string(resp.Intent)),
		zap.String("analyzer", string(run.analyzer)),
		zap.String("path", run.path),
		zap.Float64("confidence", run.confidence),
		zap.Int("warnings", len(resp.Warnings)),
		zap.Duration("duration", end.Sub(start)))

	if e.history != nil {
		key := run.key
		if key.CategoryID == "" {
			key = schema.SnapshotKey{CategoryID: strings.TrimSpace(req.CategoryID), Date: strings.TrimSpace(req.SnapshotDate)}
		}
		_, err := e.history.RecordAnswer(schema.AnswerRecord{
			RequestID:      requestID,
			CategoryID:     key.CategoryID,
			SnapshotDate:   key.Date,
			Message:        req.Message,
			Intent:         resp.Intent,
			Analyzer:       run.analyzer,
			GenerationMode: e.cfg.GenerationMode,
			Confidence:     run.confidence,
			WarningCount:   len(resp.Warnings),
			StartTime:      start,
			EndTime:        end,
			Evidence:       resp.Evidence,
		})
		if err != nil {
			logger.Warn("failed to record answer", zap.Error(err))
		}
	}
	return resp
}

func (e *Engine) answer(ctx context.Context, logger *zap.Logger, req schema.ChatRequest) answerRun {
	if warnings := validateRequest(req); len(warnings) > 0 {
		return invalidRun("I could not process that question.", warnings...)
	}

	key := schema.SnapshotKey{CategoryID: strings.TrimSpace(req.CategoryID), Date: strings.TrimSpace(req.SnapshotDate)}
	snap, err := e.source.Snapshot(ctx, key)
	if err != nil {
		if !errors.Is(err, contract.ErrSnapshotNotFound) {
			logger.Warn("failed to load snapshot", zap.String("snapshot", key.String()), zap.Error(err))
		}
		return invalidRun("I could not find data for that category and month.", unknownSnapshotWarning(key))
	}
	key = snap.Key

	plan := nlq.NewParser(knownTypes(snap.Index)).Parse(req.Message, key.CategoryID)
	res := resolve.Resolve(req.Message, snap.Index, resolve.Options{
		TargetBrand: req.TargetBrand,
		Plan:        &plan,
		OwnBrands:   e.cfg.OwnBrands,
	})
	r := route.Route(plan, res)
	logger.Debug("routed question",
		zap.String("intent", string(plan.Intent)),
		zap.String("analyzer", string(r.Analyzer)),
		zap.String("rule", r.Rule),
		zap.String("scope", string(res.Scope.Mode)))

	if r.Clarification != "" {
		suggested := clarificationQuestions(res, plan)
		if len(suggested) == 0 {
			suggested = StarterQuestions(snap)
		}
		return answerRun{
			key:  key,
			path: clarificationPath,
			response: schema.ChatResponse{
				Intent:             schema.ClarificationIntent,
				Answer:             r.Clarification,
				SuggestedQuestions: suggested,
			},
		}
	}

	a := &analysis{snap: snap, plan: plan, res: res, cfg: e.cfg}
	f := analyzers[r.Analyzer](a)
	if len(a.scopedBrands()) > 0 && res.Scope.Justification != "" {
		f.add("Scope", res.Scope.Justification)
	}
	run := answerRun{
		key:        key,
		analyzer:   r.Analyzer,
		path:       deterministicPath,
		confidence: f.confidence,
		response: schema.ChatResponse{
			Intent:             schema.Intent(r.Analyzer),
			Answer:             f.answer,
			Bullets:            f.bullets,
			Evidence:           f.evidence,
			Proactive:          a.signals(),
			SuggestedQuestions: SuggestedQuestions(r.Analyzer, f.focus, snap),
		},
	}

	switch {
	case e.needsModel(f.confidence) && e.model == nil:
		if e.cfg.GenerationMode == schema.GenerativeMode {
			run.response.Warnings = append(run.response.Warnings, noModelWarning)
		}
	case e.needsModel(f.confidence):
		e.generate(ctx, logger, &run, snap, req, f)
	case e.cfg.Rephrase && e.model != nil:
		if text, ok := e.rephrase(ctx, f); ok {
			run.response.Answer = text
			run.path = rephrasedPath
		}
	}
	return run
}

// needsModel reports whether the model loop should answer.
func (e *Engine) needsModel(confidence float64) bool {
	switch e.cfg.GenerationMode {
	case schema.GenerativeMode:
		return true
	case schema.HybridMode:
		return confidence < e.cfg.ConfidenceThreshold
	}
	return false
}

// generate replaces the deterministic answer with the tool loop's answer.
// Any loop failure keeps the deterministic answer and adds a warning.
func (e *Engine) generate(ctx context.Context, logger *zap.Logger, run *answerRun, snap *schema.Snapshot, req schema.ChatRequest, f facts) {
	out, err := e.runToolLoop(ctx, NewToolbox(snap), req, snap.Key, f)
	if err != nil {
		run.path = fallbackPath
		switch {
		case errors.Is(err, errToolLimit):
			logger.Warn("model loop exhausted its rounds", zap.Int("rounds", out.rounds))
			run.response.Warnings = append(run.response.Warnings, toolLimitWarning)
		case ctx.Err() != nil:
			logger.Warn("model loop canceled", zap.Error(err))
			run.response.Warnings = append(run.response.Warnings, canceledWarning)
		default:
			logger.Warn("model loop failed", zap.Error(err))
			run.response.Warnings = append(run.response.Warnings, modelFailWarning)
		}
		return
	}

	p := out.payload
	run.path = modelPath
	run.response.Answer = p.Answer
	if len(p.Bullets) > 0 {
		run.response.Bullets = p.Bullets
	}
	if len(p.Evidence) > 0 {
		run.response.Evidence = p.Evidence
	}
	if len(p.SuggestedQuestions) > 0 {
		run.response.SuggestedQuestions = p.SuggestedQuestions
	}

	grounded := groundedFigures(append(append(factTexts(f), out.toolResults...), req.Message)...)
	texts := append([]string{p.Answer}, p.Bullets...)
	for _, ev := range p.Evidence {
		texts = append(texts, ev.Value)
	}
	if missing := unverifiedFigures(strings.Join(texts, "\n"), grounded); len(missing) > 0 {
		logger.Info("model answer has unverified figures", zap.Strings("figures", missing))
		run.response.Warnings = append(run.response.Warnings,
			"Some figures could not be verified against the data: "+strings.Join(missing, ", ")+".")
	}
}

func validateRequest(req schema.ChatRequest) []string {
	var warnings []string
	msg := strings.TrimSpace(req.Message)
	switch {
	case msg == "":
		warnings = append(warnings, "Message is required.")
	case utf8.RuneCountInString(msg) > MaxMessageRunes:
		warnings = append(warnings, fmt.Sprintf("Message exceeds %d characters.", MaxMessageRunes))
	}
	if strings.TrimSpace(req.CategoryID) == "" {
		warnings = append(warnings, "Category is required.")
	}
	return warnings
}

func unknownSnapshotWarning(key schema.SnapshotKey) string {
	if key.Date == "" {
		return "Unknown category or snapshot: " + key.CategoryID
	}
	return "Unknown category or snapshot: " + key.CategoryID + " " + key.Date
}

func invalidRun(answer string, warnings ...string) answerRun {
	return answerRun{
		path: invalidPath,
		response: schema.ChatResponse{
			Intent:   schema.InvalidIntent,
			Answer:   answer,
			Warnings: warnings,
		},
	}
}

// finalize replaces nil slices so every list encodes as a JSON array.
func finalize(resp schema.ChatResponse) schema.ChatResponse {
	if resp.Bullets == nil {
		resp.Bullets = []string{}
	}
	if resp.Evidence == nil {
		resp.Evidence = []schema.Evidence{}
	}
	if resp.Proactive == nil {
		resp.Proactive = []schema.ProactiveSuggestion{}
	}
	if resp.SuggestedQuestions == nil {
		resp.SuggestedQuestions = []string{}
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}
	return resp
}

func knownTypes(ix *schema.ProductIndex) []string {
	var types []string
	for _, p := range ix.Products() {
		if p.Type != "" && !slices.Contains(types, p.Type) {
			types = append(types, p.Type)
		}
	}
	return types
}

// competitorParams applies the configured weights to the stock heuristics.
func competitorParams(cfg *contract.Config) algo.CompetitorParams {
	params := algo.DefaultCompetitorParams()
	if cfg == nil || len(cfg.CompetitorWeights) == 0 {
		return params
	}
	w := cfg.CompetitorWeights
	params.Weights = algo.ScoreWeights{
		Price:    w["price"],
		Type:     w["type"],
		Revenue:  w["revenue"],
		Units:    w["units"],
		Rating:   w["rating"],
		Momentum: w["momentum"],
	}
	return params
}

// Toolbox returns the tool palette over one snapshot.
func (e *Engine) Toolbox(ctx context.Context, key schema.SnapshotKey) (*Toolbox, error) {
	snap, err := e.source.Snapshot(ctx, key)
	if err != nil {
		return nil, err
	}
	return NewToolbox(snap), nil
}

// Signals returns the proactive suggestions of one snapshot.
func (e *Engine) Signals(ctx context.Context, key schema.SnapshotKey) ([]schema.ProactiveSuggestion, error) {
	snap, err := e.source.Snapshot(ctx, key)
	if err != nil {
		return nil, err
	}
	a := &analysis{snap: snap, cfg: e.cfg}
	return a.signals(), nil
}

// Competitors scores the closest competitors of the product ref names: an
// ASIN, a product alias, or words of its title.
func (e *Engine) Competitors(ctx context.Context, key schema.SnapshotKey, ref string, includeSameBrand bool) (schema.CompetitorResult, error) {
	snap, err := e.source.Snapshot(ctx, key)
	if err != nil {
		return schema.CompetitorResult{}, err
	}
	target, ok := snap.Index.Product(ref)
	if !ok {
		res := resolve.Resolve(ref, snap.Index, resolve.Options{OwnBrands: e.cfg.OwnBrands})
		if len(res.MatchedProducts) == 0 {
			return schema.CompetitorResult{}, fmt.Errorf("no product matches %q", ref)
		}
		target = res.MatchedProducts[0]
	}
	params := competitorParams(e.cfg)
	return algo.FindClosestCompetitors(snap.Index, target, algo.CompetitorOptions{
		IncludeSameBrand: includeSameBrand,
		Params:           &params,
	}), nil
}
