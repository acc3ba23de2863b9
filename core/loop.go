package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/huangsam/catiq/internal/metrics"
	"github.com/huangsam/catiq/schema"
	"go.uber.org/zap"
)

// errToolLimit means the model kept calling tools until the round budget ran out.
var errToolLimit = errors.New("reached the tool-call limit")

const loopSystemPrompt = `You answer questions about a monthly competitive-intelligence snapshot of one product category.
Only use figures returned by the tools or given in the draft facts; never estimate or invent numbers.
Use list_tables and describe_table to learn the data, then run_sql for the figures you need.
When you are done, reply without tool calls and with a single JSON object:
{"answer": "...", "bullets": ["..."], "evidence": [{"label": "...", "value": "..."}], "suggestedQuestions": ["..."]}`

const rephraseSystemPrompt = `Rewrite the analyst answer below so it reads naturally in one or two sentences.
Keep every number exactly as written and do not add new numbers, names or claims. Reply with the rewritten text only.`

// loopOutcome is the result of a finished tool loop.
type loopOutcome struct {
	payload answerPayload
	rounds  int
	// toolResults are the raw tool outputs the answer may cite.
	toolResults []string
}

// runToolLoop drives the model with the toolbox until it answers without
// tool calls, the round budget is spent, or ctx is done.
func (e *Engine) runToolLoop(ctx context.Context, tb *Toolbox, req schema.ChatRequest, key schema.SnapshotKey, draft facts) (loopOutcome, error) {
	messages := []schema.Message{
		{Role: schema.SystemRole, Content: loopSystemPrompt},
		{Role: schema.UserRole, Content: loopUserPrompt(req, key, draft)},
	}
	specs := tb.Specs()
	var out loopOutcome
	defer func() { metrics.ToolRounds.Observe(float64(out.rounds)) }()

	for out.rounds < e.cfg.MaxToolRounds {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out.rounds++
		completion, err := e.model.Complete(ctx, messages, specs)
		if err != nil {
			return out, err
		}
		if len(completion.ToolCalls) == 0 {
			payload, issues, err := decodePayload(completion.Content)
			if len(issues) > 0 {
				e.logger.Info("coerced model answer", zap.Strings("issues", issues), zap.Int("rounds", out.rounds))
			}
			if err != nil {
				return out, err
			}
			out.payload = payload
			return out, nil
		}

		messages = append(messages, schema.Message{
			Role:      schema.AssistantRole,
			Content:   completion.Content,
			ToolCalls: completion.ToolCalls,
		})
		for _, call := range completion.ToolCalls {
			result := tb.Call(call.Name, call.Arguments)
			e.logger.Debug("tool call", zap.String("tool", call.Name), zap.Int("round", out.rounds), zap.Int("result_bytes", len(result)))
			out.toolResults = append(out.toolResults, result)
			messages = append(messages, schema.Message{
				Role:       schema.ToolRole,
				Content:    result,
				ToolCallID: call.ID,
				Name:       call.Name,
			})
		}
	}
	return out, errToolLimit
}

func loopUserPrompt(req schema.ChatRequest, key schema.SnapshotKey, draft facts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Category: %s\nSnapshot: %s\n", key.CategoryID, key.Date)
	if req.TargetBrand != "" {
		fmt.Fprintf(&b, "Target brand: %s\n", req.TargetBrand)
	}
	fmt.Fprintf(&b, "Question: %s\n", strings.TrimSpace(req.Message))
	if draft.answer != "" {
		b.WriteString("\nDraft facts from the deterministic analyzer:\n")
		b.WriteString(draft.answer + "\n")
		for _, line := range draft.bullets {
			b.WriteString("- " + line + "\n")
		}
	}
	return b.String()
}

// rephrase asks the model to reword a deterministic answer. The rewrite is
// kept only when every figure in it appears in the facts.
func (e *Engine) rephrase(ctx context.Context, f facts) (string, bool) {
	var b strings.Builder
	b.WriteString(f.answer)
	for _, line := range f.bullets {
		b.WriteString("\n- " + line)
	}
	completion, err := e.model.Complete(ctx, []schema.Message{
		{Role: schema.SystemRole, Content: rephraseSystemPrompt},
		{Role: schema.UserRole, Content: b.String()},
	}, nil)
	if err != nil {
		e.logger.Warn("rephrase failed", zap.Error(err))
		return "", false
	}
	text := strings.TrimSpace(completion.Content)
	if text == "" {
		return "", false
	}
	if missing := unverifiedFigures(text, groundedFigures(factTexts(f)...)); len(missing) > 0 {
		e.logger.Info("rejected rephrased answer", zap.Strings("unverified", missing))
		return "", false
	}
	return truncateRunes(text, maxAnswerRunes), true
}
