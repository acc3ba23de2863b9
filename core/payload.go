package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/huangsam/catiq/schema"
	"github.com/xeipuuv/gojsonschema"
)

// Caps applied when decoding a model answer.
const (
	maxPayloadBullets  = 8
	maxPayloadEvidence = 12
	maxAnswerRunes     = 4000
)

// answerSchema is the shape the model is asked to reply with.
var answerSchema = gojsonschema.NewGoLoader(map[string]any{
	"type":     "object",
	"required": []string{"answer"},
	"properties": map[string]any{
		"answer":  map[string]any{"type": "string", "minLength": 1},
		"bullets": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"evidence": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []string{"label", "value"},
				"properties": map[string]any{
					"label": map[string]any{"type": "string"},
					"value": map[string]any{"type": "string"},
				},
			},
		},
		"suggestedQuestions": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
})

// answerPayload is a decoded model answer.
type answerPayload struct {
	Answer             string
	Bullets            []string
	Evidence           []schema.Evidence
	SuggestedQuestions []string
}

var errEmptyAnswer = errors.New("model returned no answer")

// decodePayload reads the model's final message. A document that passes
// schema validation is taken as is; otherwise every field is coerced on its
// own and unusable values fall back to empty defaults. The returned issues
// describe what was coerced.
func decodePayload(content string) (answerPayload, []string, error) {
	raw := extractJSON(content)
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		// Plain prose is accepted as the answer text.
		text := strings.TrimSpace(content)
		if text == "" {
			return answerPayload{}, nil, errEmptyAnswer
		}
		return answerPayload{Answer: truncateRunes(text, maxAnswerRunes)}, []string{"answer was not JSON"}, nil
	}

	var issues []string
	result, err := gojsonschema.Validate(answerSchema, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return answerPayload{}, nil, fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		for _, desc := range result.Errors() {
			issues = append(issues, desc.String())
		}
	}

	p := answerPayload{
		Answer:             truncateRunes(strings.TrimSpace(stringField(doc["answer"])), maxAnswerRunes),
		Bullets:            stringList(doc["bullets"], maxPayloadBullets),
		Evidence:           evidenceList(doc["evidence"]),
		SuggestedQuestions: stringList(doc["suggestedQuestions"], maxSuggestions),
	}
	if p.Answer == "" {
		return answerPayload{}, issues, errEmptyAnswer
	}
	return p, issues, nil
}

// extractJSON strips a markdown fence and any prose around the outermost object.
func extractJSON(content string) string {
	s := strings.TrimSpace(content)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	start, end := strings.Index(s, "{"), strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

func stringField(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64, bool:
		return fmt.Sprint(t)
	}
	return ""
}

func stringList(v any, limit int) []string {
	items, ok := v.([]any)
	if !ok {
		if s := strings.TrimSpace(stringField(v)); s != "" {
			return []string{s}
		}
		return nil
	}
	var out []string
	for _, item := range items {
		if len(out) == limit {
			break
		}
		if s := strings.TrimSpace(stringField(item)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func evidenceList(v any) []schema.Evidence {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []schema.Evidence
	for _, item := range items {
		if len(out) == maxPayloadEvidence {
			break
		}
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		label := strings.TrimSpace(stringField(obj["label"]))
		value := strings.TrimSpace(stringField(obj["value"]))
		if label == "" || value == "" {
			continue
		}
		out = append(out, schema.Evidence{Label: label, Value: value})
	}
	return out
}

func truncateRunes(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}
