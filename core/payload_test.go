package core

import (
	"strings"
	"testing"

	"github.com/huangsam/catiq/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayload(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		p, issues, err := decodePayload(`{"answer":"Innova leads.","bullets":["a","b"],"evidence":[{"label":"Revenue","value":"$61,000"}],"suggestedQuestions":["Why?"]}`)
		require.NoError(t, err)
		assert.Empty(t, issues)
		assert.Equal(t, "Innova leads.", p.Answer)
		assert.Equal(t, []string{"a", "b"}, p.Bullets)
		assert.Equal(t, []schema.Evidence{{Label: "Revenue", Value: "$61,000"}}, p.Evidence)
		assert.Equal(t, []string{"Why?"}, p.SuggestedQuestions)
	})

	t.Run("fenced with prose", func(t *testing.T) {
		p, _, err := decodePayload("Here you go:\n```json\n{\"answer\":\"Fine.\"}\n```")
		require.NoError(t, err)
		assert.Equal(t, "Fine.", p.Answer)
	})

	t.Run("coerces invalid fields", func(t *testing.T) {
		p, issues, err := decodePayload(`{"answer":"Ok","bullets":"single","evidence":[{"label":"Units","value":321},{"label":""},"junk"]}`)
		require.NoError(t, err)
		assert.NotEmpty(t, issues)
		assert.Equal(t, []string{"single"}, p.Bullets)
		assert.Equal(t, []schema.Evidence{{Label: "Units", Value: "321"}}, p.Evidence)
	})

	t.Run("plain prose", func(t *testing.T) {
		p, issues, err := decodePayload("  Innova leads the category.  ")
		require.NoError(t, err)
		assert.Equal(t, []string{"answer was not JSON"}, issues)
		assert.Equal(t, "Innova leads the category.", p.Answer)
	})

	t.Run("empty answers", func(t *testing.T) {
		_, _, err := decodePayload("   ")
		assert.ErrorIs(t, err, errEmptyAnswer)
		_, _, err = decodePayload(`{"answer":"  ","bullets":["x"]}`)
		assert.ErrorIs(t, err, errEmptyAnswer)
	})

	t.Run("caps lists", func(t *testing.T) {
		bullets := make([]string, 0, maxPayloadBullets+4)
		for range maxPayloadBullets + 4 {
			bullets = append(bullets, `"b"`)
		}
		p, _, err := decodePayload(`{"answer":"x","bullets":[` + strings.Join(bullets, ",") + `]}`)
		require.NoError(t, err)
		assert.Len(t, p.Bullets, maxPayloadBullets)
	})
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héll", truncateRunes("héllo", 4))
	assert.Equal(t, "hi", truncateRunes("hi", 4))
}
