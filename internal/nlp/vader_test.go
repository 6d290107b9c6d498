package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeWithVADER(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantLabel string
	}{
		{"positive", "I love this role, the team is amazing and I am excited!", "positive"},
		{"negative", "This was a terrible experience, I hated every second of it.", "negative"},
		{"neutral", "The meeting is scheduled for noon on Thursday.", "neutral"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, label := AnalyzeWithVADER(tt.text)
			assert.Equal(t, tt.wantLabel, label)
			assert.GreaterOrEqual(t, score, -1.0)
			assert.LessOrEqual(t, score, 1.0)
		})
	}
}

func TestConvertMarkdownToText(t *testing.T) {
	input := "# Heading\n\nSome **bold** text with a [link](https://example.com) inside."
	plain := ConvertMarkdownToText(input)

	assert.NotContains(t, plain, "#")
	assert.NotContains(t, plain, "**")
	assert.NotContains(t, plain, "https://example.com")
	assert.NotContains(t, plain, "<p>")
	assert.Contains(t, plain, "link")
	assert.Contains(t, plain, "bold")
}

func TestRemoveLinks(t *testing.T) {
	assert.Equal(t, "see docs", RemoveLinks("see [docs](https://docs.example.com)"))
	assert.NotContains(t, RemoveLinks("visit https://example.com now"), "example.com")
}

func TestExtractEntities(t *testing.T) {
	text := "Reach out to recruiting@example.com about the Google Cloud offer worth $5 million."
	entities := ExtractEntities(text)
	require.NotEmpty(t, entities)

	labels := make(map[string]string)
	for _, e := range entities {
		labels[e.Label] = e.Text
		assert.Equal(t, text[e.Start:e.End], e.Text)
	}

	assert.Equal(t, "recruiting@example.com", labels["EMAIL"])
	assert.Equal(t, "$5 million", labels["MONEY"])
	assert.Contains(t, labels["PROPN"], "Google")
}

func TestExtractEntitiesNoOverlap(t *testing.T) {
	entities := ExtractEntities("Email me at jane.doe@corp.io today.")

	for i, a := range entities {
		for _, b := range entities[i+1:] {
			assert.False(t, a.Start < b.End && b.Start < a.End,
				"spans %q and %q overlap", a.Text, b.Text)
		}
	}
}

func TestEmotionsFromVADER(t *testing.T) {
	emotions := EmotionsFromVADER("I am thrilled about this opportunity!")

	require.Len(t, emotions, 5)
	var total float64
	for _, class := range []string{"angry", "fearful", "happy", "neutral", "sad"} {
		score, ok := emotions[class]
		require.True(t, ok, "missing class %s", class)
		assert.GreaterOrEqual(t, score, 0.0)
		total += score
	}
	assert.InDelta(t, 1.0, total, 0.001)
}

func TestNormalizeEmotionsEmpty(t *testing.T) {
	emotions := NormalizeEmotions(map[string]float64{})

	assert.Equal(t, 1.0, emotions["neutral"])
	assert.Len(t, emotions, 5)
}
