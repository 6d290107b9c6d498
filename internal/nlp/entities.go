package nlp

import (
	"regexp"
	"sort"

	"github.com/interviewme/interviewme/internal/models"
)

type entityPattern struct {
	label   string
	pattern *regexp.Regexp
}

// Ordered by priority; earlier patterns win overlapping spans.
var entityPatterns = []entityPattern{
	{"EMAIL", regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)},
	{"URL", regexp.MustCompile(`https?://[^\s]+`)},
	{"MONEY", regexp.MustCompile(`\$\d+(?:,\d{3})*(?:\.\d+)?(?:\s?(?:million|billion|k|K|M|B))?`)},
	{"PERCENT", regexp.MustCompile(`\d+(?:\.\d+)?%`)},
	{"DATE", regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b|\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2}(?:,\s*\d{4})?\b`)},
	{"PROPN", regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+(?:of\s+|the\s+)?[A-Z][a-z]+)*(?:\s+(?:Inc|Corp|Ltd|LLC)\.?)?\b`)},
}

// ExtractEntities runs the regex patterns over text and returns
// non-overlapping spans with byte offsets.
func ExtractEntities(text string) []models.Entity {
	var entities []models.Entity

	claimed := make([][2]int, 0)
	overlaps := func(start, end int) bool {
		for _, span := range claimed {
			if start < span[1] && end > span[0] {
				return true
			}
		}
		return false
	}

	for _, ep := range entityPatterns {
		for _, loc := range ep.pattern.FindAllStringIndex(text, -1) {
			start, end := loc[0], loc[1]
			if overlaps(start, end) {
				continue
			}
			// Sentence-initial capitalized words are not names.
			if ep.label == "PROPN" && start == 0 && end-start < 4 {
				continue
			}
			claimed = append(claimed, [2]int{start, end})
			entities = append(entities, models.Entity{
				Text:  text[start:end],
				Label: ep.label,
				Start: start,
				End:   end,
			})
		}
	}

	sort.Slice(entities, func(i, j int) bool {
		return entities[i].Start < entities[j].Start
	})
	return entities
}
