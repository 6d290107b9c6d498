package nlp

import "github.com/interviewme/interviewme/internal/models"

// EmotionsFromVADER derives a five-class emotion distribution from VADER
// polarity scores. A coarse stand-in used when the remote classifier is
// unavailable.
func EmotionsFromVADER(text string) map[string]float64 {
	plainText := ConvertMarkdownToText(text)
	scores := vaderAnalyzer.PolarityScores(plainText)

	emotions := map[string]float64{
		"happy":   scores.Positive,
		"neutral": scores.Neutral,
		"angry":   scores.Negative * 0.4,
		"sad":     scores.Negative * 0.4,
		"fearful": scores.Negative * 0.2,
	}

	return NormalizeEmotions(emotions)
}

// NormalizeEmotions pads missing classes with zero and rescales the vector
// so it sums to 1.
func NormalizeEmotions(emotions map[string]float64) map[string]float64 {
	normalized := make(map[string]float64, len(models.EmotionClasses))

	var total float64
	for _, class := range models.EmotionClasses {
		score := emotions[class]
		if score < 0 {
			score = 0
		}
		normalized[class] = score
		total += score
	}

	if total == 0 {
		normalized["neutral"] = 1
		return normalized
	}

	for class, score := range normalized {
		normalized[class] = score / total
	}
	return normalized
}
