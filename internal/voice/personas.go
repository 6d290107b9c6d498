package voice

import "github.com/interviewme/interviewme/internal/models"

// Persona presets for the interviewer voice. Unknown personas get the
// professional profile.
var personaPresets = map[string]models.VoiceParams{
	"professional": {
		LanguageCode: "en-US",
		VoiceName:    "en-US-Neural2-F",
		Gender:       "FEMALE",
		SpeakingRate: 0.95,
		Pitch:        0.0,
	},
	"friendly": {
		LanguageCode: "en-US",
		VoiceName:    "en-US-Neural2-F",
		Gender:       "FEMALE",
		SpeakingRate: 1.05,
		Pitch:        1.5,
	},
	"technical": {
		LanguageCode: "en-US",
		VoiceName:    "en-US-Neural2-D",
		Gender:       "MALE",
		SpeakingRate: 0.9,
		Pitch:        -1.0,
	},
}

func PersonaParams(persona string) models.VoiceParams {
	if params, ok := personaPresets[persona]; ok {
		return params
	}
	return personaPresets["professional"]
}

func KnownPersonas() []string {
	return []string{"professional", "friendly", "technical"}
}
