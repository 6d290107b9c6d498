package models

// VoiceParams carries every knob that affects synthesized audio. All of them
// participate in the cache key.
type VoiceParams struct {
	LanguageCode string  `json:"language_code"`
	VoiceName    string  `json:"voice_name"`
	Gender       string  `json:"gender"`
	SpeakingRate float64 `json:"speaking_rate"`
	Pitch        float64 `json:"pitch"`
	VolumeGainDB float64 `json:"volume_gain_db"`
}

type Voice struct {
	Name                   string   `json:"name"`
	Gender                 string   `json:"gender"`
	LanguageCodes          []string `json:"language_codes"`
	NaturalSampleRateHertz int      `json:"natural_sample_rate_hertz"`
}
