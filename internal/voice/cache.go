package voice

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/interviewme/interviewme/internal/models"
)

// CacheKey hashes the text together with every voice parameter; changing any
// single parameter produces a different key.
func CacheKey(text string, params models.VoiceParams) string {
	paramsStr := fmt.Sprintf("%s:%s:%v:%v:%s:%s:%v",
		text,
		params.VoiceName,
		params.SpeakingRate,
		params.Pitch,
		params.Gender,
		params.LanguageCode,
		params.VolumeGainDB,
	)

	sum := md5.Sum([]byte(paramsStr))
	return "tts_" + hex.EncodeToString(sum[:]) + ".mp3"
}
