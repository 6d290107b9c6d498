package speech

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/go-audio/wav"
)

type WAVInfo struct {
	SampleRate  int
	NumChannels int
	BitDepth    int
	Duration    float64
}

// ValidateWAV checks that data is a decodable PCM WAV file and reports its
// format. Stereo input is accepted with a warning; recognition accuracy
// drops on multichannel audio.
func ValidateWAV(data []byte) (*WAVInfo, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("[Speech] not a valid WAV file")
	}

	duration, err := decoder.Duration()
	if err != nil {
		return nil, fmt.Errorf("[Speech] failed to read WAV duration: %w", err)
	}

	info := &WAVInfo{
		SampleRate:  int(decoder.SampleRate),
		NumChannels: int(decoder.NumChans),
		BitDepth:    int(decoder.BitDepth),
		Duration:    duration.Seconds(),
	}

	if info.SampleRate == 0 || info.NumChannels == 0 {
		return nil, fmt.Errorf("[Speech] WAV header reports no audio format")
	}
	if info.NumChannels > 1 {
		slog.Warn("[Speech] Multichannel WAV received, recognition accuracy may degrade",
			slog.Int("channels", info.NumChannels))
	}

	return info, nil
}
