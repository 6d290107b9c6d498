package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/coder/websocket"

	"github.com/interviewme/interviewme/internal/models"
	"github.com/interviewme/interviewme/internal/speech"
	"github.com/interviewme/interviewme/internal/voice"
)

const (
	MAX_AUDIO_UPLOAD_BYTES = 25 << 20
	STREAM_CHUNK_SIZE      = 4096
)

type synthesizeRequest struct {
	Text          string  `json:"text" validate:"required"`
	Persona       string  `json:"persona"`
	LanguageCode  string  `json:"language_code"`
	VoiceName     string  `json:"voice_name"`
	Gender        string  `json:"gender"`
	SpeakingRate  float64 `json:"speaking_rate"`
	Pitch         float64 `json:"pitch"`
	VolumeGainDB  float64 `json:"volume_gain_db"`
	NaturalSounds bool    `json:"natural_sounds"`
	SkipCache     bool    `json:"skip_cache"`
}

func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var req synthesizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "text is required")
		return
	}

	text := req.Text
	params := req.voiceParams()
	if req.Persona != "" {
		params = voice.PersonaParams(req.Persona)
		if req.NaturalSounds {
			text = voice.AddThinkingSounds(text)
		}
	}

	if r.URL.Query().Get("stream") == "ws" {
		sinkURL := os.Getenv("AUDIO_SINK_URL")
		if sinkURL == "" {
			writeJSONError(w, http.StatusBadRequest, "streaming requested but AUDIO_SINK_URL is not configured")
			return
		}
		go streamToSink(s.deps.Voice, sinkURL, text, params)
		writeJSON(w, http.StatusAccepted, map[string]any{
			"status": "streaming",
			"sink":   sinkURL,
		})
		return
	}

	var (
		audio  []byte
		cached bool
		err    error
	)
	if req.SkipCache {
		audio, err = s.deps.Voice.SynthesizeFresh(r.Context(), text, params)
	} else {
		audio, cached, err = s.deps.Voice.Synthesize(r.Context(), text, params)
	}
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, "speech synthesis failed: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	if cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

func (r synthesizeRequest) voiceParams() models.VoiceParams {
	return models.VoiceParams{
		LanguageCode: r.LanguageCode,
		VoiceName:    r.VoiceName,
		Gender:       r.Gender,
		SpeakingRate: r.SpeakingRate,
		Pitch:        r.Pitch,
		VolumeGainDB: r.VolumeGainDB,
	}
}

// streamToSink synthesizes through the backend's streaming endpoint and
// pushes the audio to the WebSocket sink in fixed-size binary frames. The
// HTTP response does not wait on this.
func streamToSink(svc *voice.Service, sinkURL, text string, params models.VoiceParams) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	audio, err := svc.SynthesizeForStream(ctx, text, params)
	if err != nil {
		slog.Error("[Server] Streaming synthesis failed",
			slog.String("error", err.Error()))
		return
	}

	conn, _, err := websocket.Dial(ctx, sinkURL, nil)
	if err != nil {
		slog.Error("[Server] Failed to dial audio sink",
			slog.String("sink", sinkURL),
			slog.String("error", err.Error()))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream aborted")

	chunks := 0
	for offset := 0; offset < len(audio); offset += STREAM_CHUNK_SIZE {
		end := offset + STREAM_CHUNK_SIZE
		if end > len(audio) {
			end = len(audio)
		}
		if err := conn.Write(ctx, websocket.MessageBinary, audio[offset:end]); err != nil {
			slog.Error("[Server] Audio stream write failed",
				slog.Int("chunk", chunks),
				slog.String("error", err.Error()))
			return
		}
		chunks++
	}

	conn.Close(websocket.StatusNormalClosure, fmt.Sprintf("streamed %d chunks", chunks))
	slog.Info("[Server] Audio streamed to sink",
		slog.String("sink", sinkURL),
		slog.Int("chunks", chunks))
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	audio, err := io.ReadAll(io.LimitReader(r.Body, MAX_AUDIO_UPLOAD_BYTES+1))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to read audio body")
		return
	}
	if len(audio) > MAX_AUDIO_UPLOAD_BYTES {
		writeJSONError(w, http.StatusRequestEntityTooLarge,
			"audio payload exceeds "+strconv.Itoa(MAX_AUDIO_UPLOAD_BYTES)+" bytes")
		return
	}

	transcript, err := s.deps.Speech.Transcribe(
		r.Context(), audio, r.Header.Get("Content-Type"), r.URL.Query().Get("language"))
	if err != nil {
		if errors.Is(err, speech.ErrInvalidAudio) {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSONError(w, http.StatusBadGateway, "transcription failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, transcript)
}

func (s *Server) handleListVoices(w http.ResponseWriter, r *http.Request) {
	voices, err := s.deps.Voice.ListVoices(r.Context(), r.URL.Query().Get("language_code"))
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, "failed to list voices: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"voices": voices})
}
