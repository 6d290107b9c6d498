package ws

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/coder/websocket"
)

const DEFAULT_AUDIO_DIR = "received_audio"

// AudioSink accepts WebSocket connections carrying synthesized speech and
// writes each connection's binary frames to one timestamped mp3 file.
type AudioSink struct {
	dir string
}

func NewAudioSink(dir string) (*AudioSink, error) {
	if dir == "" {
		dir = DEFAULT_AUDIO_DIR
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("[AudioSink] failed to create audio directory: %w", err)
	}
	return &AudioSink{dir: dir}, nil
}

func (s *AudioSink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Warn("[AudioSink] Failed to accept connection",
			slog.String("remote", r.RemoteAddr),
			slog.String("error", err.Error()))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "sink closed")

	path := s.audioFilePath(r.RemoteAddr)
	file, err := os.Create(path)
	if err != nil {
		slog.Error("[AudioSink] Failed to create audio file",
			slog.String("path", path),
			slog.String("error", err.Error()))
		conn.Close(websocket.StatusInternalError, "cannot open audio file")
		return
	}
	defer file.Close()

	slog.Info("[AudioSink] Connection accepted",
		slog.String("remote", r.RemoteAddr),
		slog.String("file", path))

	chunks := 0
	for {
		msgType, data, err := conn.Read(r.Context())
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				slog.Info("[AudioSink] Stream complete",
					slog.String("file", path),
					slog.Int("chunks", chunks))
			} else {
				slog.Warn("[AudioSink] Connection ended abnormally",
					slog.String("file", path),
					slog.Int("chunks", chunks),
					slog.String("error", err.Error()))
			}
			return
		}

		if msgType != websocket.MessageBinary {
			slog.Warn("[AudioSink] Ignoring non-binary frame",
				slog.String("remote", r.RemoteAddr),
				slog.String("type", msgType.String()))
			continue
		}

		if _, err := file.Write(data); err != nil {
			slog.Error("[AudioSink] Failed to write audio chunk",
				slog.String("file", path),
				slog.String("error", err.Error()))
			conn.Close(websocket.StatusInternalError, "write failed")
			return
		}
		chunks++
	}
}

func (s *AudioSink) audioFilePath(remote string) string {
	safeRemote := strings.NewReplacer(":", "-", "[", "", "]", "").Replace(remote)
	name := fmt.Sprintf("audio_%s_%s.mp3", safeRemote, time.Now().Format("20060102T150405"))
	return filepath.Join(s.dir, name)
}
