package server

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/interviewme/interviewme/config"
	"github.com/interviewme/interviewme/internal/nlp"
	"github.com/interviewme/interviewme/internal/speech"
	"github.com/interviewme/interviewme/internal/textgen"
	"github.com/interviewme/interviewme/internal/voice"
)

var validate = validator.New()

// Deps carries the services the HTTP surface exposes. Health flags are
// owned by the monitoring loops and may be nil in tests.
type Deps struct {
	TextGen  *textgen.Service
	Voice    *voice.Service
	Speech   *speech.Service
	Analyzer *nlp.Analyzer

	AnalyzerHealthy *atomic.Bool
	TTSHealthy      *atomic.Bool
}

type Server struct {
	httpServer *http.Server
	deps       Deps
}

func New(deps Deps) *Server {
	s := &Server{deps: deps}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/token", s.handleToken)
	mux.HandleFunc("POST /api/generate", s.handleGenerate)
	mux.HandleFunc("POST /api/nlp/analyze", s.handleNLPAnalyze)
	mux.HandleFunc("POST /api/emotion/analyze", s.handleEmotionAnalyze)
	mux.HandleFunc("POST /api/speech/synthesize", s.handleSynthesize)
	mux.HandleFunc("POST /api/speech/transcribe", s.handleTranscribe)
	mux.HandleFunc("GET /api/speech/voices", s.handleListVoices)
	mux.HandleFunc("POST /api/interview/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/interview/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/interview/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("POST /api/interview/sessions/{id}/answers", s.handleSubmitAnswer)
	mux.HandleFunc("GET /api/interview/sessions/{id}/results", s.handleSessionResults)
	mux.HandleFunc("GET /health", s.handleHealth)

	settings := config.GetSettings()

	var handler http.Handler = mux
	handler = rateLimitMiddleware(handler)
	handler = authMiddleware(handler)
	handler = corsMiddleware(settings.API.AllowedOrigins)(handler)
	handler = loggingMiddleware(handler)
	handler = recoveryMiddleware(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", settings.API.Host, settings.API.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start blocks until the server stops.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Handler exposes the middleware-wrapped handler for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
