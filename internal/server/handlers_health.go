package server

import (
	"net/http"
	"time"

	"github.com/interviewme/interviewme/internal/clients"
)

type healthResponse struct {
	Status     string          `json:"status"`
	Timestamp  float64         `json:"timestamp"`
	Components map[string]bool `json:"components"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := map[string]bool{
		"cache": clients.ValkeyInitialized(),
	}
	if s.deps.AnalyzerHealthy != nil {
		components["analyzer"] = s.deps.AnalyzerHealthy.Load()
	}
	if s.deps.TTSHealthy != nil {
		components["tts"] = s.deps.TTSHealthy.Load()
	}

	status := "ok"
	for _, healthy := range components {
		if !healthy {
			status = "degraded"
			break
		}
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:     status,
		Timestamp:  float64(time.Now().UnixNano()) / 1e9,
		Components: components,
	})
}
