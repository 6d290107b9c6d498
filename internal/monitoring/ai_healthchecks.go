package monitoring

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/interviewme/interviewme/internal/clients"
	"github.com/interviewme/interviewme/internal/voice"
)

const HEALTHCHECK_TIMER = 15

// MonitorAnalyzerHealth polls the hosted emotion classifier. Consumers use
// the flag to skip the remote call entirely while it is down.
func MonitorAnalyzerHealth(ctx context.Context, healthy *atomic.Bool) {
	ticker := time.NewTicker(time.Second * HEALTHCHECK_TIMER)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			isHealthy := clients.GetHuggingFaceClient().AnalyzerHealthCheck()
			healthy.Store(isHealthy)
			if !isHealthy {
				slog.Warn("[HealthCheck] Analyzer is unhealthy")
			}
		}
	}
}

// MonitorTTSHealth polls the synthesis backend with a cheap voice listing.
func MonitorTTSHealth(ctx context.Context, svc *voice.Service, healthy *atomic.Bool) {
	ticker := time.NewTicker(time.Second * HEALTHCHECK_TIMER)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			_, err := svc.ListVoices(pingCtx, "")
			cancel()

			isHealthy := err == nil
			healthy.Store(isHealthy)
			if !isHealthy {
				slog.Warn("[HealthCheck] TTS backend is unhealthy",
					slog.String("backend", svc.Backend()),
					slog.String("error", err.Error()))
			}
		}
	}
}
