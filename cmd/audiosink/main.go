package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/interviewme/interviewme/config"
	"github.com/interviewme/interviewme/internal/logging"
	"github.com/interviewme/interviewme/internal/ws"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sink, err := ws.NewAudioSink(os.Getenv("AUDIO_SINK_DIR"))
	if err != nil {
		slog.Error("[Main] Failed to initialize audio sink",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	addr := config.GetEnv("AUDIO_SINK_ADDR", ":8765")
	srv := &http.Server{
		Addr:        addr,
		Handler:     sink,
		ReadTimeout: 0, // streams stay open as long as the speaker talks
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		slog.Info("[Main] Audio sink listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("[Main] Audio sink stopped",
				slog.String("error", err.Error()))
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("[Main] Graceful shutdown failed",
			slog.String("error", err.Error()))
	}
	slog.Info("[Main] Audio sink shut down")
}
