package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/interviewme/interviewme/config"
	"github.com/interviewme/interviewme/internal/clients"
	"github.com/interviewme/interviewme/internal/clients/kafka_client"
	"github.com/interviewme/interviewme/internal/db"
	"github.com/interviewme/interviewme/internal/logging"
	"github.com/interviewme/interviewme/internal/monitoring"
	"github.com/interviewme/interviewme/internal/nlp"
	"github.com/interviewme/interviewme/internal/server"
	"github.com/interviewme/interviewme/internal/speech"
	"github.com/interviewme/interviewme/internal/textgen"
	"github.com/interviewme/interviewme/internal/voice"
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

	clients.InitValkey()
	defer clients.CloseValkey()

	db.InitDynamoDB()

	if err := kafka_client.InitKafkaProducer(kafka_client.GetKafkaConfig()); err != nil {
		slog.Warn("[Main] Kafka producer unavailable, answer analysis is disabled",
			slog.String("error", err.Error()))
	} else {
		defer kafka_client.CloseKafkaProducer()
	}

	textGen, err := textgen.NewServiceFromSettings()
	if err != nil {
		slog.Error("[Main] Failed to build text generation service",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	voiceSvc, err := voice.NewServiceFromSettings()
	if err != nil {
		slog.Error("[Main] Failed to build voice service",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	analyzerHealthy := &atomic.Bool{}
	ttsHealthy := &atomic.Bool{}
	analyzerHealthy.Store(true)
	ttsHealthy.Store(true)

	go monitoring.MonitorAnalyzerHealth(ctx, analyzerHealthy)
	go monitoring.MonitorTTSHealth(ctx, voiceSvc, ttsHealthy)

	srv := server.New(server.Deps{
		TextGen:         textGen,
		Voice:           voiceSvc,
		Speech:          speech.NewService(),
		Analyzer:        nlp.NewAnalyzer(),
		AnalyzerHealthy: analyzerHealthy,
		TTSHealthy:      ttsHealthy,
	})

	go func() {
		slog.Info("[Main] Starting API server")
		if err := srv.Start(); err != nil {
			slog.Error("[Main] Server stopped",
				slog.String("error", err.Error()))
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("[Main] Graceful shutdown failed",
			slog.String("error", err.Error()))
	}
	slog.Info("[Main] Server shut down")
}
