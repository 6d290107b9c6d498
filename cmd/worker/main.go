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
	"github.com/interviewme/interviewme/internal/clients/kafka_client"
	"github.com/interviewme/interviewme/internal/consumers"
	"github.com/interviewme/interviewme/internal/db"
	"github.com/interviewme/interviewme/internal/logging"
	"github.com/interviewme/interviewme/internal/monitoring"
)

// The worker runs one consumer loop per process; KAFKA_TOPIC selects which.
func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := kafka_client.GetKafkaConfig()

	for {
		err := kafka_client.InitKafkaProducer(cfg)
		if err == nil {
			break
		}
		slog.Warn("[Main] Kafka init failed, retrying...",
			slog.String("error", err.Error()))
		time.Sleep(5 * time.Second)
	}
	defer kafka_client.CloseKafkaProducer()

	db.InitDynamoDB()

	analyzerHealthy := &atomic.Bool{}
	analyzerHealthy.Store(true)
	go monitoring.MonitorAnalyzerHealth(ctx, analyzerHealthy)

	kafka_client.RegisterConsumer(kafka_client.KAFKA_TOPIC_ANALYSIS_REQUEST, consumers.WrapConsumer(
		consumers.StartAnalysisConsumer).WithHealthCheck(analyzerHealthy).Handler())
	kafka_client.RegisterConsumer(kafka_client.KAFKA_TOPIC_ANALYSIS_RESULTS, consumers.WrapConsumer(
		consumers.StartResultsConsumer).Handler())

	if err := kafka_client.StartConsumer(ctx); err != nil {
		slog.Error("[Main] Failed to start consumer",
			slog.String("error", err.Error()))
		os.Exit(1)
	}
}
