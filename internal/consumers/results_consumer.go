package consumers

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/interviewme/interviewme/internal/clients/kafka_client"
	"github.com/interviewme/interviewme/internal/db"
	"github.com/interviewme/interviewme/internal/models"
	"github.com/interviewme/interviewme/internal/utils"
)

var insertBuffer = utils.NewBatchBuffer[models.AnswerAnalysisResult]()

// StartResultsConsumer drains finished analysis batches into DynamoDB.
// Offsets are committed only after the batch is durably stored.
func StartResultsConsumer(ctx context.Context, consumer *kafka.Consumer, _ ...*atomic.Bool) {
	iterator := kafka_client.NewKafkaMessageIterator(ctx, consumer)
	committer := kafka_client.NewCommitHandler(ctx, consumer)

	ticker := time.NewTicker(utils.BATCH_TIMEOUT)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Warn("[ResultsConsumer] Consumer shutting down...")
			storeResults(ctx, committer)
			return
		case <-ticker.C:
			storeResults(ctx, committer)
		default:
			msg, err := iterator.Next()
			if err != nil {
				utils.HandleConsumerError(err)
				continue
			}

			var results []models.AnswerAnalysisResult
			if err := utils.DeserializeFromJSON(msg.Value, &results); err != nil {
				utils.HandleConsumerError(err)
				continue
			}

			for _, result := range results {
				utils.TrackMessage(result.AnswerID, msg)
				insertBuffer.Add(result)
				if insertBuffer.Size() >= utils.DYNAMODB_BATCH_SIZE {
					storeResults(ctx, committer)
				}
			}
		}
	}
}

func storeResults(ctx context.Context, committer *kafka_client.KafkaCommitHandler) {
	batch := insertBuffer.GetAndClear()
	if len(batch) == 0 {
		return
	}
	insertBuffer.LogBatchProcessing("analysis-results")

	var insertErr error
	for i := 0; i < 3; i++ {
		insertErr = db.BatchInsertAnalysisResults(ctx, batch)
		if insertErr == nil {
			break
		}
		slog.Error("[ResultsConsumer] Failed to write results to DB",
			slog.Int("attempt", i+1),
			slog.String("error", insertErr.Error()))
	}
	if insertErr != nil {
		slog.Error("[ResultsConsumer] Dropping batch after repeated insert failures",
			slog.Int("batch_size", len(batch)))
		return
	}

	for _, result := range batch {
		if msg, found := utils.GetMessageForAnswer(result.AnswerID); found {
			if err := committer.Commit(msg); err != nil {
				slog.Warn("[ResultsConsumer] Failed to commit offset",
					slog.String("error", err.Error()))
			}
		}
	}
}
