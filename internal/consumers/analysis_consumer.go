package consumers

import (
	"context"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/interviewme/interviewme/internal/clients"
	"github.com/interviewme/interviewme/internal/clients/kafka_client"
	"github.com/interviewme/interviewme/internal/models"
	"github.com/interviewme/interviewme/internal/nlp"
	"github.com/interviewme/interviewme/internal/utils"
)

var analysisBuffer = utils.NewBatchBuffer[models.AnswerAnalysisInput]()

// StartAnalysisConsumer reads submitted answers, runs emotion and sentiment
// analysis in batches and publishes the results. The analyzer health flag
// decides whether to try the hosted classifier at all; when it is down
// every answer degrades to VADER locally.
func StartAnalysisConsumer(ctx context.Context, consumer *kafka.Consumer, health ...*atomic.Bool) {
	iterator := kafka_client.NewKafkaMessageIterator(ctx, consumer)
	committer := kafka_client.NewCommitHandler(ctx, consumer)

	ticker := time.NewTicker(utils.BATCH_TIMEOUT)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Warn("[AnalysisConsumer] Consumer shutting down...")
			analyzeAndPublish(ctx, committer, health...)
			return
		case <-ticker.C:
			analyzeAndPublish(ctx, committer, health...)
		default:
			msg, err := iterator.Next()
			if err != nil {
				utils.HandleConsumerError(err)
				continue
			}

			var input models.AnswerAnalysisInput
			if err := utils.DeserializeFromJSON(msg.Value, &input); err != nil {
				utils.HandleConsumerError(err)
				continue
			}

			utils.TrackMessage(input.AnswerID, msg)
			analysisBuffer.Add(input)

			if analysisBuffer.Size() >= utils.BATCH_SIZE {
				analyzeAndPublish(ctx, committer, health...)
			}
		}
	}
}

func analyzeAndPublish(ctx context.Context, committer *kafka_client.KafkaCommitHandler, health ...*atomic.Bool) {
	batch := analysisBuffer.GetAndClear()
	if len(batch) == 0 {
		return
	}
	analysisBuffer.LogBatchProcessing("answer-analysis")

	results := analyzeBatch(batch, analyzerAvailable(health...))

	var publishErr error
	for i := 0; i < 3; i++ {
		publishErr = kafka_client.PublishToKafka(ctx,
			kafka_client.KAFKA_TOPIC_ANALYSIS_RESULTS, batch[0].SessionID, results)
		if publishErr == nil {
			break
		}
		slog.Warn("[AnalysisConsumer] Failed to publish results batch",
			slog.Int("attempt", i+1),
			slog.String("error", publishErr.Error()))
		time.Sleep(2 * time.Second)
	}
	if publishErr != nil {
		slog.Error("[AnalysisConsumer] Dropping batch after repeated publish failures",
			slog.Int("batch_size", len(results)))
		return
	}

	for _, result := range results {
		if msg, found := utils.GetMessageForAnswer(result.AnswerID); found {
			if err := committer.Commit(msg); err != nil {
				slog.Warn("[AnalysisConsumer] Failed to commit offset",
					slog.String("error", err.Error()))
			}
		}
	}
}

// analyzeBatch tries the hosted classifier for the whole batch first and
// fills in VADER-derived results for any answer it could not cover.
func analyzeBatch(batch []models.AnswerAnalysisInput, tryRemote bool) []models.AnswerAnalysisResult {
	remote := map[string]models.EmotionAnalysisResponse{}

	if tryRemote {
		request := make(models.EmotionAnalysisBatchRequest, 0, len(batch))
		for _, input := range batch {
			request = append(request, models.EmotionAnalysisRequest{
				AnswerID: input.AnswerID,
				Text:     input.Text,
			})
		}

		response, err := clients.GetHuggingFaceClient().GetBatchedEmotionAnalysis(request)
		if err != nil {
			slog.Warn("[AnalysisConsumer] Hosted classifier failed, falling back to VADER",
				slog.String("error", err.Error()))
		}
		for _, item := range response {
			remote[item.AnswerID] = item
		}
	}

	results := make([]models.AnswerAnalysisResult, 0, len(batch))
	for _, input := range batch {
		if item, ok := remote[input.AnswerID]; ok {
			results = append(results, models.AnswerAnalysisResult{
				AnswerAnalysisInput: input,
				Emotions:            nlp.NormalizeEmotions(item.Emotions),
				SentimentScore:      item.SentimentScore,
				SentimentLabel:      item.SentimentLabel,
				Confidence:          item.Confidence,
				AnalysisSource:      "huggingface",
			})
			continue
		}
		results = append(results, vaderResult(input))
	}
	return results
}

func vaderResult(input models.AnswerAnalysisInput) models.AnswerAnalysisResult {
	score, label := nlp.AnalyzeWithVADER(input.Text)
	confidence := math.Abs(score)
	if label == "neutral" {
		confidence = 1 - math.Abs(score)
	}

	return models.AnswerAnalysisResult{
		AnswerAnalysisInput: input,
		Emotions:            nlp.EmotionsFromVADER(input.Text),
		SentimentScore:      score,
		SentimentLabel:      label,
		Confidence:          confidence,
		AnalysisSource:      "vader",
	}
}

func analyzerAvailable(health ...*atomic.Bool) bool {
	for _, flag := range health {
		if flag != nil && !flag.Load() {
			return false
		}
	}
	return true
}
