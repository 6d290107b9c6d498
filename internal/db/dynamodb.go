package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/interviewme/interviewme/internal/clients"
	"github.com/interviewme/interviewme/internal/models"
)

const (
	SESSIONS_TABLE_NAME = "InterviewSessions"
	RESULTS_TABLE_NAME  = "AnswerAnalysisResults"

	RESULTS_TTL = 24 * time.Hour
)

var dbClient *dynamodb.Client

func InitDynamoDB() {
	dbClient = clients.GetDynamoDBClient()
}

func StoreSession(ctx context.Context, session models.InterviewSession) error {
	if dbClient == nil {
		dbClient = clients.GetDynamoDBClient()
	}

	item, err := attributevalue.MarshalMap(session)
	if err != nil {
		return fmt.Errorf("[DynamoDB] Failed to marshal session: %w", err)
	}

	_, err = dbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(SESSIONS_TABLE_NAME),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("[DynamoDB] Failed to store session: %w", err)
	}

	slog.Info("[DynamoDB] Stored interview session",
		slog.String("session_id", session.SessionID))
	return nil
}

func GetSession(ctx context.Context, sessionID string) (*models.InterviewSession, error) {
	if dbClient == nil {
		dbClient = clients.GetDynamoDBClient()
	}

	out, err := dbClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(SESSIONS_TABLE_NAME),
		Key: map[string]types.AttributeValue{
			"session_id": &types.AttributeValueMemberS{Value: sessionID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("[DynamoDB] Failed to get session: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}

	var session models.InterviewSession
	if err := attributevalue.UnmarshalMap(out.Item, &session); err != nil {
		return nil, fmt.Errorf("[DynamoDB] Failed to unmarshal session: %w", err)
	}
	return &session, nil
}

func ListSessions(ctx context.Context) ([]models.InterviewSession, error) {
	if dbClient == nil {
		dbClient = clients.GetDynamoDBClient()
	}

	var sessions []models.InterviewSession
	paginator := dynamodb.NewScanPaginator(dbClient, &dynamodb.ScanInput{
		TableName: aws.String(SESSIONS_TABLE_NAME),
	})

	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("[DynamoDB] Scan for sessions failed: %w", err)
		}
		var page []models.InterviewSession
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			slog.Error("[DynamoDB] Unable to unmarshal session page", slog.String("error", err.Error()))
			return nil, err
		}
		sessions = append(sessions, page...)
	}

	slog.Info("[DynamoDB] Successfully retrieved sessions", slog.Int("count", len(sessions)))
	return sessions, nil
}

// BatchInsertAnalysisResults writes scored answers in chunks of 25,
// retrying unprocessed items with a doubling backoff.
func BatchInsertAnalysisResults(ctx context.Context, results []models.AnswerAnalysisResult) error {
	if dbClient == nil {
		dbClient = clients.GetDynamoDBClient()
	}

	const maxBatchSize = 25
	for i := 0; i < len(results); i += maxBatchSize {
		select {
		case <-ctx.Done():
			slog.Warn("[DynamoDB] context canceled")
			return ctx.Err()
		default:
		}

		end := i + maxBatchSize
		if end > len(results) {
			end = len(results)
		}

		writeRequests := make([]types.WriteRequest, 0, maxBatchSize)
		for _, result := range results[i:end] {
			writeRequests = append(writeRequests, types.WriteRequest{
				PutRequest: &types.PutRequest{
					Item: ResultToDynamoDBItem(result),
				},
			})
		}

		out, err := dbClient.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				RESULTS_TABLE_NAME: writeRequests,
			},
		})
		if err != nil {
			return fmt.Errorf("[DynamoDB] Failed to batch write analysis results: %w", err)
		}

		retryCount := 0
		backoff := 500 * time.Millisecond
		for len(out.UnprocessedItems) > 0 && retryCount < 3 {
			time.Sleep(backoff)
			backoff *= 2

			slog.Warn("[DynamoDB] Retrying unprocessed result items...",
				slog.Int("attempt", retryCount+1),
				slog.Int("remaining", len(out.UnprocessedItems[RESULTS_TABLE_NAME])))

			out, err = dbClient.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: out.UnprocessedItems,
			})
			if err != nil {
				return fmt.Errorf("[DynamoDB] Failed to retry batch write: %w", err)
			}
			retryCount++
		}

		if len(out.UnprocessedItems) > 0 {
			slog.Error("[DynamoDB] Some result items failed after retries",
				slog.Int("remaining", len(out.UnprocessedItems[RESULTS_TABLE_NAME])))
		}
	}

	slog.Info("[DynamoDB] Successfully stored analysis results",
		slog.Int("count", len(results)))
	return nil
}

func GetResultsForSession(ctx context.Context, sessionID string) ([]models.AnswerAnalysisResult, error) {
	if dbClient == nil {
		dbClient = clients.GetDynamoDBClient()
	}

	var results []models.AnswerAnalysisResult
	paginator := dynamodb.NewScanPaginator(dbClient, &dynamodb.ScanInput{
		TableName:        aws.String(RESULTS_TABLE_NAME),
		FilterExpression: aws.String("session_id = :sid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sid": &types.AttributeValueMemberS{Value: sessionID},
		},
	})

	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("[DynamoDB] Query for results failed: %w", err)
		}
		for _, item := range out.Items {
			results = append(results, itemToResult(item))
		}
	}

	return results, nil
}

func ResultToDynamoDBItem(result models.AnswerAnalysisResult) map[string]types.AttributeValue {
	item := make(map[string]types.AttributeValue)

	item["session_id"] = &types.AttributeValueMemberS{Value: result.SessionID}
	item["answer_id"] = &types.AttributeValueMemberS{Value: result.AnswerID}
	item["sentiment_score"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%f", result.SentimentScore)}
	item["sentiment_label"] = &types.AttributeValueMemberS{Value: result.SentimentLabel}
	item["confidence"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%f", result.Confidence)}
	item["analysis_source"] = &types.AttributeValueMemberS{Value: result.AnalysisSource}
	item["created_at"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", time.Now().Unix())}
	item["ttl"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", time.Now().Add(RESULTS_TTL).Unix())}

	if len(result.Emotions) > 0 {
		emotions := make(map[string]types.AttributeValue, len(result.Emotions))
		for label, score := range result.Emotions {
			emotions[label] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%f", score)}
		}
		item["emotions"] = &types.AttributeValueMemberM{Value: emotions}
	}

	if result.Question != "" {
		item["question"] = &types.AttributeValueMemberS{Value: result.Question}
	}
	if result.Text != "" {
		item["text"] = &types.AttributeValueMemberS{Value: result.Text}
	}
	if !result.SubmittedAt.IsZero() {
		item["submitted_at"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", result.SubmittedAt.Unix())}
	}

	return item
}

func itemToResult(item map[string]types.AttributeValue) models.AnswerAnalysisResult {
	var result models.AnswerAnalysisResult

	result.SessionID = stringAttr(item, "session_id")
	result.AnswerID = stringAttr(item, "answer_id")
	result.Question = stringAttr(item, "question")
	result.Text = stringAttr(item, "text")
	result.SentimentLabel = stringAttr(item, "sentiment_label")
	result.AnalysisSource = stringAttr(item, "analysis_source")
	result.SentimentScore = numberAttr(item, "sentiment_score")
	result.Confidence = numberAttr(item, "confidence")

	if ts := numberAttr(item, "submitted_at"); ts > 0 {
		result.SubmittedAt = time.Unix(int64(ts), 0).UTC()
	}

	if m, ok := item["emotions"].(*types.AttributeValueMemberM); ok {
		result.Emotions = make(map[string]float64, len(m.Value))
		for label, v := range m.Value {
			if n, ok := v.(*types.AttributeValueMemberN); ok {
				var score float64
				fmt.Sscanf(n.Value, "%f", &score)
				result.Emotions[label] = score
			}
		}
	}

	return result
}

func stringAttr(item map[string]types.AttributeValue, key string) string {
	if s, ok := item[key].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func numberAttr(item map[string]types.AttributeValue, key string) float64 {
	if n, ok := item[key].(*types.AttributeValueMemberN); ok {
		var v float64
		fmt.Sscanf(strings.TrimSpace(n.Value), "%f", &v)
		return v
	}
	return 0
}
