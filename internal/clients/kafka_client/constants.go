package kafka_client

import "time"

const (
	KAFKA_TOPIC_ANALYSIS_REQUEST = "answer-analysis-request" // interview answers waiting for emotion/sentiment scoring
	KAFKA_TOPIC_ANALYSIS_RESULTS = "answer-analysis-results" // scored answers headed for storage
)

const (
	MAX_RETRIES = 5
	RETRY_DELAY = 2 * time.Second
)
