package utils

import (
	"sync"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

var messageMap sync.Map

// TrackMessage remembers which Kafka message carried an answer so its
// offset can be committed once the result is stored.
func TrackMessage(answerID string, msg *kafka.Message) {
	messageMap.Store(answerID, msg)
}

func GetMessageForAnswer(answerID string) (*kafka.Message, bool) {
	msg, ok := messageMap.Load(answerID)
	if !ok {
		return nil, false
	}
	messageMap.Delete(answerID)
	return msg.(*kafka.Message), true
}
