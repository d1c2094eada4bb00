// README: Journey notification events published to Kafka for the messaging layer.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"chauffeur/internal/logger"
	"chauffeur/internal/modules/journey"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes one message per event, keyed by request id so events
// of a booking stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	log    logger.ILogger
}

func NewKafkaPublisher(brokers []string, topic string, log logger.ILogger) *KafkaPublisher {
	if log == nil {
		log = logger.NewNop()
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaPublisher{writer: writer, topic: topic, log: log}
}

func (p *KafkaPublisher) Notify(ctx context.Context, e journey.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(e.RequestID),
		Value: data,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
			{Key: "event_id", Value: []byte(e.ID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write event to kafka topic %s: %w", p.topic, err)
	}
	p.log.Info("journey event published",
		logger.String("request_id", string(e.RequestID)),
		logger.String("event", string(e.Type)))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
