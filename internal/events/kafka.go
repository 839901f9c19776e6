package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	batchTimeout = 10 * time.Millisecond
	batchSize    = 100
)

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes OrderConfirmed events keyed by order id so that all
// events of one order land on the same partition.
type KafkaPublisher struct {
	writer MessageWriter
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           batchTimeout,
		BatchSize:              batchSize,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaPublisher(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) PublishOrderConfirmed(ctx context.Context, evt OrderConfirmed) error {
	if evt.EventID == "" {
		evt.EventID = uuid.NewString()
	}
	evt.Type = TypeOrderConfirmed

	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", evt.Type, err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(evt.OrderID, 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.Type)},
			{Key: "event_id", Value: []byte(evt.EventID)},
		},
		Time: evt.OccurredAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s for order %d: %w", evt.Type, evt.OrderID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
