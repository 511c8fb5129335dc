// Package mailqueue hands rendered messages to the mail transport.
package mailqueue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/rai/shop-workflow-go/modules/notifications/domain"
)

// MessageWriter is the subset of *kafka.Writer the queue needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaQueue publishes messages as JSON keyed by order ID, so all mail of
// one order lands on the same partition in order.
type KafkaQueue struct {
	writer MessageWriter
}

func NewKafkaQueue(writer MessageWriter) *KafkaQueue {
	return &KafkaQueue{writer: writer}
}

// NewWriter returns a writer for the mail topic.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
}

func (q *KafkaQueue) Enqueue(ctx context.Context, msg domain.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding message %s: %w", msg.ID, err)
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	headers := []kafka.Header{{Key: "message-id", Value: []byte(msg.ID)}}
	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	err = q.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(msg.OrderID),
		Value:   payload,
		Headers: headers,
	})
	if err != nil {
		return fmt.Errorf("writing message %s: %w", msg.ID, err)
	}
	return nil
}
