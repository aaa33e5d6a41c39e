package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// DefaultSinkTimeout bounds a single publish to Kafka
const DefaultSinkTimeout = 5 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes scan events as JSON keyed by scan id, so one scan's
// events land on one partition in order
type KafkaSink struct {
	writer messageWriter
}

// NewKafkaSink creates a sink for the given brokers and topic
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: false,
		},
	}
}

// NewKafkaSinkWithWriter builds a sink using a custom writer (tests)
func NewKafkaSinkWithWriter(writer messageWriter) *KafkaSink {
	return &KafkaSink{writer: writer}
}

// Attach subscribes the sink to every scan event on bus
func (s *KafkaSink) Attach(bus *Bus) {
	for _, t := range AllEventTypes {
		bus.Subscribe(t, s.Handle)
	}
}

// Handle publishes one event
func (s *KafkaSink) Handle(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultSinkTimeout)
	defer cancel()

	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ScanID),
		Value: payload,
		Time:  event.Time.UTC(),
	})
}

// Close shuts down the underlying writer
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
