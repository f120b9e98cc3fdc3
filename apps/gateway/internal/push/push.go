// Package push enqueues notifications for delivery to client devices.
package push

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Message is the delivery request for one device.
type Message struct {
	Token        string       `json:"token"`
	DeviceUUID   uuid.UUID    `json:"deviceUuid"`
	Notification Notification `json:"notification"`
}

type Notification struct {
	Data any `json:"data"`
}

// KafkaEnqueuer publishes delivery requests to the topic read by the push
// delivery workers. Messages are keyed by token so retries for one device
// stay ordered.
type KafkaEnqueuer struct {
	logger   *zap.Logger
	producer *kafka.Producer
	topic    string
}

func NewKafkaEnqueuer(kafkaBroker, kafkaTopic string, logger *zap.Logger) (*KafkaEnqueuer, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": kafkaBroker,
		"acks":              "all",
		"retries":           3,
		"retry.backoff.ms":  100,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &KafkaEnqueuer{logger: logger, producer: producer, topic: kafkaTopic}, nil
}

// EnqueueNotification returns once the broker has acknowledged the message.
func (e *KafkaEnqueuer) EnqueueNotification(ctx context.Context, msg Message) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	// Buffered and never closed: the producer may report delivery after ctx is done.
	deliveryChan := make(chan kafka.Event, 1)
	err = e.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &e.topic, Partition: kafka.PartitionAny},
		Key:            []byte(msg.Token),
		Value:          value,
	}, deliveryChan)
	if err != nil {
		return fmt.Errorf("failed to produce notification: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case ev := <-deliveryChan:
		switch m := ev.(type) {
		case *kafka.Message:
			if m.TopicPartition.Error != nil {
				return m.TopicPartition.Error
			}
			return nil
		default:
			return fmt.Errorf("unexpected kafka event type: %T", ev)
		}
	}
}

func (e *KafkaEnqueuer) Close() error {
	if e.producer != nil {
		e.producer.Flush(5000)
		e.producer.Close()
	}
	return nil
}
