package consumer

import (
	"context"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

type KafkaConsumer struct {
	logger      *zap.Logger
	consumer    *kafka.Consumer
	topic       string
	handler     Handler
	concurrency int
}

func NewKafkaConsumer(kafkaBroker, kafkaTopic, groupID string, concurrency int, handler Handler, logger *zap.Logger) (*KafkaConsumer, error) {
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers": kafkaBroker,
		"group.id":          groupID,
		"auto.offset.reset": "earliest",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}

	return &KafkaConsumer{
		logger:      logger,
		consumer:    consumer,
		topic:       kafkaTopic,
		handler:     handler,
		concurrency: max(concurrency, 1),
	}, nil
}

// Start consumes until ctx is cancelled, then waits for in-flight events.
// Cancelling ctx stops reading only; accepted events run to completion.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info("Starting Kafka event consumer", zap.String("topic", c.topic), zap.Int("concurrency", c.concurrency))

	if err := c.consumer.Subscribe(c.topic, nil); err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", c.topic, err)
	}

	p := pool.New().WithMaxGoroutines(c.concurrency)
	defer p.Wait()
	work := context.WithoutCancel(ctx)

	for {
		if ctx.Err() != nil {
			c.logger.Info("Stopping Kafka event consumer")
			return nil
		}

		msg, err := c.consumer.ReadMessage(time.Second)
		if err != nil {
			if kerr, ok := err.(kafka.Error); ok && kerr.Code() == kafka.ErrTimedOut {
				continue
			}
			c.logger.Error("Error reading message from Kafka", zap.Error(err))
			continue
		}

		p.Go(func() {
			c.processMessage(work, msg)
		})
	}
}

func (c *KafkaConsumer) processMessage(ctx context.Context, msg *kafka.Message) {
	err := c.handler.OnEvent(ctx, msg.Value)
	if err == nil {
		return
	}

	fields := []zap.Field{
		zap.Int32("partition", msg.TopicPartition.Partition),
		zap.String("offset", msg.TopicPartition.Offset.String()),
		zap.String("key", string(msg.Key)),
		zap.Error(err),
	}
	if msg.TopicPartition.Topic != nil {
		fields = append(fields, zap.String("topic", *msg.TopicPartition.Topic))
	}

	if isBadInput(err) {
		c.logger.Warn("Skipping unprocessable message", fields...)
		return
	}
	c.logger.Error("Error processing message", fields...)
}

func (c *KafkaConsumer) Close() error {
	if c.consumer != nil {
		return c.consumer.Close()
	}
	return nil
}
