package consumer

import (
	"context"
	"errors"
	"fmt"

	"github.com/sourcegraph/conc/pool"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// AMQPConsumer reads events from a durable queue bound to a fanout exchange.
type AMQPConsumer struct {
	logger      *zap.Logger
	conn        *amqp.Connection
	ch          *amqp.Channel
	queue       string
	handler     Handler
	concurrency int
}

func NewAMQPConsumer(uri, exchange, queue string, concurrency int, handler Handler, logger *zap.Logger) (*AMQPConsumer, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to AMQP broker: %w", err)
	}

	c := &AMQPConsumer{
		logger:      logger,
		conn:        conn,
		queue:       queue,
		handler:     handler,
		concurrency: max(concurrency, 1),
	}
	if err := c.setup(exchange); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return c, nil
}

func (c *AMQPConsumer) setup(exchange string) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open AMQP channel: %w", err)
	}
	c.ch = ch

	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", c.queue, err)
	}
	if err := ch.QueueBind(c.queue, "", exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", c.queue, err)
	}
	// Unacked deliveries are capped at the worker count.
	if err := ch.Qos(c.concurrency, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}
	return nil
}

// Start consumes until ctx is cancelled or the broker closes the channel.
// Deliveries already taken run to completion.
func (c *AMQPConsumer) Start(ctx context.Context) error {
	c.logger.Info("Starting AMQP event consumer", zap.String("queue", c.queue), zap.Int("concurrency", c.concurrency))

	deliveries, err := c.ch.Consume(c.queue, "gateway-events", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume queue %s: %w", c.queue, err)
	}

	p := pool.New().WithMaxGoroutines(c.concurrency)
	defer p.Wait()
	work := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Stopping AMQP event consumer")
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("amqp delivery channel closed")
			}
			p.Go(func() {
				c.handle(work, d)
			})
		}
	}
}

// handle acks every delivery once processed. Failed events are logged, not
// redelivered.
func (c *AMQPConsumer) handle(ctx context.Context, d amqp.Delivery) {
	if err := c.handler.OnEvent(ctx, d.Body); err != nil {
		if isBadInput(err) {
			c.logger.Warn("Skipping unprocessable message", zap.String("message_id", d.MessageId), zap.Error(err))
		} else {
			c.logger.Error("Error processing message", zap.String("message_id", d.MessageId), zap.Error(err))
		}
	}

	if err := d.Ack(false); err != nil {
		c.logger.Error("Failed to ack message", zap.Uint64("delivery_tag", d.DeliveryTag), zap.Error(err))
	}
}

func (c *AMQPConsumer) Close() error {
	if c.ch != nil {
		if err := c.ch.Close(); err != nil {
			c.logger.Warn("Error closing AMQP channel", zap.Error(err))
		}
	}
	return c.conn.Close()
}
