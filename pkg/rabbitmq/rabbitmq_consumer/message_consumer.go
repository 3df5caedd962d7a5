package rabbitmq_consumer

import (
	"context"
	"fmt"
	"time"

	"pricing-service/pkg/rabbitmq/rabbitmq_common"

	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageHandler processes one delivery. A nil return acks the message; an
// error routes it through the retry topology when enabled.
type MessageHandler func(ctx context.Context, d amqp.Delivery) error

// MessageConsumer delivers messages to the handler one at a time.
type MessageConsumer struct {
	baseConsumer *baseConsumer
	handler      MessageHandler
}

// NewMessageConsumer creates a per-message consumer.
func NewMessageConsumer(cfg ConsumerConfig, handler MessageHandler, connManager *rabbitmq_common.ConnectionManager) (*MessageConsumer, error) {
	if handler == nil {
		return nil, fmt.Errorf("message Consumer: message handler is required")
	}

	bc, err := newBaseConsumer(cfg, connManager)
	if err != nil {
		return nil, fmt.Errorf("message Consumer: %w", err)
	}

	return &MessageConsumer{
		baseConsumer: bc,
		handler:      handler,
	}, nil
}

// StartConsuming registers the consumer and processes deliveries until the
// context is cancelled or the connection closes.
func (c *MessageConsumer) StartConsuming(ctx context.Context) error {
	if c.baseConsumer.channel == nil || c.baseConsumer.connection.IsClosed() {
		return fmt.Errorf("message Consumer: not connected")
	}

	msgs, err := c.baseConsumer.channel.Consume(
		c.baseConsumer.actualQueueName,
		c.baseConsumer.config.ConsumerTag,
		false, // auto-ack
		c.baseConsumer.config.ExclusiveConsumer,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("message Consumer: failed to register a consumer: %w", err)
	}

	c.baseConsumer.Logger.Info("Waiting for messages",
		"queue", c.baseConsumer.actualQueueName,
	)

	c.baseConsumer.wg.Add(1)
	go func() {
		defer c.baseConsumer.wg.Done()
		for {
			select {
			case <-ctx.Done():
				c.baseConsumer.Logger.Debug("Message Consumer: Context cancelled. Stopping delivery loop.")
				return

			case msg, ok := <-msgs:
				if !ok {
					c.baseConsumer.Logger.Debug("Message Consumer: Deliveries channel closed.")
					return
				}
				c.processDelivery(ctx, msg)
			}
		}
	}()

	notifyClose := make(chan *amqp.Error)
	c.baseConsumer.connection.NotifyClose(notifyClose)

	select {
	case <-ctx.Done():
		c.baseConsumer.Logger.Debug("Message Consumer: Context cancelled. Shutting down.",
			"tag", c.baseConsumer.config.ConsumerTag,
		)
		return nil

	case err := <-notifyClose:
		c.baseConsumer.Logger.Error(err, "Message Consumer: Connection closed",
			"tag", c.baseConsumer.config.ConsumerTag,
		)
		return err
	}
}

// processDelivery runs the handler and acks, retries or dead-letters the
// message.
func (c *MessageConsumer) processDelivery(ctx context.Context, d amqp.Delivery) {
	err := c.handler(ctx, d)
	if err == nil {
		_ = d.Ack(false)
		return
	}

	c.baseConsumer.Logger.Error(err, "Message Consumer: Handler returned error",
		"tag", d.DeliveryTag,
	)

	if !c.baseConsumer.config.EnableRetryMechanism {
		_ = d.Nack(false, false)
		return
	}

	deathCount := c.baseConsumer.getDeathCount(d, c.baseConsumer.actualQueueName)
	if deathCount < int64(c.baseConsumer.config.MaxRetries) {
		c.baseConsumer.Logger.Debug("Message Consumer: Nacking message for retry",
			"tag", d.DeliveryTag,
			"death_count", deathCount,
		)
		_ = d.Nack(false, false)
		return
	}

	c.baseConsumer.Logger.Warn("Message Consumer: Max retries reached. Publishing to final DLX.",
		"tag", d.DeliveryTag,
	)
	pubErr := c.baseConsumer.finalDlxPublisher.Publish(
		context.Background(),
		c.baseConsumer.config.FinalDLQRoutingKey,
		amqp.Publishing{
			ContentType:  d.ContentType,
			Body:         d.Body,
			Headers:      d.Headers,
			Timestamp:    time.Now(),
			DeliveryMode: amqp.Persistent,
		},
	)
	if pubErr != nil {
		c.baseConsumer.Logger.Error(pubErr, "Message Consumer: FAILED to publish to final DLX. Nacking to trigger retry loop again.")
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

// Close waits for the in-flight handler and closes the channel.
func (c *MessageConsumer) Close() error {
	c.baseConsumer.Logger.Debug("Message Consumer: Closing...")
	return c.baseConsumer.Close()
}
