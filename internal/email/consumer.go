package email

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// Consumer reads email events from Kafka and delivers them through a Sender.
// Offsets are committed manually after the idempotency barrier; events that
// exhaust their retries land in the DLQ topic.
type Consumer struct {
	consumer         *kafka.Consumer
	sender           Sender
	idempotencyStore *IdempotencyStore
	dlqProducer      *kafka.Producer
	config           *ConsumerConfig
	logger           *slog.Logger
}

// ConsumerConfig holds consumer configuration.
type ConsumerConfig struct {
	Brokers       string
	Topic         string
	DLQTopic      string
	ConsumerGroup string
	MaxRetries    int
}

// NewConsumer creates the consumer and its DLQ producer.
func NewConsumer(
	config *ConsumerConfig,
	sender Sender,
	idempotencyStore *IdempotencyStore,
	logger *slog.Logger,
) (*Consumer, error) {
	consumerConfig := &kafka.ConfigMap{
		"bootstrap.servers":  config.Brokers,
		"group.id":           config.ConsumerGroup,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	}

	c, err := kafka.NewConsumer(consumerConfig)
	if err != nil {
		return nil, fmt.Errorf("create consumer: %w", err)
	}

	dlqProducer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": config.Brokers,
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("create DLQ producer: %w", err)
	}

	consumer := &Consumer{
		consumer:         c,
		sender:           sender,
		idempotencyStore: idempotencyStore,
		dlqProducer:      dlqProducer,
		config:           config,
		logger:           logger,
	}

	logger.Info("Kafka consumer initialized",
		"brokers", config.Brokers,
		"topic", config.Topic,
		"group", config.ConsumerGroup)

	return consumer, nil
}

// Start consumes until the context is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.consumer.Subscribe(c.config.Topic, nil); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	c.logger.Info("consuming email events", "topic", c.config.Topic)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer shutting down")
			return nil

		default:
			msg, err := c.consumer.ReadMessage(1 * time.Second)
			if err != nil {
				if err.(kafka.Error).Code() == kafka.ErrTimedOut {
					continue
				}
				c.logger.Error("error reading message", "error", err)
				continue
			}
			c.processMessage(ctx, msg)
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg *kafka.Message) {
	var event Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Error("failed to parse email event",
			"error", err,
			"raw_value", string(msg.Value))
		// Commit to skip the poison message.
		c.commitMessage(msg)
		return
	}

	if event.MessageID == "" {
		c.logger.Error("email event missing message_id",
			"recipient", event.Recipient,
			"type", event.EventType)
		c.commitMessage(msg)
		return
	}

	isProcessed, err := c.idempotencyStore.IsProcessed(ctx, event.MessageID)
	if err != nil {
		// Not committed; the message will be redelivered.
		c.logger.Error("idempotency check failed",
			"messageID", event.MessageID,
			"error", err)
		return
	}
	if isProcessed {
		c.commitMessage(msg)
		return
	}

	if err := c.deliverWithRetry(event); err != nil {
		c.logger.Error("delivery failed after retries",
			"messageID", event.MessageID,
			"error", err)
		c.sendToDLQ(event, err)
		c.commitMessage(msg)
		return
	}

	success, err := c.idempotencyStore.MarkAsProcessed(ctx, event)
	if err != nil {
		c.logger.Error("failed to mark as processed",
			"messageID", event.MessageID,
			"error", err)
		return
	}
	if !success {
		c.logger.Warn("event was processed by another consumer",
			"messageID", event.MessageID)
	}

	c.commitMessage(msg)

	c.logger.Info("email event processed",
		"messageID", event.MessageID,
		"recipient", event.Recipient,
		"type", event.EventType)
}

func (c *Consumer) deliverWithRetry(event Event) error {
	maxRetries := c.config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := c.sender.Send(event); err == nil {
			return nil
		} else {
			lastErr = err
		}

		c.logger.Warn("failed to send email, will retry",
			"messageID", event.MessageID,
			"attempt", attempt,
			"error", lastErr)

		if attempt < maxRetries {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Consumer) sendToDLQ(event Event, processingError error) {
	dlqEvent := map[string]interface{}{
		"original_event": event,
		"error":          processingError.Error(),
		"failed_at":      time.Now(),
		"consumer_group": c.config.ConsumerGroup,
	}

	jsonData, err := json.Marshal(dlqEvent)
	if err != nil {
		c.logger.Error("failed to marshal DLQ event",
			"messageID", event.MessageID,
			"error", err)
		return
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &c.config.DLQTopic,
			Partition: kafka.PartitionAny,
		},
		Value: jsonData,
	}

	if err := c.dlqProducer.Produce(msg, nil); err != nil {
		c.logger.Error("failed to send to DLQ",
			"messageID", event.MessageID,
			"error", err)
		return
	}

	c.logger.Warn("email event sent to DLQ",
		"messageID", event.MessageID,
		"recipient", event.Recipient,
		"dlq_topic", c.config.DLQTopic)
}

func (c *Consumer) commitMessage(msg *kafka.Message) {
	if _, err := c.consumer.CommitMessage(msg); err != nil {
		c.logger.Error("failed to commit offset",
			"topic", *msg.TopicPartition.Topic,
			"partition", msg.TopicPartition.Partition,
			"offset", msg.TopicPartition.Offset,
			"error", err)
	}
}

// Close flushes the DLQ producer and closes the consumer.
func (c *Consumer) Close() {
	c.dlqProducer.Flush(5000)
	c.dlqProducer.Close()
	c.consumer.Close()
	c.logger.Info("Kafka consumer closed")
}
