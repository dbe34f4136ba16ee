// Package kafka wraps the Confluent client for the platform's event
// pipeline. The users service produces email events; the email service
// consumes them.
package kafka

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// Producer publishes JSON-encoded events.
type Producer struct {
	producer *kafka.Producer
	config   *Config
	logger   *slog.Logger
}

// NewProducer creates an idempotent producer.
func NewProducer(config *Config, logger *slog.Logger) (*Producer, error) {
	producerConfig := &kafka.ConfigMap{
		"bootstrap.servers":                     config.Brokers,
		"enable.idempotence":                    config.EnableIdempotence,
		"acks":                                  config.Acks,
		"max.in.flight.requests.per.connection": 5,
		"retries":                               2147483647,
	}

	p, err := kafka.NewProducer(producerConfig)
	if err != nil {
		return nil, fmt.Errorf("create producer: %w", err)
	}

	producer := &Producer{
		producer: p,
		config:   config,
		logger:   logger,
	}

	go producer.handleDeliveryReports()

	logger.Info("Kafka producer initialized",
		"brokers", config.Brokers,
		"idempotence", config.EnableIdempotence)

	return producer, nil
}

// Publish serializes the event to JSON and produces it asynchronously.
// Delivery failures surface through the delivery report handler.
func (p *Producer) Publish(topic string, event any) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Value: jsonData,
	}

	if err := p.producer.Produce(msg, nil); err != nil {
		return fmt.Errorf("produce message: %w", err)
	}

	p.logger.Debug("event published", "topic", topic, "size", len(jsonData))
	return nil
}

// PublishSync publishes and blocks until the broker confirms delivery.
func (p *Producer) PublishSync(topic string, event any) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Value: jsonData,
	}

	deliveryChan := make(chan kafka.Event)
	if err := p.producer.Produce(msg, deliveryChan); err != nil {
		close(deliveryChan)
		return fmt.Errorf("produce message: %w", err)
	}

	e := <-deliveryChan
	close(deliveryChan)

	m := e.(*kafka.Message)
	if m.TopicPartition.Error != nil {
		return fmt.Errorf("delivery failed: %w", m.TopicPartition.Error)
	}

	p.logger.Info("event delivered",
		"topic", *m.TopicPartition.Topic,
		"partition", m.TopicPartition.Partition,
		"offset", m.TopicPartition.Offset)
	return nil
}

func (p *Producer) handleDeliveryReports() {
	for e := range p.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				p.logger.Error("delivery failed",
					"topic", *ev.TopicPartition.Topic,
					"error", ev.TopicPartition.Error)
			}
		}
	}
}

// Flush waits for outstanding messages to be delivered.
func (p *Producer) Flush(timeoutMs int) int {
	remaining := p.producer.Flush(timeoutMs)
	if remaining > 0 {
		p.logger.Warn("failed to flush all messages", "remaining", remaining)
	}
	return remaining
}

// Close flushes and releases the underlying producer.
func (p *Producer) Close() {
	remaining := p.Flush(10000)
	if remaining > 0 {
		p.logger.Error("some messages were not delivered", "count", remaining)
	}
	p.producer.Close()
	p.logger.Info("Kafka producer closed")
}
