package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/foodstand/internal/domain"
)

// metadataClient: часть sarama.Client, нужная для проверки доступности брокеров.
type metadataClient interface {
	RefreshMetadata(topics ...string) error
	Close() error
}

// Producer публикует события заказов в Kafka.
type Producer struct {
	producer sarama.SyncProducer
	client   metadataClient
	topic    string
	logger   *log.Entry
}

// NewProducer создает новый Kafka producer. Пустой topic заменяется на TopicOrderEvents.
func NewProducer(brokers []string, topic string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are not configured")
	}

	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1 // обязательно для idempotent producer

	client, err := sarama.NewClient(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}
	producer, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return newProducer(producer, client, topic), nil
}

func newProducer(producer sarama.SyncProducer, client metadataClient, topic string) *Producer {
	if topic == "" {
		topic = TopicOrderEvents
	}
	return &Producer{
		producer: producer,
		client:   client,
		topic:    topic,
		logger:   log.WithField("component", "kafka-producer"),
	}
}

// Topic возвращает topic, в который пишет producer.
func (p *Producer) Topic() string {
	return p.topic
}

// PublishOrderEvent реализует domain.EventPublisher.
func (p *Producer) PublishOrderEvent(ctx context.Context, eventType domain.OrderEventType, order domain.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p == nil {
		return errors.New("kafka producer is not initialized")
	}
	event := NewOrderEvent(eventType, order)
	headers := []sarama.RecordHeader{
		{Key: []byte(HeaderEventID), Value: []byte(event.EventID)},
		{Key: []byte(HeaderEventType), Value: []byte(event.EventType)},
	}
	return p.publish(p.topic, event.Key(), event, headers)
}

// Ping обновляет метаданные кластера; используется readiness-проверкой.
func (p *Producer) Ping(ctx context.Context) error {
	if p == nil || p.client == nil {
		return errors.New("kafka producer is not initialized")
	}

	done := make(chan error, 1)
	go func() {
		done <- p.client.RefreshMetadata()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("refresh kafka metadata: %w", err)
		}
		return nil
	}
}

func (p *Producer) publish(topic, key string, event any, headers []sarama.RecordHeader) error {
	if p == nil || p.producer == nil {
		return errors.New("kafka producer is not initialized")
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(key),
		Value:     sarama.ByteEncoder(eventData),
		Headers:   headers,
		Timestamp: time.Now(),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).WithFields(log.Fields{
			"topic": topic,
			"key":   key,
		}).Error("failed to send message to kafka")
		return fmt.Errorf("failed to send message: %w", err)
	}

	p.logger.WithFields(log.Fields{
		"topic":     topic,
		"key":       key,
		"partition": partition,
		"offset":    offset,
	}).Debug("message sent to kafka")

	return nil
}

// Close закрывает producer, затем клиент, из которого он создан.
func (p *Producer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}
	if p.client != nil {
		if err := p.client.Close(); err != nil && !errors.Is(err, sarama.ErrClosedClient) {
			return fmt.Errorf("failed to close kafka client: %w", err)
		}
	}
	return nil
}

var _ domain.EventPublisher = (*Producer)(nil)
