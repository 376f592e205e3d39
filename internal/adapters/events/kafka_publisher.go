package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/domain"
)

var (
	_ domain.EventPublisher = (*KafkaPublisher)(nil)
	_ domain.EventPublisher = (*LogPublisher)(nil)
)

const (
	defaultPublishTimeout = 3 * time.Second
	writerBatchTimeout    = 10 * time.Millisecond
	writerIOTimeout       = 2 * time.Second
	writerMaxAttempts     = 3
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher lazily manages one writer per topic. Topics are named
// "<prefix>.<event type>" and messages are keyed by user. Publish is called
// from request handlers, so every write is bounded by timeout.
type KafkaPublisher struct {
	brokers   []string
	prefix    string
	timeout   time.Duration
	logger    *logrus.Logger
	newWriter func(topic string) messageWriter

	mu      sync.Mutex
	writers map[string]messageWriter
}

func NewKafkaPublisher(brokers []string, prefix string, logger *logrus.Logger) *KafkaPublisher {
	p := &KafkaPublisher{
		brokers: brokers,
		prefix:  prefix,
		timeout: defaultPublishTimeout,
		logger:  logger,
		writers: make(map[string]messageWriter),
	}
	p.newWriter = p.kafkaWriter
	return p
}

func (p *KafkaPublisher) Topic(eventType string) string {
	if p.prefix == "" {
		return eventType
	}
	return p.prefix + "." + eventType
}

func (p *KafkaPublisher) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: encode %s: %w", event.EventType(), err)
	}

	topic := p.Topic(event.EventType())
	msg := kafka.Message{
		Key:   []byte(event.Key()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType())},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.writerForTopic(topic).WriteMessages(ctx, msg); err != nil {
		publishFailed.WithLabelValues(event.EventType()).Inc()
		return fmt.Errorf("events: publish to %s: %w", topic, err)
	}

	published.WithLabelValues(event.EventType()).Inc()
	p.logger.WithFields(logrus.Fields{
		"topic": topic,
		"key":   event.Key(),
	}).Debug("events: published")
	return nil
}

func (p *KafkaPublisher) writerForTopic(topic string) messageWriter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if writer, ok := p.writers[topic]; ok {
		return writer
	}

	writer := p.newWriter(topic)
	p.writers[topic] = writer
	return writer
}

func (p *KafkaPublisher) kafkaWriter(topic string) messageWriter {
	return &kafka.Writer{
		Addr:                   kafka.TCP(p.brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		Compression:            kafka.Snappy,
		BatchTimeout:           writerBatchTimeout,
		ReadTimeout:            writerIOTimeout,
		WriteTimeout:           writerIOTimeout,
		MaxAttempts:            writerMaxAttempts,
		AllowAutoTopicCreation: true,
	}
}

// Close releases all writers.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for topic, writer := range p.writers {
		if err := writer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.writers, topic)
	}
	return firstErr
}

// LogPublisher stands in for Kafka when no brokers are configured.
type LogPublisher struct {
	logger *logrus.Logger
}

func NewLogPublisher(logger *logrus.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event domain.Event) error {
	p.logger.WithFields(logrus.Fields{
		"event_type": event.EventType(),
		"key":        event.Key(),
	}).Info("events: broker disabled, event logged only")
	published.WithLabelValues(event.EventType()).Inc()
	return nil
}
