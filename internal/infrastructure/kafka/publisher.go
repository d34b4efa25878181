package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/ops"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/metrics"
)

// maxStoredErrors bounds the error list kept for Close reporting so a
// long-running panel cannot grow it without limit.
const maxStoredErrors = 100

// AuditPublisher sends batch completion events to Kafka with an async
// producer. With no brokers configured the publisher is disabled and
// silently drops events, so the panel runs fine without Kafka.
type AuditPublisher struct {
	producer sarama.AsyncProducer
	topic    string
	logger   zerolog.Logger
	metrics  *metrics.Metrics

	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error

	mu     sync.Mutex
	closed bool
	errors []error
}

// PublisherConfig holds the audit publisher configuration.
type PublisherConfig struct {
	Brokers []string
	Topic   string
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// NewAuditPublisher creates the batch audit publisher. An empty broker
// list yields a disabled publisher rather than an error.
func NewAuditPublisher(cfg PublisherConfig) (*AuditPublisher, error) {
	logger := cfg.Logger.With().Str("component", "audit_publisher").Logger()

	if len(cfg.Brokers) == 0 {
		logger.Info().Msg("Kafka brokers not configured, audit publishing disabled")
		return &AuditPublisher{topic: cfg.Topic, logger: logger, metrics: cfg.Metrics}, nil
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}

	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.Compression = sarama.CompressionSnappy

	// idempotent mode gives at-least-once delivery with deduplication
	config.Producer.Idempotent = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Net.MaxOpenRequests = 1
	config.Producer.Retry.Max = 5

	// batches for one action kind land on one partition, keeping the
	// audit trail ordered per action
	config.Producer.Partitioner = sarama.NewHashPartitioner
	config.ClientID = "telegram-panel-audit"
	config.Version = sarama.V2_6_0_0

	producer, err := sarama.NewAsyncProducer(cfg.Brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	p := &AuditPublisher{
		producer: producer,
		topic:    cfg.Topic,
		logger:   logger,
		metrics:  cfg.Metrics,
	}

	p.wg.Add(2)
	go p.handleSuccesses()
	go p.handleErrors()

	logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Msg("Kafka audit publisher initialized")
	return p, nil
}

// Enabled reports whether events actually reach Kafka.
func (p *AuditPublisher) Enabled() bool {
	return p.producer != nil
}

// IsHealthy reports whether the producer can still accept events. A
// disabled publisher reports unhealthy; callers should check Enabled
// first when Kafka is optional.
func (p *AuditPublisher) IsHealthy() bool {
	if p.producer == nil {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	return len(p.errors) < maxStoredErrors
}

// PublishBulkCompleted queues one batch completion event. The send is
// asynchronous; delivery failures surface through the error handler and
// the close report, not here.
func (p *AuditPublisher) PublishBulkCompleted(ctx context.Context, event ops.BulkCompletedEvent) error {
	if p.producer == nil {
		return nil
	}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return fmt.Errorf("audit publisher is closed")
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal batch event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(event.Action),
		Value:     sarama.ByteEncoder(value),
		Timestamp: event.Timestamp,
	}

	select {
	case p.producer.Input() <- msg:
		p.logger.Debug().
			Str("batch_id", event.BatchID).
			Str("action", event.Action).
			Msg("Batch event queued for Kafka")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context cancelled while queueing batch event: %w", ctx.Err())
	}
}

func (p *AuditPublisher) handleSuccesses() {
	defer p.wg.Done()

	for msg := range p.producer.Successes() {
		if p.metrics != nil {
			var duration float64
			if !msg.Timestamp.IsZero() {
				duration = time.Since(msg.Timestamp).Seconds()
			}
			p.metrics.RecordKafkaMessage(duration)
		}
		p.logger.Debug().
			Str("topic", msg.Topic).
			Int32("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Msg("Batch event delivered to Kafka")
	}
}

func (p *AuditPublisher) handleErrors() {
	defer p.wg.Done()

	for producerErr := range p.producer.Errors() {
		if p.metrics != nil {
			p.metrics.RecordKafkaError("delivery_failed")
		}
		p.logger.Error().
			Err(producerErr.Err).
			Str("topic", producerErr.Msg.Topic).
			Msg("Failed to deliver batch event to Kafka")

		p.mu.Lock()
		if len(p.errors) < maxStoredErrors {
			p.errors = append(p.errors, producerErr.Err)
		}
		p.mu.Unlock()
	}
}

// Close flushes pending events and stops the handler goroutines. It is
// idempotent and reports delivery errors collected during operation.
func (p *AuditPublisher) Close() error {
	return p.CloseWithTimeout(10 * time.Second)
}

// CloseWithTimeout is Close with a custom flush deadline.
func (p *AuditPublisher) CloseWithTimeout(timeout time.Duration) error {
	if p.producer == nil {
		return nil
	}

	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()

		var errs []error
		if err := p.producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("producer close failed: %w", err))
		}

		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(timeout):
			errs = append(errs, fmt.Errorf("close timeout after %s", timeout))
		}

		p.mu.Lock()
		if len(p.errors) > 0 {
			errs = append(errs, fmt.Errorf("publisher had %d delivery errors", len(p.errors)))
		}
		p.mu.Unlock()

		if len(errs) > 0 {
			p.closeErr = errs[0]
			for _, err := range errs[1:] {
				p.closeErr = fmt.Errorf("%v; %w", p.closeErr, err)
			}
			p.logger.Error().Err(p.closeErr).Msg("Kafka audit publisher closed with errors")
		} else {
			p.logger.Info().Msg("Kafka audit publisher closed")
		}
	})
	return p.closeErr
}
