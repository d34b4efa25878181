package kafka

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/ItsOrv/Telegram-Panel-sub000/config"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/ops"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/metrics"
)

// Module provides the Kafka audit publisher for fx DI
var Module = fx.Module("kafka",
	fx.Provide(
		NewAuditPublisherFx,
		AsEventPublisher,
	),
)

// NewAuditPublisherFx creates the audit publisher for batch events
func NewAuditPublisherFx(
	lc fx.Lifecycle,
	kafkaCfg *config.KafkaConfig,
	m *metrics.Metrics,
	logger zerolog.Logger,
) (*AuditPublisher, error) {
	publisher, err := NewAuditPublisher(PublisherConfig{
		Brokers: kafkaCfg.Brokers,
		Topic:   kafkaCfg.Topic,
		Logger:  logger,
		Metrics: m,
	})
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return publisher.Close()
		},
	})

	return publisher, nil
}

// AsEventPublisher exposes the publisher to the operation engine
func AsEventPublisher(p *AuditPublisher) ops.EventPublisher {
	return p
}
