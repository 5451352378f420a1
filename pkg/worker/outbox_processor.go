package worker

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/washbay/washbay-api/internal/model"
	"github.com/washbay/washbay-api/internal/repository"
	"github.com/washbay/washbay-api/pkg/logger"
	"github.com/washbay/washbay-api/pkg/messaging"
	"github.com/washbay/washbay-api/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize    int
	PollInterval time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// OutboxProcessor drains pending outbox events and publishes them to the
// broker. Events that keep failing past MaxRetries are marked FAILED and
// left for operator inspection.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *OutboxProcessor {
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 5
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = 30 * time.Second
	}

	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("starting outbox processor")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("shutting down outbox processor")
			return
		case <-ticker.C:
			if err := p.processBatch(ctx); err != nil {
				p.logger.Error(err, "failed to process outbox batch")
			}
		}
	}
}

func (p *OutboxProcessor) processBatch(ctx context.Context) error {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	events, err := p.repo.GetPendingWithLock(ctx, p.config.BatchSize)
	if err != nil {
		return err
	}

	for _, event := range events {
		p.processEvent(ctx, event)
	}
	return nil
}

func (p *OutboxProcessor) processEvent(ctx context.Context, event *model.OutboxEvent) {
	message := map[string]interface{}{
		"id":         event.ID,
		"tenant_id":  event.TenantID,
		"event_type": event.EventType,
		"payload":    event.Payload,
	}

	if err := p.broker.Publish(ctx, event.EventType, message); err != nil {
		p.metrics.OutboxRetries.WithLabelValues(event.EventType).Inc()

		if event.RetryCount+1 >= p.config.MaxRetries {
			p.metrics.OutboxEventsFailed.Inc()
			p.logger.Error(err, "outbox event permanently failed",
				"event_id", event.ID.String(), "event_type", event.EventType)
			if markErr := p.repo.MarkFailed(ctx, event.ID, err.Error(), nil); markErr != nil {
				p.logger.Error(markErr, "failed to mark outbox event failed", "event_id", event.ID.String())
			}
			return
		}

		// Exponential backoff keeps a flapping broker from being hammered.
		backoff := p.config.RetryBackoff * time.Duration(1<<event.RetryCount)
		retryAt := time.Now().Add(backoff)
		if markErr := p.repo.MarkFailed(ctx, event.ID, err.Error(), &retryAt); markErr != nil {
			p.logger.Error(markErr, "failed to schedule outbox retry", "event_id", event.ID.String())
		}
		return
	}

	if err := p.repo.MarkProcessed(ctx, event.ID); err != nil {
		p.logger.Error(err, "failed to mark outbox event processed", "event_id", event.ID.String())
		return
	}
	p.metrics.OutboxEventsProcessed.Inc()
}
