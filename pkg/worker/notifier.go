package worker

import (
	"context"
	"encoding/json"

	"github.com/washbay/washbay-api/internal/email"
	"github.com/washbay/washbay-api/internal/model"
	"github.com/washbay/washbay-api/internal/repository"
	"github.com/washbay/washbay-api/pkg/logger"
	"github.com/washbay/washbay-api/pkg/messaging"
)

// NotificationWorker consumes billing and loyalty events off the broker and
// turns them into customer emails. Delivery failures are logged and dropped;
// the outbox already guaranteed the event itself was not lost.
type NotificationWorker struct {
	broker    messaging.Broker
	customers repository.CustomerRepository
	sender    email.Sender
	logger    *logger.Logger
}

func NewNotificationWorker(
	broker messaging.Broker,
	customers repository.CustomerRepository,
	sender email.Sender,
	logger *logger.Logger,
) *NotificationWorker {
	return &NotificationWorker{
		broker:    broker,
		customers: customers,
		sender:    sender,
		logger:    logger,
	}
}

// envelope matches the message shape published by the outbox processor.
type envelope struct {
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
}

func (w *NotificationWorker) Start(ctx context.Context) error {
	channels := []string{
		model.EventReceiptCreated,
		model.EventInvoiceCreated,
		model.EventInvoiceSent,
		model.EventTierChanged,
	}

	for _, channel := range channels {
		messages, err := w.broker.Subscribe(ctx, channel)
		if err != nil {
			return err
		}
		go w.consume(ctx, channel, messages)
	}

	w.logger.Info("notification worker started", "channels", len(channels))
	<-ctx.Done()
	return nil
}

func (w *NotificationWorker) consume(ctx context.Context, channel string, messages <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-messages:
			if !ok {
				return
			}
			if err := w.handle(ctx, raw); err != nil {
				w.logger.Error(err, "failed to handle notification", "channel", channel)
			}
		}
	}
}

func (w *NotificationWorker) handle(ctx context.Context, raw []byte) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}

	switch env.EventType {
	case model.EventReceiptCreated, model.EventInvoiceCreated, model.EventInvoiceSent:
		var payload model.DocumentReadyPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return err
		}
		customer, err := w.customers.Get(ctx, payload.TenantID, payload.CustomerID)
		if err != nil {
			return err
		}
		if customer == nil || customer.Email == nil || *customer.Email == "" {
			w.logger.Debug("customer has no email, skipping notification",
				"customer_id", payload.CustomerID.String())
			return nil
		}
		return w.sender.SendDocumentReady(*customer.Email, payload.DocumentType, payload.DocumentNumber, payload.Total)

	case model.EventTierChanged:
		var payload model.TierChangedPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return err
		}
		customer, err := w.customers.Get(ctx, payload.TenantID, payload.CustomerID)
		if err != nil {
			return err
		}
		if customer == nil || customer.Email == nil || *customer.Email == "" {
			return nil
		}
		oldTier := "none"
		if payload.OldTier != nil {
			oldTier = string(*payload.OldTier)
		}
		return w.sender.SendTierChanged(*customer.Email, oldTier, string(payload.NewTier))

	default:
		w.logger.Debug("ignoring unknown event type", "event_type", env.EventType)
		return nil
	}
}
