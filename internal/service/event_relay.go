package service

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/spec-kit/smartcity-api/internal/events"
)

// Publisher sends a payload to a named channel. *persistence.Redis satisfies it.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// EventRelay logs domain events and forwards them to a pub/sub channel so staff dashboards
// can follow report activity.
type EventRelay struct {
	dispatcher events.Dispatcher
	publisher  Publisher
	channel    string
	logger     *zap.Logger
}

// NewEventRelay creates the relay. A nil publisher only logs.
func NewEventRelay(dispatcher events.Dispatcher, publisher Publisher, channel string, logger *zap.Logger) *EventRelay {
	return &EventRelay{
		dispatcher: dispatcher,
		publisher:  publisher,
		channel:    channel,
		logger:     loggerOrNop(logger),
	}
}

// RegisterHandlers subscribes to events.
func (r *EventRelay) RegisterHandlers() {
	if r.dispatcher == nil {
		return
	}
	r.dispatcher.Subscribe(events.EventUserRegistered, r.relay)
	r.dispatcher.Subscribe(events.EventReportCreated, r.relay)
	r.dispatcher.Subscribe(events.EventReportStatusChanged, r.relay)
	r.dispatcher.Subscribe(events.EventReportDeleted, r.relay)
}

func (r *EventRelay) relay(ctx context.Context, event events.Event) error {
	r.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("subject_id", event.SubjectID),
		zap.Any("payload", event.Payload))

	if r.publisher == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}
	if err := r.publisher.Publish(ctx, r.channel, payload); err != nil {
		return fmt.Errorf("publish event %s: %w", event.ID, err)
	}
	return nil
}
