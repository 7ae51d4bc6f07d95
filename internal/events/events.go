// Package events publishes booking and intent status transitions.
package events

//go:generate go run go.uber.org/mock/mockgen -source=./events.go -destination=./mocks/events_mock.go -package=mocks

import (
	"context"
	"time"

	"retreat/config"
	"retreat/infras/kafka"
	"retreat/infras/otel"
	"retreat/shared/constant"
	"retreat/shared/timezone"

	"github.com/rs/zerolog/log"
)

const (
	EntityBooking = "booking"
	EntityIntent  = "intent"

	headerEntity = "entity"
)

// StatusChanged is the payload of the booking.status_changed topic.
type StatusChanged struct {
	Entity  string    `json:"entity"`
	ID      string    `json:"id"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	EventID string    `json:"event_id,omitempty"`
	Reason  string    `json:"reason,omitempty"`
	At      time.Time `json:"at"`
}

// Publisher never fails the caller: delivery is best effort and errors are only logged.
type Publisher interface {
	StatusChanged(ctx context.Context, change StatusChanged)
}

type kafkaPublisher struct {
	client kafka.Client
	topic  string
	otel   otel.Otel
}

type noopPublisher struct{}

// New returns the kafka publisher when kafka is enabled and a no-op otherwise.
func New(cfg *config.Config, client kafka.Client, otel otel.Otel) Publisher {
	if !cfg.Kafka.Enable || client == nil {
		return noopPublisher{}
	}

	return &kafkaPublisher{
		client: client,
		topic:  cfg.Kafka.Topics.BookingStatus,
		otel:   otel,
	}
}

func (p *kafkaPublisher) StatusChanged(ctx context.Context, change StatusChanged) {
	ctx, scope := p.otel.NewScope(ctx, constant.OtelEventScopeName, constant.OtelEventScopeName+".StatusChanged")
	defer scope.End()

	if change.At.IsZero() {
		change.At = timezone.Now()
	}

	scope.SetAttributes(map[string]any{
		"event.entity": change.Entity,
		"event.id":     change.ID,
		"event.to":     change.To,
	})

	message := kafka.Message{
		Key:     change.ID,
		Value:   change,
		Headers: map[string]string{headerEntity: change.Entity},
	}

	if err := p.client.SendMessages(ctx, p.topic, message); err != nil {
		scope.TraceError(err)
		log.Warn().Err(err).Str("entity", change.Entity).Str("id", change.ID).Str("to", change.To).Msg("failed to publish status change")

		return
	}

	log.Debug().Str("entity", change.Entity).Str("id", change.ID).Str("from", change.From).Str("to", change.To).Msg("status change published")
}

func (noopPublisher) StatusChanged(_ context.Context, change StatusChanged) {
	log.Debug().Str("entity", change.Entity).Str("id", change.ID).Str("to", change.To).Msg("status change (publishing disabled)")
}
