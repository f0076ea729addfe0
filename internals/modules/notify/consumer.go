package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// SettingsSource resolves one account's channel configuration. The
// account service provides this.
type SettingsSource interface {
	NotificationSettings(ctx context.Context, accountID uuid.UUID) (Settings, error)
}

// EventHandler consumes incident events off the broker and hands them
// to the dispatcher. Returning an error nacks the delivery for a
// redelivery attempt.
type EventHandler struct {
	dispatcher *Dispatcher
	settings   SettingsSource
	logger     *zerolog.Logger
}

func NewEventHandler(dispatcher *Dispatcher, settings SettingsSource, logger *zerolog.Logger) *EventHandler {
	return &EventHandler{
		dispatcher: dispatcher,
		settings:   settings,
		logger:     logger,
	}
}

func (h *EventHandler) Handle(ctx context.Context, msg amqp091.Delivery) error {
	var ev Event
	if err := json.Unmarshal(msg.Body, &ev); err != nil {
		// poison message, redelivery cannot fix it
		h.logger.Error().Err(err).Msg("dropping undecodable incident event")
		return nil
	}

	set, err := h.settings.NotificationSettings(ctx, ev.AccountID)
	if err != nil {
		return fmt.Errorf("load notification settings: %w", err)
	}

	var outcomes map[Channel]Outcome
	switch ev.Kind {
	case EventDown:
		outcomes = h.dispatcher.NotifyDown(ctx, set, ev)
	case EventRecovered:
		outcomes = h.dispatcher.NotifyRecovery(ctx, set, ev)
	default:
		h.logger.Error().Str("kind", string(ev.Kind)).Msg("dropping incident event of unknown kind")
		return nil
	}

	h.logger.Info().
		Str("incident_id", ev.IncidentID.String()).
		Str("event", string(ev.Kind)).
		Int("channels", len(outcomes)).
		Msg("incident event dispatched")
	return nil
}
