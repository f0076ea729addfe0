package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RecordStore persists per-channel dispatch outcomes so a recovery
// can find the correlation handles its down dispatch produced.
type RecordStore interface {
	SaveOutcome(ctx context.Context, incidentID uuid.UUID, kind EventKind, out Outcome) error
	DownOutcomes(ctx context.Context, incidentID uuid.UUID) (map[Channel]Outcome, error)
}

// Dispatcher fans one incident event out to every configured channel
// concurrently. Channel failures are isolated: they are logged,
// recorded, and never abort the other channels or the caller.
type Dispatcher struct {
	senders []Sender
	records RecordStore
	logger  *zerolog.Logger
}

func NewDispatcher(records RecordStore, logger *zerolog.Logger, senders ...Sender) *Dispatcher {
	return &Dispatcher{
		senders: senders,
		records: records,
		logger:  logger,
	}
}

// NotifyDown dispatches a down event and records each channel's
// outcome, correlation handles included.
func (d *Dispatcher) NotifyDown(ctx context.Context, set Settings, ev Event) map[Channel]Outcome {
	return d.fanOut(ctx, set, ev, EventDown, nil)
}

// NotifyRecovery dispatches a recovery event. Channels whose down
// dispatch produced a correlation handle resolve that handle instead
// of creating new external state.
func (d *Dispatcher) NotifyRecovery(ctx context.Context, set Settings, ev Event) map[Channel]Outcome {
	prior, err := d.records.DownOutcomes(ctx, ev.IncidentID)
	if err != nil {
		// Without the handles the recovery still goes out, it just
		// cannot correlate.
		d.logger.Error().
			Err(err).
			Str("incident_id", ev.IncidentID.String()).
			Msg("failed to load prior dispatch outcomes")
		prior = nil
	}
	return d.fanOut(ctx, set, ev, EventRecovered, prior)
}

func (d *Dispatcher) fanOut(ctx context.Context, set Settings, ev Event, kind EventKind, prior map[Channel]Outcome) map[Channel]Outcome {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	outcomes := make(map[Channel]Outcome)

	for _, sender := range d.senders {
		if !sender.Configured(set) {
			continue
		}

		wg.Add(1)
		go func(sender Sender) {
			defer wg.Done()

			out := Outcome{Channel: sender.Channel()}
			var err error
			switch kind {
			case EventDown:
				out.Handle, err = sender.SendDown(ctx, set, ev)
			default:
				out.Handle = prior[sender.Channel()].Handle
				err = sender.SendRecovery(ctx, set, ev, out.Handle)
			}

			if err != nil {
				out.Err = err.Error()
				d.logger.Warn().
					Err(err).
					Str("channel", string(sender.Channel())).
					Str("incident_id", ev.IncidentID.String()).
					Str("event", string(kind)).
					Msg("notification channel failed")
			} else {
				out.OK = true
			}

			if rerr := d.records.SaveOutcome(ctx, ev.IncidentID, kind, out); rerr != nil {
				d.logger.Error().
					Err(rerr).
					Str("channel", string(sender.Channel())).
					Str("incident_id", ev.IncidentID.String()).
					Msg("failed to record dispatch outcome")
			}

			mu.Lock()
			outcomes[sender.Channel()] = out
			mu.Unlock()
		}(sender)
	}

	wg.Wait()
	return outcomes
}
