package notify

import (
	"context"

	"watchpost/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Repository stores per-channel dispatch outcomes. One row per
// (incident, channel, event); retried dispatches overwrite in place.
type Repository struct {
	pool   *pgxpool.Pool
	logger *zerolog.Logger
}

func NewRepository(pool *pgxpool.Pool, logger *zerolog.Logger) *Repository {
	return &Repository{
		pool:   pool,
		logger: logger,
	}
}

func (r *Repository) SaveOutcome(ctx context.Context, incidentID uuid.UUID, kind EventKind, out Outcome) error {
	const op string = "repo.notify.save_outcome"

	_, err := r.pool.Exec(ctx, `
		INSERT INTO notification_dispatches (incident_id, channel, event, ok, handle, err)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (incident_id, channel, event)
		DO UPDATE SET ok = EXCLUDED.ok, handle = EXCLUDED.handle, err = EXCLUDED.err, updated_at = now()`,
		utils.ToPgUUID(incidentID), string(out.Channel), string(kind),
		out.OK, utils.ToPgText(out.Handle), utils.ToPgText(out.Err),
	)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	return nil
}

func (r *Repository) DownOutcomes(ctx context.Context, incidentID uuid.UUID) (map[Channel]Outcome, error) {
	const op string = "repo.notify.down_outcomes"

	rows, err := r.pool.Query(ctx, `
		SELECT channel, ok, COALESCE(handle, ''), COALESCE(err, '')
		FROM notification_dispatches
		WHERE incident_id = $1 AND event = $2`,
		utils.ToPgUUID(incidentID), string(EventDown),
	)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	outcomes := make(map[Channel]Outcome)
	for rows.Next() {
		var out Outcome
		var channel string
		if err := rows.Scan(&channel, &out.OK, &out.Handle, &out.Err); err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		out.Channel = Channel(channel)
		outcomes[out.Channel] = out
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	return outcomes, nil
}
