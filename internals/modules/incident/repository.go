package incident

import (
	"context"
	"errors"
	"time"

	"watchpost/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

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

const incidentColumns = `
	id, monitor_id, started_at, notified_at, acknowledged_at, resolved_at,
	regions_affected, downtime_duration_ms, error_message, screenshot_url`

func (r *Repository) GetOpenByMonitor(ctx context.Context, monitorID uuid.UUID) (*Incident, error) {
	const op string = "repo.incident.get_open_by_monitor"

	row := r.pool.QueryRow(ctx,
		`SELECT `+incidentColumns+`
		 FROM incidents
		 WHERE monitor_id = $1 AND resolved_at IS NULL`,
		utils.ToPgUUID(monitorID),
	)

	inc, err := scanIncident(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	return inc, nil
}

// CreateOpen inserts a new open incident unless one already exists for
// the monitor. The conditional insert rides on the partial unique
// index over (monitor_id) WHERE resolved_at IS NULL, so two racing
// region reports can never double-open. Returns the incident and
// whether this call created it.
func (r *Repository) CreateOpen(ctx context.Context, monitorID uuid.UUID, region, errMsg string, startedAt time.Time) (*Incident, bool, error) {
	const op string = "repo.incident.create_open"

	row := r.pool.QueryRow(ctx, `
		INSERT INTO incidents (monitor_id, started_at, regions_affected, error_message)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (monitor_id) WHERE resolved_at IS NULL DO NOTHING
		RETURNING `+incidentColumns,
		utils.ToPgUUID(monitorID),
		utils.ToPgTimestamp(&startedAt),
		[]string{region},
		utils.ToPgText(errMsg),
	)

	inc, err := scanIncident(row)
	if err == nil {
		return inc, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, utils.WrapRepoError(op, err, false, r.logger)
	}

	// Conflict: somebody else opened it first. Hand that one back.
	existing, err := r.GetOpenByMonitor(ctx, monitorID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// AddRegion unions the region into the affected set. The update is a
// set union computed inside the statement, so concurrent extensions
// never lose each other and duplicate reports are no-ops.
func (r *Repository) AddRegion(ctx context.Context, incidentID uuid.UUID, region string) ([]string, error) {
	const op string = "repo.incident.add_region"

	var regions []string
	err := r.pool.QueryRow(ctx, `
		UPDATE incidents
		SET regions_affected = (
			SELECT array_agg(DISTINCT r ORDER BY r)
			FROM unnest(regions_affected || $2::text) AS r
		)
		WHERE id = $1 AND resolved_at IS NULL
		RETURNING regions_affected`,
		utils.ToPgUUID(incidentID), region,
	).Scan(&regions)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // already resolved elsewhere
		}
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	return regions, nil
}

// RemoveRegion takes the region out of the affected set and returns
// what is left. An empty result means the caller must resolve.
func (r *Repository) RemoveRegion(ctx context.Context, incidentID uuid.UUID, region string) ([]string, error) {
	const op string = "repo.incident.remove_region"

	var regions []string
	err := r.pool.QueryRow(ctx, `
		UPDATE incidents
		SET regions_affected = array_remove(regions_affected, $2)
		WHERE id = $1 AND resolved_at IS NULL
		RETURNING regions_affected`,
		utils.ToPgUUID(incidentID), region,
	).Scan(&regions)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	return regions, nil
}

// Resolve closes the incident. Conditional on it still being open so
// the resolving transition happens exactly once.
func (r *Repository) Resolve(ctx context.Context, incidentID uuid.UUID, resolvedAt time.Time, downtimeMs int64) (bool, error) {
	const op string = "repo.incident.resolve"

	tag, err := r.pool.Exec(ctx, `
		UPDATE incidents
		SET resolved_at = $2, downtime_duration_ms = $3
		WHERE id = $1 AND resolved_at IS NULL`,
		utils.ToPgUUID(incidentID),
		utils.ToPgTimestamp(&resolvedAt),
		downtimeMs,
	)
	if err != nil {
		return false, utils.WrapRepoError(op, err, false, r.logger)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) SetNotified(ctx context.Context, incidentID uuid.UUID, at time.Time) error {
	const op string = "repo.incident.set_notified"

	_, err := r.pool.Exec(ctx, `
		UPDATE incidents SET notified_at = $2
		WHERE id = $1 AND notified_at IS NULL`,
		utils.ToPgUUID(incidentID),
		pgtype.Timestamptz{Time: at, Valid: true},
	)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	return nil
}

func (r *Repository) SetAcknowledged(ctx context.Context, incidentID uuid.UUID, at time.Time) (bool, error) {
	const op string = "repo.incident.set_acknowledged"

	tag, err := r.pool.Exec(ctx, `
		UPDATE incidents SET acknowledged_at = $2
		WHERE id = $1 AND acknowledged_at IS NULL AND resolved_at IS NULL`,
		utils.ToPgUUID(incidentID),
		pgtype.Timestamptz{Time: at, Valid: true},
	)
	if err != nil {
		return false, utils.WrapRepoError(op, err, false, r.logger)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) AttachScreenshot(ctx context.Context, incidentID uuid.UUID, url string) error {
	const op string = "repo.incident.attach_screenshot"

	_, err := r.pool.Exec(ctx,
		`UPDATE incidents SET screenshot_url = $2 WHERE id = $1`,
		utils.ToPgUUID(incidentID), utils.ToPgText(url),
	)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, incidentID uuid.UUID) (*Incident, error) {
	const op string = "repo.incident.get_by_id"

	row := r.pool.QueryRow(ctx,
		`SELECT `+incidentColumns+` FROM incidents WHERE id = $1`,
		utils.ToPgUUID(incidentID),
	)

	inc, err := scanIncident(row)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, true, r.logger)
	}
	return inc, nil
}

func (r *Repository) ListByMonitor(ctx context.Context, monitorID uuid.UUID, limit, offset int32) ([]Incident, error) {
	const op string = "repo.incident.list_by_monitor"

	rows, err := r.pool.Query(ctx,
		`SELECT `+incidentColumns+`
		 FROM incidents
		 WHERE monitor_id = $1
		 ORDER BY started_at DESC
		 LIMIT $2 OFFSET $3`,
		utils.ToPgUUID(monitorID), limit, offset,
	)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	var out []Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		out = append(out, *inc)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	return out, nil
}

func scanIncident(row pgx.Row) (*Incident, error) {
	var (
		inc        Incident
		id, monID  pgtype.UUID
		startedAt  pgtype.Timestamptz
		notified   pgtype.Timestamptz
		acked      pgtype.Timestamptz
		resolved   pgtype.Timestamptz
		downtime   pgtype.Int8
		errMsg     pgtype.Text
		screenshot pgtype.Text
	)

	err := row.Scan(
		&id, &monID, &startedAt, &notified, &acked, &resolved,
		&inc.RegionsAffected, &downtime, &errMsg, &screenshot,
	)
	if err != nil {
		return nil, err
	}

	inc.ID = utils.FromPgUUID(id)
	inc.MonitorID = utils.FromPgUUID(monID)
	inc.StartedAt = startedAt.Time
	inc.NotifiedAt = utils.FromPgTimestamp(notified)
	inc.AcknowledgedAt = utils.FromPgTimestamp(acked)
	inc.ResolvedAt = utils.FromPgTimestamp(resolved)
	inc.DowntimeMs = utils.FromPgInt8(downtime)
	inc.ErrorMessage = utils.FromPgText(errMsg)
	inc.ScreenshotURL = utils.FromPgText(screenshot)

	return &inc, nil
}
