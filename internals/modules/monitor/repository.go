package monitor

import (
	"context"
	"encoding/json"

	"watchpost/internals/modules/probe"
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

const monitorColumns = `
	id, account_id, name, kind, target, method, headers, body,
	regions, interval_sec, timeout_sec, degraded_threshold_ms,
	status, error_message, last_check_at, last_success_at, last_failure_at, enabled`

func (r *Repository) Create(ctx context.Context, cmd CreateMonitorCmd) (uuid.UUID, error) {
	const op string = "repo.monitor.create"

	headers, err := json.Marshal(cmd.Headers)
	if err != nil {
		return uuid.Nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	var id pgtype.UUID
	err = r.pool.QueryRow(ctx, `
		INSERT INTO monitors (
			account_id, name, kind, target, method, headers, body,
			regions, interval_sec, timeout_sec, degraded_threshold_ms, status, enabled
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 'initializing', true)
		RETURNING id`,
		utils.ToPgUUID(cmd.AccountID), cmd.Name, string(cmd.Kind), cmd.Target,
		cmd.Method, headers, utils.ToPgText(cmd.Body), cmd.Regions,
		cmd.IntervalSec, cmd.TimeoutSec, cmd.DegradedThresholdMs,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	return utils.FromPgUUID(id), nil
}

func (r *Repository) GetByID(ctx context.Context, monitorID uuid.UUID) (*Monitor, error) {
	const op string = "repo.monitor.get_by_id"

	row := r.pool.QueryRow(ctx,
		`SELECT `+monitorColumns+` FROM monitors WHERE id = $1`,
		utils.ToPgUUID(monitorID),
	)

	m, err := scanMonitor(row)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, true, r.logger)
	}
	return m, nil
}

func (r *Repository) GetAll(ctx context.Context, accountID uuid.UUID, limit, offset int32) ([]Monitor, error) {
	const op string = "repo.monitor.get_all"

	rows, err := r.pool.Query(ctx,
		`SELECT `+monitorColumns+`
		 FROM monitors
		 WHERE account_id = $1
		 ORDER BY name
		 LIMIT $2 OFFSET $3`,
		utils.ToPgUUID(accountID), limit, offset,
	)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	var out []Monitor
	for rows.Next() {
		m, err := scanMonitor(rows)
		if err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	return out, nil
}

// SetStatus writes an administrative status (paused, maintenance, or
// back to initializing on resume). Owner-scoped.
func (r *Repository) SetStatus(ctx context.Context, accountID, monitorID uuid.UUID, status Status) (bool, error) {
	const op string = "repo.monitor.set_status"

	tag, err := r.pool.Exec(ctx,
		`UPDATE monitors SET status = $3 WHERE id = $1 AND account_id = $2`,
		utils.ToPgUUID(monitorID), utils.ToPgUUID(accountID), string(status),
	)
	if err != nil {
		return false, utils.WrapRepoError(op, err, false, r.logger)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) SetEnabled(ctx context.Context, accountID, monitorID uuid.UUID, enabled bool) (bool, error) {
	const op string = "repo.monitor.set_enabled"

	tag, err := r.pool.Exec(ctx,
		`UPDATE monitors SET enabled = $3 WHERE id = $1 AND account_id = $2`,
		utils.ToPgUUID(monitorID), utils.ToPgUUID(accountID), enabled,
	)
	if err != nil {
		return false, utils.WrapRepoError(op, err, false, r.logger)
	}
	return tag.RowsAffected() > 0, nil
}

// ApplyCheckOutcome writes status, error message and check timestamps
// after a probe. Administrative statuses win inside the statement so
// a racing pause is never clobbered.
func (r *Repository) ApplyCheckOutcome(ctx context.Context, monitorID uuid.UUID, out CheckOutcome) error {
	const op string = "repo.monitor.apply_check_outcome"

	var successAt, failureAt pgtype.Timestamptz
	if out.Success {
		successAt = pgtype.Timestamptz{Time: out.CheckedAt, Valid: true}
	} else {
		failureAt = pgtype.Timestamptz{Time: out.CheckedAt, Valid: true}
	}

	_, err := r.pool.Exec(ctx, `
		UPDATE monitors SET
			status = CASE
				WHEN status IN ('paused', 'maintenance', 'broken') THEN status
				ELSE $2
			END,
			error_message   = $3,
			last_check_at   = $4,
			last_success_at = COALESCE($5, last_success_at),
			last_failure_at = COALESCE($6, last_failure_at)
		WHERE id = $1`,
		utils.ToPgUUID(monitorID), string(out.Status), utils.ToPgText(out.ErrorMessage),
		pgtype.Timestamptz{Time: out.CheckedAt, Valid: true}, successAt, failureAt,
	)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	return nil
}

func scanMonitor(row pgx.Row) (*Monitor, error) {
	var (
		m         Monitor
		id, accID pgtype.UUID
		kind      string
		headers   []byte
		body      pgtype.Text
		status    string
		errMsg    pgtype.Text
		lastCheck pgtype.Timestamptz
		lastOK    pgtype.Timestamptz
		lastFail  pgtype.Timestamptz
	)

	err := row.Scan(
		&id, &accID, &m.Name, &kind, &m.Target, &m.Method, &headers, &body,
		&m.Regions, &m.IntervalSec, &m.TimeoutSec, &m.DegradedThresholdMs,
		&status, &errMsg, &lastCheck, &lastOK, &lastFail, &m.Enabled,
	)
	if err != nil {
		return nil, err
	}

	m.ID = utils.FromPgUUID(id)
	m.AccountID = utils.FromPgUUID(accID)
	m.Kind = probe.Kind(kind)
	m.Body = utils.FromPgText(body)
	m.Status = Status(status)
	m.ErrorMessage = utils.FromPgText(errMsg)
	m.LastCheckAt = utils.FromPgTimestamp(lastCheck)
	m.LastSuccessAt = utils.FromPgTimestamp(lastOK)
	m.LastFailureAt = utils.FromPgTimestamp(lastFail)

	if len(headers) > 0 {
		if err := json.Unmarshal(headers, &m.Headers); err != nil {
			return nil, err
		}
	}

	return &m, nil
}
