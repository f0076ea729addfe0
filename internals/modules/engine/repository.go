package engine

import (
	"context"
	"time"

	"watchpost/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// CheckResult is one append-only history row. StatusCode is nil for
// tcp probes and for failures that never got a reply; LatencyMs is
// nil when the probe failed before any timing was meaningful.
type CheckResult struct {
	MonitorID  uuid.UUID
	Region     string
	Success    bool
	StatusCode *int32
	LatencyMs  *int64
	CheckError string
	CheckedAt  time.Time
}

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

func (r *Repository) Append(ctx context.Context, row CheckResult) error {
	const op string = "repo.engine.append_result"

	_, err := r.pool.Exec(ctx, `
		INSERT INTO check_results (monitor_id, region, success, status_code, latency_ms, check_error, checked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		utils.ToPgUUID(row.MonitorID), row.Region, row.Success,
		utils.ToPgInt4(row.StatusCode), utils.ToPgInt8(row.LatencyMs),
		utils.ToPgText(row.CheckError), row.CheckedAt,
	)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	return nil
}

func (r *Repository) ListByMonitor(ctx context.Context, monitorID uuid.UUID, limit, offset int32) ([]CheckResult, error) {
	const op string = "repo.engine.list_results"

	rows, err := r.pool.Query(ctx, `
		SELECT monitor_id, region, success, status_code, latency_ms, COALESCE(check_error, ''), checked_at
		FROM check_results
		WHERE monitor_id = $1
		ORDER BY checked_at DESC
		LIMIT $2 OFFSET $3`,
		utils.ToPgUUID(monitorID), limit, offset,
	)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	var results []CheckResult
	for rows.Next() {
		var (
			row       CheckResult
			id        pgtype.UUID
			statusPg  pgtype.Int4
			latencyPg pgtype.Int8
		)
		if err := rows.Scan(&id, &row.Region, &row.Success, &statusPg, &latencyPg, &row.CheckError, &row.CheckedAt); err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		row.MonitorID = utils.FromPgUUID(id)
		row.StatusCode = utils.FromPgInt4(statusPg)
		row.LatencyMs = utils.FromPgInt8(latencyPg)
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	return results, nil
}
