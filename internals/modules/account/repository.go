package account

import (
	"context"
	"encoding/json"

	"watchpost/internals/modules/notify"
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

func (r *Repository) Create(ctx context.Context, name, email, passwordHash string) (uuid.UUID, error) {
	const op string = "repo.account.create"

	var id pgtype.UUID
	err := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (name, email, password_hash, notification_settings)
		VALUES ($1, $2, $3, '{}'::jsonb)
		RETURNING id`,
		name, email, passwordHash,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	return utils.FromPgUUID(id), nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	const op string = "repo.account.get_by_email"

	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, notification_settings
		FROM accounts
		WHERE email = $1`,
		email,
	)
	return scanAccount(row, op, r.logger)
}

func (r *Repository) GetByID(ctx context.Context, accountID uuid.UUID) (*Account, error) {
	const op string = "repo.account.get_by_id"

	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, notification_settings
		FROM accounts
		WHERE id = $1`,
		utils.ToPgUUID(accountID),
	)
	return scanAccount(row, op, r.logger)
}

func (r *Repository) UpdateNotificationSettings(ctx context.Context, accountID uuid.UUID, settings notify.Settings) error {
	const op string = "repo.account.update_notification_settings"

	raw, err := json.Marshal(settings)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE accounts SET notification_settings = $2 WHERE id = $1`,
		utils.ToPgUUID(accountID), raw,
	)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	if tag.RowsAffected() == 0 {
		return utils.WrapRepoError(op, pgx.ErrNoRows, true, r.logger)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner, op string, logger *zerolog.Logger) (*Account, error) {
	var (
		a   Account
		id  pgtype.UUID
		raw []byte
	)
	if err := row.Scan(&id, &a.Name, &a.Email, &a.PasswordHash, &raw); err != nil {
		return nil, utils.WrapRepoError(op, err, true, logger)
	}
	a.ID = utils.FromPgUUID(id)

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &a.NotificationSettings); err != nil {
			return nil, utils.WrapRepoError(op, err, false, logger)
		}
	}
	return &a, nil
}
