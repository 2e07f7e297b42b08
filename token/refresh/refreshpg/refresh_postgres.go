package refreshpg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/29rl/task-manager-fullstack/internal/errors"
	"github.com/29rl/task-manager-fullstack/token/refresh"
)

// PostgresRefreshTokenRepo implements refresh.Repo on top of pgx.
type PostgresRefreshTokenRepo struct {
	pool *pgxpool.Pool
}

var _ refresh.Repo = (*PostgresRefreshTokenRepo)(nil)

func NewPostgresRefreshTokenRepo(pool *pgxpool.Pool) *PostgresRefreshTokenRepo {
	return &PostgresRefreshTokenRepo{pool: pool}
}

func (tr *PostgresRefreshTokenRepo) Upsert(refreshToken *refresh.StoredRefreshToken) error {
	_, err := tr.pool.Exec(context.Background(), `
		INSERT INTO refresh_tokens (token, user_id, issued_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			issued_at = EXCLUDED.issued_at
	`, refreshToken.Token, refreshToken.UserID, refreshToken.Iat)
	return err
}

func (tr *PostgresRefreshTokenRepo) Delete(token string) error {
	tag, err := tr.pool.Exec(context.Background(), `
		DELETE FROM refresh_tokens WHERE token = $1
	`, token)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (tr *PostgresRefreshTokenRepo) Get(token string) (*refresh.StoredRefreshToken, error) {
	return tr.getBy(`token = $1`, token)
}

func (tr *PostgresRefreshTokenRepo) GetByUserID(userID string) (*refresh.StoredRefreshToken, error) {
	return tr.getBy(`user_id = $1`, userID)
}

func (tr *PostgresRefreshTokenRepo) getBy(where string, arg any) (*refresh.StoredRefreshToken, error) {
	var rt refresh.StoredRefreshToken
	err := tr.pool.QueryRow(context.Background(), `
		SELECT token, user_id, issued_at FROM refresh_tokens WHERE `+where,
		arg,
	).Scan(&rt.Token, &rt.UserID, &rt.Iat)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rt, nil
}
