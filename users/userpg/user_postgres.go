package userpg

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/29rl/task-manager-fullstack/internal/errors"
	"github.com/29rl/task-manager-fullstack/users"
)

// PostgresUserRepo implements users.UserRepo on top of pgx.
type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

var _ users.UserRepo = (*PostgresUserRepo)(nil)

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

const userColumns = `id, username, email, password_hash, first_name, last_name, date_joined, last_login`

func (ur *PostgresUserRepo) Upsert(user *users.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	_, err := ur.pool.Exec(context.Background(), `
		INSERT INTO users (id, username, email, password_hash, first_name, last_name, date_joined, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			last_login = EXCLUDED.last_login
	`, user.ID, user.Username, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.DateJoined, nullTime(user.LastLogin))
	return err
}

func (ur *PostgresUserRepo) Delete(username string) error {
	tag, err := ur.pool.Exec(context.Background(), `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (ur *PostgresUserRepo) GetByUsername(username string) (*users.User, error) {
	return ur.getBy(`username = $1`, username)
}

func (ur *PostgresUserRepo) GetByEmail(email string) (*users.User, error) {
	return ur.getBy(`email = $1`, email)
}

func (ur *PostgresUserRepo) GetByID(id string) (*users.User, error) {
	return ur.getBy(`id = $1`, id)
}

func (ur *PostgresUserRepo) SetLastLogin(id string, lastLogin time.Time) error {
	tag, err := ur.pool.Exec(context.Background(), `
		UPDATE users SET last_login = $2 WHERE id = $1
	`, id, lastLogin)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (ur *PostgresUserRepo) getBy(where string, arg any) (*users.User, error) {
	var (
		user      users.User
		lastLogin *time.Time
	)
	err := ur.pool.QueryRow(context.Background(), `
		SELECT `+userColumns+` FROM users WHERE `+where,
		arg,
	).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.DateJoined,
		&lastLogin,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastLogin != nil {
		user.LastLogin = *lastLogin
	}
	return &user, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
