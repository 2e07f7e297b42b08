package taskpg

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/29rl/task-manager-fullstack/internal/errors"
	"github.com/29rl/task-manager-fullstack/tasks"
)

// PostgresTaskRepo implements tasks.Repo on top of pgx. Ownership scoping
// happens in the WHERE clause of every statement, not in application code.
type PostgresTaskRepo struct {
	pool *pgxpool.Pool
}

var _ tasks.Repo = (*PostgresTaskRepo)(nil)

func NewPostgresTaskRepo(pool *pgxpool.Pool) *PostgresTaskRepo {
	return &PostgresTaskRepo{pool: pool}
}

func (tr *PostgresTaskRepo) Create(task *tasks.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	_, err := tr.pool.Exec(context.Background(), `
		INSERT INTO tasks (id, owner_id, title, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, task.ID, task.OwnerID, task.Title, task.Description, string(task.Status), task.CreatedAt, task.UpdatedAt)
	return err
}

func (tr *PostgresTaskRepo) GetByID(ownerID, taskID string) (*tasks.Task, error) {
	var task tasks.Task
	err := tr.pool.QueryRow(context.Background(), `
		SELECT id, owner_id, title, description, status, created_at, updated_at
		FROM tasks
		WHERE owner_id = $1 AND id = $2
	`, ownerID, taskID).Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (tr *PostgresTaskRepo) ListByOwner(ownerID string) ([]*tasks.Task, error) {
	rows, err := tr.pool.Query(context.Background(), `
		SELECT id, owner_id, title, description, status, created_at, updated_at
		FROM tasks
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*tasks.Task, 0)
	for rows.Next() {
		var task tasks.Task
		if err := rows.Scan(
			&task.ID,
			&task.OwnerID,
			&task.Title,
			&task.Description,
			&task.Status,
			&task.CreatedAt,
			&task.UpdatedAt,
		); err != nil {
			return nil, err
		}
		list = append(list, &task)
	}
	return list, rows.Err()
}

func (tr *PostgresTaskRepo) Update(task *tasks.Task) error {
	tag, err := tr.pool.Exec(context.Background(), `
		UPDATE tasks
		SET title = $3, description = $4, status = $5, updated_at = $6
		WHERE owner_id = $1 AND id = $2
	`, task.OwnerID, task.ID, task.Title, task.Description, string(task.Status), task.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (tr *PostgresTaskRepo) Delete(ownerID, taskID string) error {
	tag, err := tr.pool.Exec(context.Background(), `
		DELETE FROM tasks WHERE owner_id = $1 AND id = $2
	`, ownerID, taskID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
