package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/userauth-service/internal/domain"
)

// TaskRepository defines persistence access for tasks.
type TaskRepository interface {
	Insert(ctx context.Context, task *domain.Task) error
	FindByID(ctx context.Context, id int64) (*domain.Task, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Task, error)
	Delete(ctx context.Context, id int64) error
}

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation.
func NewTaskRepository(pool *pgxpool.Pool) TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) Insert(ctx context.Context, task *domain.Task) error {
	const query = `
        INSERT INTO tasks (title, description, user_id)
        VALUES ($1, $2, $3)
        RETURNING id`

	err := r.pool.QueryRow(ctx, query, task.Title, task.Description, task.UserID).Scan(&task.ID)
	return mapError(err)
}

func (r *taskRepository) FindByID(ctx context.Context, id int64) (*domain.Task, error) {
	const query = `SELECT id, title, description, user_id FROM tasks WHERE id=$1`

	var task domain.Task
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.UserID,
	); err != nil {
		return nil, mapError(err)
	}
	return &task, nil
}

func (r *taskRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Task, error) {
	const query = `SELECT id, title, description, user_id FROM tasks WHERE user_id=$1 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, mapError(err)
	}
	tasks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Task, error) {
		var task domain.Task
		err := row.Scan(&task.ID, &task.Title, &task.Description, &task.UserID)
		return task, err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return tasks, nil
}

func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id=$1`, id)
	if err != nil {
		return mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
