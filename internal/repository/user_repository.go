package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/userauth-service/internal/domain"
)

// UserRepository defines persistence access for users.
type UserRepository interface {
	Insert(ctx context.Context, user domain.NewUser) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, first_name, last_name, user_name, email, password_hash, created_at, updated_at, is_active`

// Insert returns ErrDuplicate when the email or user name is already taken.
func (r *userRepository) Insert(ctx context.Context, user domain.NewUser) (*domain.User, error) {
	const query = `
        INSERT INTO users (first_name, last_name, user_name, email, password_hash, is_active)
        VALUES ($1, $2, $3, $4, $5, TRUE)
        RETURNING ` + userColumns

	row := r.pool.QueryRow(ctx, query,
		user.FirstName,
		user.LastName,
		user.UserName,
		user.Email,
		user.PasswordHash,
	)
	created, err := scanUser(row)
	if err != nil {
		return nil, mapError(err)
	}
	return created, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email=$1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, mapError(err)
	}
	return user, nil
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id=$1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.UserName,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.IsActive,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
