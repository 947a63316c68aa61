package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))
	assert.ErrorIs(t, mapError(pgx.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, mapError(fmt.Errorf("scan: %w", pgx.ErrNoRows)), ErrNotFound)

	dup := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	mapped := mapError(dup)
	assert.ErrorIs(t, mapped, ErrDuplicate)
	assert.ErrorAs(t, mapped, new(*pgconn.PgError))
	assert.Contains(t, mapped.Error(), "users_email_key")

	fk := &pgconn.PgError{Code: "23503"}
	assert.NotErrorIs(t, mapError(fk), ErrDuplicate)

	other := errors.New("connection reset")
	assert.Equal(t, other, mapError(other))
}
