package domain

import "time"

// User is the persisted account record.
type User struct {
	ID           int64
	FirstName    *string
	LastName     *string
	UserName     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	IsActive     bool
}

// NewUser carries the fields required to insert a user.
type NewUser struct {
	FirstName    *string
	LastName     *string
	UserName     string
	Email        string
	PasswordHash string
}
