package dto

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/spec-kit/userauth-service/internal/domain"
)

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	UserName  string  `json:"user_name"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// Validate checks every field and reports all violations.
func (r UserRegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error("Email is required"),
			is.Email.Error("Email is not valid"),
		),
		validation.Field(&r.Password,
			validation.Required.Error("Password is required"),
			validation.Length(8, 20).Error("Password must be between 8 and 20 characters"),
		),
		validation.Field(&r.UserName,
			validation.Required.Error("Username is required"),
			validation.Length(8, 20).Error("Username must be between 8 and 20 characters"),
		),
		validation.Field(&r.FirstName, validation.Length(0, 100).Error("First name must not exceed 100 characters")),
		validation.Field(&r.LastName, validation.Length(0, 100).Error("Last name must not exceed 100 characters")),
	)
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks every field and reports all violations.
func (r UserLoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error("Email is required"),
			is.Email.Error("Email is not valid"),
		),
		validation.Field(&r.Password,
			validation.Required.Error("Password is required"),
			validation.Length(8, 20).Error("Password must be between 8 and 20 characters"),
		),
	)
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	Token string `json:"token"`
	Iat   int64  `json:"iat"`
	Exp   int64  `json:"exp"`
}

// NewTokenResponse maps an issued token.
func NewTokenResponse(token domain.Token) TokenResponse {
	return TokenResponse{Token: token.Raw, Iat: token.IssuedAt.Unix(), Exp: token.ExpiresAt.Unix()}
}

// UserResponse is the public view of a user; it never carries the hash.
type UserResponse struct {
	ID        int64      `json:"id"`
	FirstName *string    `json:"first_name"`
	LastName  *string    `json:"last_name"`
	UserName  string     `json:"user_name"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
	IsActive  bool       `json:"is_active"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		UserName:  user.UserName,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
		IsActive:  user.IsActive,
	}
}
