package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/userauth-service/internal/auth"
	"github.com/spec-kit/userauth-service/internal/domain"
	"github.com/spec-kit/userauth-service/internal/events"
	"github.com/spec-kit/userauth-service/internal/repository"
	apperrors "github.com/spec-kit/userauth-service/pkg/util"
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(user *domain.User) (domain.Token, error)
}

// UserService coordinates registration and login flows.
type UserService struct {
	users  repository.UserRepository
	tokens TokenIssuer
	hasher auth.PasswordHasher
	events events.Dispatcher
	logger *zap.Logger
}

// UserDependencies encapsulates collaborators of the user service.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	Tokens     TokenIssuer
	Hasher     auth.PasswordHasher
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewUserService builds the service.
func NewUserService(deps UserDependencies) *UserService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		users:  deps.UserRepo,
		tokens: deps.Tokens,
		hasher: deps.Hasher,
		events: deps.Dispatcher,
		logger: logger,
	}
}

// RegisterInput holds validated registration fields.
type RegisterInput struct {
	Email     string
	Password  string
	UserName  string
	FirstName *string
	LastName  *string
}

// RegisterUser creates a new account. A known email is rejected up front
// with UserAlreadyExists; a concurrent insert of the same email or user name
// surfaces as UniqueConstraintViolation.
func (s *UserService) RegisterUser(ctx context.Context, in RegisterInput) (*domain.User, error) {
	_, err := s.users.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, apperrors.New(apperrors.KindUserAlreadyExists)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.Wrap(apperrors.KindStorageUnavailable, fmt.Errorf("find user by email: %w", err))
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, fmt.Errorf("hash password: %w", err))
	}

	user, err := s.users.Insert(ctx, domain.NewUser{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		UserName:     in.UserName,
		Email:        in.Email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Wrap(apperrors.KindUniqueConstraintViolation, err)
		}
		return nil, apperrors.Wrap(apperrors.KindStorageUnavailable, fmt.Errorf("insert user: %w", err))
	}

	s.publish(ctx, events.NewEvent(events.EventUserRegistered, user.ID, events.UserRegisteredPayload{
		Email:    user.Email,
		UserName: user.UserName,
	}))
	return user, nil
}

// LoginUser verifies credentials and issues a token.
func (s *UserService) LoginUser(ctx context.Context, email, password string) (domain.Token, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Token{}, apperrors.New(apperrors.KindUserNotFound)
		}
		return domain.Token{}, apperrors.Wrap(apperrors.KindStorageUnavailable, fmt.Errorf("find user by email: %w", err))
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		return domain.Token{}, apperrors.New(apperrors.KindInvalidPassword)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return domain.Token{}, err
	}

	s.publish(ctx, events.NewEvent(events.EventUserLoggedIn, user.ID, events.UserLoggedInPayload{
		Email:     user.Email,
		ExpiresAt: token.ExpiresAt,
	}))
	return token, nil
}

func (s *UserService) publish(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}
