package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/userauth-service/internal/auth"
	"github.com/spec-kit/userauth-service/internal/config"
	"github.com/spec-kit/userauth-service/internal/domain"
	"github.com/spec-kit/userauth-service/internal/events"
	"github.com/spec-kit/userauth-service/internal/repository"
	apperrors "github.com/spec-kit/userauth-service/pkg/util"
)

type userServiceFixture struct {
	svc    *UserService
	repo   *mockUserRepo
	tokens *auth.TokenManager
	events []events.Event
}

func newUserServiceFixture(t *testing.T) *userServiceFixture {
	t.Helper()
	tokens, err := auth.NewTokenManager(config.AuthConfig{JWTSecret: "service-test-secret"})
	require.NoError(t, err)

	f := &userServiceFixture{repo: new(mockUserRepo), tokens: tokens}
	dispatcher := events.NewInMemoryDispatcher()
	record := func(_ context.Context, e events.Event) error {
		f.events = append(f.events, e)
		return nil
	}
	dispatcher.Subscribe(events.EventUserRegistered, record)
	dispatcher.Subscribe(events.EventUserLoggedIn, record)

	f.svc = NewUserService(UserDependencies{
		UserRepo:   f.repo,
		Tokens:     tokens,
		Hasher:     plainHasher{},
		Dispatcher: dispatcher,
	})
	return f
}

func registerInput() RegisterInput {
	first := "Ada"
	return RegisterInput{
		Email:     "ada@example.com",
		Password:  "correct-horse",
		UserName:  "ada_lovelace",
		FirstName: &first,
	}
}

func TestRegisterUser(t *testing.T) {
	f := newUserServiceFixture(t)
	in := registerInput()
	created := &domain.User{ID: 7, Email: in.Email, UserName: in.UserName, FirstName: in.FirstName, IsActive: true, CreatedAt: time.Now()}

	f.repo.On("FindByEmail", mock.Anything, in.Email).Return(nil, repository.ErrNotFound).Once()
	f.repo.On("Insert", mock.Anything, mock.MatchedBy(func(u domain.NewUser) bool {
		return u.Email == in.Email && u.UserName == in.UserName && u.PasswordHash == "hashed:correct-horse"
	})).Return(created, nil).Once()

	user, err := f.svc.RegisterUser(context.Background(), in)
	require.NoError(t, err)
	assert.Same(t, created, user)
	require.Len(t, f.events, 1)
	assert.Equal(t, events.EventUserRegistered, f.events[0].Type)
	f.repo.AssertExpectations(t)
}

func TestRegisterUserAlreadyExists(t *testing.T) {
	f := newUserServiceFixture(t)
	in := registerInput()
	f.repo.On("FindByEmail", mock.Anything, in.Email).Return(&domain.User{ID: 1, Email: in.Email}, nil).Once()

	_, err := f.svc.RegisterUser(context.Background(), in)

	appErr := apperrors.ToError(err)
	assert.Equal(t, apperrors.KindUserAlreadyExists, appErr.Kind)
	assert.Equal(t, http.StatusBadRequest, appErr.Status())
	f.repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	assert.Empty(t, f.events)
}

func TestRegisterUserInsertRace(t *testing.T) {
	f := newUserServiceFixture(t)
	in := registerInput()
	f.repo.On("FindByEmail", mock.Anything, in.Email).Return(nil, repository.ErrNotFound).Once()
	f.repo.On("Insert", mock.Anything, mock.Anything).
		Return(nil, errors.Join(repository.ErrDuplicate, errors.New("users_email_key"))).Once()

	_, err := f.svc.RegisterUser(context.Background(), in)

	appErr := apperrors.ToError(err)
	assert.Equal(t, apperrors.KindUniqueConstraintViolation, appErr.Kind)
	assert.Equal(t, http.StatusConflict, appErr.Status())
	assert.Equal(t, "Duplicate entry exists", appErr.PublicMessage(false))
}

func TestRegisterUserStorageFailures(t *testing.T) {
	f := newUserServiceFixture(t)
	in := registerInput()
	f.repo.On("FindByEmail", mock.Anything, in.Email).Return(nil, errors.New("connection reset")).Once()

	_, err := f.svc.RegisterUser(context.Background(), in)
	assert.Equal(t, apperrors.KindStorageUnavailable, apperrors.ToError(err).Kind)

	f.repo.On("FindByEmail", mock.Anything, in.Email).Return(nil, repository.ErrNotFound).Once()
	f.repo.On("Insert", mock.Anything, mock.Anything).Return(nil, errors.New("disk full")).Once()

	_, err = f.svc.RegisterUser(context.Background(), in)
	appErr := apperrors.ToError(err)
	assert.Equal(t, apperrors.KindStorageUnavailable, appErr.Kind)
	assert.NotContains(t, appErr.PublicMessage(false), "disk full")
}

func TestLoginUser(t *testing.T) {
	f := newUserServiceFixture(t)
	stored := &domain.User{ID: 7, Email: "ada@example.com", PasswordHash: "hashed:correct-horse"}
	f.repo.On("FindByEmail", mock.Anything, "ada@example.com").Return(stored, nil)

	token, err := f.svc.LoginUser(context.Background(), "ada@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, auth.TokenTTL, token.ExpiresAt.Sub(token.IssuedAt))

	claims, err := f.tokens.Verify(token.Raw)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, "ada@example.com", claims.Email)

	require.Len(t, f.events, 1)
	assert.Equal(t, events.EventUserLoggedIn, f.events[0].Type)
}

func TestLoginUserFailures(t *testing.T) {
	f := newUserServiceFixture(t)
	stored := &domain.User{ID: 7, Email: "ada@example.com", PasswordHash: "hashed:correct-horse"}
	f.repo.On("FindByEmail", mock.Anything, "ada@example.com").Return(stored, nil)
	f.repo.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, repository.ErrNotFound)
	f.repo.On("FindByEmail", mock.Anything, "flaky@example.com").Return(nil, errors.New("timeout"))

	_, err := f.svc.LoginUser(context.Background(), "ghost@example.com", "whatever1")
	assert.Equal(t, apperrors.KindUserNotFound, apperrors.ToError(err).Kind)

	_, err = f.svc.LoginUser(context.Background(), "ada@example.com", "wrong-horse")
	assert.Equal(t, apperrors.KindInvalidPassword, apperrors.ToError(err).Kind)

	_, err = f.svc.LoginUser(context.Background(), "flaky@example.com", "whatever1")
	assert.Equal(t, apperrors.KindStorageUnavailable, apperrors.ToError(err).Kind)

	assert.Empty(t, f.events)
}

type failingIssuer struct{}

func (failingIssuer) Issue(*domain.User) (domain.Token, error) {
	return domain.Token{}, apperrors.Wrap(apperrors.KindTokenCreation, errors.New("bad key"))
}

func TestLoginUserTokenCreationFailure(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("FindByEmail", mock.Anything, "ada@example.com").
		Return(&domain.User{ID: 7, Email: "ada@example.com", PasswordHash: "hashed:correct-horse"}, nil)
	svc := NewUserService(UserDependencies{UserRepo: repo, Tokens: failingIssuer{}, Hasher: plainHasher{}})

	_, err := svc.LoginUser(context.Background(), "ada@example.com", "correct-horse")
	appErr := apperrors.ToError(err)
	assert.Equal(t, apperrors.KindTokenCreation, appErr.Kind)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status())
}
