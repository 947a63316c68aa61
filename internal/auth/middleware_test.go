package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/userauth-service/internal/domain"
	"github.com/spec-kit/userauth-service/internal/repository"
	apperrors "github.com/spec-kit/userauth-service/pkg/util"
)

type mockLookup struct {
	mock.Mock
}

func (m *mockLookup) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

type recordedDecision struct{ outcome, kind string }

type fakeRecorder struct{ decisions []recordedDecision }

func (r *fakeRecorder) RecordAuthDecision(outcome, kind string) {
	r.decisions = append(r.decisions, recordedDecision{outcome, kind})
}

type middlewareFixture struct {
	app      *fiber.App
	tokens   *TokenManager
	clock    *fakeClock
	lookup   *mockLookup
	recorder *fakeRecorder
	calls    int
}

func newMiddlewareFixture(t *testing.T) *middlewareFixture {
	t.Helper()
	f := &middlewareFixture{
		clock:    &fakeClock{t: time.Now().Truncate(time.Second)},
		lookup:   new(mockLookup),
		recorder: &fakeRecorder{},
	}
	f.tokens = newTestManager(t, f.clock)
	mw := NewAuthMiddleware(f.tokens, f.lookup, nil, f.recorder)

	f.app = fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			appErr := apperrors.ToError(err)
			return c.Status(appErr.Status()).JSON(appErr.Envelope(false))
		},
	})
	f.app.Get("/profile", mw.Handle, RequireIdentity(), func(c *fiber.Ctx) error {
		f.calls++
		user, _ := IdentityFromContext(c)
		return c.JSON(fiber.Map{"data": fiber.Map{"email": user.Email}})
	})
	return f
}

func (f *middlewareFixture) do(t *testing.T, header string) (int, apperrors.Envelope, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env apperrors.Envelope
	if resp.StatusCode >= 400 {
		require.NoError(t, json.Unmarshal(body, &env))
	}
	return resp.StatusCode, env, string(body)
}

func TestMiddlewareRejectsMissingOrMalformedHeader(t *testing.T) {
	for _, header := range []string{"", "Basic dXNlcjpwYXNz", "Bearer", "Bearer    ", "Token abc", "bearer"} {
		t.Run(header, func(t *testing.T) {
			f := newMiddlewareFixture(t)
			status, env, _ := f.do(t, header)

			assert.Equal(t, http.StatusUnauthorized, status)
			require.NotNil(t, env.Message)
			assert.Equal(t, "Missing Bearer token", *env.Message)
			assert.Equal(t, uint16(401), env.Code)
			assert.Zero(t, f.calls)
			f.lookup.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
		})
	}
}

func TestMiddlewareRejectsInvalidToken(t *testing.T) {
	f := newMiddlewareFixture(t)

	status, env, _ := f.do(t, "Bearer not.a.jwt")

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid token", *env.Message)
	assert.Zero(t, f.calls)
	assert.Equal(t, []recordedDecision{{"rejected", "INVALID_TOKEN"}}, f.recorder.decisions)
}

func TestMiddlewareRejectsExpiredToken(t *testing.T) {
	f := newMiddlewareFixture(t)
	token, err := f.tokens.Issue(testUser())
	require.NoError(t, err)

	// exp is one second in the past
	f.clock.t = token.ExpiresAt.Add(time.Second)
	status, env, _ := f.do(t, "Bearer "+token.Raw)

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token has expired", *env.Message)
	assert.Zero(t, f.calls)
	f.lookup.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
}

func TestMiddlewareRejectsUnknownUser(t *testing.T) {
	f := newMiddlewareFixture(t)
	token, err := f.tokens.Issue(testUser())
	require.NoError(t, err)
	f.lookup.On("FindByEmail", mock.Anything, "ada@example.com").Return(nil, repository.ErrNotFound).Once()

	status, env, _ := f.do(t, "Bearer "+token.Raw)

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User not found", *env.Message)
	assert.Zero(t, f.calls)
	f.lookup.AssertExpectations(t)
}

func TestMiddlewareStorageFailure(t *testing.T) {
	f := newMiddlewareFixture(t)
	token, err := f.tokens.Issue(testUser())
	require.NoError(t, err)
	f.lookup.On("FindByEmail", mock.Anything, "ada@example.com").Return(nil, errors.New("dial tcp: connection refused")).Once()

	status, env, _ := f.do(t, "Bearer "+token.Raw)

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Something went wrong", *env.Message)
	assert.Zero(t, f.calls)
}

func TestMiddlewareAuthorizesAndInjectsIdentity(t *testing.T) {
	f := newMiddlewareFixture(t)
	token, err := f.tokens.Issue(testUser())
	require.NoError(t, err)
	current := &domain.User{ID: 42, Email: "ada@example.com", UserName: "ada_lovelace", IsActive: true}
	f.lookup.On("FindByEmail", mock.Anything, "ada@example.com").Return(current, nil).Once()

	status, _, body := f.do(t, "bearer "+token.Raw)

	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"data":{"email":"ada@example.com"}}`, body)
	assert.Equal(t, 1, f.calls)
	assert.Equal(t, []recordedDecision{{"authorized", ""}}, f.recorder.decisions)
}

func TestAuthorizeStates(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	tokens := newTestManager(t, clock)
	lookup := new(mockLookup)
	mw := NewAuthMiddleware(tokens, lookup, nil, nil)

	d := mw.Authorize(context.Background(), "")
	rejected, ok := d.(Rejected)
	require.True(t, ok)
	assert.Equal(t, StateStart, rejected.At)

	d = mw.Authorize(context.Background(), "Bearer garbage")
	rejected, ok = d.(Rejected)
	require.True(t, ok)
	assert.Equal(t, StateTokenExtracted, rejected.At)
	assert.Equal(t, apperrors.KindInvalidToken, rejected.Reason.Kind)

	token, err := tokens.Issue(testUser())
	require.NoError(t, err)
	lookup.On("FindByEmail", mock.Anything, "ada@example.com").Return(nil, nil).Once()

	d = mw.Authorize(context.Background(), "Bearer "+token.Raw)
	rejected, ok = d.(Rejected)
	require.True(t, ok)
	assert.Equal(t, StateClaimsVerified, rejected.At)
	assert.Equal(t, apperrors.KindUserNotFound, rejected.Reason.Kind)

	user := testUser()
	lookup.On("FindByEmail", mock.Anything, "ada@example.com").Return(user, nil).Once()
	d = mw.Authorize(context.Background(), "Bearer "+token.Raw)
	authorized, ok := d.(Authorized)
	require.True(t, ok)
	assert.Same(t, user, authorized.Identity)
}

func TestRequireIdentityWithoutMiddleware(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			appErr := apperrors.ToError(err)
			return c.Status(appErr.Status()).JSON(appErr.Envelope(false))
		},
	})
	app.Get("/", RequireIdentity(), func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
