package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/userauth-service/internal/domain"
	"github.com/spec-kit/userauth-service/internal/repository"
	apperrors "github.com/spec-kit/userauth-service/pkg/util"
)

const identityKey = "auth_identity"

// State is a step of the per-request authorization pipeline.
type State int

const (
	StateStart State = iota
	StateTokenExtracted
	StateClaimsVerified
	StateIdentityResolved
	StateAuthorized
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateTokenExtracted:
		return "token_extracted"
	case StateClaimsVerified:
		return "claims_verified"
	case StateIdentityResolved:
		return "identity_resolved"
	case StateAuthorized:
		return "authorized"
	}
	return "unknown"
}

// TokenVerifier recovers claims from a raw bearer token.
type TokenVerifier interface {
	Verify(raw string) (*Claims, error)
}

// UserLookup resolves the current user record behind a token.
// It returns repository.ErrNotFound when no such user exists.
type UserLookup interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

// DecisionRecorder observes authorization outcomes.
type DecisionRecorder interface {
	RecordAuthDecision(outcome, kind string)
}

// Decision is the terminal state of Authorize: Authorized or Rejected.
type Decision interface {
	isDecision()
}

// Authorized carries the identity resolved for this request.
type Authorized struct {
	Identity *domain.User
}

func (Authorized) isDecision() {}

// Rejected carries the step that failed and why.
type Rejected struct {
	At     State
	Reason *apperrors.Error
}

func (Rejected) isDecision() {}

// AuthMiddleware validates bearer tokens and resolves the caller identity.
type AuthMiddleware struct {
	tokens   TokenVerifier
	users    UserLookup
	logger   *zap.Logger
	recorder DecisionRecorder
}

// NewAuthMiddleware constructs middleware. logger and recorder may be nil.
func NewAuthMiddleware(tokens TokenVerifier, users UserLookup, logger *zap.Logger, recorder DecisionRecorder) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{tokens: tokens, users: users, logger: logger, recorder: recorder}
}

// Authorize runs Start -> TokenExtracted -> ClaimsVerified -> IdentityResolved
// -> Authorized, stopping at the first failing step.
func (m *AuthMiddleware) Authorize(ctx context.Context, authorization string) Decision {
	raw, ok := bearerToken(authorization)
	if !ok {
		return Rejected{At: StateStart, Reason: apperrors.New(apperrors.KindMissingToken)}
	}

	claims, err := m.tokens.Verify(raw)
	if err != nil {
		return Rejected{At: StateTokenExtracted, Reason: apperrors.ToError(err)}
	}

	// tokens are not a cache of identity: the record is fetched on every call
	user, err := m.users.FindByEmail(ctx, claims.Email)
	switch {
	case errors.Is(err, repository.ErrNotFound), err == nil && user == nil:
		return Rejected{At: StateClaimsVerified, Reason: apperrors.New(apperrors.KindUserNotFound)}
	case err != nil:
		return Rejected{At: StateClaimsVerified, Reason: apperrors.Wrap(apperrors.KindStorageUnavailable, err)}
	}

	return Authorized{Identity: user}
}

// Handle enforces authentication for protected routes. The downstream handler
// only runs on Authorized and its result is returned unchanged.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	decision := m.Authorize(c.UserContext(), c.Get(fiber.HeaderAuthorization))
	m.observe(c, decision)

	switch d := decision.(type) {
	case Authorized:
		c.Locals(identityKey, d.Identity)
		return c.Next()
	case Rejected:
		return d.Reason
	}
	return apperrors.New(apperrors.KindInternal)
}

func (m *AuthMiddleware) observe(c *fiber.Ctx, decision Decision) {
	outcome, kind := "authorized", ""
	if r, ok := decision.(Rejected); ok {
		outcome, kind = "rejected", r.Reason.Kind.Code()
		m.logger.Debug("request rejected",
			zap.String("path", c.Path()),
			zap.Stringer("state", r.At),
			zap.String("kind", kind))
	}
	if m.recorder != nil {
		m.recorder.RecordAuthDecision(outcome, kind)
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// IdentityFromContext retrieves the authenticated user.
func IdentityFromContext(c *fiber.Ctx) (*domain.User, bool) {
	user, ok := c.Locals(identityKey).(*domain.User)
	return user, ok && user != nil
}

// RequireIdentity rejects requests that reached a handler without passing
// through AuthMiddleware.
func RequireIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := IdentityFromContext(c); !ok {
			return apperrors.New(apperrors.KindMissingToken)
		}
		return c.Next()
	}
}
