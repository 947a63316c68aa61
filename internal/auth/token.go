package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/userauth-service/internal/config"
	"github.com/spec-kit/userauth-service/internal/domain"
	apperrors "github.com/spec-kit/userauth-service/pkg/util"
)

// TokenTTL is the fixed lifetime of an access token. There is no refresh.
const TokenTTL = 30 * time.Minute

// TokenManager handles issuing and validating JWT tokens. It only reads its
// key after construction and is safe for concurrent use.
type TokenManager struct {
	key    any
	method jwt.SigningMethod
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock overrides the time source used for iat/exp.
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		if now != nil {
			tm.now = now
		}
	}
}

// NewTokenManager builds a new manager from the startup configuration.
func NewTokenManager(cfg config.AuthConfig, opts ...TokenOption) (*TokenManager, error) {
	if cfg.JWTSecret == "" {
		return nil, config.ErrMissingJWTSecret
	}
	tm := &TokenManager{
		key:    []byte(cfg.JWTSecret),
		method: jwt.SigningMethodHS256,
		ttl:    TokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm, nil
}

// Claims describes JWT payload: sub, email, iat, exp.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserID returns the numeric subject.
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// Issue builds and signs a token for the user.
func (tm *TokenManager) Issue(user *domain.User) (domain.Token, error) {
	issuedAt := tm.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(tm.ttl)

	claims := &Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(tm.method, claims).SignedString(tm.key)
	if err != nil {
		return domain.Token{}, apperrors.Wrap(apperrors.KindTokenCreation, fmt.Errorf("sign token: %w", err))
	}
	return domain.Token{Raw: signed, IssuedAt: issuedAt, ExpiresAt: expiresAt}, nil
}

// Verify checks signature and expiry and returns the embedded claims.
func (tm *TokenManager) Verify(raw string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != tm.method {
			return nil, errors.New("unexpected signing method")
		}
		return tm.key, nil
	},
		jwt.WithValidMethods([]string{tm.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.Wrap(apperrors.KindTokenExpired, err)
		}
		return nil, apperrors.Wrap(apperrors.KindInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, apperrors.New(apperrors.KindInvalidToken)
	}
	if _, err := claims.UserID(); err != nil || claims.Email == "" {
		return nil, apperrors.Wrap(apperrors.KindInvalidToken, errors.New("incomplete claims"))
	}
	return claims, nil
}
