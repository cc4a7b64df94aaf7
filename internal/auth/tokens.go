package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// AccessClaims is the payload of an access token: identity plus the roles and
// permission keys resolved at issuance. The embedded set is not re-resolved
// until the next login or refresh.
type AccessClaims struct {
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	TokenType   string   `json:"token_type"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token. TokenType prevents a
// refresh token from passing access-token verification and vice versa.
type RefreshClaims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenService mints and verifies the two token kinds using HS256. Access and
// refresh tokens are signed with independent secrets.
type TokenService struct {
	issuer        string
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// TokenOption configures TokenService behavior.
type TokenOption func(*TokenService)

// WithAccessTTL overrides the access token lifetime.
func WithAccessTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) {
		if ttl > 0 {
			s.accessTTL = ttl
		}
	}
}

// WithRefreshTTL overrides the refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) TokenOption {
	return func(s *TokenService) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewTokenService constructs a TokenService. Both secrets are required;
// generating fallback secrets is the config layer's job.
func NewTokenService(issuer string, accessSecret, refreshSecret []byte, opts ...TokenOption) (*TokenService, error) {
	if strings.TrimSpace(issuer) == "" {
		return nil, errors.New("auth: issuer is required")
	}
	if len(accessSecret) == 0 || len(refreshSecret) == 0 {
		return nil, errors.New("auth: signing secrets are required")
	}
	s := &TokenService{
		issuer:        issuer,
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     defaultAccessTTL,
		refreshTTL:    defaultRefreshTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AccessTTL returns the configured access token lifetime.
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// IssueAccessToken signs an access token for the user with the resolved grant
// embedded.
func (s *TokenService) IssueAccessToken(user *User, grant Grant) (string, time.Time, error) {
	if user == nil || strings.TrimSpace(user.ID) == "" {
		return "", time.Time{}, errors.New("auth: user is required")
	}
	now := s.now().UTC()
	exp := now.Add(s.accessTTL)
	claims := AccessClaims{
		Email:       user.Email,
		Roles:       grant.Roles,
		Permissions: grant.PermissionKeys(),
		TokenType:   tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// IssueRefreshToken signs a refresh token for the subject and returns the jti
// under which the stateful side must be persisted.
func (s *TokenService) IssueRefreshToken(userID string) (token, jti string, expiresAt time.Time, err error) {
	if strings.TrimSpace(userID) == "" {
		return "", "", time.Time{}, errors.New("auth: userID is required")
	}
	now := s.now().UTC()
	expiresAt = now.Add(s.refreshTTL)
	jti = uuid.NewString()
	claims := RefreshClaims{
		TokenType: tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        jti,
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refreshSecret)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return token, jti, expiresAt, nil
}

// VerifyAccessToken checks signature, expiry, issuer, and token type.
// Any failure collapses to ErrInvalidToken; callers must not leak the reason.
func (s *TokenService) VerifyAccessToken(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.verify(token, s.accessSecret, claims); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyRefreshToken checks the signed portion of a refresh token. The caller
// must additionally consume the persisted row; a valid signature whose row is
// gone is a replay and must be treated as ErrInvalidToken.
func (s *TokenService) VerifyRefreshToken(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := s.verify(token, s.refreshSecret, claims); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != tokenTypeRefresh {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *TokenService) verify(token string, secret []byte, claims jwt.Claims) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || strings.TrimSpace(sub) == "" {
		return ErrInvalidToken
	}
	return nil
}
