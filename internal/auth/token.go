package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/abduss/clinstudy/internal/config"
	"github.com/abduss/clinstudy/internal/metrics"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind distinguishes access tokens from refresh tokens.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// Claims is the JWT payload shared by both token kinds.
// Email and Role are only populated on access tokens.
type Claims struct {
	jwt.RegisteredClaims
	Email string    `json:"email,omitempty"`
	Role  Role      `json:"role,omitempty"`
	Kind  TokenKind `json:"kind"`
}

// UserID parses the subject claim.
func (c Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// TokenIssuer mints and verifies HS256 tokens. Each kind has its own secret and TTL.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	audience      string
	nowFunc       func() time.Time
}

// NewTokenIssuer builds a TokenIssuer from auth settings.
func NewTokenIssuer(cfg config.AuthConfig) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		issuer:        cfg.Issuer,
		audience:      cfg.Audience,
		nowFunc:       time.Now,
	}
}

// IssueAccessToken signs a short-lived token carrying the user's id, email and role.
func (t *TokenIssuer) IssueAccessToken(user User) (string, time.Time, error) {
	return t.issue(user, TokenAccess)
}

// IssueRefreshToken signs a long-lived token used only to mint new access tokens.
func (t *TokenIssuer) IssueRefreshToken(user User) (string, time.Time, error) {
	return t.issue(user, TokenRefresh)
}

// Verify checks signature, algorithm, issuer, audience, expiry and kind.
func (t *TokenIssuer) Verify(tokenString string, kind TokenKind) (Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return Claims{}, ErrInvalidToken
	}

	secret, _, err := t.settings(kind)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.nowFunc),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	if claims.Kind != kind {
		return Claims{}, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}

func (t *TokenIssuer) issue(user User, kind TokenKind) (string, time.Time, error) {
	secret, ttl, err := t.settings(kind)
	if err != nil {
		return "", time.Time{}, err
	}

	now := t.nowFunc()
	expiresAt := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Kind: kind,
	}
	if kind == TokenAccess {
		claims.Email = user.Email
		claims.Role = user.Role
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}

	metrics.TokenIssued(string(kind))
	return signed, expiresAt, nil
}

func (t *TokenIssuer) settings(kind TokenKind) ([]byte, time.Duration, error) {
	switch kind {
	case TokenAccess:
		return t.accessSecret, t.accessTTL, nil
	case TokenRefresh:
		return t.refreshSecret, t.refreshTTL, nil
	default:
		return nil, 0, fmt.Errorf("unknown token kind %q", kind)
	}
}
