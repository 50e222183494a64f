package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/backoffice/internal/clock"
	"github.com/spec-kit/backoffice/internal/domain"
)

// TokenType separates access tokens from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

var (
	errUnexpectedMethod = errors.New("unexpected signing method")
	errWrongTokenType   = errors.New("wrong token type")
	errMissingRole      = errors.New("token carries no recognised role")
)

// TokenManager handles issuing and validating JWT tokens. The signing key
// is fixed at construction and never mutated.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      clock.Clock
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration, clk clock.Clock) *TokenManager {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &TokenManager{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL, clock: clk}
}

// Claims describes JWT payload. Refresh tokens omit Roles.
type Claims struct {
	Email string    `json:"email"`
	Roles []string  `json:"roles,omitempty"`
	Type  TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// IssuePair mints an access and a refresh token for the user.
func (tm *TokenManager) IssuePair(user *domain.User) (*TokenPair, error) {
	access, accessExp, err := tm.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := tm.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// GenerateAccessToken signs a short-lived token carrying the roles claim.
func (tm *TokenManager) GenerateAccessToken(userID, email string, role domain.Role) (string, time.Time, error) {
	return tm.sign(userID, email, []string{role.Authority()}, TokenTypeAccess, tm.accessTTL)
}

// GenerateRefreshToken signs a long-lived token without roles.
func (tm *TokenManager) GenerateRefreshToken(userID, email string) (string, time.Time, error) {
	return tm.sign(userID, email, nil, TokenTypeRefresh, tm.refreshTTL)
}

func (tm *TokenManager) sign(userID, email string, roles []string, typ TokenType, ttl time.Duration) (string, time.Time, error) {
	now := tm.clock.Now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		Email: email,
		Roles: roles,
		Type:  typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates signature and expiry and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errUnexpectedMethod
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.clock.Now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// Validate turns an access token into a Principal without touching storage.
func (tm *TokenManager) Validate(tokenStr string) (domain.Principal, error) {
	claims, err := tm.ParseToken(tokenStr)
	if err != nil {
		return domain.Principal{}, err
	}
	if claims.Type != TokenTypeAccess {
		return domain.Principal{}, errWrongTokenType
	}
	role, ok := RoleFromClaims(claims.Roles)
	if !ok {
		return domain.Principal{}, errMissingRole
	}
	return domain.Principal{UserID: claims.Subject, Email: claims.Email, Role: role}, nil
}

// ParseRefresh validates a refresh token and returns its subject claims.
func (tm *TokenManager) ParseRefresh(tokenStr string) (*Claims, error) {
	claims, err := tm.ParseToken(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeRefresh {
		return nil, fmt.Errorf("%w: expected refresh", errWrongTokenType)
	}
	return claims, nil
}

// NormalizeRoleClaim returns the canonical ROLE_ form of a role string, or
// "" when it names no known role.
func NormalizeRoleClaim(raw string) string {
	role, ok := domain.ParseRole(raw)
	if !ok {
		return ""
	}
	return role.Authority()
}

// RoleFromClaims picks the highest-privilege known role from a roles claim.
func RoleFromClaims(roles []string) (domain.Role, bool) {
	best := domain.Role("")
	for _, raw := range roles {
		role, ok := domain.ParseRole(raw)
		if !ok {
			continue
		}
		if rank(role) > rank(best) {
			best = role
		}
	}
	return best, best != ""
}

func rank(role domain.Role) int {
	switch role {
	case domain.RoleAdmin:
		return 3
	case domain.RoleStaff:
		return 2
	case domain.RoleClient:
		return 1
	}
	return 0
}
