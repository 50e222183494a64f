package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/backoffice/internal/auth"
	"github.com/spec-kit/backoffice/internal/clock"
	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/repository"
	apperrors "github.com/spec-kit/backoffice/pkg/util"
)

// AuthService coordinates login, refresh and password flows.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	audit      *AuditService
	clock      clock.Clock
	bcryptCost int

	dummyOnce sync.Once
	dummyHash string
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	TokenManager *auth.TokenManager
	Audit        *AuditService
	Clock        clock.Clock
	BcryptCost   int
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	return &AuthService{
		users:      deps.UserRepo,
		tokens:     deps.TokenManager,
		audit:      deps.Audit,
		clock:      clk,
		bcryptCost: deps.BcryptCost,
	}
}

// Login verifies credentials and issues an access/refresh pair. Unknown
// email, inactive account and wrong password are indistinguishable.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *auth.TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.burnCompare(password)
			return nil, nil, apperrors.NewInvalidCredentials()
		}
		return nil, nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewInvalidCredentials()
	}
	if !user.IsActive {
		return nil, nil, apperrors.NewInvalidCredentials()
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}

	now := s.clock.Now()
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return user, pair, nil
}

// burnCompare spends a bcrypt comparison so unknown emails take as long as
// known ones.
func (s *AuthService) burnCompare(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = auth.HashPassword("dummy-password-for-timing", s.bcryptCost)
	})
	_ = auth.ComparePassword(s.dummyHash, password)
}

// Validate turns an access token into a principal without storage access.
func (s *AuthService) Validate(token string) (domain.Principal, error) {
	principal, err := s.tokens.Validate(token)
	if err != nil {
		return domain.Principal{}, apperrors.NewTokenInvalid(err)
	}
	return principal, nil
}

// Refresh mints a new access token from a refresh token. The user is
// reloaded so role changes and deactivation take effect immediately.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return "", time.Time{}, apperrors.NewTokenInvalid(err)
	}
	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", time.Time{}, apperrors.NewTokenInvalid(err)
		}
		return "", time.Time{}, apperrors.MapError(err)
	}
	if !user.IsActive {
		return "", time.Time{}, apperrors.NewTokenInvalid(errors.New("account inactive"))
	}
	token, exp, err := s.tokens.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return "", time.Time{}, apperrors.NewInternalError(err)
	}
	return token, exp, nil
}

// Logout is a no-op for stateless tokens.
func (s *AuthService) Logout(_ context.Context, _ domain.Principal) error {
	return nil
}

// Me returns the caller's account.
func (s *AuthService) Me(ctx context.Context, principal domain.Principal) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, principal.UserID)
	if err != nil {
		return nil, lookupError("user", principal.UserID, err)
	}
	return user, nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, principal domain.Principal, currentPassword, newPassword string) error {
	if err := auth.CheckPasswordStrength(newPassword); err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"field": "new_password"})
	}
	user, err := s.users.GetByID(ctx, principal.UserID)
	if err != nil {
		return lookupError("user", principal.UserID, err)
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewInvalidCredentials()
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.MapError(err)
	}
	return s.audit.Record(ctx, principal.UserID, AuditPasswordChange, "user", user.ID, nil, nil)
}
