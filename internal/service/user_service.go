package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/backoffice/internal/auth"
	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/repository"
	apperrors "github.com/spec-kit/backoffice/pkg/util"
)

// AccountInput carries the user part of client, staff and admin creation.
// An empty Password makes the service generate a temporary one.
type AccountInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// UserService manages accounts for administrators.
type UserService struct {
	users      repository.UserRepository
	tx         repository.TxManager
	audit      *AuditService
	logger     *zap.Logger
	bcryptCost int
}

// UserDependencies bundles requirements.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	TxManager  repository.TxManager
	Audit      *AuditService
	Logger     *zap.Logger
	BcryptCost int
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		users:      deps.UserRepo,
		tx:         deps.TxManager,
		audit:      deps.Audit,
		logger:     logger,
		bcryptCost: deps.BcryptCost,
	}
}

// List returns accounts matching filter.
func (s *UserService) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// Get returns one account.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError("user", id, err)
	}
	return user, nil
}

// SetActive activates or deactivates an account. Admins cannot deactivate
// themselves.
func (s *UserService) SetActive(ctx context.Context, actor domain.Principal, id string, active bool) (*domain.User, error) {
	if !active && actor.UserID == id {
		return nil, apperrors.NewValidationError("cannot deactivate your own account", nil)
	}
	var user *domain.User
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.users.GetByID(ctx, id)
		if err != nil {
			return lookupError("user", id, err)
		}
		old := user.IsActive
		user.IsActive = active
		if err := s.users.Update(ctx, user); err != nil {
			return apperrors.MapError(err)
		}
		return s.audit.Record(ctx, actor.UserID, AuditUpdate, "user", id,
			map[string]any{"is_active": old}, map[string]any{"is_active": active})
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateAdmin adds another administrator account.
func (s *UserService) CreateAdmin(ctx context.Context, actor domain.Principal, input AccountInput) (*domain.User, string, error) {
	var (
		user *domain.User
		temp string
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		user, temp, err = createAccount(ctx, s.users, input, domain.RoleAdmin, s.bcryptCost)
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, actor.UserID, AuditCreate, "user", user.ID, nil,
			map[string]any{"email": user.Email, "role": string(user.Role)})
	})
	if err != nil {
		return nil, "", err
	}
	return user, temp, nil
}

// BootstrapAdmin creates the first administrator from configuration. It is
// a no-op when the email is blank or the account already exists.
func (s *UserService) BootstrapAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if password == "" {
		return apperrors.NewValidationError("bootstrap admin password is required", nil)
	}
	user, _, err := createAccount(ctx, s.users, AccountInput{Email: email, Password: password, FirstName: "Admin"}, domain.RoleAdmin, s.bcryptCost)
	if err != nil {
		return err
	}
	s.logger.Info("bootstrap admin created", zap.String("user_id", user.ID), zap.String("email", user.Email))
	return nil
}

// createAccount validates input and stores a new active user. It returns
// the generated password when none was supplied.
func createAccount(ctx context.Context, users repository.UserRepository, input AccountInput, role domain.Role, cost int) (*domain.User, string, error) {
	email := normalizeEmail(input.Email)
	if err := validateEmail(email); err != nil {
		return nil, "", err
	}
	password := input.Password
	temporary := ""
	if password == "" {
		temporary = strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
		password = temporary
	}
	if err := auth.CheckPasswordStrength(password); err != nil {
		return nil, "", apperrors.NewValidationError(err.Error(), map[string]any{"field": "password"})
	}
	hash, err := auth.HashPassword(password, cost)
	if err != nil {
		return nil, "", apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Phone:        strings.TrimSpace(input.Phone),
		Role:         role,
		IsActive:     true,
	}
	if err := users.Create(ctx, user); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, "", apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return nil, "", apperrors.MapError(err)
	}
	return user, temporary, nil
}
