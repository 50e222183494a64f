package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/backoffice/internal/clock"
	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/repository"
	apperrors "github.com/spec-kit/backoffice/pkg/util"
)

// StaffAccount is a staff profile together with its login.
type StaffAccount struct {
	User              *domain.User
	Staff             *domain.Staff
	TemporaryPassword string
}

// StaffCreateInput describes staff onboarding. EmployeeID is generated
// when blank.
type StaffCreateInput struct {
	Account      AccountInput
	EmployeeID   string
	Designation  string
	Department   string
	SupervisorID *string
	HourlyRate   float64
	JoiningDate  *time.Time
}

// StaffUpdateInput carries optional changes.
type StaffUpdateInput struct {
	EmployeeID      *string
	Designation     *string
	Department      *string
	SupervisorID    *string
	ClearSupervisor bool
	HourlyRate      *float64
	JoiningDate     *time.Time
}

// StaffService manages staff profiles.
type StaffService struct {
	staff      repository.StaffRepository
	users      repository.UserRepository
	sequences  repository.SequenceRepository
	tasks      repository.TaskRepository
	documents  repository.DocumentRepository
	tx         repository.TxManager
	audit      *AuditService
	clock      clock.Clock
	bcryptCost int
}

// StaffDependencies bundles repositories for the staff service.
type StaffDependencies struct {
	StaffRepo    repository.StaffRepository
	UserRepo     repository.UserRepository
	SequenceRepo repository.SequenceRepository
	TaskRepo     repository.TaskRepository
	DocumentRepo repository.DocumentRepository
	TxManager    repository.TxManager
	Audit        *AuditService
	Clock        clock.Clock
	BcryptCost   int
}

// NewStaffService constructs the service.
func NewStaffService(deps StaffDependencies) *StaffService {
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	return &StaffService{
		staff:      deps.StaffRepo,
		users:      deps.UserRepo,
		sequences:  deps.SequenceRepo,
		tasks:      deps.TaskRepo,
		documents:  deps.DocumentRepo,
		tx:         deps.TxManager,
		audit:      deps.Audit,
		clock:      clk,
		bcryptCost: deps.BcryptCost,
	}
}

// Create onboards a staff member: STAFF user and profile in one transaction.
func (s *StaffService) Create(ctx context.Context, actor domain.Principal, input StaffCreateInput) (*StaffAccount, error) {
	if input.HourlyRate < 0 {
		return nil, apperrors.NewValidationError("hourly_rate cannot be negative", map[string]any{"field": "hourly_rate"})
	}
	var account *StaffAccount
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		supervisor := trimmed(input.SupervisorID)
		if supervisor != nil {
			if _, err := s.staff.GetByID(ctx, *supervisor); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return apperrors.NewValidationError("supervisor not found", map[string]any{"supervisor_id": *supervisor})
				}
				return apperrors.MapError(err)
			}
		}

		employeeID := strings.TrimSpace(input.EmployeeID)
		if employeeID == "" {
			var err error
			employeeID, err = nextNumber(ctx, s.sequences, SequenceEmployee, s.clock.Now())
			if err != nil {
				return apperrors.MapError(err)
			}
		}

		user, temp, err := createAccount(ctx, s.users, input.Account, domain.RoleStaff, s.bcryptCost)
		if err != nil {
			return err
		}
		staff := &domain.Staff{
			UserID:       user.ID,
			EmployeeID:   employeeID,
			Designation:  strings.TrimSpace(input.Designation),
			Department:   strings.TrimSpace(input.Department),
			SupervisorID: supervisor,
			HourlyRate:   input.HourlyRate,
			IsAvailable:  true,
			JoiningDate:  input.JoiningDate,
		}
		if err := s.staff.Create(ctx, staff); err != nil {
			if apperrors.IsUniqueViolation(err) {
				return apperrors.NewConflict("employee id already in use", map[string]any{"employee_id": employeeID})
			}
			return apperrors.MapError(err)
		}
		account = &StaffAccount{User: user, Staff: staff, TemporaryPassword: temp}
		return s.audit.Record(ctx, actor.UserID, AuditCreate, "staff", staff.ID, nil, staffValues(staff))
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Get returns one staff profile.
func (s *StaffService) Get(ctx context.Context, id string) (*domain.Staff, error) {
	staff, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError("staff", id, err)
	}
	return staff, nil
}

// List returns staff profiles.
func (s *StaffService) List(ctx context.Context, filter repository.StaffFilter) ([]domain.Staff, error) {
	staff, err := s.staff.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// Update edits a staff profile. The supervisor chain must stay acyclic.
func (s *StaffService) Update(ctx context.Context, actor domain.Principal, id string, input StaffUpdateInput) (*domain.Staff, error) {
	if input.HourlyRate != nil && *input.HourlyRate < 0 {
		return nil, apperrors.NewValidationError("hourly_rate cannot be negative", map[string]any{"field": "hourly_rate"})
	}
	var staff *domain.Staff
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		staff, err = s.staff.GetByID(ctx, id)
		if err != nil {
			return lookupError("staff", id, err)
		}
		before := staffValues(staff)

		if input.EmployeeID != nil {
			if strings.TrimSpace(*input.EmployeeID) == "" {
				return apperrors.NewValidationError("employee_id cannot be empty", map[string]any{"field": "employee_id"})
			}
			staff.EmployeeID = strings.TrimSpace(*input.EmployeeID)
		}
		applyString(&staff.Designation, input.Designation)
		applyString(&staff.Department, input.Department)
		if input.HourlyRate != nil {
			staff.HourlyRate = *input.HourlyRate
		}
		if input.JoiningDate != nil {
			staff.JoiningDate = input.JoiningDate
		}
		if input.ClearSupervisor {
			staff.SupervisorID = nil
		} else if supervisor := trimmed(input.SupervisorID); supervisor != nil {
			if err := s.checkSupervisorChain(ctx, staff.ID, *supervisor); err != nil {
				return err
			}
			staff.SupervisorID = supervisor
		}

		if err := s.staff.Update(ctx, staff); err != nil {
			if apperrors.IsUniqueViolation(err) {
				return apperrors.NewConflict("employee id already in use", map[string]any{"employee_id": staff.EmployeeID})
			}
			return apperrors.MapError(err)
		}
		return s.audit.Record(ctx, actor.UserID, AuditUpdate, "staff", staff.ID, before, staffValues(staff))
	})
	if err != nil {
		return nil, err
	}
	return staff, nil
}

// checkSupervisorChain walks up from the proposed supervisor and fails if
// it reaches staffID.
func (s *StaffService) checkSupervisorChain(ctx context.Context, staffID, supervisorID string) error {
	seen := map[string]bool{}
	current := supervisorID
	for {
		if current == staffID {
			return apperrors.NewValidationError("supervisor chain would form a cycle", map[string]any{"supervisor_id": supervisorID})
		}
		if seen[current] {
			return nil
		}
		seen[current] = true
		next, err := s.staff.GetByID(ctx, current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewValidationError("supervisor not found", map[string]any{"supervisor_id": current})
			}
			return apperrors.MapError(err)
		}
		if next.SupervisorID == nil {
			return nil
		}
		current = *next.SupervisorID
	}
}

// SetAvailability toggles whether the staff member accepts new work. Staff
// may only change their own flag.
func (s *StaffService) SetAvailability(ctx context.Context, principal domain.Principal, id string, available bool) (*domain.Staff, error) {
	var staff *domain.Staff
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		staff, err = s.staff.GetByID(ctx, id)
		if err != nil {
			return lookupError("staff", id, err)
		}
		if !principal.IsAdmin() && staff.UserID != principal.UserID {
			return apperrors.NewForbidden("cannot change another staff member's availability")
		}
		old := staff.IsAvailable
		staff.IsAvailable = available
		if err := s.staff.Update(ctx, staff); err != nil {
			return apperrors.MapError(err)
		}
		return s.audit.Record(ctx, principal.UserID, AuditUpdate, "staff", staff.ID,
			map[string]any{"is_available": old}, map[string]any{"is_available": available})
	})
	if err != nil {
		return nil, err
	}
	return staff, nil
}

// Delete removes the staff profile and its user. Assignments referencing
// the staff member are cleared by the store; a staff member who created
// tasks or uploaded documents cannot be deleted.
func (s *StaffService) Delete(ctx context.Context, actor domain.Principal, id string) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		staff, err := s.staff.GetByID(ctx, id)
		if err != nil {
			return lookupError("staff", id, err)
		}
		if staff.UserID == actor.UserID {
			return apperrors.NewValidationError("cannot delete your own profile", nil)
		}
		createdTasks, err := s.tasks.CountByCreator(ctx, staff.UserID)
		if err != nil {
			return apperrors.MapError(err)
		}
		uploads, err := s.documents.CountByUploader(ctx, staff.UserID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if createdTasks > 0 || uploads > 0 {
			return apperrors.NewConflict("staff member is referenced by existing work", map[string]any{
				"created_tasks":      createdTasks,
				"uploaded_documents": uploads,
			})
		}
		if err := s.staff.Delete(ctx, id); err != nil {
			return apperrors.MapError(err)
		}
		if err := s.users.Delete(ctx, staff.UserID); err != nil {
			return apperrors.MapError(err)
		}
		return s.audit.Record(ctx, actor.UserID, AuditDelete, "staff", id, staffValues(staff), nil)
	})
}

func staffValues(s *domain.Staff) map[string]any {
	return map[string]any{
		"employee_id":   s.EmployeeID,
		"designation":   s.Designation,
		"department":    s.Department,
		"supervisor_id": s.SupervisorID,
		"hourly_rate":   s.HourlyRate,
		"is_available":  s.IsAvailable,
	}
}
