package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/backoffice/internal/access"
	"github.com/spec-kit/backoffice/internal/auth"
	"github.com/spec-kit/backoffice/internal/clock"
	"github.com/spec-kit/backoffice/internal/config"
	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/events"
	"github.com/spec-kit/backoffice/internal/repository"
	"github.com/spec-kit/backoffice/internal/repository/memstore"
	apperrors "github.com/spec-kit/backoffice/pkg/util"
)

const testCost = 4

var testStart = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	ctx   context.Context
	clock *clock.FakeClock
	db    *memstore.DB
	store *repository.Store
	logs  *observer.ObservedLogs

	tokens        *auth.TokenManager
	access        *access.Resolver
	catalog       *CatalogService
	audit         *AuditService
	dispatcher    events.Dispatcher
	auth          *AuthService
	users         *UserService
	clients       *ClientService
	staff         *StaffService
	leads         *LeadService
	requests      *ServiceRequestService
	tasks         *TaskService
	documents     *DocumentService
	notifications *NotificationService
	reminders     *ReminderService

	admin domain.Principal
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	clk := clock.Fake(testStart)
	db := memstore.New(clk)
	db.SeedCatalog(
		[]domain.ServiceCategory{{ID: "cat-tax", Name: "Tax", IsActive: true}},
		[]domain.ServiceSubcategory{{ID: "sub-itr", CategoryID: "cat-tax", Name: "Income tax", IsActive: true}},
		[]domain.ServiceItem{
			{ID: "item-itr", SubcategoryID: "sub-itr", Name: "ITR filing", EstimatedHours: 4, IsActive: true},
			{ID: "item-retired", SubcategoryID: "sub-itr", Name: "Legacy filing", IsActive: false},
		},
	)
	store := db.Store()

	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	catalog, err := LoadCatalog(ctx, store.Catalog)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	resolver := access.NewResolver(access.ResolverDependencies{Clients: store.Clients, Staff: store.Staff, Tasks: store.Tasks})
	audit := NewAuditService(store.Audit)
	dispatcher := events.NewInMemoryDispatcher(logger)
	tokens := auth.NewTokenManager("test-secret", 15*time.Minute, 24*time.Hour, clk)

	env := &testEnv{
		ctx:        ctx,
		clock:      clk,
		db:         db,
		store:      store,
		logs:       logs,
		tokens:     tokens,
		access:     resolver,
		catalog:    catalog,
		audit:      audit,
		dispatcher: dispatcher,
	}
	env.auth = NewAuthService(AuthDependencies{UserRepo: store.Users, TokenManager: tokens, Audit: audit, Clock: clk, BcryptCost: testCost})
	env.users = NewUserService(UserDependencies{UserRepo: store.Users, TxManager: store.Tx, Audit: audit, Logger: logger, BcryptCost: testCost})
	env.clients = NewClientService(ClientDependencies{
		ClientRepo: store.Clients, UserRepo: store.Users, StaffRepo: store.Staff, TaskRepo: store.Tasks,
		DocumentRepo: store.Documents, TxManager: store.Tx, Access: resolver, Audit: audit,
		Dispatcher: dispatcher, Clock: clk, BcryptCost: testCost,
	})
	env.staff = NewStaffService(StaffDependencies{
		StaffRepo: store.Staff, UserRepo: store.Users, SequenceRepo: store.Sequences, TaskRepo: store.Tasks,
		DocumentRepo: store.Documents, TxManager: store.Tx,
		Audit: audit, Clock: clk, BcryptCost: testCost,
	})
	env.leads = NewLeadService(LeadDependencies{
		LeadRepo: store.Leads, UserRepo: store.Users, ClientRepo: store.Clients, StaffRepo: store.Staff,
		SequenceRepo: store.Sequences, TxManager: store.Tx, Access: resolver, Catalog: catalog, Audit: audit,
		Dispatcher: dispatcher, Clock: clk, BcryptCost: testCost,
	})
	env.requests = NewServiceRequestService(ServiceRequestDependencies{
		ServiceRequestRepo: store.ServiceRequests, ClientRepo: store.Clients, StaffRepo: store.Staff,
		TaskRepo: store.Tasks, SequenceRepo: store.Sequences, TxManager: store.Tx, Access: resolver,
		Catalog: catalog, Audit: audit, Dispatcher: dispatcher, Clock: clk,
	})
	env.tasks = NewTaskService(TaskDependencies{
		TaskRepo: store.Tasks, ClientRepo: store.Clients, StaffRepo: store.Staff, TxManager: store.Tx,
		Access: resolver, Catalog: catalog, Audit: audit, Dispatcher: dispatcher, Clock: clk,
	})
	env.documents = NewDocumentService(DocumentDependencies{
		DocumentRepo: store.Documents, ClientRepo: store.Clients, TaskRepo: store.Tasks, TxManager: store.Tx,
		Access: resolver, Audit: audit, Dispatcher: dispatcher, Clock: clk,
	})
	env.notifications = NewNotificationService(NotificationDependencies{
		NotificationRepo: store.Notifications, UserRepo: store.Users, StaffRepo: store.Staff,
		ClientRepo: store.Clients, Dispatcher: dispatcher, Logger: logger, Clock: clk,
	})
	env.notifications.RegisterHandlers()
	env.reminders = NewReminderService(ReminderDependencies{
		TaskRepo: store.Tasks, StaffRepo: store.Staff, Notifications: env.notifications, Logger: logger, Clock: clk,
		Config: config.NotificationConfig{RetentionDays: 30, ReminderWindowDays: 3},
	})

	if err := env.users.BootstrapAdmin(ctx, "admin@example.com", "admin-pass-1"); err != nil {
		t.Fatalf("BootstrapAdmin: %v", err)
	}
	admin, err := store.Users.GetByEmail(ctx, "admin@example.com")
	if err != nil {
		t.Fatalf("load admin: %v", err)
	}
	env.admin = principalOf(admin)
	return env
}

func principalOf(u *domain.User) domain.Principal {
	return domain.Principal{UserID: u.ID, Email: u.Email, Role: u.Role}
}

func (e *testEnv) newStaff(t *testing.T, email string) (domain.Principal, string) {
	t.Helper()
	account, err := e.staff.Create(e.ctx, e.admin, StaffCreateInput{
		Account:     AccountInput{Email: email, Password: "staff-pass-1", FirstName: "Staff"},
		Designation: "Associate",
	})
	if err != nil {
		t.Fatalf("create staff %s: %v", email, err)
	}
	return principalOf(account.User), account.Staff.ID
}

func (e *testEnv) newClient(t *testing.T, email string, assigned *string) (domain.Principal, string) {
	t.Helper()
	account, err := e.clients.Create(e.ctx, e.admin, ClientCreateInput{
		Account:         AccountInput{Email: email, Password: "client-pass-1"},
		Profile:         ClientProfileInput{CompanyName: email + " Ltd"},
		AssignedStaffID: assigned,
	})
	if err != nil {
		t.Fatalf("create client %s: %v", email, err)
	}
	return principalOf(account.User), account.Client.ID
}

func (e *testEnv) newTask(t *testing.T, clientID string, assignee *string, due *time.Time) *TaskView {
	t.Helper()
	task, err := e.tasks.Create(e.ctx, e.admin, TaskCreateInput{
		Title:           "Quarterly filing",
		ClientID:        clientID,
		AssignedStaffID: assignee,
		DueDate:         due,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func (e *testEnv) inbox(t *testing.T, userID string) []domain.Notification {
	t.Helper()
	items, err := e.notifications.List(e.ctx, userID, false, 100, 0)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	return items
}

func countType(items []domain.Notification, notificationType domain.NotificationType) int {
	n := 0
	for _, item := range items {
		if item.Type == notificationType {
			n++
		}
	}
	return n
}

func expectCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", code)
	}
	if !apperrors.IsCode(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func day(offset int) *time.Time {
	d := testStart.AddDate(0, 0, offset)
	return &d
}
