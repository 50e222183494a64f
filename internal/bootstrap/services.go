// Package bootstrap assembles the service graph shared by the API binary
// and the end-to-end HTTP tests.
package bootstrap

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/backoffice/internal/access"
	"github.com/spec-kit/backoffice/internal/auth"
	"github.com/spec-kit/backoffice/internal/clock"
	"github.com/spec-kit/backoffice/internal/config"
	"github.com/spec-kit/backoffice/internal/events"
	"github.com/spec-kit/backoffice/internal/repository"
	"github.com/spec-kit/backoffice/internal/service"
	"github.com/spec-kit/backoffice/internal/worker"
)

// Services is every application service wired to one store.
type Services struct {
	Tokens          *auth.TokenManager
	Access          *access.Resolver
	Dispatcher      events.Dispatcher
	Catalog         *service.CatalogService
	Audit           *service.AuditService
	Auth            *service.AuthService
	Users           *service.UserService
	Clients         *service.ClientService
	Staff           *service.StaffService
	Leads           *service.LeadService
	ServiceRequests *service.ServiceRequestService
	Tasks           *service.TaskService
	Documents       *service.DocumentService
	Notifications   *service.NotificationService
	Reminders       *service.ReminderService
}

// BuildServices loads the catalog snapshot, wires every service, registers
// the notification handlers and creates the bootstrap admin if configured.
func BuildServices(ctx context.Context, store *repository.Store, cfg *config.Config, logger *zap.Logger, clk clock.Clock) (*Services, error) {
	if clk == nil {
		clk = clock.Real()
	}
	catalog, err := service.LoadCatalog(ctx, store.Catalog)
	if err != nil {
		return nil, err
	}

	cost := cfg.Auth.BcryptCost
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL(), cfg.Auth.RefreshTTL(), clk)
	resolver := access.NewResolver(access.ResolverDependencies{Clients: store.Clients, Staff: store.Staff, Tasks: store.Tasks})
	dispatcher := events.NewInMemoryDispatcher(logger)
	audit := service.NewAuditService(store.Audit)

	s := &Services{
		Tokens:     tokens,
		Access:     resolver,
		Dispatcher: dispatcher,
		Catalog:    catalog,
		Audit:      audit,
	}
	s.Auth = service.NewAuthService(service.AuthDependencies{
		UserRepo: store.Users, TokenManager: tokens, Audit: audit, Clock: clk, BcryptCost: cost,
	})
	s.Users = service.NewUserService(service.UserDependencies{
		UserRepo: store.Users, TxManager: store.Tx, Audit: audit, Logger: logger, BcryptCost: cost,
	})
	s.Clients = service.NewClientService(service.ClientDependencies{
		ClientRepo: store.Clients, UserRepo: store.Users, StaffRepo: store.Staff, TaskRepo: store.Tasks,
		DocumentRepo: store.Documents, TxManager: store.Tx, Access: resolver, Audit: audit,
		Dispatcher: dispatcher, Clock: clk, BcryptCost: cost,
	})
	s.Staff = service.NewStaffService(service.StaffDependencies{
		StaffRepo: store.Staff, UserRepo: store.Users, SequenceRepo: store.Sequences, TaskRepo: store.Tasks,
		DocumentRepo: store.Documents, TxManager: store.Tx,
		Audit: audit, Clock: clk, BcryptCost: cost,
	})
	s.Leads = service.NewLeadService(service.LeadDependencies{
		LeadRepo: store.Leads, UserRepo: store.Users, ClientRepo: store.Clients, StaffRepo: store.Staff,
		SequenceRepo: store.Sequences, TxManager: store.Tx, Access: resolver, Catalog: catalog, Audit: audit,
		Dispatcher: dispatcher, Clock: clk, BcryptCost: cost,
	})
	s.ServiceRequests = service.NewServiceRequestService(service.ServiceRequestDependencies{
		ServiceRequestRepo: store.ServiceRequests, ClientRepo: store.Clients, StaffRepo: store.Staff,
		TaskRepo: store.Tasks, SequenceRepo: store.Sequences, TxManager: store.Tx, Access: resolver,
		Catalog: catalog, Audit: audit, Dispatcher: dispatcher, Clock: clk,
	})
	s.Tasks = service.NewTaskService(service.TaskDependencies{
		TaskRepo: store.Tasks, ClientRepo: store.Clients, StaffRepo: store.Staff, TxManager: store.Tx,
		Access: resolver, Catalog: catalog, Audit: audit, Dispatcher: dispatcher, Clock: clk,
	})
	s.Documents = service.NewDocumentService(service.DocumentDependencies{
		DocumentRepo: store.Documents, ClientRepo: store.Clients, TaskRepo: store.Tasks, TxManager: store.Tx,
		Access: resolver, Audit: audit, Dispatcher: dispatcher, Clock: clk,
	})
	s.Notifications = service.NewNotificationService(service.NotificationDependencies{
		NotificationRepo: store.Notifications, UserRepo: store.Users, StaffRepo: store.Staff,
		ClientRepo: store.Clients, Dispatcher: dispatcher, Logger: logger, Clock: clk,
	})
	worker.StartNotificationWorker(s.Notifications)
	s.Reminders = service.NewReminderService(service.ReminderDependencies{
		TaskRepo: store.Tasks, StaffRepo: store.Staff, Notifications: s.Notifications,
		Logger: logger, Clock: clk, Config: cfg.Notification,
	})

	if err := s.Users.BootstrapAdmin(ctx, cfg.Auth.BootstrapAdminEmail, cfg.Auth.BootstrapAdminPassword); err != nil {
		return nil, err
	}
	return s, nil
}
