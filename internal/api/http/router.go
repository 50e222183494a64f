package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/backoffice/internal/api/http/handlers"
	"github.com/spec-kit/backoffice/internal/auth"
	"github.com/spec-kit/backoffice/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Auth            *handlers.AuthHandler
	Users           *handlers.UsersHandler
	Staff           *handlers.StaffHandler
	Clients         *handlers.ClientsHandler
	Leads           *handlers.LeadsHandler
	ServiceRequests *handlers.ServiceRequestsHandler
	Tasks           *handlers.TasksHandler
	Documents       *handlers.DocumentsHandler
	Notifications   *handlers.NotificationsHandler
	Catalog         *handlers.CatalogHandler
	Admin           *handlers.AdminHandler
	AuthMiddleware  *auth.AuthMiddleware
	// PublicLimiter guards anonymous endpoints; nil disables limiting.
	PublicLimiter fiber.Handler
}

// route is one row of the route table. A nil roles slice marks a public
// route; an empty non-nil slice admits any authenticated caller.
type route struct {
	method  string
	path    string
	roles   []domain.Role
	limited bool
	handler fiber.Handler
}

// public leaves the route unauthenticated.
var public []domain.Role

var (
	authenticated = []domain.Role{}
	adminOnly     = []domain.Role{domain.RoleAdmin}
	staffOrAdmin  = []domain.Role{domain.RoleAdmin, domain.RoleStaff}
	anyRole       = []domain.Role{domain.RoleAdmin, domain.RoleStaff, domain.RoleClient}
)

func routes(cfg RouteConfig) []route {
	return []route{
		{fiber.MethodGet, "/health/live", public, false, cfg.Health.Live},
		{fiber.MethodGet, "/health/ready", public, false, cfg.Health.Ready},

		{fiber.MethodPost, "/public/leads", public, true, cfg.Leads.SubmitPublic},

		{fiber.MethodPost, "/auth/login", public, true, cfg.Auth.Login},
		{fiber.MethodPost, "/auth/refresh", public, false, cfg.Auth.Refresh},
		{fiber.MethodPost, "/auth/logout", authenticated, false, cfg.Auth.Logout},
		{fiber.MethodGet, "/auth/me", authenticated, false, cfg.Auth.Me},
		{fiber.MethodPost, "/auth/password/change", authenticated, false, cfg.Auth.ChangePassword},

		{fiber.MethodGet, "/users", adminOnly, false, cfg.Users.List},
		{fiber.MethodPost, "/users/admins", adminOnly, false, cfg.Users.CreateAdmin},
		{fiber.MethodGet, "/users/:id", adminOnly, false, cfg.Users.Get},
		{fiber.MethodPatch, "/users/:id/active", adminOnly, false, cfg.Users.SetActive},

		{fiber.MethodPost, "/staff", adminOnly, false, cfg.Staff.Create},
		{fiber.MethodGet, "/staff", staffOrAdmin, false, cfg.Staff.List},
		{fiber.MethodGet, "/staff/:id", staffOrAdmin, false, cfg.Staff.Get},
		{fiber.MethodPatch, "/staff/:id", adminOnly, false, cfg.Staff.Update},
		{fiber.MethodPatch, "/staff/:id/availability", staffOrAdmin, false, cfg.Staff.SetAvailability},
		{fiber.MethodDelete, "/staff/:id", adminOnly, false, cfg.Staff.Delete},

		{fiber.MethodPost, "/clients", adminOnly, false, cfg.Clients.Create},
		{fiber.MethodGet, "/clients", anyRole, false, cfg.Clients.List},
		{fiber.MethodGet, "/clients/:id", anyRole, false, cfg.Clients.Get},
		{fiber.MethodPatch, "/clients/:id", anyRole, false, cfg.Clients.Update},
		{fiber.MethodDelete, "/clients/:id", adminOnly, false, cfg.Clients.Delete},
		{fiber.MethodPut, "/clients/:id/staff", adminOnly, false, cfg.Clients.AssignStaff},

		{fiber.MethodPost, "/leads", staffOrAdmin, false, cfg.Leads.Create},
		{fiber.MethodGet, "/leads", staffOrAdmin, false, cfg.Leads.List},
		{fiber.MethodGet, "/leads/:id", staffOrAdmin, false, cfg.Leads.Get},
		{fiber.MethodPatch, "/leads/:id", staffOrAdmin, false, cfg.Leads.Update},
		{fiber.MethodPatch, "/leads/:id/status", staffOrAdmin, false, cfg.Leads.UpdateStatus},
		{fiber.MethodPut, "/leads/:id/assignee", adminOnly, false, cfg.Leads.Assign},
		{fiber.MethodPost, "/leads/:id/convert", staffOrAdmin, false, cfg.Leads.Convert},

		{fiber.MethodPost, "/service-requests", anyRole, false, cfg.ServiceRequests.Create},
		{fiber.MethodGet, "/service-requests", anyRole, false, cfg.ServiceRequests.List},
		{fiber.MethodGet, "/service-requests/:id", anyRole, false, cfg.ServiceRequests.Get},
		{fiber.MethodPut, "/service-requests/:id/assignee", adminOnly, false, cfg.ServiceRequests.Assign},
		{fiber.MethodPost, "/service-requests/:id/respond", staffOrAdmin, false, cfg.ServiceRequests.Respond},
		{fiber.MethodPatch, "/service-requests/:id/status", staffOrAdmin, false, cfg.ServiceRequests.UpdateStatus},
		{fiber.MethodPost, "/service-requests/:id/cancel", anyRole, false, cfg.ServiceRequests.Cancel},
		{fiber.MethodPost, "/service-requests/:id/convert", staffOrAdmin, false, cfg.ServiceRequests.ConvertToTask},

		{fiber.MethodPost, "/tasks", staffOrAdmin, false, cfg.Tasks.Create},
		{fiber.MethodGet, "/tasks", anyRole, false, cfg.Tasks.List},
		{fiber.MethodGet, "/tasks/deadline-summary", anyRole, false, cfg.Tasks.DeadlineSummary},
		{fiber.MethodGet, "/tasks/:id", anyRole, false, cfg.Tasks.Get},
		{fiber.MethodPatch, "/tasks/:id", staffOrAdmin, false, cfg.Tasks.Update},
		{fiber.MethodPatch, "/tasks/:id/status", staffOrAdmin, false, cfg.Tasks.UpdateStatus},
		{fiber.MethodPut, "/tasks/:id/assignee", staffOrAdmin, false, cfg.Tasks.Reassign},
		{fiber.MethodDelete, "/tasks/:id", adminOnly, false, cfg.Tasks.Delete},

		{fiber.MethodPost, "/documents", anyRole, false, cfg.Documents.Upload},
		{fiber.MethodGet, "/documents", anyRole, false, cfg.Documents.List},
		{fiber.MethodGet, "/documents/:id", anyRole, false, cfg.Documents.Get},
		{fiber.MethodPost, "/documents/:id/verify", staffOrAdmin, false, cfg.Documents.Verify},
		{fiber.MethodPost, "/documents/:id/reject", staffOrAdmin, false, cfg.Documents.Reject},
		{fiber.MethodPost, "/documents/:id/reset", adminOnly, false, cfg.Documents.Reset},
		{fiber.MethodDelete, "/documents/:id", anyRole, false, cfg.Documents.Delete},

		{fiber.MethodGet, "/notifications", authenticated, false, cfg.Notifications.List},
		{fiber.MethodGet, "/notifications/unread-count", authenticated, false, cfg.Notifications.UnreadCount},
		{fiber.MethodPost, "/notifications/read", authenticated, false, cfg.Notifications.MarkRead},
		{fiber.MethodPost, "/notifications/read-all", authenticated, false, cfg.Notifications.MarkAllRead},

		{fiber.MethodGet, "/catalog", authenticated, false, cfg.Catalog.Tree},
		{fiber.MethodGet, "/catalog/items/:id", authenticated, false, cfg.Catalog.Item},

		{fiber.MethodGet, "/audit-logs", adminOnly, false, cfg.Admin.AuditLogs},
		{fiber.MethodGet, "/admin/metrics", adminOnly, false, cfg.Admin.Metrics},
		{fiber.MethodGet, "/admin/jobs", adminOnly, false, cfg.Admin.ListJobs},
		{fiber.MethodPost, "/admin/jobs/:job", adminOnly, false, cfg.Admin.RunJob},
	}
}

// RegisterRoutes wires HTTP routes from the route table.
func RegisterRoutes(app fiber.Router, cfg RouteConfig) {
	for _, r := range routes(cfg) {
		chain := make([]fiber.Handler, 0, 4)
		if r.limited && cfg.PublicLimiter != nil {
			chain = append(chain, cfg.PublicLimiter)
		}
		if r.roles != nil {
			chain = append(chain, cfg.AuthMiddleware.Handle, auth.RequireRoles(r.roles...))
		}
		chain = append(chain, r.handler)
		app.Add(r.method, r.path, chain...)
	}
}
