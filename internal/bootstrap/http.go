package bootstrap

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/backoffice/internal/api/http"
	"github.com/spec-kit/backoffice/internal/api/http/handlers"
	"github.com/spec-kit/backoffice/internal/auth"
	"github.com/spec-kit/backoffice/internal/config"
	"github.com/spec-kit/backoffice/internal/observability"
	"github.com/spec-kit/backoffice/internal/ratelimit"
	"github.com/spec-kit/backoffice/internal/worker"
)

// HTTPOptions carries the transport-level collaborators.
type HTTPOptions struct {
	App       config.AppConfig
	Storage   string
	Probes    map[string]handlers.Pinger
	Limiter   ratelimit.Limiter
	Metrics   *observability.Metrics
	Logger    *zap.Logger
	Scheduler config.SchedulerConfig
}

// NewHTTPApp builds the Fiber app with middlewares and the route table.
func NewHTTPApp(s *Services, opts HTTPOptions) *fiber.App {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		AppName:      opts.App.Name,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return httptransport.WriteError(c, logger, opts.Metrics, err)
		},
	})
	httptransport.RegisterMiddlewares(app, logger, opts.Metrics, opts.App.RequestTimeout())

	jobs := make(map[string]handlers.JobRunner)
	for _, job := range worker.ReminderJobs(s.Reminders, opts.Scheduler) {
		jobs[job.Name] = job.Run
	}

	var limiter fiber.Handler
	if opts.Limiter != nil {
		limiter = httptransport.RateLimit(opts.Limiter, "public", logger)
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(opts.App.Name, opts.App.Version, opts.Storage, opts.Probes),
		Auth:            handlers.NewAuthHandler(s.Auth),
		Users:           handlers.NewUsersHandler(s.Users),
		Staff:           handlers.NewStaffHandler(s.Staff),
		Clients:         handlers.NewClientsHandler(s.Clients),
		Leads:           handlers.NewLeadsHandler(s.Leads),
		ServiceRequests: handlers.NewServiceRequestsHandler(s.ServiceRequests),
		Tasks:           handlers.NewTasksHandler(s.Tasks),
		Documents:       handlers.NewDocumentsHandler(s.Documents),
		Notifications:   handlers.NewNotificationsHandler(s.Notifications),
		Catalog:         handlers.NewCatalogHandler(s.Catalog),
		Admin:           handlers.NewAdminHandler(s.Audit, opts.Metrics, jobs),
		AuthMiddleware:  auth.NewAuthMiddleware(s.Tokens),
		PublicLimiter:   limiter,
	})
	return app
}
