package handlers

import (
	"context"
	"sort"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/backoffice/internal/observability"
	"github.com/spec-kit/backoffice/internal/repository"
	"github.com/spec-kit/backoffice/internal/service"
	apperrors "github.com/spec-kit/backoffice/pkg/util"
)

// JobRunner runs one scheduled operation on demand.
type JobRunner func(ctx context.Context) (service.JobResult, error)

// AdminHandler exposes operational endpoints.
type AdminHandler struct {
	audit   *service.AuditService
	metrics *observability.Metrics
	jobs    map[string]JobRunner
}

// NewAdminHandler constructs handler.
func NewAdminHandler(audit *service.AuditService, metrics *observability.Metrics, jobs map[string]JobRunner) *AdminHandler {
	return &AdminHandler{audit: audit, metrics: metrics, jobs: jobs}
}

// AuditLogs handles GET /audit-logs.
func (h *AdminHandler) AuditLogs(c *fiber.Ctx) error {
	filter := repository.AuditFilter{
		EntityType:  queryString(c, "entity_type"),
		EntityID:    queryString(c, "entity_id"),
		ActorUserID: queryString(c, "actor_user_id"),
	}
	filter.Limit, filter.Offset = pagination(c)
	logs, err := h.audit.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return respond(c, mapSlice(logs, auditLogResponse))
}

// Metrics handles GET /admin/metrics.
func (h *AdminHandler) Metrics(c *fiber.Ctx) error {
	return respond(c, h.metrics.Snapshot())
}

// ListJobs handles GET /admin/jobs.
func (h *AdminHandler) ListJobs(c *fiber.Ctx) error {
	names := make([]string, 0, len(h.jobs))
	for name := range h.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return respond(c, names)
}

// RunJob handles POST /admin/jobs/:job.
func (h *AdminHandler) RunJob(c *fiber.Ctx) error {
	name := c.Params("job")
	run, ok := h.jobs[name]
	if !ok {
		return apperrors.NewNotFound("job", map[string]any{"job": name})
	}
	result, err := run(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, result)
}
