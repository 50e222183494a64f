package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/backoffice/internal/api/dto"
	"github.com/spec-kit/backoffice/internal/auth"
	"github.com/spec-kit/backoffice/internal/service"
)

// NotificationsHandler exposes the caller's own inbox.
type NotificationsHandler struct {
	notifications *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notificationService *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notificationService}
}

// List handles GET /notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	unread, err := queryBool(c, "unread")
	if err != nil {
		return err
	}
	limit, offset := pagination(c)
	items, err := h.notifications.List(c.UserContext(), principal.UserID, unread != nil && *unread, limit, offset)
	if err != nil {
		return err
	}
	return respond(c, mapSlice(items, notificationResponse))
}

// UnreadCount handles GET /notifications/unread-count.
func (h *NotificationsHandler) UnreadCount(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	count, err := h.notifications.UnreadCount(c.UserContext(), principal.UserID)
	if err != nil {
		return err
	}
	return respond(c, fiber.Map{"unread": count})
}

// MarkRead handles POST /notifications/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.MarkReadRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	updated, err := h.notifications.MarkRead(c.UserContext(), principal.UserID, req.IDs)
	if err != nil {
		return err
	}
	return respond(c, fiber.Map{"updated": updated})
}

// MarkAllRead handles POST /notifications/read-all.
func (h *NotificationsHandler) MarkAllRead(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	updated, err := h.notifications.MarkAllRead(c.UserContext(), principal.UserID)
	if err != nil {
		return err
	}
	return respond(c, fiber.Map{"updated": updated})
}
