package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/backoffice/internal/clock"
	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/events"
	"github.com/spec-kit/backoffice/internal/repository"
	apperrors "github.com/spec-kit/backoffice/pkg/util"
)

// NotificationContent is the user-facing part of a notification.
type NotificationContent struct {
	Title             string
	Message           string
	RelatedTaskID     *string
	RelatedDocumentID *string
}

// NotificationService turns domain events into per-user notifications and
// serves the notification inbox.
type NotificationService struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	staff         repository.StaffRepository
	clients       repository.ClientRepository
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	clock         clock.Clock
}

// NotificationDependencies bundles requirements.
type NotificationDependencies struct {
	NotificationRepo repository.NotificationRepository
	UserRepo         repository.UserRepository
	StaffRepo        repository.StaffRepository
	ClientRepo       repository.ClientRepository
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
	Clock            clock.Clock
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		notifications: deps.NotificationRepo,
		users:         deps.UserRepo,
		staff:         deps.StaffRepo,
		clients:       deps.ClientRepo,
		dispatcher:    deps.Dispatcher,
		logger:        logger,
		clock:         clk,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTaskAssigned, n.handleTaskAssigned)
	n.dispatcher.Subscribe(events.EventTaskStatusChanged, n.handleTaskStatusChanged)
	n.dispatcher.Subscribe(events.EventDocumentUploaded, n.handleDocumentUploaded)
	n.dispatcher.Subscribe(events.EventDocumentVerified, n.handleDocumentReviewed)
	n.dispatcher.Subscribe(events.EventDocumentRejected, n.handleDocumentReviewed)
	n.dispatcher.Subscribe(events.EventLeadCreated, n.handleLeadCreated)
	n.dispatcher.Subscribe(events.EventLeadAssigned, n.handleLeadAssigned)
	n.dispatcher.Subscribe(events.EventLeadConverted, n.handleLeadConverted)
	n.dispatcher.Subscribe(events.EventServiceRequestCreated, n.handleServiceRequestCreated)
	n.dispatcher.Subscribe(events.EventServiceRequestUpdated, n.handleServiceRequestUpdated)
	n.dispatcher.Subscribe(events.EventClientAssigned, n.handleClientAssigned)
}

// Notify stores one notification for a user.
func (n *NotificationService) Notify(ctx context.Context, userID string, notificationType domain.NotificationType, content NotificationContent) error {
	notification := &domain.Notification{
		UserID:            userID,
		Type:              notificationType,
		Title:             content.Title,
		Message:           content.Message,
		RelatedTaskID:     content.RelatedTaskID,
		RelatedDocumentID: content.RelatedDocumentID,
	}
	if err := n.notifications.Create(ctx, notification); err != nil {
		return fmt.Errorf("create notification for %s: %w", userID, err)
	}
	return nil
}

// NotifyAdmins notifies every active administrator.
func (n *NotificationService) NotifyAdmins(ctx context.Context, notificationType domain.NotificationType, content NotificationContent) error {
	role := domain.RoleAdmin
	active := true
	admins, err := n.users.List(ctx, repository.UserFilter{Role: &role, Active: &active, Limit: 1000})
	if err != nil {
		return fmt.Errorf("list admins: %w", err)
	}
	for _, admin := range admins {
		if err := n.Notify(ctx, admin.ID, notificationType, content); err != nil {
			return err
		}
	}
	return nil
}

// NotifyAssignedStaff notifies the user behind a staff profile.
func (n *NotificationService) NotifyAssignedStaff(ctx context.Context, staffID string, notificationType domain.NotificationType, content NotificationContent) error {
	staff, err := n.staff.GetByID(ctx, staffID)
	if err != nil {
		return fmt.Errorf("load staff %s: %w", staffID, err)
	}
	return n.Notify(ctx, staff.UserID, notificationType, content)
}

func (n *NotificationService) notifyClient(ctx context.Context, clientID string, notificationType domain.NotificationType, content NotificationContent) error {
	client, err := n.clients.GetByID(ctx, clientID)
	if err != nil {
		return fmt.Errorf("load client %s: %w", clientID, err)
	}
	return n.Notify(ctx, client.UserID, notificationType, content)
}

// notifyClientManager notifies the client's account manager, falling back
// to the administrators when the client has none.
func (n *NotificationService) notifyClientManager(ctx context.Context, clientID string, notificationType domain.NotificationType, content NotificationContent) error {
	client, err := n.clients.GetByID(ctx, clientID)
	if err != nil {
		return fmt.Errorf("load client %s: %w", clientID, err)
	}
	if client.AssignedStaffID == nil {
		return n.NotifyAdmins(ctx, notificationType, content)
	}
	return n.NotifyAssignedStaff(ctx, *client.AssignedStaffID, notificationType, content)
}

// List returns the user's notifications, newest first.
func (n *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	items, err := n.notifications.ListByUser(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// UnreadCount returns how many notifications the user has not read.
func (n *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := n.notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}

// MarkRead marks the user's own unread notifications as read. Ids that are
// already read or belong to someone else are ignored.
func (n *NotificationService) MarkRead(ctx context.Context, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, apperrors.NewValidationError("ids are required", map[string]any{"field": "ids"})
	}
	updated, err := n.notifications.MarkRead(ctx, userID, ids, n.clock.Now())
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return updated, nil
}

// MarkAllRead marks every unread notification of the user as read.
func (n *NotificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	updated, err := n.notifications.MarkAllRead(ctx, userID, n.clock.Now())
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return updated, nil
}

// PurgeRead deletes read notifications created before olderThan.
func (n *NotificationService) PurgeRead(ctx context.Context, olderThan time.Time) (int, error) {
	removed, err := n.notifications.PurgeRead(ctx, olderThan)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return removed, nil
}

func (n *NotificationService) handleTaskAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TaskPayload)
	if !ok || payload.AssigneeStaffID == nil {
		return nil
	}
	return n.NotifyAssignedStaff(ctx, *payload.AssigneeStaffID, domain.NotificationTaskAssigned, NotificationContent{
		Title:         "New task assigned",
		Message:       fmt.Sprintf("You have been assigned %q.", payload.Title),
		RelatedTaskID: strPtr(event.EntityID),
	})
}

func (n *NotificationService) handleTaskStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TaskPayload)
	if !ok {
		return nil
	}
	content := NotificationContent{
		Title:         "Task status updated",
		Message:       fmt.Sprintf("%q moved from %s to %s.", payload.Title, payload.OldStatus, payload.NewStatus),
		RelatedTaskID: strPtr(event.EntityID),
	}
	if err := n.notifyClient(ctx, payload.ClientID, domain.NotificationTaskStatusChanged, content); err != nil {
		return err
	}
	return n.notifyClientManager(ctx, payload.ClientID, domain.NotificationTaskStatusChanged, content)
}

func (n *NotificationService) handleDocumentUploaded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.DocumentPayload)
	if !ok {
		return nil
	}
	return n.notifyClientManager(ctx, payload.ClientID, domain.NotificationDocumentUploaded, NotificationContent{
		Title:             "Document uploaded",
		Message:           fmt.Sprintf("%s is waiting for review.", payload.FileName),
		RelatedTaskID:     payload.TaskID,
		RelatedDocumentID: strPtr(event.EntityID),
	})
}

func (n *NotificationService) handleDocumentReviewed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.DocumentPayload)
	if !ok {
		return nil
	}
	notificationType := domain.NotificationDocumentVerified
	content := NotificationContent{
		Title:             "Document verified",
		Message:           fmt.Sprintf("%s has been verified.", payload.FileName),
		RelatedTaskID:     payload.TaskID,
		RelatedDocumentID: strPtr(event.EntityID),
	}
	if event.Type == events.EventDocumentRejected {
		notificationType = domain.NotificationDocumentRejected
		content.Title = "Document rejected"
		content.Message = fmt.Sprintf("%s was rejected: %s", payload.FileName, payload.Reason)
	}
	return n.Notify(ctx, payload.UploadedByID, notificationType, content)
}

func (n *NotificationService) handleLeadCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.LeadPayload)
	if !ok {
		return nil
	}
	content := NotificationContent{
		Title:   "New lead",
		Message: fmt.Sprintf("%s (%s) entered the pipeline.", payload.Name, payload.LeadNumber),
	}
	if err := n.NotifyAdmins(ctx, domain.NotificationLeadCreated, content); err != nil {
		return err
	}
	if payload.AssigneeStaffID == nil {
		return nil
	}
	return n.NotifyAssignedStaff(ctx, *payload.AssigneeStaffID, domain.NotificationLeadAssigned, content)
}

func (n *NotificationService) handleLeadAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.LeadPayload)
	if !ok || payload.AssigneeStaffID == nil {
		return nil
	}
	return n.NotifyAssignedStaff(ctx, *payload.AssigneeStaffID, domain.NotificationLeadAssigned, NotificationContent{
		Title:   "Lead assigned",
		Message: fmt.Sprintf("%s (%s) is now yours.", payload.Name, payload.LeadNumber),
	})
}

func (n *NotificationService) handleLeadConverted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.LeadPayload)
	if !ok {
		return nil
	}
	return n.NotifyAdmins(ctx, domain.NotificationLeadConverted, NotificationContent{
		Title:   "Lead converted",
		Message: fmt.Sprintf("%s (%s) became a client.", payload.Name, payload.LeadNumber),
	})
}

func (n *NotificationService) handleServiceRequestCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ServiceRequestPayload)
	if !ok {
		return nil
	}
	return n.notifyClientManager(ctx, payload.ClientID, domain.NotificationServiceRequestCreated, NotificationContent{
		Title:   "New service request",
		Message: fmt.Sprintf("%s: %s", payload.RequestNumber, payload.Title),
	})
}

func (n *NotificationService) handleServiceRequestUpdated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ServiceRequestPayload)
	if !ok {
		return nil
	}
	content := NotificationContent{
		Title:   "Service request updated",
		Message: fmt.Sprintf("%s is now %s.", payload.RequestNumber, payload.Status),
	}
	if err := n.notifyClient(ctx, payload.ClientID, domain.NotificationServiceRequestUpdated, content); err != nil {
		return err
	}
	if payload.Status == domain.ServiceRequestAssigned && payload.AssigneeStaffID != nil {
		return n.NotifyAssignedStaff(ctx, *payload.AssigneeStaffID, domain.NotificationServiceRequestUpdated, content)
	}
	return nil
}

func (n *NotificationService) handleClientAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ClientAssignedPayload)
	if !ok {
		return nil
	}
	return n.NotifyAssignedStaff(ctx, payload.StaffID, domain.NotificationClientAssigned, NotificationContent{
		Title:   "Client assigned",
		Message: fmt.Sprintf("You now manage %s.", payload.CompanyName),
	})
}
