package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/events"
)

func TestEventsBecomeNotifications(t *testing.T) {
	env := newTestEnv(t)
	staff, staffID := env.newStaff(t, "a@firm.com")
	client, clientID := env.newClient(t, "c@client.com", &staffID)

	if countType(env.inbox(t, staff.UserID), domain.NotificationClientAssigned) != 1 {
		t.Fatal("client assignment not notified")
	}

	task := env.newTask(t, clientID, &staffID, day(5))
	if countType(env.inbox(t, staff.UserID), domain.NotificationTaskAssigned) != 1 {
		t.Fatal("task assignment not notified")
	}
	if _, err := env.tasks.UpdateStatus(env.ctx, staff, task.ID, domain.TaskStatusInProgress); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	clientInbox := env.inbox(t, client.UserID)
	if countType(clientInbox, domain.NotificationTaskStatusChanged) != 1 {
		t.Fatalf("client inbox = %+v", clientInbox)
	}
	for _, n := range clientInbox {
		if n.Type == domain.NotificationTaskStatusChanged && (n.RelatedTaskID == nil || *n.RelatedTaskID != task.ID) {
			t.Fatal("notification not linked to task")
		}
	}

	if _, err := env.leads.Create(env.ctx, nil, LeadCreateInput{Name: "Web", Email: "w@b.com"}); err != nil {
		t.Fatalf("lead Create: %v", err)
	}
	if countType(env.inbox(t, env.admin.UserID), domain.NotificationLeadCreated) != 1 {
		t.Fatal("admins not told about new lead")
	}
}

func TestHandlerFailureDoesNotReachPublisher(t *testing.T) {
	env := newTestEnv(t)

	env.dispatcher.Publish(env.ctx, events.New(events.EventClientAssigned, "client-x", nil, env.clock.Now(),
		events.ClientAssignedPayload{CompanyName: "Ghost", StaffID: "missing-staff"}))
	if got := env.logs.FilterMessage("event handler failed").Len(); got != 1 {
		t.Fatalf("expected one logged handler failure, got %d", got)
	}

	env.dispatcher.Subscribe(events.EventLeadCreated, func(context.Context, events.Event) error {
		panic("boom")
	})
	lead, err := env.leads.Create(env.ctx, nil, LeadCreateInput{Name: "Still saved", Email: "saved@b.com"})
	if err != nil {
		t.Fatalf("Create must succeed despite a failing handler: %v", err)
	}
	if _, err := env.leads.Get(env.ctx, env.admin, lead.ID); err != nil {
		t.Fatalf("lead not persisted: %v", err)
	}
	if got := env.logs.FilterMessage("event handler failed").Len(); got != 2 {
		t.Fatalf("panic not logged, failures = %d", got)
	}
	if countType(env.inbox(t, env.admin.UserID), domain.NotificationLeadCreated) != 1 {
		t.Fatal("healthy handler skipped after sibling failure")
	}
}

func TestMarkReadIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	staff, _ := env.newStaff(t, "a@firm.com")
	other, _ := env.newStaff(t, "b@firm.com")

	for i := 0; i < 3; i++ {
		if err := env.notifications.Notify(env.ctx, staff.UserID, domain.NotificationWeeklySummary, NotificationContent{Title: "hi"}); err != nil {
			t.Fatalf("Notify: %v", err)
		}
	}
	items := env.inbox(t, staff.UserID)
	if len(items) != 3 {
		t.Fatalf("inbox = %d", len(items))
	}

	updated, err := env.notifications.MarkRead(env.ctx, staff.UserID, []string{items[0].ID})
	if err != nil || updated != 1 {
		t.Fatalf("MarkRead = %d, %v", updated, err)
	}
	updated, err = env.notifications.MarkRead(env.ctx, staff.UserID, []string{items[0].ID})
	if err != nil || updated != 0 {
		t.Fatalf("second MarkRead = %d, %v", updated, err)
	}
	updated, err = env.notifications.MarkRead(env.ctx, other.UserID, []string{items[1].ID})
	if err != nil || updated != 0 {
		t.Fatalf("foreign MarkRead = %d, %v", updated, err)
	}

	count, err := env.notifications.UnreadCount(env.ctx, staff.UserID)
	if err != nil || count != 2 {
		t.Fatalf("UnreadCount = %d, %v", count, err)
	}
	if n, err := env.notifications.MarkAllRead(env.ctx, staff.UserID); err != nil || n != 2 {
		t.Fatalf("MarkAllRead = %d, %v", n, err)
	}
	if n, err := env.notifications.MarkAllRead(env.ctx, staff.UserID); err != nil || n != 0 {
		t.Fatalf("repeat MarkAllRead = %d, %v", n, err)
	}
	unread, err := env.notifications.List(env.ctx, staff.UserID, true, 10, 0)
	if err != nil || len(unread) != 0 {
		t.Fatalf("unread after MarkAllRead = %d, %v", len(unread), err)
	}
}

func TestPurgeKeepsUnread(t *testing.T) {
	env := newTestEnv(t)
	staff, _ := env.newStaff(t, "a@firm.com")

	_ = env.notifications.Notify(env.ctx, staff.UserID, domain.NotificationWeeklySummary, NotificationContent{Title: "old read"})
	_ = env.notifications.Notify(env.ctx, staff.UserID, domain.NotificationWeeklySummary, NotificationContent{Title: "old unread"})
	items := env.inbox(t, staff.UserID)
	var readID string
	for _, n := range items {
		if n.Title == "old read" {
			readID = n.ID
		}
	}
	if _, err := env.notifications.MarkRead(env.ctx, staff.UserID, []string{readID}); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}

	env.clock.Advance(31 * 24 * time.Hour)
	result, err := env.reminders.PurgeReadNotifications(env.ctx)
	if err != nil {
		t.Fatalf("PurgeReadNotifications: %v", err)
	}
	if result.Purged != 1 {
		t.Fatalf("Purged = %d", result.Purged)
	}
	left := env.inbox(t, staff.UserID)
	if len(left) != 1 || left[0].Title != "old unread" {
		t.Fatalf("remaining = %+v", left)
	}
}
