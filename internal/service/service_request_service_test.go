package service

import (
	"testing"

	"github.com/spec-kit/backoffice/internal/domain"
	apperrors "github.com/spec-kit/backoffice/pkg/util"
)

func TestServiceRequestLifecycle(t *testing.T) {
	env := newTestEnv(t)
	staff, staffID := env.newStaff(t, "a@firm.com")
	client, clientID := env.newClient(t, "c@client.com", nil)

	request, err := env.requests.Create(env.ctx, client, ServiceRequestCreateInput{
		ClientID:          "ignored-for-clients",
		ServiceItemID:     strPtr("item-itr"),
		Title:             "File my return",
		PreferredDeadline: day(20),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if request.ClientID != clientID || request.RequestID != "SR-2026-001" || request.Status != domain.ServiceRequestPending {
		t.Fatalf("unexpected request %+v", request)
	}

	_, err = env.requests.Get(env.ctx, staff, request.ID)
	expectCode(t, err, apperrors.CodeForbidden)
	_, err = env.requests.ConvertToTask(env.ctx, env.admin, request.ID)
	expectCode(t, err, apperrors.CodeInvalidStateTransition)

	if _, err := env.requests.Assign(env.ctx, env.admin, request.ID, staffID); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if _, err := env.requests.Get(env.ctx, staff, request.ID); err != nil {
		t.Fatalf("assigned staff Get: %v", err)
	}
	listed, err := env.requests.List(env.ctx, staff, ServiceRequestListFilter{})
	if err != nil || len(listed) != 1 {
		t.Fatalf("assigned staff list = %d, err %v", len(listed), err)
	}

	accepted, err := env.requests.Respond(env.ctx, staff, request.ID, true, "")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if accepted.Status != domain.ServiceRequestAccepted {
		t.Fatalf("Status = %s", accepted.Status)
	}

	conversion, err := env.requests.ConvertToTask(env.ctx, staff, request.ID)
	if err != nil {
		t.Fatalf("ConvertToTask: %v", err)
	}
	task := conversion.Task
	if conversion.Request.Status != domain.ServiceRequestCompleted || *conversion.Request.ConvertedTaskID != task.ID {
		t.Fatalf("request not completed: %+v", conversion.Request)
	}
	if task.ClientID != clientID || *task.AssignedStaffID != staffID || *task.ServiceRequestID != request.ID {
		t.Fatalf("task not built from request: %+v", task.Task)
	}
	if task.EstimatedHours != 4 || task.DueDate == nil || !task.DueDate.Equal(*day(20)) {
		t.Fatalf("task fields: hours %v due %v", task.EstimatedHours, task.DueDate)
	}

	_, err = env.requests.ConvertToTask(env.ctx, staff, request.ID)
	expectCode(t, err, apperrors.CodeInvalidStateTransition)

	if countType(env.inbox(t, staff.UserID), domain.NotificationTaskAssigned) != 1 {
		t.Fatal("assignee not told about converted task")
	}
	if countType(env.inbox(t, client.UserID), domain.NotificationServiceRequestUpdated) < 3 {
		t.Fatal("client not told about request updates")
	}
}

func TestServiceRequestRejectAndCancel(t *testing.T) {
	env := newTestEnv(t)
	staffA, staffAID := env.newStaff(t, "a@firm.com")
	staffB, _ := env.newStaff(t, "b@firm.com")
	client, _ := env.newClient(t, "c@client.com", nil)

	request, err := env.requests.Create(env.ctx, client, ServiceRequestCreateInput{Title: "Bookkeeping"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err = env.requests.Respond(env.ctx, env.admin, request.ID, true, "")
	expectCode(t, err, apperrors.CodeInvalidStateTransition)

	if _, err := env.requests.Assign(env.ctx, env.admin, request.ID, staffAID); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	_, err = env.requests.Respond(env.ctx, staffB, request.ID, true, "")
	expectCode(t, err, apperrors.CodeForbidden)
	_, err = env.requests.Respond(env.ctx, staffA, request.ID, false, "")
	expectCode(t, err, apperrors.CodeValidation)
	_, err = env.requests.UpdateStatus(env.ctx, env.admin, request.ID, domain.ServiceRequestRejected)
	expectCode(t, err, apperrors.CodeInvalidStateTransition)

	rejected, err := env.requests.Respond(env.ctx, staffA, request.ID, false, "out of scope")
	if err != nil {
		t.Fatalf("Respond reject: %v", err)
	}
	if rejected.Status != domain.ServiceRequestRejected || rejected.RejectionReason != "out of scope" {
		t.Fatalf("unexpected rejection %+v", rejected)
	}
	_, err = env.requests.Cancel(env.ctx, client, request.ID)
	expectCode(t, err, apperrors.CodeInvalidStateTransition)

	second, err := env.requests.Create(env.ctx, client, ServiceRequestCreateInput{Title: "Audit"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if second.RequestID != "SR-2026-002" {
		t.Fatalf("RequestID = %q", second.RequestID)
	}
	cancelled, err := env.requests.Cancel(env.ctx, client, second.ID)
	if err != nil || cancelled.Status != domain.ServiceRequestCancelled {
		t.Fatalf("Cancel: %v", err)
	}
	_, err = env.requests.UpdateStatus(env.ctx, client, second.ID, domain.ServiceRequestInProgress)
	expectCode(t, err, apperrors.CodeForbidden)
}

func TestServiceRequestStaffCreateNeedsScope(t *testing.T) {
	env := newTestEnv(t)
	staff, staffID := env.newStaff(t, "a@firm.com")
	_, mine := env.newClient(t, "mine@client.com", &staffID)
	_, other := env.newClient(t, "other@client.com", nil)

	if _, err := env.requests.Create(env.ctx, staff, ServiceRequestCreateInput{ClientID: mine, Title: "ok"}); err != nil {
		t.Fatalf("Create for scoped client: %v", err)
	}
	_, err := env.requests.Create(env.ctx, staff, ServiceRequestCreateInput{ClientID: other, Title: "no"})
	expectCode(t, err, apperrors.CodeForbidden)
	_, err = env.requests.Create(env.ctx, env.admin, ServiceRequestCreateInput{ClientID: other})
	expectCode(t, err, apperrors.CodeValidation)
}
