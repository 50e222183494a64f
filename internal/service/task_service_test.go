package service

import (
	"testing"
	"time"

	"github.com/spec-kit/backoffice/internal/deadline"
	"github.com/spec-kit/backoffice/internal/domain"
	apperrors "github.com/spec-kit/backoffice/pkg/util"
)

func TestTaskStateMachine(t *testing.T) {
	tests := []struct {
		name string
		path []domain.TaskStatus
		next domain.TaskStatus
		ok   bool
	}{
		{"start", nil, domain.TaskStatusInProgress, true},
		{"pending cannot complete", nil, domain.TaskStatusCompleted, false},
		{"pending cannot hold", nil, domain.TaskStatusOnHold, false},
		{"pending cancel", nil, domain.TaskStatusCancelled, true},
		{"complete", []domain.TaskStatus{domain.TaskStatusInProgress}, domain.TaskStatusCompleted, true},
		{"hold", []domain.TaskStatus{domain.TaskStatusInProgress}, domain.TaskStatusOnHold, true},
		{"resume", []domain.TaskStatus{domain.TaskStatusInProgress, domain.TaskStatusOnHold}, domain.TaskStatusInProgress, true},
		{"hold cannot complete", []domain.TaskStatus{domain.TaskStatusInProgress, domain.TaskStatusOnHold}, domain.TaskStatusCompleted, false},
		{"hold cancel", []domain.TaskStatus{domain.TaskStatusInProgress, domain.TaskStatusOnHold}, domain.TaskStatusCancelled, true},
		{"completed is final", []domain.TaskStatus{domain.TaskStatusInProgress, domain.TaskStatusCompleted}, domain.TaskStatusInProgress, false},
		{"cancelled is final", []domain.TaskStatus{domain.TaskStatusCancelled}, domain.TaskStatusPending, false},
		{"same status", []domain.TaskStatus{domain.TaskStatusInProgress}, domain.TaskStatusInProgress, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			_, clientID := env.newClient(t, "c@client.com", nil)
			task := env.newTask(t, clientID, nil, nil)
			for _, step := range tt.path {
				if _, err := env.tasks.UpdateStatus(env.ctx, env.admin, task.ID, step); err != nil {
					t.Fatalf("setup step %s: %v", step, err)
				}
			}
			_, err := env.tasks.UpdateStatus(env.ctx, env.admin, task.ID, tt.next)
			if tt.ok && err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			if !tt.ok {
				expectCode(t, err, apperrors.CodeInvalidStateTransition)
			}
		})
	}
}

func TestTaskDatesFollowStatus(t *testing.T) {
	env := newTestEnv(t)
	_, clientID := env.newClient(t, "c@client.com", nil)
	task := env.newTask(t, clientID, nil, nil)

	started, err := env.tasks.UpdateStatus(env.ctx, env.admin, task.ID, domain.TaskStatusInProgress)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.StartedDate == nil || !started.StartedDate.Equal(testStart) {
		t.Fatalf("StartedDate = %v", started.StartedDate)
	}

	env.clock.Advance(time.Hour)
	if _, err := env.tasks.UpdateStatus(env.ctx, env.admin, task.ID, domain.TaskStatusOnHold); err != nil {
		t.Fatalf("hold: %v", err)
	}
	env.clock.Advance(time.Hour)
	resumed, err := env.tasks.UpdateStatus(env.ctx, env.admin, task.ID, domain.TaskStatusInProgress)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if !resumed.StartedDate.Equal(testStart) {
		t.Fatal("StartedDate must not move on resume")
	}
	if resumed.CompletedDate != nil {
		t.Fatal("CompletedDate set before completion")
	}

	env.clock.Advance(time.Hour)
	done, err := env.tasks.UpdateStatus(env.ctx, env.admin, task.ID, domain.TaskStatusCompleted)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.CompletedDate == nil || done.CompletedDate.Before(*done.StartedDate) {
		t.Fatalf("CompletedDate = %v", done.CompletedDate)
	}
}

func TestCompletingDueSoonTaskBecomesSafe(t *testing.T) {
	env := newTestEnv(t)
	_, clientID := env.newClient(t, "c@client.com", nil)
	task := env.newTask(t, clientID, nil, day(2))
	if task.Deadline != deadline.DueSoon {
		t.Fatalf("Deadline = %s, want DUE_SOON", task.Deadline)
	}
	if _, err := env.tasks.UpdateStatus(env.ctx, env.admin, task.ID, domain.TaskStatusInProgress); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := env.tasks.UpdateStatus(env.ctx, env.admin, task.ID, domain.TaskStatusCompleted); err != nil {
		t.Fatalf("complete: %v", err)
	}
	got, err := env.tasks.Get(env.ctx, env.admin, task.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Deadline != deadline.Safe {
		t.Fatalf("Deadline after completion = %s", got.Deadline)
	}

	overdue := env.newTask(t, clientID, nil, day(-1))
	if overdue.Deadline != deadline.Overdue {
		t.Fatalf("Deadline = %s, want OVERDUE", overdue.Deadline)
	}
}

func TestTaskScopeAndReassign(t *testing.T) {
	env := newTestEnv(t)
	staffA, staffAID := env.newStaff(t, "a@firm.com")
	staffB, staffBID := env.newStaff(t, "b@firm.com")
	client1, c1 := env.newClient(t, "one@client.com", &staffAID)
	_, c2 := env.newClient(t, "two@client.com", nil)

	t1 := env.newTask(t, c1, &staffAID, day(10))
	t2 := env.newTask(t, c2, &staffBID, nil)

	if _, err := env.tasks.Get(env.ctx, client1, t1.ID); err != nil {
		t.Fatalf("client Get own task: %v", err)
	}
	_, err := env.tasks.Get(env.ctx, client1, t2.ID)
	expectCode(t, err, apperrors.CodeForbidden)
	_, err = env.tasks.Get(env.ctx, staffA, t2.ID)
	expectCode(t, err, apperrors.CodeForbidden)
	_, err = env.tasks.Get(env.ctx, staffA, "missing-task")
	expectCode(t, err, apperrors.CodeForbidden)
	_, err = env.tasks.Get(env.ctx, env.admin, "missing-task")
	expectCode(t, err, apperrors.CodeNotFound)

	listB, err := env.tasks.List(env.ctx, staffB, TaskListFilter{})
	if err != nil || len(listB) != 1 || listB[0].ID != t2.ID {
		t.Fatalf("staff B list = %d items, err %v", len(listB), err)
	}

	_, err = env.tasks.Create(env.ctx, staffB, TaskCreateInput{Title: "Sneaky", ClientID: c1})
	expectCode(t, err, apperrors.CodeForbidden)
	_, err = env.tasks.UpdateStatus(env.ctx, client1, t1.ID, domain.TaskStatusInProgress)
	expectCode(t, err, apperrors.CodeForbidden)

	reassigned, err := env.tasks.Reassign(env.ctx, env.admin, t2.ID, staffAID)
	if err != nil {
		t.Fatalf("Reassign: %v", err)
	}
	if *reassigned.AssignedStaffID != staffAID || reassigned.AssignedDate == nil {
		t.Fatalf("unexpected reassignment %+v", reassigned.Task)
	}
	if _, err := env.tasks.Get(env.ctx, staffA, t2.ID); err != nil {
		t.Fatalf("staff A should now see reassigned task: %v", err)
	}

	if _, err := env.tasks.UpdateStatus(env.ctx, env.admin, t1.ID, domain.TaskStatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_, err = env.tasks.Reassign(env.ctx, env.admin, t1.ID, staffBID)
	expectCode(t, err, apperrors.CodeInvalidStateTransition)
}

func TestTaskCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	_, staffID := env.newStaff(t, "a@firm.com")
	_, clientID := env.newClient(t, "c@client.com", nil)

	_, err := env.tasks.Create(env.ctx, env.admin, TaskCreateInput{ClientID: clientID})
	expectCode(t, err, apperrors.CodeValidation)
	_, err = env.tasks.Create(env.ctx, env.admin, TaskCreateInput{Title: "x", ClientID: clientID, Priority: "SOMEDAY"})
	expectCode(t, err, apperrors.CodeValidation)

	if _, err := env.staff.SetAvailability(env.ctx, env.admin, staffID, false); err != nil {
		t.Fatalf("SetAvailability: %v", err)
	}
	_, err = env.tasks.Create(env.ctx, env.admin, TaskCreateInput{Title: "x", ClientID: clientID, AssignedStaffID: &staffID})
	expectCode(t, err, apperrors.CodeValidation)

	task, err := env.tasks.Create(env.ctx, env.admin, TaskCreateInput{Title: "ITR", ClientID: clientID, ServiceItemID: strPtr("item-itr")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.EstimatedHours != 4 || task.Priority != domain.PriorityMedium || task.Status != domain.TaskStatusPending {
		t.Fatalf("unexpected defaults %+v", task.Task)
	}
}

func TestTaskDeadlineFilterAndSummary(t *testing.T) {
	env := newTestEnv(t)
	_, clientID := env.newClient(t, "c@client.com", nil)
	env.newTask(t, clientID, nil, day(-2))
	env.newTask(t, clientID, nil, day(0))
	env.newTask(t, clientID, nil, day(3))
	env.newTask(t, clientID, nil, day(4))
	env.newTask(t, clientID, nil, nil)

	dueSoon := deadline.DueSoon
	soon, err := env.tasks.List(env.ctx, env.admin, TaskListFilter{Deadline: &dueSoon})
	if err != nil {
		t.Fatalf("List DUE_SOON: %v", err)
	}
	if len(soon) != 2 {
		t.Fatalf("DUE_SOON tasks = %d, want 2", len(soon))
	}
	for _, task := range soon {
		if task.Deadline != deadline.DueSoon {
			t.Fatalf("task %s classified %s", task.ID, task.Deadline)
		}
	}

	overdue := deadline.Overdue
	late, err := env.tasks.List(env.ctx, env.admin, TaskListFilter{Deadline: &overdue})
	if err != nil || len(late) != 1 {
		t.Fatalf("OVERDUE tasks = %d, err %v", len(late), err)
	}

	safe := deadline.Safe
	_, err = env.tasks.List(env.ctx, env.admin, TaskListFilter{Deadline: &safe})
	expectCode(t, err, apperrors.CodeValidation)

	summary, err := env.tasks.DeadlineSummary(env.ctx, env.admin)
	if err != nil {
		t.Fatalf("DeadlineSummary: %v", err)
	}
	if summary != (deadline.Summary{Safe: 2, DueSoon: 2, Overdue: 1}) {
		t.Fatalf("summary = %+v", summary)
	}
}
