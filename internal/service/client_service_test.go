package service

import (
	"testing"

	"github.com/spec-kit/backoffice/internal/domain"
	apperrors "github.com/spec-kit/backoffice/pkg/util"
)

func TestClientDeleteBlockedByOpenWork(t *testing.T) {
	env := newTestEnv(t)
	client, clientID := env.newClient(t, "c@client.com", nil)
	task := env.newTask(t, clientID, nil, nil)
	if _, err := env.documents.Upload(env.ctx, client, DocumentUploadInput{FileName: "a.pdf"}); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	err := env.clients.Delete(env.ctx, env.admin, clientID)
	expectCode(t, err, apperrors.CodeConflict)
	domainErr := apperrors.ToDomainError(err)
	if domainErr.Details["active_tasks"] != 1 || domainErr.Details["pending_documents"] != 1 {
		t.Fatalf("details = %+v", domainErr.Details)
	}

	if _, err := env.tasks.UpdateStatus(env.ctx, env.admin, task.ID, domain.TaskStatusCancelled); err != nil {
		t.Fatalf("cancel task: %v", err)
	}
	docs, _ := env.documents.List(env.ctx, env.admin, DocumentListFilter{ClientID: &clientID})
	if err := env.documents.Delete(env.ctx, env.admin, docs[0].ID); err != nil {
		t.Fatalf("delete document: %v", err)
	}

	if err := env.clients.Delete(env.ctx, env.admin, clientID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := env.store.Users.GetByID(env.ctx, client.UserID); err == nil {
		t.Fatal("client user survived deletion")
	}
	_, err = env.clients.Get(env.ctx, env.admin, clientID)
	expectCode(t, err, apperrors.CodeNotFound)
}

func TestClientScopeAndUpdate(t *testing.T) {
	env := newTestEnv(t)
	staffA, staffAID := env.newStaff(t, "a@firm.com")
	staffB, staffBID := env.newStaff(t, "b@firm.com")
	client1, c1 := env.newClient(t, "one@client.com", &staffAID)
	_, c2 := env.newClient(t, "two@client.com", nil)

	_, err := env.clients.Get(env.ctx, client1, c2)
	expectCode(t, err, apperrors.CodeForbidden)
	_, err = env.clients.Get(env.ctx, staffA, "missing")
	expectCode(t, err, apperrors.CodeForbidden)
	_, err = env.clients.Get(env.ctx, env.admin, "missing")
	expectCode(t, err, apperrors.CodeNotFound)

	env.newTask(t, c2, &staffBID, nil)
	if _, err := env.clients.Get(env.ctx, staffB, c2); err != nil {
		t.Fatalf("staff should see client via assigned task: %v", err)
	}
	listA, err := env.clients.List(env.ctx, staffA, ClientListFilter{})
	if err != nil || len(listA) != 1 || listA[0].ID != c1 {
		t.Fatalf("staff A list = %d, err %v", len(listA), err)
	}

	inactive := false
	_, err = env.clients.Update(env.ctx, client1, c1, ClientUpdateInput{IsActive: &inactive})
	expectCode(t, err, apperrors.CodeForbidden)

	city := "  Pune "
	updated, err := env.clients.Update(env.ctx, client1, c1, ClientUpdateInput{City: &city})
	if err != nil || updated.City != "Pune" {
		t.Fatalf("Update = %+v, %v", updated, err)
	}

	reassigned, err := env.clients.AssignStaff(env.ctx, env.admin, c1, staffBID)
	if err != nil || *reassigned.AssignedStaffID != staffBID {
		t.Fatalf("AssignStaff: %v", err)
	}
	_, err = env.clients.Get(env.ctx, staffA, c1)
	expectCode(t, err, apperrors.CodeForbidden)

	_, err = env.clients.AssignStaff(env.ctx, env.admin, c1, "missing-staff")
	expectCode(t, err, apperrors.CodeValidation)
}

func TestClientCreateRejectsDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.newClient(t, "dup@client.com", nil)
	_, err := env.clients.Create(env.ctx, env.admin, ClientCreateInput{
		Account: AccountInput{Email: "DUP@client.com", Password: "client-pass-1"},
		Profile: ClientProfileInput{CompanyName: "Dup"},
	})
	expectCode(t, err, apperrors.CodeConflict)

	_, err = env.clients.Create(env.ctx, env.admin, ClientCreateInput{
		Account: AccountInput{Email: "new@client.com", Password: "short"},
		Profile: ClientProfileInput{CompanyName: "New"},
	})
	expectCode(t, err, apperrors.CodeValidation)
	if _, err := env.store.Users.GetByEmail(env.ctx, "new@client.com"); err == nil {
		t.Fatal("user written despite validation failure")
	}
}
