package service

import (
	"strings"
	"testing"

	"github.com/spec-kit/backoffice/internal/domain"
	apperrors "github.com/spec-kit/backoffice/pkg/util"
)

func TestDocumentReviewKeepsOneSide(t *testing.T) {
	env := newTestEnv(t)
	staff, staffID := env.newStaff(t, "a@firm.com")
	client, clientID := env.newClient(t, "c@client.com", &staffID)

	doc, err := env.documents.Upload(env.ctx, client, DocumentUploadInput{FileName: "pan.pdf", ContentType: "application/pdf", SizeBytes: 1024})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if doc.ClientID != clientID || doc.Status != domain.DocumentPending {
		t.Fatalf("unexpected document %+v", doc)
	}
	if !strings.HasPrefix(doc.StorageKey, "clients/"+clientID+"/") || !strings.HasSuffix(doc.StorageKey, "-pan.pdf") {
		t.Fatalf("StorageKey = %q", doc.StorageKey)
	}

	_, err = env.documents.Reject(env.ctx, staff, doc.ID, "")
	expectCode(t, err, apperrors.CodeValidation)
	_, err = env.documents.Verify(env.ctx, client, doc.ID)
	expectCode(t, err, apperrors.CodeForbidden)

	verified, err := env.documents.Verify(env.ctx, staff, doc.ID)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if verified.VerifiedByID == nil || *verified.VerifiedByID != staff.UserID || verified.VerifiedAt == nil {
		t.Fatal("verification not recorded")
	}
	if verified.RejectedByID != nil || verified.RejectedAt != nil || verified.RejectionReason != "" {
		t.Fatal("rejection fields set on a verified document")
	}

	_, err = env.documents.Reject(env.ctx, staff, doc.ID, "blurry")
	expectCode(t, err, apperrors.CodeInvalidStateTransition)

	reset, err := env.documents.Reset(env.ctx, env.admin, doc.ID)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if reset.Status != domain.DocumentPending || reset.VerifiedByID != nil || reset.VerifiedAt != nil {
		t.Fatalf("reset left review data: %+v", reset)
	}
	_, err = env.documents.Reset(env.ctx, env.admin, doc.ID)
	expectCode(t, err, apperrors.CodeInvalidStateTransition)

	rejected, err := env.documents.Reject(env.ctx, staff, doc.ID, "blurry")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.RejectionReason != "blurry" || rejected.RejectedByID == nil || rejected.VerifiedByID != nil {
		t.Fatalf("unexpected rejection %+v", rejected)
	}

	inbox := env.inbox(t, client.UserID)
	if countType(inbox, domain.NotificationDocumentVerified) != 1 || countType(inbox, domain.NotificationDocumentRejected) != 1 {
		t.Fatalf("uploader inbox = %+v", inbox)
	}
	if countType(env.inbox(t, staff.UserID), domain.NotificationDocumentUploaded) != 1 {
		t.Fatal("account manager not told about upload")
	}
}

func TestDocumentUploadScope(t *testing.T) {
	env := newTestEnv(t)
	staff, staffID := env.newStaff(t, "a@firm.com")
	client1, c1 := env.newClient(t, "one@client.com", &staffID)
	client2, c2 := env.newClient(t, "two@client.com", nil)
	foreignTask := env.newTask(t, c2, nil, nil)

	_, err := env.documents.Upload(env.ctx, staff, DocumentUploadInput{ClientID: c2, FileName: "x.pdf"})
	expectCode(t, err, apperrors.CodeForbidden)

	_, err = env.documents.Upload(env.ctx, client1, DocumentUploadInput{FileName: "x.pdf", TaskID: &foreignTask.ID})
	expectCode(t, err, apperrors.CodeValidation)

	_, err = env.documents.Upload(env.ctx, client1, DocumentUploadInput{})
	expectCode(t, err, apperrors.CodeValidation)

	doc, err := env.documents.Upload(env.ctx, staff, DocumentUploadInput{ClientID: c1, FileName: "gst.pdf", StorageKey: "bucket/gst.pdf"})
	if err != nil {
		t.Fatalf("staff Upload: %v", err)
	}
	if doc.StorageKey != "bucket/gst.pdf" {
		t.Fatalf("StorageKey = %q", doc.StorageKey)
	}

	_, err = env.documents.Get(env.ctx, client2, doc.ID)
	expectCode(t, err, apperrors.CodeForbidden)
	_, err = env.documents.Get(env.ctx, client2, "missing")
	expectCode(t, err, apperrors.CodeForbidden)
	_, err = env.documents.Get(env.ctx, env.admin, "missing")
	expectCode(t, err, apperrors.CodeNotFound)

	docs, err := env.documents.List(env.ctx, client1, DocumentListFilter{})
	if err != nil || len(docs) != 1 {
		t.Fatalf("client list = %d, err %v", len(docs), err)
	}
}

func TestDocumentDeleteRules(t *testing.T) {
	env := newTestEnv(t)
	staff, staffID := env.newStaff(t, "a@firm.com")
	client, _ := env.newClient(t, "c@client.com", &staffID)

	doc, err := env.documents.Upload(env.ctx, client, DocumentUploadInput{FileName: "a.pdf"})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	err = env.documents.Delete(env.ctx, staff, doc.ID)
	expectCode(t, err, apperrors.CodeForbidden)

	if err := env.documents.Delete(env.ctx, client, doc.ID); err != nil {
		t.Fatalf("uploader Delete: %v", err)
	}

	reviewed, err := env.documents.Upload(env.ctx, client, DocumentUploadInput{FileName: "b.pdf"})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := env.documents.Verify(env.ctx, staff, reviewed.ID); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	err = env.documents.Delete(env.ctx, env.admin, reviewed.ID)
	expectCode(t, err, apperrors.CodeConflict)
}

func TestDocumentResetIsAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	owner, ownerID := env.newStaff(t, "owner@firm.com")
	outsider, _ := env.newStaff(t, "outsider@firm.com")
	client, _ := env.newClient(t, "c@client.com", &ownerID)

	doc, err := env.documents.Upload(env.ctx, client, DocumentUploadInput{FileName: "pan.pdf"})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := env.documents.Verify(env.ctx, owner, doc.ID); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	for _, p := range []domain.Principal{outsider, owner, client} {
		_, err = env.documents.Reset(env.ctx, p, doc.ID)
		expectCode(t, err, apperrors.CodeForbidden)
	}
	_, err = env.documents.Reset(env.ctx, outsider, "missing")
	expectCode(t, err, apperrors.CodeForbidden)

	stored, err := env.store.Documents.GetByID(env.ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != domain.DocumentVerified || stored.VerifiedByID == nil {
		t.Fatalf("document changed by rejected reset: %+v", stored)
	}

	_, err = env.documents.Reset(env.ctx, env.admin, "missing")
	expectCode(t, err, apperrors.CodeNotFound)
}
