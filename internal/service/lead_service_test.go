package service

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/spec-kit/backoffice/internal/domain"
	apperrors "github.com/spec-kit/backoffice/pkg/util"
)

func TestLeadConversionEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	staff7, staff7ID := env.newStaff(t, "seven@firm.com")
	staff9, _ := env.newStaff(t, "nine@firm.com")

	lead, err := env.leads.Create(env.ctx, nil, LeadCreateInput{Name: "Asha Rao", Email: "a@b.com", CompanyName: "Rao Traders"})
	if err != nil {
		t.Fatalf("public Create: %v", err)
	}
	if lead.Source != domain.LeadSourceWebsite || lead.Status != domain.LeadStatusNew || lead.AssignedStaffID != nil {
		t.Fatalf("unexpected public lead %+v", lead)
	}
	if lead.LeadID != "LEAD-2026-001" {
		t.Fatalf("LeadID = %q", lead.LeadID)
	}

	if _, err := env.leads.Assign(env.ctx, env.admin, lead.ID, staff7ID); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	conversion, err := env.leads.Convert(env.ctx, staff7, lead.ID, LeadConversionInput{})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if conversion.Lead.Status != domain.LeadStatusConverted || conversion.Lead.ConvertedDate == nil {
		t.Fatalf("lead not converted: %+v", conversion.Lead)
	}
	client := conversion.Account.Client
	if conversion.Lead.ConvertedClientID == nil || *conversion.Lead.ConvertedClientID != client.ID {
		t.Fatal("ConvertedClientID not linked")
	}
	if client.AssignedStaffID == nil || *client.AssignedStaffID != staff7ID {
		t.Fatal("assigned staff not carried over")
	}
	if conversion.Account.User.Role != domain.RoleClient || conversion.Account.User.Email != "a@b.com" {
		t.Fatalf("unexpected user %+v", conversion.Account.User)
	}
	if conversion.Account.TemporaryPassword == "" {
		t.Fatal("temporary password not generated")
	}
	if client.CompanyName != "Rao Traders" {
		t.Fatalf("CompanyName = %q", client.CompanyName)
	}

	if _, err := env.clients.Get(env.ctx, staff7, client.ID); err != nil {
		t.Fatalf("staff #7 Get: %v", err)
	}
	if _, err := env.clients.Get(env.ctx, env.admin, client.ID); err != nil {
		t.Fatalf("admin Get: %v", err)
	}
	_, err = env.clients.Get(env.ctx, staff9, client.ID)
	expectCode(t, err, apperrors.CodeForbidden)

	_, err = env.leads.Convert(env.ctx, env.admin, lead.ID, LeadConversionInput{})
	expectCode(t, err, apperrors.CodeInvalidStateTransition)
}

func TestLeadConversionRollsBackOnDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.newClient(t, "taken@b.com", nil)

	lead, err := env.leads.Create(env.ctx, &env.admin, LeadCreateInput{Name: "Dup", Email: "taken@b.com"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err = env.leads.Convert(env.ctx, env.admin, lead.ID, LeadConversionInput{})
	expectCode(t, err, apperrors.CodeConflict)

	reloaded, err := env.leads.Get(env.ctx, env.admin, lead.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if reloaded.Status != domain.LeadStatusNew || reloaded.ConvertedClientID != nil {
		t.Fatalf("lead changed after failed conversion: %+v", reloaded)
	}
}

func TestConcurrentLeadIDsAreUnique(t *testing.T) {
	env := newTestEnv(t)
	const n = 25

	var wg sync.WaitGroup
	ids := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lead, err := env.leads.Create(env.ctx, nil, LeadCreateInput{
				Name:  fmt.Sprintf("Lead %d", i),
				Email: fmt.Sprintf("lead%d@example.com", i),
			})
			errs[i] = err
			if err == nil {
				ids[i] = lead.LeadID
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("Create %d: %v", i, errs[i])
		}
		if !strings.HasPrefix(ids[i], "LEAD-2026-") {
			t.Fatalf("unexpected id %q", ids[i])
		}
		if seen[ids[i]] {
			t.Fatalf("duplicate id %q", ids[i])
		}
		seen[ids[i]] = true
	}
}

func TestLeadStatusRules(t *testing.T) {
	env := newTestEnv(t)
	lead, err := env.leads.Create(env.ctx, &env.admin, LeadCreateInput{Name: "Status", Email: "s@b.com", Source: domain.LeadSourceReferral})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := env.leads.UpdateStatus(env.ctx, env.admin, lead.ID, domain.LeadStatusQualified, "")
	if err != nil || updated.Status != domain.LeadStatusQualified {
		t.Fatalf("UpdateStatus QUALIFIED: %v", err)
	}

	_, err = env.leads.UpdateStatus(env.ctx, env.admin, lead.ID, domain.LeadStatusConverted, "")
	expectCode(t, err, apperrors.CodeInvalidStateTransition)

	_, err = env.leads.UpdateStatus(env.ctx, env.admin, lead.ID, domain.LeadStatusLost, "  ")
	expectCode(t, err, apperrors.CodeValidation)

	lost, err := env.leads.UpdateStatus(env.ctx, env.admin, lead.ID, domain.LeadStatusLost, "went elsewhere")
	if err != nil {
		t.Fatalf("UpdateStatus LOST: %v", err)
	}
	if lost.LostReason != "went elsewhere" {
		t.Fatalf("LostReason = %q", lost.LostReason)
	}

	_, err = env.leads.UpdateStatus(env.ctx, env.admin, lead.ID, domain.LeadStatusContacted, "")
	expectCode(t, err, apperrors.CodeInvalidStateTransition)
	_, err = env.leads.Convert(env.ctx, env.admin, lead.ID, LeadConversionInput{})
	expectCode(t, err, apperrors.CodeInvalidStateTransition)
}

func TestLeadVisibilityForStaff(t *testing.T) {
	env := newTestEnv(t)
	staffA, staffAID := env.newStaff(t, "a@firm.com")
	staffB, _ := env.newStaff(t, "b@firm.com")

	own, err := env.leads.Create(env.ctx, &staffA, LeadCreateInput{Name: "Own", Email: "own@b.com"})
	if err != nil {
		t.Fatalf("staff Create: %v", err)
	}
	if own.AssignedStaffID == nil || *own.AssignedStaffID != staffAID {
		t.Fatal("staff-entered lead should be assigned to its creator")
	}
	unassigned, err := env.leads.Create(env.ctx, nil, LeadCreateInput{Name: "Open", Email: "open@b.com"})
	if err != nil {
		t.Fatalf("public Create: %v", err)
	}

	listA, err := env.leads.List(env.ctx, staffA, LeadListFilter{})
	if err != nil || len(listA) != 2 {
		t.Fatalf("staff A sees %d leads, err %v", len(listA), err)
	}
	listB, err := env.leads.List(env.ctx, staffB, LeadListFilter{})
	if err != nil || len(listB) != 1 || listB[0].ID != unassigned.ID {
		t.Fatalf("staff B should only see the unassigned lead, got %d (err %v)", len(listB), err)
	}

	_, err = env.leads.Get(env.ctx, staffB, own.ID)
	expectCode(t, err, apperrors.CodeForbidden)

	_, err = env.leads.Create(env.ctx, nil, LeadCreateInput{Name: "Bad", Email: "not-an-email"})
	expectCode(t, err, apperrors.CodeValidation)
	_, err = env.leads.Create(env.ctx, nil, LeadCreateInput{Name: "Retired", Email: "r@b.com", ServiceItemID: strPtr("item-retired")})
	expectCode(t, err, apperrors.CodeValidation)
}

func TestLeadMissingAndForeignLookAlikeToStaff(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.newStaff(t, "owner@firm.com")
	other, _ := env.newStaff(t, "other@firm.com")

	lead, err := env.leads.Create(env.ctx, &owner, LeadCreateInput{Name: "Acme", Email: "acme@b.com"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	const missing = "00000000-0000-0000-0000-000000000000"

	for _, id := range []string{lead.ID, missing} {
		_, err = env.leads.Get(env.ctx, other, id)
		expectCode(t, err, apperrors.CodeForbidden)
		_, err = env.leads.UpdateStatus(env.ctx, other, id, domain.LeadStatusContacted, "")
		expectCode(t, err, apperrors.CodeForbidden)
		_, err = env.leads.Convert(env.ctx, other, id, LeadConversionInput{})
		expectCode(t, err, apperrors.CodeForbidden)
	}

	_, err = env.leads.Get(env.ctx, env.admin, missing)
	expectCode(t, err, apperrors.CodeNotFound)
	_, err = env.leads.Assign(env.ctx, owner, lead.ID, "any")
	expectCode(t, err, apperrors.CodeForbidden)
}
