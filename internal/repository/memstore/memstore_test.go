package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/backoffice/internal/clock"
	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/repository"
	apperrors "github.com/spec-kit/backoffice/pkg/util"
)

func newStore() *repository.Store {
	return New(clock.Fake(time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))).Store()
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	boom := errors.New("boom")

	err := store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		user := &domain.User{Email: "a@b.com", Role: domain.RoleClient, IsActive: true}
		if err := store.Users.Create(ctx, user); err != nil {
			return err
		}
		if _, err := store.Sequences.Next(ctx, "LEAD", 2026); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithinTx err = %v, want boom", err)
	}
	if _, err := store.Users.GetByEmail(ctx, "a@b.com"); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("user survived rollback: %v", err)
	}
	next, _ := store.Sequences.Next(ctx, "LEAD", 2026)
	if next != 1 {
		t.Fatalf("sequence after rollback = %d, want 1", next)
	}
}

func TestUniqueEmailMapsToConflict(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	if err := store.Users.Create(ctx, &domain.User{Email: "Dup@Example.com", Role: domain.RoleStaff}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := store.Users.Create(ctx, &domain.User{Email: "dup@example.com", Role: domain.RoleStaff})
	if !apperrors.IsUniqueViolation(err) {
		t.Fatalf("err = %v, want unique violation", err)
	}
	if got := apperrors.ToDomainError(err).Code; got != apperrors.CodeConflict {
		t.Fatalf("code = %s", got)
	}
}

func TestSequenceConcurrentCallersGetDistinctValues(t *testing.T) {
	ctx := context.Background()
	store := newStore()

	const n = 50
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[int64]bool{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := store.Sequences.Next(ctx, "SR", 2026)
			if err != nil {
				t.Errorf("Next: %v", err)
				return
			}
			mu.Lock()
			seen[v] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	if len(seen) != n {
		t.Fatalf("distinct values = %d, want %d", len(seen), n)
	}
	other, _ := store.Sequences.Next(ctx, "SR", 2027)
	if other != 1 {
		t.Fatalf("new year should restart at 1, got %d", other)
	}
}

func TestDeleteUserCascadesToClientAndTasks(t *testing.T) {
	ctx := context.Background()
	store := newStore()

	user := &domain.User{Email: "c@b.com", Role: domain.RoleClient}
	if err := store.Users.Create(ctx, user); err != nil {
		t.Fatalf("Create user: %v", err)
	}
	client := &domain.Client{UserID: user.ID, CompanyName: "Acme"}
	if err := store.Clients.Create(ctx, client); err != nil {
		t.Fatalf("Create client: %v", err)
	}
	task := &domain.Task{ClientID: client.ID, Title: "Books", Status: domain.TaskStatusCompleted}
	if err := store.Tasks.Create(ctx, task); err != nil {
		t.Fatalf("Create task: %v", err)
	}

	if err := store.Users.Delete(ctx, user.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Clients.GetByID(ctx, client.ID); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("client not cascaded: %v", err)
	}
	if _, err := store.Tasks.GetByID(ctx, task.ID); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("task not cascaded: %v", err)
	}
}

func TestTaskListScopedAndDueWindow(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	user := &domain.User{Email: "c@b.com", Role: domain.RoleClient}
	_ = store.Users.Create(ctx, user)
	client := &domain.Client{UserID: user.ID, CompanyName: "Acme"}
	_ = store.Clients.Create(ctx, client)

	day := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	due := func(d int) *time.Time { v := day.AddDate(0, 0, d); return &v }
	var ids []string
	for _, d := range []int{0, 2, 5} {
		task := &domain.Task{ClientID: client.ID, Title: "t", Status: domain.TaskStatusPending, DueDate: due(d)}
		if err := store.Tasks.Create(ctx, task); err != nil {
			t.Fatalf("Create: %v", err)
		}
		ids = append(ids, task.ID)
	}

	got, err := store.Tasks.List(ctx, repository.TaskFilter{DueFrom: due(0), DueTo: due(3), Unbounded: true})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("due window returned %d tasks, want 2", len(got))
	}

	scoped, _ := store.Tasks.List(ctx, repository.TaskFilter{Scoped: true, IDs: ids[:1]})
	if len(scoped) != 1 || scoped[0].ID != ids[0] {
		t.Fatalf("scoped list = %+v", scoped)
	}
	empty, _ := store.Tasks.List(ctx, repository.TaskFilter{Scoped: true})
	if len(empty) != 0 {
		t.Fatalf("empty scope returned %d tasks", len(empty))
	}
}

func TestMarkReadIsIdempotentAndOwnerScoped(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	owner := &domain.User{Email: "o@b.com", Role: domain.RoleStaff}
	other := &domain.User{Email: "x@b.com", Role: domain.RoleStaff}
	_ = store.Users.Create(ctx, owner)
	_ = store.Users.Create(ctx, other)

	n := &domain.Notification{UserID: owner.ID, Type: domain.NotificationTaskAssigned, Title: "t"}
	if err := store.Notifications.Create(ctx, n); err != nil {
		t.Fatalf("Create: %v", err)
	}
	at := time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)

	if changed, _ := store.Notifications.MarkRead(ctx, other.ID, []string{n.ID}, at); changed != 0 {
		t.Fatalf("other user marked %d notifications", changed)
	}
	if changed, _ := store.Notifications.MarkRead(ctx, owner.ID, []string{n.ID}, at); changed != 1 {
		t.Fatalf("first MarkRead changed %d", changed)
	}
	if changed, _ := store.Notifications.MarkRead(ctx, owner.ID, []string{n.ID}, at.Add(time.Hour)); changed != 0 {
		t.Fatalf("second MarkRead changed %d", changed)
	}
	list, _ := store.Notifications.ListByUser(ctx, owner.ID, false, 0, 0)
	if len(list) != 1 || list[0].ReadAt == nil || !list[0].ReadAt.Equal(at) {
		t.Fatalf("ReadAt not preserved: %+v", list)
	}
}
