package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/repository"
)

type notificationRepo struct{ db *DB }

func (r *notificationRepo) Create(_ context.Context, n *domain.Notification) error {
	defer r.db.lock()()
	if _, ok := r.db.data.users[n.UserID]; !ok {
		return foreignKeyViolation("notifications_user_id_fkey")
	}
	n.ID = newID()
	n.IsRead = false
	n.ReadAt = nil
	n.CreatedAt = r.db.clock.Now()
	r.db.data.notifications[n.ID] = *n
	return nil
}

func (r *notificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	defer r.db.lock()()
	result := []domain.Notification{}
	for _, n := range r.db.data.notifications {
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		result = append(result, n)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return page(result, limit, offset), nil
}

func (r *notificationRepo) CountUnread(_ context.Context, userID string) (int, error) {
	defer r.db.lock()()
	count := 0
	for _, n := range r.db.data.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *notificationRepo) MarkRead(_ context.Context, userID string, ids []string, at time.Time) (int, error) {
	defer r.db.lock()()
	changed := 0
	for _, id := range ids {
		n, ok := r.db.data.notifications[id]
		if !ok || n.UserID != userID || n.IsRead {
			continue
		}
		readAt := at
		n.IsRead, n.ReadAt = true, &readAt
		r.db.data.notifications[id] = n
		changed++
	}
	return changed, nil
}

func (r *notificationRepo) MarkAllRead(_ context.Context, userID string, at time.Time) (int, error) {
	defer r.db.lock()()
	changed := 0
	for id, n := range r.db.data.notifications {
		if n.UserID != userID || n.IsRead {
			continue
		}
		readAt := at
		n.IsRead, n.ReadAt = true, &readAt
		r.db.data.notifications[id] = n
		changed++
	}
	return changed, nil
}

func (r *notificationRepo) PurgeRead(_ context.Context, olderThan time.Time) (int, error) {
	defer r.db.lock()()
	purged := 0
	for id, n := range r.db.data.notifications {
		if n.IsRead && n.CreatedAt.Before(olderThan) {
			delete(r.db.data.notifications, id)
			purged++
		}
	}
	return purged, nil
}

type catalogRepo struct{ db *DB }

func (r *catalogRepo) ListCategories(_ context.Context) ([]domain.ServiceCategory, error) {
	defer r.db.lock()()
	result := make([]domain.ServiceCategory, 0, len(r.db.data.categories))
	for _, c := range r.db.data.categories {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *catalogRepo) ListSubcategories(_ context.Context) ([]domain.ServiceSubcategory, error) {
	defer r.db.lock()()
	result := make([]domain.ServiceSubcategory, 0, len(r.db.data.subcategories))
	for _, s := range r.db.data.subcategories {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *catalogRepo) ListItems(_ context.Context) ([]domain.ServiceItem, error) {
	defer r.db.lock()()
	result := make([]domain.ServiceItem, 0, len(r.db.data.items))
	for _, i := range r.db.data.items {
		result = append(result, i)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type auditRepo struct{ db *DB }

func (r *auditRepo) Create(_ context.Context, entry *domain.AuditLog) error {
	defer r.db.lock()()
	entry.ID = newID()
	entry.CreatedAt = r.db.clock.Now()
	r.db.data.audit = append(r.db.data.audit, *entry)
	return nil
}

func (r *auditRepo) List(_ context.Context, filter repository.AuditFilter) ([]domain.AuditLog, error) {
	defer r.db.lock()()
	result := []domain.AuditLog{}
	for i := len(r.db.data.audit) - 1; i >= 0; i-- {
		entry := r.db.data.audit[i]
		if filter.EntityType != nil && entry.EntityType != *filter.EntityType {
			continue
		}
		if filter.EntityID != nil && entry.EntityID != *filter.EntityID {
			continue
		}
		if filter.ActorUserID != nil && !eqPtr(entry.ActorUserID, *filter.ActorUserID) {
			continue
		}
		result = append(result, entry)
	}
	return page(result, filter.Limit, filter.Offset), nil
}

type sequenceRepo struct{ db *DB }

func (r *sequenceRepo) Next(_ context.Context, name string, year int) (int64, error) {
	defer r.db.lock()()
	key := seqKey{name: name, year: year}
	r.db.data.sequences[key]++
	return r.db.data.sequences[key], nil
}

var (
	_ repository.UserRepository           = (*userRepo)(nil)
	_ repository.ClientRepository         = (*clientRepo)(nil)
	_ repository.StaffRepository          = (*staffRepo)(nil)
	_ repository.LeadRepository           = (*leadRepo)(nil)
	_ repository.ServiceRequestRepository = (*serviceRequestRepo)(nil)
	_ repository.TaskRepository           = (*taskRepo)(nil)
	_ repository.DocumentRepository       = (*documentRepo)(nil)
	_ repository.NotificationRepository   = (*notificationRepo)(nil)
	_ repository.CatalogRepository        = (*catalogRepo)(nil)
	_ repository.AuditRepository          = (*auditRepo)(nil)
	_ repository.SequenceRepository       = (*sequenceRepo)(nil)
)

