package memstore

import (
	"context"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/repository"
)

type leadRepo struct{ db *DB }

func (r *leadRepo) Create(_ context.Context, lead *domain.Lead) error {
	defer r.db.lock()()
	for _, existing := range r.db.data.leads {
		if existing.LeadID == lead.LeadID {
			return uniqueViolation("leads_lead_id_key")
		}
	}
	now := r.db.clock.Now()
	lead.ID = newID()
	lead.Email = strings.ToLower(lead.Email)
	lead.CreatedAt, lead.UpdatedAt = now, now
	r.db.data.leads[lead.ID] = *lead
	return nil
}

func (r *leadRepo) Update(_ context.Context, lead *domain.Lead) error {
	defer r.db.lock()()
	if _, ok := r.db.data.leads[lead.ID]; !ok {
		return pgx.ErrNoRows
	}
	lead.Email = strings.ToLower(lead.Email)
	lead.UpdatedAt = r.db.clock.Now()
	r.db.data.leads[lead.ID] = *lead
	return nil
}

func (r *leadRepo) GetByID(_ context.Context, id string) (*domain.Lead, error) {
	defer r.db.lock()()
	lead, ok := r.db.data.leads[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &lead, nil
}

func (r *leadRepo) List(_ context.Context, filter repository.LeadFilter) ([]domain.Lead, error) {
	defer r.db.lock()()
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	result := []domain.Lead{}
	for _, lead := range r.db.data.leads {
		if len(filter.Statuses) > 0 && !hasStatus(filter.Statuses, lead.Status) {
			continue
		}
		if filter.AssignedStaffID != nil {
			mine := eqPtr(lead.AssignedStaffID, *filter.AssignedStaffID)
			unassigned := filter.IncludeUnassigned && lead.AssignedStaffID == nil
			if !mine && !unassigned {
				continue
			}
		}
		if filter.Source != nil && lead.Source != *filter.Source {
			continue
		}
		if search != "" && !contains(lead.Name, search) && !contains(lead.Email, search) && !contains(lead.CompanyName, search) {
			continue
		}
		result = append(result, lead)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return page(result, filter.Limit, filter.Offset), nil
}

type serviceRequestRepo struct{ db *DB }

func (r *serviceRequestRepo) Create(_ context.Context, request *domain.ServiceRequest) error {
	defer r.db.lock()()
	if _, ok := r.db.data.clients[request.ClientID]; !ok {
		return foreignKeyViolation("service_requests_client_id_fkey")
	}
	for _, existing := range r.db.data.serviceRequests {
		if existing.RequestID == request.RequestID {
			return uniqueViolation("service_requests_request_id_key")
		}
	}
	now := r.db.clock.Now()
	request.ID = newID()
	request.CreatedAt, request.UpdatedAt = now, now
	r.db.data.serviceRequests[request.ID] = *request
	return nil
}

func (r *serviceRequestRepo) Update(_ context.Context, request *domain.ServiceRequest) error {
	defer r.db.lock()()
	if _, ok := r.db.data.serviceRequests[request.ID]; !ok {
		return pgx.ErrNoRows
	}
	request.UpdatedAt = r.db.clock.Now()
	r.db.data.serviceRequests[request.ID] = *request
	return nil
}

func (r *serviceRequestRepo) GetByID(_ context.Context, id string) (*domain.ServiceRequest, error) {
	defer r.db.lock()()
	request, ok := r.db.data.serviceRequests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &request, nil
}

func (r *serviceRequestRepo) List(_ context.Context, filter repository.ServiceRequestFilter) ([]domain.ServiceRequest, error) {
	defer r.db.lock()()
	allowed := idSet(filter.ClientIDs)
	result := []domain.ServiceRequest{}
	for _, request := range r.db.data.serviceRequests {
		if filter.Scoped {
			_, inScope := allowed[request.ClientID]
			if !inScope && !(filter.OrAssignedStaffID != nil && eqPtr(request.AssignedStaffID, *filter.OrAssignedStaffID)) {
				continue
			}
		}
		if filter.ClientID != nil && request.ClientID != *filter.ClientID {
			continue
		}
		if len(filter.Statuses) > 0 && !hasStatus(filter.Statuses, request.Status) {
			continue
		}
		result = append(result, request)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return page(result, filter.Limit, filter.Offset), nil
}

type taskRepo struct{ db *DB }

func (r *taskRepo) Create(_ context.Context, task *domain.Task) error {
	defer r.db.lock()()
	if _, ok := r.db.data.clients[task.ClientID]; !ok {
		return foreignKeyViolation("tasks_client_id_fkey")
	}
	now := r.db.clock.Now()
	task.ID = newID()
	task.CreatedAt, task.UpdatedAt = now, now
	r.db.data.tasks[task.ID] = *task
	return nil
}

func (r *taskRepo) Update(_ context.Context, task *domain.Task) error {
	defer r.db.lock()()
	if _, ok := r.db.data.tasks[task.ID]; !ok {
		return pgx.ErrNoRows
	}
	task.UpdatedAt = r.db.clock.Now()
	r.db.data.tasks[task.ID] = *task
	return nil
}

func (r *taskRepo) Delete(_ context.Context, id string) error {
	defer r.db.lock()()
	if _, ok := r.db.data.tasks[id]; !ok {
		return pgx.ErrNoRows
	}
	r.db.deleteTaskLocked(id)
	return nil
}

func (r *taskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	defer r.db.lock()()
	task, ok := r.db.data.tasks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &task, nil
}

func (r *taskRepo) List(_ context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	defer r.db.lock()()
	allowed := idSet(filter.IDs)
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	result := []domain.Task{}
	for _, task := range r.db.data.tasks {
		if filter.Scoped {
			if _, ok := allowed[task.ID]; !ok {
				continue
			}
		}
		if filter.ClientID != nil && task.ClientID != *filter.ClientID {
			continue
		}
		if filter.AssignedStaffID != nil && !eqPtr(task.AssignedStaffID, *filter.AssignedStaffID) {
			continue
		}
		if len(filter.Statuses) > 0 && !hasStatus(filter.Statuses, task.Status) {
			continue
		}
		if filter.Priority != nil && task.Priority != *filter.Priority {
			continue
		}
		if filter.DueFrom != nil && (task.DueDate == nil || task.DueDate.Before(*filter.DueFrom)) {
			continue
		}
		if filter.DueTo != nil && (task.DueDate == nil || !task.DueDate.Before(*filter.DueTo)) {
			continue
		}
		if search != "" && !contains(task.Title, search) {
			continue
		}
		result = append(result, task)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return a.CreatedAt.After(b.CreatedAt)
		case a.DueDate == nil:
			return false
		case b.DueDate == nil:
			return true
		case !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	if filter.Unbounded {
		return result, nil
	}
	return page(result, filter.Limit, filter.Offset), nil
}

func (r *taskRepo) ListIDsByClientIDs(_ context.Context, clientIDs []string) ([]string, error) {
	defer r.db.lock()()
	clients := idSet(clientIDs)
	set := map[string]struct{}{}
	for _, task := range r.db.data.tasks {
		if _, ok := clients[task.ClientID]; ok {
			set[task.ID] = struct{}{}
		}
	}
	return sortedIDs(set), nil
}

func (r *taskRepo) ListIDsByAssignee(_ context.Context, staffID string) ([]string, error) {
	defer r.db.lock()()
	set := map[string]struct{}{}
	for _, task := range r.db.data.tasks {
		if eqPtr(task.AssignedStaffID, staffID) {
			set[task.ID] = struct{}{}
		}
	}
	return sortedIDs(set), nil
}

func (r *taskRepo) ListClientIDsByAssignee(_ context.Context, staffID string) ([]string, error) {
	defer r.db.lock()()
	set := map[string]struct{}{}
	for _, task := range r.db.data.tasks {
		if eqPtr(task.AssignedStaffID, staffID) {
			set[task.ClientID] = struct{}{}
		}
	}
	return sortedIDs(set), nil
}

func (r *taskRepo) CountActiveByClient(_ context.Context, clientID string) (int, error) {
	defer r.db.lock()()
	count := 0
	for _, task := range r.db.data.tasks {
		if task.ClientID == clientID && !task.Status.Terminal() {
			count++
		}
	}
	return count, nil
}

func (r *taskRepo) CountByCreator(_ context.Context, userID string) (int, error) {
	defer r.db.lock()()
	count := 0
	for _, task := range r.db.data.tasks {
		if task.CreatedByID == userID {
			count++
		}
	}
	return count, nil
}

func (db *DB) deleteTaskLocked(id string) {
	delete(db.data.tasks, id)
	for k, v := range db.data.documents {
		if eqPtr(v.TaskID, id) {
			v.TaskID = nil
			db.data.documents[k] = v
		}
	}
	for k, v := range db.data.serviceRequests {
		if eqPtr(v.ConvertedTaskID, id) {
			v.ConvertedTaskID = nil
			db.data.serviceRequests[k] = v
		}
	}
	for k, v := range db.data.notifications {
		if eqPtr(v.RelatedTaskID, id) {
			v.RelatedTaskID = nil
			db.data.notifications[k] = v
		}
	}
}

type documentRepo struct{ db *DB }

func (r *documentRepo) Create(_ context.Context, doc *domain.Document) error {
	defer r.db.lock()()
	if _, ok := r.db.data.clients[doc.ClientID]; !ok {
		return foreignKeyViolation("documents_client_id_fkey")
	}
	now := r.db.clock.Now()
	doc.ID = newID()
	doc.CreatedAt, doc.UpdatedAt = now, now
	r.db.data.documents[doc.ID] = *doc
	return nil
}

func (r *documentRepo) Update(_ context.Context, doc *domain.Document) error {
	defer r.db.lock()()
	if _, ok := r.db.data.documents[doc.ID]; !ok {
		return pgx.ErrNoRows
	}
	doc.UpdatedAt = r.db.clock.Now()
	r.db.data.documents[doc.ID] = *doc
	return nil
}

func (r *documentRepo) Delete(_ context.Context, id string) error {
	defer r.db.lock()()
	if _, ok := r.db.data.documents[id]; !ok {
		return pgx.ErrNoRows
	}
	r.db.deleteDocumentLocked(id)
	return nil
}

func (r *documentRepo) GetByID(_ context.Context, id string) (*domain.Document, error) {
	defer r.db.lock()()
	doc, ok := r.db.data.documents[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &doc, nil
}

func (r *documentRepo) List(_ context.Context, filter repository.DocumentFilter) ([]domain.Document, error) {
	defer r.db.lock()()
	allowed := idSet(filter.ClientIDs)
	result := []domain.Document{}
	for _, doc := range r.db.data.documents {
		if filter.Scoped {
			if _, ok := allowed[doc.ClientID]; !ok {
				continue
			}
		}
		if filter.ClientID != nil && doc.ClientID != *filter.ClientID {
			continue
		}
		if filter.TaskID != nil && !eqPtr(doc.TaskID, *filter.TaskID) {
			continue
		}
		if filter.Status != nil && doc.Status != *filter.Status {
			continue
		}
		result = append(result, doc)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return page(result, filter.Limit, filter.Offset), nil
}

func (r *documentRepo) CountPendingByClient(_ context.Context, clientID string) (int, error) {
	defer r.db.lock()()
	count := 0
	for _, doc := range r.db.data.documents {
		if doc.ClientID == clientID && doc.Status == domain.DocumentPending {
			count++
		}
	}
	return count, nil
}

func (r *documentRepo) CountByUploader(_ context.Context, userID string) (int, error) {
	defer r.db.lock()()
	count := 0
	for _, doc := range r.db.data.documents {
		if doc.UploadedByID == userID {
			count++
		}
	}
	return count, nil
}

func (db *DB) deleteDocumentLocked(id string) {
	delete(db.data.documents, id)
	for k, v := range db.data.notifications {
		if eqPtr(v.RelatedDocumentID, id) {
			v.RelatedDocumentID = nil
			db.data.notifications[k] = v
		}
	}
}

func hasStatus[S comparable](statuses []S, status S) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
