package memstore

import (
	"context"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/repository"
)

type userRepo struct{ db *DB }

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	defer r.db.lock()()
	user.Email = strings.ToLower(user.Email)
	for _, existing := range r.db.data.users {
		if existing.Email == user.Email {
			return uniqueViolation("users_email_key")
		}
	}
	now := r.db.clock.Now()
	user.ID = newID()
	user.CreatedAt, user.UpdatedAt = now, now
	r.db.data.users[user.ID] = *user
	return nil
}

func (r *userRepo) Update(_ context.Context, user *domain.User) error {
	defer r.db.lock()()
	if _, ok := r.db.data.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	user.Email = strings.ToLower(user.Email)
	for id, existing := range r.db.data.users {
		if id != user.ID && existing.Email == user.Email {
			return uniqueViolation("users_email_key")
		}
	}
	user.UpdatedAt = r.db.clock.Now()
	r.db.data.users[user.ID] = *user
	return nil
}

// Delete cascades to the owned client or staff profile.
func (r *userRepo) Delete(_ context.Context, id string) error {
	defer r.db.lock()()
	if _, ok := r.db.data.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.db.data.users, id)
	for clientID, client := range r.db.data.clients {
		if client.UserID == id {
			r.db.deleteClientLocked(clientID)
		}
	}
	for staffID, staff := range r.db.data.staff {
		if staff.UserID == id {
			r.db.deleteStaffLocked(staffID)
		}
	}
	for nid, n := range r.db.data.notifications {
		if n.UserID == id {
			delete(r.db.data.notifications, nid)
		}
	}
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	defer r.db.lock()()
	user, ok := r.db.data.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	defer r.db.lock()()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, user := range r.db.data.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *userRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	defer r.db.lock()()
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var result []domain.User
	for _, user := range r.db.data.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.Active != nil && user.IsActive != *filter.Active {
			continue
		}
		if search != "" && !contains(user.Email, search) && !contains(user.FullName(), search) {
			continue
		}
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return page(result, filter.Limit, filter.Offset), nil
}

type clientRepo struct{ db *DB }

func (r *clientRepo) Create(_ context.Context, client *domain.Client) error {
	defer r.db.lock()()
	if _, ok := r.db.data.users[client.UserID]; !ok {
		return foreignKeyViolation("clients_user_id_fkey")
	}
	for _, existing := range r.db.data.clients {
		if existing.UserID == client.UserID {
			return uniqueViolation("clients_user_id_key")
		}
	}
	now := r.db.clock.Now()
	client.ID = newID()
	client.CreatedAt, client.UpdatedAt = now, now
	r.db.data.clients[client.ID] = *client
	return nil
}

func (r *clientRepo) Update(_ context.Context, client *domain.Client) error {
	defer r.db.lock()()
	if _, ok := r.db.data.clients[client.ID]; !ok {
		return pgx.ErrNoRows
	}
	client.UpdatedAt = r.db.clock.Now()
	r.db.data.clients[client.ID] = *client
	return nil
}

func (r *clientRepo) Delete(_ context.Context, id string) error {
	defer r.db.lock()()
	if _, ok := r.db.data.clients[id]; !ok {
		return pgx.ErrNoRows
	}
	r.db.deleteClientLocked(id)
	return nil
}

func (r *clientRepo) GetByID(_ context.Context, id string) (*domain.Client, error) {
	defer r.db.lock()()
	client, ok := r.db.data.clients[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &client, nil
}

func (r *clientRepo) GetByUserID(_ context.Context, userID string) (*domain.Client, error) {
	defer r.db.lock()()
	for _, client := range r.db.data.clients {
		if client.UserID == userID {
			c := client
			return &c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *clientRepo) List(_ context.Context, filter repository.ClientFilter) ([]domain.Client, error) {
	defer r.db.lock()()
	allowed := idSet(filter.IDs)
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	result := []domain.Client{}
	for _, client := range r.db.data.clients {
		if filter.Scoped {
			if _, ok := allowed[client.ID]; !ok {
				continue
			}
		}
		if filter.AssignedStaffID != nil && !eqPtr(client.AssignedStaffID, *filter.AssignedStaffID) {
			continue
		}
		if filter.Active != nil && client.IsActive != *filter.Active {
			continue
		}
		if search != "" && !contains(client.CompanyName, search) {
			continue
		}
		result = append(result, client)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CompanyName < result[j].CompanyName })
	return page(result, filter.Limit, filter.Offset), nil
}

func (r *clientRepo) ListIDsByAssignedStaff(_ context.Context, staffID string) ([]string, error) {
	defer r.db.lock()()
	set := map[string]struct{}{}
	for _, client := range r.db.data.clients {
		if eqPtr(client.AssignedStaffID, staffID) {
			set[client.ID] = struct{}{}
		}
	}
	return sortedIDs(set), nil
}

type staffRepo struct{ db *DB }

func (r *staffRepo) Create(_ context.Context, staff *domain.Staff) error {
	defer r.db.lock()()
	if _, ok := r.db.data.users[staff.UserID]; !ok {
		return foreignKeyViolation("staff_user_id_fkey")
	}
	for _, existing := range r.db.data.staff {
		if existing.UserID == staff.UserID {
			return uniqueViolation("staff_user_id_key")
		}
		if existing.EmployeeID == staff.EmployeeID {
			return uniqueViolation("staff_employee_id_key")
		}
	}
	now := r.db.clock.Now()
	staff.ID = newID()
	staff.CreatedAt, staff.UpdatedAt = now, now
	r.db.data.staff[staff.ID] = *staff
	return nil
}

func (r *staffRepo) Update(_ context.Context, staff *domain.Staff) error {
	defer r.db.lock()()
	if _, ok := r.db.data.staff[staff.ID]; !ok {
		return pgx.ErrNoRows
	}
	for id, existing := range r.db.data.staff {
		if id != staff.ID && existing.EmployeeID == staff.EmployeeID {
			return uniqueViolation("staff_employee_id_key")
		}
	}
	staff.UpdatedAt = r.db.clock.Now()
	r.db.data.staff[staff.ID] = *staff
	return nil
}

func (r *staffRepo) Delete(_ context.Context, id string) error {
	defer r.db.lock()()
	if _, ok := r.db.data.staff[id]; !ok {
		return pgx.ErrNoRows
	}
	r.db.deleteStaffLocked(id)
	return nil
}

func (r *staffRepo) GetByID(_ context.Context, id string) (*domain.Staff, error) {
	defer r.db.lock()()
	staff, ok := r.db.data.staff[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &staff, nil
}

func (r *staffRepo) GetByUserID(_ context.Context, userID string) (*domain.Staff, error) {
	defer r.db.lock()()
	for _, staff := range r.db.data.staff {
		if staff.UserID == userID {
			s := staff
			return &s, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *staffRepo) List(_ context.Context, filter repository.StaffFilter) ([]domain.Staff, error) {
	defer r.db.lock()()
	var result []domain.Staff
	for _, staff := range r.db.data.staff {
		if filter.Department != nil && staff.Department != *filter.Department {
			continue
		}
		if filter.Available != nil && staff.IsAvailable != *filter.Available {
			continue
		}
		result = append(result, staff)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return page(result, filter.Limit, filter.Offset), nil
}

// deleteClientLocked mirrors the ON DELETE rules of the clients table.
func (db *DB) deleteClientLocked(id string) {
	delete(db.data.clients, id)
	for taskID, task := range db.data.tasks {
		if task.ClientID == id {
			db.deleteTaskLocked(taskID)
		}
	}
	for docID, doc := range db.data.documents {
		if doc.ClientID == id {
			db.deleteDocumentLocked(docID)
		}
	}
	for srID, sr := range db.data.serviceRequests {
		if sr.ClientID == id {
			delete(db.data.serviceRequests, srID)
		}
	}
	for leadID, lead := range db.data.leads {
		if eqPtr(lead.ConvertedClientID, id) {
			lead.ConvertedClientID = nil
			db.data.leads[leadID] = lead
		}
	}
}

// deleteStaffLocked mirrors the ON DELETE SET NULL references to staff.
func (db *DB) deleteStaffLocked(id string) {
	delete(db.data.staff, id)
	for k, v := range db.data.clients {
		if eqPtr(v.AssignedStaffID, id) {
			v.AssignedStaffID = nil
			db.data.clients[k] = v
		}
	}
	for k, v := range db.data.leads {
		if eqPtr(v.AssignedStaffID, id) {
			v.AssignedStaffID = nil
			db.data.leads[k] = v
		}
	}
	for k, v := range db.data.tasks {
		if eqPtr(v.AssignedStaffID, id) {
			v.AssignedStaffID = nil
			db.data.tasks[k] = v
		}
	}
	for k, v := range db.data.serviceRequests {
		if eqPtr(v.AssignedStaffID, id) {
			v.AssignedStaffID = nil
			db.data.serviceRequests[k] = v
		}
	}
	for k, v := range db.data.staff {
		if eqPtr(v.SupervisorID, id) {
			v.SupervisorID = nil
			db.data.staff[k] = v
		}
	}
}
