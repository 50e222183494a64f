package repository

import "github.com/jackc/pgx/v5/pgxpool"

// Store bundles every repository with the transaction manager that binds
// them together.
type Store struct {
	Tx              TxManager
	Users           UserRepository
	Clients         ClientRepository
	Staff           StaffRepository
	Leads           LeadRepository
	ServiceRequests ServiceRequestRepository
	Tasks           TaskRepository
	Documents       DocumentRepository
	Notifications   NotificationRepository
	Catalog         CatalogRepository
	Audit           AuditRepository
	Sequences       SequenceRepository
}

// NewPostgresStore wires all repositories to one pool.
func NewPostgresStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Tx:              NewTxManager(pool),
		Users:           NewUserRepository(pool),
		Clients:         NewClientRepository(pool),
		Staff:           NewStaffRepository(pool),
		Leads:           NewLeadRepository(pool),
		ServiceRequests: NewServiceRequestRepository(pool),
		Tasks:           NewTaskRepository(pool),
		Documents:       NewDocumentRepository(pool),
		Notifications:   NewNotificationRepository(pool),
		Catalog:         NewCatalogRepository(pool),
		Audit:           NewAuditRepository(pool),
		Sequences:       NewSequenceRepository(pool),
	}
}
