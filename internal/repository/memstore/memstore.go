// Package memstore is an in-memory implementation of every repository. It
// backs local development when no database is configured and the service
// tests. Transactions are serialized and roll back by restoring a snapshot.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/backoffice/internal/clock"
	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/repository"
)

const defaultPageSize = 20

type seqKey struct {
	name string
	year int
}

type tables struct {
	users           map[string]domain.User
	clients         map[string]domain.Client
	staff           map[string]domain.Staff
	leads           map[string]domain.Lead
	serviceRequests map[string]domain.ServiceRequest
	tasks           map[string]domain.Task
	documents       map[string]domain.Document
	notifications   map[string]domain.Notification
	categories      map[string]domain.ServiceCategory
	subcategories   map[string]domain.ServiceSubcategory
	items           map[string]domain.ServiceItem
	audit           []domain.AuditLog
	sequences       map[seqKey]int64
}

func newTables() *tables {
	return &tables{
		users:           map[string]domain.User{},
		clients:         map[string]domain.Client{},
		staff:           map[string]domain.Staff{},
		leads:           map[string]domain.Lead{},
		serviceRequests: map[string]domain.ServiceRequest{},
		tasks:           map[string]domain.Task{},
		documents:       map[string]domain.Document{},
		notifications:   map[string]domain.Notification{},
		categories:      map[string]domain.ServiceCategory{},
		subcategories:   map[string]domain.ServiceSubcategory{},
		items:           map[string]domain.ServiceItem{},
		sequences:       map[seqKey]int64{},
	}
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (t *tables) clone() *tables {
	return &tables{
		users:           cloneMap(t.users),
		clients:         cloneMap(t.clients),
		staff:           cloneMap(t.staff),
		leads:           cloneMap(t.leads),
		serviceRequests: cloneMap(t.serviceRequests),
		tasks:           cloneMap(t.tasks),
		documents:       cloneMap(t.documents),
		notifications:   cloneMap(t.notifications),
		categories:      cloneMap(t.categories),
		subcategories:   cloneMap(t.subcategories),
		items:           cloneMap(t.items),
		audit:           append([]domain.AuditLog(nil), t.audit...),
		sequences:       cloneMap(t.sequences),
	}
}

// DB holds the shared tables.
type DB struct {
	txMu  sync.Mutex
	mu    sync.Mutex
	data  *tables
	clock clock.Clock
}

type txKey struct{}

// New returns an empty in-memory database.
func New(clk clock.Clock) *DB {
	if clk == nil {
		clk = clock.Real()
	}
	return &DB{data: newTables(), clock: clk}
}

// Store wires every repository to db.
func (db *DB) Store() *repository.Store {
	return &repository.Store{
		Tx:              db,
		Users:           &userRepo{db},
		Clients:         &clientRepo{db},
		Staff:           &staffRepo{db},
		Leads:           &leadRepo{db},
		ServiceRequests: &serviceRequestRepo{db},
		Tasks:           &taskRepo{db},
		Documents:       &documentRepo{db},
		Notifications:   &notificationRepo{db},
		Catalog:         &catalogRepo{db},
		Audit:           &auditRepo{db},
		Sequences:       &sequenceRepo{db},
	}
}

// WithinTx runs fn with exclusive access to the transaction slot and
// restores the pre-transaction snapshot if fn fails.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.Lock()
	snapshot := db.data.clone()
	db.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		db.mu.Lock()
		db.data = snapshot
		db.mu.Unlock()
		return err
	}
	return nil
}

// SeedCatalog installs catalog rows, as the seed migration does for Postgres.
func (db *DB) SeedCatalog(categories []domain.ServiceCategory, subcategories []domain.ServiceSubcategory, items []domain.ServiceItem) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, c := range categories {
		db.data.categories[c.ID] = c
	}
	for _, s := range subcategories {
		db.data.subcategories[s.ID] = s
	}
	for _, i := range items {
		db.data.items[i.ID] = i
	}
}

func (db *DB) lock() func() {
	db.mu.Lock()
	return db.mu.Unlock
}

func newID() string {
	return uuid.NewString()
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint, Message: "duplicate key value violates unique constraint"}
}

func page[T any](items []T, limit, offset int) []T {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func eqPtr(p *string, v string) bool {
	return p != nil && *p == v
}

func sortedIDs(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

var _ repository.TxManager = (*DB)(nil)

func foreignKeyViolation(constraint string) error {
	return &pgconn.PgError{Code: "23503", ConstraintName: constraint, Message: "insert or update violates foreign key constraint"}
}
