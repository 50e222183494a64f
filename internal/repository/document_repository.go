package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/backoffice/internal/domain"
)

// DocumentRepository stores document metadata.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	Update(ctx context.Context, doc *domain.Document) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context, filter DocumentFilter) ([]domain.Document, error)
	CountPendingByClient(ctx context.Context, clientID string) (int, error)
	CountByUploader(ctx context.Context, userID string) (int, error)
}

// DocumentFilter narrows listings. When Scoped is set only documents of
// ClientIDs are eligible.
type DocumentFilter struct {
	Scoped    bool
	ClientIDs []string
	ClientID  *string
	TaskID    *string
	Status    *domain.DocumentStatus
	Limit     int
	Offset    int
}

type documentRepository struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository builds the repository.
func NewDocumentRepository(pool *pgxpool.Pool) DocumentRepository {
	return &documentRepository{pool: pool}
}

const documentColumns = `id, client_id, task_id, uploaded_by_id, file_name, storage_key, content_type, size_bytes,
               document_type, status, verified_by_id, verified_at, rejected_by_id, rejected_at, rejection_reason,
               created_at, updated_at`

func (r *documentRepository) Create(ctx context.Context, doc *domain.Document) error {
	const query = `
        INSERT INTO documents (client_id, task_id, uploaded_by_id, file_name, storage_key, content_type, size_bytes,
            document_type, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		doc.ClientID,
		doc.TaskID,
		doc.UploadedByID,
		doc.FileName,
		doc.StorageKey,
		doc.ContentType,
		doc.SizeBytes,
		doc.DocumentType,
		doc.Status,
	).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)
}

func (r *documentRepository) Update(ctx context.Context, doc *domain.Document) error {
	const query = `
        UPDATE documents SET document_type=$1, status=$2, verified_by_id=$3, verified_at=$4, rejected_by_id=$5,
            rejected_at=$6, rejection_reason=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		doc.DocumentType,
		doc.Status,
		doc.VerifiedByID,
		doc.VerifiedAt,
		doc.RejectedByID,
		doc.RejectedAt,
		doc.RejectionReason,
		doc.ID,
	).Scan(&doc.UpdatedAt)
}

func (r *documentRepository) Delete(ctx context.Context, id string) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM documents WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *documentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	return scanDocument(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id=$1`, id))
}

func (r *documentRepository) List(ctx context.Context, filter DocumentFilter) ([]domain.Document, error) {
	if filter.Scoped && len(filter.ClientIDs) == 0 {
		return []domain.Document{}, nil
	}
	var where whereBuilder
	if filter.Scoped {
		where.add("client_id = ANY($%d::uuid[])", filter.ClientIDs)
	}
	if filter.ClientID != nil {
		where.add("client_id=$%d", *filter.ClientID)
	}
	if filter.TaskID != nil {
		where.add("task_id=$%d", *filter.TaskID)
	}
	if filter.Status != nil {
		where.add("status=$%d", *filter.Status)
	}
	query := `SELECT ` + documentColumns + ` FROM documents` + where.sql() +
		` ORDER BY created_at DESC` + pageClause(filter.Limit, filter.Offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *doc)
	}
	return result, rows.Err()
}

func (r *documentRepository) CountPendingByClient(ctx context.Context, clientID string) (int, error) {
	var count int
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM documents WHERE client_id=$1 AND status='PENDING'`, clientID,
	).Scan(&count)
	return count, err
}

func (r *documentRepository) CountByUploader(ctx context.Context, userID string) (int, error) {
	var count int
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM documents WHERE uploaded_by_id=$1`, userID,
	).Scan(&count)
	return count, err
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var doc domain.Document
	if err := row.Scan(
		&doc.ID,
		&doc.ClientID,
		&doc.TaskID,
		&doc.UploadedByID,
		&doc.FileName,
		&doc.StorageKey,
		&doc.ContentType,
		&doc.SizeBytes,
		&doc.DocumentType,
		&doc.Status,
		&doc.VerifiedByID,
		&doc.VerifiedAt,
		&doc.RejectedByID,
		&doc.RejectedAt,
		&doc.RejectionReason,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &doc, nil
}
