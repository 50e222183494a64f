package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SequenceRepository hands out per-year counters for human-readable ids.
type SequenceRepository interface {
	Next(ctx context.Context, name string, year int) (int64, error)
}

type sequenceRepository struct {
	pool *pgxpool.Pool
}

// NewSequenceRepository builds the repository.
func NewSequenceRepository(pool *pgxpool.Pool) SequenceRepository {
	return &sequenceRepository{pool: pool}
}

// Next increments the counter in a single statement; the row lock taken by
// the upsert serializes concurrent callers.
func (r *sequenceRepository) Next(ctx context.Context, name string, year int) (int64, error) {
	const query = `
        INSERT INTO id_sequences (name, year, value) VALUES ($1, $2, 1)
        ON CONFLICT (name, year) DO UPDATE SET value = id_sequences.value + 1
        RETURNING value`
	var value int64
	err := conn(ctx, r.pool).QueryRow(ctx, query, name, year).Scan(&value)
	return value, err
}
