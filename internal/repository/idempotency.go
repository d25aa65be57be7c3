package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/taskflow/internal/domain"
)

// ErrIdempotencyKeyNotFound is returned when no response is stored for a key.
var ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")

// IdempotencyRepository stores responses keyed by (tenant, endpoint, key).
type IdempotencyRepository struct {
	pool *pgxpool.Pool
}

// NewIdempotencyRepository creates a new IdempotencyRepository.
func NewIdempotencyRepository(pool *pgxpool.Pool) *IdempotencyRepository {
	return &IdempotencyRepository{pool: pool}
}

// Get looks up the record for a key.
func (r *IdempotencyRepository) Get(ctx context.Context, tenantID, endpoint, key string) (*domain.IdempotencyRecord, error) {
	query, args, err := psql.
		Select("tenant_id", "endpoint", "idempotency_key", "task_id", "response", "created_at").
		From("idempotency_keys").
		Where(sq.Eq{
			"tenant_id":       tenantID,
			"endpoint":        endpoint,
			"idempotency_key": key,
		}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rec domain.IdempotencyRecord
	var response []byte
	err = r.pool.QueryRow(ctx, query, args...).Scan(
		&rec.TenantID,
		&rec.Endpoint,
		&rec.Key,
		&rec.TaskID,
		&response,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIdempotencyKeyNotFound
		}
		return nil, fmt.Errorf("query idempotency key: %w", err)
	}
	rec.Response = response

	return &rec, nil
}

// InsertIfAbsent stores the record unless the key is already taken.
// It reports false when another request owns the key; the primary key makes that
// decision atomic across concurrent transactions.
func (r *IdempotencyRepository) InsertIfAbsent(ctx context.Context, tx pgx.Tx, rec *domain.IdempotencyRecord) (bool, error) {
	query, args, err := psql.
		Insert("idempotency_keys").
		Columns("tenant_id", "endpoint", "idempotency_key", "task_id", "response").
		Values(rec.TenantID, rec.Endpoint, rec.Key, rec.TaskID, []byte(rec.Response)).
		Suffix("ON CONFLICT (tenant_id, endpoint, idempotency_key) DO NOTHING RETURNING created_at").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("insert idempotency key: %w", err)
	}

	return true, nil
}
