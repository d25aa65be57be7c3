package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/mtlprog/taskflow/internal/domain"
	"github.com/mtlprog/taskflow/internal/repository"
)

// errIdempotencyKeyTaken aborts a creation transaction that lost the race for its key.
var errIdempotencyKeyTaken = errors.New("idempotency key taken by a concurrent request")

// IdempotencyGuard deduplicates creation requests that carry the same idempotency key.
type IdempotencyGuard struct {
	repo *repository.IdempotencyRepository
}

// NewIdempotencyGuard creates a new IdempotencyGuard.
func NewIdempotencyGuard(repo *repository.IdempotencyRepository) *IdempotencyGuard {
	return &IdempotencyGuard{repo: repo}
}

// Replay returns the response stored for the key, or repository.ErrIdempotencyKeyNotFound.
func (g *IdempotencyGuard) Replay(ctx context.Context, tenantID, endpoint, key string) (*CreateTaskResult, error) {
	rec, err := g.repo.Get(ctx, tenantID, endpoint, key)
	if err != nil {
		return nil, err
	}

	var result CreateTaskResult
	if err := json.Unmarshal(rec.Response, &result); err != nil {
		return nil, fmt.Errorf("decode stored response for key %q: %w", key, err)
	}
	result.Replayed = true

	return &result, nil
}

// Record stores result under the key within the creation transaction.
// It returns errIdempotencyKeyTaken when a concurrent request already owns the key,
// which must roll back the caller's transaction.
func (g *IdempotencyGuard) Record(
	ctx context.Context,
	tx pgx.Tx,
	tenantID, endpoint, key string,
	result *CreateTaskResult,
) error {
	response, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	inserted, err := g.repo.InsertIfAbsent(ctx, tx, &domain.IdempotencyRecord{
		TenantID: tenantID,
		Endpoint: endpoint,
		Key:      key,
		TaskID:   result.TaskID,
		Response: response,
	})
	if err != nil {
		return err
	}
	if !inserted {
		return errIdempotencyKeyTaken
	}

	return nil
}
