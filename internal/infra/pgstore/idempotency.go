package pgstore

import (
	"context"
	"errors"
	"time"

	"slotlease/internal/infra"
	"slotlease/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type IdempotencyStore struct {
	pool *pgxpool.Pool
}

func NewIdempotencyStore(pool *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{pool: pool}
}

func (s *IdempotencyStore) TryInsert(ctx context.Context, key, userID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO idempotency_keys (key, user_id, endpoint, request_hash, status, expires_at)
		VALUES ($1, $2, $3, $4, 'processing', $5)
		ON CONFLICT (key, user_id) DO NOTHING`,
		key, userID, endpoint, requestHash, expiresAt,
	)
	if err != nil {
		return false, infra.NewRepoErr(infra.KindDBFailure, "failed to insert idempotency key", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *IdempotencyStore) Get(ctx context.Context, key, userID uuid.UUID) (*commands.IdempotencyRecord, error) {
	record := commands.IdempotencyRecord{Key: key, UserID: userID}
	err := s.pool.QueryRow(ctx, `
		SELECT status, request_hash, result_lease_id, expires_at
		FROM idempotency_keys
		WHERE key = $1 AND user_id = $2`,
		key, userID,
	).Scan(&record.Status, &record.RequestHash, &record.ResultLeaseID, &record.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.NewRepoErr(infra.KindNotFound, "idempotency record not found", err)
		}
		return nil, infra.NewRepoErr(infra.KindDBFailure, "failed to query idempotency record", err)
	}
	return &record, nil
}

func (s *IdempotencyStore) MarkCompleted(ctx context.Context, key, userID uuid.UUID, resultLeaseID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE idempotency_keys
		SET status = 'completed', result_lease_id = $3
		WHERE key = $1 AND user_id = $2`,
		key, userID, resultLeaseID,
	)
	if err != nil {
		return infra.NewRepoErr(infra.KindDBFailure, "failed to complete idempotency record", err)
	}
	return nil
}
