package memstore

import (
	"context"
	"sync"
	"time"

	"slotlease/internal/infra"
	"slotlease/internal/usecase/commands"

	"github.com/google/uuid"
)

type idempotencyKey struct {
	key    uuid.UUID
	userID uuid.UUID
}

type IdempotencyStore struct {
	mu      sync.Mutex
	records map[idempotencyKey]*commands.IdempotencyRecord
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{records: make(map[idempotencyKey]*commands.IdempotencyRecord)}
}

func (s *IdempotencyStore) TryInsert(_ context.Context, key, userID uuid.UUID, _, requestHash string, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := idempotencyKey{key: key, userID: userID}
	if _, ok := s.records[k]; ok {
		return false, nil
	}

	s.records[k] = &commands.IdempotencyRecord{
		Key:         key,
		UserID:      userID,
		Status:      "processing",
		RequestHash: requestHash,
		ExpiresAt:   expiresAt,
	}
	return true, nil
}

func (s *IdempotencyStore) Get(_ context.Context, key, userID uuid.UUID) (*commands.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[idempotencyKey{key: key, userID: userID}]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "idempotency record not found", nil)
	}
	copied := *record
	return &copied, nil
}

func (s *IdempotencyStore) MarkCompleted(_ context.Context, key, userID uuid.UUID, resultLeaseID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[idempotencyKey{key: key, userID: userID}]
	if !ok {
		return infra.NewRepoErr(infra.KindNotFound, "idempotency record not found", nil)
	}
	record.Status = "completed"
	record.ResultLeaseID = &resultLeaseID
	return nil
}
