package pgstore

import (
	"context"
	"time"

	"slotlease/internal/infra"

	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationStore struct {
	pool *pgxpool.Pool
}

func NewNotificationStore(pool *pgxpool.Pool) *NotificationStore {
	return &NotificationStore{pool: pool}
}

// CreateJob enqueues an event for the notification subsystem, which polls
// this table. Delivery and retry are its concern, not ours.
func (s *NotificationStore) CreateJob(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notification_jobs (kind, topic, payload, run_at)
		VALUES ($1, $2, $3, $4)`,
		kind, topic, payload, runAt,
	)
	if err != nil {
		return infra.NewRepoErr(infra.KindDBFailure, "failed to create notification job", err)
	}
	return nil
}
