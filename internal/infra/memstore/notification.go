package memstore

import (
	"context"
	"sync"
	"time"
)

type NotificationJob struct {
	Kind    string
	Topic   string
	Payload []byte
	RunAt   time.Time
}

type NotificationStore struct {
	mu   sync.Mutex
	jobs []NotificationJob
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{}
}

func (s *NotificationStore) CreateJob(_ context.Context, kind, topic string, payload []byte, runAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = append(s.jobs, NotificationJob{Kind: kind, Topic: topic, Payload: payload, RunAt: runAt})
	return nil
}

func (s *NotificationStore) Jobs() []NotificationJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]NotificationJob, len(s.jobs))
	copy(out, s.jobs)
	return out
}
