package notifications

import (
	"context"
	"errors"
	"sync"
	"time"
)

type fakeRepository struct {
	mu       sync.Mutex
	items    map[string]*QueueItem
	pending  []*QueueItem
	sent     []string
	failed   map[string]string
	retries  map[string]time.Time
	enqueErr error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		items:   make(map[string]*QueueItem),
		failed:  make(map[string]string),
		retries: make(map[string]time.Time),
	}
}

func (f *fakeRepository) EnqueueNotification(_ context.Context, item *QueueItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enqueErr != nil {
		return f.enqueErr
	}
	item.ID = "item-" + string(rune('a'+len(f.items)))
	f.items[item.ID] = item
	f.pending = append(f.pending, item)
	return nil
}

func (f *fakeRepository) FetchPendingNotifications(_ context.Context, limit int) ([]*QueueItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := min(limit, len(f.pending))
	out := f.pending[:n]
	f.pending = f.pending[n:]
	return out, nil
}

func (f *fakeRepository) MarkAsSent(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, id)
	return nil
}

func (f *fakeRepository) MarkAsFailed(_ context.Context, id string, cause error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[id] = cause.Error()
	return nil
}

func (f *fakeRepository) MarkForRetry(_ context.Context, id string, _ error, next time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retries[id] = next
	return nil
}

func (f *fakeRepository) RequeueStale(context.Context, time.Duration) (int64, error) {
	return 0, nil
}

func (f *fakeRepository) GetQueueStats(context.Context) (*QueueStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &QueueStats{Pending: int64(len(f.pending)), Sent: int64(len(f.sent)), Failed: int64(len(f.failed))}, nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []Notification
	err  error
}

func (s *fakeSender) Type() string { return "fake" }

func (s *fakeSender) Send(_ context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, n)
	return nil
}

var errSMTPDown = errors.New("421 service not available")
