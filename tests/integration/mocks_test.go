//go:build integration

package integration

import (
	"context"
	"sync"
	"time"

	"github.com/bissquit/meetup-hub/internal/notifications"
)

// MockSender is a test implementation of notifications.Sender.
type MockSender struct {
	mu        sync.Mutex
	sent      []notifications.Notification
	failErr   error
	failCount int // Number of times to fail before succeeding
	callCount int
}

// Send implements notifications.Sender.
func (m *MockSender) Send(_ context.Context, n notifications.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCount++

	if m.failCount > 0 {
		m.failCount--
		return m.failErr
	}

	m.sent = append(m.sent, n)
	return nil
}

// Type implements notifications.Sender.
func (m *MockSender) Type() string {
	return "mock"
}

// GetSent returns a copy of sent notifications.
func (m *MockSender) GetSent() []notifications.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]notifications.Notification, len(m.sent))
	copy(result, m.sent)
	return result
}

// CallCount returns the total number of Send calls.
func (m *MockSender) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// FailNextN makes the next N Send calls fail with the given error.
func (m *MockSender) FailNextN(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failCount = n
	m.failErr = err
}

// WaitForNotifications waits until at least n notifications are sent or timeout.
func (m *MockSender) WaitForNotifications(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if len(m.GetSent()) >= n {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return len(m.GetSent()) >= n
}
