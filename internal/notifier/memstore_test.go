package notifier

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/julianstephens/careminder/internal/models"
)

type memStore struct {
	mu      sync.Mutex
	rows    map[string]models.ScheduledNotification
	failAdd error
}

func newMemStore() *memStore {
	return &memStore{rows: map[string]models.ScheduledNotification{}}
}

func (m *memStore) AddNotification(n models.ScheduledNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAdd != nil {
		return m.failAdd
	}
	m.rows[n.ID] = n
	return nil
}

func (m *memStore) GetAllNotifications() ([]models.ScheduledNotification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ScheduledNotification, 0, len(m.rows))
	for _, n := range m.rows {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b models.ScheduledNotification) int { return a.FireAt.Compare(b.FireAt) })
	return out, nil
}

func (m *memStore) GetDueNotifications(now time.Time) ([]models.ScheduledNotification, error) {
	all, _ := m.GetAllNotifications()
	var due []models.ScheduledNotification
	for _, n := range all {
		if !n.FireAt.After(now) {
			due = append(due, n)
		}
	}
	return due, nil
}

func (m *memStore) UpdateNotification(n models.ScheduledNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[n.ID]; !ok {
		return errors.New("not found")
	}
	m.rows[n.ID] = n
	return nil
}

func (m *memStore) DeleteNotification(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func (m *memStore) DeleteAllNotifications() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = map[string]models.ScheduledNotification{}
	return nil
}

type recordingSender struct {
	mu   sync.Mutex
	sent []Message
	fail error
}

func (r *recordingSender) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.sent = append(r.sent, msg)
	return nil
}
