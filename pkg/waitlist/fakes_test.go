package waitlist

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// memStore is an in-memory Store for exercising the throttle and service
// without a database.
type memStore struct {
	mu      sync.Mutex
	entries map[string]*Entry
	nextID  int64
	clock   func() time.Time

	saveErr error
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]*Entry), nextID: 1, clock: time.Now}
}

func copyEntry(e *Entry) *Entry {
	c := *e
	return &c
}

func (m *memStore) FindByEmail(ctx context.Context, email string) (*Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[email]
	if !ok || e.ArchivedAt != nil {
		return nil, false, nil
	}
	return copyEntry(e), true, nil
}

func (m *memStore) Upsert(ctx context.Context, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock()
	if existing, ok := m.entries[entry.Email]; ok {
		entry.ID = existing.ID
		entry.CreatedAt = existing.CreatedAt
	} else {
		entry.ID = m.nextID
		m.nextID++
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	m.entries[entry.Email] = copyEntry(entry)
	return nil
}

func (m *memStore) Save(ctx context.Context, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	for email, e := range m.entries {
		if e.ID == entry.ID {
			entry.UpdatedAt = m.clock()
			m.entries[email] = copyEntry(entry)
			return nil
		}
	}
	return fmt.Errorf("waitlist entry %d not found", entry.ID)
}

func (m *memStore) CountActive(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, e := range m.entries {
		if e.ArchivedAt == nil {
			count++
		}
	}
	return count, nil
}

func (m *memStore) ListInvitable(ctx context.Context, createdBefore time.Time, limit int) ([]*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Entry
	for _, e := range m.entries {
		if e.ArchivedAt != nil || e.Status != StatusPendingCohort {
			continue
		}
		if !e.EmailState.Verified() || !e.PhoneState.Verified() {
			continue
		}
		if e.CreatedAt.After(createdBefore) {
			continue
		}
		out = append(out, copyEntry(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// get returns the stored entry directly, for assertions.
func (m *memStore) get(email string) *Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[email]
}

// usersFake is a UserDirectory with a fixed active set.
type usersFake struct {
	active map[string]bool
	err    error
}

func (u *usersFake) ExistsActive(ctx context.Context, email string) (bool, error) {
	if u.err != nil {
		return false, u.err
	}
	return u.active[email], nil
}
