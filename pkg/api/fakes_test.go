package api

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/crewdeck/crewdeck/pkg/orgs"
	"github.com/crewdeck/crewdeck/pkg/users"
	"github.com/crewdeck/crewdeck/pkg/waitlist"
)

// memEntryStore is an in-memory waitlist.Store for handler tests.
type memEntryStore struct {
	mu      sync.Mutex
	entries map[string]*waitlist.Entry
	nextID  int64
}

func newMemEntryStore() *memEntryStore {
	return &memEntryStore{entries: map[string]*waitlist.Entry{}}
}

func copyEntry(e *waitlist.Entry) *waitlist.Entry {
	c := *e
	return &c
}

func (s *memEntryStore) FindByEmail(ctx context.Context, email string) (*waitlist.Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[email]
	if !ok || e.ArchivedAt != nil {
		return nil, false, nil
	}
	return copyEntry(e), true, nil
}

func (s *memEntryStore) Upsert(ctx context.Context, entry *waitlist.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.entries[entry.Email]; ok {
		entry.ID = existing.ID
		entry.CreatedAt = existing.CreatedAt
	} else {
		s.nextID++
		entry.ID = s.nextID
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now()
		}
	}
	entry.UpdatedAt = time.Now()
	s.entries[entry.Email] = copyEntry(entry)
	return nil
}

func (s *memEntryStore) Save(ctx context.Context, entry *waitlist.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ID == entry.ID {
			entry.UpdatedAt = time.Now()
			s.entries[e.Email] = copyEntry(entry)
			return nil
		}
	}
	return fmt.Errorf("waitlist entry %d not found", entry.ID)
}

func (s *memEntryStore) CountActive(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, e := range s.entries {
		if e.ArchivedAt == nil {
			count++
		}
	}
	return count, nil
}

func (s *memEntryStore) ListInvitable(ctx context.Context, createdBefore time.Time, limit int) ([]*waitlist.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*waitlist.Entry
	for _, e := range s.entries {
		if e.Status != waitlist.StatusPendingCohort || !e.FullyVerified() {
			continue
		}
		if !e.CreatedAt.Before(createdBefore) {
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

func (s *memEntryStore) get(email string) *waitlist.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[email]; ok {
		return copyEntry(e)
	}
	return nil
}

func (s *memEntryStore) put(e *waitlist.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == 0 {
		s.nextID++
		e.ID = s.nextID
	}
	s.entries[e.Email] = copyEntry(e)
}

// memUsers is an in-memory users.Service.
type memUsers struct {
	mu     sync.Mutex
	byMail map[string]*users.User
	nextID int64
}

func newMemUsers() *memUsers {
	return &memUsers{byMail: map[string]*users.User{}}
}

func (s *memUsers) ExistsActive(ctx context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byMail[email]
	return ok && u.IsActive && u.ArchivedAt == nil, nil
}

func (s *memUsers) FindByEmail(ctx context.Context, email string) (*users.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byMail[email]
	if !ok {
		return nil, false, nil
	}
	c := *u
	return &c, true, nil
}

func (s *memUsers) FindByVerificationToken(ctx context.Context, tokenHash string) (*users.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byMail {
		if u.VerificationTokenHash != nil && *u.VerificationTokenHash == tokenHash {
			c := *u
			return &c, true, nil
		}
	}
	return nil, false, nil
}

func (s *memUsers) Create(ctx context.Context, req users.CreateRequest) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byMail[req.Email]; ok {
		return nil, fmt.Errorf("duplicate email %s", req.Email)
	}
	s.nextID++
	role := req.Role
	if role == "" {
		role = users.RoleMember
	}
	u := &users.User{
		ID:              s.nextID,
		Username:        req.Username,
		Email:           req.Email,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		PasswordHash:    "hashed:" + req.Password,
		OrganizationID:  req.OrganizationID,
		Role:            role,
		IsOrgOwner:      req.IsOrgOwner,
		IsEmailVerified: req.EmailVerified,
		IsActive:        true,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	if req.VerificationTokenHash != nil {
		u.VerificationTokenHash = req.VerificationTokenHash
		u.VerificationTokenExpiry = req.VerificationTokenExpiry
	}
	s.byMail[u.Email] = u
	c := *u
	return &c, nil
}

func (s *memUsers) ClearVerificationToken(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byMail {
		if u.ID == userID {
			u.IsEmailVerified = true
			u.VerificationTokenHash = nil
			u.VerificationTokenExpiry = nil
			return nil
		}
	}
	return fmt.Errorf("user %d not found", userID)
}

// memOrgs is an in-memory orgs.Service.
type memOrgs struct {
	mu     sync.Mutex
	byID   map[int64]*orgs.Organization
	nextID int64
}

func newMemOrgs() *memOrgs {
	return &memOrgs{byID: map[int64]*orgs.Organization{}}
}

func (s *memOrgs) Create(ctx context.Context, org *orgs.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	org.ID = s.nextID
	org.IsActive = true
	org.CreatedAt = time.Now()
	org.UpdatedAt = org.CreatedAt
	c := *org
	s.byID[org.ID] = &c
	return nil
}

func (s *memOrgs) FindByID(ctx context.Context, id int64) (*orgs.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("organization %d not found", id)
	}
	c := *org
	return &c, nil
}

func (s *memOrgs) FindByDomain(ctx context.Context, domain string) (*orgs.Organization, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, org := range s.byID {
		if org.PrimaryDomain == domain && org.IsActive {
			c := *org
			return &c, true, nil
		}
	}
	return nil, false, nil
}

func (s *memOrgs) SetOwner(ctx context.Context, orgID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.byID[orgID]
	if !ok {
		return fmt.Errorf("organization %d not found", orgID)
	}
	org.OwnerID = &userID
	return nil
}

// arbiterStub always grants the domain claim.
type arbiterStub struct{}

func (arbiterStub) Acquire(ctx context.Context, domain string) (bool, error) { return true, nil }
func (arbiterStub) Release(ctx context.Context, domain string) error         { return nil }
