package records

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. Records are copied in and out.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]Account // by email
	profiles map[string]Profile // by id
	stats    map[string]Stats   // by id
	now      func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]Account),
		profiles: make(map[string]Profile),
		stats:    make(map[string]Stats),
		now:      time.Now,
	}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, kind Kind, ownerID string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch kind {
	case KindProfiles:
		p, ok := m.profiles[ownerID]
		if !ok {
			return nil, ErrNotFound
		}
		return &p, nil
	case KindStats:
		for _, st := range m.stats {
			if st.UserID == ownerID {
				return &st, nil
			}
		}
		return nil, ErrNotFound
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// Update implements Store.
func (m *MemoryStore) Update(_ context.Context, kind Kind, id string, patch Patch) error {
	cols, err := patch.validate(kind)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	switch kind {
	case KindProfiles:
		p, ok := m.profiles[id]
		if !ok {
			return ErrNotFound
		}
		apply(&p, cols, m.now())
		m.profiles[id] = p
	case KindStats:
		st, ok := m.stats[id]
		if !ok {
			return ErrNotFound
		}
		apply(&st, cols, m.now())
		m.stats[id] = st
	}
	return nil
}

// Insert implements Store.
func (m *MemoryStore) Insert(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch r := rec.(type) {
	case *Profile:
		if _, ok := m.profiles[r.ID]; ok {
			return ErrConflict
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = m.now()
		}
		m.profiles[r.ID] = *r
	case *Stats:
		if _, ok := m.stats[r.ID]; ok {
			return ErrConflict
		}
		for _, st := range m.stats {
			if st.UserID == r.UserID {
				return ErrConflict
			}
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = m.now()
		}
		m.stats[r.ID] = *r
	default:
		return fmt.Errorf("%w: %T", ErrUnknownKind, rec)
	}
	return nil
}

// CreateAccount implements AccountStore.
func (m *MemoryStore) CreateAccount(_ context.Context, acct *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct.Email = NormalizeEmail(acct.Email)
	if _, ok := m.accounts[acct.Email]; ok {
		return ErrConflict
	}
	if acct.CreatedAt.IsZero() {
		acct.CreatedAt = m.now()
	}
	m.accounts[acct.Email] = *acct
	return nil
}

// AccountByEmail implements AccountStore.
func (m *MemoryStore) AccountByEmail(_ context.Context, email string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
