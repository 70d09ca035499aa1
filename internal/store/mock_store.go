// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite and to inject store failures

package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu         sync.RWMutex
	users      map[string]*User    // keyed by user ID
	usernames  map[string]string   // keyed by username -> user ID
	sessions   map[string]*Session // keyed by session ID
	releases   map[string]*Release // keyed by release ID
	failWith   error
	closeCalls int
}

// Ensure MockStore implements Store.
var _ Store = (*MockStore)(nil)

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		users:     make(map[string]*User),
		usernames: make(map[string]string),
		sessions:  make(map[string]*Session),
		releases:  make(map[string]*Release),
	}
}

// FailWith makes every subsequent call return err. Pass nil to recover.
func (m *MockStore) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

// CreateUser stores a new user.
func (m *MockStore) CreateUser(ctx context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return m.failWith
	}
	if _, exists := m.usernames[user.Username]; exists {
		return ErrUsernameExists
	}

	u := *user
	m.users[u.ID] = &u
	m.usernames[u.Username] = u.ID
	return nil
}

// GetUser retrieves a user by ID.
func (m *MockStore) GetUser(ctx context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failWith != nil {
		return nil, m.failWith
	}
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// GetUserByUsername retrieves a user by username.
func (m *MockStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	m.mu.RLock()
	id, ok := m.usernames[username]
	m.mu.RUnlock()

	if !ok {
		m.mu.RLock()
		err := m.failWith
		m.mu.RUnlock()
		if err != nil {
			return nil, err
		}
		return nil, ErrUserNotFound
	}
	return m.GetUser(ctx, id)
}

// ListUsers returns all users ordered by username.
func (m *MockStore) ListUsers(ctx context.Context) ([]*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failWith != nil {
		return nil, m.failWith
	}
	users := make([]*User, 0, len(m.users))
	for _, u := range m.users {
		cp := *u
		users = append(users, &cp)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

// CountUsers returns the number of users.
func (m *MockStore) CountUsers(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failWith != nil {
		return 0, m.failWith
	}
	return len(m.users), nil
}

// SetUserRole replaces a user's role.
func (m *MockStore) SetUserRole(ctx context.Context, id, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return m.failWith
	}
	u, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.Role = role
	return nil
}

// CreateSession stores a new session.
func (m *MockStore) CreateSession(ctx context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return m.failWith
	}
	s := *session
	m.sessions[s.ID] = &s
	return nil
}

// GetSession retrieves an unexpired session by ID.
func (m *MockStore) GetSession(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failWith != nil {
		return nil, m.failWith
	}
	s, ok := m.sessions[id]
	if !ok || !time.Now().Before(s.ExpiresAt) {
		return nil, ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

// DeleteSession deletes a session.
func (m *MockStore) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return m.failWith
	}
	delete(m.sessions, id)
	return nil
}

// DeleteExpiredSessions removes expired sessions.
func (m *MockStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return 0, m.failWith
	}
	now := time.Now()
	var removed int64
	for id, s := range m.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// CreateRelease stores a new release.
func (m *MockStore) CreateRelease(ctx context.Context, release *Release) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return m.failWith
	}
	r := *release
	m.releases[r.ID] = &r
	return nil
}

// GetRelease retrieves a release by ID.
func (m *MockStore) GetRelease(ctx context.Context, id string) (*Release, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failWith != nil {
		return nil, m.failWith
	}
	r, ok := m.releases[id]
	if !ok {
		return nil, ErrReleaseNotFound
	}
	cp := *r
	return &cp, nil
}

// ListReleases returns releases newest first, optionally filtered by status.
func (m *MockStore) ListReleases(ctx context.Context, filter ReleaseFilter) ([]*Release, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failWith != nil {
		return nil, m.failWith
	}
	releases := []*Release{}
	for _, r := range m.releases {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		cp := *r
		releases = append(releases, &cp)
	}
	sort.Slice(releases, func(i, j int) bool {
		if releases[i].CreatedAt.Equal(releases[j].CreatedAt) {
			return releases[i].ID < releases[j].ID
		}
		return releases[i].CreatedAt.After(releases[j].CreatedAt)
	})
	if filter.Limit > 0 && len(releases) > filter.Limit {
		releases = releases[:filter.Limit]
	}
	return releases, nil
}

// UpdateReleaseStatus moves a release from one status to another.
func (m *MockStore) UpdateReleaseStatus(ctx context.Context, id string, from, to ReleaseStatus, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return m.failWith
	}
	r, ok := m.releases[id]
	if !ok {
		return ErrReleaseNotFound
	}
	if r.Status != from {
		return ErrReleaseConflict
	}
	r.Status = to
	r.UpdatedAt = at
	return nil
}

// Close records the call; the mock holds no resources.
func (m *MockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCalls++
	return nil
}

// CloseCalls returns how many times Close was called.
func (m *MockStore) CloseCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closeCalls
}
