package authsvc_test

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/mkrupp/collabgames/internal/domain"
	"github.com/mkrupp/collabgames/internal/repo/user"
)

var ErrRepoError = errors.New("repository error")

// mockUserStore implements user.Store in memory. Each error field makes the
// matching operation fail.
type mockUserStore struct {
	m sync.Mutex

	users  map[int64]*domain.User
	nextID int64

	openErr   error
	lookupErr error
	createErr error
	updateErr error

	opened int
	closed int
}

var _ user.Store = (*mockUserStore)(nil)

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		users:  make(map[int64]*domain.User),
		nextID: 1,
	}
}

func (s *mockUserStore) Open(context.Context) (user.Session, error) {
	s.m.Lock()
	defer s.m.Unlock()

	if s.openErr != nil {
		return nil, s.openErr
	}

	s.opened++

	return &mockSession{store: s}, nil
}

func (s *mockUserStore) Close() error {
	return nil
}

func (s *mockUserStore) count() int {
	s.m.Lock()
	defer s.m.Unlock()

	return len(s.users)
}

func (s *mockUserStore) sessionsBalanced() bool {
	s.m.Lock()
	defer s.m.Unlock()

	return s.opened == s.closed
}

func (s *mockUserStore) get(name string) *domain.User {
	s.m.Lock()
	defer s.m.Unlock()

	for _, u := range s.users {
		if u.Name == name {
			return u
		}
	}

	return nil
}

type mockSession struct {
	store *mockUserStore
}

func (s *mockSession) CreateUser(_ context.Context, u *domain.User) error {
	st := s.store

	st.m.Lock()
	defer st.m.Unlock()

	for _, existing := range st.users {
		if existing.Name == u.Name {
			return domain.ErrDuplicateName
		}
	}

	u.ID = st.nextID
	st.nextID++

	stored := *u
	st.users[u.ID] = &stored

	if st.createErr != nil {
		return st.createErr
	}

	return nil
}

func (s *mockSession) GetUserByName(_ context.Context, name string) (*domain.User, bool, error) {
	st := s.store

	st.m.Lock()
	defer st.m.Unlock()

	if st.lookupErr != nil {
		return nil, false, st.lookupErr
	}

	for _, u := range st.users {
		if u.Name == name {
			found := *u

			return &found, true, nil
		}
	}

	return nil, false, nil
}

func (s *mockSession) GetUserByID(_ context.Context, id int64) (*domain.User, bool, error) {
	st := s.store

	st.m.Lock()
	defer st.m.Unlock()

	if st.lookupErr != nil {
		return nil, false, st.lookupErr
	}

	u, ok := st.users[id]
	if !ok {
		return nil, false, nil
	}

	found := *u

	return &found, true, nil
}

func (s *mockSession) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	st := s.store

	st.m.Lock()
	defer st.m.Unlock()

	u, ok := st.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}

	u.LastLoginAt = &at

	if st.updateErr != nil {
		return st.updateErr
	}

	return nil
}

// WithTx restores the previous state of the store when fn fails.
func (s *mockSession) WithTx(ctx context.Context, fn func(context.Context, user.Repository) error) error {
	st := s.store

	st.m.Lock()
	snapshot := make(map[int64]*domain.User, len(st.users))

	for id, u := range st.users {
		cp := *u
		snapshot[id] = &cp
	}

	nextID := st.nextID
	st.m.Unlock()

	if err := fn(ctx, s); err != nil {
		st.m.Lock()
		st.users = maps.Clone(snapshot)
		st.nextID = nextID
		st.m.Unlock()

		return err
	}

	return nil
}

func (s *mockSession) Close() error {
	s.store.m.Lock()
	defer s.store.m.Unlock()

	s.store.closed++

	return nil
}
