package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xdoubleu/essentia/v2/pkg/database"
	"schedulesync.xdoubleu.com/internal/auth"
	"schedulesync.xdoubleu.com/internal/models"
)

func NewMockedUserStore(users ...models.User) *MockedUserStore {
	store := &MockedUserStore{
		users: map[string]models.User{},
	}

	for _, user := range users {
		store.users[user.Email] = user
	}

	return store
}

// MockedUserStore keeps users in memory.
type MockedUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
	Err   error
}

var _ auth.UserStore = (*MockedUserStore)(nil)

func (m *MockedUserStore) GetAllUsers(_ context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}

	users := []models.User{}
	for _, user := range m.users {
		users = append(users, user)
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].Email < users[j].Email
	})

	return users, nil
}

func (m *MockedUserStore) GetUser(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[email]
	if !ok {
		return nil, database.ErrResourceNotFound
	}

	return &user, nil
}

func (m *MockedUserStore) UpdateAccessToken(
	_ context.Context,
	email string,
	accessToken string,
	expiresAt time.Time,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[email]
	if !ok {
		return database.ErrResourceNotFound
	}

	user.AccessToken = accessToken
	user.ExpiresAt = &expiresAt
	m.users[email] = user

	return nil
}

func (m *MockedUserStore) DeleteUser(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[email]; !ok {
		return database.ErrResourceNotFound
	}

	delete(m.users, email)
	return nil
}
