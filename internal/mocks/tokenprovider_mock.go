package mocks

import (
	"context"
	"fmt"
	"sync"

	"schedulesync.xdoubleu.com/internal/auth"
	"schedulesync.xdoubleu.com/internal/models"
)

// NewMockedTokenProvider hands out the stored access token of each user
// unchanged. Users without one get models.ErrNoToken.
func NewMockedTokenProvider() *MockedTokenProvider {
	return &MockedTokenProvider{
		Errors: map[string]error{},
		Panics: map[string]any{},
	}
}

type MockedTokenProvider struct {
	mu     sync.Mutex
	calls  int
	Errors map[string]error
	Panics map[string]any
}

var _ auth.TokenProvider = (*MockedTokenProvider)(nil)

func (m *MockedTokenProvider) GetAccessToken(
	_ context.Context,
	user models.User,
) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++

	if value, ok := m.Panics[user.Email]; ok {
		panic(value)
	}

	if err, ok := m.Errors[user.Email]; ok {
		return "", err
	}

	if user.AccessToken == "" {
		return "", fmt.Errorf("%s: %w", user.Email, models.ErrNoToken)
	}

	return user.AccessToken, nil
}

func (m *MockedTokenProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.calls
}
