package ai

import (
	"context"
	"encoding/json"
	"sync"
)

// MockProvider is a test double for realtime providers.
type MockProvider struct {
	Session Session
	Err     error

	mu         sync.Mutex
	lastConfig *SessionConfig // captures the last request for inspection
	calls      int
}

// NewMockProvider creates a MockProvider that issues a session with the given id.
func NewMockProvider(id string) *MockProvider {
	raw, _ := json.Marshal(map[string]any{
		"id":            id,
		"object":        "realtime.session",
		"client_secret": map[string]any{"value": "ek_" + id, "expires_at": 1700000000},
	})
	return &MockProvider{Session: Session{
		ID:           id,
		ClientSecret: "ek_" + id,
		ExpiresAt:    1700000000,
		Raw:          raw,
	}}
}

func (m *MockProvider) CreateSession(_ context.Context, cfg SessionConfig) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastConfig = &cfg
	m.calls++
	if m.Err != nil {
		return Session{}, m.Err
	}
	return m.Session, nil
}

// LastConfig returns the config of the most recent CreateSession call.
func (m *MockProvider) LastConfig() *SessionConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastConfig
}

// Calls returns how many sessions were requested.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockProvider) HealthCheck(_ context.Context) error {
	return m.Err
}
