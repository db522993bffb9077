package service

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/checkout-gateway/internal/cache"
	d "github.com/fjod/go_cart/checkout-gateway/internal/domain"
)

// MockProvider implements SessionProvider for testing
type MockProvider struct {
	mu       sync.Mutex
	Session  *d.CheckoutSession
	Err      error
	Calls    int
	Requests []*d.CheckoutRequest
	Block    chan struct{} // when set, CreateSession waits on it or ctx
}

func (m *MockProvider) CreateSession(ctx context.Context, request *d.CheckoutRequest) (*d.CheckoutSession, error) {
	m.mu.Lock()
	m.Calls++
	m.Requests = append(m.Requests, request)
	block := m.Block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.Session, m.Err
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// MockCache is an in-memory cache.SessionCache
type MockCache struct {
	mu     sync.Mutex
	data   map[string]cache.Session
	GetErr error
	SetErr error
}

func NewMockCache() *MockCache {
	return &MockCache{data: map[string]cache.Session{}}
}

func (m *MockCache) Get(_ context.Context, key string) (cache.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return cache.Session{}, m.GetErr
	}
	session, ok := m.data[key]
	if !ok {
		return cache.Session{}, cache.ErrCacheMiss
	}
	return session, nil
}

func (m *MockCache) Set(_ context.Context, key string, session cache.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.data[key] = session
	return nil
}
