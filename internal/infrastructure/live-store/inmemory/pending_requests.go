package inmemorylivestore

import (
	"context"
	"sync"

	"github.com/hill399/linkedBtc/internal/core/domain"
	"github.com/hill399/linkedBtc/internal/core/ports"
)

type pendingRequestStore struct {
	lock     sync.RWMutex
	requests map[string]domain.PendingRequest
}

func NewPendingRequestStore() ports.PendingRequestStore {
	return &pendingRequestStore{
		requests: make(map[string]domain.PendingRequest),
	}
}

func (m *pendingRequestStore) Add(_ context.Context, request domain.PendingRequest) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if _, ok := m.requests[request.Id]; ok {
		return ports.ErrRequestExists
	}
	m.requests[request.Id] = request
	return nil
}

func (m *pendingRequestStore) Resolve(
	_ context.Context, id, providerId string,
) (*domain.PendingRequest, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	request, ok := m.requests[id]
	if !ok {
		return nil, ports.ErrRequestNotFound
	}
	if request.ProviderId != providerId {
		return nil, ports.ErrProviderMismatch
	}
	delete(m.requests, id)
	return &request, nil
}

func (m *pendingRequestStore) Expire(
	_ context.Context, id string,
) (*domain.PendingRequest, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	request, ok := m.requests[id]
	if !ok {
		return nil, ports.ErrRequestNotFound
	}
	delete(m.requests, id)
	return &request, nil
}

func (m *pendingRequestStore) Get(_ context.Context, id string) (*domain.PendingRequest, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	request, ok := m.requests[id]
	if !ok {
		return nil, ports.ErrRequestNotFound
	}
	return &request, nil
}

func (m *pendingRequestStore) List(_ context.Context) ([]domain.PendingRequest, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	requests := make([]domain.PendingRequest, 0, len(m.requests))
	for _, r := range m.requests {
		requests = append(requests, r)
	}
	return requests, nil
}

func (m *pendingRequestStore) Len(_ context.Context) (int64, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return int64(len(m.requests)), nil
}
