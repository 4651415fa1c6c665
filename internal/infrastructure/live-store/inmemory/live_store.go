package inmemorylivestore

import "github.com/hill399/linkedBtc/internal/core/ports"

type liveStore struct {
	pendingRequests ports.PendingRequestStore
}

func NewLiveStore() ports.LiveStore {
	return &liveStore{
		pendingRequests: NewPendingRequestStore(),
	}
}

func (s *liveStore) PendingRequests() ports.PendingRequestStore {
	return s.pendingRequests
}

func (s *liveStore) Close() {}
