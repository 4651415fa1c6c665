package redislivestore

import (
	"github.com/hill399/linkedBtc/internal/core/ports"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

type liveStore struct {
	rdb             *redis.Client
	pendingRequests ports.PendingRequestStore
}

func NewLiveStore(rdb *redis.Client, numOfRetries int) ports.LiveStore {
	return &liveStore{
		rdb:             rdb,
		pendingRequests: NewPendingRequestStore(rdb, numOfRetries),
	}
}

func (s *liveStore) PendingRequests() ports.PendingRequestStore {
	return s.pendingRequests
}

func (s *liveStore) Close() {
	if err := s.rdb.Close(); err != nil {
		log.WithError(err).Warn("failed to close redis client")
	}
}
