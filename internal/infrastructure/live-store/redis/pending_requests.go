package redislivestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hill399/linkedBtc/internal/core/domain"
	"github.com/hill399/linkedBtc/internal/core/ports"
	"github.com/redis/go-redis/v9"
)

const pendingRequestsHashKey = "pendingRequestStore:requests"

type pendingRequestStore struct {
	rdb          *redis.Client
	numOfRetries int
	retryDelay   time.Duration
}

func NewPendingRequestStore(rdb *redis.Client, numOfRetries int) ports.PendingRequestStore {
	if numOfRetries <= 0 {
		numOfRetries = 1
	}
	return &pendingRequestStore{
		rdb:          rdb,
		numOfRetries: numOfRetries,
		retryDelay:   10 * time.Millisecond,
	}
}

func (s *pendingRequestStore) Add(ctx context.Context, request domain.PendingRequest) error {
	val, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal pending request %s: %v", request.Id, err)
	}
	added, err := s.rdb.HSetNX(ctx, pendingRequestsHashKey, request.Id, val).Result()
	if err != nil {
		return fmt.Errorf("failed to add pending request %s: %v", request.Id, err)
	}
	if !added {
		return ports.ErrRequestExists
	}
	return nil
}

func (s *pendingRequestStore) Resolve(
	ctx context.Context, id, providerId string,
) (*domain.PendingRequest, error) {
	return s.take(ctx, id, func(r domain.PendingRequest) error {
		if r.ProviderId != providerId {
			return ports.ErrProviderMismatch
		}
		return nil
	})
}

func (s *pendingRequestStore) Expire(
	ctx context.Context, id string,
) (*domain.PendingRequest, error) {
	return s.take(ctx, id, nil)
}

func (s *pendingRequestStore) Get(
	ctx context.Context, id string,
) (*domain.PendingRequest, error) {
	val, err := s.rdb.HGet(ctx, pendingRequestsHashKey, id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ports.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get pending request %s: %v", id, err)
	}
	return decodeRequest(id, val)
}

func (s *pendingRequestStore) List(ctx context.Context) ([]domain.PendingRequest, error) {
	values, err := s.rdb.HGetAll(ctx, pendingRequestsHashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %v", err)
	}
	requests := make([]domain.PendingRequest, 0, len(values))
	for id, val := range values {
		request, err := decodeRequest(id, val)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *request)
	}
	return requests, nil
}

func (s *pendingRequestStore) Len(ctx context.Context) (int64, error) {
	n, err := s.rdb.HLen(ctx, pendingRequestsHashKey).Result()
	if err != nil {
		return -1, fmt.Errorf("failed to count pending requests: %v", err)
	}
	return n, nil
}

// take removes the entry under WATCH so that a concurrent Resolve/Expire of
// the same id aborts the transaction and, on retry, finds nothing.
func (s *pendingRequestStore) take(
	ctx context.Context, id string, check func(domain.PendingRequest) error,
) (*domain.PendingRequest, error) {
	var request *domain.PendingRequest
	var err error
	for range s.numOfRetries {
		err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			val, err := tx.HGet(ctx, pendingRequestsHashKey, id).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return ports.ErrRequestNotFound
				}
				return err
			}
			r, err := decodeRequest(id, val)
			if err != nil {
				return err
			}
			if check != nil {
				if err := check(*r); err != nil {
					return err
				}
			}
			if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HDel(ctx, pendingRequestsHashKey, id)
				return nil
			}); err != nil {
				return err
			}
			request = r
			return nil
		}, pendingRequestsHashKey)
		if err == nil {
			return request, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, err
		}
		time.Sleep(s.retryDelay)
	}
	return nil, fmt.Errorf(
		"failed to remove pending request %s after max number of retries: %v", id, err,
	)
}

func decodeRequest(id, val string) (*domain.PendingRequest, error) {
	var request domain.PendingRequest
	if err := json.Unmarshal([]byte(val), &request); err != nil {
		return nil, fmt.Errorf("malformed pending request %s in storage: %v", id, err)
	}
	return &request, nil
}
