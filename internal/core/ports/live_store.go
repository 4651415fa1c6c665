package ports

import (
	"context"
	"errors"

	"github.com/hill399/linkedBtc/internal/core/domain"
)

var (
	ErrRequestNotFound  = errors.New("pending request not found")
	ErrRequestExists    = errors.New("pending request already exists")
	ErrProviderMismatch = errors.New("callback provider is not the request target")
)

type LiveStore interface {
	PendingRequests() PendingRequestStore
	Close()
}

// PendingRequestStore keeps the requests waiting for a provider callback.
// Resolve and Expire are atomic lookup-and-remove operations: for a given id
// at most one call of either ever returns the request.
type PendingRequestStore interface {
	Add(ctx context.Context, request domain.PendingRequest) error
	// Resolve returns ErrProviderMismatch, leaving the entry in place, if the
	// request was dispatched to a different provider.
	Resolve(ctx context.Context, id, providerId string) (*domain.PendingRequest, error)
	Expire(ctx context.Context, id string) (*domain.PendingRequest, error)
	Get(ctx context.Context, id string) (*domain.PendingRequest, error)
	List(ctx context.Context) ([]domain.PendingRequest, error)
	Len(ctx context.Context) (int64, error)
}
