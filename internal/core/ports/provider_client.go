package ports

import (
	"context"

	"github.com/hill399/linkedBtc/internal/core/domain"
)

// ProviderClient hands a request to an oracle provider. A nil error means the
// provider accepted the job, the verdict comes back later through the callback
// entrypoint.
type ProviderClient interface {
	Send(ctx context.Context, provider domain.Provider, request domain.PendingRequest) error
}
