package application

import (
	"context"

	"github.com/hill399/linkedBtc/internal/core/domain"
	"github.com/hill399/linkedBtc/pkg/errors"
)

type Service interface {
	Start() errors.Error
	Stop()
	RegisterAccount(ctx context.Context, caller, externalAddress string) (*domain.Account, errors.Error)
	GetAccount(ctx context.Context, caller string) (*domain.Account, errors.Error)
	RequestValidation(ctx context.Context, caller, externalTxid string) (string, errors.Error)
	RequestDeposit(
		ctx context.Context, caller, externalTxid string, amount uint64,
	) (string, errors.Error)
	RequestWithdrawal(
		ctx context.Context, caller, destination string, amount uint64,
	) (*domain.Withdrawal, errors.Error)
	GetWithdrawal(ctx context.Context, caller, id string) (*domain.Withdrawal, errors.Error)
	SubmitVerdict(ctx context.Context, callback VerdictCallback) errors.Error
	GetEventsChannel(ctx context.Context) <-chan domain.Event
	GetInfo(ctx context.Context) (*ServiceInfo, errors.Error)

	// Operator actions serialized with the rest of the bridge mutations.
	ExpireRequests(ctx context.Context, ids []string) ([]string, errors.Error)
	ReconcileWithdrawal(
		ctx context.Context, id string, resolution Resolution, txid string,
	) (*domain.Withdrawal, errors.Error)
}

type ServiceInfo struct {
	Network          string
	MinWithdraw      uint64
	ChallengeFloor   uint64
	RequestTTL       int64
	TimeUnit         string
	Providers        int
	PendingRequests  int64
	CustodyEnabled   bool
	CustodyTreasury  string
	BridgeIdentifier string
}

// VerdictCallback is the inbound message a provider delivers for one
// correlation id. Signature is the hex schnorr signature over VerdictMessage.
type VerdictCallback struct {
	CorrelationId string
	ProviderId    string
	Signature     string
	Verdict       domain.Verdict
}

type Resolution string

const (
	ResolutionSettle   Resolution = "settle"
	ResolutionRecredit Resolution = "recredit"
)

func ParseResolution(s string) (Resolution, bool) {
	switch Resolution(s) {
	case ResolutionSettle, ResolutionRecredit:
		return Resolution(s), true
	default:
		return "", false
	}
}

type PendingRequestInfo struct {
	domain.PendingRequest
	Expired bool
}
