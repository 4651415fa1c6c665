package application

import (
	"context"
	stderrors "errors"
	"sort"

	"github.com/hill399/linkedBtc/internal/core/domain"
	"github.com/hill399/linkedBtc/internal/core/ports"
	"github.com/hill399/linkedBtc/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type AdminService interface {
	AddProvider(
		ctx context.Context, id, jobId, url, pubkey string,
	) (*domain.Provider, errors.Error)
	ListProviders(ctx context.Context) ([]domain.Provider, errors.Error)
	ListPendingRequests(ctx context.Context) ([]PendingRequestInfo, errors.Error)
	ExpirePendingRequests(ctx context.Context, ids []string) ([]string, errors.Error)
	ListWithdrawals(ctx context.Context, status string) ([]domain.Withdrawal, errors.Error)
	ReconcileWithdrawal(
		ctx context.Context, id, resolution, txid string,
	) (*domain.Withdrawal, errors.Error)
	GetAccountHistory(ctx context.Context, accountId string) ([]domain.Event, errors.Error)
}

type adminService struct {
	bridge      Service
	repoManager ports.RepoManager
	liveStore   ports.LiveStore
	scheduler   ports.SchedulerService
}

func NewAdminService(
	bridge Service, repoManager ports.RepoManager, liveStore ports.LiveStore,
	scheduler ports.SchedulerService,
) AdminService {
	return &adminService{
		bridge:      bridge,
		repoManager: repoManager,
		liveStore:   liveStore,
		scheduler:   scheduler,
	}
}

// AddProvider appends a provider to the registry. The registry has its own
// storage level uniqueness and does not go through the bridge event loop.
func (a *adminService) AddProvider(
	ctx context.Context, id, jobId, url, pubkey string,
) (*domain.Provider, errors.Error) {
	if err := validateProviderPubkey(pubkey); err != nil {
		return nil, errors.INVALID_SIGNATURE.New("invalid provider pubkey: %s", err).
			WithMetadata(errors.ProviderMetadata{ProviderId: id})
	}
	provider, err := domain.NewProvider(id, jobId, url, pubkey)
	if err != nil {
		return nil, errors.UNKNOWN_PROVIDER.New("%s", err).
			WithMetadata(errors.ProviderMetadata{ProviderId: id})
	}

	added, err := a.repoManager.Providers().Add(ctx, *provider)
	if err != nil {
		if stderrors.Is(err, domain.ErrProviderExists) {
			return nil, errors.DUPLICATE_PROVIDER.New("provider %s already registered", id).
				WithMetadata(errors.ProviderMetadata{ProviderId: id})
		}
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}

	log.Infof("added provider %s at index %d", added.Id, added.Index)
	return added, nil
}

func (a *adminService) ListProviders(ctx context.Context) ([]domain.Provider, errors.Error) {
	providers, err := a.repoManager.Providers().List(ctx)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	return providers, nil
}

func (a *adminService) ListPendingRequests(
	ctx context.Context,
) ([]PendingRequestInfo, errors.Error) {
	requests, err := a.liveStore.PendingRequests().List(ctx)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	now, err := a.scheduler.Now()
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}

	sort.SliceStable(requests, func(i, j int) bool {
		return requests[i].IssuedAt < requests[j].IssuedAt
	})

	infos := make([]PendingRequestInfo, 0, len(requests))
	for _, r := range requests {
		infos = append(infos, PendingRequestInfo{PendingRequest: r, Expired: r.IsExpired(now)})
	}
	return infos, nil
}

func (a *adminService) ExpirePendingRequests(
	ctx context.Context, ids []string,
) ([]string, errors.Error) {
	return a.bridge.ExpireRequests(ctx, ids)
}

func (a *adminService) ListWithdrawals(
	ctx context.Context, status string,
) ([]domain.Withdrawal, errors.Error) {
	statuses := make([]domain.WithdrawalStatus, 0, 1)
	if len(status) > 0 {
		st, err := domain.ParseWithdrawalStatus(status)
		if err != nil {
			return nil, errors.INVALID_RECONCILIATION.New("%s", err).
				WithMetadata(errors.WithdrawalMetadata{Status: status})
		}
		statuses = append(statuses, st)
	}

	withdrawals, err := a.repoManager.Withdrawals().List(ctx, statuses...)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	return withdrawals, nil
}

func (a *adminService) ReconcileWithdrawal(
	ctx context.Context, id, resolution, txid string,
) (*domain.Withdrawal, errors.Error) {
	r, ok := ParseResolution(resolution)
	if !ok {
		return nil, errors.INVALID_RECONCILIATION.New(
			"unknown resolution %q, must be settle or recredit", resolution,
		).WithMetadata(errors.WithdrawalMetadata{WithdrawalId: id})
	}
	return a.bridge.ReconcileWithdrawal(ctx, id, r, txid)
}

func (a *adminService) GetAccountHistory(
	ctx context.Context, accountId string,
) ([]domain.Event, errors.Error) {
	if _, err := a.repoManager.Accounts().Get(ctx, accountId); err != nil {
		return nil, accountError(err, accountId, nil, 0, 0, domain.AccountUnregistered)
	}
	events, err := a.repoManager.Events().GetEvents(ctx, domain.AccountTopic, accountId)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	return events, nil
}
