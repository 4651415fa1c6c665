package handlers

import (
	"context"
	"encoding/hex"

	bridgev1 "github.com/hill399/linkedBtc/api-spec/bridge/v1"
	"github.com/hill399/linkedBtc/internal/core/application"
	"github.com/hill399/linkedBtc/internal/interface/grpc/permissions"
	"github.com/hill399/linkedBtc/pkg/macaroons"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type adminHandler struct {
	adminService application.AdminService
	macaroonSvc  *macaroons.Service
}

// NewAdminHandler returns the admin api handler, macaroonSvc is nil when
// macaroon auth is disabled.
func NewAdminHandler(
	adminService application.AdminService, macaroonSvc *macaroons.Service,
) bridgev1.AdminServiceServer {
	return &adminHandler{adminService, macaroonSvc}
}

func (a *adminHandler) AddProvider(
	ctx context.Context, req *bridgev1.AddProviderRequest,
) (*bridgev1.AddProviderResponse, error) {
	if len(req.Id) <= 0 {
		return nil, status.Error(codes.InvalidArgument, "missing provider id")
	}
	if len(req.JobId) <= 0 {
		return nil, status.Error(codes.InvalidArgument, "missing job id")
	}

	p, err := a.adminService.AddProvider(ctx, req.Id, req.JobId, req.Url, req.Pubkey)
	if err != nil {
		return nil, err
	}
	return &bridgev1.AddProviderResponse{Provider: provider(*p).toProto()}, nil
}

func (a *adminHandler) ListProviders(
	ctx context.Context, _ *bridgev1.ListProvidersRequest,
) (*bridgev1.ListProvidersResponse, error) {
	providers, err := a.adminService.ListProviders(ctx)
	if err != nil {
		return nil, err
	}
	return &bridgev1.ListProvidersResponse{Providers: providerList(providers).toProto()}, nil
}

func (a *adminHandler) ListPendingRequests(
	ctx context.Context, _ *bridgev1.ListPendingRequestsRequest,
) (*bridgev1.ListPendingRequestsResponse, error) {
	requests, err := a.adminService.ListPendingRequests(ctx)
	if err != nil {
		return nil, err
	}
	return &bridgev1.ListPendingRequestsResponse{
		Requests: pendingRequests(requests).toProto(),
	}, nil
}

func (a *adminHandler) ExpirePendingRequests(
	ctx context.Context, req *bridgev1.ExpirePendingRequestsRequest,
) (*bridgev1.ExpirePendingRequestsResponse, error) {
	ids, err := parseIds(req.Ids)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	expired, svcErr := a.adminService.ExpirePendingRequests(ctx, ids)
	if svcErr != nil {
		return nil, svcErr
	}
	return &bridgev1.ExpirePendingRequestsResponse{Expired: expired}, nil
}

func (a *adminHandler) ListWithdrawals(
	ctx context.Context, req *bridgev1.ListWithdrawalsRequest,
) (*bridgev1.ListWithdrawalsResponse, error) {
	withdrawals, err := a.adminService.ListWithdrawals(ctx, req.Status)
	if err != nil {
		return nil, err
	}
	return &bridgev1.ListWithdrawalsResponse{
		Withdrawals: withdrawalList(withdrawals).toProto(),
	}, nil
}

func (a *adminHandler) ReconcileWithdrawal(
	ctx context.Context, req *bridgev1.ReconcileWithdrawalRequest,
) (*bridgev1.ReconcileWithdrawalResponse, error) {
	if len(req.Id) <= 0 {
		return nil, status.Error(codes.InvalidArgument, "missing withdrawal id")
	}
	if len(req.Resolution) <= 0 {
		return nil, status.Error(codes.InvalidArgument, "missing resolution")
	}

	w, err := a.adminService.ReconcileWithdrawal(ctx, req.Id, req.Resolution, req.Txid)
	if err != nil {
		return nil, err
	}
	return &bridgev1.ReconcileWithdrawalResponse{Withdrawal: withdrawal(*w).toProto()}, nil
}

func (a *adminHandler) GetAccountHistory(
	ctx context.Context, req *bridgev1.GetAccountHistoryRequest,
) (*bridgev1.GetAccountHistoryResponse, error) {
	accountId, err := parseCaller(req.AccountId)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "missing account id")
	}

	history, svcErr := a.adminService.GetAccountHistory(ctx, accountId)
	if svcErr != nil {
		return nil, svcErr
	}
	events, err := eventList(history).toProto()
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &bridgev1.GetAccountHistoryResponse{Events: events}, nil
}

func (a *adminHandler) BakeUserMacaroon(
	ctx context.Context, req *bridgev1.BakeUserMacaroonRequest,
) (*bridgev1.BakeUserMacaroonResponse, error) {
	accountId, err := parseCaller(req.AccountId)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "missing account id")
	}
	if a.macaroonSvc == nil {
		return nil, status.Error(codes.FailedPrecondition, "macaroon auth is disabled")
	}

	mac, err := a.macaroonSvc.BakeCallerMacaroon(ctx, permissions.UserPermissions(), accountId)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &bridgev1.BakeUserMacaroonResponse{Macaroon: hex.EncodeToString(mac)}, nil
}
