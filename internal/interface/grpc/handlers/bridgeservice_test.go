package handlers

import (
	"context"
	"testing"

	bridgev1 "github.com/hill399/linkedBtc/api-spec/bridge/v1"
	"github.com/hill399/linkedBtc/internal/core/application"
	"github.com/hill399/linkedBtc/internal/core/domain"
	"github.com/hill399/linkedBtc/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestBridgeHandler(t *testing.T) {
	t.Run("register account", func(t *testing.T) {
		svc := newMockService()
		svc.On("RegisterAccount", mock.Anything, "alice", "bcrt1qaddr").Return(&domain.Account{
			Id:              "alice",
			ExternalAddress: "bcrt1qaddr",
			ChallengeAmount: 1234,
			State:           domain.AccountPendingValidation,
		}, nil)
		h := NewBridgeServiceHandler("test", svc, 0)

		resp, err := h.RegisterAccount(t.Context(), &bridgev1.RegisterAccountRequest{
			Caller: " alice ", ExternalAddress: "bcrt1qaddr",
		})
		require.NoError(t, err)
		require.Equal(t, "alice", resp.Account.Id)
		require.Equal(t, "PendingValidation", resp.Account.State)
		require.Equal(t, uint64(1234), resp.Account.ChallengeAmount)
		svc.AssertExpectations(t)
	})

	t.Run("missing caller", func(t *testing.T) {
		svc := newMockService()
		h := NewBridgeServiceHandler("test", svc, 0)

		_, err := h.RegisterAccount(t.Context(), &bridgev1.RegisterAccountRequest{
			ExternalAddress: "bcrt1qaddr",
		})
		require.Equal(t, codes.InvalidArgument, status.Code(err))

		_, err = h.RequestValidation(t.Context(), &bridgev1.RequestValidationRequest{})
		require.Equal(t, codes.InvalidArgument, status.Code(err))
		svc.AssertNotCalled(t, "RegisterAccount", mock.Anything, mock.Anything, mock.Anything)
		svc.AssertNotCalled(t, "RequestValidation", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("service errors keep their grpc code", func(t *testing.T) {
		svc := newMockService()
		svc.On("GetAccount", mock.Anything, "bob").Return(
			nil, errors.ACCOUNT_NOT_FOUND.New("account %s not found", "bob").
				WithMetadata(errors.AccountMetadata{AccountId: "bob"}),
		)
		h := NewBridgeServiceHandler("test", svc, 0)

		_, err := h.GetAccount(t.Context(), &bridgev1.GetAccountRequest{Caller: "bob"})
		require.Error(t, err)
		require.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("withdrawal", func(t *testing.T) {
		svc := newMockService()
		svc.On("RequestWithdrawal", mock.Anything, "carol", "bcrt1qdest", uint64(5000)).Return(
			&domain.Withdrawal{
				Id:          "w-1",
				Owner:       "carol",
				Destination: "bcrt1qdest",
				Amount:      5000,
				RequestIds:  []string{"r-1", "r-2"},
				Status:      domain.WithdrawalPending,
			}, nil,
		)
		h := NewBridgeServiceHandler("test", svc, 0)

		_, err := h.RequestWithdrawal(t.Context(), &bridgev1.RequestWithdrawalRequest{
			Caller: "carol", Destination: "bcrt1qdest",
		})
		require.Equal(t, codes.InvalidArgument, status.Code(err))

		resp, err := h.RequestWithdrawal(t.Context(), &bridgev1.RequestWithdrawalRequest{
			Caller: "carol", Destination: "bcrt1qdest", Amount: 5000,
		})
		require.NoError(t, err)
		require.Equal(t, "w-1", resp.Withdrawal.Id)
		require.Equal(t, "Pending", resp.Withdrawal.Status)
		require.Equal(t, []string{"r-1", "r-2"}, resp.Withdrawal.RequestIds)
		svc.AssertNumberOfCalls(t, "RequestWithdrawal", 1)
	})

	t.Run("info", func(t *testing.T) {
		svc := newMockService()
		svc.On("GetInfo", mock.Anything).Return(&application.ServiceInfo{
			Network:     "regtest",
			MinWithdraw: 1000,
			Providers:   3,
			TimeUnit:    "second",
		}, nil)
		h := NewBridgeServiceHandler("v0.1.0", svc, 0)

		info, err := h.GetInfo(t.Context(), &bridgev1.GetInfoRequest{})
		require.NoError(t, err)
		require.Equal(t, "v0.1.0", info.Version)
		require.Equal(t, "regtest", info.Network)
		require.Equal(t, int32(3), info.Providers)
	})
}

func TestProviderHandler(t *testing.T) {
	svc := newMockService()
	svc.On("SubmitVerdict", mock.Anything, application.VerdictCallback{
		CorrelationId: "req-1",
		ProviderId:    "oracle-1",
		Signature:     "sig",
		Verdict:       domain.SettlementVerdict{Success: true, Txid: "txid"},
	}).Return(nil)
	h := NewProviderHandler(svc)

	_, err := h.SubmitVerdict(t.Context(), &bridgev1.SubmitVerdictRequest{
		CorrelationId: "req-1", ProviderId: "oracle-1", Kind: "refund",
	})
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.SubmitVerdict(t.Context(), &bridgev1.SubmitVerdictRequest{
		CorrelationId: "req-1",
		ProviderId:    "oracle-1",
		Signature:     "sig",
		Kind:          bridgev1.VerdictKindSettlement,
		Success:       true,
		Txid:          "txid",
	})
	require.NoError(t, err)
	svc.AssertExpectations(t)
}

type mockService struct {
	mock.Mock
	events chan domain.Event
}

func newMockService() *mockService {
	return &mockService{events: make(chan domain.Event)}
}

func (m *mockService) Start() errors.Error { return nil }

func (m *mockService) Stop() {}

func (m *mockService) RegisterAccount(
	ctx context.Context, caller, externalAddress string,
) (*domain.Account, errors.Error) {
	args := m.Called(ctx, caller, externalAddress)
	return accountOrNil(args.Get(0)), errOrNil(args.Get(1))
}

func (m *mockService) GetAccount(ctx context.Context, caller string) (*domain.Account, errors.Error) {
	args := m.Called(ctx, caller)
	return accountOrNil(args.Get(0)), errOrNil(args.Get(1))
}

func (m *mockService) RequestValidation(
	ctx context.Context, caller, externalTxid string,
) (string, errors.Error) {
	args := m.Called(ctx, caller, externalTxid)
	return args.String(0), errOrNil(args.Get(1))
}

func (m *mockService) RequestDeposit(
	ctx context.Context, caller, externalTxid string, amount uint64,
) (string, errors.Error) {
	args := m.Called(ctx, caller, externalTxid, amount)
	return args.String(0), errOrNil(args.Get(1))
}

func (m *mockService) RequestWithdrawal(
	ctx context.Context, caller, destination string, amount uint64,
) (*domain.Withdrawal, errors.Error) {
	args := m.Called(ctx, caller, destination, amount)
	return withdrawalOrNil(args.Get(0)), errOrNil(args.Get(1))
}

func (m *mockService) GetWithdrawal(
	ctx context.Context, caller, id string,
) (*domain.Withdrawal, errors.Error) {
	args := m.Called(ctx, caller, id)
	return withdrawalOrNil(args.Get(0)), errOrNil(args.Get(1))
}

func (m *mockService) SubmitVerdict(
	ctx context.Context, callback application.VerdictCallback,
) errors.Error {
	args := m.Called(ctx, callback)
	return errOrNil(args.Get(0))
}

func (m *mockService) GetEventsChannel(context.Context) <-chan domain.Event {
	return m.events
}

func (m *mockService) GetInfo(ctx context.Context) (*application.ServiceInfo, errors.Error) {
	args := m.Called(ctx)
	var info *application.ServiceInfo
	if v := args.Get(0); v != nil {
		info = v.(*application.ServiceInfo)
	}
	return info, errOrNil(args.Get(1))
}

func (m *mockService) ExpireRequests(ctx context.Context, ids []string) ([]string, errors.Error) {
	args := m.Called(ctx, ids)
	var expired []string
	if v := args.Get(0); v != nil {
		expired = v.([]string)
	}
	return expired, errOrNil(args.Get(1))
}

func (m *mockService) ReconcileWithdrawal(
	ctx context.Context, id string, resolution application.Resolution, txid string,
) (*domain.Withdrawal, errors.Error) {
	args := m.Called(ctx, id, resolution, txid)
	return withdrawalOrNil(args.Get(0)), errOrNil(args.Get(1))
}

func accountOrNil(v any) *domain.Account {
	if v == nil {
		return nil
	}
	return v.(*domain.Account)
}

func withdrawalOrNil(v any) *domain.Withdrawal {
	if v == nil {
		return nil
	}
	return v.(*domain.Withdrawal)
}

func errOrNil(v any) errors.Error {
	if v == nil {
		return nil
	}
	return v.(errors.Error)
}
