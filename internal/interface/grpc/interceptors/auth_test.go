package interceptors

import (
	"context"
	"encoding/hex"
	"testing"

	bridgev1 "github.com/hill399/linkedBtc/api-spec/bridge/v1"
	"github.com/hill399/linkedBtc/internal/interface/grpc/permissions"
	bridgeerrors "github.com/hill399/linkedBtc/pkg/errors"
	"github.com/hill399/linkedBtc/pkg/macaroons"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestCheckMacaroon(t *testing.T) {
	rks, err := macaroons.NewRootKeyStorage("")
	require.NoError(t, err)
	svc, err := macaroons.NewService(rks, "linkedbtcd")
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	userMac, err := svc.BakeMacaroon(context.Background(), permissions.UserPermissions())
	require.NoError(t, err)
	providerMac, err := svc.BakeMacaroon(context.Background(), permissions.ProviderPermissions())
	require.NoError(t, err)

	withMac := func(mac []byte) context.Context {
		return metadata.NewIncomingContext(context.Background(), metadata.Pairs(
			macaroons.MetadataKey, hex.EncodeToString(mac),
		))
	}

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, CheckMacaroon(
			context.Background(), "/bridge.v1.BridgeService/GetInfo", svc,
		))
		require.NoError(t, CheckMacaroon(
			withMac(userMac), "/bridge.v1.BridgeService/RequestWithdrawal", svc,
		))
		require.NoError(t, CheckMacaroon(
			withMac(providerMac), "/bridge.v1.ProviderService/SubmitVerdict", svc,
		))
		// auth disabled
		require.NoError(t, CheckMacaroon(
			context.Background(), "/bridge.v1.AdminService/AddProvider", nil,
		))
	})

	t.Run("invalid", func(t *testing.T) {
		fixtures := []struct {
			ctx    context.Context
			method string
			code   codes.Code
		}{
			{withMac(userMac), "/bridge.v1.AdminService/AddProvider", codes.Unauthenticated},
			{withMac(userMac), "/bridge.v1.ProviderService/SubmitVerdict", codes.Unauthenticated},
			{withMac(providerMac), "/bridge.v1.BridgeService/GetAccount", codes.Unauthenticated},
			{context.Background(), "/bridge.v1.BridgeService/GetAccount", codes.Unauthenticated},
			{withMac(userMac), "/bridge.v1.BridgeService/Unknown", codes.PermissionDenied},
		}
		for _, f := range fixtures {
			err := CheckMacaroon(f.ctx, f.method, svc)
			st, ok := status.FromError(err)
			require.True(t, ok, f.method)
			require.Equal(t, f.code, st.Code(), f.method)
		}
	})
}

func TestCallerBoundMacaroon(t *testing.T) {
	rks, err := macaroons.NewRootKeyStorage("")
	require.NoError(t, err)
	svc, err := macaroons.NewService(rks, "linkedbtcd")
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	mac, err := svc.BakeCallerMacaroon(
		context.Background(), permissions.UserPermissions(), "alice",
	)
	require.NoError(t, err)
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(
		macaroons.MetadataKey, hex.EncodeToString(mac),
	))

	t.Run("unary", func(t *testing.T) {
		interceptor := unaryMacaroonAuthHandler(svc)
		info := &grpc.UnaryServerInfo{FullMethod: "/bridge.v1.BridgeService/RequestWithdrawal"}
		handler := func(context.Context, any) (any, error) { return "ok", nil }

		resp, err := interceptor(
			ctx, &bridgev1.RequestWithdrawalRequest{Caller: " alice "}, info, handler,
		)
		require.NoError(t, err)
		require.Equal(t, "ok", resp)

		_, err = interceptor(ctx, &bridgev1.RequestWithdrawalRequest{Caller: "bob"}, info, handler)
		require.Equal(t, codes.Unauthenticated, status.Code(err))

		info = &grpc.UnaryServerInfo{FullMethod: "/bridge.v1.BridgeService/GetAccount"}
		_, err = interceptor(ctx, &bridgev1.GetAccountRequest{}, info, handler)
		require.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("stream", func(t *testing.T) {
		interceptor := streamMacaroonAuthHandler(svc)
		info := &grpc.StreamServerInfo{
			FullMethod:     "/bridge.v1.BridgeService/GetEventStream",
			IsServerStream: true,
		}
		handler := func(_ any, ss grpc.ServerStream) error {
			if err := ss.RecvMsg(new(bridgev1.GetEventStreamRequest)); err != nil {
				return err
			}
			return ss.SendMsg(&bridgev1.GetEventStreamResponse{Heartbeat: true})
		}

		stream := &fakeStream{ctx: ctx, caller: "alice"}
		require.NoError(t, interceptor(nil, stream, info, handler))
		require.Equal(t, 1, stream.sent)

		// a bound macaroon can't listen to every account
		stream = &fakeStream{ctx: ctx}
		err := interceptor(nil, stream, info, handler)
		require.Equal(t, codes.Unauthenticated, status.Code(err))
		require.Zero(t, stream.sent)

		stream = &fakeStream{ctx: ctx, caller: "alice"}
		err = interceptor(nil, stream, info, func(_ any, ss grpc.ServerStream) error {
			return ss.SendMsg(&bridgev1.GetEventStreamResponse{Heartbeat: true})
		})
		require.Equal(t, codes.Unauthenticated, status.Code(err))
		require.Zero(t, stream.sent)
	})
}

type fakeStream struct {
	grpc.ServerStream
	ctx    context.Context
	caller string
	sent   int
}

func (s *fakeStream) Context() context.Context { return s.ctx }

func (s *fakeStream) RecvMsg(m any) error {
	m.(*bridgev1.GetEventStreamRequest).Caller = s.caller
	return nil
}

func (s *fakeStream) SendMsg(any) error {
	s.sent++
	return nil
}

func TestToGrpcError(t *testing.T) {
	require.NoError(t, toGrpcError(nil))

	err := bridgeerrors.INSUFFICIENT_BALANCE.New("not enough funds").
		WithMetadata(bridgeerrors.InsufficientBalanceMetadata{
			AccountId: "alice", Amount: 20, Balance: 10,
		})
	st, ok := status.FromError(toGrpcError(err))
	require.True(t, ok)
	require.Equal(t, codes.FailedPrecondition, st.Code())
	require.Len(t, st.Details(), 1)

	info, ok := st.Details()[0].(*errdetails.ErrorInfo)
	require.True(t, ok)
	require.Equal(t, "INSUFFICIENT_BALANCE", info.Reason)
	require.Equal(t, "4", info.Metadata["code"])
	require.Equal(t, "alice", info.Metadata["account_id"])

	plain := status.Error(codes.InvalidArgument, "missing caller")
	require.Equal(t, plain, toGrpcError(plain))
}
