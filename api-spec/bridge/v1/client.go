package bridgev1

import (
	"context"

	"google.golang.org/grpc"
)

type BridgeService_GetEventStreamClient = grpc.ServerStreamingClient[GetEventStreamResponse]

type BridgeServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewBridgeServiceClient(cc grpc.ClientConnInterface) *BridgeServiceClient {
	return &BridgeServiceClient{cc}
}

func (c *BridgeServiceClient) RegisterAccount(
	ctx context.Context, in *RegisterAccountRequest, opts ...grpc.CallOption,
) (*RegisterAccountResponse, error) {
	out := new(RegisterAccountResponse)
	return out, invoke(ctx, c.cc, BridgeServiceName, "RegisterAccount", in, out, opts)
}

func (c *BridgeServiceClient) GetAccount(
	ctx context.Context, in *GetAccountRequest, opts ...grpc.CallOption,
) (*GetAccountResponse, error) {
	out := new(GetAccountResponse)
	return out, invoke(ctx, c.cc, BridgeServiceName, "GetAccount", in, out, opts)
}

func (c *BridgeServiceClient) RequestValidation(
	ctx context.Context, in *RequestValidationRequest, opts ...grpc.CallOption,
) (*RequestValidationResponse, error) {
	out := new(RequestValidationResponse)
	return out, invoke(ctx, c.cc, BridgeServiceName, "RequestValidation", in, out, opts)
}

func (c *BridgeServiceClient) RequestDeposit(
	ctx context.Context, in *RequestDepositRequest, opts ...grpc.CallOption,
) (*RequestDepositResponse, error) {
	out := new(RequestDepositResponse)
	return out, invoke(ctx, c.cc, BridgeServiceName, "RequestDeposit", in, out, opts)
}

func (c *BridgeServiceClient) RequestWithdrawal(
	ctx context.Context, in *RequestWithdrawalRequest, opts ...grpc.CallOption,
) (*RequestWithdrawalResponse, error) {
	out := new(RequestWithdrawalResponse)
	return out, invoke(ctx, c.cc, BridgeServiceName, "RequestWithdrawal", in, out, opts)
}

func (c *BridgeServiceClient) GetWithdrawal(
	ctx context.Context, in *GetWithdrawalRequest, opts ...grpc.CallOption,
) (*GetWithdrawalResponse, error) {
	out := new(GetWithdrawalResponse)
	return out, invoke(ctx, c.cc, BridgeServiceName, "GetWithdrawal", in, out, opts)
}

func (c *BridgeServiceClient) GetInfo(
	ctx context.Context, in *GetInfoRequest, opts ...grpc.CallOption,
) (*GetInfoResponse, error) {
	out := new(GetInfoResponse)
	return out, invoke(ctx, c.cc, BridgeServiceName, "GetInfo", in, out, opts)
}

func (c *BridgeServiceClient) GetEventStream(
	ctx context.Context, in *GetEventStreamRequest, opts ...grpc.CallOption,
) (BridgeService_GetEventStreamClient, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.cc.NewStream(
		ctx, &BridgeService_ServiceDesc.Streams[0],
		FullMethod(BridgeServiceName, "GetEventStream"), opts...,
	)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[GetEventStreamRequest, GetEventStreamResponse]{
		ClientStream: stream,
	}
	if err := x.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type ProviderServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewProviderServiceClient(cc grpc.ClientConnInterface) *ProviderServiceClient {
	return &ProviderServiceClient{cc}
}

func (c *ProviderServiceClient) SubmitVerdict(
	ctx context.Context, in *SubmitVerdictRequest, opts ...grpc.CallOption,
) (*SubmitVerdictResponse, error) {
	out := new(SubmitVerdictResponse)
	return out, invoke(ctx, c.cc, ProviderServiceName, "SubmitVerdict", in, out, opts)
}

type AdminServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAdminServiceClient(cc grpc.ClientConnInterface) *AdminServiceClient {
	return &AdminServiceClient{cc}
}

func (c *AdminServiceClient) AddProvider(
	ctx context.Context, in *AddProviderRequest, opts ...grpc.CallOption,
) (*AddProviderResponse, error) {
	out := new(AddProviderResponse)
	return out, invoke(ctx, c.cc, AdminServiceName, "AddProvider", in, out, opts)
}

func (c *AdminServiceClient) ListProviders(
	ctx context.Context, in *ListProvidersRequest, opts ...grpc.CallOption,
) (*ListProvidersResponse, error) {
	out := new(ListProvidersResponse)
	return out, invoke(ctx, c.cc, AdminServiceName, "ListProviders", in, out, opts)
}

func (c *AdminServiceClient) ListPendingRequests(
	ctx context.Context, in *ListPendingRequestsRequest, opts ...grpc.CallOption,
) (*ListPendingRequestsResponse, error) {
	out := new(ListPendingRequestsResponse)
	return out, invoke(ctx, c.cc, AdminServiceName, "ListPendingRequests", in, out, opts)
}

func (c *AdminServiceClient) ExpirePendingRequests(
	ctx context.Context, in *ExpirePendingRequestsRequest, opts ...grpc.CallOption,
) (*ExpirePendingRequestsResponse, error) {
	out := new(ExpirePendingRequestsResponse)
	return out, invoke(ctx, c.cc, AdminServiceName, "ExpirePendingRequests", in, out, opts)
}

func (c *AdminServiceClient) ListWithdrawals(
	ctx context.Context, in *ListWithdrawalsRequest, opts ...grpc.CallOption,
) (*ListWithdrawalsResponse, error) {
	out := new(ListWithdrawalsResponse)
	return out, invoke(ctx, c.cc, AdminServiceName, "ListWithdrawals", in, out, opts)
}

func (c *AdminServiceClient) ReconcileWithdrawal(
	ctx context.Context, in *ReconcileWithdrawalRequest, opts ...grpc.CallOption,
) (*ReconcileWithdrawalResponse, error) {
	out := new(ReconcileWithdrawalResponse)
	return out, invoke(ctx, c.cc, AdminServiceName, "ReconcileWithdrawal", in, out, opts)
}

func (c *AdminServiceClient) GetAccountHistory(
	ctx context.Context, in *GetAccountHistoryRequest, opts ...grpc.CallOption,
) (*GetAccountHistoryResponse, error) {
	out := new(GetAccountHistoryResponse)
	return out, invoke(ctx, c.cc, AdminServiceName, "GetAccountHistory", in, out, opts)
}

func (c *AdminServiceClient) BakeUserMacaroon(
	ctx context.Context, in *BakeUserMacaroonRequest, opts ...grpc.CallOption,
) (*BakeUserMacaroonResponse, error) {
	out := new(BakeUserMacaroonResponse)
	return out, invoke(ctx, c.cc, AdminServiceName, "BakeUserMacaroon", in, out, opts)
}

func invoke(
	ctx context.Context, cc grpc.ClientConnInterface, service, method string,
	in, out any, opts []grpc.CallOption,
) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return cc.Invoke(ctx, FullMethod(service, method), in, out, opts...)
}
