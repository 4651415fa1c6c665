package bridgev1

import (
	"context"

	"google.golang.org/grpc"
)

const (
	BridgeServiceName   = "bridge.v1.BridgeService"
	ProviderServiceName = "bridge.v1.ProviderService"
	AdminServiceName    = "bridge.v1.AdminService"
)

// FullMethod returns the gRPC method path of the given service method.
func FullMethod(service, method string) string {
	return "/" + service + "/" + method
}

type BridgeServiceServer interface {
	RegisterAccount(context.Context, *RegisterAccountRequest) (*RegisterAccountResponse, error)
	GetAccount(context.Context, *GetAccountRequest) (*GetAccountResponse, error)
	RequestValidation(
		context.Context, *RequestValidationRequest,
	) (*RequestValidationResponse, error)
	RequestDeposit(context.Context, *RequestDepositRequest) (*RequestDepositResponse, error)
	RequestWithdrawal(
		context.Context, *RequestWithdrawalRequest,
	) (*RequestWithdrawalResponse, error)
	GetWithdrawal(context.Context, *GetWithdrawalRequest) (*GetWithdrawalResponse, error)
	GetEventStream(*GetEventStreamRequest, BridgeService_GetEventStreamServer) error
	GetInfo(context.Context, *GetInfoRequest) (*GetInfoResponse, error)
}

type BridgeService_GetEventStreamServer = grpc.ServerStreamingServer[GetEventStreamResponse]

type ProviderServiceServer interface {
	SubmitVerdict(context.Context, *SubmitVerdictRequest) (*SubmitVerdictResponse, error)
}

type AdminServiceServer interface {
	AddProvider(context.Context, *AddProviderRequest) (*AddProviderResponse, error)
	ListProviders(context.Context, *ListProvidersRequest) (*ListProvidersResponse, error)
	ListPendingRequests(
		context.Context, *ListPendingRequestsRequest,
	) (*ListPendingRequestsResponse, error)
	ExpirePendingRequests(
		context.Context, *ExpirePendingRequestsRequest,
	) (*ExpirePendingRequestsResponse, error)
	ListWithdrawals(context.Context, *ListWithdrawalsRequest) (*ListWithdrawalsResponse, error)
	ReconcileWithdrawal(
		context.Context, *ReconcileWithdrawalRequest,
	) (*ReconcileWithdrawalResponse, error)
	GetAccountHistory(
		context.Context, *GetAccountHistoryRequest,
	) (*GetAccountHistoryResponse, error)
	BakeUserMacaroon(context.Context, *BakeUserMacaroonRequest) (*BakeUserMacaroonResponse, error)
}

var BridgeService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: BridgeServiceName,
	HandlerType: (*BridgeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(BridgeServiceName, "RegisterAccount", BridgeServiceServer.RegisterAccount),
		unary(BridgeServiceName, "GetAccount", BridgeServiceServer.GetAccount),
		unary(BridgeServiceName, "RequestValidation", BridgeServiceServer.RequestValidation),
		unary(BridgeServiceName, "RequestDeposit", BridgeServiceServer.RequestDeposit),
		unary(BridgeServiceName, "RequestWithdrawal", BridgeServiceServer.RequestWithdrawal),
		unary(BridgeServiceName, "GetWithdrawal", BridgeServiceServer.GetWithdrawal),
		unary(BridgeServiceName, "GetInfo", BridgeServiceServer.GetInfo),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "GetEventStream",
			Handler:       getEventStreamHandler,
			ServerStreams: true,
		},
	},
}

var ProviderService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ProviderServiceName,
	HandlerType: (*ProviderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(ProviderServiceName, "SubmitVerdict", ProviderServiceServer.SubmitVerdict),
	},
}

var AdminService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: AdminServiceName,
	HandlerType: (*AdminServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(AdminServiceName, "AddProvider", AdminServiceServer.AddProvider),
		unary(AdminServiceName, "ListProviders", AdminServiceServer.ListProviders),
		unary(AdminServiceName, "ListPendingRequests", AdminServiceServer.ListPendingRequests),
		unary(AdminServiceName, "ExpirePendingRequests", AdminServiceServer.ExpirePendingRequests),
		unary(AdminServiceName, "ListWithdrawals", AdminServiceServer.ListWithdrawals),
		unary(AdminServiceName, "ReconcileWithdrawal", AdminServiceServer.ReconcileWithdrawal),
		unary(AdminServiceName, "GetAccountHistory", AdminServiceServer.GetAccountHistory),
		unary(AdminServiceName, "BakeUserMacaroon", AdminServiceServer.BakeUserMacaroon),
	},
}

func RegisterBridgeServiceServer(s grpc.ServiceRegistrar, srv BridgeServiceServer) {
	s.RegisterService(&BridgeService_ServiceDesc, srv)
}

func RegisterProviderServiceServer(s grpc.ServiceRegistrar, srv ProviderServiceServer) {
	s.RegisterService(&ProviderService_ServiceDesc, srv)
}

func RegisterAdminServiceServer(s grpc.ServiceRegistrar, srv AdminServiceServer) {
	s.RegisterService(&AdminService_ServiceDesc, srv)
}

func unary[S any, Req any, Resp any](
	service, method string, call func(S, context.Context, *Req) (*Resp, error),
) grpc.MethodDesc {
	fullMethod := FullMethod(service, method)
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(
			srv any, ctx context.Context, dec func(any) error,
			interceptor grpc.UnaryServerInterceptor,
		) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(S), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func getEventStreamHandler(srv any, stream grpc.ServerStream) error {
	in := new(GetEventStreamRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(BridgeServiceServer).GetEventStream(
		in, &grpc.GenericServerStream[GetEventStreamRequest, GetEventStreamResponse]{
			ServerStream: stream,
		},
	)
}
