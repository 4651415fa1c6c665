package interceptors

import (
	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/hill399/linkedBtc/pkg/macaroons"
	"google.golang.org/grpc"
)

// UnaryInterceptor returns the chain of unary interceptors of the bridge
// server. A nil macaroon service disables the auth check.
func UnaryInterceptor(
	svc *macaroons.Service, readiness *ReadinessService,
) grpc.ServerOption {
	return grpc.UnaryInterceptor(
		grpc_middleware.ChainUnaryServer(
			unaryPanicRecoveryInterceptor(),
			unaryLogger,
			unaryErrorConverter,
			grpc_prometheus.UnaryServerInterceptor,
			unaryMacaroonAuthHandler(svc),
			unaryReadinessHandler(readiness),
		),
	)
}

// StreamInterceptor returns the chain of stream interceptors of the bridge
// server.
func StreamInterceptor(
	svc *macaroons.Service, readiness *ReadinessService,
) grpc.ServerOption {
	return grpc.StreamInterceptor(
		grpc_middleware.ChainStreamServer(
			streamPanicRecoveryInterceptor(),
			streamLogger,
			streamErrorConverter,
			grpc_prometheus.StreamServerInterceptor,
			streamMacaroonAuthHandler(svc),
			streamReadinessHandler(readiness),
		),
	)
}
