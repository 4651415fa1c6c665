package interceptors

import (
	"context"
	"strings"
	"sync/atomic"

	bridgev1 "github.com/hill399/linkedBtc/api-spec/bridge/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const notReadyMsg = "bridge service not ready"

var protectedPrefixes = []string{
	"/" + bridgev1.BridgeServiceName + "/",
	"/" + bridgev1.ProviderServiceName + "/",
	"/" + bridgev1.AdminServiceName + "/",
}

// DependencyCheck reports whether an external dependency (eg. the redis live
// store) is currently usable.
type DependencyCheck func(ctx context.Context) error

type ReadinessService struct {
	checks     []DependencyCheck
	appStarted atomic.Bool
}

func NewReadinessService(checks ...DependencyCheck) *ReadinessService {
	return &ReadinessService{checks: checks}
}

func (r *ReadinessService) MarkAppServiceStarted() {
	r.appStarted.Store(true)
}

func (r *ReadinessService) MarkAppServiceStopped() {
	r.appStarted.Store(false)
}

func (r *ReadinessService) Check(ctx context.Context, fullMethod string) error {
	if r == nil || !isProtectedServiceMethod(fullMethod) {
		return nil
	}
	if !r.appStarted.Load() {
		return status.Error(codes.Unavailable, notReadyMsg)
	}
	for _, check := range r.checks {
		if err := check(ctx); err != nil {
			return status.Errorf(codes.FailedPrecondition, "%s: %v", notReadyMsg, err)
		}
	}
	return nil
}

func isProtectedServiceMethod(fullMethod string) bool {
	for _, prefix := range protectedPrefixes {
		if strings.HasPrefix(fullMethod, prefix) {
			return true
		}
	}
	return false
}

func unaryReadinessHandler(readiness *ReadinessService) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context, req any,
		info *grpc.UnaryServerInfo, handler grpc.UnaryHandler,
	) (any, error) {
		if err := readiness.Check(ctx, info.FullMethod); err != nil {
			return nil, err
		}

		return handler(ctx, req)
	}
}

func streamReadinessHandler(readiness *ReadinessService) grpc.StreamServerInterceptor {
	return func(
		srv any, stream grpc.ServerStream,
		info *grpc.StreamServerInfo, handler grpc.StreamHandler,
	) error {
		if err := readiness.Check(stream.Context(), info.FullMethod); err != nil {
			return err
		}

		return handler(srv, stream)
	}
}
