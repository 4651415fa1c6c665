package interceptors

import (
	"context"
	"strings"

	"github.com/hill399/linkedBtc/internal/interface/grpc/permissions"
	"github.com/hill399/linkedBtc/pkg/macaroons"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// callerRequest is implemented by the requests acting on an account.
type callerRequest interface {
	GetCaller() string
}

func withRequestCaller(ctx context.Context, req any) context.Context {
	if r, ok := req.(callerRequest); ok {
		return macaroons.WithCaller(ctx, strings.TrimSpace(r.GetCaller()))
	}
	return ctx
}

func unaryMacaroonAuthHandler(macaroonSvc *macaroons.Service) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context, req interface{},
		info *grpc.UnaryServerInfo, handler grpc.UnaryHandler,
	) (interface{}, error) {
		authCtx := withRequestCaller(ctx, req)
		if err := CheckMacaroon(authCtx, info.FullMethod, macaroonSvc); err != nil {
			return nil, err
		}

		return handler(ctx, req)
	}
}

func streamMacaroonAuthHandler(macaroonSvc *macaroons.Service) grpc.StreamServerInterceptor {
	return func(
		srv interface{}, ss grpc.ServerStream,
		info *grpc.StreamServerInfo, handler grpc.StreamHandler,
	) error {
		// The caller of a server stream is only known once its request is
		// received.
		if info.IsServerStream && !info.IsClientStream {
			return handler(srv, &authStream{
				ServerStream: ss, method: info.FullMethod, svc: macaroonSvc,
			})
		}
		if err := CheckMacaroon(ss.Context(), info.FullMethod, macaroonSvc); err != nil {
			return err
		}

		return handler(srv, ss)
	}
}

// authStream checks the macaroon against the first received request and
// refuses to send anything before that.
type authStream struct {
	grpc.ServerStream
	method  string
	svc     *macaroons.Service
	checked bool
}

func (s *authStream) RecvMsg(m any) error {
	if err := s.ServerStream.RecvMsg(m); err != nil {
		return err
	}
	if s.checked {
		return nil
	}
	ctx := withRequestCaller(s.Context(), m)
	if err := CheckMacaroon(ctx, s.method, s.svc); err != nil {
		return err
	}
	s.checked = true
	return nil
}

func (s *authStream) SendMsg(m any) error {
	if !s.checked {
		return status.Error(codes.Unauthenticated, "request not authenticated")
	}
	return s.ServerStream.SendMsg(m)
}

func CheckMacaroon(ctx context.Context, fullMethod string, svc *macaroons.Service) error {
	if svc == nil {
		return nil
	}
	// Check whether the method is whitelisted, if so we'll allow it regardless
	// of macaroons.
	if _, ok := permissions.Whitelist()[fullMethod]; ok {
		return nil
	}

	uriPermissions, ok := permissions.AllPermissionsByMethod()[fullMethod]
	if !ok {
		return status.Errorf(
			codes.PermissionDenied, "%s: unknown permissions required for method", fullMethod,
		)
	}

	// Find out if there is an external validator registered for
	// this method. Fall back to the internal one if there isn't.
	validator, ok := svc.ExternalValidators[fullMethod]
	if !ok {
		validator = svc
	}
	// Now that we know what validator to use, let it do its work.
	if err := validator.ValidateMacaroon(ctx, uriPermissions, fullMethod); err != nil {
		if strings.Contains(err.Error(), "doesn't exist") {
			return status.Error(codes.Unauthenticated, "invalid macaroon")
		}
		return status.Error(codes.Unauthenticated, err.Error())
	}
	return nil
}
