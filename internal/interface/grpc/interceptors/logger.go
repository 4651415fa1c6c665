package interceptors

import (
	"context"
	"errors"

	bridgeerrors "github.com/hill399/linkedBtc/pkg/errors"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
)

func unaryLogger(
	ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler,
) (any, error) {
	log.Debugf("gRPC method: %s", info.FullMethod)
	resp, err := handler(ctx, req)
	if err != nil {
		var structuredErr bridgeerrors.Error
		if errors.As(err, &structuredErr) {
			// only internal errors are unexpected, the others are part of the api
			if structuredErr.Code() == bridgeerrors.INTERNAL_ERROR.Code {
				structuredErr.Log().WithContext(ctx).
					WithField("method", info.FullMethod).
					Error(structuredErr.Error())
			} else {
				log.WithField("method", info.FullMethod).
					WithField("name", structuredErr.CodeName()).
					Debug(structuredErr.Error())
			}
		}
	}
	return resp, err
}

func streamLogger(
	srv any, stream grpc.ServerStream,
	info *grpc.StreamServerInfo, handler grpc.StreamHandler,
) error {
	log.Debugf("gRPC method: %s", info.FullMethod)
	return handler(srv, stream)
}
