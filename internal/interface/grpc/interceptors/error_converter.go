package interceptors

import (
	"context"
	"errors"

	bridgeerrors "github.com/hill399/linkedBtc/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// toGrpcError turns a structured bridge error into a status carrying the
// code name and metadata as ErrorInfo details.
func toGrpcError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var structuredErr bridgeerrors.Error
	if errors.As(err, &structuredErr) {
		return status.Convert(structuredErr).Err()
	}
	return err
}

func unaryErrorConverter(
	ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler,
) (any, error) {
	resp, err := handler(ctx, req)
	if err != nil {
		return nil, toGrpcError(err)
	}
	return resp, nil
}

func streamErrorConverter(
	srv any, stream grpc.ServerStream,
	info *grpc.StreamServerInfo, handler grpc.StreamHandler,
) error {
	return toGrpcError(handler(srv, stream))
}
