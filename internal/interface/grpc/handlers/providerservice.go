package handlers

import (
	"context"

	bridgev1 "github.com/hill399/linkedBtc/api-spec/bridge/v1"
	"github.com/hill399/linkedBtc/internal/core/application"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type providerHandler struct {
	svc application.Service
}

// NewProviderHandler serves the verdict callbacks of the registered
// oracles.
func NewProviderHandler(svc application.Service) bridgev1.ProviderServiceServer {
	return &providerHandler{svc}
}

func (p *providerHandler) SubmitVerdict(
	ctx context.Context, req *bridgev1.SubmitVerdictRequest,
) (*bridgev1.SubmitVerdictResponse, error) {
	callback, err := parseVerdictCallback(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err := p.svc.SubmitVerdict(ctx, *callback); err != nil {
		return nil, err
	}
	return &bridgev1.SubmitVerdictResponse{}, nil
}
