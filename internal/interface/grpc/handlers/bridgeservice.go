package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	bridgev1 "github.com/hill399/linkedBtc/api-spec/bridge/v1"
	"github.com/hill399/linkedBtc/internal/core/application"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const defaultHeartbeat = 10 * time.Second

type handler struct {
	version   string
	heartbeat time.Duration

	svc application.Service

	eventsListenerHandler *broker[*bridgev1.GetEventStreamResponse]
}

func NewBridgeServiceHandler(
	version string, service application.Service, heartbeat int64,
) bridgev1.BridgeServiceServer {
	hb := time.Duration(heartbeat) * time.Second
	if hb <= 0 {
		hb = defaultHeartbeat
	}
	h := &handler{
		version:               version,
		heartbeat:             hb,
		svc:                   service,
		eventsListenerHandler: newBroker[*bridgev1.GetEventStreamResponse](),
	}

	go h.listenToEvents()

	return h
}

func (h *handler) GetInfo(
	ctx context.Context, _ *bridgev1.GetInfoRequest,
) (*bridgev1.GetInfoResponse, error) {
	info, err := h.svc.GetInfo(ctx)
	if err != nil {
		return nil, err
	}

	return &bridgev1.GetInfoResponse{
		Version:          h.version,
		Network:          info.Network,
		MinWithdraw:      info.MinWithdraw,
		ChallengeFloor:   info.ChallengeFloor,
		RequestTtl:       info.RequestTTL,
		TimeUnit:         info.TimeUnit,
		Providers:        int32(info.Providers),
		PendingRequests:  info.PendingRequests,
		CustodyEnabled:   info.CustodyEnabled,
		CustodyTreasury:  info.CustodyTreasury,
		BridgeIdentifier: info.BridgeIdentifier,
	}, nil
}

func (h *handler) RegisterAccount(
	ctx context.Context, req *bridgev1.RegisterAccountRequest,
) (*bridgev1.RegisterAccountResponse, error) {
	caller, err := parseCaller(req.Caller)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	acc, svcErr := h.svc.RegisterAccount(ctx, caller, req.ExternalAddress)
	if svcErr != nil {
		return nil, svcErr
	}
	return &bridgev1.RegisterAccountResponse{Account: account(*acc).toProto()}, nil
}

func (h *handler) GetAccount(
	ctx context.Context, req *bridgev1.GetAccountRequest,
) (*bridgev1.GetAccountResponse, error) {
	caller, err := parseCaller(req.Caller)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	acc, svcErr := h.svc.GetAccount(ctx, caller)
	if svcErr != nil {
		return nil, svcErr
	}
	return &bridgev1.GetAccountResponse{Account: account(*acc).toProto()}, nil
}

func (h *handler) RequestValidation(
	ctx context.Context, req *bridgev1.RequestValidationRequest,
) (*bridgev1.RequestValidationResponse, error) {
	caller, err := parseCaller(req.Caller)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	id, svcErr := h.svc.RequestValidation(ctx, caller, req.ExternalTxid)
	if svcErr != nil {
		return nil, svcErr
	}
	return &bridgev1.RequestValidationResponse{CorrelationId: id}, nil
}

func (h *handler) RequestDeposit(
	ctx context.Context, req *bridgev1.RequestDepositRequest,
) (*bridgev1.RequestDepositResponse, error) {
	caller, err := parseCaller(req.Caller)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	id, svcErr := h.svc.RequestDeposit(ctx, caller, req.ExternalTxid, req.Amount)
	if svcErr != nil {
		return nil, svcErr
	}
	return &bridgev1.RequestDepositResponse{CorrelationId: id}, nil
}

func (h *handler) RequestWithdrawal(
	ctx context.Context, req *bridgev1.RequestWithdrawalRequest,
) (*bridgev1.RequestWithdrawalResponse, error) {
	caller, err := parseCaller(req.Caller)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	w, svcErr := h.svc.RequestWithdrawal(ctx, caller, req.Destination, amount)
	if svcErr != nil {
		return nil, svcErr
	}
	return &bridgev1.RequestWithdrawalResponse{Withdrawal: withdrawal(*w).toProto()}, nil
}

func (h *handler) GetWithdrawal(
	ctx context.Context, req *bridgev1.GetWithdrawalRequest,
) (*bridgev1.GetWithdrawalResponse, error) {
	caller, err := parseCaller(req.Caller)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if len(req.Id) <= 0 {
		return nil, status.Error(codes.InvalidArgument, "missing withdrawal id")
	}

	w, svcErr := h.svc.GetWithdrawal(ctx, caller, req.Id)
	if svcErr != nil {
		return nil, svcErr
	}
	return &bridgev1.GetWithdrawalResponse{Withdrawal: withdrawal(*w).toProto()}, nil
}

func (h *handler) GetEventStream(
	req *bridgev1.GetEventStreamRequest, stream bridgev1.BridgeService_GetEventStreamServer,
) error {
	var topics []string
	if req.Caller != "" {
		topics = []string{req.Caller}
	}
	listener := newListener[*bridgev1.GetEventStreamResponse](uuid.NewString(), topics)

	h.eventsListenerHandler.pushListener(listener)
	defer h.eventsListenerHandler.removeListener(listener.id)

	// create a Timer that will fire after one heartbeat interval
	timer := time.NewTimer(h.heartbeat)
	defer timer.Stop()

	resetTimer := func() {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(h.heartbeat)
	}

	for {
		select {
		case <-stream.Context().Done():
			return nil
		case ev := <-listener.ch:
			if err := stream.Send(ev); err != nil {
				return err
			}
			resetTimer()
		case <-timer.C:
			if err := stream.Send(&bridgev1.GetEventStreamResponse{Heartbeat: true}); err != nil {
				return err
			}
			resetTimer()
		}
	}
}

func (h *handler) listenToEvents() {
	channel := h.svc.GetEventsChannel(context.Background())
	for event := range channel {
		ev, err := toEvent(event)
		if err != nil {
			log.WithError(err).Warn("failed to forward event")
			continue
		}
		if !h.eventsListenerHandler.hasListeners() {
			continue
		}

		count := h.eventsListenerHandler.publish(
			&bridgev1.GetEventStreamResponse{Event: ev}, event.GetId(),
		)
		log.Debugf("forwarded event %s to %d listeners", ev.Type, count)
	}
}
