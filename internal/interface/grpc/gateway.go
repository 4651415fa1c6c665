package grpcservice

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	bridgev1 "github.com/hill399/linkedBtc/api-spec/bridge/v1"
	"github.com/hill399/linkedBtc/pkg/macaroons"
	log "github.com/sirupsen/logrus"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpchealth "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const macaroonHeader = "X-Macaroon"

type gatewayError struct {
	Code     int32             `json:"code"`
	Name     string            `json:"name,omitempty"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// gateway is the REST reverse proxy of the bridge gRPC services.
type gateway struct {
	bridge   *bridgev1.BridgeServiceClient
	provider *bridgev1.ProviderServiceClient
	admin    *bridgev1.AdminServiceClient
	health   grpchealth.HealthClient
}

func newGateway(conn grpc.ClientConnInterface) *gateway {
	return &gateway{
		bridge:   bridgev1.NewBridgeServiceClient(conn),
		provider: bridgev1.NewProviderServiceClient(conn),
		admin:    bridgev1.NewAdminServiceClient(conn),
		health:   grpchealth.NewHealthClient(conn),
	}
}

func (g *gateway) handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", g.healthz).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/info", unaryGet(g.bridge.GetInfo, func(_ *http.Request) *bridgev1.GetInfoRequest {
		return &bridgev1.GetInfoRequest{}
	})).Methods(http.MethodGet)
	v1.HandleFunc("/account", unaryPost(g.bridge.RegisterAccount)).Methods(http.MethodPost)
	v1.HandleFunc("/account/{caller}", unaryGet(
		g.bridge.GetAccount, func(r *http.Request) *bridgev1.GetAccountRequest {
			return &bridgev1.GetAccountRequest{Caller: mux.Vars(r)["caller"]}
		},
	)).Methods(http.MethodGet)
	v1.HandleFunc("/validation", unaryPost(g.bridge.RequestValidation)).Methods(http.MethodPost)
	v1.HandleFunc("/deposit", unaryPost(g.bridge.RequestDeposit)).Methods(http.MethodPost)
	v1.HandleFunc("/withdrawal", unaryPost(g.bridge.RequestWithdrawal)).Methods(http.MethodPost)
	v1.HandleFunc("/withdrawal/{caller}/{id}", unaryGet(
		g.bridge.GetWithdrawal, func(r *http.Request) *bridgev1.GetWithdrawalRequest {
			vars := mux.Vars(r)
			return &bridgev1.GetWithdrawalRequest{Caller: vars["caller"], Id: vars["id"]}
		},
	)).Methods(http.MethodGet)
	v1.HandleFunc("/events", g.eventStream).Methods(http.MethodGet)

	v1.HandleFunc("/provider/verdict", unaryPost(g.provider.SubmitVerdict)).
		Methods(http.MethodPost)

	admin := v1.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/provider", unaryPost(g.admin.AddProvider)).Methods(http.MethodPost)
	admin.HandleFunc("/providers", unaryGet(
		g.admin.ListProviders, func(_ *http.Request) *bridgev1.ListProvidersRequest {
			return &bridgev1.ListProvidersRequest{}
		},
	)).Methods(http.MethodGet)
	admin.HandleFunc("/requests", unaryGet(
		g.admin.ListPendingRequests, func(_ *http.Request) *bridgev1.ListPendingRequestsRequest {
			return &bridgev1.ListPendingRequestsRequest{}
		},
	)).Methods(http.MethodGet)
	admin.HandleFunc("/requests/expire", unaryPost(g.admin.ExpirePendingRequests)).
		Methods(http.MethodPost)
	admin.HandleFunc("/withdrawals", unaryGet(
		g.admin.ListWithdrawals, func(r *http.Request) *bridgev1.ListWithdrawalsRequest {
			return &bridgev1.ListWithdrawalsRequest{Status: r.URL.Query().Get("status")}
		},
	)).Methods(http.MethodGet)
	admin.HandleFunc("/withdrawal/reconcile", unaryPost(g.admin.ReconcileWithdrawal)).
		Methods(http.MethodPost)
	admin.HandleFunc("/macaroon", unaryPost(g.admin.BakeUserMacaroon)).Methods(http.MethodPost)
	admin.HandleFunc("/account/{id}/history", unaryGet(
		g.admin.GetAccountHistory, func(r *http.Request) *bridgev1.GetAccountHistoryRequest {
			return &bridgev1.GetAccountHistoryRequest{AccountId: mux.Vars(r)["id"]}
		},
	)).Methods(http.MethodGet)

	return r
}

func (g *gateway) healthz(w http.ResponseWriter, r *http.Request) {
	resp, err := g.health.Check(r.Context(), &grpchealth.HealthCheckRequest{})
	if err != nil {
		writeError(w, err)
		return
	}
	if resp.GetStatus() != grpchealth.HealthCheckResponse_SERVING {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": resp.GetStatus().String()})
}

// eventStream relays the gRPC event stream as newline delimited json.
func (g *gateway) eventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, status.Error(codes.Unimplemented, "streaming not supported"))
		return
	}

	stream, err := g.bridge.GetEventStream(
		outgoingContext(r), &bridgev1.GetEventStreamRequest{Caller: r.URL.Query().Get("caller")},
	)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	enc := json.NewEncoder(w)
	for {
		ev, err := stream.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) && status.Code(err) != codes.Canceled {
				log.WithError(err).Debug("event stream closed")
			}
			return
		}
		if err := enc.Encode(ev); err != nil {
			return
		}
		flusher.Flush()
	}
}

type unaryCall[Req any, Resp any] func(
	ctx context.Context, in *Req, opts ...grpc.CallOption,
) (*Resp, error)

func unaryPost[Req any, Resp any](call unaryCall[Req, Resp]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := new(Req)
		if err := json.NewDecoder(r.Body).Decode(req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, status.Errorf(codes.InvalidArgument, "invalid request body: %s", err))
			return
		}
		forward(w, r, call, req)
	}
}

func unaryGet[Req any, Resp any](
	call unaryCall[Req, Resp], parse func(*http.Request) *Req,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		forward(w, r, call, parse(r))
	}
}

func forward[Req any, Resp any](
	w http.ResponseWriter, r *http.Request, call unaryCall[Req, Resp], req *Req,
) {
	resp, err := call(outgoingContext(r), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func outgoingContext(r *http.Request) context.Context {
	ctx := r.Context()
	if mac := strings.TrimSpace(r.Header.Get(macaroonHeader)); mac != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, macaroons.MetadataKey, mac)
	}
	return ctx
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("failed to write gateway response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	st := status.Convert(err)
	body := gatewayError{
		Code:    int32(st.Code()),
		Message: st.Message(),
	}
	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok {
			body.Name = info.Reason
			body.Metadata = info.Metadata
		}
	}
	writeJSON(w, httpStatusFromCode(st.Code()), body)
}

func httpStatusFromCode(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.Canceled:
		return 499
	case codes.InvalidArgument, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.Aborted:
		return http.StatusConflict
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.FailedPrecondition:
		return http.StatusBadRequest
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
