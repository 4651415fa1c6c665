package grpcservice

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	bridgev1 "github.com/hill399/linkedBtc/api-spec/bridge/v1"
	"github.com/hill399/linkedBtc/internal/config"
	interfaces "github.com/hill399/linkedBtc/internal/interface"
	"github.com/hill399/linkedBtc/internal/interface/grpc/handlers"
	"github.com/hill399/linkedBtc/internal/interface/grpc/interceptors"
	"github.com/hill399/linkedBtc/internal/telemetry"
	"github.com/hill399/linkedBtc/pkg/macaroons"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	grpchealth "google.golang.org/grpc/health/grpc_health_v1"
)

type service struct {
	version       string
	config        Config
	appConfig     *config.Config
	server        *http.Server
	grpcServer    *grpc.Server
	gatewayConn   *grpc.ClientConn
	healthSvc     *health.Server
	readinessSvc  *interceptors.ReadinessService
	appSvcStarted atomic.Bool
	macaroonSvc   *macaroons.Service
	otelShutdown  func(context.Context) error
}

func NewService(
	version string, svcConfig Config, appConfig *config.Config,
) (interfaces.Service, error) {
	if err := svcConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid service config: %s", err)
	}
	if err := appConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid app config: %s", err)
	}

	var macaroonSvc *macaroons.Service
	if !svcConfig.NoMacaroons {
		keyStore, err := macaroons.NewRootKeyStorage(svcConfig.macaroonsDbDir())
		if err != nil {
			return nil, err
		}
		svc, err := macaroons.NewService(keyStore, macaroonsLocation)
		if err != nil {
			return nil, err
		}
		macaroonSvc = svc

		datadir := svcConfig.macaroonsDatadir()
		done, err := genMacaroons(context.Background(), macaroonSvc, datadir)
		if err != nil {
			return nil, fmt.Errorf("failed to create macaroons: %s", err)
		}
		if done {
			log.Debugf("created and stored macaroons at path %s", datadir)
		}
	}

	if !svcConfig.insecure() {
		if err := generateTLSKeyCert(
			svcConfig.tlsDatadir(), svcConfig.TLSExtraIPs, svcConfig.TLSExtraDomains,
		); err != nil {
			return nil, err
		}
		log.Debugf("generated TLS key pair at path: %s", svcConfig.tlsDatadir())
	}

	return &service{
		version:     version,
		config:      svcConfig,
		appConfig:   appConfig,
		macaroonSvc: macaroonSvc,
	}, nil
}

func (s *service) Start() error {
	if err := s.start(); err != nil {
		return err
	}
	log.Infof("started listening at %s", s.config.address())

	return s.startAppServices()
}

func (s *service) Stop() {
	s.stop()
	if s.otelShutdown != nil {
		if err := s.otelShutdown(context.Background()); err != nil {
			log.Errorf("failed to shutdown otel: %s", err)
		}
	}
	if s.macaroonSvc != nil {
		if err := s.macaroonSvc.Close(); err != nil {
			log.Errorf("failed to close macaroon db: %s", err)
		}
	}
	log.Info("shutdown service")
}

func (s *service) start() error {
	tlsConfig, err := s.config.tlsConfig()
	if err != nil {
		return err
	}

	if err := s.newServer(tlsConfig); err != nil {
		return err
	}

	go func() {
		var err error
		if s.config.insecure() {
			err = s.server.ListenAndServe()
		} else {
			err = s.server.ListenAndServeTLS("", "")
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server stopped unexpectedly")
		}
	}()

	return nil
}

func (s *service) stop() {
	if s.appSvcStarted.CompareAndSwap(true, false) {
		if s.readinessSvc != nil {
			s.readinessSvc.MarkAppServiceStopped()
		}
		if s.healthSvc != nil {
			s.healthSvc.Shutdown()
		}
		appSvc, _ := s.appConfig.AppService()
		if appSvc != nil {
			appSvc.Stop()
		}
	}

	// Hard-close HTTP listeners/conns first to avoid mixed HTTP/gRPC window.
	if s.server != nil {
		_ = s.server.Close()
	}
	if s.gatewayConn != nil {
		_ = s.gatewayConn.Close()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
}

func (s *service) startAppServices() error {
	if !s.appSvcStarted.CompareAndSwap(false, true) {
		// app already started, skip
		return nil
	}

	appSvc, err := s.appConfig.AppService()
	if err != nil {
		s.appSvcStarted.Store(false)
		return fmt.Errorf("failed to create app service: %w", err)
	}
	if err := appSvc.Start(); err != nil {
		s.appSvcStarted.Store(false)
		return fmt.Errorf("failed to start app service: %w", err)
	}
	log.Info("started app service")

	if s.readinessSvc != nil {
		s.readinessSvc.MarkAppServiceStarted()
	}

	log.Info("bridge services are now ready")
	return nil
}

func (s *service) newServer(tlsConfig *tls.Config) error {
	ctx := context.Background()
	if s.appConfig.OtelCollectorEndpoint != "" {
		pushInterval := time.Duration(s.appConfig.OtelPushInterval) * time.Second
		otelShutdown, err := telemetry.InitOtelSDK(
			ctx, s.appConfig.OtelCollectorEndpoint, pushInterval,
		)
		if err != nil {
			return err
		}
		s.otelShutdown = otelShutdown
	}

	otelHandler := otelgrpc.NewServerHandler(
		otelgrpc.WithTracerProvider(otel.GetTracerProvider()),
	)

	checks := make([]interceptors.DependencyCheck, 0)
	for _, check := range s.appConfig.HealthChecks() {
		checks = append(checks, check)
	}
	s.readinessSvc = interceptors.NewReadinessService(checks...)

	grpcConfig := []grpc.ServerOption{
		interceptors.UnaryInterceptor(s.macaroonSvc, s.readinessSvc),
		interceptors.StreamInterceptor(s.macaroonSvc, s.readinessSvc),
		grpc.StatsHandler(otelHandler),
	}
	creds := insecure.NewCredentials()
	if !s.config.insecure() {
		creds = credentials.NewTLS(tlsConfig)
	}
	grpcConfig = append(grpcConfig, grpc.Creds(creds))

	grpcServer := grpc.NewServer(grpcConfig...)

	appSvc, err := s.appConfig.AppService()
	if err != nil {
		return fmt.Errorf("failed to create app service: %w", err)
	}
	adminSvc, err := s.appConfig.AdminService()
	if err != nil {
		return fmt.Errorf("failed to create admin service: %w", err)
	}

	bridgeHandler := handlers.NewBridgeServiceHandler(
		s.version, appSvc, s.config.HeartbeatInterval,
	)
	providerHandler := handlers.NewProviderHandler(appSvc)
	adminHandler := handlers.NewAdminHandler(adminSvc, s.macaroonSvc)
	s.healthSvc = health.NewServer()

	bridgev1.RegisterBridgeServiceServer(grpcServer, bridgeHandler)
	bridgev1.RegisterProviderServiceServer(grpcServer, providerHandler)
	bridgev1.RegisterAdminServiceServer(grpcServer, adminHandler)
	grpchealth.RegisterHealthServer(grpcServer, s.healthSvc)

	if s.config.EnableMetrics {
		grpc_prometheus.EnableHandlingTimeHistogram()
		grpc_prometheus.Register(grpcServer)
	}

	// Creds for the gateway reverse proxy.
	gatewayCreds := insecure.NewCredentials()
	if !s.config.insecure() {
		gatewayCreds = credentials.NewTLS(&tls.Config{
			InsecureSkipVerify: true, // #nosec
		})
	}
	conn, err := grpc.NewClient(
		s.config.gatewayAddress(), grpc.WithTransportCredentials(gatewayCreds),
	)
	if err != nil {
		return err
	}

	grpcGateway := newGateway(conn).handler()
	handler := router(grpcServer, grpcGateway)
	mux := http.NewServeMux()

	if s.config.EnableMetrics {
		mux.Handle("/metrics", promhttp.Handler())
		log.Info("prometheus metrics enabled at /metrics")
	}
	mux.Handle("/", handler)

	httpServerHandler := http.Handler(mux)
	if s.config.insecure() {
		httpServerHandler = h2c.NewHandler(httpServerHandler, &http2.Server{})
	}

	s.grpcServer = grpcServer
	s.gatewayConn = conn
	s.server = &http.Server{
		Addr:      s.config.address(),
		Handler:   httpServerHandler,
		TLSConfig: tlsConfig,
	}

	return nil
}

func router(
	grpcServer *grpc.Server, grpcGateway http.Handler,
) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isOptionRequest(r) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Headers", "*")
			w.Header().Add("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			return
		}

		if isHttpRequest(r) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Headers", "*")
			w.Header().Add("Access-Control-Allow-Methods", "POST, GET, OPTIONS")

			grpcGateway.ServeHTTP(w, r)
			return
		}
		grpcServer.ServeHTTP(w, r)
	})
}

func isOptionRequest(req *http.Request) bool {
	return req.Method == http.MethodOptions
}

// isHttpRequest tells REST calls apart from gRPC ones, including gRPC calls
// encoded with the json codec (application/grpc+json).
func isHttpRequest(req *http.Request) bool {
	contentType := req.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/grpc") {
		return false
	}
	return req.Method == http.MethodGet ||
		strings.Contains(contentType, "application/json")
}
