package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hill399/linkedBtc/internal/config"
	grpcservice "github.com/hill399/linkedBtc/internal/interface/grpc"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// Version will be set during build time
var Version string

const (
	macaroonDir  = "macaroons"
	macaroonFile = "admin.macaroon"
	tlsDir       = "tls"
	tlsCertFile  = "cert.pem"

	timeout = 15 * time.Second
)

func mainAction(ctx *cli.Context) error {
	cfg, err := config.LoadConfig(ctx)
	if err != nil {
		return fmt.Errorf("invalid config: %s", err)
	}

	log.SetLevel(log.Level(cfg.LogLevel))

	svcConfig := grpcservice.Config{
		Datadir:           cfg.Datadir,
		Port:              cfg.Port,
		NoTLS:             cfg.NoTLS,
		NoMacaroons:       cfg.NoMacaroons,
		TLSExtraIPs:       cfg.TLSExtraIPs,
		TLSExtraDomains:   cfg.TLSExtraDomains,
		HeartbeatInterval: cfg.HeartbeatInterval,
		EnableMetrics:     cfg.EnableMetrics,
	}

	svc, err := grpcservice.NewService(Version, svcConfig, cfg)
	if err != nil {
		return err
	}

	log.Infof("linkedbtcd config: %s", cfg)

	log.RegisterExitHandler(svc.Stop)

	log.Info("starting service...")
	if err := svc.Start(); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sigChan

	log.Info("shutting down service...")
	log.Exit(0)

	return nil
}

func main() {
	app := cli.NewApp()
	app.Version = Version
	app.Name = "linkedbtcd"
	app.Usage = "run or manage the linked BTC bridge"
	app.UsageText = "Run the bridge daemon with:\n\tlinkedbtcd\nManage it with:\n\tlinkedbtcd [global options] command [command options]"
	app.Commands = append(
		app.Commands,
		infoCmd,
		accountCmd,
		providersCmd,
		requestsCmd,
		withdrawalsCmd,
		reconcileCmd,
		historyCmd,
		macaroonCmd,
	)
	app.Action = mainAction
	app.Flags = config.Flags

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
