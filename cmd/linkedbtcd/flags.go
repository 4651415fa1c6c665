package main

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/hill399/linkedBtc/internal/config"
	"github.com/urfave/cli/v2"
)

const (
	urlFlagName        = "url"
	datadirFlagName    = "datadir"
	macaroonFlagName   = "macaroon"
	callerFlagName     = "caller"
	idFlagName         = "id"
	idsFlagName        = "ids"
	jobIdFlagName      = "job-id"
	providerUrlName    = "provider-url"
	pubkeyFlagName     = "pubkey"
	statusFlagName     = "status"
	resolutionFlagName = "resolution"
	txidFlagName       = "txid"
	accountFlagName    = "account"
	expiredFlagName    = "expired"
)

var (
	urlFlag = &cli.StringFlag{
		Name:  urlFlagName,
		Usage: "the url where to reach the bridge",
		Value: fmt.Sprintf("http://127.0.0.1:%d", config.DefaultPort),
	}
	datadirFlag = &cli.StringFlag{
		Name:  datadirFlagName,
		Usage: "linkedbtcd datadir from where to source TLS cert and macaroon if needed",
		Value: btcutil.AppDataDir("linkedbtcd", false),
	}
	macaroonFlag = &cli.StringFlag{
		Name:  macaroonFlagName,
		Usage: "macaroon in hex format used for authenticated requests",
	}
	callerFlag = &cli.StringFlag{
		Name:     callerFlagName,
		Usage:    "the bridge account id",
		Required: true,
	}
	providerIdFlag = &cli.StringFlag{
		Name:     idFlagName,
		Usage:    "the provider id",
		Required: true,
	}
	jobIdFlag = &cli.StringFlag{
		Name:     jobIdFlagName,
		Usage:    "the provider job id requests are tagged with",
		Required: true,
	}
	providerUrlFlag = &cli.StringFlag{
		Name:     providerUrlName,
		Usage:    "the url requests are dispatched to",
		Required: true,
	}
	pubkeyFlag = &cli.StringFlag{
		Name:     pubkeyFlagName,
		Usage:    "the hex encoded x-only key the provider signs callbacks with",
		Required: true,
	}
	requestIdsFlag = &cli.StringSliceFlag{
		Name:  idsFlagName,
		Usage: "ids of the pending requests to expire",
	}
	expiredOnlyFlag = &cli.BoolFlag{
		Name:  expiredFlagName,
		Usage: "expire every request past its deadline",
	}
	withdrawalStatusFlag = &cli.StringFlag{
		Name:  statusFlagName,
		Usage: "filter withdrawals by status (pending, settled, unsettled, recredited)",
	}
	withdrawalIdFlag = &cli.StringFlag{
		Name:     idFlagName,
		Usage:    "the withdrawal id",
		Required: true,
	}
	resolutionFlag = &cli.StringFlag{
		Name:     resolutionFlagName,
		Usage:    "how to reconcile the withdrawal (settle, recredit)",
		Required: true,
	}
	txidFlag = &cli.StringFlag{
		Name:  txidFlagName,
		Usage: "the payout txid, required to settle",
	}
	accountFlag = &cli.StringFlag{
		Name:     accountFlagName,
		Usage:    "the account id",
		Required: true,
	}
)
