package main

import (
	"encoding/json"
	"fmt"
	"net/url"

	bridgev1 "github.com/hill399/linkedBtc/api-spec/bridge/v1"
	"github.com/urfave/cli/v2"
)

var clientFlags = []cli.Flag{urlFlag, datadirFlag, macaroonFlag}

var (
	infoCmd = &cli.Command{
		Name:   "info",
		Usage:  "Get info about the bridge",
		Action: infoAction,
		Flags:  clientFlags,
	}
	accountCmd = &cli.Command{
		Name:   "account",
		Usage:  "Get the ledger account of a caller",
		Action: accountAction,
		Flags:  append([]cli.Flag{callerFlag}, clientFlags...),
	}
	providersCmd = &cli.Command{
		Name:  "providers",
		Usage: "List or register oracle providers",
		Subcommands: cli.Commands{
			{
				Name:   "list",
				Usage:  "List the registered providers",
				Action: listProvidersAction,
				Flags:  clientFlags,
			},
			{
				Name:   "add",
				Usage:  "Append a provider to the registry",
				Action: addProviderAction,
				Flags: append([]cli.Flag{
					providerIdFlag, jobIdFlag, providerUrlFlag, pubkeyFlag,
				}, clientFlags...),
			},
		},
	}
	requestsCmd = &cli.Command{
		Name:  "requests",
		Usage: "List or expire pending provider requests",
		Subcommands: cli.Commands{
			{
				Name:   "list",
				Usage:  "List the requests waiting for a provider callback",
				Action: listRequestsAction,
				Flags:  clientFlags,
			},
			{
				Name:   "expire",
				Usage:  "Expire pending requests by id, or every one past its deadline",
				Action: expireRequestsAction,
				Flags:  append([]cli.Flag{requestIdsFlag, expiredOnlyFlag}, clientFlags...),
			},
		},
	}
	withdrawalsCmd = &cli.Command{
		Name:   "withdrawals",
		Usage:  "List withdrawals, optionally filtered by status",
		Action: listWithdrawalsAction,
		Flags:  append([]cli.Flag{withdrawalStatusFlag}, clientFlags...),
	}
	reconcileCmd = &cli.Command{
		Name:   "reconcile",
		Usage:  "Settle or recredit a withdrawal no provider settled",
		Action: reconcileAction,
		Flags: append([]cli.Flag{
			withdrawalIdFlag, resolutionFlag, txidFlag,
		}, clientFlags...),
	}
	historyCmd = &cli.Command{
		Name:   "history",
		Usage:  "Get the event history of an account",
		Action: historyAction,
		Flags:  append([]cli.Flag{accountFlag}, clientFlags...),
	}
	macaroonCmd = &cli.Command{
		Name:   "macaroon",
		Usage:  "Bake a user macaroon bound to a single account",
		Action: macaroonAction,
		Flags:  append([]cli.Flag{accountFlag}, clientFlags...),
	}
)

func infoAction(ctx *cli.Context) error {
	macaroon, tlsConfig, err := getCredentials(ctx)
	if err != nil {
		return err
	}

	info, err := get[bridgev1.GetInfoResponse](
		fmt.Sprintf("%s/v1/info", baseUrl(ctx)), "", macaroon, tlsConfig,
	)
	if err != nil {
		return err
	}

	return printJSON(info)
}

func accountAction(ctx *cli.Context) error {
	macaroon, tlsConfig, err := getCredentials(ctx)
	if err != nil {
		return err
	}

	account, err := get[*bridgev1.Account](
		fmt.Sprintf("%s/v1/account/%s", baseUrl(ctx), url.PathEscape(ctx.String(callerFlagName))),
		"account", macaroon, tlsConfig,
	)
	if err != nil {
		return err
	}
	if account == nil {
		return fmt.Errorf("empty account in response")
	}

	fmt.Printf(
		"account: %s\nstate: %s\nexternal address: %s\nbalance: %s BTC\n",
		account.Id, account.State, account.ExternalAddress, formatBTC(account.ConfirmedBalance),
	)
	if account.ChallengeAmount > 0 {
		fmt.Printf("challenge: %d sats\n", account.ChallengeAmount)
	}
	return nil
}

func listProvidersAction(ctx *cli.Context) error {
	macaroon, tlsConfig, err := getCredentials(ctx)
	if err != nil {
		return err
	}

	providers, err := get[[]*bridgev1.Provider](
		fmt.Sprintf("%s/v1/admin/providers", baseUrl(ctx)), "providers", macaroon, tlsConfig,
	)
	if err != nil {
		return err
	}

	return printJSON(providers)
}

func addProviderAction(ctx *cli.Context) error {
	macaroon, tlsConfig, err := getCredentials(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(bridgev1.AddProviderRequest{
		Id:     ctx.String(idFlagName),
		JobId:  ctx.String(jobIdFlagName),
		Url:    ctx.String(providerUrlName),
		Pubkey: ctx.String(pubkeyFlagName),
	})
	if err != nil {
		return err
	}

	provider, err := post[*bridgev1.Provider](
		fmt.Sprintf("%s/v1/admin/provider", baseUrl(ctx)), string(body), "provider",
		macaroon, tlsConfig,
	)
	if err != nil {
		return err
	}

	return printJSON(provider)
}

func listRequestsAction(ctx *cli.Context) error {
	macaroon, tlsConfig, err := getCredentials(ctx)
	if err != nil {
		return err
	}

	requests, err := get[[]*bridgev1.PendingRequest](
		fmt.Sprintf("%s/v1/admin/requests", baseUrl(ctx)), "requests", macaroon, tlsConfig,
	)
	if err != nil {
		return err
	}

	return printJSON(requests)
}

func expireRequestsAction(ctx *cli.Context) error {
	macaroon, tlsConfig, err := getCredentials(ctx)
	if err != nil {
		return err
	}

	ids := ctx.StringSlice(idsFlagName)
	if ctx.Bool(expiredFlagName) {
		requests, err := get[[]*bridgev1.PendingRequest](
			fmt.Sprintf("%s/v1/admin/requests", baseUrl(ctx)), "requests", macaroon, tlsConfig,
		)
		if err != nil {
			return err
		}
		for _, r := range requests {
			if r.Expired {
				ids = append(ids, r.Id)
			}
		}
	}
	if len(ids) <= 0 {
		fmt.Println("no requests to expire")
		return nil
	}

	body, err := json.Marshal(bridgev1.ExpirePendingRequestsRequest{Ids: ids})
	if err != nil {
		return err
	}

	expired, err := post[[]string](
		fmt.Sprintf("%s/v1/admin/requests/expire", baseUrl(ctx)), string(body), "expired",
		macaroon, tlsConfig,
	)
	if err != nil {
		return err
	}

	return printJSON(map[string][]string{"expired": expired})
}

func listWithdrawalsAction(ctx *cli.Context) error {
	macaroon, tlsConfig, err := getCredentials(ctx)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/v1/admin/withdrawals", baseUrl(ctx))
	if status := ctx.String(statusFlagName); status != "" {
		endpoint = fmt.Sprintf("%s?status=%s", endpoint, url.QueryEscape(status))
	}

	withdrawals, err := get[[]*bridgev1.Withdrawal](endpoint, "withdrawals", macaroon, tlsConfig)
	if err != nil {
		return err
	}

	return printJSON(withdrawals)
}

func reconcileAction(ctx *cli.Context) error {
	macaroon, tlsConfig, err := getCredentials(ctx)
	if err != nil {
		return err
	}

	resolution := ctx.String(resolutionFlagName)
	txid := ctx.String(txidFlagName)
	if resolution == "settle" && txid == "" {
		return fmt.Errorf("missing --%s to settle the withdrawal", txidFlagName)
	}

	body, err := json.Marshal(bridgev1.ReconcileWithdrawalRequest{
		Id:         ctx.String(idFlagName),
		Resolution: resolution,
		Txid:       txid,
	})
	if err != nil {
		return err
	}

	withdrawal, err := post[*bridgev1.Withdrawal](
		fmt.Sprintf("%s/v1/admin/withdrawal/reconcile", baseUrl(ctx)), string(body),
		"withdrawal", macaroon, tlsConfig,
	)
	if err != nil {
		return err
	}

	return printJSON(withdrawal)
}

func historyAction(ctx *cli.Context) error {
	macaroon, tlsConfig, err := getCredentials(ctx)
	if err != nil {
		return err
	}

	events, err := get[[]*bridgev1.Event](
		fmt.Sprintf(
			"%s/v1/admin/account/%s/history", baseUrl(ctx),
			url.PathEscape(ctx.String(accountFlagName)),
		),
		"events", macaroon, tlsConfig,
	)
	if err != nil {
		return err
	}

	return printJSON(events)
}

func macaroonAction(ctx *cli.Context) error {
	macaroon, tlsConfig, err := getCredentials(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(bridgev1.BakeUserMacaroonRequest{
		AccountId: ctx.String(accountFlagName),
	})
	if err != nil {
		return err
	}

	userMacaroon, err := post[string](
		fmt.Sprintf("%s/v1/admin/macaroon", baseUrl(ctx)), string(body),
		"macaroon", macaroon, tlsConfig,
	)
	if err != nil {
		return err
	}

	fmt.Println(userMacaroon)
	return nil
}

func printJSON(v any) error {
	str, err := toJSON(v)
	if err != nil {
		return err
	}
	fmt.Println(str)
	return nil
}
