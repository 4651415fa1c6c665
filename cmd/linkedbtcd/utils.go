package main

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
	"gopkg.in/macaroon.v2"
)

func getCredentials(ctx *cli.Context) (macaroon string, tlsConfig *tls.Config, err error) {
	var macaroonPath, tlsCertPath string
	macaroon = ctx.String(macaroonFlagName)
	if macaroon == "" {
		macaroon = viper.GetString("cli-macaroon")
	}

	datadir := ctx.String(datadirFlagName)
	if macaroon == "" {
		macaroonPath = filepath.Join(datadir, macaroonDir, macaroonFile)
	}
	tlsCertPath = filepath.Join(datadir, tlsDir, tlsCertFile)

	if _, err := os.Stat(macaroonPath); macaroonPath != "" && err == nil {
		macaroon, err = getMacaroon(macaroonPath)
		if err != nil {
			return "", nil, fmt.Errorf("failed to read macaroon: %w", err)
		}
	}

	if strings.Contains(baseUrl(ctx), "http://") {
		tlsCertPath = ""
	}

	if _, err := os.Stat(tlsCertPath); tlsCertPath != "" && err == nil {
		tlsConfig, err = getTLSConfig(tlsCertPath)
		if err != nil {
			return "", nil, fmt.Errorf("failed to get tls config: %s", err)
		}
	}

	return
}

// baseUrl returns the bridge url, falling back to LBTC_CLI_URL when the flag
// is not set.
func baseUrl(ctx *cli.Context) string {
	if !ctx.IsSet(urlFlagName) {
		if u := viper.GetString("cli-url"); u != "" {
			return strings.TrimSuffix(u, "/")
		}
	}
	return strings.TrimSuffix(ctx.String(urlFlagName), "/")
}

func post[T any](url, body, key, macaroon string, tlsConfig *tls.Config) (result T, err error) {
	req, err := http.NewRequest("POST", url, strings.NewReader(body))
	if err != nil {
		return
	}
	return do[T](req, key, macaroon, tlsConfig)
}

func get[T any](url, key, macaroon string, tlsConfig *tls.Config) (result T, err error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return
	}
	return do[T](req, key, macaroon, tlsConfig)
}

func do[T any](
	req *http.Request, key, macaroon string, tlsConfig *tls.Config,
) (result T, err error) {
	req.Header.Add("Content-Type", "application/json")
	if len(macaroon) > 0 {
		req.Header.Add("X-Macaroon", macaroon)
	}
	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: tlsConfig,
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		return
	}
	// nolint
	defer resp.Body.Close()

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return
	}
	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("failed to %s %s: %s", strings.ToLower(req.Method), req.URL.Path, buf)
		return
	}
	if key == "" {
		var res T
		if err = json.Unmarshal(buf, &res); err != nil {
			return
		}
		result = res
		return
	}
	res := make(map[string]T)
	if err = json.Unmarshal(buf, &res); err != nil {
		return
	}

	result = res[key]
	return
}

func toJSON(v any) (string, error) {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// formatBTC renders an amount in satoshis as BTC.
func formatBTC(sats uint64) string {
	return decimal.NewFromUint64(sats).Shift(-8).StringFixed(8)
}

func getMacaroon(path string) (string, error) {
	macBytes, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read macaroon %s: %s", path, err)
	}
	mac := &macaroon.Macaroon{}
	if err := mac.UnmarshalBinary(macBytes); err != nil {
		return "", fmt.Errorf("failed to parse macaroon %s: %s", path, err)
	}

	return hex.EncodeToString(macBytes), nil
}

func getTLSConfig(path string) (*tls.Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	caCertPool := x509.NewCertPool()
	if ok := caCertPool.AppendCertsFromPEM(buf); !ok {
		return nil, fmt.Errorf("failed to parse tls cert")
	}

	return &tls.Config{
		MinVersion: tls.VersionTLS12,
		RootCAs:    caCertPool,
	}, nil
}
