package e2e_test

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	bridgev1 "github.com/hill399/linkedBtc/api-spec/bridge/v1"
	"github.com/hill399/linkedBtc/internal/config"
	"github.com/hill399/linkedBtc/internal/core/application"
	"github.com/hill399/linkedBtc/internal/core/domain"
	"github.com/hill399/linkedBtc/internal/infrastructure/oracle"
	interfaces "github.com/hill399/linkedBtc/internal/interface"
	grpcservice "github.com/hill399/linkedBtc/internal/interface/grpc"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

// startBridge runs an in-process daemon with in-memory storage and returns
// its base url.
func startBridge() (interfaces.Service, string, error) {
	port, err := freePort()
	if err != nil {
		return nil, "", err
	}

	cfg := &config.Config{
		Port:                uint32(port),
		NoTLS:               true,
		NoMacaroons:         true,
		Network:             "regtest",
		DbType:              "badger",
		EventDbType:         "badger",
		LiveStoreType:       "inmemory",
		SchedulerType:       "gocron",
		RedisTxNumOfRetries: 10,
		MinWithdraw:         1000,
		ChallengeFloor:      application.MinChallengeFloor,
		ChallengeRange:      9000,
		RequestTTL:          30,
		ProviderTimeout:     5,
		HeartbeatInterval:   1,
	}
	svc, err := grpcservice.NewService("e2e", grpcservice.Config{
		Port:              cfg.Port,
		NoTLS:             true,
		NoMacaroons:       true,
		HeartbeatInterval: cfg.HeartbeatInterval,
	}, cfg)
	if err != nil {
		return nil, "", err
	}
	if err := svc.Start(); err != nil {
		return nil, "", err
	}

	baseUrl := fmt.Sprintf("http://127.0.0.1:%d", port)
	if err := waitUntilReady(baseUrl); err != nil {
		svc.Stop()
		return nil, "", err
	}
	return svc, baseUrl, nil
}

func freePort() (int, error) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	// nolint:errcheck
	defer lis.Close()
	return lis.Addr().(*net.TCPAddr).Port, nil
}

func waitUntilReady(baseUrl string) error {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := get[bridgev1.GetInfoResponse](baseUrl+"/v1/info", "info"); err == nil {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("bridge not ready after 10s")
}

// oracleAdapter is a fake external adapter: it accepts every job and answers
// with a signed verdict through the bridge REST api.
type oracleAdapter struct {
	id      string
	key     *btcec.PrivateKey
	bridge  string
	srv     *httptest.Server
	lock    sync.Mutex
	reject  bool
	history []oracle.BridgeRequest
}

func newOracleAdapter(t *testing.T, id, bridgeUrl string) *oracleAdapter {
	t.Helper()

	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	a := &oracleAdapter{id: id, key: key, bridge: bridgeUrl}
	a.srv = httptest.NewServer(http.HandlerFunc(a.handle))
	t.Cleanup(a.srv.Close)
	return a
}

func (a *oracleAdapter) pubkey() string {
	return hex.EncodeToString(schnorr.SerializePubKey(a.key.PubKey()))
}

func (a *oracleAdapter) setReject(reject bool) {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.reject = reject
}

func (a *oracleAdapter) requests() []oracle.BridgeRequest {
	a.lock.Lock()
	defer a.lock.Unlock()
	return append([]oracle.BridgeRequest{}, a.history...)
}

func (a *oracleAdapter) handle(w http.ResponseWriter, r *http.Request) {
	var req oracle.BridgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	a.lock.Lock()
	a.history = append(a.history, req)
	reject := a.reject
	a.lock.Unlock()

	w.WriteHeader(http.StatusOK)

	go func() {
		verdict, err := a.verdict(req, reject)
		if err != nil {
			log.WithError(err).Warn("adapter failed to build verdict")
			return
		}
		body, err := json.Marshal(verdict)
		if err != nil {
			return
		}
		if _, err := post[bridgev1.SubmitVerdictResponse](
			a.bridge+"/v1/provider/verdict", string(body), "verdict",
		); err != nil {
			log.WithError(err).Warn("adapter failed to deliver verdict")
		}
	}()
}

func (a *oracleAdapter) verdict(
	req oracle.BridgeRequest, reject bool,
) (*bridgev1.SubmitVerdictRequest, error) {
	resp := &bridgev1.SubmitVerdictRequest{
		CorrelationId: req.Id,
		ProviderId:    a.id,
	}

	var verdict domain.Verdict
	switch req.Data.Function {
	case "deposit":
		if len(req.Data.Params) != 3 {
			return nil, fmt.Errorf("invalid deposit params %v", req.Data.Params)
		}
		value, err := strconv.ParseUint(req.Data.Params[2], 10, 64)
		if err != nil {
			return nil, err
		}
		hash := application.DepositProofHash(req.Data.Params[0], req.Data.Params[1], value)
		resp.Kind = bridgev1.VerdictKindValidation
		resp.Matched = !reject
		resp.Hash = hash
		verdict = domain.ValidationVerdict{Matched: resp.Matched, Hash: hash}
	case "transaction":
		resp.Kind = bridgev1.VerdictKindSettlement
		resp.Success = !reject
		if !reject {
			resp.Txid = randomTxid()
		}
		verdict = domain.SettlementVerdict{Success: resp.Success, Txid: resp.Txid}
	default:
		return nil, fmt.Errorf("unknown function %s", req.Data.Function)
	}

	msg := application.VerdictMessage(req.Id, a.id, verdict)
	sig, err := schnorr.Sign(a.key, msg)
	if err != nil {
		return nil, err
	}
	resp.Signature = hex.EncodeToString(sig.Serialize())
	return resp, nil
}

func newAddress(t *testing.T) string {
	t.Helper()
	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	addr, err := btcutil.NewAddressWitnessPubKeyHash(
		btcutil.Hash160(key.PubKey().SerializeCompressed()), &chaincfg.RegressionNetParams,
	)
	require.NoError(t, err)
	return addr.EncodeAddress()
}

func randomTxid() string {
	buf := make([]byte, 32)
	// nolint:errcheck
	rand.Read(buf)
	return hex.EncodeToString(buf)
}

type errorResp struct {
	Code     int32             `json:"code"`
	Name     string            `json:"name"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata"`
}

type httpError struct {
	status int
	body   errorResp
}

func (e *httpError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.status, e.body.Name, e.body.Message)
}

func get[T any](url, name string) (*T, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare %s request: %s", name, err)
	}
	return do[T](req, name)
}

func post[T any](url, body, name string) (*T, error) {
	req, err := http.NewRequest("POST", url, bytes.NewReader([]byte(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare %s request: %s", name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return do[T](req, name)
}

func do[T any](req *http.Request, name string) (*T, error) {
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %s", name, err)
	}
	// nolint:errcheck
	defer resp.Body.Close()

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		httpErr := &httpError{status: resp.StatusCode}
		_ = json.Unmarshal(buf, &httpErr.body)
		return nil, httpErr
	}

	var data T
	if err := json.Unmarshal(buf, &data); err != nil {
		return nil, fmt.Errorf("failed to parse %s response: %s", name, err)
	}
	return &data, nil
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	buf, err := json.Marshal(v)
	require.NoError(t, err)
	return string(buf)
}
