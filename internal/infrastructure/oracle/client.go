package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/hill399/linkedBtc/internal/core/domain"
	"github.com/hill399/linkedBtc/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

const (
	functionDeposit     = "deposit"
	functionTransaction = "transaction"

	maxRetries = 4
	baseDelay  = 100 * time.Millisecond
)

// BridgeRequest is the body of a job run request as accepted by a Chainlink
// external adapter.
type BridgeRequest struct {
	Id   string     `json:"id"`
	Data BridgeData `json:"data"`
}

type BridgeData struct {
	JobId    string   `json:"jobId"`
	Function string   `json:"function"`
	Params   []string `json:"params"`
	Owner    string   `json:"owner,omitempty"`
}

type client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) ports.ProviderClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *client) Send(
	ctx context.Context, provider domain.Provider, request domain.PendingRequest,
) error {
	if len(provider.Url) <= 0 {
		return fmt.Errorf("provider %s has no url", provider.Id)
	}

	body, err := NewBridgeRequest(provider, request)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	for attempt := range maxRetries {
		retry, err := c.post(ctx, provider.Url, request.Id, payload)
		if err == nil {
			return nil
		}
		if !retry || attempt == maxRetries-1 {
			return fmt.Errorf(
				"failed to send request to provider %s after %d attempts: %w",
				provider.Id, attempt+1, err,
			)
		}

		// exponential: 100ms, 200ms, 400ms
		delay := baseDelay * time.Duration(1<<uint(attempt))
		log.WithError(err).Debugf(
			"provider %s unreachable, retrying in %s", provider.Id, delay,
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("failed to send request to provider %s", provider.Id)
}

// post reports whether a failed attempt can be retried: network errors and 5xx
// are, 4xx are not.
func (c *client) post(
	ctx context.Context, url, correlationId string, payload []byte,
) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Correlation-Id", correlationId)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ctx.Err() == nil, err
	}
	// nolint:errcheck
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return false, nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return resp.StatusCode >= 500, fmt.Errorf(
		"provider responded with status %d: %s", resp.StatusCode, bytes.TrimSpace(msg),
	)
}

func NewBridgeRequest(
	provider domain.Provider, request domain.PendingRequest,
) (*BridgeRequest, error) {
	data := BridgeData{
		JobId: provider.JobId,
		Owner: request.Owner,
	}

	switch p := request.Payload.(type) {
	case domain.ValidatePayload:
		data.Function = functionDeposit
		data.Params = []string{
			p.ExternalTxid, p.ExternalAddress, strconv.FormatUint(p.ChallengeAmount, 10),
		}
	case domain.SettlePayload:
		data.Function = functionTransaction
		data.Params = []string{p.Destination, strconv.FormatUint(p.Amount, 10)}
	default:
		return nil, fmt.Errorf("unsupported payload %T for request %s", p, request.Id)
	}

	return &BridgeRequest{Id: request.Id, Data: data}, nil
}
