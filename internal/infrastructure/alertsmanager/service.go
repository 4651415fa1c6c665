package alertsmanager

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/hill399/linkedBtc/internal/core/ports"
	"github.com/shopspring/decimal"
)

const (
	serviceName = "linkedbtcd"
	severity    = "info"
	warning     = "warning"

	maxRetries = 5
)

type Alert struct {
	Labels      map[string]string `json:"labels"`
	Annotations map[string]string `json:"annotations"`
	StartsAt    time.Time         `json:"startsAt"`
}

type service struct {
	baseUrl    string
	esploraUrl string
	httpClient *http.Client
}

func NewService(alertManagerURL, esploraURL string) ports.Alerts {
	return &service{
		baseUrl:    alertManagerURL,
		esploraUrl: esploraURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *service) Publish(ctx context.Context, topic ports.Topic, message any) error {
	labels := map[string]string{
		"alertname": string(topic),
		"service":   serviceName,
		"severity":  severity,
	}

	desc := ""
	annotations := map[string]string{}
	switch topic {
	case ports.WithdrawalSettled, ports.WithdrawalUnsettled:
		m, ok := message.(ports.WithdrawalAlert)
		if !ok {
			return fmt.Errorf("invalid message type: %T", message)
		}
		if topic == ports.WithdrawalSettled {
			annotations["firing_title"] = "✅ Withdrawal Settled"
		} else {
			annotations["firing_title"] = "⚠️ Withdrawal Unsettled"
			labels["severity"] = warning
		}
		desc = formatWithdrawalAlert(s.esploraUrl, m)
		labels["withdrawal_id"] = m.Id
		labels["owner"] = m.Owner
		if len(m.Txid) > 0 {
			labels["txid"] = m.Txid
		}
	case ports.DispatchFailed:
		m, ok := message.(ports.DispatchFailedAlert)
		if !ok {
			return fmt.Errorf("invalid message type: %T", message)
		}
		annotations["firing_title"] = "📡 Dispatch Failed"
		labels["severity"] = warning
		labels["correlation_id"] = m.CorrelationId
		labels["provider_id"] = m.ProviderId
		desc = formatGenericAlert(map[string]any{
			"purpose": m.Purpose,
			"owner":   m.Owner,
			"error":   m.Error,
		})
	default:
		annotations["firing_title"] = fmt.Sprintf("🔔 %s", topic)
		desc = formatGenericAlert(map[string]any{"event": message})
	}

	annotations["description"] = desc
	alert := Alert{
		Labels:      labels,
		Annotations: annotations,
		StartsAt:    time.Now(),
	}

	if err := s.sendAlert(ctx, alert); err != nil {
		return fmt.Errorf("failed to send alert to AlertManager: %w", err)
	}

	return nil
}

func (s *service) sendAlert(ctx context.Context, alerts Alert) error {
	payload, err := json.Marshal([]Alert{alerts})
	if err != nil {
		return fmt.Errorf("failed to marshal alerts: %w", err)
	}

	baseDelay := 100 * time.Millisecond

	for attempt := range maxRetries {
		req, err := http.NewRequestWithContext(ctx, "POST", s.baseUrl, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			// Network error - retry with backoff
			if attempt < maxRetries-1 {
				// exponential: 100ms, 200ms, 400ms, 800ms, 1600ms
				delay := baseDelay * time.Duration(1<<uint(attempt))

				select {
				case <-time.After(delay):
					continue
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return fmt.Errorf("failed to send alert after %d attempts: %w", maxRetries, err)
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			_ = resp.Body.Close()
			return nil
		}

		_ = resp.Body.Close()

		// Retry on 5xx (server errors), but not on 4xx (client errors)
		if resp.StatusCode >= 500 {
			if attempt < maxRetries-1 {
				delay := baseDelay * time.Duration(1<<uint(attempt))

				select {
				case <-time.After(delay):
					continue
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}

		// 4xx error or final 5xx error
		return fmt.Errorf(
			"failed to send alert to AlertManager with status %d after %d attempts",
			resp.StatusCode, attempt+1,
		)
	}

	return fmt.Errorf("failed to send alert after %d attempts", maxRetries)
}

func formatWithdrawalAlert(esploraUrl string, data ports.WithdrawalAlert) string {
	lines := make([]string, 0)
	if len(data.Txid) > 0 {
		lines = append(lines, fmt.Sprintf("%s/tx/%s", esploraUrl, data.Txid))
	}
	lines = append(lines, fmt.Sprintf("\n*ID:* `%s`", data.Id))
	lines = append(lines, fmt.Sprintf("*Status:* %s", data.Status))

	lines = append(lines, "\n*Payout:*")
	lines = append(lines, fmt.Sprintf("• Owner: %s", data.Owner))
	lines = append(lines, fmt.Sprintf("• Destination: %s", data.Destination))
	lines = append(lines, fmt.Sprintf("• Amount: %s", formatBTC(data.Amount)))
	if len(data.SettledBy) > 0 {
		lines = append(lines, fmt.Sprintf("• Settled by: %s", data.SettledBy))
	}

	lines = append(lines, "\n*Breakdown:*")
	lines = append(lines, fmt.Sprintf("• Duration: %s", data.Age))
	lines = append(lines, fmt.Sprintf("• Provider requests: %d", data.Requests))
	lines = append(lines, fmt.Sprintf("• Failed requests: %d", data.Failed))
	lines = append(lines, fmt.Sprintf("• Ledger exposure: %s", data.Exposure))
	return strings.Join(lines, "\n")
}

func formatGenericAlert(data map[string]any) string {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("• %s: %v", key, data[key]))
	}
	return strings.Join(lines, "\n")
}

func formatBTC(sats uint64) string {
	return fmt.Sprintf("%s BTC", decimal.NewFromUint64(sats).Shift(-8).String())
}
