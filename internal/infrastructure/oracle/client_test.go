package oracle_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hill399/linkedBtc/internal/core/domain"
	"github.com/hill399/linkedBtc/internal/infrastructure/oracle"
	"github.com/stretchr/testify/require"
)

var (
	validateRequest = domain.PendingRequest{
		Id:         "5c1f3a1e-9a5e-4f1e-8f5a-1b2c3d4e5f60",
		Purpose:    domain.PurposeValidate,
		Owner:      "alice",
		ProviderId: "oracle-1",
		Payload: domain.ValidatePayload{
			ExternalTxid:    "a3f1c0e5a1f4b7c6d2e9f8a7b6c5d4e3f2a1b0c9d8e7f6a5b4c3d2e1f0a9b8c7",
			ExternalAddress: "mo83FzMwaZD7Sw8dYbhsr7a529vf2Q3mwR",
			ChallengeAmount: 1234,
			Owner:           "alice",
		},
	}
	settleRequest = domain.PendingRequest{
		Id:         "0f9e8d7c-6b5a-4f3e-2d1c-0b9a8f7e6d5c",
		Purpose:    domain.PurposeSettle,
		Owner:      "bob",
		ProviderId: "oracle-1",
		Payload: domain.SettlePayload{
			Destination: "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx",
			Amount:      5000,
			Owner:       "bob",
		},
	}
)

func TestNewBridgeRequest(t *testing.T) {
	provider := domain.Provider{Id: "oracle-1", JobId: "job-1"}

	t.Run("valid", func(t *testing.T) {
		fixtures := []struct {
			name     string
			request  domain.PendingRequest
			function string
			params   []string
		}{
			{
				name:     "validate",
				request:  validateRequest,
				function: "deposit",
				params: []string{
					"a3f1c0e5a1f4b7c6d2e9f8a7b6c5d4e3f2a1b0c9d8e7f6a5b4c3d2e1f0a9b8c7",
					"mo83FzMwaZD7Sw8dYbhsr7a529vf2Q3mwR",
					"1234",
				},
			},
			{
				name:     "settle",
				request:  settleRequest,
				function: "transaction",
				params:   []string{"tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx", "5000"},
			},
		}
		for _, f := range fixtures {
			t.Run(f.name, func(t *testing.T) {
				body, err := oracle.NewBridgeRequest(provider, f.request)
				require.NoError(t, err)
				require.Equal(t, f.request.Id, body.Id)
				require.Equal(t, "job-1", body.Data.JobId)
				require.Equal(t, f.function, body.Data.Function)
				require.Equal(t, f.params, body.Data.Params)
				require.Equal(t, f.request.Owner, body.Data.Owner)
			})
		}
	})

	t.Run("invalid", func(t *testing.T) {
		request := validateRequest
		request.Payload = nil
		body, err := oracle.NewBridgeRequest(provider, request)
		require.Error(t, err)
		require.Nil(t, body)
	})
}

func TestSend(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		var calls atomic.Int32
		var got oracle.BridgeRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// first attempt hits a transient failure
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			require.Equal(t, settleRequest.Id, r.Header.Get("X-Correlation-Id"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := oracle.NewClient(time.Second)
		provider := domain.Provider{Id: "oracle-1", JobId: "job-1", Url: server.URL}

		err := client.Send(context.Background(), provider, settleRequest)
		require.NoError(t, err)
		require.Equal(t, int32(2), calls.Load())
		require.Equal(t, "transaction", got.Data.Function)
	})

	t.Run("invalid", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			http.Error(w, "unknown job", http.StatusBadRequest)
		}))
		defer server.Close()

		client := oracle.NewClient(time.Second)

		err := client.Send(
			context.Background(),
			domain.Provider{Id: "oracle-1", JobId: "job-1", Url: server.URL},
			validateRequest,
		)
		require.ErrorContains(t, err, "unknown job")
		require.Equal(t, int32(1), calls.Load())

		err = client.Send(
			context.Background(), domain.Provider{Id: "oracle-2", JobId: "job-2"}, validateRequest,
		)
		require.ErrorContains(t, err, "has no url")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err = client.Send(
			ctx, domain.Provider{Id: "oracle-1", JobId: "job-1", Url: server.URL}, validateRequest,
		)
		require.ErrorIs(t, err, context.Canceled)
	})
}
