package handlers

import (
	"encoding/json"
	"testing"

	bridgev1 "github.com/hill399/linkedBtc/api-spec/bridge/v1"
	"github.com/hill399/linkedBtc/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func TestParseVerdictCallback(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		fixtures := []struct {
			name     string
			req      *bridgev1.SubmitVerdictRequest
			expected domain.Verdict
		}{
			{
				name: "validation",
				req: &bridgev1.SubmitVerdictRequest{
					CorrelationId: "req-1",
					ProviderId:    "oracle-1",
					Kind:          "validation",
					Matched:       true,
					Hash:          "abc",
				},
				expected: domain.ValidationVerdict{Matched: true, Hash: "abc"},
			},
			{
				name: "settlement",
				req: &bridgev1.SubmitVerdictRequest{
					CorrelationId: "req-2",
					ProviderId:    "oracle-1",
					Signature:     "sig",
					Kind:          "SETTLEMENT",
					Success:       true,
					Txid:          "txid",
				},
				expected: domain.SettlementVerdict{Success: true, Txid: "txid"},
			},
		}
		for _, f := range fixtures {
			t.Run(f.name, func(t *testing.T) {
				callback, err := parseVerdictCallback(f.req)
				require.NoError(t, err)
				require.Equal(t, f.req.CorrelationId, callback.CorrelationId)
				require.Equal(t, f.req.ProviderId, callback.ProviderId)
				require.Equal(t, f.req.Signature, callback.Signature)
				require.Equal(t, f.expected, callback.Verdict)
			})
		}
	})

	t.Run("invalid", func(t *testing.T) {
		fixtures := []struct {
			req         *bridgev1.SubmitVerdictRequest
			expectedErr string
		}{
			{nil, "missing verdict"},
			{&bridgev1.SubmitVerdictRequest{ProviderId: "p", Kind: "validation"}, "missing correlation id"},
			{&bridgev1.SubmitVerdictRequest{CorrelationId: "c", Kind: "validation"}, "missing provider id"},
			{&bridgev1.SubmitVerdictRequest{CorrelationId: "c", ProviderId: "p"}, "missing verdict kind"},
			{
				&bridgev1.SubmitVerdictRequest{CorrelationId: "c", ProviderId: "p", Kind: "deposit"},
				"unknown verdict kind",
			},
		}
		for _, f := range fixtures {
			_, err := parseVerdictCallback(f.req)
			require.ErrorContains(t, err, f.expectedErr)
		}
	})
}

func TestParseIds(t *testing.T) {
	ids, err := parseIds([]string{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, ids)

	_, err = parseIds(nil)
	require.Error(t, err)
	_, err = parseIds([]string{"a", " "})
	require.Error(t, err)

	_, err = parseCaller("  ")
	require.Error(t, err)
	caller, err := parseCaller(" alice ")
	require.NoError(t, err)
	require.Equal(t, "alice", caller)
}

func TestPendingRequestsToProto(t *testing.T) {
	list := pendingRequests{
		{
			PendingRequest: domain.PendingRequest{
				Id:         "req-1",
				Purpose:    domain.PurposeValidate,
				Owner:      "alice",
				ProviderId: "oracle-1",
				Payload: domain.ValidatePayload{
					ExternalTxid: "txid", ExternalAddress: "addr", ChallengeAmount: 1234, Owner: "alice",
				},
				IssuedAt:  10,
				ExpiresAt: 70,
			},
			Expired: true,
		},
		{
			PendingRequest: domain.PendingRequest{
				Id:           "req-2",
				Purpose:      domain.PurposeSettle,
				Owner:        "bob",
				ProviderId:   "oracle-2",
				WithdrawalId: "w1",
				Payload:      domain.SettlePayload{Destination: "dest", Amount: 5000, Owner: "bob"},
			},
		},
	}

	got := list.toProto()
	require.Len(t, got, 2)
	require.Equal(t, "txid", got[0].ExternalTxid)
	require.Equal(t, uint64(1234), got[0].Amount)
	require.True(t, got[0].Expired)
	require.Equal(t, domain.PurposeValidate.String(), got[0].Purpose)
	require.Equal(t, "dest", got[1].Destination)
	require.Equal(t, "w1", got[1].WithdrawalId)
	require.False(t, got[1].Expired)
}

func TestEventToProto(t *testing.T) {
	events := eventList{
		domain.DepositCredited{
			AccountEvent: domain.AccountEvent{
				Id: "alice", Type: domain.EventTypeDepositCredited, Timestamp: 100,
			},
			CorrelationId: "req-1",
			Amount:        5000,
		},
	}

	got, err := events.toProto()
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "alice", got[0].AccountId)
	require.Equal(t, string(domain.EventTypeDepositCredited), got[0].Type)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(got[0].Payload, &payload))
	require.Equal(t, "req-1", payload["CorrelationId"])
	require.EqualValues(t, 5000, payload["Amount"])
}

