package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/hill399/linkedBtc/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func TestDeserializeEvent(t *testing.T) {
	head := func(t domain.EventType) domain.AccountEvent {
		return domain.AccountEvent{Id: "alice", Type: t, Timestamp: 1700000000}
	}

	fixtures := []struct {
		name  string
		event domain.Event
	}{
		{
			name: "account validated",
			event: domain.AccountValidatedEvent{
				AccountEvent:  head(domain.EventTypeAccountValidated),
				CorrelationId: "req-1",
				Amount:        1500,
			},
		},
		{
			name: "withdrawal settled",
			event: domain.WithdrawalSettledEvent{
				AccountEvent: head(domain.EventTypeWithdrawalSettled),
				WithdrawalId: "w-1",
				ProviderId:   "oracle-1",
				Txid:         "txid",
			},
		},
		{
			name: "withdrawal unsettled",
			event: domain.WithdrawalUnsettledEvent{
				AccountEvent: head(domain.EventTypeWithdrawalUnsettled),
				WithdrawalId: "w-2",
				Amount:       2000,
			},
		},
		{
			name: "request expired",
			event: domain.RequestExpired{
				AccountEvent:  head(domain.EventTypeRequestExpired),
				CorrelationId: "req-2",
				Purpose:       domain.PurposeSettle,
			},
		},
	}

	for _, f := range fixtures {
		t.Run(f.name, func(t *testing.T) {
			buf, err := json.Marshal(f.event)
			require.NoError(t, err)

			event, err := domain.DeserializeEvent(buf)
			require.NoError(t, err)
			require.Equal(t, f.event, event)
		})
	}

	t.Run("unknown type", func(t *testing.T) {
		_, err := domain.DeserializeEvent([]byte(`{"Id":"alice","Type":"Minted"}`))
		require.ErrorContains(t, err, "unknown event type")
	})
}
