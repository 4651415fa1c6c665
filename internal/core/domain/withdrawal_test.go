package domain_test

import (
	"testing"

	"github.com/hill399/linkedBtc/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func newTestWithdrawal(requestIds ...string) *domain.Withdrawal {
	w := domain.NewWithdrawal("w1", "alice", testAddress, 1000)
	w.RequestIds = append(w.RequestIds, requestIds...)
	return w
}

func TestWithdrawalSettle(t *testing.T) {
	w := newTestWithdrawal("r1", "r2")

	require.True(t, w.Settle("txid-1", "oracle-1"))
	require.Equal(t, domain.WithdrawalSettled, w.Status)
	require.Equal(t, "txid-1", w.Txid)
	require.Equal(t, "oracle-1", w.SettledBy)

	// later successes are no-ops
	require.False(t, w.Settle("txid-2", "oracle-2"))
	require.Equal(t, "txid-1", w.Txid)
	require.False(t, w.Fail("r2"))
}

func TestWithdrawalFail(t *testing.T) {
	w := newTestWithdrawal("r1", "r2", "r3")

	require.False(t, w.Fail("r1"))
	require.False(t, w.Fail("r1"))
	require.False(t, w.Fail("unknown"))
	require.False(t, w.Fail("r2"))
	require.Equal(t, domain.WithdrawalPending, w.Status)

	require.True(t, w.Fail("r3"))
	require.Equal(t, domain.WithdrawalUnsettled, w.Status)
}

func TestWithdrawalReconcile(t *testing.T) {
	t.Run("recredit unsettled", func(t *testing.T) {
		w := newTestWithdrawal("r1")
		require.True(t, w.Fail("r1"))
		require.NoError(t, w.Reconcile(true, ""))
		require.Equal(t, domain.WithdrawalRecredited, w.Status)

		err := w.Reconcile(true, "")
		require.ErrorIs(t, err, domain.ErrInvalidReconcile)
	})

	t.Run("recredit pending", func(t *testing.T) {
		w := newTestWithdrawal("r1")
		err := w.Reconcile(true, "")
		require.ErrorIs(t, err, domain.ErrInvalidReconcile)
		require.Equal(t, domain.WithdrawalPending, w.Status)
	})

	t.Run("settle", func(t *testing.T) {
		w := newTestWithdrawal("r1")
		require.ErrorIs(t, w.Reconcile(false, ""), domain.ErrInvalidReconcile)
		require.NoError(t, w.Reconcile(false, "payout"))
		require.Equal(t, domain.WithdrawalSettled, w.Status)
		require.Equal(t, "payout", w.Txid)
		require.ErrorIs(t, w.Reconcile(false, "payout"), domain.ErrInvalidReconcile)
	})
}

func TestParseWithdrawalStatus(t *testing.T) {
	for _, s := range []string{"Pending", "Settled", "Unsettled", "Recredited"} {
		st, err := domain.ParseWithdrawalStatus(s)
		require.NoError(t, err)
		require.Equal(t, s, st.String())
	}
	_, err := domain.ParseWithdrawalStatus("Lost")
	require.Error(t, err)
}
