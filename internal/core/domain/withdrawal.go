package domain

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

var (
	ErrWithdrawalNotFound  = errors.New("withdrawal not found")
	ErrInvalidReconcile    = errors.New("withdrawal cannot be reconciled")
	ErrWithdrawalFinalized = errors.New("withdrawal already finalized")
)

type WithdrawalStatus uint8

const (
	WithdrawalPending WithdrawalStatus = iota
	WithdrawalSettled
	WithdrawalUnsettled
	WithdrawalRecredited
)

func (s WithdrawalStatus) String() string {
	switch s {
	case WithdrawalPending:
		return "Pending"
	case WithdrawalSettled:
		return "Settled"
	case WithdrawalUnsettled:
		return "Unsettled"
	case WithdrawalRecredited:
		return "Recredited"
	default:
		return fmt.Sprintf("WithdrawalStatus(%d)", s)
	}
}

func ParseWithdrawalStatus(s string) (WithdrawalStatus, error) {
	for _, st := range []WithdrawalStatus{
		WithdrawalPending, WithdrawalSettled, WithdrawalUnsettled, WithdrawalRecredited,
	} {
		if strings.EqualFold(st.String(), s) {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown withdrawal status %q", s)
}

// Withdrawal tracks a debited amount fanned out to every provider.
// Failed holds the correlation ids that ended without success.
type Withdrawal struct {
	Id          string
	Owner       string
	Destination string
	Amount      uint64
	RequestIds  []string
	Failed      []string
	Status      WithdrawalStatus
	Txid        string
	SettledBy   string
	CreatedAt   int64
	UpdatedAt   int64
}

func NewWithdrawal(id, owner, destination string, amount uint64) *Withdrawal {
	now := time.Now().Unix()
	return &Withdrawal{
		Id:          id,
		Owner:       owner,
		Destination: destination,
		Amount:      amount,
		RequestIds:  make([]string, 0),
		Failed:      make([]string, 0),
		Status:      WithdrawalPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (w *Withdrawal) IsPending() bool {
	return w.Status == WithdrawalPending
}

// Settle records the first successful payout. It returns false if the
// withdrawal was already settled, which makes later successes no-ops.
func (w *Withdrawal) Settle(txid, providerId string) bool {
	if w.Status == WithdrawalSettled || w.Status == WithdrawalRecredited {
		return false
	}
	w.Status = WithdrawalSettled
	w.Txid = txid
	w.SettledBy = providerId
	w.UpdatedAt = time.Now().Unix()
	return true
}

// Fail marks one fan-out request as ended without success. It returns true
// when this was the last outstanding request, in which case the withdrawal
// moves to Unsettled.
func (w *Withdrawal) Fail(requestId string) bool {
	if !w.IsPending() {
		return false
	}
	if !slices.Contains(w.RequestIds, requestId) || slices.Contains(w.Failed, requestId) {
		return false
	}
	w.Failed = append(w.Failed, requestId)
	w.UpdatedAt = time.Now().Unix()
	if len(w.Failed) < len(w.RequestIds) {
		return false
	}
	w.Status = WithdrawalUnsettled
	return true
}

// Reconcile applies an operator decision. Settling is allowed from Pending or
// Unsettled, re-crediting only from Unsettled.
func (w *Withdrawal) Reconcile(recredit bool, txid string) error {
	switch {
	case recredit && w.Status == WithdrawalUnsettled:
		w.Status = WithdrawalRecredited
	case !recredit && (w.Status == WithdrawalUnsettled || w.Status == WithdrawalPending):
		if len(txid) <= 0 {
			return fmt.Errorf("%w: missing payout txid", ErrInvalidReconcile)
		}
		w.Status = WithdrawalSettled
		w.Txid = txid
		w.SettledBy = ""
	default:
		return fmt.Errorf("%w: status is %s", ErrInvalidReconcile, w.Status)
	}
	w.UpdatedAt = time.Now().Unix()
	return nil
}

type WithdrawalRepository interface {
	Add(ctx context.Context, withdrawal Withdrawal) error
	Get(ctx context.Context, id string) (*Withdrawal, error)
	Update(ctx context.Context, id string, updateFn func(w *Withdrawal) error) (*Withdrawal, error)
	// List returns all withdrawals if no status is given.
	List(ctx context.Context, status ...WithdrawalStatus) ([]Withdrawal, error)
	ListByOwner(ctx context.Context, owner string) ([]Withdrawal, error)
	Close()
}
