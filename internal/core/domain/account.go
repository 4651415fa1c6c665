package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrAccountExists       = errors.New("account already registered")
	ErrAccountNotFound     = errors.New("account not found")
	ErrInvalidState        = errors.New("invalid account state")
	ErrBelowMinimum        = errors.New("amount below minimum withdraw")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
)

type AccountState uint8

const (
	AccountUnregistered AccountState = iota
	AccountPendingValidation
	AccountValidated
)

func (s AccountState) String() string {
	switch s {
	case AccountUnregistered:
		return "Unregistered"
	case AccountPendingValidation:
		return "PendingValidation"
	case AccountValidated:
		return "Validated"
	default:
		return fmt.Sprintf("AccountState(%d)", s)
	}
}

// Account is the ledger entry of a single caller.
// ChallengeAmount is non zero only while the account is pending validation,
// HoldingBalance only within the update that settles the challenge.
type Account struct {
	Id               string
	ExternalAddress  string
	ConfirmedBalance uint64
	HoldingBalance   uint64
	ChallengeAmount  uint64
	State            AccountState
	CreatedAt        int64
	UpdatedAt        int64
}

func NewAccount(id, externalAddress string, challengeAmount uint64) (*Account, error) {
	if len(id) <= 0 {
		return nil, fmt.Errorf("missing account id")
	}
	if len(externalAddress) <= 0 {
		return nil, fmt.Errorf("missing external address")
	}
	if challengeAmount == 0 {
		return nil, fmt.Errorf("challenge amount must be greater than zero")
	}
	now := time.Now().Unix()
	return &Account{
		Id:              id,
		ExternalAddress: externalAddress,
		ChallengeAmount: challengeAmount,
		State:           AccountPendingValidation,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (a *Account) IsValidated() bool {
	return a.State == AccountValidated
}

func (a *Account) IsPendingValidation() bool {
	return a.State == AccountPendingValidation
}

func (a *Account) Credit(amount uint64) error {
	if !a.IsValidated() {
		return ErrInvalidState
	}
	if amount == 0 {
		return ErrInvalidAmount
	}
	a.ConfirmedBalance += amount
	a.touch()
	return nil
}

// Debit checks, in order, the account state, the minimum withdraw and the
// balance, and removes the amount only if all of them pass.
func (a *Account) Debit(amount, minWithdraw uint64) error {
	if !a.IsValidated() {
		return ErrInvalidState
	}
	if amount < minWithdraw {
		return ErrBelowMinimum
	}
	if amount == 0 {
		return ErrInvalidAmount
	}
	if a.ConfirmedBalance < amount {
		return ErrInsufficientBalance
	}
	a.ConfirmedBalance -= amount
	a.touch()
	return nil
}

func (a *Account) MarkValidated() error {
	if !a.IsPendingValidation() {
		return ErrInvalidState
	}
	a.State = AccountValidated
	a.ChallengeAmount = 0
	a.touch()
	return nil
}

// SettleChallenge moves the challenge into holding, releases holding into the
// confirmed balance and marks the account validated. It returns the credited
// amount.
func (a *Account) SettleChallenge() (uint64, error) {
	if !a.IsPendingValidation() {
		return 0, ErrInvalidState
	}
	amount := a.ChallengeAmount
	a.HoldingBalance += amount

	if err := a.MarkValidated(); err != nil {
		a.HoldingBalance -= amount
		return 0, err
	}

	a.ConfirmedBalance += a.HoldingBalance
	a.HoldingBalance = 0
	return amount, nil
}

func (a *Account) touch() {
	a.UpdatedAt = time.Now().Unix()
}
