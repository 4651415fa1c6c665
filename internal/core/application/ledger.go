package application

import (
	"context"
	"fmt"

	"github.com/hill399/linkedBtc/internal/core/domain"
	"github.com/hill399/linkedBtc/internal/core/ports"
	"github.com/hill399/linkedBtc/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// BridgeSpender is the custody identity the bridge pulls withdrawn tokens with.
const BridgeSpender = "linkedbtc-bridge"

// ledger owns the accounts. Every mutation is one repository update, so a
// failed precondition leaves the account untouched.
type ledger struct {
	accounts       domain.AccountRepository
	custody        ports.TokenCustody
	minWithdraw    uint64
	challengeFloor uint64
	challengeRange uint64
}

func newLedger(
	accounts domain.AccountRepository, custody ports.TokenCustody,
	minWithdraw, challengeFloor, challengeRange uint64,
) *ledger {
	return &ledger{
		accounts:       accounts,
		custody:        custody,
		minWithdraw:    minWithdraw,
		challengeFloor: challengeFloor,
		challengeRange: challengeRange,
	}
}

func (l *ledger) registerAccount(
	ctx context.Context, caller, externalAddress string,
) (*domain.Account, errors.Error) {
	challenge, err := newChallengeAmount(l.challengeFloor, l.challengeRange)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	account, err := domain.NewAccount(caller, externalAddress, challenge)
	if err != nil {
		return nil, errors.INVALID_AMOUNT.New("%s", err)
	}
	if err := l.accounts.Add(ctx, *account); err != nil {
		return nil, accountError(err, caller, nil, 0, 0, domain.AccountUnregistered)
	}
	return account, nil
}

func (l *ledger) getAccount(ctx context.Context, caller string) (*domain.Account, errors.Error) {
	account, err := l.accounts.Get(ctx, caller)
	if err != nil {
		return nil, accountError(err, caller, nil, 0, 0, domain.AccountUnregistered)
	}
	return account, nil
}

func (l *ledger) credit(
	ctx context.Context, caller string, amount uint64,
) (*domain.Account, errors.Error) {
	var snapshot domain.Account
	account, err := l.accounts.Update(ctx, caller, func(a *domain.Account) error {
		snapshot = *a
		return a.Credit(amount)
	})
	if err != nil {
		return nil, accountError(err, caller, &snapshot, amount, 0, domain.AccountValidated)
	}
	l.release(ctx, caller, amount)
	return account, nil
}

func (l *ledger) debit(
	ctx context.Context, caller string, amount uint64,
) (*domain.Account, errors.Error) {
	var snapshot domain.Account
	pulled := false

	account, err := l.accounts.Update(ctx, caller, func(a *domain.Account) error {
		snapshot = *a
		if err := a.Debit(amount, l.minWithdraw); err != nil {
			return err
		}
		if l.custody == nil || pulled {
			return nil
		}
		if err := l.custody.TransferFrom(
			ctx, BridgeSpender, caller, l.custody.Treasury(), amount,
		); err != nil {
			return fmt.Errorf("%w: %s", domain.ErrInsufficientBalance, err)
		}
		pulled = true
		return nil
	})
	if err != nil {
		if pulled {
			// update failed after the tokens were pulled, give them back
			if err := l.custody.Transfer(ctx, l.custody.Treasury(), caller, amount); err != nil {
				log.WithError(err).Errorf("failed to refund %d tokens to %s", amount, caller)
			}
		}
		return nil, accountError(
			err, caller, &snapshot, amount, l.minWithdraw, domain.AccountValidated,
		)
	}
	return account, nil
}

// settleChallenge credits the challenge amount and validates the account in
// a single update.
func (l *ledger) settleChallenge(
	ctx context.Context, caller string,
) (*domain.Account, uint64, errors.Error) {
	var snapshot domain.Account
	var credited uint64
	account, err := l.accounts.Update(ctx, caller, func(a *domain.Account) error {
		snapshot = *a
		amount, err := a.SettleChallenge()
		if err != nil {
			return err
		}
		credited = amount
		return nil
	})
	if err != nil {
		return nil, 0, accountError(
			err, caller, &snapshot, 0, 0, domain.AccountPendingValidation,
		)
	}
	l.release(ctx, caller, credited)
	return account, credited, nil
}

// release moves credited tokens out of the treasury and lets the bridge pull
// them back on withdrawal.
func (l *ledger) release(ctx context.Context, caller string, amount uint64) {
	if l.custody == nil || amount == 0 {
		return
	}
	if err := l.custody.Transfer(ctx, l.custody.Treasury(), caller, amount); err != nil {
		log.WithError(err).Errorf("failed to release %d tokens to %s", amount, caller)
		return
	}
	allowance, err := l.custody.Allowance(ctx, caller, BridgeSpender)
	if err != nil {
		log.WithError(err).Warnf("failed to get bridge allowance of %s", caller)
		return
	}
	if err := l.custody.Approve(ctx, caller, BridgeSpender, allowance+amount); err != nil {
		log.WithError(err).Warnf("failed to approve bridge for %s", caller)
	}
}
