package inmemorycustody

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/hill399/linkedBtc/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

const DefaultTreasury = "linkedbtc-treasury"

// token is a fungible wrapped token with ERC20 like allowances. The whole
// supply is minted to the treasury at creation.
type token struct {
	lock       sync.RWMutex
	treasury   string
	balances   map[string]uint64
	allowances map[string]map[string]uint64
}

func NewTokenCustody(treasury string, supply uint64) (ports.TokenCustody, error) {
	if len(treasury) <= 0 {
		treasury = DefaultTreasury
	}
	if supply == 0 {
		return nil, fmt.Errorf("token supply must be greater than zero")
	}

	log.Debugf("minted %d tokens to custody treasury %s", supply, treasury)
	return &token{
		treasury:   treasury,
		balances:   map[string]uint64{treasury: supply},
		allowances: make(map[string]map[string]uint64),
	}, nil
}

func (t *token) Treasury() string {
	return t.treasury
}

func (t *token) BalanceOf(_ context.Context, owner string) (uint64, error) {
	t.lock.RLock()
	defer t.lock.RUnlock()

	return t.balances[owner], nil
}

func (t *token) Transfer(_ context.Context, from, to string, amount uint64) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.move(from, to, amount)
}

func (t *token) TransferFrom(
	_ context.Context, spender, from, to string, amount uint64,
) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	allowance := t.allowances[from][spender]
	if allowance < amount {
		return fmt.Errorf(
			"%w: %s allowed %s to spend %d, got %d",
			ports.ErrCustodyInsufficientAllowance, from, spender, allowance, amount,
		)
	}
	if err := t.move(from, to, amount); err != nil {
		return err
	}
	t.allowances[from][spender] = allowance - amount
	return nil
}

func (t *token) Approve(_ context.Context, owner, spender string, amount uint64) error {
	if len(owner) <= 0 || len(spender) <= 0 {
		return fmt.Errorf("missing owner or spender")
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	if _, ok := t.allowances[owner]; !ok {
		t.allowances[owner] = make(map[string]uint64)
	}
	t.allowances[owner][spender] = amount
	return nil
}

func (t *token) Allowance(_ context.Context, owner, spender string) (uint64, error) {
	t.lock.RLock()
	defer t.lock.RUnlock()

	return t.allowances[owner][spender], nil
}

// move must be called with the lock held.
func (t *token) move(from, to string, amount uint64) error {
	if len(from) <= 0 || len(to) <= 0 {
		return fmt.Errorf("missing sender or receiver")
	}
	if t.balances[from] < amount {
		return fmt.Errorf(
			"%w: %s has %d, got %d",
			ports.ErrCustodyInsufficientFunds, from, t.balances[from], amount,
		)
	}
	if from == to {
		return nil
	}
	if t.balances[to] > math.MaxUint64-amount {
		return fmt.Errorf("balance of %s would overflow", to)
	}
	t.balances[from] -= amount
	t.balances[to] += amount
	return nil
}
