package ports

import (
	"context"
	"errors"
)

var (
	ErrCustodyInsufficientFunds     = errors.New("insufficient token balance")
	ErrCustodyInsufficientAllowance = errors.New("insufficient token allowance")
)

// TokenCustody is the wrapped token the bridge moves in and out of custody.
type TokenCustody interface {
	Treasury() string
	BalanceOf(ctx context.Context, owner string) (uint64, error)
	Transfer(ctx context.Context, from, to string, amount uint64) error
	TransferFrom(ctx context.Context, spender, from, to string, amount uint64) error
	Approve(ctx context.Context, owner, spender string, amount uint64) error
	Allowance(ctx context.Context, owner, spender string) (uint64, error)
}
