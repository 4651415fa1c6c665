package domain

import "context"

// AccountRepository persists ledger accounts keyed by caller identity.
// Update runs the given function inside a single transaction: if it returns an
// error nothing is written.
type AccountRepository interface {
	Add(ctx context.Context, account Account) error
	Get(ctx context.Context, id string) (*Account, error)
	Update(ctx context.Context, id string, updateFn func(a *Account) error) (*Account, error)
	List(ctx context.Context) ([]Account, error)
	Close()
}
