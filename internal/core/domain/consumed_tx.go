package domain

import "context"

// ConsumedTx is an external bitcoin txid that already backed a validation,
// deposit or payout. Entries are never removed.
type ConsumedTx struct {
	Txid       string
	Owner      string
	ConsumedAt int64
}

type ConsumedTxRepository interface {
	// Consume inserts the txid if absent and reports whether it did.
	Consume(ctx context.Context, tx ConsumedTx) (bool, error)
	IsConsumed(ctx context.Context, txid string) (bool, error)
	Close()
}
