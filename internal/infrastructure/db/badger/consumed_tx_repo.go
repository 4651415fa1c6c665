package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/hill399/linkedBtc/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const consumedTxStoreDir = "consumed-txs"

type consumedTxRepository struct {
	store *badgerhold.Store
}

func NewConsumedTxRepository(config ...interface{}) (domain.ConsumedTxRepository, error) {
	store, err := openStore(consumedTxStoreDir, config...)
	if err != nil {
		return nil, fmt.Errorf("failed to open consumed tx store: %s", err)
	}
	return &consumedTxRepository{store}, nil
}

// Consume inserts the txid and reports false if it was already there.
func (r *consumedTxRepository) Consume(ctx context.Context, tx domain.ConsumedTx) (bool, error) {
	if tx.ConsumedAt == 0 {
		tx.ConsumedAt = time.Now().Unix()
	}
	err := withRetry(r.store, func(txn *badger.Txn) error {
		return r.store.TxInsert(txn, tx.Txid, tx)
	})
	if err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *consumedTxRepository) IsConsumed(ctx context.Context, txid string) (bool, error) {
	var tx domain.ConsumedTx
	if err := r.store.Get(txid, &tx); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *consumedTxRepository) Close() {
	// nolint:all
	r.store.Close()
}
