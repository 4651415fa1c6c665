package badgerdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/hill399/linkedBtc/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const accountStoreDir = "accounts"

type accountRepository struct {
	store *badgerhold.Store
}

func NewAccountRepository(config ...interface{}) (domain.AccountRepository, error) {
	store, err := openStore(accountStoreDir, config...)
	if err != nil {
		return nil, fmt.Errorf("failed to open account store: %s", err)
	}
	return &accountRepository{store}, nil
}

func (r *accountRepository) Add(ctx context.Context, account domain.Account) error {
	err := withRetry(r.store, func(tx *badger.Txn) error {
		return r.store.TxInsert(tx, account.Id, account)
	})
	if errors.Is(err, badgerhold.ErrKeyExists) {
		return domain.ErrAccountExists
	}
	return err
}

func (r *accountRepository) Get(ctx context.Context, id string) (*domain.Account, error) {
	var account domain.Account
	if err := r.store.Get(id, &account); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

func (r *accountRepository) Update(
	ctx context.Context, id string, updateFn func(*domain.Account) error,
) (*domain.Account, error) {
	var updated domain.Account
	err := withRetry(r.store, func(tx *badger.Txn) error {
		var account domain.Account
		if err := r.store.TxGet(tx, id, &account); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return domain.ErrAccountNotFound
			}
			return err
		}
		if err := updateFn(&account); err != nil {
			return err
		}
		updated = account
		return r.store.TxUpdate(tx, id, account)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *accountRepository) List(ctx context.Context) ([]domain.Account, error) {
	accounts := make([]domain.Account, 0)
	if err := r.store.Find(&accounts, nil); err != nil &&
		!errors.Is(err, badgerhold.ErrNotFound) {
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepository) Close() {
	// nolint:all
	r.store.Close()
}
