package badgerdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/hill399/linkedBtc/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const withdrawalStoreDir = "withdrawals"

type withdrawalRepository struct {
	store *badgerhold.Store
}

func NewWithdrawalRepository(config ...interface{}) (domain.WithdrawalRepository, error) {
	store, err := openStore(withdrawalStoreDir, config...)
	if err != nil {
		return nil, fmt.Errorf("failed to open withdrawal store: %s", err)
	}
	return &withdrawalRepository{store}, nil
}

func (r *withdrawalRepository) Add(ctx context.Context, withdrawal domain.Withdrawal) error {
	return withRetry(r.store, func(tx *badger.Txn) error {
		return r.store.TxInsert(tx, withdrawal.Id, withdrawal)
	})
}

func (r *withdrawalRepository) Get(ctx context.Context, id string) (*domain.Withdrawal, error) {
	var withdrawal domain.Withdrawal
	if err := r.store.Get(id, &withdrawal); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrWithdrawalNotFound
		}
		return nil, fmt.Errorf("failed to get withdrawal: %w", err)
	}
	return &withdrawal, nil
}

func (r *withdrawalRepository) Update(
	ctx context.Context, id string, updateFn func(*domain.Withdrawal) error,
) (*domain.Withdrawal, error) {
	var updated domain.Withdrawal
	err := withRetry(r.store, func(tx *badger.Txn) error {
		var withdrawal domain.Withdrawal
		if err := r.store.TxGet(tx, id, &withdrawal); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return domain.ErrWithdrawalNotFound
			}
			return err
		}
		if err := updateFn(&withdrawal); err != nil {
			return err
		}
		updated = withdrawal
		return r.store.TxUpdate(tx, id, withdrawal)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *withdrawalRepository) List(
	ctx context.Context, status ...domain.WithdrawalStatus,
) ([]domain.Withdrawal, error) {
	var query *badgerhold.Query
	if len(status) > 0 {
		values := make([]interface{}, 0, len(status))
		for _, st := range status {
			values = append(values, st)
		}
		query = badgerhold.Where("Status").In(values...)
	}
	return r.find(query)
}

func (r *withdrawalRepository) ListByOwner(
	ctx context.Context, owner string,
) ([]domain.Withdrawal, error) {
	return r.find(badgerhold.Where("Owner").Eq(owner))
}

func (r *withdrawalRepository) Close() {
	// nolint:all
	r.store.Close()
}

func (r *withdrawalRepository) find(query *badgerhold.Query) ([]domain.Withdrawal, error) {
	withdrawals := make([]domain.Withdrawal, 0)
	if query == nil {
		query = &badgerhold.Query{}
	}
	if err := r.store.Find(&withdrawals, query.SortBy("CreatedAt", "Id")); err != nil &&
		!errors.Is(err, badgerhold.ErrNotFound) {
		return nil, err
	}
	return withdrawals, nil
}
