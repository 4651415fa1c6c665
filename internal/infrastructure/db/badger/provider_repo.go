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

const providerStoreDir = "providers"

type providerRepository struct {
	store *badgerhold.Store
}

func NewProviderRepository(config ...interface{}) (domain.ProviderRepository, error) {
	store, err := openStore(providerStoreDir, config...)
	if err != nil {
		return nil, fmt.Errorf("failed to open provider store: %s", err)
	}
	return &providerRepository{store}, nil
}

func (r *providerRepository) Add(
	ctx context.Context, provider domain.Provider,
) (*domain.Provider, error) {
	err := withRetry(r.store, func(tx *badger.Txn) error {
		count, err := r.store.TxCount(tx, &domain.Provider{}, nil)
		if err != nil {
			return err
		}
		provider.Index = int(count)
		if provider.AddedAt == 0 {
			provider.AddedAt = time.Now().Unix()
		}
		return r.store.TxInsert(tx, provider.Id, provider)
	})
	if err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return nil, domain.ErrProviderExists
		}
		return nil, err
	}
	return &provider, nil
}

func (r *providerRepository) Get(ctx context.Context, id string) (*domain.Provider, error) {
	var provider domain.Provider
	if err := r.store.Get(id, &provider); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrProviderNotFound
		}
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	return &provider, nil
}

func (r *providerRepository) List(ctx context.Context) ([]domain.Provider, error) {
	providers := make([]domain.Provider, 0)
	query := (&badgerhold.Query{}).SortBy("Index")
	if err := r.store.Find(&providers, query); err != nil &&
		!errors.Is(err, badgerhold.ErrNotFound) {
		return nil, err
	}
	return providers, nil
}

func (r *providerRepository) Close() {
	// nolint:all
	r.store.Close()
}
