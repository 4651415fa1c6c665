package pgdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hill399/linkedBtc/internal/core/domain"
	"github.com/hill399/linkedBtc/internal/infrastructure/db/postgres/sqlc/queries"
)

type providerRepository struct {
	db      *sql.DB
	querier *queries.Queries
}

func NewProviderRepository(config ...interface{}) (domain.ProviderRepository, error) {
	if len(config) != 1 {
		return nil, fmt.Errorf("invalid config")
	}
	db, ok := config[0].(*sql.DB)
	if !ok {
		return nil, fmt.Errorf("cannot open provider repository: invalid config, expected db at 0")
	}

	return &providerRepository{
		db:      db,
		querier: queries.New(db),
	}, nil
}

// Add appends the provider, concurrent writers racing on the same index are
// retried by execTx.
func (r *providerRepository) Add(
	ctx context.Context, provider domain.Provider,
) (*domain.Provider, error) {
	if provider.AddedAt == 0 {
		provider.AddedAt = time.Now().Unix()
	}
	if err := execTx(ctx, r.db, func(querierWithTx *queries.Queries) error {
		count, err := querierWithTx.CountProviders(ctx)
		if err != nil {
			return err
		}
		provider.Index = int(count)
		rows, err := querierWithTx.InsertProvider(ctx, queries.InsertProviderParams{
			ID:      provider.Id,
			JobID:   provider.JobId,
			Url:     provider.Url,
			Pubkey:  provider.Pubkey,
			Idx:     int32(provider.Index),
			AddedAt: provider.AddedAt,
		})
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrProviderExists
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &provider, nil
}

func (r *providerRepository) Get(ctx context.Context, id string) (*domain.Provider, error) {
	row, err := r.querier.SelectProvider(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProviderNotFound
		}
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	provider := toProvider(row)
	return &provider, nil
}

func (r *providerRepository) List(ctx context.Context) ([]domain.Provider, error) {
	rows, err := r.querier.SelectAllProviders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	providers := make([]domain.Provider, 0, len(rows))
	for _, row := range rows {
		providers = append(providers, toProvider(row))
	}
	return providers, nil
}

func (r *providerRepository) Close() {
	_ = r.db.Close()
}

func toProvider(row queries.Provider) domain.Provider {
	return domain.Provider{
		Id:      row.ID,
		JobId:   row.JobID,
		Url:     row.Url,
		Pubkey:  row.Pubkey,
		Index:   int(row.Idx),
		AddedAt: row.AddedAt,
	}
}
