package pgdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hill399/linkedBtc/internal/core/domain"
	"github.com/hill399/linkedBtc/internal/infrastructure/db/postgres/sqlc/queries"
)

type accountRepository struct {
	db      *sql.DB
	querier *queries.Queries
}

func NewAccountRepository(config ...interface{}) (domain.AccountRepository, error) {
	if len(config) != 1 {
		return nil, fmt.Errorf("invalid config")
	}
	db, ok := config[0].(*sql.DB)
	if !ok {
		return nil, fmt.Errorf("cannot open account repository: invalid config, expected db at 0")
	}

	return &accountRepository{
		db:      db,
		querier: queries.New(db),
	}, nil
}

func (r *accountRepository) Add(ctx context.Context, account domain.Account) error {
	rows, err := r.querier.InsertAccount(ctx, queries.InsertAccountParams{
		ID:               account.Id,
		ExternalAddress:  account.ExternalAddress,
		ConfirmedBalance: int64(account.ConfirmedBalance),
		HoldingBalance:   int64(account.HoldingBalance),
		ChallengeAmount:  int64(account.ChallengeAmount),
		State:            int32(account.State),
		CreatedAt:        account.CreatedAt,
		UpdatedAt:        account.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	if rows == 0 {
		return domain.ErrAccountExists
	}
	return nil
}

func (r *accountRepository) Get(ctx context.Context, id string) (*domain.Account, error) {
	row, err := r.querier.SelectAccount(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	account := toAccount(row)
	return &account, nil
}

func (r *accountRepository) Update(
	ctx context.Context, id string, updateFn func(*domain.Account) error,
) (*domain.Account, error) {
	var updated domain.Account
	if err := execTx(ctx, r.db, func(querierWithTx *queries.Queries) error {
		row, err := querierWithTx.SelectAccountForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrAccountNotFound
			}
			return err
		}
		account := toAccount(row)
		if err := updateFn(&account); err != nil {
			return err
		}
		updated = account
		return querierWithTx.UpdateAccount(ctx, queries.UpdateAccountParams{
			ID:               account.Id,
			ConfirmedBalance: int64(account.ConfirmedBalance),
			HoldingBalance:   int64(account.HoldingBalance),
			ChallengeAmount:  int64(account.ChallengeAmount),
			State:            int32(account.State),
			UpdatedAt:        account.UpdatedAt,
		})
	}); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *accountRepository) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.querier.SelectAllAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	accounts := make([]domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, toAccount(row))
	}
	return accounts, nil
}

func (r *accountRepository) Close() {
	_ = r.db.Close()
}

func toAccount(row queries.Account) domain.Account {
	return domain.Account{
		Id:               row.ID,
		ExternalAddress:  row.ExternalAddress,
		ConfirmedBalance: uint64(row.ConfirmedBalance),
		HoldingBalance:   uint64(row.HoldingBalance),
		ChallengeAmount:  uint64(row.ChallengeAmount),
		State:            domain.AccountState(row.State),
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}
