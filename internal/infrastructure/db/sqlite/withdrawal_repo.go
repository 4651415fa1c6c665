package sqlitedb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/hill399/linkedBtc/internal/core/domain"
	"github.com/hill399/linkedBtc/internal/infrastructure/db/sqlite/sqlc/queries"
)

type withdrawalRepository struct {
	db      *sql.DB
	querier *queries.Queries
}

func NewWithdrawalRepository(config ...interface{}) (domain.WithdrawalRepository, error) {
	if len(config) != 1 {
		return nil, fmt.Errorf("invalid config")
	}
	db, ok := config[0].(*sql.DB)
	if !ok {
		return nil, fmt.Errorf(
			"cannot open withdrawal repository: invalid config, expected db at 0",
		)
	}

	return &withdrawalRepository{
		db:      db,
		querier: queries.New(db),
	}, nil
}

func (r *withdrawalRepository) Add(ctx context.Context, w domain.Withdrawal) error {
	requestIds, err := toJSONList(w.RequestIds)
	if err != nil {
		return err
	}
	failed, err := toJSONList(w.Failed)
	if err != nil {
		return err
	}
	if err := r.querier.InsertWithdrawal(ctx, queries.InsertWithdrawalParams{
		ID:          w.Id,
		Owner:       w.Owner,
		Destination: w.Destination,
		Amount:      int64(w.Amount),
		RequestIds:  requestIds,
		Failed:      failed,
		Status:      int64(w.Status),
		Txid:        w.Txid,
		SettledBy:   w.SettledBy,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}); err != nil {
		return fmt.Errorf("failed to insert withdrawal: %w", err)
	}
	return nil
}

func (r *withdrawalRepository) Get(ctx context.Context, id string) (*domain.Withdrawal, error) {
	row, err := r.querier.SelectWithdrawal(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrWithdrawalNotFound
		}
		return nil, fmt.Errorf("failed to get withdrawal: %w", err)
	}
	return toWithdrawal(row)
}

func (r *withdrawalRepository) Update(
	ctx context.Context, id string, updateFn func(*domain.Withdrawal) error,
) (*domain.Withdrawal, error) {
	var updated *domain.Withdrawal
	if err := execTx(ctx, r.db, func(querierWithTx *queries.Queries) error {
		row, err := querierWithTx.SelectWithdrawal(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrWithdrawalNotFound
			}
			return err
		}
		w, err := toWithdrawal(row)
		if err != nil {
			return err
		}
		if err := updateFn(w); err != nil {
			return err
		}
		failed, err := toJSONList(w.Failed)
		if err != nil {
			return err
		}
		updated = w
		return querierWithTx.UpdateWithdrawal(ctx, queries.UpdateWithdrawalParams{
			ID:        w.Id,
			Failed:    failed,
			Status:    int64(w.Status),
			Txid:      w.Txid,
			SettledBy: w.SettledBy,
			UpdatedAt: w.UpdatedAt,
		})
	}); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *withdrawalRepository) List(
	ctx context.Context, status ...domain.WithdrawalStatus,
) ([]domain.Withdrawal, error) {
	if len(status) <= 0 {
		rows, err := r.querier.SelectAllWithdrawals(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list withdrawals: %w", err)
		}
		return toWithdrawals(rows)
	}

	all := make([]domain.Withdrawal, 0)
	for _, st := range status {
		rows, err := r.querier.SelectWithdrawalsByStatus(ctx, int64(st))
		if err != nil {
			return nil, fmt.Errorf("failed to list %s withdrawals: %w", st, err)
		}
		withdrawals, err := toWithdrawals(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, withdrawals...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt < all[j].CreatedAt
	})
	return all, nil
}

func (r *withdrawalRepository) ListByOwner(
	ctx context.Context, owner string,
) ([]domain.Withdrawal, error) {
	rows, err := r.querier.SelectWithdrawalsByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals of %s: %w", owner, err)
	}
	return toWithdrawals(rows)
}

func (r *withdrawalRepository) Close() {
	_ = r.db.Close()
}

func toJSONList(ids []string) (string, error) {
	if len(ids) <= 0 {
		return "", nil
	}
	buf, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("failed to serialize ids: %w", err)
	}
	return string(buf), nil
}

func fromJSONList(list string) ([]string, error) {
	if len(list) <= 0 {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(list), &ids); err != nil {
		return nil, fmt.Errorf("failed to deserialize ids: %w", err)
	}
	return ids, nil
}

func toWithdrawal(row queries.Withdrawal) (*domain.Withdrawal, error) {
	requestIds, err := fromJSONList(row.RequestIds)
	if err != nil {
		return nil, err
	}
	failed, err := fromJSONList(row.Failed)
	if err != nil {
		return nil, err
	}
	return &domain.Withdrawal{
		Id:          row.ID,
		Owner:       row.Owner,
		Destination: row.Destination,
		Amount:      uint64(row.Amount),
		RequestIds:  requestIds,
		Failed:      failed,
		Status:      domain.WithdrawalStatus(row.Status),
		Txid:        row.Txid,
		SettledBy:   row.SettledBy,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

func toWithdrawals(rows []queries.Withdrawal) ([]domain.Withdrawal, error) {
	withdrawals := make([]domain.Withdrawal, 0, len(rows))
	for _, row := range rows {
		w, err := toWithdrawal(row)
		if err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, *w)
	}
	return withdrawals, nil
}
