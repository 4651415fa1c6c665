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

type consumedTxRepository struct {
	db      *sql.DB
	querier *queries.Queries
}

func NewConsumedTxRepository(config ...interface{}) (domain.ConsumedTxRepository, error) {
	if len(config) != 1 {
		return nil, fmt.Errorf("invalid config")
	}
	db, ok := config[0].(*sql.DB)
	if !ok {
		return nil, fmt.Errorf(
			"cannot open consumed tx repository: invalid config, expected db at 0",
		)
	}

	return &consumedTxRepository{
		db:      db,
		querier: queries.New(db),
	}, nil
}

func (r *consumedTxRepository) Consume(ctx context.Context, tx domain.ConsumedTx) (bool, error) {
	if tx.ConsumedAt == 0 {
		tx.ConsumedAt = time.Now().Unix()
	}
	rows, err := r.querier.InsertConsumedTx(ctx, queries.InsertConsumedTxParams{
		Txid:       tx.Txid,
		Owner:      tx.Owner,
		ConsumedAt: tx.ConsumedAt,
	})
	if err != nil {
		return false, fmt.Errorf("failed to consume txid: %w", err)
	}
	return rows > 0, nil
}

func (r *consumedTxRepository) IsConsumed(ctx context.Context, txid string) (bool, error) {
	if _, err := r.querier.SelectConsumedTx(ctx, txid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get consumed txid: %w", err)
	}
	return true, nil
}

func (r *consumedTxRepository) Close() {
	_ = r.db.Close()
}
