package application

import (
	"context"
	"time"

	"github.com/hill399/linkedBtc/internal/core/domain"
)

// replayGuard burns external txids so that each one backs at most one
// validation, deposit or payout.
type replayGuard struct {
	repo domain.ConsumedTxRepository
}

func newReplayGuard(repo domain.ConsumedTxRepository) *replayGuard {
	return &replayGuard{repo}
}

func (g *replayGuard) consume(ctx context.Context, txid, owner string) (bool, error) {
	return g.repo.Consume(ctx, domain.ConsumedTx{
		Txid:       txid,
		Owner:      owner,
		ConsumedAt: time.Now().Unix(),
	})
}

func (g *replayGuard) isConsumed(ctx context.Context, txid string) (bool, error) {
	return g.repo.IsConsumed(ctx, txid)
}
