package application

import (
	"context"

	"github.com/hill399/linkedBtc/internal/core/domain"
	"github.com/hill399/linkedBtc/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ReconcileWithdrawal applies an operator decision to a withdrawal debited
// but not known to be paid. recredit is the only path that gives the amount
// back to the ledger.
func (s *service) ReconcileWithdrawal(
	ctx context.Context, id string, resolution Resolution, txid string,
) (*domain.Withdrawal, errors.Error) {
	if resolution == ResolutionSettle {
		normalized, err := normalizeTxid(txid)
		if err != nil {
			return nil, err
		}
		txid = normalized
	}

	return exec(ctx, s, "reconcile", func(ctx context.Context) (*domain.Withdrawal, errors.Error) {
		current, err := s.repoManager.Withdrawals().Get(ctx, id)
		if err != nil {
			return nil, withdrawalError(err, id, domain.WithdrawalPending)
		}

		recredit := resolution == ResolutionRecredit
		check := *current
		if err := check.Reconcile(recredit, txid); err != nil {
			return nil, withdrawalError(err, id, current.Status)
		}

		if !recredit {
			consumed, err := s.guard.consume(ctx, txid, current.Owner)
			if err != nil {
				return nil, errors.INTERNAL_ERROR.Wrap(err)
			}
			if !consumed {
				return nil, alreadyConsumed(txid)
			}
		}

		withdrawal, err := s.repoManager.Withdrawals().Update(
			ctx, id, func(w *domain.Withdrawal) error {
				return w.Reconcile(recredit, txid)
			},
		)
		if err != nil {
			return nil, withdrawalError(err, id, current.Status)
		}

		if recredit {
			if _, err := s.ledger.credit(ctx, withdrawal.Owner, withdrawal.Amount); err != nil {
				err.Log().Errorf(
					"withdrawal %s marked recredited but crediting %s failed",
					withdrawal.Id, withdrawal.Owner,
				)
				return nil, err
			}
		}

		log.Infof("withdrawal %s reconciled with %s", withdrawal.Id, resolution)
		s.saveEvent(ctx, domain.WithdrawalReconciled{
			AccountEvent: newAccountEvent(withdrawal.Owner, domain.EventTypeWithdrawalReconciled),
			WithdrawalId: withdrawal.Id,
			Resolution:   string(resolution),
			Txid:         withdrawal.Txid,
		})
		return withdrawal, nil
	})
}
