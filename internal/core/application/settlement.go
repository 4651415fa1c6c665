package application

import (
	"context"

	"github.com/google/uuid"
	"github.com/hill399/linkedBtc/internal/core/domain"
	"github.com/hill399/linkedBtc/internal/core/ports"
	"github.com/hill399/linkedBtc/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// RequestWithdrawal debits the account up front and fans the payout out to
// every registered provider. A failed or missing payout is never re-credited
// automatically, see ReconcileWithdrawal.
func (s *service) RequestWithdrawal(
	ctx context.Context, caller, destination string, amount uint64,
) (*domain.Withdrawal, errors.Error) {
	if err := validateAddress(destination, s.network); err != nil {
		return nil, err
	}

	return exec(ctx, s, "withdraw", func(ctx context.Context) (*domain.Withdrawal, errors.Error) {
		account, err := s.ledger.getAccount(ctx, caller)
		if err != nil {
			return nil, err
		}
		if !account.IsValidated() {
			return nil, accountError(
				domain.ErrInvalidState, caller, account, amount, s.minWithdraw,
				domain.AccountValidated,
			)
		}
		if amount < s.minWithdraw {
			return nil, accountError(
				domain.ErrBelowMinimum, caller, account, amount, s.minWithdraw,
				domain.AccountValidated,
			)
		}

		providers, err := s.listProviders(ctx)
		if err != nil {
			return nil, err
		}

		if _, err := s.ledger.debit(ctx, caller, amount); err != nil {
			return nil, err
		}

		withdrawal := domain.NewWithdrawal(uuid.New().String(), caller, destination, amount)
		payload := domain.SettlePayload{
			Destination: destination,
			Amount:      amount,
			Owner:       caller,
		}
		outbound := make([]outboundRequest, 0, len(providers))
		for _, provider := range providers {
			request, err := s.correlator.newRequest(
				provider, domain.PurposeSettle, caller, payload, withdrawal.Id,
			)
			if err == nil {
				err = s.correlator.register(ctx, request)
			}
			if err != nil {
				log.WithError(err).Warnf(
					"failed to dispatch withdrawal %s to provider %s", withdrawal.Id, provider.Id,
				)
				continue
			}
			outbound = append(outbound, outboundRequest{provider, request})
			withdrawal.RequestIds = append(withdrawal.RequestIds, request.Id)
		}
		if len(withdrawal.RequestIds) <= 0 {
			withdrawal.Status = domain.WithdrawalUnsettled
		}

		// nothing is sent before the withdrawal is stored, a failure here
		// rolls back the debit and the registered requests
		if err := s.repoManager.Withdrawals().Add(ctx, *withdrawal); err != nil {
			log.WithError(err).Errorf(
				"failed to store withdrawal %s of %d from %s, rolling back", withdrawal.Id, amount, caller,
			)
			for _, out := range outbound {
				s.correlator.discard(ctx, out.request.Id)
			}
			if _, cerr := s.ledger.credit(ctx, caller, amount); cerr != nil {
				cerr.Log().Errorf("failed to restore %d debited from %s", amount, caller)
			}
			return nil, errors.INTERNAL_ERROR.Wrap(err)
		}

		for _, out := range outbound {
			s.correlator.submit(out.provider, out.request)
			requestsDispatched.Add(ctx, 1, purposeAttr(domain.PurposeSettle))
		}

		log.Infof(
			"withdrawal %s of %d from %s fanned out to %d providers",
			withdrawal.Id, amount, caller, len(withdrawal.RequestIds),
		)
		s.saveEvent(ctx, domain.WithdrawalRequested{
			AccountEvent: newAccountEvent(caller, domain.EventTypeWithdrawalRequested),
			WithdrawalId: withdrawal.Id,
			Destination:  destination,
			Amount:       amount,
			RequestIds:   withdrawal.RequestIds,
		})
		if withdrawal.Status == domain.WithdrawalUnsettled {
			s.notifyUnsettled(ctx, *withdrawal)
		}
		return withdrawal, nil
	})
}

func (s *service) onSettlementVerdict(
	ctx context.Context, request domain.PendingRequest, verdict domain.SettlementVerdict,
) {
	verdictsApplied.Add(ctx, 1, outcomeAttr(request.Purpose, verdict.Success))

	if !verdict.Success {
		log.Infof("provider %s failed to settle request %s", request.ProviderId, request.Id)
		s.failSettlement(ctx, request)
		return
	}

	// a payout txid can settle a single withdrawal
	if len(verdict.Txid) > 0 {
		txid, err := normalizeTxid(verdict.Txid)
		if err != nil {
			err.Log().Warnf("provider %s reported an invalid payout txid", request.ProviderId)
			s.failSettlement(ctx, request)
			return
		}
		consumed, cerr := s.guard.consume(ctx, txid, request.Owner)
		if cerr != nil {
			// the request is already resolved, count it as failed so the
			// withdrawal can still become unsettled
			log.WithError(cerr).Warnf("failed to burn payout txid %s", txid)
			s.failSettlement(ctx, request)
			return
		}
		if !consumed {
			log.Warnf("payout txid %s of request %s already consumed", txid, request.Id)
			s.failSettlement(ctx, request)
			return
		}
		verdict.Txid = txid
	}

	settled := false
	withdrawal, err := s.repoManager.Withdrawals().Update(
		ctx, request.WithdrawalId, func(w *domain.Withdrawal) error {
			settled = w.Settle(verdict.Txid, request.ProviderId)
			return nil
		},
	)
	if err != nil {
		log.WithError(err).Warnf("failed to settle withdrawal %s", request.WithdrawalId)
		return
	}
	if !settled {
		log.Debugf("withdrawal %s already settled, ignoring %s", withdrawal.Id, request.Id)
		return
	}

	log.Infof("withdrawal %s settled by %s in %s", withdrawal.Id, request.ProviderId, verdict.Txid)
	s.saveEvent(ctx, domain.WithdrawalSettledEvent{
		AccountEvent: newAccountEvent(withdrawal.Owner, domain.EventTypeWithdrawalSettled),
		WithdrawalId: withdrawal.Id,
		ProviderId:   request.ProviderId,
		Txid:         verdict.Txid,
	})
	publishAlert(s.alerts, ports.WithdrawalSettled, getWithdrawalStats(*withdrawal, 0))
}

// failSettlement records a fan-out request that ended without success and
// flags the withdrawal once none is left outstanding.
func (s *service) failSettlement(ctx context.Context, request domain.PendingRequest) {
	unsettled := false
	withdrawal, err := s.repoManager.Withdrawals().Update(
		ctx, request.WithdrawalId, func(w *domain.Withdrawal) error {
			unsettled = w.Fail(request.Id)
			return nil
		},
	)
	if err != nil {
		log.WithError(err).Warnf("failed to update withdrawal %s", request.WithdrawalId)
		return
	}
	if unsettled {
		s.notifyUnsettled(ctx, *withdrawal)
	}
}

func (s *service) notifyUnsettled(ctx context.Context, withdrawal domain.Withdrawal) {
	withdrawalsUnsettled.Add(ctx, 1)
	log.Warnf(
		"withdrawal %s of %d from %s is unsettled, reconciliation required",
		withdrawal.Id, withdrawal.Amount, withdrawal.Owner,
	)
	s.saveEvent(ctx, domain.WithdrawalUnsettledEvent{
		AccountEvent: newAccountEvent(withdrawal.Owner, domain.EventTypeWithdrawalUnsettled),
		WithdrawalId: withdrawal.Id,
		Amount:       withdrawal.Amount,
	})

	total := uint64(0)
	if accounts, err := s.repoManager.Accounts().List(ctx); err == nil {
		for _, a := range accounts {
			total += a.ConfirmedBalance
		}
	}
	publishAlert(s.alerts, ports.WithdrawalUnsettled, getWithdrawalStats(withdrawal, total))
}
