package application

import (
	"context"

	"github.com/hill399/linkedBtc/internal/core/domain"
	"github.com/hill399/linkedBtc/pkg/errors"
	log "github.com/sirupsen/logrus"
)

func (s *service) RegisterAccount(
	ctx context.Context, caller, externalAddress string,
) (*domain.Account, errors.Error) {
	if len(caller) <= 0 {
		return nil, errors.ACCOUNT_NOT_FOUND.New("missing account id")
	}
	if err := validateAddress(externalAddress, s.network); err != nil {
		return nil, err
	}

	return exec(ctx, s, "register", func(ctx context.Context) (*domain.Account, errors.Error) {
		account, err := s.ledger.registerAccount(ctx, caller, externalAddress)
		if err != nil {
			return nil, err
		}

		accountsRegistered.Add(ctx, 1)
		log.Infof("registered account %s with challenge %d", caller, account.ChallengeAmount)
		s.saveEvent(ctx, domain.AccountRegistered{
			AccountEvent:    newAccountEvent(caller, domain.EventTypeAccountRegistered),
			ExternalAddress: account.ExternalAddress,
			ChallengeAmount: account.ChallengeAmount,
		})
		return account, nil
	})
}

// RequestValidation burns the txid and asks the first registered provider to
// look for the challenge amount in it.
func (s *service) RequestValidation(
	ctx context.Context, caller, externalTxid string,
) (string, errors.Error) {
	txid, err := normalizeTxid(externalTxid)
	if err != nil {
		return "", err
	}

	return exec(ctx, s, "validate", func(ctx context.Context) (string, errors.Error) {
		account, err := s.ledger.getAccount(ctx, caller)
		if err != nil {
			return "", err
		}
		provider, err := s.checkProof(ctx, txid)
		if err != nil {
			return "", err
		}
		if !account.IsPendingValidation() {
			return "", accountError(
				domain.ErrInvalidState, caller, account, 0, 0, domain.AccountPendingValidation,
			)
		}

		payload := domain.ValidatePayload{
			ExternalTxid:    txid,
			ExternalAddress: account.ExternalAddress,
			ChallengeAmount: account.ChallengeAmount,
			Owner:           caller,
		}
		request, err := s.dispatchProof(ctx, *provider, domain.PurposeValidate, caller, payload)
		if err != nil {
			return "", err
		}

		s.saveEvent(ctx, domain.ValidationRequested{
			AccountEvent:  newAccountEvent(caller, domain.EventTypeValidationRequested),
			CorrelationId: request.Id,
			ProviderId:    request.ProviderId,
			ExternalTxid:  txid,
		})
		return request.Id, nil
	})
}

// RequestDeposit works like RequestValidation for an already validated
// account, a matched verdict credits amount.
func (s *service) RequestDeposit(
	ctx context.Context, caller, externalTxid string, amount uint64,
) (string, errors.Error) {
	txid, err := normalizeTxid(externalTxid)
	if err != nil {
		return "", err
	}
	if amount == 0 {
		return "", errors.INVALID_AMOUNT.New("deposit amount must be greater than zero").
			WithMetadata(errors.AmountMetadata{Amount: amount})
	}

	return exec(ctx, s, "deposit", func(ctx context.Context) (string, errors.Error) {
		account, err := s.ledger.getAccount(ctx, caller)
		if err != nil {
			return "", err
		}
		provider, err := s.checkProof(ctx, txid)
		if err != nil {
			return "", err
		}
		if !account.IsValidated() {
			return "", accountError(
				domain.ErrInvalidState, caller, account, 0, 0, domain.AccountValidated,
			)
		}

		payload := domain.ValidatePayload{
			ExternalTxid:    txid,
			ExternalAddress: account.ExternalAddress,
			ChallengeAmount: amount,
			Owner:           caller,
		}
		request, err := s.dispatchProof(ctx, *provider, domain.PurposeDeposit, caller, payload)
		if err != nil {
			return "", err
		}

		s.saveEvent(ctx, domain.DepositRequested{
			AccountEvent:  newAccountEvent(caller, domain.EventTypeDepositRequested),
			CorrelationId: request.Id,
			ProviderId:    request.ProviderId,
			ExternalTxid:  txid,
			Amount:        amount,
		})
		return request.Id, nil
	})
}

// checkProof returns the provider a proof goes to, and fails for a txid that
// already backs another proof.
func (s *service) checkProof(ctx context.Context, txid string) (*domain.Provider, errors.Error) {
	provider, err := s.firstProvider(ctx)
	if err != nil {
		return nil, err
	}
	consumed, cerr := s.guard.isConsumed(ctx, txid)
	if cerr != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(cerr)
	}
	if consumed {
		return nil, alreadyConsumed(txid)
	}
	return provider, nil
}

// dispatchProof registers the request, burns the txid and sends the request
// to provider. The txid stays consumed whatever the verdict, a failure before
// the send leaves neither the txid nor the request behind.
func (s *service) dispatchProof(
	ctx context.Context, provider domain.Provider, purpose domain.Purpose,
	caller string, payload domain.ValidatePayload,
) (*domain.PendingRequest, errors.Error) {
	request, err := s.correlator.newRequest(provider, purpose, caller, payload, "")
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	if err := s.correlator.register(ctx, request); err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}

	consumed, err := s.guard.consume(ctx, payload.ExternalTxid, caller)
	if err != nil || !consumed {
		s.correlator.discard(ctx, request.Id)
		if err != nil {
			return nil, errors.INTERNAL_ERROR.Wrap(err)
		}
		return nil, alreadyConsumed(payload.ExternalTxid)
	}

	s.correlator.submit(provider, request)
	requestsDispatched.Add(ctx, 1, purposeAttr(purpose))
	return &request, nil
}

func alreadyConsumed(txid string) errors.Error {
	return errors.ALREADY_CONSUMED.New("txid %s already consumed", txid).
		WithMetadata(errors.TxMetadata{Txid: txid})
}

func (s *service) onValidationVerdict(
	ctx context.Context, request domain.PendingRequest, verdict domain.ValidationVerdict,
) {
	payload, ok := request.Payload.(domain.ValidatePayload)
	if !ok {
		log.Warnf("request %s has no validate payload", request.Id)
		return
	}

	matched := verdict.Matched
	if matched && len(verdict.Hash) > 0 {
		expected := DepositProofHash(
			payload.ExternalTxid, payload.ExternalAddress, payload.ChallengeAmount,
		)
		if !proofMatches(expected, verdict.Hash) {
			log.Warnf("proof hash mismatch for request %s", request.Id)
			matched = false
		}
	}
	verdictsApplied.Add(ctx, 1, outcomeAttr(request.Purpose, matched))

	if request.Purpose == domain.PurposeDeposit {
		s.applyDepositVerdict(ctx, request, payload, matched)
		return
	}

	if !matched {
		log.Infof("validation %s of %s rejected", request.Id, request.Owner)
		s.saveEvent(ctx, domain.ValidationRejected{
			AccountEvent:  newAccountEvent(request.Owner, domain.EventTypeValidationRejected),
			CorrelationId: request.Id,
		})
		return
	}

	account, amount, err := s.ledger.settleChallenge(ctx, request.Owner)
	if err != nil {
		err.Log().Warnf("failed to settle challenge of %s", request.Owner)
		return
	}

	log.Infof("account %s validated, credited %d", account.Id, amount)
	s.saveEvent(ctx, domain.AccountValidatedEvent{
		AccountEvent:  newAccountEvent(request.Owner, domain.EventTypeAccountValidated),
		CorrelationId: request.Id,
		Amount:        amount,
	})
}

func (s *service) applyDepositVerdict(
	ctx context.Context, request domain.PendingRequest, payload domain.ValidatePayload,
	matched bool,
) {
	if !matched {
		log.Infof("deposit %s of %s rejected", request.Id, request.Owner)
		s.saveEvent(ctx, domain.DepositRejected{
			AccountEvent:  newAccountEvent(request.Owner, domain.EventTypeDepositRejected),
			CorrelationId: request.Id,
		})
		return
	}

	if _, err := s.ledger.credit(ctx, request.Owner, payload.ChallengeAmount); err != nil {
		err.Log().Warnf("failed to credit deposit of %s", request.Owner)
		return
	}

	log.Infof("credited deposit of %d to %s", payload.ChallengeAmount, request.Owner)
	s.saveEvent(ctx, domain.DepositCredited{
		AccountEvent:  newAccountEvent(request.Owner, domain.EventTypeDepositCredited),
		CorrelationId: request.Id,
		Amount:        payload.ChallengeAmount,
	})
}
