package application

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/hill399/linkedBtc/internal/core/domain"
	lbtcerrors "github.com/hill399/linkedBtc/pkg/errors"
)

const verdictTag = "linkedbtc/verdict"

// ChainParams maps a network name to its btcd parameters.
func ChainParams(network string) (*chaincfg.Params, error) {
	switch network {
	case chaincfg.MainNetParams.Name, "bitcoin":
		return &chaincfg.MainNetParams, nil
	case chaincfg.TestNet3Params.Name, "testnet":
		return &chaincfg.TestNet3Params, nil
	case chaincfg.SigNetParams.Name:
		return &chaincfg.SigNetParams, nil
	case chaincfg.RegressionNetParams.Name:
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, fmt.Errorf("unknown network %s", network)
	}
}

func validateAddress(address string, params *chaincfg.Params) lbtcerrors.Error {
	addr, err := btcutil.DecodeAddress(address, params)
	if err != nil {
		return lbtcerrors.INVALID_ADDRESS.New("failed to decode address: %s", err).
			WithMetadata(lbtcerrors.AddressMetadata{Address: address, Network: params.Name})
	}
	if !addr.IsForNet(params) {
		return lbtcerrors.INVALID_ADDRESS.New("address is not for network %s", params.Name).
			WithMetadata(lbtcerrors.AddressMetadata{Address: address, Network: params.Name})
	}
	return nil
}

// normalizeTxid validates a 64-hex txid and returns it lowercased.
func normalizeTxid(txid string) (string, lbtcerrors.Error) {
	if len(txid) != chainhash.MaxHashStringSize {
		return "", lbtcerrors.INVALID_TXID.New(
			"txid must be %d hex chars, got %d", chainhash.MaxHashStringSize, len(txid),
		).WithMetadata(lbtcerrors.TxMetadata{Txid: txid})
	}
	if _, err := chainhash.NewHashFromStr(txid); err != nil {
		return "", lbtcerrors.INVALID_TXID.New("invalid txid: %s", err).
			WithMetadata(lbtcerrors.TxMetadata{Txid: txid})
	}
	return strings.ToLower(txid), nil
}

// VerdictMessage is the digest a provider signs when delivering a callback.
func VerdictMessage(correlationId, providerId string, verdict domain.Verdict) []byte {
	outcome := ""
	switch v := verdict.(type) {
	case domain.ValidationVerdict:
		outcome = fmt.Sprintf("matched=%t;hash=%s", v.Matched, strings.ToLower(v.Hash))
	case domain.SettlementVerdict:
		outcome = fmt.Sprintf("success=%t;txid=%s", v.Success, strings.ToLower(v.Txid))
	}
	h := sha256.New()
	h.Write([]byte(verdictTag))
	h.Write([]byte(correlationId))
	h.Write([]byte(providerId))
	h.Write([]byte(outcome))
	return h.Sum(nil)
}

func verifyVerdictSignature(provider domain.Provider, callback VerdictCallback) error {
	pubkeyBytes, err := hex.DecodeString(provider.Pubkey)
	if err != nil {
		return fmt.Errorf("invalid provider pubkey: %w", err)
	}
	pubkey, err := schnorr.ParsePubKey(pubkeyBytes)
	if err != nil {
		return fmt.Errorf("invalid provider pubkey: %w", err)
	}
	sigBytes, err := hex.DecodeString(callback.Signature)
	if err != nil {
		return fmt.Errorf("invalid signature encoding: %w", err)
	}
	sig, err := schnorr.ParseSignature(sigBytes)
	if err != nil {
		return fmt.Errorf("invalid signature: %w", err)
	}
	msg := VerdictMessage(callback.CorrelationId, callback.ProviderId, callback.Verdict)
	if !sig.Verify(msg, pubkey) {
		return fmt.Errorf("signature does not match provider key")
	}
	return nil
}

func validateProviderPubkey(pubkey string) error {
	if len(pubkey) <= 0 {
		return nil
	}
	buf, err := hex.DecodeString(pubkey)
	if err != nil {
		return err
	}
	_, err = schnorr.ParsePubKey(buf)
	return err
}

// accountError maps the ledger sentinel errors to typed errors. account is the
// snapshot seen by the failed update and may be nil.
func accountError(
	err error, caller string, account *domain.Account, amount, minWithdraw uint64,
	expected domain.AccountState,
) lbtcerrors.Error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrAccountNotFound):
		return lbtcerrors.ACCOUNT_NOT_FOUND.New("account %s not found", caller).
			WithMetadata(lbtcerrors.AccountMetadata{AccountId: caller})
	case errors.Is(err, domain.ErrAccountExists):
		return lbtcerrors.ALREADY_REGISTERED.New("account %s already registered", caller).
			WithMetadata(lbtcerrors.AccountMetadata{AccountId: caller})
	case errors.Is(err, domain.ErrInvalidState):
		state := domain.AccountUnregistered
		if account != nil {
			state = account.State
		}
		return lbtcerrors.INVALID_STATE.New(
			"account %s is %s, expected %s", caller, state, expected,
		).WithMetadata(lbtcerrors.InvalidStateMetadata{
			AccountId:     caller,
			State:         state.String(),
			ExpectedState: expected.String(),
		})
	case errors.Is(err, domain.ErrBelowMinimum):
		return lbtcerrors.BELOW_MINIMUM.New(
			"amount %d is below minimum withdraw %d", amount, minWithdraw,
		).WithMetadata(lbtcerrors.BelowMinimumMetadata{Amount: amount, MinAmount: minWithdraw})
	case errors.Is(err, domain.ErrInsufficientBalance):
		balance := uint64(0)
		if account != nil {
			balance = account.ConfirmedBalance
		}
		return lbtcerrors.INSUFFICIENT_BALANCE.New("%s", err).
			WithMetadata(lbtcerrors.InsufficientBalanceMetadata{
				AccountId: caller,
				Amount:    amount,
				Balance:   balance,
			})
	case errors.Is(err, domain.ErrInvalidAmount):
		return lbtcerrors.INVALID_AMOUNT.New("%s", err).
			WithMetadata(lbtcerrors.AmountMetadata{Amount: amount})
	default:
		return lbtcerrors.INTERNAL_ERROR.Wrap(err)
	}
}

func withdrawalError(err error, id string, status domain.WithdrawalStatus) lbtcerrors.Error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrWithdrawalNotFound):
		return lbtcerrors.WITHDRAWAL_NOT_FOUND.New("withdrawal %s not found", id).
			WithMetadata(lbtcerrors.WithdrawalMetadata{WithdrawalId: id})
	case errors.Is(err, domain.ErrInvalidReconcile):
		return lbtcerrors.INVALID_RECONCILIATION.New("%s", err).
			WithMetadata(lbtcerrors.WithdrawalMetadata{WithdrawalId: id, Status: status.String()})
	default:
		return lbtcerrors.INTERNAL_ERROR.Wrap(err)
	}
}
