package handlers

import (
	"encoding/json"
	"fmt"
	"strings"

	bridgev1 "github.com/hill399/linkedBtc/api-spec/bridge/v1"
	"github.com/hill399/linkedBtc/internal/core/application"
	"github.com/hill399/linkedBtc/internal/core/domain"
)

func parseCaller(caller string) (string, error) {
	caller = strings.TrimSpace(caller)
	if len(caller) <= 0 {
		return "", fmt.Errorf("missing caller")
	}
	return caller, nil
}

func parseAmount(amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, fmt.Errorf("missing amount")
	}
	return amount, nil
}

func parseIds(ids []string) ([]string, error) {
	if len(ids) <= 0 {
		return nil, fmt.Errorf("missing ids")
	}
	for _, id := range ids {
		if len(strings.TrimSpace(id)) <= 0 {
			return nil, fmt.Errorf("invalid empty id")
		}
	}
	return ids, nil
}

func parseVerdictCallback(req *bridgev1.SubmitVerdictRequest) (*application.VerdictCallback, error) {
	if req == nil {
		return nil, fmt.Errorf("missing verdict")
	}
	if len(req.CorrelationId) <= 0 {
		return nil, fmt.Errorf("missing correlation id")
	}
	if len(req.ProviderId) <= 0 {
		return nil, fmt.Errorf("missing provider id")
	}

	var verdict domain.Verdict
	switch strings.ToLower(req.Kind) {
	case bridgev1.VerdictKindValidation:
		verdict = domain.ValidationVerdict{Matched: req.Matched, Hash: req.Hash}
	case bridgev1.VerdictKindSettlement:
		verdict = domain.SettlementVerdict{Success: req.Success, Txid: req.Txid}
	case "":
		return nil, fmt.Errorf("missing verdict kind")
	default:
		return nil, fmt.Errorf("unknown verdict kind %s", req.Kind)
	}

	return &application.VerdictCallback{
		CorrelationId: req.CorrelationId,
		ProviderId:    req.ProviderId,
		Signature:     req.Signature,
		Verdict:       verdict,
	}, nil
}

type account domain.Account

func (a account) toProto() *bridgev1.Account {
	return &bridgev1.Account{
		Id:               a.Id,
		ExternalAddress:  a.ExternalAddress,
		ConfirmedBalance: a.ConfirmedBalance,
		ChallengeAmount:  a.ChallengeAmount,
		State:            a.State.String(),
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

type withdrawal domain.Withdrawal

func (w withdrawal) toProto() *bridgev1.Withdrawal {
	return &bridgev1.Withdrawal{
		Id:          w.Id,
		Owner:       w.Owner,
		Destination: w.Destination,
		Amount:      w.Amount,
		Status:      w.Status.String(),
		RequestIds:  w.RequestIds,
		Failed:      w.Failed,
		Txid:        w.Txid,
		SettledBy:   w.SettledBy,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

type withdrawalList []domain.Withdrawal

func (l withdrawalList) toProto() []*bridgev1.Withdrawal {
	list := make([]*bridgev1.Withdrawal, 0, len(l))
	for _, w := range l {
		list = append(list, withdrawal(w).toProto())
	}
	return list
}

type providerList []domain.Provider

func (l providerList) toProto() []*bridgev1.Provider {
	list := make([]*bridgev1.Provider, 0, len(l))
	for _, p := range l {
		list = append(list, provider(p).toProto())
	}
	return list
}

type provider domain.Provider

func (p provider) toProto() *bridgev1.Provider {
	return &bridgev1.Provider{
		Id:      p.Id,
		JobId:   p.JobId,
		Url:     p.Url,
		Pubkey:  p.Pubkey,
		Index:   int32(p.Index),
		AddedAt: p.AddedAt,
	}
}

type pendingRequests []application.PendingRequestInfo

func (l pendingRequests) toProto() []*bridgev1.PendingRequest {
	list := make([]*bridgev1.PendingRequest, 0, len(l))
	for _, r := range l {
		req := &bridgev1.PendingRequest{
			Id:           r.Id,
			Purpose:      r.Purpose.String(),
			Owner:        r.Owner,
			ProviderId:   r.ProviderId,
			WithdrawalId: r.WithdrawalId,
			IssuedAt:     r.IssuedAt,
			ExpiresAt:    r.ExpiresAt,
			Expired:      r.Expired,
		}
		switch p := r.Payload.(type) {
		case domain.ValidatePayload:
			req.ExternalTxid = p.ExternalTxid
			req.Amount = p.ChallengeAmount
		case domain.SettlePayload:
			req.Destination = p.Destination
			req.Amount = p.Amount
		}
		list = append(list, req)
	}
	return list
}

// toEvent serializes the domain event as the stream payload. The domain event
// id is the account id.
func toEvent(e domain.Event) (*bridgev1.Event, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s event: %s", e.GetType(), err)
	}
	return &bridgev1.Event{
		AccountId: e.GetId(),
		Type:      string(e.GetType()),
		Payload:   payload,
	}, nil
}

type eventList []domain.Event

func (l eventList) toProto() ([]*bridgev1.Event, error) {
	list := make([]*bridgev1.Event, 0, len(l))
	for _, e := range l {
		ev, err := toEvent(e)
		if err != nil {
			return nil, err
		}
		list = append(list, ev)
	}
	return list, nil
}
