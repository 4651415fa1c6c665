package domain

import (
	"encoding/json"
	"fmt"
)

type Purpose uint8

const (
	PurposeUnspecified Purpose = iota
	PurposeValidate
	PurposeDeposit
	PurposeSettle
)

func (p Purpose) String() string {
	switch p {
	case PurposeValidate:
		return "Validate"
	case PurposeDeposit:
		return "Deposit"
	case PurposeSettle:
		return "Settle"
	default:
		return "Unspecified"
	}
}

func ParsePurpose(s string) (Purpose, error) {
	switch s {
	case "Validate", "validate":
		return PurposeValidate, nil
	case "Deposit", "deposit":
		return PurposeDeposit, nil
	case "Settle", "settle":
		return PurposeSettle, nil
	default:
		return PurposeUnspecified, fmt.Errorf("unknown purpose %q", s)
	}
}

// RequestPayload is the closed set of payloads sent to a provider.
type RequestPayload interface {
	isRequestPayload()
}

// ValidatePayload asks a provider to look for a transfer of ChallengeAmount
// (or the deposited amount) in ExternalTxid involving ExternalAddress.
type ValidatePayload struct {
	ExternalTxid    string
	ExternalAddress string
	ChallengeAmount uint64
	Owner           string
}

// SettlePayload asks a provider to pay Amount to Destination.
type SettlePayload struct {
	Destination string
	Amount      uint64
	Owner       string
}

func (ValidatePayload) isRequestPayload() {}
func (SettlePayload) isRequestPayload()   {}

// Verdict is the closed set of outcomes a provider can report back.
type Verdict interface {
	isVerdict()
}

type ValidationVerdict struct {
	Matched bool
	Hash    string
}

type SettlementVerdict struct {
	Success bool
	Txid    string
}

func (ValidationVerdict) isVerdict() {}
func (SettlementVerdict) isVerdict() {}

// PendingRequest is an outbound ask waiting for its callback.
// IssuedAt and ExpiresAt are in the scheduler time unit, ExpiresAt zero means
// the request never expires.
type PendingRequest struct {
	Id           string
	Purpose      Purpose
	Owner        string
	ProviderId   string
	WithdrawalId string
	Payload      RequestPayload
	IssuedAt     int64
	ExpiresAt    int64
}

// Accepts tells whether the verdict type matches the request purpose.
func (r PendingRequest) Accepts(v Verdict) bool {
	switch v.(type) {
	case ValidationVerdict:
		return r.Purpose == PurposeValidate || r.Purpose == PurposeDeposit
	case SettlementVerdict:
		return r.Purpose == PurposeSettle
	default:
		return false
	}
}

func (r PendingRequest) IsExpired(now int64) bool {
	return r.ExpiresAt > 0 && now >= r.ExpiresAt
}

type pendingRequestJSON struct {
	Id           string
	Purpose      Purpose
	Owner        string
	ProviderId   string
	WithdrawalId string
	Validate     *ValidatePayload `json:",omitempty"`
	Settle       *SettlePayload   `json:",omitempty"`
	IssuedAt     int64
	ExpiresAt    int64
}

func (r PendingRequest) MarshalJSON() ([]byte, error) {
	v := pendingRequestJSON{
		Id:           r.Id,
		Purpose:      r.Purpose,
		Owner:        r.Owner,
		ProviderId:   r.ProviderId,
		WithdrawalId: r.WithdrawalId,
		IssuedAt:     r.IssuedAt,
		ExpiresAt:    r.ExpiresAt,
	}
	switch p := r.Payload.(type) {
	case ValidatePayload:
		v.Validate = &p
	case SettlePayload:
		v.Settle = &p
	case nil:
	default:
		return nil, fmt.Errorf("unknown payload type %T", p)
	}
	return json.Marshal(v)
}

func (r *PendingRequest) UnmarshalJSON(buf []byte) error {
	var v pendingRequestJSON
	if err := json.Unmarshal(buf, &v); err != nil {
		return err
	}
	*r = PendingRequest{
		Id:           v.Id,
		Purpose:      v.Purpose,
		Owner:        v.Owner,
		ProviderId:   v.ProviderId,
		WithdrawalId: v.WithdrawalId,
		IssuedAt:     v.IssuedAt,
		ExpiresAt:    v.ExpiresAt,
	}
	switch {
	case v.Validate != nil:
		r.Payload = *v.Validate
	case v.Settle != nil:
		r.Payload = *v.Settle
	}
	return nil
}
