// Package bridgev1 holds the wire types and service descriptors of the
// linkedBtc bridge API. Messages travel as JSON over gRPC (content-subtype
// "json") and over the REST gateway.
package bridgev1

import "encoding/json"

type Account struct {
	Id               string `json:"id"`
	ExternalAddress  string `json:"external_address"`
	ConfirmedBalance uint64 `json:"confirmed_balance"`
	ChallengeAmount  uint64 `json:"challenge_amount,omitempty"`
	State            string `json:"state"`
	CreatedAt        int64  `json:"created_at"`
	UpdatedAt        int64  `json:"updated_at"`
}

type Withdrawal struct {
	Id          string   `json:"id"`
	Owner       string   `json:"owner"`
	Destination string   `json:"destination"`
	Amount      uint64   `json:"amount"`
	Status      string   `json:"status"`
	RequestIds  []string `json:"request_ids"`
	Failed      []string `json:"failed,omitempty"`
	Txid        string   `json:"txid,omitempty"`
	SettledBy   string   `json:"settled_by,omitempty"`
	CreatedAt   int64    `json:"created_at"`
	UpdatedAt   int64    `json:"updated_at"`
}

type Provider struct {
	Id      string `json:"id"`
	JobId   string `json:"job_id"`
	Url     string `json:"url,omitempty"`
	Pubkey  string `json:"pubkey,omitempty"`
	Index   int32  `json:"index"`
	AddedAt int64  `json:"added_at"`
}

type PendingRequest struct {
	Id           string `json:"id"`
	Purpose      string `json:"purpose"`
	Owner        string `json:"owner"`
	ProviderId   string `json:"provider_id"`
	WithdrawalId string `json:"withdrawal_id,omitempty"`
	ExternalTxid string `json:"external_txid,omitempty"`
	Destination  string `json:"destination,omitempty"`
	Amount       uint64 `json:"amount"`
	IssuedAt     int64  `json:"issued_at"`
	ExpiresAt    int64  `json:"expires_at"`
	Expired      bool   `json:"expired"`
}

type Event struct {
	AccountId string          `json:"account_id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
}

// Bridge service.

type RegisterAccountRequest struct {
	Caller          string `json:"caller"`
	ExternalAddress string `json:"external_address"`
}

func (x *RegisterAccountRequest) GetCaller() string {
	if x == nil {
		return ""
	}
	return x.Caller
}

type RegisterAccountResponse struct {
	Account *Account `json:"account"`
}

type GetAccountRequest struct {
	Caller string `json:"caller"`
}

func (x *GetAccountRequest) GetCaller() string {
	if x == nil {
		return ""
	}
	return x.Caller
}

type GetAccountResponse struct {
	Account *Account `json:"account"`
}

type RequestValidationRequest struct {
	Caller       string `json:"caller"`
	ExternalTxid string `json:"external_txid"`
}

func (x *RequestValidationRequest) GetCaller() string {
	if x == nil {
		return ""
	}
	return x.Caller
}

type RequestValidationResponse struct {
	CorrelationId string `json:"correlation_id"`
}

type RequestDepositRequest struct {
	Caller       string `json:"caller"`
	ExternalTxid string `json:"external_txid"`
	Amount       uint64 `json:"amount"`
}

func (x *RequestDepositRequest) GetCaller() string {
	if x == nil {
		return ""
	}
	return x.Caller
}

type RequestDepositResponse struct {
	CorrelationId string `json:"correlation_id"`
}

type RequestWithdrawalRequest struct {
	Caller      string `json:"caller"`
	Destination string `json:"destination"`
	Amount      uint64 `json:"amount"`
}

func (x *RequestWithdrawalRequest) GetCaller() string {
	if x == nil {
		return ""
	}
	return x.Caller
}

type RequestWithdrawalResponse struct {
	Withdrawal *Withdrawal `json:"withdrawal"`
}

type GetWithdrawalRequest struct {
	Caller string `json:"caller"`
	Id     string `json:"id"`
}

func (x *GetWithdrawalRequest) GetCaller() string {
	if x == nil {
		return ""
	}
	return x.Caller
}

type GetWithdrawalResponse struct {
	Withdrawal *Withdrawal `json:"withdrawal"`
}

// GetEventStreamRequest filters the stream by account when Caller is set.
type GetEventStreamRequest struct {
	Caller string `json:"caller,omitempty"`
}

func (x *GetEventStreamRequest) GetCaller() string {
	if x == nil {
		return ""
	}
	return x.Caller
}

type GetEventStreamResponse struct {
	Event     *Event `json:"event,omitempty"`
	Heartbeat bool   `json:"heartbeat,omitempty"`
}

type GetInfoRequest struct{}

type GetInfoResponse struct {
	Version          string `json:"version"`
	Network          string `json:"network"`
	MinWithdraw      uint64 `json:"min_withdraw"`
	ChallengeFloor   uint64 `json:"challenge_floor"`
	RequestTtl       int64  `json:"request_ttl"`
	TimeUnit         string `json:"time_unit"`
	Providers        int32  `json:"providers"`
	PendingRequests  int64  `json:"pending_requests"`
	CustodyEnabled   bool   `json:"custody_enabled"`
	CustodyTreasury  string `json:"custody_treasury,omitempty"`
	BridgeIdentifier string `json:"bridge_identifier"`
}

// Provider service.

const (
	VerdictKindValidation = "validation"
	VerdictKindSettlement = "settlement"
)

// SubmitVerdictRequest carries either a validation verdict (Matched, Hash)
// or a settlement verdict (Success, Txid), selected by Kind.
type SubmitVerdictRequest struct {
	CorrelationId string `json:"correlation_id"`
	ProviderId    string `json:"provider_id"`
	Signature     string `json:"signature,omitempty"`
	Kind          string `json:"kind"`
	Matched       bool   `json:"matched,omitempty"`
	Hash          string `json:"hash,omitempty"`
	Success       bool   `json:"success,omitempty"`
	Txid          string `json:"txid,omitempty"`
}

type SubmitVerdictResponse struct{}

// Admin service.

type AddProviderRequest struct {
	Id     string `json:"id"`
	JobId  string `json:"job_id"`
	Url    string `json:"url"`
	Pubkey string `json:"pubkey,omitempty"`
}

type AddProviderResponse struct {
	Provider *Provider `json:"provider"`
}

type ListProvidersRequest struct{}

type ListProvidersResponse struct {
	Providers []*Provider `json:"providers"`
}

type ListPendingRequestsRequest struct{}

type ListPendingRequestsResponse struct {
	Requests []*PendingRequest `json:"requests"`
}

type ExpirePendingRequestsRequest struct {
	Ids []string `json:"ids"`
}

type ExpirePendingRequestsResponse struct {
	Expired []string `json:"expired"`
}

type ListWithdrawalsRequest struct {
	Status string `json:"status,omitempty"`
}

type ListWithdrawalsResponse struct {
	Withdrawals []*Withdrawal `json:"withdrawals"`
}

type ReconcileWithdrawalRequest struct {
	Id         string `json:"id"`
	Resolution string `json:"resolution"`
	Txid       string `json:"txid,omitempty"`
}

type ReconcileWithdrawalResponse struct {
	Withdrawal *Withdrawal `json:"withdrawal"`
}

type GetAccountHistoryRequest struct {
	AccountId string `json:"account_id"`
}

type GetAccountHistoryResponse struct {
	Events []*Event `json:"events"`
}

type BakeUserMacaroonRequest struct {
	AccountId string `json:"account_id"`
}

// BakeUserMacaroonResponse carries the hex encoded macaroon, only valid for
// requests whose caller is AccountId.
type BakeUserMacaroonResponse struct {
	Macaroon string `json:"macaroon"`
}
