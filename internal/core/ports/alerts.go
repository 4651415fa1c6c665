package ports

import "context"

const (
	WithdrawalUnsettled Topic = "Withdrawal Unsettled"
	WithdrawalSettled   Topic = "Withdrawal Settled"
	DispatchFailed      Topic = "Dispatch Failed"
)

type Topic string

type Alerts interface {
	Publish(ctx context.Context, topic Topic, message interface{}) error
}

type WithdrawalAlert struct {
	Id          string
	Owner       string
	Destination string
	Amount      uint64
	Status      string
	Txid        string
	SettledBy   string
	Requests    int
	Failed      int
	Age         string
	// Exposure is the share of the total confirmed ledger balance the
	// withdrawal amounts to, formatted as a percentage.
	Exposure string
}

type DispatchFailedAlert struct {
	CorrelationId string
	ProviderId    string
	Purpose       string
	Owner         string
	Error         string
}
