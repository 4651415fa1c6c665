package domain

import (
	"context"
	"encoding/json"
	"fmt"
)

const AccountTopic = "account"

type EventType string

const (
	EventTypeAccountRegistered    EventType = "AccountRegistered"
	EventTypeValidationRequested  EventType = "ValidationRequested"
	EventTypeValidationRejected   EventType = "ValidationRejected"
	EventTypeAccountValidated     EventType = "AccountValidated"
	EventTypeDepositRequested     EventType = "DepositRequested"
	EventTypeDepositRejected      EventType = "DepositRejected"
	EventTypeDepositCredited      EventType = "DepositCredited"
	EventTypeWithdrawalRequested  EventType = "WithdrawalRequested"
	EventTypeWithdrawalSettled    EventType = "WithdrawalSettled"
	EventTypeWithdrawalUnsettled  EventType = "WithdrawalUnsettled"
	EventTypeWithdrawalReconciled EventType = "WithdrawalReconciled"
	EventTypeRequestExpired       EventType = "RequestExpired"
)

type Event interface {
	GetId() string
	GetType() EventType
}

// AccountEvent is embedded by every event so that Id and Type end up at the
// top level of the serialized payload.
type AccountEvent struct {
	Id        string
	Type      EventType
	Timestamp int64
}

func (e AccountEvent) GetId() string      { return e.Id }
func (e AccountEvent) GetType() EventType { return e.Type }

type AccountRegistered struct {
	AccountEvent
	ExternalAddress string
	ChallengeAmount uint64
}

type ValidationRequested struct {
	AccountEvent
	CorrelationId string
	ProviderId    string
	ExternalTxid  string
}

type ValidationRejected struct {
	AccountEvent
	CorrelationId string
}

type AccountValidatedEvent struct {
	AccountEvent
	CorrelationId string
	Amount        uint64
}

type DepositRequested struct {
	AccountEvent
	CorrelationId string
	ProviderId    string
	ExternalTxid  string
	Amount        uint64
}

type DepositRejected struct {
	AccountEvent
	CorrelationId string
}

type DepositCredited struct {
	AccountEvent
	CorrelationId string
	Amount        uint64
}

type WithdrawalRequested struct {
	AccountEvent
	WithdrawalId string
	Destination  string
	Amount       uint64
	RequestIds   []string
}

type WithdrawalSettledEvent struct {
	AccountEvent
	WithdrawalId string
	ProviderId   string
	Txid         string
}

type WithdrawalUnsettledEvent struct {
	AccountEvent
	WithdrawalId string
	Amount       uint64
}

type WithdrawalReconciled struct {
	AccountEvent
	WithdrawalId string
	Resolution   string
	Txid         string
}

type RequestExpired struct {
	AccountEvent
	CorrelationId string
	Purpose       Purpose
}

// EventRepository stores events per topic and notifies the registered
// handlers with the whole history of the account after every Save.
type EventRepository interface {
	Save(ctx context.Context, topic, id string, events []Event) error
	GetEvents(ctx context.Context, topic, id string) ([]Event, error)
	RegisterEventsHandler(topic string, handler func(events []Event))
	Close()
}

// DeserializeEvent decodes a JSON payload into the concrete event named by
// its Type field.
func DeserializeEvent(buf []byte) (Event, error) {
	var head struct {
		Type EventType
	}
	if err := json.Unmarshal(buf, &head); err != nil {
		return nil, err
	}

	var event Event
	var err error
	switch head.Type {
	case EventTypeAccountRegistered:
		event, err = decode[AccountRegistered](buf)
	case EventTypeValidationRequested:
		event, err = decode[ValidationRequested](buf)
	case EventTypeValidationRejected:
		event, err = decode[ValidationRejected](buf)
	case EventTypeAccountValidated:
		event, err = decode[AccountValidatedEvent](buf)
	case EventTypeDepositRequested:
		event, err = decode[DepositRequested](buf)
	case EventTypeDepositRejected:
		event, err = decode[DepositRejected](buf)
	case EventTypeDepositCredited:
		event, err = decode[DepositCredited](buf)
	case EventTypeWithdrawalRequested:
		event, err = decode[WithdrawalRequested](buf)
	case EventTypeWithdrawalSettled:
		event, err = decode[WithdrawalSettledEvent](buf)
	case EventTypeWithdrawalUnsettled:
		event, err = decode[WithdrawalUnsettledEvent](buf)
	case EventTypeWithdrawalReconciled:
		event, err = decode[WithdrawalReconciled](buf)
	case EventTypeRequestExpired:
		event, err = decode[RequestExpired](buf)
	default:
		return nil, fmt.Errorf("unknown event type %q", head.Type)
	}
	if err != nil {
		return nil, err
	}
	return event, nil
}

func decode[T Event](buf []byte) (Event, error) {
	var event T
	if err := json.Unmarshal(buf, &event); err != nil {
		return nil, err
	}
	return event, nil
}
