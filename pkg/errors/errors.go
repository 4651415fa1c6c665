package errors

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const errorDomain = "linkedbtc"

// Code is the type representing a namespace error code.
type Code[MT any] struct {
	Code     uint16
	Name     string
	GrpcCode grpccodes.Code
}

// New creates a new error with the given code and the message
func (c Code[MT]) New(msg string, args ...any) TypedError[MT] {
	return &ErrorImpl[MT]{
		code:  c,
		cause: fmt.Errorf(msg, args...),
	}
}

// Wrap creates a new Error with the given code and the cause error
func (c Code[MT]) Wrap(cause error) TypedError[MT] {
	return &ErrorImpl[MT]{
		code:  c,
		cause: cause,
	}
}

func (c Code[MT]) String() string {
	return fmt.Sprintf("%s (%d)", c.Name, c.Code)
}

type Error interface {
	error
	Log() *log.Entry
	Code() uint16
	CodeName() string
	GrpcCode() grpccodes.Code
	Metadata() map[string]string
}

type TypedError[MT any] interface {
	Error
	WithMetadata(MT) TypedError[MT]
}

// ErrorImpl is the default concrete implementation of TypedError.
type ErrorImpl[MT any] struct {
	code     Code[MT]
	cause    error
	metadata MT
}

func (e *ErrorImpl[MT]) Log() *log.Entry {
	return log.WithField("name", e.code.Name).
		WithField("code", e.code.Code).
		WithField("metadata", e.metadata)
}

func (e *ErrorImpl[MT]) Metadata() map[string]string {
	// convert any metadata to map[string]string
	metadata := make(map[string]string)
	buf, err := json.Marshal(e.metadata)
	if err == nil {
		var genericMap map[string]any
		if err := json.Unmarshal(buf, &genericMap); err == nil {
			for k, v := range genericMap {
				vStr := ""
				if v != nil {
					vStr = fmt.Sprintf("%v", v)
				}
				metadata[k] = vStr
			}
		}
	}
	return metadata
}

func (e *ErrorImpl[MT]) GrpcCode() grpccodes.Code {
	return e.code.GrpcCode
}

func (e *ErrorImpl[MT]) Code() uint16 {
	return e.code.Code
}

func (e *ErrorImpl[MT]) CodeName() string {
	return e.code.Name
}

// Error() implements the error interface.
func (e *ErrorImpl[MT]) Error() string {
	return fmt.Sprintf("%s: %s", e.code.String(), e.cause.Error())
}

func (e *ErrorImpl[MT]) Unwrap() error {
	return e.cause
}

func (e *ErrorImpl[MT]) WithMetadata(metadata MT) TypedError[MT] {
	e.metadata = metadata
	return e
}

// GRPCStatus lets status.Convert and the grpc server build the status with an
// ErrorInfo detail carrying the code name and the metadata.
func (e *ErrorImpl[MT]) GRPCStatus() *status.Status {
	st := status.New(e.code.GrpcCode, e.Error())
	metadata := e.Metadata()
	metadata["code"] = fmt.Sprintf("%d", e.code.Code)

	withDetails, err := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   e.code.Name,
		Domain:   errorDomain,
		Metadata: metadata,
	})
	if err != nil {
		return st
	}
	return withDetails
}

type AccountMetadata struct {
	AccountId string `json:"account_id"`
}

type InvalidStateMetadata struct {
	AccountId     string `json:"account_id"`
	State         string `json:"state"`
	ExpectedState string `json:"expected_state"`
}

type BelowMinimumMetadata struct {
	Amount    uint64 `json:"amount"`
	MinAmount uint64 `json:"min_amount"`
}

type InsufficientBalanceMetadata struct {
	AccountId string `json:"account_id"`
	Amount    uint64 `json:"amount"`
	Balance   uint64 `json:"balance"`
}

type ProviderMetadata struct {
	ProviderId string `json:"provider_id"`
}

type TxMetadata struct {
	Txid string `json:"txid"`
}

type RequestMetadata struct {
	CorrelationId string `json:"correlation_id"`
}

type AddressMetadata struct {
	Address string `json:"address"`
	Network string `json:"network"`
}

type AmountMetadata struct {
	Amount uint64 `json:"amount"`
}

type WithdrawalMetadata struct {
	WithdrawalId string `json:"withdrawal_id"`
	Status       string `json:"status,omitempty"`
}

var INTERNAL_ERROR = Code[map[string]any]{0, "INTERNAL_ERROR", grpccodes.Internal}

var ALREADY_REGISTERED = Code[AccountMetadata]{
	1,
	"ALREADY_REGISTERED",
	grpccodes.AlreadyExists,
}

var INVALID_STATE = Code[InvalidStateMetadata]{
	2,
	"INVALID_STATE",
	grpccodes.FailedPrecondition,
}
var BELOW_MINIMUM = Code[BelowMinimumMetadata]{3, "BELOW_MINIMUM", grpccodes.InvalidArgument}

var INSUFFICIENT_BALANCE = Code[InsufficientBalanceMetadata]{
	4,
	"INSUFFICIENT_BALANCE",
	grpccodes.FailedPrecondition,
}
var NO_PROVIDERS = Code[any]{5, "NO_PROVIDERS", grpccodes.FailedPrecondition}

var DUPLICATE_PROVIDER = Code[ProviderMetadata]{
	6,
	"DUPLICATE_PROVIDER",
	grpccodes.AlreadyExists,
}
var ALREADY_CONSUMED = Code[TxMetadata]{7, "ALREADY_CONSUMED", grpccodes.AlreadyExists}
var UNKNOWN_REQUEST = Code[RequestMetadata]{8, "UNKNOWN_REQUEST", grpccodes.NotFound}
var INVALID_ADDRESS = Code[AddressMetadata]{9, "INVALID_ADDRESS", grpccodes.InvalidArgument}
var INVALID_TXID = Code[TxMetadata]{10, "INVALID_TXID", grpccodes.InvalidArgument}
var INVALID_AMOUNT = Code[AmountMetadata]{11, "INVALID_AMOUNT", grpccodes.InvalidArgument}
var ACCOUNT_NOT_FOUND = Code[AccountMetadata]{12, "ACCOUNT_NOT_FOUND", grpccodes.NotFound}

var UNKNOWN_PROVIDER = Code[ProviderMetadata]{
	13,
	"UNKNOWN_PROVIDER",
	grpccodes.PermissionDenied,
}

var INVALID_SIGNATURE = Code[ProviderMetadata]{
	14,
	"INVALID_SIGNATURE",
	grpccodes.Unauthenticated,
}

var WITHDRAWAL_NOT_FOUND = Code[WithdrawalMetadata]{
	15,
	"WITHDRAWAL_NOT_FOUND",
	grpccodes.NotFound,
}

var INVALID_RECONCILIATION = Code[WithdrawalMetadata]{
	16,
	"INVALID_RECONCILIATION",
	grpccodes.FailedPrecondition,
}
