// Package macaroons bakes and validates the macaroons gating the bridge
// APIs.
package macaroons

import (
	"context"
	"encoding/hex"
	"fmt"

	"google.golang.org/grpc/metadata"
	"gopkg.in/macaroon-bakery.v2/bakery"
	"gopkg.in/macaroon-bakery.v2/bakery/checkers"
	"gopkg.in/macaroon.v2"
)

const (
	// MetadataKey is the grpc metadata key carrying the hex encoded macaroon.
	MetadataKey = "macaroon"
	// CallerCondition is the first-party caveat binding a macaroon to a
	// single account id.
	CallerCondition = "caller"
)

type callerKey struct{}

// WithCaller attaches the account id a request acts on, it must match the
// caller caveat of the macaroon if any.
func WithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

func checkCaller(ctx context.Context, _, arg string) error {
	caller, _ := ctx.Value(callerKey{}).(string)
	if caller != arg {
		return fmt.Errorf("macaroon is bound to caller %s", arg)
	}
	return nil
}

// MacaroonValidator checks the macaroon of an incoming request grants the
// required permissions.
type MacaroonValidator interface {
	ValidateMacaroon(ctx context.Context, requiredPermissions []bakery.Op, fullMethod string) error
}

type Service struct {
	*bakery.Bakery

	rks *RootKeyStorage

	// ExternalValidators override the internal validation for specific
	// methods.
	ExternalValidators map[string]MacaroonValidator
}

func NewService(rks *RootKeyStorage, location string) (*Service, error) {
	if rks == nil {
		return nil, fmt.Errorf("missing root key storage")
	}
	if location == "" {
		return nil, fmt.Errorf("missing macaroon location")
	}
	checker := checkers.New(nil)
	checker.Register(CallerCondition, checkers.StdNamespace, checkCaller)
	svc := bakery.New(bakery.BakeryParams{
		Location:     location,
		RootKeyStore: rks,
		Checker:      checker,
	})
	return &Service{
		Bakery:             svc,
		rks:                rks,
		ExternalValidators: make(map[string]MacaroonValidator),
	}, nil
}

// BakeMacaroon returns the binary serialization of a new macaroon granting
// the given permissions.
func (s *Service) BakeMacaroon(ctx context.Context, ops []bakery.Op) ([]byte, error) {
	return s.bake(ctx, ops, nil)
}

// BakeCallerMacaroon is like BakeMacaroon but the macaroon is only valid for
// requests acting on the given account.
func (s *Service) BakeCallerMacaroon(
	ctx context.Context, ops []bakery.Op, caller string,
) ([]byte, error) {
	if caller == "" {
		return nil, fmt.Errorf("missing caller")
	}
	return s.bake(ctx, ops, []checkers.Caveat{{
		Condition: checkers.Condition(CallerCondition, caller),
		Namespace: checkers.StdNamespace,
	}})
}

func (s *Service) bake(
	ctx context.Context, ops []bakery.Op, caveats []checkers.Caveat,
) ([]byte, error) {
	if len(ops) == 0 {
		return nil, fmt.Errorf("missing macaroon permissions")
	}
	mac, err := s.Oven.NewMacaroon(ctx, bakery.LatestVersion, caveats, ops...)
	if err != nil {
		return nil, err
	}
	return mac.M().MarshalBinary()
}

func (s *Service) ValidateMacaroon(
	ctx context.Context, requiredPermissions []bakery.Op, fullMethod string,
) error {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return fmt.Errorf("unable to get metadata from context")
	}
	if len(md[MetadataKey]) != 1 {
		return fmt.Errorf("expected 1 macaroon, got %d", len(md[MetadataKey]))
	}

	macBytes, err := hex.DecodeString(md[MetadataKey][0])
	if err != nil {
		return fmt.Errorf("invalid macaroon encoding: %s", err)
	}
	mac := &macaroon.Macaroon{}
	if err := mac.UnmarshalBinary(macBytes); err != nil {
		return fmt.Errorf("failed to parse macaroon: %s", err)
	}

	authChecker := s.Checker.Auth(macaroon.Slice{mac})
	if _, err := authChecker.Allow(ctx, requiredPermissions...); err != nil {
		return fmt.Errorf("permission denied for %s: %s", fullMethod, err)
	}
	return nil
}

func (s *Service) Close() error {
	return s.rks.Close()
}
