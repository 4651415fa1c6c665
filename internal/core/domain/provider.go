package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrProviderExists   = errors.New("provider already registered")
	ErrProviderNotFound = errors.New("provider not found")
)

// Provider is an oracle endpoint registered by the operator.
// Pubkey, when set, is the hex encoded x-only key that signs verdict callbacks.
type Provider struct {
	Id      string
	JobId   string
	Url     string
	Pubkey  string
	Index   int
	AddedAt int64
}

func NewProvider(id, jobId, url, pubkey string) (*Provider, error) {
	if len(id) <= 0 {
		return nil, fmt.Errorf("missing provider id")
	}
	if len(jobId) <= 0 {
		return nil, fmt.Errorf("missing job id")
	}
	return &Provider{
		Id:      id,
		JobId:   jobId,
		Url:     url,
		Pubkey:  pubkey,
		AddedAt: time.Now().Unix(),
	}, nil
}

// ProviderRepository is an append-only ordered registry.
// Add assigns the next Index and fails with ErrProviderExists on duplicate ids.
// List returns providers in insertion order.
type ProviderRepository interface {
	Add(ctx context.Context, provider Provider) (*Provider, error)
	Get(ctx context.Context, id string) (*Provider, error)
	List(ctx context.Context) ([]Provider, error)
	Close()
}
