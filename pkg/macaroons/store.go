package macaroons

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
	"gopkg.in/macaroon-bakery.v2/bakery"
)

const (
	rootKeyLen = 32
)

// DefaultRootKeyID is the id of the root key every macaroon is baked with.
var DefaultRootKeyID = []byte("0")

type rootKey struct {
	Id  string `badgerhold:"key"`
	Key []byte
}

// RootKeyStorage implements bakery.RootKeyStore on top of a badgerhold store.
type RootKeyStorage struct {
	store *badgerhold.Store
	lock  sync.Mutex
}

// NewRootKeyStorage opens (or creates) the root key db at the given dir.
// An empty dir opens an in-memory db.
func NewRootKeyStorage(dir string) (*RootKeyStorage, error) {
	opts := badger.DefaultOptions(dir)
	if len(dir) <= 0 {
		opts.InMemory = true
	}
	opts.Logger = nil
	store, err := badgerhold.Open(badgerhold.Options{
		Encoder: badgerhold.DefaultEncode,
		Decoder: badgerhold.DefaultDecode,
		Options: opts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open macaroon db: %s", err)
	}
	return &RootKeyStorage{store: store}, nil
}

// Get returns the root key for the given id, or bakery.ErrNotFound.
func (r *RootKeyStorage) Get(_ context.Context, id []byte) ([]byte, error) {
	var key rootKey
	if err := r.store.Get(string(id), &key); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, bakery.ErrNotFound
		}
		return nil, err
	}
	return key.Key, nil
}

// RootKey returns the default root key, generating and storing a new one if
// missing.
func (r *RootKeyStorage) RootKey(ctx context.Context) ([]byte, []byte, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	key, err := r.Get(ctx, DefaultRootKeyID)
	if err == nil {
		return key, DefaultRootKeyID, nil
	}
	if err != bakery.ErrNotFound {
		return nil, nil, err
	}

	key = make([]byte, rootKeyLen)
	if _, err := rand.Read(key); err != nil {
		return nil, nil, err
	}
	if err := r.store.Insert(
		string(DefaultRootKeyID), rootKey{Id: string(DefaultRootKeyID), Key: key},
	); err != nil {
		return nil, nil, err
	}
	return key, DefaultRootKeyID, nil
}

func (r *RootKeyStorage) Close() error {
	return r.store.Close()
}
