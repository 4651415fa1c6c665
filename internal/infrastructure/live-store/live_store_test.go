package livestore_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/hill399/linkedBtc/internal/core/domain"
	"github.com/hill399/linkedBtc/internal/core/ports"
	inmemory "github.com/hill399/linkedBtc/internal/infrastructure/live-store/inmemory"
	redislivestore "github.com/hill399/linkedBtc/internal/infrastructure/live-store/redis"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestLiveStoreImplementations(t *testing.T) {
	stores := []struct {
		name  string
		store func(t *testing.T) ports.LiveStore
	}{
		{
			name: "inmemory",
			store: func(t *testing.T) ports.LiveStore {
				return inmemory.NewLiveStore()
			},
		},
		{
			name: "redis",
			store: func(t *testing.T) ports.LiveStore {
				redisOpts, err := redis.ParseURL("redis://localhost:6379/0")
				require.NoError(t, err)
				rdb := redis.NewClient(redisOpts)
				if err := rdb.Ping(t.Context()).Err(); err != nil {
					t.Skipf("redis not reachable: %s", err)
				}
				require.NoError(t, rdb.FlushDB(t.Context()).Err())
				return redislivestore.NewLiveStore(rdb, 5)
			},
		},
	}

	for _, tt := range stores {
		t.Run(tt.name, func(t *testing.T) {
			store := tt.store(t)
			defer store.Close()
			runLiveStoreTests(t, store)
		})
	}
}

func runLiveStoreTests(t *testing.T, store ports.LiveStore) {
	t.Run("PendingRequestStore", func(t *testing.T) {
		ctx := t.Context()
		requests := store.PendingRequests()

		validate := domain.PendingRequest{
			Id:         uuid.New().String(),
			Purpose:    domain.PurposeValidate,
			Owner:      "alice",
			ProviderId: "oracle-1",
			Payload: domain.ValidatePayload{
				ExternalTxid:    "a3f1c0e5a1f4b7c6d2e9f8a7b6c5d4e3f2a1b0c9d8e7f6a5b4c3d2e1f0a9b8c7",
				ExternalAddress: "mo83FzMwaZD7Sw8dYbhsr7a529vf2Q3mwR",
				ChallengeAmount: 1234,
				Owner:           "alice",
			},
			IssuedAt:  100,
			ExpiresAt: 160,
		}
		settle := domain.PendingRequest{
			Id:           uuid.New().String(),
			Purpose:      domain.PurposeSettle,
			Owner:        "bob",
			ProviderId:   "oracle-2",
			WithdrawalId: uuid.New().String(),
			Payload: domain.SettlePayload{
				Destination: "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx",
				Amount:      5000,
				Owner:       "bob",
			},
			IssuedAt: 101,
		}

		require.NoError(t, requests.Add(ctx, validate))
		require.NoError(t, requests.Add(ctx, settle))
		require.ErrorIs(t, requests.Add(ctx, validate), ports.ErrRequestExists)

		n, err := requests.Len(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(2), n)

		got, err := requests.Get(ctx, validate.Id)
		require.NoError(t, err)
		require.Equal(t, validate, *got)

		list, err := requests.List(ctx)
		require.NoError(t, err)
		require.ElementsMatch(t, []domain.PendingRequest{validate, settle}, list)

		_, err = requests.Resolve(ctx, validate.Id, "oracle-2")
		require.ErrorIs(t, err, ports.ErrProviderMismatch)
		_, err = requests.Get(ctx, validate.Id)
		require.NoError(t, err)

		resolved, err := requests.Resolve(ctx, validate.Id, "oracle-1")
		require.NoError(t, err)
		require.Equal(t, validate, *resolved)

		_, err = requests.Resolve(ctx, validate.Id, "oracle-1")
		require.ErrorIs(t, err, ports.ErrRequestNotFound)
		_, err = requests.Expire(ctx, validate.Id)
		require.ErrorIs(t, err, ports.ErrRequestNotFound)
		_, err = requests.Get(ctx, validate.Id)
		require.ErrorIs(t, err, ports.ErrRequestNotFound)

		expired, err := requests.Expire(ctx, settle.Id)
		require.NoError(t, err)
		require.Equal(t, settle, *expired)

		n, err = requests.Len(ctx)
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("ConcurrentTake", func(t *testing.T) {
		ctx := t.Context()
		requests := store.PendingRequests()

		request := domain.PendingRequest{
			Id:         uuid.New().String(),
			Purpose:    domain.PurposeSettle,
			Owner:      "alice",
			ProviderId: "oracle-1",
			Payload:    domain.SettlePayload{Destination: "dest", Amount: 1000, Owner: "alice"},
		}
		require.NoError(t, requests.Add(ctx, request))

		var taken atomic.Int32
		wg := sync.WaitGroup{}
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				var err error
				if i%2 == 0 {
					_, err = requests.Resolve(ctx, request.Id, "oracle-1")
				} else {
					_, err = requests.Expire(ctx, request.Id)
				}
				if err == nil {
					taken.Add(1)
				}
			}(i)
		}
		wg.Wait()

		require.Equal(t, int32(1), taken.Load())
	})
}
