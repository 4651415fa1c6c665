package macaroons_test

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/hill399/linkedBtc/pkg/macaroons"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"
	"gopkg.in/macaroon-bakery.v2/bakery"
)

var (
	readOp  = bakery.Op{Entity: "bridge", Action: "read"}
	writeOp = bakery.Op{Entity: "bridge", Action: "write"}
)

func TestMacaroonService(t *testing.T) {
	rks, err := macaroons.NewRootKeyStorage(t.TempDir())
	require.NoError(t, err)

	svc, err := macaroons.NewService(rks, "linkedbtcd")
	require.NoError(t, err)
	defer svc.Close()

	mac, err := svc.BakeMacaroon(context.Background(), []bakery.Op{readOp})
	require.NoError(t, err)
	require.NotEmpty(t, mac)

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(
		macaroons.MetadataKey, hex.EncodeToString(mac),
	))

	t.Run("valid", func(t *testing.T) {
		err := svc.ValidateMacaroon(ctx, []bakery.Op{readOp}, "/bridge.v1.BridgeService/GetAccount")
		require.NoError(t, err)
	})

	t.Run("invalid", func(t *testing.T) {
		err := svc.ValidateMacaroon(ctx, []bakery.Op{writeOp}, "/bridge.v1.BridgeService/RegisterAccount")
		require.Error(t, err)

		err = svc.ValidateMacaroon(context.Background(), []bakery.Op{readOp}, "any")
		require.Error(t, err)

		badCtx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(
			macaroons.MetadataKey, "not-hex",
		))
		err = svc.ValidateMacaroon(badCtx, []bakery.Op{readOp}, "any")
		require.ErrorContains(t, err, "invalid macaroon encoding")

		_, err = svc.BakeMacaroon(context.Background(), nil)
		require.Error(t, err)
	})
}

func TestCallerMacaroon(t *testing.T) {
	rks, err := macaroons.NewRootKeyStorage("")
	require.NoError(t, err)

	svc, err := macaroons.NewService(rks, "linkedbtcd")
	require.NoError(t, err)
	defer svc.Close()

	mac, err := svc.BakeCallerMacaroon(context.Background(), []bakery.Op{writeOp}, "alice")
	require.NoError(t, err)

	_, err = svc.BakeCallerMacaroon(context.Background(), []bakery.Op{writeOp}, "")
	require.Error(t, err)

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(
		macaroons.MetadataKey, hex.EncodeToString(mac),
	))
	method := "/bridge.v1.BridgeService/RequestWithdrawal"

	err = svc.ValidateMacaroon(macaroons.WithCaller(ctx, "alice"), []bakery.Op{writeOp}, method)
	require.NoError(t, err)

	err = svc.ValidateMacaroon(macaroons.WithCaller(ctx, "bob"), []bakery.Op{writeOp}, method)
	require.ErrorContains(t, err, "bound to caller alice")

	err = svc.ValidateMacaroon(ctx, []bakery.Op{writeOp}, method)
	require.Error(t, err)

	// unbound macaroons ignore the caller
	plain, err := svc.BakeMacaroon(context.Background(), []bakery.Op{writeOp})
	require.NoError(t, err)
	plainCtx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(
		macaroons.MetadataKey, hex.EncodeToString(plain),
	))
	err = svc.ValidateMacaroon(macaroons.WithCaller(plainCtx, "bob"), []bakery.Op{writeOp}, method)
	require.NoError(t, err)
}

func TestRootKeyStorage(t *testing.T) {
	rks, err := macaroons.NewRootKeyStorage("")
	require.NoError(t, err)
	defer rks.Close()

	_, err = rks.Get(context.Background(), macaroons.DefaultRootKeyID)
	require.ErrorIs(t, err, bakery.ErrNotFound)

	key, id, err := rks.RootKey(context.Background())
	require.NoError(t, err)
	require.Len(t, key, 32)
	require.Equal(t, macaroons.DefaultRootKeyID, id)

	again, _, err := rks.RootKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, key, again)

	got, err := rks.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, key, got)
}
