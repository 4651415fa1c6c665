package permissions_test

import (
	"testing"

	bridgev1 "github.com/hill399/linkedBtc/api-spec/bridge/v1"
	"github.com/hill399/linkedBtc/internal/interface/grpc/permissions"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"gopkg.in/macaroon-bakery.v2/bakery"
)

func TestEveryMethodHasPermissions(t *testing.T) {
	whitelist := permissions.Whitelist()
	all := permissions.AllPermissionsByMethod()

	descs := []struct {
		service string
		methods []string
	}{
		{bridgev1.BridgeServiceName, methodNames(bridgev1.BridgeService_ServiceDesc.Methods)},
		{bridgev1.ProviderServiceName, methodNames(bridgev1.ProviderService_ServiceDesc.Methods)},
		{bridgev1.AdminServiceName, methodNames(bridgev1.AdminService_ServiceDesc.Methods)},
	}
	descs[0].methods = append(descs[0].methods, "GetEventStream")

	for _, d := range descs {
		for _, m := range d.methods {
			method := bridgev1.FullMethod(d.service, m)
			_, whitelisted := whitelist[method]
			_, guarded := all[method]
			require.True(t, whitelisted != guarded, method)
		}
	}
}

func TestAdminPermissions(t *testing.T) {
	admin := permissions.AdminPermissions()
	for _, ops := range permissions.AllPermissionsByMethod() {
		for _, op := range ops {
			require.Contains(t, admin, op)
		}
	}

	seen := make(map[bakery.Op]struct{})
	for _, op := range admin {
		_, dup := seen[op]
		require.False(t, dup)
		seen[op] = struct{}{}
	}

	require.NotContains(t, permissions.UserPermissions(), bakery.Op{
		Entity: permissions.EntityManager, Action: "write",
	})
}

func methodNames(descs []grpc.MethodDesc) []string {
	names := make([]string, 0, len(descs))
	for _, d := range descs {
		names = append(names, d.MethodName)
	}
	return names
}
