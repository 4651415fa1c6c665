package permissions

import (
	bridgev1 "github.com/hill399/linkedBtc/api-spec/bridge/v1"
	grpchealth "google.golang.org/grpc/health/grpc_health_v1"
	"gopkg.in/macaroon-bakery.v2/bakery"
)

const (
	EntityBridge   = "bridge"
	EntityProvider = "provider"
	EntityManager  = "manager"
	EntityHealth   = "health"
)

func ReadOnlyPermissions() []bakery.Op {
	return []bakery.Op{
		{
			Entity: EntityBridge,
			Action: "read",
		},
		{
			Entity: EntityManager,
			Action: "read",
		},
	}
}

func UserPermissions() []bakery.Op {
	return []bakery.Op{
		{
			Entity: EntityBridge,
			Action: "read",
		},
		{
			Entity: EntityBridge,
			Action: "write",
		},
	}
}

func ProviderPermissions() []bakery.Op {
	return []bakery.Op{
		{
			Entity: EntityProvider,
			Action: "write",
		},
	}
}

func AdminPermissions() []bakery.Op {
	seen := make(map[bakery.Op]struct{})
	permissions := make([]bakery.Op, 0)
	all := append(UserPermissions(), ProviderPermissions()...)
	all = append(all, ReadOnlyPermissions()...)
	for _, op := range all {
		if _, ok := seen[op]; ok {
			continue
		}
		seen[op] = struct{}{}
		permissions = append(permissions, op)
	}
	return append(permissions, bakery.Op{
		Entity: EntityManager,
		Action: "write",
	})
}

// Whitelist returns the list of all whitelisted methods with the relative
// entity and action.
func Whitelist() map[string][]bakery.Op {
	return map[string][]bakery.Op{
		bridgev1.FullMethod(bridgev1.BridgeServiceName, "GetInfo"): {{
			Entity: EntityBridge,
			Action: "read",
		}},
		"/" + grpchealth.Health_ServiceDesc.ServiceName + "/Check": {{
			Entity: EntityHealth,
			Action: "read",
		}},
	}
}

// AllPermissionsByMethod returns a mapping of the RPC server calls to the
// permissions they require.
func AllPermissionsByMethod() map[string][]bakery.Op {
	bridgeRead := []bakery.Op{{Entity: EntityBridge, Action: "read"}}
	bridgeWrite := []bakery.Op{{Entity: EntityBridge, Action: "write"}}
	managerRead := []bakery.Op{{Entity: EntityManager, Action: "read"}}
	managerWrite := []bakery.Op{{Entity: EntityManager, Action: "write"}}

	bridge := func(method string) string {
		return bridgev1.FullMethod(bridgev1.BridgeServiceName, method)
	}
	admin := func(method string) string {
		return bridgev1.FullMethod(bridgev1.AdminServiceName, method)
	}

	return map[string][]bakery.Op{
		bridge("RegisterAccount"):   bridgeWrite,
		bridge("GetAccount"):        bridgeRead,
		bridge("RequestValidation"): bridgeWrite,
		bridge("RequestDeposit"):    bridgeWrite,
		bridge("RequestWithdrawal"): bridgeWrite,
		bridge("GetWithdrawal"):     bridgeRead,
		bridge("GetEventStream"):    bridgeRead,
		bridgev1.FullMethod(bridgev1.ProviderServiceName, "SubmitVerdict"): {{
			Entity: EntityProvider,
			Action: "write",
		}},
		admin("AddProvider"):           managerWrite,
		admin("ListProviders"):         managerRead,
		admin("ListPendingRequests"):   managerRead,
		admin("ExpirePendingRequests"): managerWrite,
		admin("ListWithdrawals"):       managerRead,
		admin("ReconcileWithdrawal"):   managerWrite,
		admin("GetAccountHistory"):     managerRead,
		admin("BakeUserMacaroon"):      managerWrite,
	}
}
