package bridgev1_test

import (
	"os"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"testing"

	bridgev1 "github.com/hill399/linkedBtc/api-spec/bridge/v1"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

const protoFile = "../../protobuf/bridge/v1/bridge.proto"

var (
	blockRegexp = regexp.MustCompile(`(?s)(service|message) (\w+) \{(\}|\n.*?\n\})`)
	rpcRegexp   = regexp.MustCompile(`rpc (\w+)\(`)
	fieldRegexp = regexp.MustCompile(`(?m)^\s+(?:repeated )?\w+ (\w+) = \d+;`)
)

func parseProto(t *testing.T) (services, messages map[string][]string) {
	t.Helper()
	buf, err := os.ReadFile(protoFile)
	require.NoError(t, err)

	services = make(map[string][]string)
	messages = make(map[string][]string)
	for _, m := range blockRegexp.FindAllStringSubmatch(string(buf), -1) {
		kind, name, body := m[1], m[2], m[3]
		names := make([]string, 0)
		re := fieldRegexp
		if kind == "service" {
			re = rpcRegexp
		}
		for _, f := range re.FindAllStringSubmatch(body, -1) {
			names = append(names, f[1])
		}
		sort.Strings(names)
		if kind == "service" {
			services["bridge.v1."+name] = names
		} else {
			messages[name] = names
		}
	}
	return
}

func TestServiceDescsMatchProto(t *testing.T) {
	services, _ := parseProto(t)

	for _, desc := range []grpc.ServiceDesc{
		bridgev1.BridgeService_ServiceDesc,
		bridgev1.ProviderService_ServiceDesc,
		bridgev1.AdminService_ServiceDesc,
	} {
		methods := make([]string, 0)
		for _, m := range desc.Methods {
			methods = append(methods, m.MethodName)
		}
		for _, s := range desc.Streams {
			methods = append(methods, s.StreamName)
		}
		sort.Strings(methods)
		require.Equal(t, services[desc.ServiceName], methods, desc.ServiceName)
	}
}

func TestMessagesMatchProto(t *testing.T) {
	_, messages := parseProto(t)

	fixtures := []any{
		bridgev1.Account{},
		bridgev1.Withdrawal{},
		bridgev1.Provider{},
		bridgev1.PendingRequest{},
		bridgev1.Event{},
		bridgev1.RegisterAccountRequest{},
		bridgev1.RequestDepositRequest{},
		bridgev1.RequestWithdrawalRequest{},
		bridgev1.GetWithdrawalRequest{},
		bridgev1.GetEventStreamRequest{},
		bridgev1.GetEventStreamResponse{},
		bridgev1.GetInfoResponse{},
		bridgev1.SubmitVerdictRequest{},
		bridgev1.AddProviderRequest{},
		bridgev1.ReconcileWithdrawalRequest{},
		bridgev1.BakeUserMacaroonRequest{},
		bridgev1.BakeUserMacaroonResponse{},
	}
	for _, f := range fixtures {
		typ := reflect.TypeOf(f)
		fields := make([]string, 0, typ.NumField())
		for i := 0; i < typ.NumField(); i++ {
			tag := typ.Field(i).Tag.Get("json")
			fields = append(fields, strings.Split(tag, ",")[0])
		}
		sort.Strings(fields)

		expected, ok := messages[typ.Name()]
		require.True(t, ok, typ.Name())
		require.Equal(t, expected, fields, typ.Name())
	}
}
