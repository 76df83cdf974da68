package rpc

import (
	"encoding/json"
	"testing"

	"github.com/Klingon-tech/feetoken/internal/auth"
	"github.com/Klingon-tech/feetoken/pkg/types"
)

// FuzzRPCRequestUnmarshal tests that arbitrary JSON does not panic
// when parsed as a JSON-RPC 2.0 request carrying a signed command.
func FuzzRPCRequestUnmarshal(f *testing.F) {
	f.Add([]byte(`{"jsonrpc":"2.0","method":"token_getInfo","params":null,"id":1}`))
	f.Add([]byte(`{"jsonrpc":"2.0","method":"token_transfer","params":{"params":{"to":"0x00","amount":1},"nonce":1,"pubkey":"","signature":""},"id":"x"}`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`null`))
	f.Add([]byte(`{"method":"","params":[]}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			return
		}
		var cmd auth.Command
		if err := json.Unmarshal(req.Params, &cmd); err != nil {
			return
		}
		var p TransferParams
		_ = json.Unmarshal(cmd.Params, &p)
	})
}

// FuzzCommandCaller checks that error mapping never panics on command
// payloads that fail authentication.
func FuzzCommandCaller(f *testing.F) {
	f.Add([]byte(`{"params":null,"nonce":1,"pubkey":"02","signature":"00"}`))
	f.Add([]byte(`{"params":{"amount":1},"nonce":0,"pubkey":"zz","signature":""}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		var cmd auth.Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			return
		}
		var contract types.Address
		if _, err := cmd.Caller(contract, "token_transfer"); err != nil {
			if rpcErr := toRPCError(err); rpcErr == nil {
				t.Fatal("nil rpc error for failed auth")
			}
		}
	})
}
