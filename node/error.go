// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package node

import (
	"fmt"

	"github.com/blinklabs-io/solanatx/ledger"
)

// JSON-RPC error codes returned by ledger nodes
const (
	ErrorCodeBlockCleanedUp                  = -32001
	ErrorCodeSendTransactionPreflightFailure = -32002
	ErrorCodeTransactionSignatureVerify      = -32003
	ErrorCodeBlockNotAvailable               = -32004
	ErrorCodeNodeUnhealthy                   = -32005
	ErrorCodeTransactionPrecompileVerify     = -32006
	ErrorCodeInvalidParams                   = -32602
	ErrorCodeInternalError                   = -32603
)

// RPCError is an error response from the node
type RPCError struct {
	Code    int
	Message string
	Data    map[string]any
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// IsPreflightFailure reports whether the node rejected a transaction during
// simulation
func (e *RPCError) IsPreflightFailure() bool {
	return e.Code == ErrorCodeSendTransactionPreflightFailure
}

// TransactionError returns the transaction error carried by a preflight
// failure, if any
func (e *RPCError) TransactionError() (*ledger.TransactionError, bool) {
	if e.Data == nil {
		return nil, false
	}
	raw, ok := e.Data["err"]
	if !ok || raw == nil {
		return nil, false
	}
	txErr, err := ledger.ParseTransactionError(raw)
	if err != nil {
		return nil, false
	}
	return txErr, true
}

// Logs returns the program log lines carried by a preflight failure
func (e *RPCError) Logs() []string {
	if e.Data == nil {
		return nil
	}
	switch v := e.Data["logs"].(type) {
	case []string:
		return v
	case []any:
		ret := make([]string, 0, len(v))
		for _, line := range v {
			if s, ok := line.(string); ok {
				ret = append(ret, s)
			}
		}
		return ret
	}
	return nil
}
