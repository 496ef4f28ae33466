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

// Package node defines the ledger RPC boundary and provides a JSON-RPC
// implementation of it
package node

import (
	"context"

	"github.com/blinklabs-io/solanatx/ledger"
	"github.com/blinklabs-io/solanatx/ledger/common"
)

// Node is the set of ledger reads and writes used by the oracle and the
// submission client. Implementations return a common.NodeUnavailableError for
// transport failures and an *RPCError when the node answers with an error
type Node interface {
	// GetMinimumBalanceForRentExemption returns the minimum balance for an
	// account with the given data size to be exempt from rent
	GetMinimumBalanceForRentExemption(
		ctx context.Context,
		dataSize uint64,
		commitment common.Commitment,
	) (uint64, error)
	// GetBalance returns the balance of an account. A missing account has a
	// zero balance
	GetBalance(
		ctx context.Context,
		addr common.Address,
		commitment common.Commitment,
	) (uint64, error)
	// GetAccount returns a snapshot of an account, or common.ErrAccountNotFound
	GetAccount(
		ctx context.Context,
		addr common.Address,
		commitment common.Commitment,
	) (common.AccountSnapshot, error)
	GetLatestBlockRef(
		ctx context.Context,
		commitment common.Commitment,
	) (common.BlockRef, error)
	RequestAirdrop(
		ctx context.Context,
		addr common.Address,
		lamports uint64,
		commitment common.Commitment,
	) (common.Signature, error)
	// GetSignatureStatus returns the status of a transaction, or nil when the
	// node does not know the signature
	GetSignatureStatus(
		ctx context.Context,
		sig common.Signature,
	) (*SignatureStatus, error)
	SendTransaction(
		ctx context.Context,
		rawTx []byte,
		opts SendOptions,
	) (common.Signature, error)
	GetTokenAccountBalance(
		ctx context.Context,
		addr common.Address,
		commitment common.Commitment,
	) (common.TokenAmount, error)
}

// SignatureStatus is the status of a processed transaction
type SignatureStatus struct {
	Slot          uint64
	Confirmations *uint64
	Commitment    common.Commitment
	// Err is set when the transaction was processed but failed
	Err *ledger.TransactionError
}

// SendOptions controls transaction submission
type SendOptions struct {
	SkipPreflight       bool
	PreflightCommitment common.Commitment
	// MaxRetries is the number of times the node rebroadcasts the
	// transaction. nil leaves the choice to the node
	MaxRetries *uint
}
