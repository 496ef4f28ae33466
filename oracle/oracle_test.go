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

package oracle_test

import (
	"context"
	"errors"
	"testing"

	"github.com/blinklabs-io/solanatx/internal/test"
	test_ledger "github.com/blinklabs-io/solanatx/internal/test/ledger"
	"github.com/blinklabs-io/solanatx/ledger/common"
	"github.com/blinklabs-io/solanatx/oracle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinimumExemptBalance(t *testing.T) {
	o := oracle.New(test_ledger.NewMockLedger())
	testDefs := []struct {
		size     uint64
		expected uint64
	}{
		{size: 0, expected: 890880},
		{size: 82, expected: 1461600},
		{size: 165, expected: 2039280},
	}
	for _, testDef := range testDefs {
		lamports, err := o.MinimumExemptBalance(context.Background(), testDef.size)
		require.NoError(t, err)
		assert.Equal(t, testDef.expected, lamports, "size %d", testDef.size)
	}
}

func TestCurrentBalance(t *testing.T) {
	mock := test_ledger.NewMockLedger()
	funded := test.Keypair(1).PublicAddress()
	mock.Fund(funded, 5_000_000)
	o := oracle.New(mock)
	lamports, err := o.CurrentBalance(context.Background(), funded)
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000_000), lamports)
	// Unknown accounts have a zero balance
	lamports, err = o.CurrentBalance(
		context.Background(),
		test.Keypair(2).PublicAddress(),
	)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), lamports)
}

func TestCurrentBalanceError(t *testing.T) {
	mock := test_ledger.NewMockLedger()
	mock.GetBalanceFunc = func(addr common.Address) (uint64, error) {
		return 0, common.NodeUnavailableError{Err: errors.New("connection refused")}
	}
	o := oracle.New(mock)
	_, err := o.CurrentBalance(context.Background(), test.Keypair(1).PublicAddress())
	assert.ErrorIs(t, err, common.ErrNodeUnavailable)
}

func TestAccount(t *testing.T) {
	mock := test_ledger.NewMockLedger()
	addr := test.Keypair(1).PublicAddress()
	o := oracle.New(mock, oracle.WithCommitment(common.CommitmentFinalized))
	assert.Equal(t, common.CommitmentFinalized, o.Commitment())
	snapshot, err := o.Account(context.Background(), addr)
	require.NoError(t, err)
	assert.False(t, snapshot.Exists)
	assert.Equal(t, addr, snapshot.Address)
	mock.Fund(addr, 1_000_000)
	snapshot, err = o.Account(context.Background(), addr)
	require.NoError(t, err)
	assert.True(t, snapshot.Exists)
	assert.Equal(t, uint64(1_000_000), snapshot.Lamports)
	assert.Equal(t, common.SystemProgramId, snapshot.Owner)
}

func TestLatestBlockRef(t *testing.T) {
	mock := test_ledger.NewMockLedger()
	o := oracle.New(mock)
	ref, err := o.LatestBlockRef(context.Background())
	require.NoError(t, err)
	assert.False(t, ref.Blockhash.IsZero())
	mock.GetLatestBlockRefFunc = func() (common.BlockRef, error) {
		return common.BlockRef{}, common.NodeUnavailableError{Err: errors.New("timeout")}
	}
	_, err = o.LatestBlockRef(context.Background())
	assert.ErrorIs(t, err, common.ErrNodeUnavailable)
}
