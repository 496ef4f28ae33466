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

package solanatx_test

import (
	"context"
	"testing"
	"time"

	"github.com/blinklabs-io/solanatx"
	"github.com/blinklabs-io/solanatx/internal/test"
	test_ledger "github.com/blinklabs-io/solanatx/internal/test/ledger"
	"github.com/blinklabs-io/solanatx/ledger"
	"github.com/blinklabs-io/solanatx/ledger/common"
	"github.com/blinklabs-io/solanatx/program/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestClusterByName(t *testing.T) {
	testDefs := []struct {
		name     string
		expected solanatx.Cluster
	}{
		{name: "devnet", expected: solanatx.ClusterDevnet},
		{name: "testnet", expected: solanatx.ClusterTestnet},
		{name: "mainnet-beta", expected: solanatx.ClusterMainnet},
		{name: "localnet", expected: solanatx.ClusterLocalnet},
		{name: "mainnet", expected: solanatx.ClusterInvalid},
		{name: "", expected: solanatx.ClusterInvalid},
	}
	for _, testDef := range testDefs {
		assert.Equal(t, testDef.expected, solanatx.ClusterByName(testDef.name), testDef.name)
	}
	assert.False(t, solanatx.ClusterMainnet.AirdropAllowed)
}

func TestNewClient(t *testing.T) {
	client, err := solanatx.New(solanatx.WithEndpoint("http://127.0.0.1:1"))
	require.NoError(t, err)
	assert.Equal(t, solanatx.ClusterDevnet, client.Cluster())
	assert.NoError(t, client.Close())

	_, err = solanatx.New(solanatx.WithCluster(solanatx.ClusterByName("bogus")))
	assert.Error(t, err)

	_, err = solanatx.New(solanatx.WithCluster(solanatx.Cluster{Name: "custom"}))
	assert.Error(t, err)

	mock := test_ledger.NewMockLedger()
	client, err = solanatx.New(solanatx.WithNode(mock))
	require.NoError(t, err)
	assert.Equal(t, mock, client.Node())
	assert.NoError(t, client.Close())
}

func TestBuildAndSubmit(t *testing.T) {
	defer goleak.VerifyNone(t)
	mock := test_ledger.NewMockLedger()
	client, err := solanatx.New(
		solanatx.WithNode(mock),
		solanatx.WithCluster(solanatx.ClusterLocalnet),
		solanatx.WithPollInterval(time.Millisecond),
		solanatx.WithConfirmTimeout(time.Second),
	)
	require.NoError(t, err)
	defer client.Close()
	ctx := context.Background()
	payer := test.Keypair(1)
	recipient := test.Keypair(2).PublicAddress()
	handle, err := client.Submission().RequestTestFunds(ctx, payer.PublicAddress(), common.LamportsPerSOL)
	require.NoError(t, err)
	_, err = client.Submission().AwaitCommitment(ctx, handle, common.CommitmentConfirmed, time.Millisecond, time.Second)
	require.NoError(t, err)

	result, err := client.BuildAndSubmit(
		ctx,
		[]ledger.Instruction{system.Transfer(payer.PublicAddress(), recipient, common.LamportsPerSOL/4)},
		payer.PublicAddress(),
		[]common.Signer{payer},
		common.CommitmentFinalized,
	)
	require.NoError(t, err)
	assert.True(t, result.Committed())
	balance, err := client.Oracle().CurrentBalance(ctx, recipient)
	require.NoError(t, err)
	assert.Equal(t, uint64(common.LamportsPerSOL/4), balance)

	// The recipient key is not required by the message
	_, err = client.BuildAndSubmit(
		ctx,
		[]ledger.Instruction{system.Transfer(payer.PublicAddress(), recipient, common.LamportsPerSOL/4)},
		payer.PublicAddress(),
		[]common.Signer{payer, test.Keypair(2)},
		common.CommitmentConfirmed,
	)
	assert.ErrorIs(t, err, common.ErrUnexpectedSigner)
	assert.Equal(t, 1, mock.SendCount())
}

func TestMainnetRejectsAirdrop(t *testing.T) {
	mock := test_ledger.NewMockLedger()
	client, err := solanatx.New(
		solanatx.WithNode(mock),
		solanatx.WithCluster(solanatx.ClusterMainnet),
	)
	require.NoError(t, err)
	_, err = client.Submission().RequestTestFunds(context.Background(), test.Keypair(1).PublicAddress(), 1)
	assert.ErrorIs(t, err, common.ErrAirdropRejected)
	balance, err := client.Oracle().CurrentBalance(context.Background(), test.Keypair(1).PublicAddress())
	require.NoError(t, err)
	assert.Zero(t, balance)
}
