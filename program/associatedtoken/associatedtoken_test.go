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

package associatedtoken_test

import (
	"testing"

	"github.com/blinklabs-io/solanatx/keys"
	"github.com/blinklabs-io/solanatx/ledger"
	"github.com/blinklabs-io/solanatx/ledger/common"
	"github.com/blinklabs-io/solanatx/program/associatedtoken"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindAddress(t *testing.T) {
	for range 5 {
		wallet, err := keys.NewKeypair()
		require.NoError(t, err)
		mint, err := keys.NewKeypair()
		require.NoError(t, err)
		addr, bump, err := associatedtoken.FindAddress(wallet.PublicAddress(), mint.PublicAddress())
		require.NoError(t, err)
		assert.False(t, common.IsOnCurve(addr.Bytes()))
		expected, expectedBump, err := solana.FindAssociatedTokenAddress(
			solana.PublicKeyFromBytes(wallet.PublicAddress().Bytes()),
			solana.PublicKeyFromBytes(mint.PublicAddress().Bytes()),
		)
		require.NoError(t, err)
		assert.Equal(t, expected.String(), addr.String())
		assert.Equal(t, expectedBump, bump)
	}
}

func TestCreate(t *testing.T) {
	var payer, wallet, mint common.Address
	payer[0], wallet[0], mint[0] = 1, 2, 3
	ata, _, err := associatedtoken.FindAddress(wallet, mint)
	require.NoError(t, err)
	testDefs := []struct {
		create       func(common.Address, common.Address, common.Address) (ledger.Instruction, error)
		expectedData []byte
	}{
		{create: associatedtoken.Create, expectedData: []byte{0}},
		{create: associatedtoken.CreateIdempotent, expectedData: []byte{1}},
	}
	for _, testDef := range testDefs {
		instr, err := testDef.create(payer, wallet, mint)
		require.NoError(t, err)
		assert.Equal(t, common.AssociatedTokenProgramId, instr.ProgramId)
		assert.Equal(t, testDef.expectedData, instr.Data)
		require.Len(t, instr.Accounts, 6)
		expectedAccounts := []common.Address{
			payer,
			ata,
			wallet,
			mint,
			common.SystemProgramId,
			common.TokenProgramId,
		}
		for idx, meta := range instr.Accounts {
			assert.Equal(t, expectedAccounts[idx], meta.Address)
			assert.Equal(t, idx == 0, meta.IsSigner)
			assert.Equal(t, idx <= 1, meta.IsWritable)
		}
	}
}
