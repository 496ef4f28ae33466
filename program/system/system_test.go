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

package system_test

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/blinklabs-io/solanatx/internal/test"
	"github.com/blinklabs-io/solanatx/ledger/common"
	"github.com/blinklabs-io/solanatx/program/system"
	"github.com/gagliardetto/solana-go"
	solsystem "github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddress(b byte) common.Address {
	var a common.Address
	for i := range a {
		a[i] = b
	}
	return a
}

func toSolana(a common.Address) solana.PublicKey {
	return solana.PublicKeyFromBytes(a[:])
}

func TestCreateAccount(t *testing.T) {
	payer := testAddress(1)
	newAcct := testAddress(2)
	instr := system.CreateAccount(payer, newAcct, common.TokenProgramId, 1_461_600, 82)
	assert.Equal(t, common.SystemProgramId, instr.ProgramId)
	require.Len(t, instr.Accounts, 2)
	assert.True(t, instr.Accounts[0].IsSigner && instr.Accounts[0].IsWritable)
	assert.True(t, instr.Accounts[1].IsSigner && instr.Accounts[1].IsWritable)

	expected, err := solsystem.NewCreateAccountInstruction(
		1_461_600,
		82,
		toSolana(common.TokenProgramId),
		toSolana(payer),
		toSolana(newAcct),
	).Build().Data()
	require.NoError(t, err)
	assert.Equal(t, expected, instr.Data)

	decoded, err := system.DecodeInstruction(instr.Data)
	require.NoError(t, err)
	assert.Equal(
		t,
		system.CreateAccountParams{Lamports: 1_461_600, Space: 82, Owner: common.TokenProgramId},
		decoded,
	)
}

func TestTransfer(t *testing.T) {
	from := testAddress(1)
	to := testAddress(2)
	instr := system.Transfer(from, to, 990_880)
	require.Len(t, instr.Accounts, 2)
	assert.True(t, instr.Accounts[0].IsSigner)
	assert.False(t, instr.Accounts[1].IsSigner)
	assert.True(t, instr.Accounts[1].IsWritable)

	expected, err := solsystem.NewTransferInstruction(990_880, toSolana(from), toSolana(to)).Build().Data()
	require.NoError(t, err)
	assert.Equal(t, expected, instr.Data)
	assert.Equal(t, test.DecodeHexString("02000000a01e0f0000000000"), instr.Data)

	decoded, err := system.DecodeInstruction(instr.Data)
	require.NoError(t, err)
	assert.Equal(t, system.TransferParams{Lamports: 990_880}, decoded)
}

func TestCreateAccountWithSeed(t *testing.T) {
	payer := testAddress(1)
	base := testAddress(3)
	derived, err := common.CreateWithSeed(base, "test_program_001", common.SystemProgramId)
	require.NoError(t, err)
	testDefs := []struct {
		name         string
		base         common.Address
		expectedAccs int
	}{
		{name: "payer is base", base: payer, expectedAccs: 2},
		{name: "distinct base", base: base, expectedAccs: 3},
	}
	for _, testDef := range testDefs {
		instr, err := system.CreateAccountWithSeed(
			payer,
			derived,
			testDef.base,
			"test_program_001",
			common.SystemProgramId,
			890_880,
			0,
		)
		if err != nil {
			t.Fatalf("%s: unexpected error: %s", testDef.name, err)
		}
		require.Len(t, instr.Accounts, testDef.expectedAccs, testDef.name)
		assert.False(t, instr.Accounts[1].IsSigner, testDef.name)
		assert.True(t, instr.Accounts[1].IsWritable, testDef.name)
		if testDef.expectedAccs == 3 {
			assert.True(t, instr.Accounts[2].IsSigner, testDef.name)
		}
		// discriminator, base, u64 seed length, seed, lamports, space, owner
		require.Len(t, instr.Data, 4+32+8+16+8+8+32)
		assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(instr.Data[0:4]))
		assert.Equal(t, uint64(16), binary.LittleEndian.Uint64(instr.Data[36:44]))
		assert.Equal(t, "test_program_001", string(instr.Data[44:60]))

		decoded, err := system.DecodeInstruction(instr.Data)
		require.NoError(t, err)
		assert.Equal(
			t,
			system.CreateAccountWithSeedParams{
				Base:     testDef.base,
				Seed:     "test_program_001",
				Lamports: 890_880,
				Space:    0,
				Owner:    common.SystemProgramId,
			},
			decoded,
		)
	}
}

func TestCreateAccountWithSeedInvalidSeed(t *testing.T) {
	_, err := system.CreateAccountWithSeed(
		testAddress(1),
		testAddress(2),
		testAddress(1),
		strings.Repeat("s", 33),
		common.SystemProgramId,
		1,
		0,
	)
	assert.ErrorIs(t, err, common.ErrInvalidSeed)
}

func TestDecodeInstructionInvalid(t *testing.T) {
	for _, data := range [][]byte{
		{},
		{9, 0, 0, 0},
		{2, 0, 0, 0, 1},
		append(system.Transfer(testAddress(1), testAddress(2), 5).Data, 0),
	} {
		_, err := system.DecodeInstruction(data)
		assert.Error(t, err, "%x", data)
	}
}
