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

package ledger_test

import (
	"testing"

	"github.com/blinklabs-io/solanatx/keys"
	"github.com/blinklabs-io/solanatx/ledger"
	"github.com/blinklabs-io/solanatx/ledger/common"
	"github.com/gagliardetto/solana-go"
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

func testBlockhash() common.Hash {
	var h common.Hash
	for i := range h {
		h[i] = byte(i + 1)
	}
	return h
}

func TestAssemblePartitionOrder(t *testing.T) {
	payer := testAddress(1)
	signerRo := testAddress(2)
	writable := testAddress(3)
	readonly := testAddress(4)
	signerRw := testAddress(5)
	program := testAddress(6)
	instrs := []ledger.Instruction{
		{
			ProgramId: program,
			Accounts: []ledger.AccountMeta{
				ledger.NewAccountMeta(readonly, false, false),
				ledger.NewAccountMeta(writable, false, true),
				ledger.NewAccountMeta(signerRo, true, false),
				ledger.NewAccountMeta(signerRw, true, true),
			},
			Data: []byte{1},
		},
	}
	msg, err := ledger.Assemble(instrs, payer, testBlockhash())
	require.NoError(t, err)
	assert.Equal(
		t,
		[]common.Address{payer, signerRw, signerRo, writable, readonly, program},
		msg.AccountKeys,
	)
	assert.Equal(
		t,
		ledger.MessageHeader{
			NumRequiredSignatures:       3,
			NumReadonlySignedAccounts:   1,
			NumReadonlyUnsignedAccounts: 2,
		},
		msg.Header,
	)
	assert.Equal(t, payer, msg.FeePayer())
	assert.Equal(t, []common.Address{payer, signerRw, signerRo}, msg.Signers())
	expectedWritable := []bool{true, true, false, true, false, false}
	for idx, expected := range expectedWritable {
		assert.Equal(t, expected, msg.IsWritable(idx), "account %d", idx)
	}
	assert.Equal(t, []uint8{4, 3, 2, 1}, msg.Instructions[0].Accounts)
	assert.Equal(t, uint8(5), msg.Instructions[0].ProgramIdIndex)
}

func TestAssembleMergesFlags(t *testing.T) {
	payer := testAddress(1)
	acct := testAddress(2)
	program := testAddress(3)
	instrs := []ledger.Instruction{
		{
			ProgramId: program,
			Accounts: []ledger.AccountMeta{
				ledger.NewAccountMeta(acct, false, false),
			},
		},
		{
			ProgramId: program,
			Accounts: []ledger.AccountMeta{
				ledger.NewAccountMeta(acct, true, true),
				ledger.NewAccountMeta(payer, false, false),
			},
		},
	}
	msg, err := ledger.Assemble(instrs, payer, testBlockhash())
	require.NoError(t, err)
	// Each address appears once, with the union of its flags
	assert.Equal(t, []common.Address{payer, acct, program}, msg.AccountKeys)
	assert.Equal(t, uint8(2), msg.Header.NumRequiredSignatures)
	assert.Equal(t, uint8(0), msg.Header.NumReadonlySignedAccounts)
	assert.Equal(t, uint8(1), msg.Header.NumReadonlyUnsignedAccounts)
	// Resolved instructions see the merged flags
	instr, err := msg.Instruction(0)
	require.NoError(t, err)
	assert.True(t, instr.Accounts[0].IsSigner)
	assert.True(t, instr.Accounts[0].IsWritable)
}

func TestAssembleFeePayerFirst(t *testing.T) {
	payer := testAddress(9)
	other := testAddress(1)
	program := testAddress(2)
	instrs := []ledger.Instruction{
		{
			ProgramId: program,
			Accounts: []ledger.AccountMeta{
				ledger.NewAccountMeta(other, true, true),
				ledger.NewAccountMeta(payer, false, true),
			},
		},
	}
	msg, err := ledger.Assemble(instrs, payer, testBlockhash())
	require.NoError(t, err)
	assert.Equal(t, payer, msg.AccountKeys[0])
	assert.True(t, msg.IsSigner(0))
	assert.True(t, msg.IsWritable(0))
}

func TestAssemblePreservesDuplicateInstructions(t *testing.T) {
	payer := testAddress(1)
	dest := testAddress(2)
	program := testAddress(3)
	transfer := ledger.Instruction{
		ProgramId: program,
		Accounts: []ledger.AccountMeta{
			ledger.NewAccountMeta(payer, true, true),
			ledger.NewAccountMeta(dest, false, true),
		},
		Data: []byte{2, 0, 0, 0},
	}
	other := ledger.Instruction{
		ProgramId: program,
		Accounts:  transfer.Accounts,
		Data:      []byte{9},
	}
	msg, err := ledger.Assemble(
		[]ledger.Instruction{transfer, other, transfer},
		payer,
		testBlockhash(),
	)
	require.NoError(t, err)
	require.Len(t, msg.Instructions, 3)
	assert.Equal(t, transfer.Data, msg.Instructions[0].Data)
	assert.Equal(t, other.Data, msg.Instructions[1].Data)
	assert.Equal(t, msg.Instructions[0], msg.Instructions[2])
}

func TestAssembleErrors(t *testing.T) {
	_, err := ledger.Assemble(nil, testAddress(1), testBlockhash())
	assert.Error(t, err)
	instr := ledger.Instruction{ProgramId: testAddress(2)}
	_, err = ledger.Assemble([]ledger.Instruction{instr}, testAddress(1), common.Hash{})
	assert.Error(t, err)
	// Too many accounts
	var accounts []ledger.AccountMeta
	for i := range 300 {
		var addr common.Address
		addr[0] = byte(i)
		addr[1] = byte(i >> 8)
		addr[2] = 0xaa
		accounts = append(accounts, ledger.NewAccountMeta(addr, false, false))
	}
	instr.Accounts = accounts
	_, err = ledger.Assemble([]ledger.Instruction{instr}, testAddress(1), testBlockhash())
	assert.ErrorIs(t, err, common.ErrTooManyAccounts)
}

func TestAssembleDeterministic(t *testing.T) {
	instrs := []ledger.Instruction{
		{
			ProgramId: testAddress(3),
			Accounts: []ledger.AccountMeta{
				ledger.NewAccountMeta(testAddress(2), true, false),
				ledger.NewAccountMeta(testAddress(4), false, true),
			},
			Data: []byte{1, 2, 3},
		},
	}
	msg1, err := ledger.Assemble(instrs, testAddress(1), testBlockhash())
	require.NoError(t, err)
	msg2, err := ledger.Assemble(instrs, testAddress(1), testBlockhash())
	require.NoError(t, err)
	assert.Equal(t, msg1.Bytes(), msg2.Bytes())
}

func TestMessageBytesMatchesSolanaGo(t *testing.T) {
	payer, err := keys.NewKeypair()
	require.NoError(t, err)
	newAcct, err := keys.NewKeypair()
	require.NoError(t, err)
	dest := testAddress(7)
	program := common.SystemProgramId
	instrs := []ledger.Instruction{
		{
			ProgramId: program,
			Accounts: []ledger.AccountMeta{
				ledger.NewAccountMeta(payer.PublicAddress(), true, true),
				ledger.NewAccountMeta(newAcct.PublicAddress(), true, true),
			},
			Data: []byte{0, 0, 0, 0, 1},
		},
		{
			ProgramId: program,
			Accounts: []ledger.AccountMeta{
				ledger.NewAccountMeta(payer.PublicAddress(), true, true),
				ledger.NewAccountMeta(dest, false, true),
			},
			Data: []byte{2, 0, 0, 0, 5},
		},
	}
	msg, err := ledger.Assemble(instrs, payer.PublicAddress(), testBlockhash())
	require.NoError(t, err)

	toSolana := func(a common.Address) solana.PublicKey {
		return solana.PublicKeyFromBytes(a[:])
	}
	solInstrs := make([]solana.Instruction, 0, len(instrs))
	for _, instr := range instrs {
		metas := make(solana.AccountMetaSlice, 0, len(instr.Accounts))
		for _, meta := range instr.Accounts {
			metas = append(
				metas,
				solana.NewAccountMeta(toSolana(meta.Address), meta.IsWritable, meta.IsSigner),
			)
		}
		solInstrs = append(solInstrs, solana.NewInstruction(toSolana(instr.ProgramId), metas, instr.Data))
	}
	blockhash := testBlockhash()
	solTx, err := solana.NewTransaction(
		solInstrs,
		solana.HashFromBytes(blockhash[:]),
		solana.TransactionPayer(toSolana(payer.PublicAddress())),
	)
	require.NoError(t, err)
	expected, err := solTx.Message.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, expected, msg.Bytes())
}

func TestDecodeMessage(t *testing.T) {
	instrs := []ledger.Instruction{
		{
			ProgramId: testAddress(3),
			Accounts: []ledger.AccountMeta{
				ledger.NewAccountMeta(testAddress(2), true, false),
				ledger.NewAccountMeta(testAddress(4), false, true),
			},
			Data: make([]byte, 200),
		},
	}
	msg, err := ledger.Assemble(instrs, testAddress(1), testBlockhash())
	require.NoError(t, err)
	decoded, err := ledger.DecodeMessage(msg.Bytes())
	require.NoError(t, err)
	assert.Equal(t, msg.Bytes(), decoded.Bytes())
	assert.Equal(t, msg.AccountKeys, decoded.AccountKeys)
	instr, err := decoded.Instruction(0)
	require.NoError(t, err)
	assert.Equal(t, instrs[0].ProgramId, instr.ProgramId)
	assert.Equal(t, instrs[0].Data, instr.Data)

	_, err = ledger.DecodeMessage(msg.Bytes()[:10])
	assert.Error(t, err)
	_, err = ledger.DecodeMessage(append(msg.Bytes(), 0))
	assert.Error(t, err)
}
