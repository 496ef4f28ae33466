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

package ledger

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/blinklabs-io/solanatx/ledger/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTransactionError(t *testing.T) {
	testDefs := []struct {
		json     string
		expected *TransactionError
	}{
		{
			json:     `"BlockhashNotFound"`,
			expected: NewTransactionError(TxErrorBlockhashNotFound),
		},
		{
			json:     `{"InstructionError":[0,{"Custom":0}]}`,
			expected: NewCustomInstructionError(0, 0),
		},
		{
			json:     `{"InstructionError":[2,{"Custom":18}]}`,
			expected: NewCustomInstructionError(2, 18),
		},
		{
			json:     `{"InstructionError":[1,"MissingRequiredSignature"]}`,
			expected: NewInstructionError(1, InstrErrorMissingRequiredSignature),
		},
		{
			json: `{"InsufficientFundsForRent":{"account_index":3}}`,
			expected: &TransactionError{
				Kind:             TxErrorInsufficientFundsForRent,
				InstructionIndex: -1,
				AccountIndex:     3,
			},
		},
	}
	for _, testDef := range testDefs {
		txErr, err := ParseTransactionError(json.RawMessage(testDef.json))
		if err != nil {
			t.Fatalf("unexpected error parsing %s: %s", testDef.json, err)
		}
		assert.Equal(t, testDef.expected, txErr, testDef.json)
		// The decoded form used by JSON-RPC clients parses the same way
		var tmp any
		require.NoError(t, json.Unmarshal([]byte(testDef.json), &tmp))
		txErr2, err := ParseTransactionError(tmp)
		require.NoError(t, err)
		assert.Equal(t, testDef.expected, txErr2, testDef.json)
		// And the value round-trips through JSON
		data, err := json.Marshal(txErr)
		require.NoError(t, err)
		assert.JSONEq(t, testDef.json, string(data))
	}
}

func TestParseTransactionErrorInvalid(t *testing.T) {
	for _, value := range []any{
		nil,
		42,
		map[string]any{"InstructionError": "bogus"},
		map[string]any{"a": 1, "b": 2},
		json.RawMessage(`{`),
	} {
		_, err := ParseTransactionError(value)
		assert.Error(t, err, "%v", value)
	}
}

func TestClassifyTransactionError(t *testing.T) {
	testDefs := []struct {
		name      string
		txErr     *TransactionError
		programId common.Address
		logs      []string
		expected  error
	}{
		{
			name:      "system account in use",
			txErr:     NewCustomInstructionError(0, SystemErrorAccountAlreadyInUse),
			programId: common.SystemProgramId,
			expected:  common.ErrAccountAlreadyExists,
		},
		{
			name:      "system negative lamports",
			txErr:     NewCustomInstructionError(1, SystemErrorResultWithNegativeLamports),
			programId: common.SystemProgramId,
			expected:  common.ErrInsufficientFunds,
		},
		{
			name:      "system seed mismatch",
			txErr:     NewCustomInstructionError(0, SystemErrorAddressWithSeedMismatch),
			programId: common.SystemProgramId,
			expected:  common.ErrAddressMismatch,
		},
		{
			name:      "token decimals",
			txErr:     NewCustomInstructionError(4, TokenErrorMintDecimalsMismatch),
			programId: common.TokenProgramId,
			expected:  common.ErrDecimalMismatch,
		},
		{
			name:      "token insufficient funds",
			txErr:     NewCustomInstructionError(0, TokenErrorInsufficientFunds),
			programId: common.TokenProgramId,
			expected:  common.ErrInsufficientFunds,
		},
		{
			name:      "associated token account exists",
			txErr:     NewCustomInstructionError(0, 0),
			programId: common.AssociatedTokenProgramId,
			logs: []string{
				"Program ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL invoke [1]",
				"Create Account: account Address { address: x, base: None } already in use",
			},
			expected: common.ErrAccountAlreadyExists,
		},
		{
			name:      "nested transfer without funds",
			txErr:     NewCustomInstructionError(1, 1),
			programId: common.AssociatedTokenProgramId,
			logs: []string{
				"Transfer: insufficient lamports 100, need 2039280",
			},
			expected: common.ErrInsufficientFunds,
		},
		{
			name:      "associated token account created twice",
			txErr:     NewInstructionError(0, InstrErrorIllegalOwner),
			programId: common.AssociatedTokenProgramId,
			logs: []string{
				"Program ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL invoke [1]",
				"Program log: Create",
				"Program ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL failed: Provided owner is not allowed",
			},
			expected: common.ErrAccountAlreadyExists,
		},
		{
			name:      "illegal owner outside associated token program",
			txErr:     NewInstructionError(0, InstrErrorIllegalOwner),
			programId: common.TokenProgramId,
			expected:  nil,
		},
		{
			name:      "associated token invalid owner",
			txErr:     NewCustomInstructionError(0, AssociatedTokenErrorInvalidOwner),
			programId: common.AssociatedTokenProgramId,
			expected:  common.ErrAddressMismatch,
		},
		{
			name:      "metadata key mismatch",
			txErr:     NewCustomInstructionError(2, MetadataErrorInvalidMetadataKey),
			programId: common.TokenMetadataProgramId,
			expected:  common.ErrAddressMismatch,
		},
		{
			name:     "already initialized",
			txErr:    NewInstructionError(3, InstrErrorAccountAlreadyInitialized),
			expected: common.ErrAccountAlreadyExists,
		},
		{
			name:     "missing signature",
			txErr:    NewInstructionError(0, InstrErrorMissingRequiredSignature),
			expected: common.ErrMissingSigner,
		},
		{
			name:     "blockhash",
			txErr:    NewTransactionError(TxErrorBlockhashNotFound),
			expected: common.ErrBlockhashNotFound,
		},
		{
			name:     "fee",
			txErr:    NewTransactionError(TxErrorInsufficientFundsForFee),
			expected: common.ErrInsufficientFunds,
		},
		{
			name:      "unknown custom code",
			txErr:     NewCustomInstructionError(0, 99),
			programId: common.TokenMetadataProgramId,
			expected:  nil,
		},
	}
	for _, testDef := range testDefs {
		got := ClassifyTransactionError(testDef.txErr, testDef.programId, testDef.logs)
		if testDef.expected == nil {
			assert.NoError(t, got, testDef.name)
			continue
		}
		assert.True(t, errors.Is(got, testDef.expected), "%s: got %v", testDef.name, got)
	}
}

func TestClassifyMessageError(t *testing.T) {
	var payer common.Address
	payer[0] = 1
	msg, err := Assemble(
		[]Instruction{
			{ProgramId: common.SystemProgramId, Accounts: []AccountMeta{NewAccountMeta(payer, true, true)}},
			{ProgramId: common.TokenProgramId, Accounts: []AccountMeta{NewAccountMeta(payer, true, true)}},
		},
		payer,
		common.NewHash([]byte{1, 2, 3}),
	)
	require.NoError(t, err)
	got := ClassifyMessageError(NewCustomInstructionError(1, TokenErrorAlreadyInUse), msg, nil)
	assert.ErrorIs(t, got, common.ErrAccountAlreadyExists)
	got = ClassifyMessageError(NewCustomInstructionError(0, SystemErrorMaxSeedLengthExceeded), msg, nil)
	assert.ErrorIs(t, got, common.ErrInvalidSeed)
}
