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

// Package associatedtoken builds instructions for the associated token
// program, which creates the canonical token account of a wallet for a mint
package associatedtoken

import (
	"github.com/blinklabs-io/solanatx/ledger"
	"github.com/blinklabs-io/solanatx/ledger/common"
)

// Instruction discriminators
const (
	InstructionCreate           uint8 = 0
	InstructionCreateIdempotent uint8 = 1
)

// FindAddress derives the associated token account address of a wallet for
// a mint
func FindAddress(
	wallet common.Address,
	mint common.Address,
) (common.Address, uint8, error) {
	return common.FindProgramAddress(
		[][]byte{
			wallet[:],
			common.TokenProgramId[:],
			mint[:],
		},
		common.AssociatedTokenProgramId,
	)
}

// Create returns an instruction that creates the associated token account of
// the wallet for the mint. The ledger rejects it when the account already
// exists
func Create(
	payer common.Address,
	wallet common.Address,
	mint common.Address,
) (ledger.Instruction, error) {
	return newCreateInstruction(InstructionCreate, payer, wallet, mint)
}

// CreateIdempotent is like Create but succeeds without changes when the
// account already exists with the expected owner and mint
func CreateIdempotent(
	payer common.Address,
	wallet common.Address,
	mint common.Address,
) (ledger.Instruction, error) {
	return newCreateInstruction(InstructionCreateIdempotent, payer, wallet, mint)
}

func newCreateInstruction(
	instrType uint8,
	payer common.Address,
	wallet common.Address,
	mint common.Address,
) (ledger.Instruction, error) {
	ata, _, err := FindAddress(wallet, mint)
	if err != nil {
		return ledger.Instruction{}, err
	}
	return ledger.Instruction{
		ProgramId: common.AssociatedTokenProgramId,
		Accounts: []ledger.AccountMeta{
			ledger.NewAccountMeta(payer, true, true),
			ledger.NewAccountMeta(ata, false, true),
			ledger.NewAccountMeta(wallet, false, false),
			ledger.NewAccountMeta(mint, false, false),
			ledger.NewAccountMeta(common.SystemProgramId, false, false),
			ledger.NewAccountMeta(common.TokenProgramId, false, false),
		},
		Data: []byte{instrType},
	}, nil
}
