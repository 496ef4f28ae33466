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

// Package system builds instructions for the system program, which creates
// accounts and moves lamports
package system

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/blinklabs-io/solanatx/ledger"
	"github.com/blinklabs-io/solanatx/ledger/common"
	bin "github.com/gagliardetto/binary"
)

// Instruction discriminators
const (
	InstructionCreateAccount         uint32 = 0
	InstructionAssign                uint32 = 1
	InstructionTransfer              uint32 = 2
	InstructionCreateAccountWithSeed uint32 = 3
)

// CreateAccount returns an instruction that creates a new account funded by
// the payer and owned by the given program. Both the payer and the new
// account must sign
func CreateAccount(
	payer common.Address,
	newAccount common.Address,
	owner common.Address,
	lamports uint64,
	space uint64,
) ledger.Instruction {
	buf := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buf)
	_ = encoder.WriteUint32(InstructionCreateAccount, bin.LE)
	_ = encoder.WriteUint64(lamports, bin.LE)
	_ = encoder.WriteUint64(space, bin.LE)
	_ = encoder.WriteBytes(owner[:], false)
	return ledger.Instruction{
		ProgramId: common.SystemProgramId,
		Accounts: []ledger.AccountMeta{
			ledger.NewAccountMeta(payer, true, true),
			ledger.NewAccountMeta(newAccount, true, true),
		},
		Data: buf.Bytes(),
	}
}

// CreateAccountWithSeed returns an instruction that creates an account at an
// address derived with common.CreateWithSeed. The base account must sign,
// the derived account does not. The derivation is not checked here: the
// ledger rejects a derived address that does not match base, seed and owner
func CreateAccountWithSeed(
	payer common.Address,
	derived common.Address,
	base common.Address,
	seed string,
	owner common.Address,
	lamports uint64,
	space uint64,
) (ledger.Instruction, error) {
	if len(seed) > common.MaxSeedLength {
		return ledger.Instruction{}, common.InvalidSeedError{
			Reason: fmt.Sprintf(
				"seed length %d exceeds maximum of %d",
				len(seed),
				common.MaxSeedLength,
			),
		}
	}
	buf := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buf)
	_ = encoder.WriteUint32(InstructionCreateAccountWithSeed, bin.LE)
	_ = encoder.WriteBytes(base[:], false)
	_ = encoder.WriteRustString(seed)
	_ = encoder.WriteUint64(lamports, bin.LE)
	_ = encoder.WriteUint64(space, bin.LE)
	_ = encoder.WriteBytes(owner[:], false)
	accounts := []ledger.AccountMeta{
		ledger.NewAccountMeta(payer, true, true),
		ledger.NewAccountMeta(derived, false, true),
	}
	if base != payer {
		accounts = append(accounts, ledger.NewAccountMeta(base, true, false))
	}
	return ledger.Instruction{
		ProgramId: common.SystemProgramId,
		Accounts:  accounts,
		Data:      buf.Bytes(),
	}, nil
}

// Transfer returns an instruction that moves lamports between accounts. The
// sender must sign
func Transfer(
	from common.Address,
	to common.Address,
	lamports uint64,
) ledger.Instruction {
	buf := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buf)
	_ = encoder.WriteUint32(InstructionTransfer, bin.LE)
	_ = encoder.WriteUint64(lamports, bin.LE)
	return ledger.Instruction{
		ProgramId: common.SystemProgramId,
		Accounts: []ledger.AccountMeta{
			ledger.NewAccountMeta(from, true, true),
			ledger.NewAccountMeta(to, false, true),
		},
		Data: buf.Bytes(),
	}
}

// CreateAccountParams holds the decoded data of a CreateAccount instruction
type CreateAccountParams struct {
	Lamports uint64
	Space    uint64
	Owner    common.Address
}

// CreateAccountWithSeedParams holds the decoded data of a
// CreateAccountWithSeed instruction
type CreateAccountWithSeedParams struct {
	Base     common.Address
	Seed     string
	Lamports uint64
	Space    uint64
	Owner    common.Address
}

// TransferParams holds the decoded data of a Transfer instruction
type TransferParams struct {
	Lamports uint64
}

// DecodeInstruction decodes system program instruction data into one of
// the *Params types
func DecodeInstruction(data []byte) (any, error) {
	decoder := bin.NewBinDecoder(data)
	instrType, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return nil, fmt.Errorf("failed to read instruction type: %w", err)
	}
	var ret any
	switch instrType {
	case InstructionCreateAccount:
		var params CreateAccountParams
		if params.Lamports, err = decoder.ReadUint64(bin.LE); err != nil {
			return nil, err
		}
		if params.Space, err = decoder.ReadUint64(bin.LE); err != nil {
			return nil, err
		}
		if params.Owner, err = readAddress(decoder); err != nil {
			return nil, err
		}
		ret = params
	case InstructionCreateAccountWithSeed:
		var params CreateAccountWithSeedParams
		if params.Base, err = readAddress(decoder); err != nil {
			return nil, err
		}
		if params.Seed, err = decoder.ReadRustString(); err != nil {
			return nil, err
		}
		if params.Lamports, err = decoder.ReadUint64(bin.LE); err != nil {
			return nil, err
		}
		if params.Space, err = decoder.ReadUint64(bin.LE); err != nil {
			return nil, err
		}
		if params.Owner, err = readAddress(decoder); err != nil {
			return nil, err
		}
		ret = params
	case InstructionTransfer:
		var params TransferParams
		if params.Lamports, err = decoder.ReadUint64(bin.LE); err != nil {
			return nil, err
		}
		ret = params
	default:
		return nil, fmt.Errorf("unsupported system instruction type: %d", instrType)
	}
	if decoder.Remaining() > 0 {
		return nil, errors.New("trailing bytes after system instruction")
	}
	return ret, nil
}

func readAddress(decoder *bin.Decoder) (common.Address, error) {
	data, err := decoder.ReadBytes(common.AddressSize)
	if err != nil {
		return common.Address{}, err
	}
	return common.NewAddressFromBytes(data)
}
