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

// Package token builds instructions for the token program and decodes its
// account layouts
package token

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
	InstructionInitializeMint    uint8 = 0
	InstructionInitializeAccount uint8 = 1
	InstructionTransfer          uint8 = 3
	InstructionMintTo            uint8 = 7
	InstructionMintToChecked     uint8 = 14
	InstructionInitializeMint2   uint8 = 20
)

// InitializeMint returns an InitializeMint2 instruction. The mint account
// must already exist with MintSize bytes of space and be owned by the token
// program, which in practice means a system CreateAccount earlier in the
// same transaction
func InitializeMint(
	mint common.Address,
	mintAuthority common.Address,
	freezeAuthority *common.Address,
	decimals uint8,
) ledger.Instruction {
	buf := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buf)
	_ = encoder.WriteUint8(InstructionInitializeMint2)
	_ = encoder.WriteUint8(decimals)
	_ = encoder.WriteBytes(mintAuthority[:], false)
	if freezeAuthority != nil {
		_ = encoder.WriteUint8(1)
		_ = encoder.WriteBytes(freezeAuthority[:], false)
	} else {
		_ = encoder.WriteUint8(0)
	}
	return ledger.Instruction{
		ProgramId: common.TokenProgramId,
		Accounts: []ledger.AccountMeta{
			ledger.NewAccountMeta(mint, false, true),
		},
		Data: buf.Bytes(),
	}
}

// MintTo returns a MintToChecked instruction. The ledger rejects the
// instruction with a decimals mismatch when decimals differs from the mint
func MintTo(
	mint common.Address,
	destination common.Address,
	authority common.Address,
	amount uint64,
	decimals uint8,
) ledger.Instruction {
	buf := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buf)
	_ = encoder.WriteUint8(InstructionMintToChecked)
	_ = encoder.WriteUint64(amount, bin.LE)
	_ = encoder.WriteUint8(decimals)
	return ledger.Instruction{
		ProgramId: common.TokenProgramId,
		Accounts: []ledger.AccountMeta{
			ledger.NewAccountMeta(mint, false, true),
			ledger.NewAccountMeta(destination, false, true),
			ledger.NewAccountMeta(authority, true, false),
		},
		Data: buf.Bytes(),
	}
}

// InitializeMintParams holds the decoded data of an InitializeMint2
// instruction
type InitializeMintParams struct {
	Decimals        uint8
	MintAuthority   common.Address
	FreezeAuthority *common.Address
}

// MintToParams holds the decoded data of a MintToChecked instruction
type MintToParams struct {
	Amount   uint64
	Decimals uint8
}

// DecodeInstruction decodes token program instruction data into one of the
// *Params types. Only the instructions built by this package are supported
func DecodeInstruction(data []byte) (any, error) {
	decoder := bin.NewBinDecoder(data)
	instrType, err := decoder.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("failed to read instruction type: %w", err)
	}
	var ret any
	switch instrType {
	case InstructionInitializeMint2:
		var params InitializeMintParams
		if params.Decimals, err = decoder.ReadUint8(); err != nil {
			return nil, err
		}
		if params.MintAuthority, err = readAddress(decoder); err != nil {
			return nil, err
		}
		tag, err := decoder.ReadUint8()
		if err != nil {
			return nil, err
		}
		switch tag {
		case 0:
		case 1:
			freeze, err := readAddress(decoder)
			if err != nil {
				return nil, err
			}
			params.FreezeAuthority = &freeze
		default:
			return nil, fmt.Errorf("invalid option tag: %d", tag)
		}
		ret = params
	case InstructionMintToChecked:
		var params MintToParams
		if params.Amount, err = decoder.ReadUint64(bin.LE); err != nil {
			return nil, err
		}
		if params.Decimals, err = decoder.ReadUint8(); err != nil {
			return nil, err
		}
		ret = params
	default:
		return nil, fmt.Errorf("unsupported token instruction type: %d", instrType)
	}
	if decoder.Remaining() > 0 {
		return nil, errors.New("trailing bytes after token instruction")
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
