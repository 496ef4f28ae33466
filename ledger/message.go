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
	"errors"
	"fmt"

	"github.com/blinklabs-io/solanatx/ledger/common"
	bin "github.com/gagliardetto/binary"
)

// MaxAccountsPerMessage is the number of accounts addressable by a u8 index
const MaxAccountsPerMessage = 256

// MessageHeader counts the signer and read-only accounts of a message
type MessageHeader struct {
	NumRequiredSignatures       uint8
	NumReadonlySignedAccounts   uint8
	NumReadonlyUnsignedAccounts uint8
}

// CompiledInstruction is an instruction with its addresses replaced by
// indexes into the account keys of the message
type CompiledInstruction struct {
	ProgramIdIndex uint8
	Accounts       []uint8
	Data           []byte
}

// Message is the signed portion of a transaction
type Message struct {
	Header          MessageHeader
	AccountKeys     []common.Address
	RecentBlockhash common.Hash
	Instructions    []CompiledInstruction
}

type assembledAccount struct {
	address    common.Address
	isSigner   bool
	isWritable bool
}

func (a *assembledAccount) group() int {
	switch {
	case a.isSigner && a.isWritable:
		return 0
	case a.isSigner:
		return 1
	case a.isWritable:
		return 2
	default:
		return 3
	}
}

// Assemble compiles instructions into a message. Accounts are deduplicated
// with their signer and writable flags merged, then ordered as
// signer+writable, signer+read-only, non-signer+writable and
// non-signer+read-only, with the fee payer first. Within each group accounts
// keep the order in which they first appear. Instructions keep their order
// and are never deduplicated.
//
// Instruction order is significant: an instruction that depends on the
// effects of another must come after it.
func Assemble(
	instructions []Instruction,
	feePayer common.Address,
	recentBlockhash common.Hash,
) (*Message, error) {
	if len(instructions) == 0 {
		return nil, errors.New("at least one instruction is required")
	}
	if recentBlockhash.IsZero() {
		return nil, errors.New("recent blockhash is required")
	}
	accounts := []*assembledAccount{
		{address: feePayer, isSigner: true, isWritable: true},
	}
	accountIdx := map[common.Address]*assembledAccount{
		feePayer: accounts[0],
	}
	addAccount := func(addr common.Address, isSigner bool, isWritable bool) {
		if acct, ok := accountIdx[addr]; ok {
			acct.isSigner = acct.isSigner || isSigner
			acct.isWritable = acct.isWritable || isWritable
			return
		}
		acct := &assembledAccount{
			address:    addr,
			isSigner:   isSigner,
			isWritable: isWritable,
		}
		accounts = append(accounts, acct)
		accountIdx[addr] = acct
	}
	for _, instr := range instructions {
		for _, meta := range instr.Accounts {
			addAccount(meta.Address, meta.IsSigner, meta.IsWritable)
		}
		addAccount(instr.ProgramId, false, false)
	}
	if len(accounts) > MaxAccountsPerMessage {
		return nil, fmt.Errorf(
			"%w: %d accounts exceeds maximum of %d",
			common.ErrTooManyAccounts,
			len(accounts),
			MaxAccountsPerMessage,
		)
	}
	// Partition into the four groups, fee payer first
	ordered := make([]*assembledAccount, 0, len(accounts))
	ordered = append(ordered, accounts[0])
	for group := range 4 {
		for _, acct := range accounts[1:] {
			if acct.group() == group {
				ordered = append(ordered, acct)
			}
		}
	}
	msg := &Message{
		AccountKeys:     make([]common.Address, len(ordered)),
		RecentBlockhash: recentBlockhash,
		Instructions:    make([]CompiledInstruction, 0, len(instructions)),
	}
	keyIdx := make(map[common.Address]uint8, len(ordered))
	for idx, acct := range ordered {
		msg.AccountKeys[idx] = acct.address
		// #nosec G115
		keyIdx[acct.address] = uint8(idx)
		switch acct.group() {
		case 0:
			msg.Header.NumRequiredSignatures++
		case 1:
			msg.Header.NumRequiredSignatures++
			msg.Header.NumReadonlySignedAccounts++
		case 3:
			msg.Header.NumReadonlyUnsignedAccounts++
		}
	}
	for _, instr := range instructions {
		compiled := CompiledInstruction{
			ProgramIdIndex: keyIdx[instr.ProgramId],
			Accounts:       make([]uint8, len(instr.Accounts)),
			Data:           append([]byte{}, instr.Data...),
		}
		for i, meta := range instr.Accounts {
			compiled.Accounts[i] = keyIdx[meta.Address]
		}
		msg.Instructions = append(msg.Instructions, compiled)
	}
	return msg, nil
}

// FeePayer returns the account that pays the transaction fee
func (m *Message) FeePayer() common.Address {
	if len(m.AccountKeys) == 0 {
		return common.Address{}
	}
	return m.AccountKeys[0]
}

// Signers returns the accounts that must sign the message, in signature order
func (m *Message) Signers() []common.Address {
	return m.AccountKeys[:m.Header.NumRequiredSignatures]
}

// IsSigner reports whether the account at the given index must sign
func (m *Message) IsSigner(idx int) bool {
	return idx < int(m.Header.NumRequiredSignatures)
}

// IsWritable reports whether the account at the given index is writable
func (m *Message) IsWritable(idx int) bool {
	numSigners := int(m.Header.NumRequiredSignatures)
	if idx < numSigners {
		return idx < numSigners-int(m.Header.NumReadonlySignedAccounts)
	}
	return idx < len(m.AccountKeys)-int(m.Header.NumReadonlyUnsignedAccounts)
}

// Instruction returns the compiled instruction at the given index with its
// addresses resolved
func (m *Message) Instruction(idx int) (Instruction, error) {
	if idx < 0 || idx >= len(m.Instructions) {
		return Instruction{}, fmt.Errorf("instruction index %d out of range", idx)
	}
	compiled := m.Instructions[idx]
	if int(compiled.ProgramIdIndex) >= len(m.AccountKeys) {
		return Instruction{}, fmt.Errorf(
			"program index %d out of range",
			compiled.ProgramIdIndex,
		)
	}
	ret := Instruction{
		ProgramId: m.AccountKeys[compiled.ProgramIdIndex],
		Accounts:  make([]AccountMeta, len(compiled.Accounts)),
		Data:      compiled.Data,
	}
	for i, acctIdx := range compiled.Accounts {
		if int(acctIdx) >= len(m.AccountKeys) {
			return Instruction{}, fmt.Errorf(
				"account index %d out of range",
				acctIdx,
			)
		}
		ret.Accounts[i] = AccountMeta{
			Address:    m.AccountKeys[acctIdx],
			IsSigner:   m.IsSigner(int(acctIdx)),
			IsWritable: m.IsWritable(int(acctIdx)),
		}
	}
	return ret, nil
}

// Bytes returns the serialized message, which is what gets signed
func (m *Message) Bytes() []byte {
	buf := []byte{
		m.Header.NumRequiredSignatures,
		m.Header.NumReadonlySignedAccounts,
		m.Header.NumReadonlyUnsignedAccounts,
	}
	bin.EncodeCompactU16Length(&buf, len(m.AccountKeys))
	for _, key := range m.AccountKeys {
		buf = append(buf, key[:]...)
	}
	buf = append(buf, m.RecentBlockhash[:]...)
	bin.EncodeCompactU16Length(&buf, len(m.Instructions))
	for _, instr := range m.Instructions {
		buf = append(buf, instr.ProgramIdIndex)
		bin.EncodeCompactU16Length(&buf, len(instr.Accounts))
		buf = append(buf, instr.Accounts...)
		bin.EncodeCompactU16Length(&buf, len(instr.Data))
		buf = append(buf, instr.Data...)
	}
	return buf
}

func (m *Message) MarshalBinary() ([]byte, error) {
	return m.Bytes(), nil
}

func (m *Message) UnmarshalBinary(data []byte) error {
	decoder := bin.NewBinDecoder(data)
	if err := m.decode(decoder); err != nil {
		return err
	}
	if decoder.Remaining() > 0 {
		return fmt.Errorf("%d trailing bytes after message", decoder.Remaining())
	}
	return nil
}

// DecodeMessage parses a serialized message
func DecodeMessage(data []byte) (*Message, error) {
	m := &Message{}
	if err := m.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Message) decode(decoder *bin.Decoder) error {
	header, err := decoder.ReadBytes(3)
	if err != nil {
		return fmt.Errorf("failed to read message header: %w", err)
	}
	if header[0]&0x80 != 0 {
		return errors.New("versioned messages are not supported")
	}
	m.Header = MessageHeader{
		NumRequiredSignatures:       header[0],
		NumReadonlySignedAccounts:   header[1],
		NumReadonlyUnsignedAccounts: header[2],
	}
	numKeys, err := decoder.ReadCompactU16()
	if err != nil {
		return fmt.Errorf("failed to read account key count: %w", err)
	}
	if numKeys < int(m.Header.NumRequiredSignatures) ||
		int(m.Header.NumReadonlySignedAccounts) > int(m.Header.NumRequiredSignatures) ||
		int(m.Header.NumRequiredSignatures)+int(m.Header.NumReadonlyUnsignedAccounts) > numKeys {
		return errors.New("message header does not match account keys")
	}
	m.AccountKeys = make([]common.Address, numKeys)
	for i := range numKeys {
		key, err := decoder.ReadBytes(common.AddressSize)
		if err != nil {
			return fmt.Errorf("failed to read account key: %w", err)
		}
		copy(m.AccountKeys[i][:], key)
	}
	blockhash, err := decoder.ReadBytes(common.HashSize)
	if err != nil {
		return fmt.Errorf("failed to read recent blockhash: %w", err)
	}
	m.RecentBlockhash = common.NewHash(blockhash)
	numInstrs, err := decoder.ReadCompactU16()
	if err != nil {
		return fmt.Errorf("failed to read instruction count: %w", err)
	}
	m.Instructions = make([]CompiledInstruction, numInstrs)
	for i := range numInstrs {
		programIdx, err := decoder.ReadUint8()
		if err != nil {
			return fmt.Errorf("failed to read program index: %w", err)
		}
		numAccts, err := decoder.ReadCompactU16()
		if err != nil {
			return fmt.Errorf("failed to read instruction account count: %w", err)
		}
		accts, err := decoder.ReadBytes(numAccts)
		if err != nil {
			return fmt.Errorf("failed to read instruction accounts: %w", err)
		}
		dataLen, err := decoder.ReadCompactU16()
		if err != nil {
			return fmt.Errorf("failed to read instruction data length: %w", err)
		}
		data, err := decoder.ReadBytes(dataLen)
		if err != nil {
			return fmt.Errorf("failed to read instruction data: %w", err)
		}
		m.Instructions[i] = CompiledInstruction{
			ProgramIdIndex: programIdx,
			Accounts:       append([]uint8{}, accts...),
			Data:           append([]byte{}, data...),
		}
	}
	return nil
}
