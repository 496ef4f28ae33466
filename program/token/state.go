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

package token

import (
	"bytes"
	"fmt"

	"github.com/blinklabs-io/solanatx/ledger/common"
	bin "github.com/gagliardetto/binary"
)

const (
	// MintSize is the size of a mint account
	MintSize = 82
	// AccountSize is the size of a token account
	AccountSize = 165
)

// AccountState is the state of a token account
type AccountState uint8

const (
	AccountStateUninitialized AccountState = 0
	AccountStateInitialized   AccountState = 1
	AccountStateFrozen        AccountState = 2
)

// Mint is the decoded state of a mint account
type Mint struct {
	MintAuthority   *common.Address
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
	FreezeAuthority *common.Address
}

// Account is the decoded state of a token account
type Account struct {
	Mint            common.Address
	Owner           common.Address
	Amount          uint64
	Delegate        *common.Address
	State           AccountState
	IsNative        *uint64
	DelegatedAmount uint64
	CloseAuthority  *common.Address
}

// ParseMint decodes a mint account
func ParseMint(data []byte) (*Mint, error) {
	if len(data) != MintSize {
		return nil, fmt.Errorf(
			"invalid mint size: expected %d bytes, got %d",
			MintSize,
			len(data),
		)
	}
	decoder := bin.NewBinDecoder(data)
	m := &Mint{}
	var err error
	if m.MintAuthority, err = readAddressOption(decoder); err != nil {
		return nil, err
	}
	if m.Supply, err = decoder.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if m.Decimals, err = decoder.ReadUint8(); err != nil {
		return nil, err
	}
	if m.IsInitialized, err = decoder.ReadBool(); err != nil {
		return nil, err
	}
	if m.FreezeAuthority, err = readAddressOption(decoder); err != nil {
		return nil, err
	}
	return m, nil
}

// Bytes encodes the mint in its account layout
func (m *Mint) Bytes() []byte {
	buf := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buf)
	writeAddressOption(encoder, m.MintAuthority)
	_ = encoder.WriteUint64(m.Supply, bin.LE)
	_ = encoder.WriteUint8(m.Decimals)
	_ = encoder.WriteBool(m.IsInitialized)
	writeAddressOption(encoder, m.FreezeAuthority)
	return buf.Bytes()
}

// ParseAccount decodes a token account
func ParseAccount(data []byte) (*Account, error) {
	if len(data) != AccountSize {
		return nil, fmt.Errorf(
			"invalid token account size: expected %d bytes, got %d",
			AccountSize,
			len(data),
		)
	}
	decoder := bin.NewBinDecoder(data)
	a := &Account{}
	var err error
	if a.Mint, err = readAddress(decoder); err != nil {
		return nil, err
	}
	if a.Owner, err = readAddress(decoder); err != nil {
		return nil, err
	}
	if a.Amount, err = decoder.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if a.Delegate, err = readAddressOption(decoder); err != nil {
		return nil, err
	}
	state, err := decoder.ReadUint8()
	if err != nil {
		return nil, err
	}
	a.State = AccountState(state)
	nativeTag, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return nil, err
	}
	native, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return nil, err
	}
	if nativeTag == 1 {
		a.IsNative = &native
	}
	if a.DelegatedAmount, err = decoder.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if a.CloseAuthority, err = readAddressOption(decoder); err != nil {
		return nil, err
	}
	return a, nil
}

// Bytes encodes the token account in its account layout
func (a *Account) Bytes() []byte {
	buf := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buf)
	_ = encoder.WriteBytes(a.Mint[:], false)
	_ = encoder.WriteBytes(a.Owner[:], false)
	_ = encoder.WriteUint64(a.Amount, bin.LE)
	writeAddressOption(encoder, a.Delegate)
	_ = encoder.WriteUint8(uint8(a.State))
	if a.IsNative != nil {
		_ = encoder.WriteUint32(1, bin.LE)
		_ = encoder.WriteUint64(*a.IsNative, bin.LE)
	} else {
		_ = encoder.WriteUint32(0, bin.LE)
		_ = encoder.WriteUint64(0, bin.LE)
	}
	_ = encoder.WriteUint64(a.DelegatedAmount, bin.LE)
	writeAddressOption(encoder, a.CloseAuthority)
	return buf.Bytes()
}

// The account layouts encode optional addresses as a u32 tag followed by a
// fixed 32-byte slot
func readAddressOption(decoder *bin.Decoder) (*common.Address, error) {
	tag, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return nil, err
	}
	addr, err := readAddress(decoder)
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0:
		return nil, nil
	case 1:
		return &addr, nil
	default:
		return nil, fmt.Errorf("invalid option tag: %d", tag)
	}
}

func writeAddressOption(encoder *bin.Encoder, addr *common.Address) {
	if addr == nil {
		_ = encoder.WriteUint32(0, bin.LE)
		_ = encoder.WriteBytes(make([]byte, common.AddressSize), false)
		return
	}
	_ = encoder.WriteUint32(1, bin.LE)
	_ = encoder.WriteBytes(addr[:], false)
}
