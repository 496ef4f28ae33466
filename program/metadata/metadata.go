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

// Package metadata builds instructions for the token metadata program and
// decodes metadata accounts
package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/blinklabs-io/solanatx/ledger"
	"github.com/blinklabs-io/solanatx/ledger/common"
	bin "github.com/gagliardetto/binary"
)

const (
	InstructionCreateMetadataAccountV3 uint8 = 33

	// KeyMetadataV1 is the account type tag of a metadata account
	KeyMetadataV1 uint8 = 4

	MaxNameLength           = 32
	MaxSymbolLength         = 10
	MaxURILength            = 200
	MaxSellerFeeBasisPoints = 10000

	// MetadataSize is the allocated size of a metadata account
	MetadataSize = 679

	// TokenStandardFungible marks a mint with decimals and no edition
	TokenStandardFungible uint8 = 2
	metadataSeedPrefix          = "metadata"
	creatorSize                 = common.AddressSize + 2
)

var ErrInvalidMetadata = errors.New("invalid metadata")

// Data is the descriptive part of a token's metadata
type Data struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
}

func (d Data) validate() error {
	switch {
	case len(d.Name) > MaxNameLength:
		return fmt.Errorf("%w: name longer than %d bytes", ErrInvalidMetadata, MaxNameLength)
	case len(d.Symbol) > MaxSymbolLength:
		return fmt.Errorf("%w: symbol longer than %d bytes", ErrInvalidMetadata, MaxSymbolLength)
	case len(d.URI) > MaxURILength:
		return fmt.Errorf("%w: uri longer than %d bytes", ErrInvalidMetadata, MaxURILength)
	case d.SellerFeeBasisPoints > MaxSellerFeeBasisPoints:
		return fmt.Errorf("%w: seller fee above %d basis points", ErrInvalidMetadata, MaxSellerFeeBasisPoints)
	}
	return nil
}

// CreateMetadataParams holds the accounts and arguments of a
// CreateMetadataAccountV3 instruction
type CreateMetadataParams struct {
	// Metadata is the metadata account, normally from FindMetadataAddress
	Metadata                common.Address
	Mint                    common.Address
	MintAuthority           common.Address
	Payer                   common.Address
	UpdateAuthority         common.Address
	UpdateAuthorityIsSigner bool
	Data                    Data
	IsMutable               bool
}

// FindMetadataAddress derives the metadata account address for a mint
func FindMetadataAddress(mint common.Address) (common.Address, uint8, error) {
	return common.FindProgramAddress(
		[][]byte{
			[]byte(metadataSeedPrefix),
			common.TokenMetadataProgramId[:],
			mint[:],
		},
		common.TokenMetadataProgramId,
	)
}

// CreateMetadata returns a CreateMetadataAccountV3 instruction. The metadata
// carries no creators, collection or uses
func CreateMetadata(params CreateMetadataParams) (ledger.Instruction, error) {
	if err := params.Data.validate(); err != nil {
		return ledger.Instruction{}, err
	}
	buf := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buf)
	_ = encoder.WriteUint8(InstructionCreateMetadataAccountV3)
	writeString(encoder, params.Data.Name)
	writeString(encoder, params.Data.Symbol)
	writeString(encoder, params.Data.URI)
	_ = encoder.WriteUint16(params.Data.SellerFeeBasisPoints, bin.LE)
	// creators, collection, uses
	_ = encoder.WriteUint8(0)
	_ = encoder.WriteUint8(0)
	_ = encoder.WriteUint8(0)
	_ = encoder.WriteBool(params.IsMutable)
	// collection details
	_ = encoder.WriteUint8(0)
	return ledger.Instruction{
		ProgramId: common.TokenMetadataProgramId,
		Accounts: []ledger.AccountMeta{
			ledger.NewAccountMeta(params.Metadata, false, true),
			ledger.NewAccountMeta(params.Mint, false, false),
			ledger.NewAccountMeta(params.MintAuthority, true, false),
			ledger.NewAccountMeta(params.Payer, true, true),
			ledger.NewAccountMeta(
				params.UpdateAuthority,
				params.UpdateAuthorityIsSigner,
				false,
			),
			ledger.NewAccountMeta(common.SystemProgramId, false, false),
		},
		Data: buf.Bytes(),
	}, nil
}

// CreateMetadataArgs holds the decoded arguments of a
// CreateMetadataAccountV3 instruction
type CreateMetadataArgs struct {
	Data      Data
	IsMutable bool
}

// DecodeInstruction decodes CreateMetadataAccountV3 instruction data.
// Instructions that carry creators, a collection or uses are not supported
func DecodeInstruction(data []byte) (*CreateMetadataArgs, error) {
	decoder := bin.NewBinDecoder(data)
	instrType, err := decoder.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("failed to read instruction type: %w", err)
	}
	if instrType != InstructionCreateMetadataAccountV3 {
		return nil, fmt.Errorf("unsupported metadata instruction type: %d", instrType)
	}
	args := &CreateMetadataArgs{}
	if args.Data.Name, err = readString(decoder); err != nil {
		return nil, err
	}
	if args.Data.Symbol, err = readString(decoder); err != nil {
		return nil, err
	}
	if args.Data.URI, err = readString(decoder); err != nil {
		return nil, err
	}
	if args.Data.SellerFeeBasisPoints, err = decoder.ReadUint16(bin.LE); err != nil {
		return nil, err
	}
	for _, field := range []string{"creators", "collection", "uses"} {
		tag, err := decoder.ReadUint8()
		if err != nil {
			return nil, err
		}
		if tag != 0 {
			return nil, fmt.Errorf("unsupported metadata field: %s", field)
		}
	}
	if args.IsMutable, err = decoder.ReadBool(); err != nil {
		return nil, err
	}
	tag, err := decoder.ReadUint8()
	if err != nil {
		return nil, err
	}
	if tag != 0 {
		return nil, errors.New("unsupported metadata field: collection details")
	}
	if decoder.Remaining() > 0 {
		return nil, errors.New("trailing bytes after metadata instruction")
	}
	if err := args.Data.validate(); err != nil {
		return nil, err
	}
	return args, nil
}

// Creator is a verified or unverified creator share
type Creator struct {
	Address  common.Address
	Verified bool
	Share    uint8
}

// Metadata is the decoded state of a metadata account
type Metadata struct {
	Key                 uint8
	UpdateAuthority     common.Address
	Mint                common.Address
	Data                Data
	Creators            []Creator
	PrimarySaleHappened bool
	IsMutable           bool
	EditionNonce        *uint8
	TokenStandard       *uint8
}

// ParseMetadata decodes a metadata account. Trailing optional fields that
// this package does not model are ignored
func ParseMetadata(data []byte) (*Metadata, error) {
	decoder := bin.NewBinDecoder(data)
	m := &Metadata{}
	var err error
	if m.Key, err = decoder.ReadUint8(); err != nil {
		return nil, err
	}
	if m.Key != KeyMetadataV1 {
		return nil, fmt.Errorf("not a metadata account: key %d", m.Key)
	}
	if m.UpdateAuthority, err = readAddress(decoder); err != nil {
		return nil, err
	}
	if m.Mint, err = readAddress(decoder); err != nil {
		return nil, err
	}
	// Stored strings are padded with NUL bytes to their maximum length
	for _, dest := range []*string{&m.Data.Name, &m.Data.Symbol, &m.Data.URI} {
		tmp, err := readString(decoder)
		if err != nil {
			return nil, err
		}
		*dest = strings.TrimRight(tmp, "\x00")
	}
	if m.Data.SellerFeeBasisPoints, err = decoder.ReadUint16(bin.LE); err != nil {
		return nil, err
	}
	hasCreators, err := decoder.ReadBool()
	if err != nil {
		return nil, err
	}
	if hasCreators {
		count, err := decoder.ReadUint32(bin.LE)
		if err != nil {
			return nil, err
		}
		if int(count)*creatorSize > decoder.Remaining() {
			return nil, fmt.Errorf("creator count %d exceeds account data", count)
		}
		m.Creators = make([]Creator, count)
		for i := range m.Creators {
			if m.Creators[i].Address, err = readAddress(decoder); err != nil {
				return nil, err
			}
			if m.Creators[i].Verified, err = decoder.ReadBool(); err != nil {
				return nil, err
			}
			if m.Creators[i].Share, err = decoder.ReadUint8(); err != nil {
				return nil, err
			}
		}
	}
	if m.PrimarySaleHappened, err = decoder.ReadBool(); err != nil {
		return nil, err
	}
	if m.IsMutable, err = decoder.ReadBool(); err != nil {
		return nil, err
	}
	if m.EditionNonce, err = readOptionalUint8(decoder); err != nil {
		return nil, err
	}
	if m.TokenStandard, err = readOptionalUint8(decoder); err != nil {
		return nil, err
	}
	return m, nil
}

// Bytes encodes the metadata in its account layout, padding strings to their
// maximum length
func (m *Metadata) Bytes() []byte {
	buf := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buf)
	_ = encoder.WriteUint8(m.Key)
	_ = encoder.WriteBytes(m.UpdateAuthority[:], false)
	_ = encoder.WriteBytes(m.Mint[:], false)
	writeString(encoder, padString(m.Data.Name, MaxNameLength))
	writeString(encoder, padString(m.Data.Symbol, MaxSymbolLength))
	writeString(encoder, padString(m.Data.URI, MaxURILength))
	_ = encoder.WriteUint16(m.Data.SellerFeeBasisPoints, bin.LE)
	if len(m.Creators) > 0 {
		_ = encoder.WriteBool(true)
		// #nosec G115
		_ = encoder.WriteUint32(uint32(len(m.Creators)), bin.LE)
		for _, creator := range m.Creators {
			_ = encoder.WriteBytes(creator.Address[:], false)
			_ = encoder.WriteBool(creator.Verified)
			_ = encoder.WriteUint8(creator.Share)
		}
	} else {
		_ = encoder.WriteBool(false)
	}
	_ = encoder.WriteBool(m.PrimarySaleHappened)
	_ = encoder.WriteBool(m.IsMutable)
	writeOptionalUint8(encoder, m.EditionNonce)
	writeOptionalUint8(encoder, m.TokenStandard)
	return buf.Bytes()
}

func padString(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat("\x00", length-len(s))
}

// Metadata strings are borsh strings with a u32 length prefix
func writeString(encoder *bin.Encoder, s string) {
	// #nosec G115
	_ = encoder.WriteUint32(uint32(len(s)), bin.LE)
	_ = encoder.WriteBytes([]byte(s), false)
}

func readString(decoder *bin.Decoder) (string, error) {
	length, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return "", err
	}
	if int(length) > decoder.Remaining() {
		return "", fmt.Errorf("string length %d exceeds remaining data", length)
	}
	data, err := decoder.ReadBytes(int(length))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func readOptionalUint8(decoder *bin.Decoder) (*uint8, error) {
	// Older accounts end before the optional fields
	if decoder.Remaining() == 0 {
		return nil, nil
	}
	tag, err := decoder.ReadUint8()
	if err != nil {
		return nil, err
	}
	if tag == 0 {
		return nil, nil
	}
	val, err := decoder.ReadUint8()
	if err != nil {
		return nil, err
	}
	return &val, nil
}

func writeOptionalUint8(encoder *bin.Encoder, val *uint8) {
	if val == nil {
		_ = encoder.WriteUint8(0)
		return
	}
	_ = encoder.WriteUint8(1)
	_ = encoder.WriteUint8(*val)
}

func readAddress(decoder *bin.Decoder) (common.Address, error) {
	data, err := decoder.ReadBytes(common.AddressSize)
	if err != nil {
		return common.Address{}, err
	}
	return common.NewAddressFromBytes(data)
}
