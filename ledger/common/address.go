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

package common

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/btcsuite/btcd/btcutil/base58"
)

const (
	AddressSize = 32

	// MaxSeedLength is the maximum length of a single derivation seed
	MaxSeedLength = 32
	// MaxSeeds is the maximum number of seeds for a program derived address
	MaxSeeds = 16

	// ProgramDerivedAddressMarker is appended to the hash input of a program
	// derived address
	ProgramDerivedAddressMarker = "ProgramDerivedAddress"
)

// Address identifies an account on the ledger. Wallet addresses are ed25519
// public keys, derived addresses come from CreateWithSeed or
// FindProgramAddress
type Address [AddressSize]byte

// NewAddress decodes a base58 encoded address
func NewAddress(addr string) (Address, error) {
	decoded := base58.Decode(addr)
	if len(decoded) != AddressSize {
		return Address{}, fmt.Errorf(
			"invalid address %q: expected %d bytes, got %d",
			addr,
			AddressSize,
			len(decoded),
		)
	}
	return NewAddressFromBytes(decoded)
}

// NewAddressFromBytes returns an address from its raw 32-byte form
func NewAddressFromBytes(addrBytes []byte) (Address, error) {
	if len(addrBytes) != AddressSize {
		return Address{}, fmt.Errorf(
			"invalid address length: expected %d bytes, got %d",
			AddressSize,
			len(addrBytes),
		)
	}
	var a Address
	copy(a[:], addrBytes)
	return a, nil
}

// MustAddress is like NewAddress but panics on error. It is intended for
// well-known constant addresses
func MustAddress(addr string) Address {
	a, err := NewAddress(addr)
	if err != nil {
		panic(fmt.Sprintf("invalid address constant: %s", err))
	}
	return a
}

func (a Address) String() string {
	return base58.Encode(a[:])
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(data []byte) error {
	tmp, err := NewAddress(string(data))
	if err != nil {
		return err
	}
	*a = tmp
	return nil
}

func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return a.UnmarshalText([]byte(s))
}

// IsOnCurve reports whether the address is a valid ed25519 point, which is
// to say whether a private key could exist for it
func IsOnCurve(addr []byte) bool {
	if len(addr) != AddressSize {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(addr)
	return err == nil
}

// CreateWithSeed derives an address from a base address, a seed string and
// an owning program: sha256(base || seed || owner)
func CreateWithSeed(base Address, seed string, owner Address) (Address, error) {
	if len(seed) > MaxSeedLength {
		return Address{}, InvalidSeedError{
			Reason: fmt.Sprintf(
				"seed length %d exceeds maximum of %d",
				len(seed),
				MaxSeedLength,
			),
		}
	}
	if bytes.HasSuffix(owner[:], []byte(ProgramDerivedAddressMarker)) {
		return Address{}, InvalidSeedError{
			Reason: "owner is an illegal program derived address marker",
		}
	}
	h := sha256.New()
	h.Write(base[:])
	h.Write([]byte(seed))
	h.Write(owner[:])
	return NewAddressFromBytes(h.Sum(nil))
}

// CreateProgramAddress derives a program address from the given seeds. The
// result must not be on the ed25519 curve, otherwise ErrNoValidAddress is
// returned
func CreateProgramAddress(seeds [][]byte, programId Address) (Address, error) {
	if len(seeds) > MaxSeeds {
		return Address{}, InvalidSeedError{
			Reason: fmt.Sprintf(
				"%d seeds exceeds maximum of %d",
				len(seeds),
				MaxSeeds,
			),
		}
	}
	h := sha256.New()
	for idx, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return Address{}, InvalidSeedError{
				Reason: fmt.Sprintf(
					"seed %d length %d exceeds maximum of %d",
					idx,
					len(seed),
					MaxSeedLength,
				),
			}
		}
		h.Write(seed)
	}
	h.Write(programId[:])
	h.Write([]byte(ProgramDerivedAddressMarker))
	hash := h.Sum(nil)
	if IsOnCurve(hash) {
		return Address{}, ErrNoValidAddress
	}
	return NewAddressFromBytes(hash)
}

// FindProgramAddress searches for the first bump seed, starting at 255 and
// counting down, that produces an off-curve program address
func FindProgramAddress(
	seeds [][]byte,
	programId Address,
) (Address, uint8, error) {
	// Leave room for the bump seed
	if len(seeds) >= MaxSeeds {
		return Address{}, 0, InvalidSeedError{
			Reason: fmt.Sprintf(
				"%d seeds leaves no room for a bump seed",
				len(seeds),
			),
		}
	}
	bumpSeeds := make([][]byte, len(seeds)+1)
	copy(bumpSeeds, seeds)
	for bump := 255; bump >= 0; bump-- {
		bumpSeeds[len(seeds)] = []byte{uint8(bump)}
		addr, err := CreateProgramAddress(bumpSeeds, programId)
		if err == nil {
			return addr, uint8(bump), nil
		}
		if err != ErrNoValidAddress {
			return Address{}, 0, err
		}
	}
	return Address{}, 0, ErrNoValidAddress
}
