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
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/shopspring/decimal"
)

const (
	HashSize      = 32
	SignatureSize = 64

	// LamportsPerSOL is the number of lamports in one SOL
	LamportsPerSOL = 1_000_000_000
)

// Hash is a 32-byte hash, most commonly a recent blockhash used as the block
// reference of a message
type Hash [HashSize]byte

func NewHash(data []byte) Hash {
	h := Hash{}
	copy(h[:], data)
	return h
}

// NewHashFromBase58 decodes a base58 encoded hash
func NewHashFromBase58(s string) (Hash, error) {
	decoded := base58.Decode(s)
	if len(decoded) != HashSize {
		return Hash{}, fmt.Errorf(
			"invalid hash length: expected %d bytes, got %d",
			HashSize,
			len(decoded),
		)
	}
	return NewHash(decoded), nil
}

func (h Hash) String() string {
	return base58.Encode(h[:])
}

func (h Hash) Bytes() []byte {
	return h[:]
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	tmp, err := NewHashFromBase58(s)
	if err != nil {
		return err
	}
	*h = tmp
	return nil
}

// Signature is an ed25519 signature. The first signature of a transaction
// also serves as its identifier
type Signature [SignatureSize]byte

func NewSignature(data []byte) Signature {
	s := Signature{}
	copy(s[:], data)
	return s
}

// NewSignatureFromBase58 decodes a base58 encoded signature
func NewSignatureFromBase58(s string) (Signature, error) {
	decoded := base58.Decode(s)
	if len(decoded) != SignatureSize {
		return Signature{}, fmt.Errorf(
			"invalid signature length: expected %d bytes, got %d",
			SignatureSize,
			len(decoded),
		)
	}
	return NewSignature(decoded), nil
}

func (s Signature) String() string {
	return base58.Encode(s[:])
}

func (s Signature) Bytes() []byte {
	return s[:]
}

func (s Signature) IsZero() bool {
	return s == Signature{}
}

func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// LamportsToSOL converts a lamport amount to SOL
func LamportsToSOL(lamports uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -9)
}

// SOLToLamports converts a SOL amount to lamports, truncating any fraction
// smaller than one lamport
func SOLToLamports(sol decimal.Decimal) (uint64, error) {
	if sol.IsNegative() {
		return 0, fmt.Errorf("negative SOL amount: %s", sol.String())
	}
	lamports := sol.Shift(9).Truncate(0)
	if !lamports.BigInt().IsUint64() {
		return 0, fmt.Errorf("SOL amount out of range: %s", sol.String())
	}
	return lamports.BigInt().Uint64(), nil
}
