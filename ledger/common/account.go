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
	"math/big"

	"github.com/shopspring/decimal"
)

// AccountSnapshot is a point-in-time read of an account. It is never cached
type AccountSnapshot struct {
	Address    Address
	Owner      Address
	Lamports   uint64
	Data       []byte
	Executable bool
	Exists     bool
}

// TokenAmount is a raw token amount along with the decimals of its mint
type TokenAmount struct {
	Amount   uint64
	Decimals uint8
}

// Decimal returns the amount scaled by the mint decimals
func (t TokenAmount) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(
		new(big.Int).SetUint64(t.Amount),
		-int32(t.Decimals),
	)
}

// UiAmount returns the human readable amount, as shown by wallets
func (t TokenAmount) UiAmount() string {
	return t.Decimal().String()
}

// BlockRef is a recent block reference used to bound the validity of a
// message
type BlockRef struct {
	Blockhash            Hash
	LastValidBlockHeight uint64
}
