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
	"github.com/blinklabs-io/solanatx/ledger/common"
)

// AccountMeta describes how an instruction uses an account
type AccountMeta struct {
	Address    common.Address
	IsSigner   bool
	IsWritable bool
}

// NewAccountMeta returns an AccountMeta with the given flags
func NewAccountMeta(
	addr common.Address,
	isSigner bool,
	isWritable bool,
) AccountMeta {
	return AccountMeta{
		Address:    addr,
		IsSigner:   isSigner,
		IsWritable: isWritable,
	}
}

// Instruction is a single program invocation. Instructions are values: the
// builders in the program packages return them without touching the network,
// and nothing in this module modifies one after construction
type Instruction struct {
	ProgramId common.Address
	Accounts  []AccountMeta
	Data      []byte
}
