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

package test_ledger

import (
	"fmt"

	"github.com/blinklabs-io/solanatx/ledger"
	"github.com/blinklabs-io/solanatx/ledger/common"
)

// Error kinds produced by the mock runtime that the ledger package does not
// name
const (
	txErrorProgramAccountNotFound  = "ProgramAccountNotFound"
	instrErrorReadonlyDataModified = "ReadonlyDataModified"
)

type execResult struct {
	// accounts is the state to commit. On failure it holds the state with
	// only the fee charged
	accounts   map[common.Address]*Account
	logs       []string
	err        *ledger.TransactionError
	feeCharged bool
}

type programFunc func(*instrContext) *ledger.TransactionError

var programs = map[common.Address]programFunc{
	common.SystemProgramId:          executeSystem,
	common.TokenProgramId:           executeToken,
	common.AssociatedTokenProgramId: executeAssociatedToken,
	common.TokenMetadataProgramId:   executeMetadata,
}

// execute runs a transaction against a copy of the ledger state. The caller
// must hold the lock
func (m *MockLedger) execute(tx *ledger.Transaction) execResult {
	msg := &tx.Message
	res := execResult{accounts: m.accounts}
	if _, ok := m.statuses[tx.Id()]; ok {
		res.err = ledger.NewTransactionError(ledger.TxErrorAlreadyProcessed)
		return res
	}
	if _, ok := m.blockhashes[msg.RecentBlockhash]; !ok {
		res.err = ledger.NewTransactionError(ledger.TxErrorBlockhashNotFound)
		return res
	}
	feePayer := msg.FeePayer()
	payer, ok := m.accounts[feePayer]
	if !ok || payer.Lamports == 0 {
		res.err = ledger.NewTransactionError(ledger.TxErrorAccountNotFound)
		return res
	}
	// #nosec G115
	fee := m.LamportsPerSignature * uint64(len(tx.Signatures))
	if payer.Lamports < fee {
		res.err = ledger.NewTransactionError(ledger.TxErrorInsufficientFundsForFee)
		return res
	}
	feeState := cloneAccounts(m.accounts)
	feeState[feePayer].Lamports -= fee
	res.accounts = feeState
	res.feeCharged = true
	working := cloneAccounts(feeState)
	var logs []string
	for idx := range msg.Instructions {
		instr, err := msg.Instruction(idx)
		if err != nil {
			res.logs = logs
			res.err = ledger.NewTransactionError(ledger.TxErrorInvalidAccountIndex)
			return res
		}
		handler, ok := programs[instr.ProgramId]
		if prog, exists := working[instr.ProgramId]; !ok || !exists || !prog.Executable {
			res.logs = logs
			res.err = ledger.NewTransactionError(txErrorProgramAccountNotFound)
			return res
		}
		logs = append(logs, fmt.Sprintf("Program %s invoke [1]", instr.ProgramId))
		ic := &instrContext{
			idx:      idx,
			instr:    instr,
			accounts: working,
			logs:     &logs,
		}
		if txErr := handler(ic); txErr != nil {
			logs = append(
				logs,
				fmt.Sprintf("Program %s failed: %s", instr.ProgramId, txErr.Error()),
			)
			res.logs = logs
			res.err = txErr
			return res
		}
		logs = append(logs, fmt.Sprintf("Program %s success", instr.ProgramId))
	}
	for idx, addr := range msg.AccountKeys {
		if !msg.IsWritable(idx) {
			continue
		}
		if !rentTransitionAllowed(m.accounts[addr], working[addr]) {
			res.logs = logs
			res.err = ledger.NewTransactionError(ledger.TxErrorInsufficientFundsForRent)
			res.err.AccountIndex = idx
			return res
		}
	}
	for addr, acct := range working {
		if acct.Lamports == 0 && !acct.Executable {
			delete(working, addr)
		}
	}
	res.accounts = working
	res.logs = logs
	return res
}

func cloneAccounts(accounts map[common.Address]*Account) map[common.Address]*Account {
	ret := make(map[common.Address]*Account, len(accounts))
	for addr, acct := range accounts {
		ret[addr] = acct.clone()
	}
	return ret
}

type rentState int

const (
	rentStateUninitialized rentState = iota
	rentStatePaying
	rentStateExempt
)

func accountRentState(acct *Account) rentState {
	switch {
	case acct == nil || acct.Lamports == 0:
		return rentStateUninitialized
	case acct.Lamports >= RentExemptMinimum(uint64(len(acct.Data))):
		return rentStateExempt
	default:
		return rentStatePaying
	}
}

// rentTransitionAllowed reports whether an account may move from pre to
// post. An account may only end up below the rent exempt minimum if it was
// already there, kept its size and did not gain lamports
func rentTransitionAllowed(pre *Account, post *Account) bool {
	if accountRentState(post) != rentStatePaying {
		return true
	}
	if accountRentState(pre) != rentStatePaying {
		return false
	}
	return len(pre.Data) == len(post.Data) && post.Lamports <= pre.Lamports
}

// instrContext is the view of the ledger given to a single instruction
type instrContext struct {
	idx      int
	instr    ledger.Instruction
	accounts map[common.Address]*Account
	logs     *[]string
}

func (c *instrContext) log(format string, args ...any) {
	*c.logs = append(*c.logs, "Program log: "+fmt.Sprintf(format, args...))
}

func (c *instrContext) fail(kind string) *ledger.TransactionError {
	return ledger.NewInstructionError(c.idx, kind)
}

func (c *instrContext) custom(code uint32) *ledger.TransactionError {
	return ledger.NewCustomInstructionError(c.idx, code)
}

func (c *instrContext) requireAccounts(count int) *ledger.TransactionError {
	if len(c.instr.Accounts) < count {
		return c.fail(ledger.InstrErrorNotEnoughAccountKeys)
	}
	return nil
}

// peek returns the account at the given position without permitting writes.
// Missing accounts are returned as empty system accounts
func (c *instrContext) peek(pos int) *Account {
	addr := c.instr.Accounts[pos].Address
	if acct, ok := c.accounts[addr]; ok {
		return acct
	}
	return &Account{Owner: common.SystemProgramId}
}

// writable returns the account at the given position for modification,
// creating an empty system account when missing
func (c *instrContext) writable(pos int) (*Account, *ledger.TransactionError) {
	meta := c.instr.Accounts[pos]
	if !meta.IsWritable {
		return nil, c.fail(instrErrorReadonlyDataModified)
	}
	acct, ok := c.accounts[meta.Address]
	if !ok {
		acct = &Account{Owner: common.SystemProgramId}
		c.accounts[meta.Address] = acct
	}
	return acct, nil
}

// isSigner reports whether addr signed the instruction
func (c *instrContext) isSigner(addr common.Address) bool {
	for _, meta := range c.instr.Accounts {
		if meta.Address == addr && meta.IsSigner {
			return true
		}
	}
	return false
}

// fund moves lamports from payer so that acct holds at least the rent exempt
// minimum for dataSize bytes, the way a nested system program call would
func (c *instrContext) fund(
	payer *Account,
	acct *Account,
	dataSize uint64,
) *ledger.TransactionError {
	required := RentExemptMinimum(dataSize)
	if acct.Lamports >= required {
		return nil
	}
	need := required - acct.Lamports
	if payer.Lamports < need {
		c.log("Transfer: insufficient lamports %d, need %d", payer.Lamports, need)
		return c.custom(ledger.SystemErrorResultWithNegativeLamports)
	}
	payer.Lamports -= need
	acct.Lamports += need
	return nil
}

func (c *instrContext) alreadyInUse(addr common.Address, base *common.Address) *ledger.TransactionError {
	baseStr := "None"
	if base != nil {
		baseStr = fmt.Sprintf("Some(%s)", base.String())
	}
	c.log(
		"Create Account: account Address { address: %s, base: %s } already in use",
		addr.String(),
		baseStr,
	)
	return c.custom(ledger.SystemErrorAccountAlreadyInUse)
}
