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
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/blinklabs-io/solanatx/ledger"
	"github.com/blinklabs-io/solanatx/ledger/common"
	"github.com/blinklabs-io/solanatx/node"
	"github.com/blinklabs-io/solanatx/program/token"
)

const (
	DefaultLamportsPerSignature = 5000
	// DefaultPollsPerLevel is the number of status reads after which a
	// transaction moves up one commitment level
	DefaultPollsPerLevel = 1
	// BlockhashValidity is the number of blocks a blockhash stays usable
	BlockhashValidity = 150

	rentLamportsPerByteYear = 3480
	rentExemptionYears      = 2
	accountStorageOverhead  = 128
	maxAccountDataSize      = 10 * 1024 * 1024
)

// Compile-time check that MockLedger implements node.Node
var _ node.Node = (*MockLedger)(nil)

// RentExemptMinimum returns the rent exempt balance for an account with
// dataSize bytes of data
func RentExemptMinimum(dataSize uint64) uint64 {
	return (accountStorageOverhead + dataSize) * rentLamportsPerByteYear * rentExemptionYears
}

// Account is the state of an account held by the mock ledger
type Account struct {
	Lamports   uint64
	Data       []byte
	Owner      common.Address
	Executable bool
}

func (a *Account) clone() *Account {
	ret := *a
	ret.Data = append([]byte(nil), a.Data...)
	return &ret
}

// inUse reports whether a system CreateAccount would reject the account
func (a *Account) inUse() bool {
	return len(a.Data) > 0 || a.Owner != common.SystemProgramId || a.Executable
}

type txRecord struct {
	slot  uint64
	polls int
	err   *ledger.TransactionError
}

// MockLedger is an in-memory ledger that implements node.Node. It executes
// the system, token, associated token and metadata instructions built by
// this module atomically, charges fees and enforces rent exemption. Tests
// should construct it with NewMockLedger and configure fields (e.g.
// AirdropDisabled, GetSignatureStatusFunc) to control behavior
type MockLedger struct {
	LamportsPerSignature uint64
	PollsPerLevel        int
	AirdropDisabled      bool
	// AirdropLimit is the largest airdrop accepted. Zero means no limit
	AirdropLimit uint64
	// The following optionally override the corresponding node methods
	GetBalanceFunc         func(common.Address) (uint64, error)
	GetLatestBlockRefFunc  func() (common.BlockRef, error)
	GetSignatureStatusFunc func(common.Signature) (*node.SignatureStatus, error)
	RequestAirdropFunc     func(common.Address, uint64) (common.Signature, error)
	SendTransactionFunc    func([]byte, node.SendOptions) (common.Signature, error)

	mu          sync.Mutex
	accounts    map[common.Address]*Account
	statuses    map[common.Signature]*txRecord
	blockhashes map[common.Hash]uint64
	blockhash   common.Hash
	blockHeight uint64
	slot        uint64
	airdrops    uint64
	sendCount   int
	statusReads int
}

// NewMockLedger returns a MockLedger holding only the well-known program
// accounts
func NewMockLedger() *MockLedger {
	m := &MockLedger{
		LamportsPerSignature: DefaultLamportsPerSignature,
		PollsPerLevel:        DefaultPollsPerLevel,
		accounts:             make(map[common.Address]*Account),
		statuses:             make(map[common.Signature]*txRecord),
		blockhashes:          make(map[common.Hash]uint64),
	}
	for _, programId := range []common.Address{
		common.SystemProgramId,
		common.TokenProgramId,
		common.AssociatedTokenProgramId,
		common.TokenMetadataProgramId,
	} {
		m.accounts[programId] = &Account{
			Lamports:   1,
			Owner:      common.SystemProgramId,
			Executable: true,
		}
	}
	m.accounts[common.SysvarRentId] = &Account{
		Lamports: RentExemptMinimum(17),
		Data:     make([]byte, 17),
		Owner:    common.SystemProgramId,
	}
	m.advanceBlock()
	return m
}

// Fund credits an account directly, creating it when missing
func (m *MockLedger) Fund(addr common.Address, lamports uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credit(addr, lamports)
}

// SetAccount replaces the state of an account
func (m *MockLedger) SetAccount(addr common.Address, acct Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[addr] = acct.clone()
}

// Account returns a copy of the state of an account
func (m *MockLedger) Account(addr common.Address) (Account, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[addr]
	if !ok {
		return Account{}, false
	}
	return *acct.clone(), true
}

// ExpireBlockhashes invalidates every blockhash issued so far
func (m *MockLedger) ExpireBlockhashes() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.blockhashes)
	m.advanceBlock()
}

// SendCount returns the number of SendTransaction calls received
func (m *MockLedger) SendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sendCount
}

// StatusReads returns the number of GetSignatureStatus calls received
func (m *MockLedger) StatusReads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusReads
}

func (m *MockLedger) GetMinimumBalanceForRentExemption(
	ctx context.Context,
	dataSize uint64,
	commitment common.Commitment,
) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return RentExemptMinimum(dataSize), nil
}

func (m *MockLedger) GetBalance(
	ctx context.Context,
	addr common.Address,
	commitment common.Commitment,
) (uint64, error) {
	if m.GetBalanceFunc != nil {
		return m.GetBalanceFunc(addr)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acct, ok := m.accounts[addr]; ok {
		return acct.Lamports, nil
	}
	return 0, nil
}

func (m *MockLedger) GetAccount(
	ctx context.Context,
	addr common.Address,
	commitment common.Commitment,
) (common.AccountSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return common.AccountSnapshot{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[addr]
	if !ok {
		return common.AccountSnapshot{Address: addr}, common.ErrAccountNotFound
	}
	return common.AccountSnapshot{
		Address:    addr,
		Owner:      acct.Owner,
		Lamports:   acct.Lamports,
		Data:       append([]byte(nil), acct.Data...),
		Executable: acct.Executable,
		Exists:     true,
	}, nil
}

func (m *MockLedger) GetLatestBlockRef(
	ctx context.Context,
	commitment common.Commitment,
) (common.BlockRef, error) {
	if m.GetLatestBlockRefFunc != nil {
		return m.GetLatestBlockRefFunc()
	}
	if err := ctx.Err(); err != nil {
		return common.BlockRef{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return common.BlockRef{
		Blockhash:            m.blockhash,
		LastValidBlockHeight: m.blockhashes[m.blockhash],
	}, nil
}

func (m *MockLedger) RequestAirdrop(
	ctx context.Context,
	addr common.Address,
	lamports uint64,
	commitment common.Commitment,
) (common.Signature, error) {
	if m.RequestAirdropFunc != nil {
		return m.RequestAirdropFunc(addr, lamports)
	}
	if err := ctx.Err(); err != nil {
		return common.Signature{}, err
	}
	if m.AirdropDisabled {
		return common.Signature{}, &node.RPCError{
			Code:    node.ErrorCodeInternalError,
			Message: "airdrop request failed. This can happen when the rate limit is reached.",
		}
	}
	if m.AirdropLimit > 0 && lamports > m.AirdropLimit {
		return common.Signature{}, &node.RPCError{
			Code:    node.ErrorCodeInvalidParams,
			Message: fmt.Sprintf("airdrop of %d lamports exceeds limit", lamports),
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.airdrops++
	sig := airdropSignature(addr, m.airdrops)
	m.credit(addr, lamports)
	m.statuses[sig] = &txRecord{slot: m.slot}
	m.advanceBlock()
	return sig, nil
}

func (m *MockLedger) GetSignatureStatus(
	ctx context.Context,
	sig common.Signature,
) (*node.SignatureStatus, error) {
	if m.GetSignatureStatusFunc != nil {
		return m.GetSignatureStatusFunc(sig)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusReads++
	record, ok := m.statuses[sig]
	if !ok {
		return nil, nil
	}
	pollsPerLevel := max(m.PollsPerLevel, 1)
	level := common.CommitmentProcessed + common.Commitment(record.polls/pollsPerLevel)
	level = min(level, common.CommitmentFinalized)
	record.polls++
	status := &node.SignatureStatus{
		Slot:       record.slot,
		Commitment: level,
		Err:        record.err,
	}
	if level < common.CommitmentFinalized {
		// #nosec G115
		confirmations := uint64(record.polls)
		status.Confirmations = &confirmations
	}
	return status, nil
}

func (m *MockLedger) SendTransaction(
	ctx context.Context,
	rawTx []byte,
	opts node.SendOptions,
) (common.Signature, error) {
	if m.SendTransactionFunc != nil {
		return m.SendTransactionFunc(rawTx, opts)
	}
	if err := ctx.Err(); err != nil {
		return common.Signature{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendCount++
	tx, err := ledger.DecodeTransaction(rawTx)
	if err != nil {
		return common.Signature{}, &node.RPCError{
			Code:    node.ErrorCodeInvalidParams,
			Message: fmt.Sprintf("failed to deserialize transaction: %s", err),
		}
	}
	if err := tx.Verify(); err != nil {
		return common.Signature{}, &node.RPCError{
			Code:    node.ErrorCodeTransactionSignatureVerify,
			Message: "Transaction signature verification failure",
		}
	}
	sig := tx.Id()
	result := m.execute(tx)
	if result.err != nil && !opts.SkipPreflight {
		return common.Signature{}, &node.RPCError{
			Code: node.ErrorCodeSendTransactionPreflightFailure,
			Message: fmt.Sprintf(
				"Transaction simulation failed: %s",
				result.err.Error(),
			),
			Data: map[string]any{
				"err":  result.err.Value(),
				"logs": result.logs,
			},
		}
	}
	if result.err != nil && !result.feeCharged {
		// Transactions that cannot pay their fee never land
		return sig, nil
	}
	m.accounts = result.accounts
	m.statuses[sig] = &txRecord{slot: m.slot, err: result.err}
	m.advanceBlock()
	return sig, nil
}

func (m *MockLedger) GetTokenAccountBalance(
	ctx context.Context,
	addr common.Address,
	commitment common.Commitment,
) (common.TokenAmount, error) {
	if err := ctx.Err(); err != nil {
		return common.TokenAmount{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[addr]
	if !ok {
		return common.TokenAmount{}, &node.RPCError{
			Code:    node.ErrorCodeInvalidParams,
			Message: "Invalid param: could not find account",
		}
	}
	if acct.Owner != common.TokenProgramId {
		return common.TokenAmount{}, &node.RPCError{
			Code:    node.ErrorCodeInvalidParams,
			Message: "Invalid param: not a Token account",
		}
	}
	tokenAcct, err := token.ParseAccount(acct.Data)
	if err != nil {
		return common.TokenAmount{}, &node.RPCError{
			Code:    node.ErrorCodeInvalidParams,
			Message: "Invalid param: not a Token account",
		}
	}
	mintAcct, ok := m.accounts[tokenAcct.Mint]
	if !ok {
		return common.TokenAmount{}, &node.RPCError{
			Code:    node.ErrorCodeInvalidParams,
			Message: "Invalid param: could not find mint",
		}
	}
	mint, err := token.ParseMint(mintAcct.Data)
	if err != nil {
		return common.TokenAmount{}, &node.RPCError{
			Code:    node.ErrorCodeInvalidParams,
			Message: "Invalid param: not a valid mint",
		}
	}
	return common.TokenAmount{
		Amount:   tokenAcct.Amount,
		Decimals: mint.Decimals,
	}, nil
}

func (m *MockLedger) credit(addr common.Address, lamports uint64) {
	acct, ok := m.accounts[addr]
	if !ok {
		acct = &Account{Owner: common.SystemProgramId}
		m.accounts[addr] = acct
	}
	acct.Lamports += lamports
}

// advanceBlock produces a new block with a fresh blockhash and drops the
// blockhashes that have aged out
func (m *MockLedger) advanceBlock() {
	m.slot++
	m.blockHeight++
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], m.slot)
	binary.LittleEndian.PutUint64(buf[8:], m.blockHeight)
	h := sha256.New()
	h.Write(m.blockhash[:])
	h.Write(buf[:])
	m.blockhash = common.NewHash(h.Sum(nil))
	m.blockhashes[m.blockhash] = m.blockHeight + BlockhashValidity
	for hash, lastValid := range m.blockhashes {
		if lastValid < m.blockHeight {
			delete(m.blockhashes, hash)
		}
	}
}

func airdropSignature(addr common.Address, counter uint64) common.Signature {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], counter)
	first := sha256.Sum256(append(addr.Bytes(), buf[:]...))
	second := sha256.Sum256(first[:])
	return common.NewSignature(append(first[:], second[:]...))
}
