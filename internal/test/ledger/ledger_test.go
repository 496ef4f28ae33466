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

package test_ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/blinklabs-io/solanatx/internal/test"
	test_ledger "github.com/blinklabs-io/solanatx/internal/test/ledger"
	"github.com/blinklabs-io/solanatx/ledger"
	"github.com/blinklabs-io/solanatx/ledger/common"
	"github.com/blinklabs-io/solanatx/node"
	"github.com/blinklabs-io/solanatx/program/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedTransfer(
	t *testing.T,
	mock *test_ledger.MockLedger,
	lamports uint64,
) (*ledger.Transaction, common.Address) {
	payer := test.Keypair(1)
	recipient := test.Keypair(2).PublicAddress()
	ref, err := mock.GetLatestBlockRef(context.Background(), common.CommitmentConfirmed)
	require.NoError(t, err)
	msg, err := ledger.Assemble(
		[]ledger.Instruction{
			system.Transfer(payer.PublicAddress(), recipient, lamports),
		},
		payer.PublicAddress(),
		ref.Blockhash,
	)
	require.NoError(t, err)
	tx, err := ledger.Sign(msg, []common.Signer{payer})
	require.NoError(t, err)
	return tx, recipient
}

func TestTransferChargesFee(t *testing.T) {
	mock := test_ledger.NewMockLedger()
	payer := test.Keypair(1).PublicAddress()
	mock.Fund(payer, common.LamportsPerSOL)
	tx, recipient := signedTransfer(t, mock, common.LamportsPerSOL/10)
	sig, err := mock.SendTransaction(context.Background(), tx.Bytes(), node.SendOptions{})
	require.NoError(t, err)
	assert.Equal(t, tx.Id(), sig)
	payerBalance, err := mock.GetBalance(context.Background(), payer, common.CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(
		t,
		uint64(common.LamportsPerSOL-common.LamportsPerSOL/10-test_ledger.DefaultLamportsPerSignature),
		payerBalance,
	)
	recipientBalance, err := mock.GetBalance(context.Background(), recipient, common.CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, uint64(common.LamportsPerSOL/10), recipientBalance)
}

func TestTransferBelowRentExemption(t *testing.T) {
	mock := test_ledger.NewMockLedger()
	mock.Fund(test.Keypair(1).PublicAddress(), common.LamportsPerSOL)
	tx, recipient := signedTransfer(t, mock, 1000)
	_, err := mock.SendTransaction(context.Background(), tx.Bytes(), node.SendOptions{})
	var rpcErr *node.RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.True(t, rpcErr.IsPreflightFailure())
	txErr, ok := rpcErr.TransactionError()
	require.True(t, ok)
	assert.Equal(t, ledger.TxErrorInsufficientFundsForRent, txErr.Kind)
	assert.Equal(t, 1, txErr.AccountIndex)
	_, exists := mock.Account(recipient)
	assert.False(t, exists)
}

func TestSignatureStatusProgression(t *testing.T) {
	mock := test_ledger.NewMockLedger()
	mock.Fund(test.Keypair(1).PublicAddress(), common.LamportsPerSOL)
	tx, _ := signedTransfer(t, mock, common.LamportsPerSOL/10)
	sig, err := mock.SendTransaction(context.Background(), tx.Bytes(), node.SendOptions{})
	require.NoError(t, err)
	expected := []common.Commitment{
		common.CommitmentProcessed,
		common.CommitmentConfirmed,
		common.CommitmentFinalized,
		common.CommitmentFinalized,
	}
	for _, level := range expected {
		status, err := mock.GetSignatureStatus(context.Background(), sig)
		require.NoError(t, err)
		require.NotNil(t, status)
		assert.Equal(t, level, status.Commitment)
		assert.Nil(t, status.Err)
	}
	status, err := mock.GetSignatureStatus(context.Background(), common.Signature{1})
	require.NoError(t, err)
	assert.Nil(t, status)
	assert.Equal(t, 5, mock.StatusReads())
}

func TestExpiredBlockhash(t *testing.T) {
	mock := test_ledger.NewMockLedger()
	mock.Fund(test.Keypair(1).PublicAddress(), common.LamportsPerSOL)
	tx, _ := signedTransfer(t, mock, common.LamportsPerSOL/10)
	mock.ExpireBlockhashes()
	_, err := mock.SendTransaction(context.Background(), tx.Bytes(), node.SendOptions{})
	var rpcErr *node.RPCError
	require.True(t, errors.As(err, &rpcErr))
	txErr, ok := rpcErr.TransactionError()
	require.True(t, ok)
	assert.Equal(t, ledger.TxErrorBlockhashNotFound, txErr.Kind)
}

func TestDuplicateTransaction(t *testing.T) {
	mock := test_ledger.NewMockLedger()
	mock.Fund(test.Keypair(1).PublicAddress(), common.LamportsPerSOL)
	tx, _ := signedTransfer(t, mock, common.LamportsPerSOL/10)
	_, err := mock.SendTransaction(context.Background(), tx.Bytes(), node.SendOptions{})
	require.NoError(t, err)
	_, err = mock.SendTransaction(context.Background(), tx.Bytes(), node.SendOptions{})
	var rpcErr *node.RPCError
	require.True(t, errors.As(err, &rpcErr))
	txErr, ok := rpcErr.TransactionError()
	require.True(t, ok)
	assert.Equal(t, ledger.TxErrorAlreadyProcessed, txErr.Kind)
	assert.Equal(t, 2, mock.SendCount())
}

func TestSkipPreflightRecordsFailure(t *testing.T) {
	mock := test_ledger.NewMockLedger()
	payer := test.Keypair(1).PublicAddress()
	mock.Fund(payer, common.LamportsPerSOL)
	tx, _ := signedTransfer(t, mock, 2*common.LamportsPerSOL)
	sig, err := mock.SendTransaction(
		context.Background(),
		tx.Bytes(),
		node.SendOptions{SkipPreflight: true},
	)
	require.NoError(t, err)
	status, err := mock.GetSignatureStatus(context.Background(), sig)
	require.NoError(t, err)
	require.NotNil(t, status)
	require.NotNil(t, status.Err)
	assert.Equal(
		t,
		ledger.NewCustomInstructionError(0, ledger.SystemErrorResultWithNegativeLamports),
		status.Err,
	)
	balance, err := mock.GetBalance(context.Background(), payer, common.CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, uint64(common.LamportsPerSOL-test_ledger.DefaultLamportsPerSignature), balance)
}

func TestRequestAirdrop(t *testing.T) {
	mock := test_ledger.NewMockLedger()
	addr := test.Keypair(3).PublicAddress()
	sig, err := mock.RequestAirdrop(context.Background(), addr, common.LamportsPerSOL, common.CommitmentConfirmed)
	require.NoError(t, err)
	assert.False(t, sig.IsZero())
	balance, err := mock.GetBalance(context.Background(), addr, common.CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, uint64(common.LamportsPerSOL), balance)

	mock.AirdropDisabled = true
	_, err = mock.RequestAirdrop(context.Background(), addr, common.LamportsPerSOL, common.CommitmentConfirmed)
	var rpcErr *node.RPCError
	assert.True(t, errors.As(err, &rpcErr))
}

func TestGetAccountMissing(t *testing.T) {
	mock := test_ledger.NewMockLedger()
	_, err := mock.GetAccount(context.Background(), test.Keypair(4).PublicAddress(), common.CommitmentConfirmed)
	assert.ErrorIs(t, err, common.ErrAccountNotFound)
	snapshot, err := mock.GetAccount(context.Background(), common.SystemProgramId, common.CommitmentConfirmed)
	require.NoError(t, err)
	assert.True(t, snapshot.Executable)
}

func TestRentExemptMinimum(t *testing.T) {
	assert.Equal(t, uint64(890_880), test_ledger.RentExemptMinimum(0))
	assert.Equal(t, uint64(1_461_600), test_ledger.RentExemptMinimum(82))
	assert.Equal(t, uint64(2_039_280), test_ledger.RentExemptMinimum(165))
}
