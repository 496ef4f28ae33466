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

	"github.com/blinklabs-io/solanatx/keys"
	"github.com/blinklabs-io/solanatx/ledger/common"
	bin "github.com/gagliardetto/binary"
	"github.com/jinzhu/copier"
)

// MaxTransactionSize is the maximum size of a serialized transaction, which
// must fit into a single network packet
const MaxTransactionSize = 1232

// Transaction is a signed message. Signatures are ordered to match the
// signer accounts of the message
type Transaction struct {
	Signatures []common.Signature
	Message    Message
}

// Sign signs the message with the provided signers and returns a new
// transaction. Every account the message requires as a signer must be
// covered by a signer, otherwise a MissingSignerError is returned before
// anything is signed. Signers that the message does not require are
// rejected. The order of signers does not matter; duplicates of the same key
// are tolerated
func Sign(msg *Message, signers []common.Signer) (*Transaction, error) {
	if msg == nil {
		return nil, errors.New("message is nil")
	}
	byAddress := make(map[common.Address]common.Signer, len(signers))
	for _, signer := range signers {
		byAddress[signer.PublicAddress()] = signer
	}
	required := msg.Signers()
	requiredSet := make(map[common.Address]struct{}, len(required))
	for _, addr := range required {
		if _, ok := byAddress[addr]; !ok {
			return nil, common.MissingSignerError{Address: addr}
		}
		requiredSet[addr] = struct{}{}
	}
	for addr := range byAddress {
		if _, ok := requiredSet[addr]; !ok {
			return nil, common.UnexpectedSignerError{Address: addr}
		}
	}
	tx := &Transaction{
		Signatures: make([]common.Signature, len(required)),
	}
	if err := copier.CopyWithOption(
		&tx.Message,
		msg,
		copier.Option{DeepCopy: true},
	); err != nil {
		return nil, fmt.Errorf("failed to copy message: %w", err)
	}
	msgBytes := tx.Message.Bytes()
	for idx, addr := range required {
		sig, err := byAddress[addr].Sign(msgBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to sign with %s: %w", addr, err)
		}
		tx.Signatures[idx] = sig
	}
	if size := len(tx.Bytes()); size > MaxTransactionSize {
		return nil, fmt.Errorf(
			"%w: %d bytes exceeds maximum of %d",
			common.ErrTransactionTooLarge,
			size,
			MaxTransactionSize,
		)
	}
	return tx, nil
}

// Id returns the first signature, which identifies the transaction
func (t *Transaction) Id() common.Signature {
	if len(t.Signatures) == 0 {
		return common.Signature{}
	}
	return t.Signatures[0]
}

// Verify checks that the transaction carries a valid signature from every
// required signer and fits the size limit
func (t *Transaction) Verify() error {
	required := t.Message.Signers()
	if len(t.Signatures) != len(required) {
		return fmt.Errorf(
			"signature count %d does not match required signers %d",
			len(t.Signatures),
			len(required),
		)
	}
	msgBytes := t.Message.Bytes()
	for idx, addr := range required {
		if t.Signatures[idx].IsZero() {
			return common.MissingSignerError{Address: addr}
		}
		if !keys.Verify(addr, msgBytes, t.Signatures[idx]) {
			return fmt.Errorf("invalid signature for %s", addr)
		}
	}
	if size := len(t.Bytes()); size > MaxTransactionSize {
		return fmt.Errorf(
			"%w: %d bytes exceeds maximum of %d",
			common.ErrTransactionTooLarge,
			size,
			MaxTransactionSize,
		)
	}
	return nil
}

// Bytes returns the wire form of the transaction
func (t *Transaction) Bytes() []byte {
	buf := make([]byte, 0, MaxTransactionSize)
	bin.EncodeCompactU16Length(&buf, len(t.Signatures))
	for _, sig := range t.Signatures {
		buf = append(buf, sig[:]...)
	}
	buf = append(buf, t.Message.Bytes()...)
	return buf
}

func (t *Transaction) MarshalBinary() ([]byte, error) {
	return t.Bytes(), nil
}

func (t *Transaction) UnmarshalBinary(data []byte) error {
	decoder := bin.NewBinDecoder(data)
	numSigs, err := decoder.ReadCompactU16()
	if err != nil {
		return fmt.Errorf("failed to read signature count: %w", err)
	}
	t.Signatures = make([]common.Signature, numSigs)
	for i := range numSigs {
		sig, err := decoder.ReadBytes(common.SignatureSize)
		if err != nil {
			return fmt.Errorf("failed to read signature: %w", err)
		}
		t.Signatures[i] = common.NewSignature(sig)
	}
	if err := t.Message.decode(decoder); err != nil {
		return err
	}
	if decoder.Remaining() > 0 {
		return fmt.Errorf("%d trailing bytes after transaction", decoder.Remaining())
	}
	if len(t.Signatures) != int(t.Message.Header.NumRequiredSignatures) {
		return fmt.Errorf(
			"signature count %d does not match header %d",
			len(t.Signatures),
			t.Message.Header.NumRequiredSignatures,
		)
	}
	return nil
}

// DecodeTransaction parses a transaction from its wire form
func DecodeTransaction(data []byte) (*Transaction, error) {
	t := &Transaction{}
	if err := t.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return t, nil
}
