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
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors so callers can use errors.Is
var (
	ErrInvalidSeed          = errors.New("invalid seed")
	ErrNoValidAddress       = errors.New("no valid program address found")
	ErrAccountNotFound      = errors.New("account not found")
	ErrNodeUnavailable      = errors.New("node unavailable")
	ErrAddressMismatch      = errors.New("derived address does not match")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrDecimalMismatch      = errors.New("mint decimals mismatch")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrMissingSigner        = errors.New("missing required signer")
	ErrAirdropRejected      = errors.New("airdrop rejected")
	ErrSimulationRejected   = errors.New("transaction rejected by node")
	ErrTimedOut             = errors.New("timed out waiting for commitment")

	ErrBlockhashNotFound   = errors.New("blockhash not found")
	ErrAlreadyProcessed    = errors.New("transaction already processed")
	ErrUnexpectedSigner    = errors.New("signer not required by message")
	ErrTooManyAccounts     = errors.New("too many accounts in message")
	ErrTransactionTooLarge = errors.New("transaction too large")
)

// InvalidSeedError indicates a seed that violates the derivation limits
type InvalidSeedError struct {
	Reason string
}

func (e InvalidSeedError) Error() string {
	return "invalid seed: " + e.Reason
}

func (InvalidSeedError) Is(target error) bool {
	return target == ErrInvalidSeed
}

// MissingSignerError indicates that a key required by a message was not
// supplied at signing time
type MissingSignerError struct {
	Address Address
}

func (e MissingSignerError) Error() string {
	return fmt.Sprintf("missing required signer: %s", e.Address.String())
}

func (MissingSignerError) Is(target error) bool {
	return target == ErrMissingSigner
}

// UnexpectedSignerError indicates a signing key that the message does not
// require
type UnexpectedSignerError struct {
	Address Address
}

func (e UnexpectedSignerError) Error() string {
	return fmt.Sprintf("signer not required by message: %s", e.Address.String())
}

func (UnexpectedSignerError) Is(target error) bool {
	return target == ErrUnexpectedSigner
}

// NodeUnavailableError indicates a transport failure talking to the node
type NodeUnavailableError struct {
	Op  string
	Err error
}

func (e NodeUnavailableError) Error() string {
	return fmt.Sprintf("node unavailable during %s: %v", e.Op, e.Err)
}

func (e NodeUnavailableError) Unwrap() error { return e.Err }

func (NodeUnavailableError) Is(target error) bool {
	return target == ErrNodeUnavailable
}

// AirdropRejectedError indicates that the network refused a test funds request
type AirdropRejectedError struct {
	Address  Address
	Lamports uint64
	Reason   string
	Err      error
}

func (e AirdropRejectedError) Error() string {
	msg := fmt.Sprintf(
		"airdrop of %d lamports to %s rejected",
		e.Lamports,
		e.Address.String(),
	)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e AirdropRejectedError) Unwrap() error { return e.Err }

func (AirdropRejectedError) Is(target error) bool {
	return target == ErrAirdropRejected
}

// SimulationRejectedError indicates that the node refused a transaction
// outright. Reason holds the classified cause (for example
// ErrAccountAlreadyExists) when one could be determined, so both
// errors.Is(err, ErrSimulationRejected) and errors.Is(err, Reason) hold
type SimulationRejectedError struct {
	Signature Signature
	Message   string
	Reason    error
	Logs      []string
}

func (e SimulationRejectedError) Error() string {
	var sb strings.Builder
	sb.WriteString("transaction rejected")
	if !e.Signature.IsZero() {
		sb.WriteString(" (")
		sb.WriteString(e.Signature.String())
		sb.WriteString(")")
	}
	if e.Reason != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Reason.Error())
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	return sb.String()
}

func (e SimulationRejectedError) Unwrap() error { return e.Reason }

func (SimulationRejectedError) Is(target error) bool {
	return target == ErrSimulationRejected
}
