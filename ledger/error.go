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
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/blinklabs-io/solanatx/ledger/common"
)

// Top-level transaction error kinds reported by the node
const (
	TxErrorAccountInUse             = "AccountInUse"
	TxErrorAccountNotFound          = "AccountNotFound"
	TxErrorAlreadyProcessed         = "AlreadyProcessed"
	TxErrorBlockhashNotFound        = "BlockhashNotFound"
	TxErrorInstructionError         = "InstructionError"
	TxErrorInsufficientFundsForFee  = "InsufficientFundsForFee"
	TxErrorInsufficientFundsForRent = "InsufficientFundsForRent"
	TxErrorSignatureFailure         = "SignatureFailure"
	TxErrorInvalidAccountIndex      = "InvalidAccountIndex"
)

// Instruction error kinds reported inside an InstructionError
const (
	InstrErrorCustom                    = "Custom"
	InstrErrorAccountAlreadyInitialized = "AccountAlreadyInitialized"
	InstrErrorInsufficientFunds         = "InsufficientFunds"
	InstrErrorInvalidAccountData        = "InvalidAccountData"
	InstrErrorInvalidArgument           = "InvalidArgument"
	InstrErrorInvalidInstructionData    = "InvalidInstructionData"
	InstrErrorInvalidSeeds              = "InvalidSeeds"
	InstrErrorMissingRequiredSignature  = "MissingRequiredSignature"
	InstrErrorUninitializedAccount      = "UninitializedAccount"
	InstrErrorIncorrectProgramId        = "IncorrectProgramId"
	InstrErrorIllegalOwner              = "IllegalOwner"
	InstrErrorNotEnoughAccountKeys      = "NotEnoughAccountKeys"
	InstrErrorExternalLamportSpend      = "ExternalAccountLamportSpend"
)

// System program custom error codes
const (
	SystemErrorAccountAlreadyInUse        = 0
	SystemErrorResultWithNegativeLamports = 1
	SystemErrorInvalidProgramId           = 2
	SystemErrorInvalidAccountDataLength   = 3
	SystemErrorMaxSeedLengthExceeded      = 4
	SystemErrorAddressWithSeedMismatch    = 5
)

// Token program custom error codes
const (
	TokenErrorNotRentExempt        = 0
	TokenErrorInsufficientFunds    = 1
	TokenErrorInvalidMint          = 2
	TokenErrorMintMismatch         = 3
	TokenErrorOwnerMismatch        = 4
	TokenErrorFixedSupply          = 5
	TokenErrorAlreadyInUse         = 6
	TokenErrorUninitializedState   = 9
	TokenErrorMintDecimalsMismatch = 18
)

// Associated token program custom error codes
const (
	AssociatedTokenErrorInvalidOwner = 0
)

// Token metadata program custom error codes
const (
	MetadataErrorAlreadyInitialized = 3
	MetadataErrorInvalidMetadataKey = 5
	MetadataErrorNotMintAuthority   = 9
)

var systemProgramErrors = map[uint32]error{
	SystemErrorAccountAlreadyInUse:        common.ErrAccountAlreadyExists,
	SystemErrorResultWithNegativeLamports: common.ErrInsufficientFunds,
	SystemErrorMaxSeedLengthExceeded:      common.ErrInvalidSeed,
	SystemErrorAddressWithSeedMismatch:    common.ErrAddressMismatch,
}

var tokenProgramErrors = map[uint32]error{
	TokenErrorNotRentExempt:        common.ErrInsufficientFunds,
	TokenErrorInsufficientFunds:    common.ErrInsufficientFunds,
	TokenErrorMintMismatch:         common.ErrAddressMismatch,
	TokenErrorOwnerMismatch:        common.ErrAddressMismatch,
	TokenErrorAlreadyInUse:         common.ErrAccountAlreadyExists,
	TokenErrorMintDecimalsMismatch: common.ErrDecimalMismatch,
}

var metadataProgramErrors = map[uint32]error{
	MetadataErrorAlreadyInitialized: common.ErrAccountAlreadyExists,
	MetadataErrorInvalidMetadataKey: common.ErrAddressMismatch,
	MetadataErrorNotMintAuthority:   common.ErrAddressMismatch,
}

var instructionErrors = map[string]error{
	InstrErrorAccountAlreadyInitialized: common.ErrAccountAlreadyExists,
	InstrErrorInsufficientFunds:         common.ErrInsufficientFunds,
	InstrErrorInvalidSeeds:              common.ErrInvalidSeed,
	InstrErrorMissingRequiredSignature:  common.ErrMissingSigner,
}

var transactionErrors = map[string]error{
	TxErrorAccountNotFound:          common.ErrAccountNotFound,
	TxErrorAlreadyProcessed:         common.ErrAlreadyProcessed,
	TxErrorBlockhashNotFound:        common.ErrBlockhashNotFound,
	TxErrorInsufficientFundsForFee:  common.ErrInsufficientFunds,
	TxErrorInsufficientFundsForRent: common.ErrInsufficientFunds,
}

// TransactionError is a transaction failure as reported by the node
type TransactionError struct {
	Kind string
	// InstructionIndex is the index of the failing instruction, or -1 when the
	// failure is not tied to an instruction
	InstructionIndex int
	// InstructionErrorKind is set for InstructionError failures
	InstructionErrorKind string
	// CustomCode is set when InstructionErrorKind is Custom
	CustomCode uint32
	// AccountIndex is set for failures that name an account
	AccountIndex int
}

// NewTransactionError returns a transaction error that is not tied to an
// instruction
func NewTransactionError(kind string) *TransactionError {
	return &TransactionError{
		Kind:             kind,
		InstructionIndex: -1,
		AccountIndex:     -1,
	}
}

// NewInstructionError returns an InstructionError of the given kind
func NewInstructionError(instrIdx int, kind string) *TransactionError {
	return &TransactionError{
		Kind:                 TxErrorInstructionError,
		InstructionIndex:     instrIdx,
		InstructionErrorKind: kind,
		AccountIndex:         -1,
	}
}

// NewCustomInstructionError returns an InstructionError carrying a program
// specific error code
func NewCustomInstructionError(instrIdx int, code uint32) *TransactionError {
	e := NewInstructionError(instrIdx, InstrErrorCustom)
	e.CustomCode = code
	return e
}

func (e *TransactionError) Error() string {
	switch {
	case e.Kind == TxErrorInstructionError && e.InstructionErrorKind == InstrErrorCustom:
		return fmt.Sprintf(
			"instruction %d failed: custom program error: 0x%x",
			e.InstructionIndex,
			e.CustomCode,
		)
	case e.Kind == TxErrorInstructionError:
		return fmt.Sprintf(
			"instruction %d failed: %s",
			e.InstructionIndex,
			e.InstructionErrorKind,
		)
	case e.AccountIndex >= 0:
		return fmt.Sprintf("%s (account index %d)", e.Kind, e.AccountIndex)
	default:
		return e.Kind
	}
}

// Value returns the error in the JSON shape used by the node
func (e *TransactionError) Value() any {
	switch {
	case e.Kind == TxErrorInstructionError && e.InstructionErrorKind == InstrErrorCustom:
		return map[string]any{
			TxErrorInstructionError: []any{
				e.InstructionIndex,
				map[string]any{InstrErrorCustom: e.CustomCode},
			},
		}
	case e.Kind == TxErrorInstructionError:
		return map[string]any{
			TxErrorInstructionError: []any{
				e.InstructionIndex,
				e.InstructionErrorKind,
			},
		}
	case e.AccountIndex >= 0:
		return map[string]any{
			e.Kind: map[string]any{"account_index": e.AccountIndex},
		}
	default:
		return e.Kind
	}
}

func (e *TransactionError) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Value())
}

// ParseTransactionError decodes a transaction error from the JSON shape used
// by the node, either as raw JSON or as an already decoded value
func ParseTransactionError(value any) (*TransactionError, error) {
	switch v := value.(type) {
	case nil:
		return nil, errors.New("no transaction error")
	case *TransactionError:
		return v, nil
	case json.RawMessage:
		return parseTransactionErrorJSON(v)
	case []byte:
		return parseTransactionErrorJSON(v)
	case string:
		return NewTransactionError(v), nil
	case map[string]any:
		if len(v) != 1 {
			return nil, fmt.Errorf("unexpected transaction error shape: %v", v)
		}
		for kind, body := range v {
			if kind != TxErrorInstructionError {
				ret := NewTransactionError(kind)
				if tmp, ok := body.(map[string]any); ok {
					if idx, ok := toInt(tmp["account_index"]); ok {
						ret.AccountIndex = idx
					}
				}
				return ret, nil
			}
			parts, ok := body.([]any)
			if !ok || len(parts) != 2 {
				return nil, fmt.Errorf("unexpected instruction error shape: %v", body)
			}
			instrIdx, ok := toInt(parts[0])
			if !ok {
				return nil, fmt.Errorf("unexpected instruction index: %v", parts[0])
			}
			switch detail := parts[1].(type) {
			case string:
				return NewInstructionError(instrIdx, detail), nil
			case map[string]any:
				if code, ok := toInt(detail[InstrErrorCustom]); ok {
					// #nosec G115
					return NewCustomInstructionError(instrIdx, uint32(code)), nil
				}
				for detailKind := range detail {
					return NewInstructionError(instrIdx, detailKind), nil
				}
			}
			return nil, fmt.Errorf("unexpected instruction error detail: %v", parts[1])
		}
	}
	return nil, fmt.Errorf("unexpected transaction error type: %T", value)
}

func parseTransactionErrorJSON(data []byte) (*TransactionError, error) {
	var tmp any
	decoder := json.NewDecoder(strings.NewReader(string(data)))
	decoder.UseNumber()
	if err := decoder.Decode(&tmp); err != nil {
		return nil, err
	}
	return ParseTransactionError(tmp)
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint32:
		return int(v), true
	case uint64:
		// #nosec G115
		return int(v), true
	case float64:
		return int(v), true
	case json.Number:
		tmp, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(tmp), true
	}
	return 0, false
}

// ClassifyTransactionError maps a node transaction error to one of the
// common Err* sentinels. The program id of the failing instruction and the
// log lines are used to interpret custom program error codes. It returns nil
// when the failure does not map to a known cause
func ClassifyTransactionError(
	txErr *TransactionError,
	programId common.Address,
	logs []string,
) error {
	if txErr == nil {
		return nil
	}
	if txErr.Kind != TxErrorInstructionError {
		return transactionErrors[txErr.Kind]
	}
	if txErr.InstructionErrorKind != InstrErrorCustom {
		// The associated token program refuses to create over an account
		// that is no longer owned by the system program
		if programId == common.AssociatedTokenProgramId &&
			txErr.InstructionErrorKind == InstrErrorIllegalOwner {
			return common.ErrAccountAlreadyExists
		}
		return instructionErrors[txErr.InstructionErrorKind]
	}
	// Program initialization failures that happen through a nested system
	// program call surface as the caller's custom error 0
	if logsContain(logs, "already in use") {
		return common.ErrAccountAlreadyExists
	}
	if logsContain(logs, "insufficient lamports") {
		return common.ErrInsufficientFunds
	}
	switch programId {
	case common.SystemProgramId:
		return systemProgramErrors[txErr.CustomCode]
	case common.TokenProgramId:
		return tokenProgramErrors[txErr.CustomCode]
	case common.AssociatedTokenProgramId:
		if txErr.CustomCode == AssociatedTokenErrorInvalidOwner {
			return common.ErrAddressMismatch
		}
	case common.TokenMetadataProgramId:
		return metadataProgramErrors[txErr.CustomCode]
	}
	return nil
}

// ClassifyMessageError is like ClassifyTransactionError but resolves the
// program id of the failing instruction from the message
func ClassifyMessageError(
	txErr *TransactionError,
	msg *Message,
	logs []string,
) error {
	var programId common.Address
	if txErr != nil && msg != nil && txErr.InstructionIndex >= 0 &&
		txErr.InstructionIndex < len(msg.Instructions) {
		progIdx := int(msg.Instructions[txErr.InstructionIndex].ProgramIdIndex)
		if progIdx < len(msg.AccountKeys) {
			programId = msg.AccountKeys[progIdx]
		}
	}
	return ClassifyTransactionError(txErr, programId, logs)
}

func logsContain(logs []string, substr string) bool {
	return slices.ContainsFunc(logs, func(line string) bool {
		return strings.Contains(line, substr)
	})
}
