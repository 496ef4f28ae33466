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

// Package common provides the shared primitive types used by every other
// package in this module.
//
// # Key Files by Purpose
//
// Core Types:
//   - address.go: Address type, base58 encoding and address derivation
//     (CreateWithSeed, CreateProgramAddress, FindProgramAddress)
//   - common.go: Hash and Signature types, lamport helpers
//   - account.go: AccountSnapshot, TokenAmount and BlockRef
//   - commitment.go: Commitment levels and their ordering
//   - programs.go: well-known program and sysvar addresses
//
// Interfaces:
//   - signer.go: Signer, the signing-key boundary
//
// Errors:
//   - errors.go: the error taxonomy shared by the assembler, the oracle and
//     the submission client. Every error can be tested with errors.Is against
//     one of the Err* sentinels.
//
// Address derivation is pure. Nothing in this package performs I/O.
package common
