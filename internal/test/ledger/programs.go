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
	"github.com/blinklabs-io/solanatx/ledger"
	"github.com/blinklabs-io/solanatx/ledger/common"
	"github.com/blinklabs-io/solanatx/program/associatedtoken"
	"github.com/blinklabs-io/solanatx/program/metadata"
	"github.com/blinklabs-io/solanatx/program/system"
	"github.com/blinklabs-io/solanatx/program/token"
)

const tokenErrorOverflow = 14

func executeSystem(c *instrContext) *ledger.TransactionError {
	decoded, err := system.DecodeInstruction(c.instr.Data)
	if err != nil {
		return c.fail(ledger.InstrErrorInvalidInstructionData)
	}
	if txErr := c.requireAccounts(2); txErr != nil {
		return txErr
	}
	switch params := decoded.(type) {
	case system.CreateAccountParams:
		if !c.instr.Accounts[1].IsSigner {
			c.log("Allocate: 'to' account %s must sign", c.instr.Accounts[1].Address)
			return c.fail(ledger.InstrErrorMissingRequiredSignature)
		}
		return createAccount(c, nil, params.Lamports, params.Space, params.Owner)
	case system.CreateAccountWithSeedParams:
		to := c.instr.Accounts[1].Address
		derived, err := common.CreateWithSeed(params.Base, params.Seed, params.Owner)
		if err != nil {
			c.log("Create: %s", err)
			return c.custom(ledger.SystemErrorMaxSeedLengthExceeded)
		}
		if derived != to {
			c.log("Create: address %s does not match derived address %s", to, derived)
			return c.custom(ledger.SystemErrorAddressWithSeedMismatch)
		}
		if !c.isSigner(params.Base) {
			c.log("Create: 'base' account %s must sign", params.Base)
			return c.fail(ledger.InstrErrorMissingRequiredSignature)
		}
		return createAccount(c, &params.Base, params.Lamports, params.Space, params.Owner)
	case system.TransferParams:
		from, txErr := c.writable(0)
		if txErr != nil {
			return txErr
		}
		to, txErr := c.writable(1)
		if txErr != nil {
			return txErr
		}
		if !c.instr.Accounts[0].IsSigner {
			c.log("Transfer: `from` account %s must sign", c.instr.Accounts[0].Address)
			return c.fail(ledger.InstrErrorMissingRequiredSignature)
		}
		if len(from.Data) > 0 {
			c.log("Transfer: `from` must not carry data")
			return c.fail(ledger.InstrErrorInvalidArgument)
		}
		if from.Owner != common.SystemProgramId {
			return c.fail(ledger.InstrErrorExternalLamportSpend)
		}
		if from.Lamports < params.Lamports {
			c.log("Transfer: insufficient lamports %d, need %d", from.Lamports, params.Lamports)
			return c.custom(ledger.SystemErrorResultWithNegativeLamports)
		}
		from.Lamports -= params.Lamports
		to.Lamports += params.Lamports
		return nil
	}
	return c.fail(ledger.InstrErrorInvalidInstructionData)
}

// createAccount funds, allocates and assigns the account at position 1 from
// the funding account at position 0
func createAccount(
	c *instrContext,
	base *common.Address,
	lamports uint64,
	space uint64,
	owner common.Address,
) *ledger.TransactionError {
	from, txErr := c.writable(0)
	if txErr != nil {
		return txErr
	}
	to, txErr := c.writable(1)
	if txErr != nil {
		return txErr
	}
	if !c.instr.Accounts[0].IsSigner {
		c.log("Transfer: `from` account %s must sign", c.instr.Accounts[0].Address)
		return c.fail(ledger.InstrErrorMissingRequiredSignature)
	}
	if to.Lamports > 0 || to.inUse() {
		return c.alreadyInUse(c.instr.Accounts[1].Address, base)
	}
	if space > maxAccountDataSize {
		return c.custom(ledger.SystemErrorInvalidAccountDataLength)
	}
	if from.Lamports < lamports {
		c.log("Transfer: insufficient lamports %d, need %d", from.Lamports, lamports)
		return c.custom(ledger.SystemErrorResultWithNegativeLamports)
	}
	from.Lamports -= lamports
	to.Lamports += lamports
	to.Data = make([]byte, space)
	to.Owner = owner
	return nil
}

func executeToken(c *instrContext) *ledger.TransactionError {
	decoded, err := token.DecodeInstruction(c.instr.Data)
	if err != nil {
		return c.fail(ledger.InstrErrorInvalidInstructionData)
	}
	switch params := decoded.(type) {
	case token.InitializeMintParams:
		if txErr := c.requireAccounts(1); txErr != nil {
			return txErr
		}
		c.log("Instruction: InitializeMint2")
		mintAcct, txErr := c.writable(0)
		if txErr != nil {
			return txErr
		}
		if mintAcct.Owner != common.TokenProgramId {
			return c.fail(ledger.InstrErrorIncorrectProgramId)
		}
		existing, err := token.ParseMint(mintAcct.Data)
		if err != nil {
			return c.fail(ledger.InstrErrorInvalidAccountData)
		}
		if existing.IsInitialized {
			c.log("Error: account or token already in use")
			return c.custom(ledger.TokenErrorAlreadyInUse)
		}
		if mintAcct.Lamports < RentExemptMinimum(token.MintSize) {
			c.log("Error: Lamport balance below rent-exempt threshold")
			return c.custom(ledger.TokenErrorNotRentExempt)
		}
		mintAuthority := params.MintAuthority
		mint := &token.Mint{
			MintAuthority:   &mintAuthority,
			Decimals:        params.Decimals,
			IsInitialized:   true,
			FreezeAuthority: params.FreezeAuthority,
		}
		copy(mintAcct.Data, mint.Bytes())
		return nil
	case token.MintToParams:
		if txErr := c.requireAccounts(3); txErr != nil {
			return txErr
		}
		c.log("Instruction: MintToChecked")
		mintAcct, txErr := c.writable(0)
		if txErr != nil {
			return txErr
		}
		destAcct, txErr := c.writable(1)
		if txErr != nil {
			return txErr
		}
		if mintAcct.Owner != common.TokenProgramId ||
			destAcct.Owner != common.TokenProgramId {
			return c.fail(ledger.InstrErrorIncorrectProgramId)
		}
		mint, err := token.ParseMint(mintAcct.Data)
		if err != nil || !mint.IsInitialized {
			return c.custom(ledger.TokenErrorUninitializedState)
		}
		dest, err := token.ParseAccount(destAcct.Data)
		if err != nil || dest.State == token.AccountStateUninitialized {
			return c.custom(ledger.TokenErrorUninitializedState)
		}
		if dest.Mint != c.instr.Accounts[0].Address {
			c.log("Error: Account not associated with this Mint")
			return c.custom(ledger.TokenErrorMintMismatch)
		}
		if params.Decimals != mint.Decimals {
			c.log("Error: decimals different from the Mint decimals")
			return c.custom(ledger.TokenErrorMintDecimalsMismatch)
		}
		authority := c.instr.Accounts[2]
		if mint.MintAuthority == nil {
			return c.custom(ledger.TokenErrorFixedSupply)
		}
		if *mint.MintAuthority != authority.Address {
			c.log("Error: owner does not match")
			return c.custom(ledger.TokenErrorOwnerMismatch)
		}
		if !authority.IsSigner {
			return c.fail(ledger.InstrErrorMissingRequiredSignature)
		}
		if mint.Supply+params.Amount < mint.Supply ||
			dest.Amount+params.Amount < dest.Amount {
			return c.custom(tokenErrorOverflow)
		}
		mint.Supply += params.Amount
		dest.Amount += params.Amount
		copy(mintAcct.Data, mint.Bytes())
		copy(destAcct.Data, dest.Bytes())
		return nil
	}
	return c.fail(ledger.InstrErrorInvalidInstructionData)
}

func executeAssociatedToken(c *instrContext) *ledger.TransactionError {
	idempotent := false
	switch {
	case len(c.instr.Data) == 0:
	case len(c.instr.Data) == 1 && c.instr.Data[0] == associatedtoken.InstructionCreate:
	case len(c.instr.Data) == 1 && c.instr.Data[0] == associatedtoken.InstructionCreateIdempotent:
		idempotent = true
	default:
		return c.fail(ledger.InstrErrorInvalidInstructionData)
	}
	if txErr := c.requireAccounts(6); txErr != nil {
		return txErr
	}
	if idempotent {
		c.log("CreateIdempotent")
	} else {
		c.log("Create")
	}
	ataAddr := c.instr.Accounts[1].Address
	wallet := c.instr.Accounts[2].Address
	mintAddr := c.instr.Accounts[3].Address
	expected, _, err := associatedtoken.FindAddress(wallet, mintAddr)
	if err != nil || expected != ataAddr {
		c.log("Associated address does not match seed derivation")
		return c.fail(ledger.InstrErrorInvalidSeeds)
	}
	mintAcct := c.peek(3)
	if mintAcct.Owner != common.TokenProgramId {
		return c.fail(ledger.InstrErrorIncorrectProgramId)
	}
	if mint, err := token.ParseMint(mintAcct.Data); err != nil || !mint.IsInitialized {
		return c.fail(ledger.InstrErrorInvalidAccountData)
	}
	ata, txErr := c.writable(1)
	if txErr != nil {
		return txErr
	}
	if idempotent && ata.Owner == common.TokenProgramId {
		existing, err := token.ParseAccount(ata.Data)
		if err == nil && existing.Owner == wallet && existing.Mint == mintAddr {
			return nil
		}
		c.log("Error: Associated token account owner does not match address derivation")
		return c.custom(ledger.AssociatedTokenErrorInvalidOwner)
	}
	if !idempotent && ata.Owner != common.SystemProgramId {
		return c.fail(ledger.InstrErrorIllegalOwner)
	}
	if ata.inUse() {
		return c.alreadyInUse(ataAddr, nil)
	}
	payer, txErr := c.writable(0)
	if txErr != nil {
		return txErr
	}
	if !c.instr.Accounts[0].IsSigner {
		return c.fail(ledger.InstrErrorMissingRequiredSignature)
	}
	if txErr := c.fund(payer, ata, token.AccountSize); txErr != nil {
		return txErr
	}
	acct := &token.Account{
		Mint:  mintAddr,
		Owner: wallet,
		State: token.AccountStateInitialized,
	}
	ata.Data = acct.Bytes()
	ata.Owner = common.TokenProgramId
	return nil
}

func executeMetadata(c *instrContext) *ledger.TransactionError {
	args, err := metadata.DecodeInstruction(c.instr.Data)
	if err != nil {
		return c.fail(ledger.InstrErrorInvalidInstructionData)
	}
	if txErr := c.requireAccounts(6); txErr != nil {
		return txErr
	}
	c.log("IX: Create Metadata Accounts v3")
	metadataAddr := c.instr.Accounts[0].Address
	mintAddr := c.instr.Accounts[1].Address
	mintAuthority := c.instr.Accounts[2]
	updateAuthority := c.instr.Accounts[4].Address
	expected, _, err := metadata.FindMetadataAddress(mintAddr)
	if err != nil || expected != metadataAddr {
		c.log("Error: Invalid Metadata Key")
		return c.custom(ledger.MetadataErrorInvalidMetadataKey)
	}
	mintAcct := c.peek(1)
	if mintAcct.Owner != common.TokenProgramId {
		return c.fail(ledger.InstrErrorIncorrectProgramId)
	}
	mint, err := token.ParseMint(mintAcct.Data)
	if err != nil || !mint.IsInitialized {
		return c.fail(ledger.InstrErrorInvalidAccountData)
	}
	if mint.MintAuthority == nil || *mint.MintAuthority != mintAuthority.Address {
		c.log("Error: Mint authority provided does not match the authority on the mint")
		return c.custom(ledger.MetadataErrorNotMintAuthority)
	}
	if !mintAuthority.IsSigner {
		return c.fail(ledger.InstrErrorMissingRequiredSignature)
	}
	metadataAcct, txErr := c.writable(0)
	if txErr != nil {
		return txErr
	}
	if metadataAcct.inUse() {
		return c.alreadyInUse(metadataAddr, nil)
	}
	payer, txErr := c.writable(3)
	if txErr != nil {
		return txErr
	}
	if !c.instr.Accounts[3].IsSigner {
		return c.fail(ledger.InstrErrorMissingRequiredSignature)
	}
	if txErr := c.fund(payer, metadataAcct, metadata.MetadataSize); txErr != nil {
		return txErr
	}
	tokenStandard := metadata.TokenStandardFungible
	md := &metadata.Metadata{
		Key:             metadata.KeyMetadataV1,
		UpdateAuthority: updateAuthority,
		Mint:            mintAddr,
		Data:            args.Data,
		IsMutable:       args.IsMutable,
		TokenStandard:   &tokenStandard,
	}
	metadataAcct.Data = make([]byte, metadata.MetadataSize)
	copy(metadataAcct.Data, md.Bytes())
	metadataAcct.Owner = common.TokenMetadataProgramId
	return nil
}
