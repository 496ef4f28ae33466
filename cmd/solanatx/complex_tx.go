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

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/blinklabs-io/solanatx"
	"github.com/blinklabs-io/solanatx/cmd/common"
	"github.com/blinklabs-io/solanatx/keys"
	"github.com/blinklabs-io/solanatx/ledger"
	lcommon "github.com/blinklabs-io/solanatx/ledger/common"
	"github.com/blinklabs-io/solanatx/program/system"
)

type complexTxFlags struct {
	flagset       *flag.FlagSet
	seed          string
	airdrop       string
	recipient     string
	createExtra   uint64
	transferExtra uint64
}

func newComplexTxFlags() *complexTxFlags {
	f := &complexTxFlags{
		flagset: flag.NewFlagSet("complex-tx", flag.ExitOnError),
	}
	f.flagset.StringVar(
		&f.seed,
		"seed",
		defaultAccountSeed,
		"seed used to derive the new account address from the payer",
	)
	f.flagset.StringVar(
		&f.airdrop,
		"airdrop",
		defaultAirdropSOL,
		"amount of SOL to request before sending (0 to skip)",
	)
	f.flagset.StringVar(
		&f.recipient,
		"recipient",
		"",
		"address receiving the repeated transfer (defaults to a new random address)",
	)
	f.flagset.Uint64Var(
		&f.createExtra,
		"create-extra",
		2_000_000,
		"lamports above the rent-exempt minimum funding the new account",
	)
	f.flagset.Uint64Var(
		&f.transferExtra,
		"transfer-extra",
		100_000,
		"lamports above the rent-exempt minimum sent by each transfer",
	)
	return f
}

func complexTx(
	ctx context.Context,
	f *common.GlobalFlags,
	client *solanatx.Client,
	payer *keys.Keypair,
	logger *slog.Logger,
) error {
	complexTxFlags := newComplexTxFlags()
	if err := complexTxFlags.flagset.Parse(f.Flagset.Args()[1:]); err != nil {
		fmt.Printf("failed to parse subcommand args: %s\n", err)
		os.Exit(1)
	}
	payerAddr := payer.PublicAddress()
	var recipient lcommon.Address
	if complexTxFlags.recipient != "" {
		addr, err := lcommon.NewAddress(complexTxFlags.recipient)
		if err != nil {
			fmt.Printf("Invalid recipient: %s\n", err)
			os.Exit(1)
		}
		recipient = addr
	} else {
		kp, err := keys.NewKeypair()
		if err != nil {
			return err
		}
		recipient = kp.PublicAddress()
	}

	requestFunds(ctx, client, payer, parseAirdrop(complexTxFlags.airdrop), logger)
	if err := logBalance(ctx, client, payerAddr, logger); err != nil {
		return err
	}

	derived, err := lcommon.CreateWithSeed(
		payerAddr,
		complexTxFlags.seed,
		lcommon.SystemProgramId,
	)
	if err != nil {
		return err
	}
	logger.Info("derived account", "address", derived.String())
	existing, err := client.Oracle().Account(ctx, derived)
	if err != nil {
		return err
	}
	if existing.Exists {
		logger.Info(
			"account is already created",
			"address", derived.String(),
			"lamports", existing.Lamports,
		)
		return nil
	}

	rentExempt, err := client.Oracle().MinimumExemptBalance(ctx, 0)
	if err != nil {
		return err
	}
	createIns, err := system.CreateAccountWithSeed(
		payerAddr,
		derived,
		payerAddr,
		complexTxFlags.seed,
		lcommon.SystemProgramId,
		rentExempt+complexTxFlags.createExtra,
		0,
	)
	if err != nil {
		return err
	}
	transferAmount := rentExempt + complexTxFlags.transferExtra
	toRecipient := system.Transfer(payerAddr, recipient, transferAmount)
	toDerived := system.Transfer(payerAddr, derived, transferAmount)
	logger.Info(
		"sending transaction",
		"derived", derived.String(),
		"recipient", recipient.String(),
		"transfer_lamports", transferAmount,
	)
	result, err := client.BuildAndSubmit(
		ctx,
		[]ledger.Instruction{
			createIns,
			toRecipient,
			toDerived,
			toRecipient,
		},
		payerAddr,
		[]lcommon.Signer{payer},
		f.TargetCommitment(),
	)
	return reportResult(result, err, false, logger)
}
