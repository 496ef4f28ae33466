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
	"github.com/shopspring/decimal"
)

const (
	defaultAccountSeed = "test_program_001"
	defaultAirdropSOL  = "1000"
)

type simpleTxFlags struct {
	flagset  *flag.FlagSet
	seed     string
	airdrop  string
	fundSize uint64
	space    uint64
}

func newSimpleTxFlags() *simpleTxFlags {
	f := &simpleTxFlags{
		flagset: flag.NewFlagSet("simple-tx", flag.ExitOnError),
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
	f.flagset.Uint64Var(
		&f.fundSize,
		"fund-size",
		1500,
		"data size whose rent-exempt minimum funds the new account",
	)
	f.flagset.Uint64Var(
		&f.space,
		"space",
		0,
		"data size allocated to the new account",
	)
	return f
}

func parseAirdrop(value string) decimal.Decimal {
	sol, err := decimal.NewFromString(value)
	if err != nil {
		fmt.Printf("Invalid airdrop amount: %s\n", value)
		os.Exit(1)
	}
	return sol
}

func simpleTx(
	ctx context.Context,
	f *common.GlobalFlags,
	client *solanatx.Client,
	payer *keys.Keypair,
	logger *slog.Logger,
) error {
	simpleTxFlags := newSimpleTxFlags()
	if err := simpleTxFlags.flagset.Parse(f.Flagset.Args()[1:]); err != nil {
		fmt.Printf("failed to parse subcommand args: %s\n", err)
		os.Exit(1)
	}
	payerAddr := payer.PublicAddress()
	requestFunds(ctx, client, payer, parseAirdrop(simpleTxFlags.airdrop), logger)
	if err := logBalance(ctx, client, payerAddr, logger); err != nil {
		return err
	}

	derived, err := lcommon.CreateWithSeed(
		payerAddr,
		simpleTxFlags.seed,
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

	rentExempt, err := client.Oracle().MinimumExemptBalance(ctx, simpleTxFlags.fundSize)
	if err != nil {
		return err
	}
	createIns, err := system.CreateAccountWithSeed(
		payerAddr,
		derived,
		payerAddr,
		simpleTxFlags.seed,
		lcommon.SystemProgramId,
		rentExempt,
		simpleTxFlags.space,
	)
	if err != nil {
		return err
	}
	result, err := client.BuildAndSubmit(
		ctx,
		[]ledger.Instruction{createIns},
		payerAddr,
		[]lcommon.Signer{payer},
		f.TargetCommitment(),
	)
	return reportResult(result, err, true, logger)
}
