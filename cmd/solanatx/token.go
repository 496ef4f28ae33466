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
	"github.com/blinklabs-io/solanatx/program/associatedtoken"
	"github.com/blinklabs-io/solanatx/program/metadata"
	"github.com/blinklabs-io/solanatx/program/system"
	"github.com/blinklabs-io/solanatx/program/token"
	"github.com/shopspring/decimal"
)

type tokenFlags struct {
	flagset  *flag.FlagSet
	airdrop  string
	name     string
	symbol   string
	uri      string
	decimals uint
	amount   string
}

func newTokenFlags() *tokenFlags {
	f := &tokenFlags{
		flagset: flag.NewFlagSet("token", flag.ExitOnError),
	}
	f.flagset.StringVar(
		&f.airdrop,
		"airdrop",
		defaultAirdropSOL,
		"amount of SOL to request before sending (0 to skip)",
	)
	f.flagset.StringVar(&f.name, "name", "Seven Seas Gold", "token name")
	f.flagset.StringVar(&f.symbol, "symbol", "GOLD", "token symbol")
	f.flagset.StringVar(
		&f.uri,
		"uri",
		"https://thisisnot.arealurl/info.json",
		"URI of the off-chain token metadata",
	)
	f.flagset.UintVar(&f.decimals, "decimals", 2, "decimals of the mint")
	f.flagset.StringVar(
		&f.amount,
		"amount",
		"100",
		"amount of tokens to mint to the payer, in whole token units",
	)
	return f
}

func createToken(
	ctx context.Context,
	f *common.GlobalFlags,
	client *solanatx.Client,
	payer *keys.Keypair,
	logger *slog.Logger,
) error {
	tokenFlags := newTokenFlags()
	if err := tokenFlags.flagset.Parse(f.Flagset.Args()[1:]); err != nil {
		fmt.Printf("failed to parse subcommand args: %s\n", err)
		os.Exit(1)
	}
	if tokenFlags.decimals > 255 {
		fmt.Printf("Invalid decimals: %d\n", tokenFlags.decimals)
		os.Exit(1)
	}
	decimals := uint8(tokenFlags.decimals) // #nosec G115
	uiAmount, err := decimal.NewFromString(tokenFlags.amount)
	if err != nil || uiAmount.IsNegative() {
		fmt.Printf("Invalid amount: %s\n", tokenFlags.amount)
		os.Exit(1)
	}
	rawAmount := uiAmount.Shift(int32(decimals))
	if !rawAmount.IsInteger() || !rawAmount.BigInt().IsUint64() {
		fmt.Printf(
			"Amount %s cannot be represented with %d decimals\n",
			tokenFlags.amount,
			decimals,
		)
		os.Exit(1)
	}
	payerAddr := payer.PublicAddress()

	requestFunds(ctx, client, payer, parseAirdrop(tokenFlags.airdrop), logger)
	if err := logBalance(ctx, client, payerAddr, logger); err != nil {
		return err
	}

	mint, err := keys.NewKeypair()
	if err != nil {
		return err
	}
	mintAddr := mint.PublicAddress()
	logger.Info("mint account", "address", mintAddr.String())
	mintRent, err := client.Oracle().MinimumExemptBalance(ctx, token.MintSize)
	if err != nil {
		return err
	}
	metadataAddr, _, err := metadata.FindMetadataAddress(mintAddr)
	if err != nil {
		return err
	}
	logger.Info("metadata account", "address", metadataAddr.String())
	ataAddr, _, err := associatedtoken.FindAddress(payerAddr, mintAddr)
	if err != nil {
		return err
	}
	logger.Info("token account", "address", ataAddr.String())

	createMetadataIns, err := metadata.CreateMetadata(
		metadata.CreateMetadataParams{
			Metadata:                metadataAddr,
			Mint:                    mintAddr,
			MintAuthority:           payerAddr,
			Payer:                   payerAddr,
			UpdateAuthority:         payerAddr,
			UpdateAuthorityIsSigner: true,
			Data: metadata.Data{
				Name:   tokenFlags.name,
				Symbol: tokenFlags.symbol,
				URI:    tokenFlags.uri,
			},
			IsMutable: true,
		},
	)
	if err != nil {
		return err
	}
	createAtaIns, err := associatedtoken.Create(payerAddr, payerAddr, mintAddr)
	if err != nil {
		return err
	}
	instructions := []ledger.Instruction{
		system.CreateAccount(
			payerAddr,
			mintAddr,
			lcommon.TokenProgramId,
			mintRent,
			token.MintSize,
		),
		token.InitializeMint(mintAddr, payerAddr, &payerAddr, decimals),
		createMetadataIns,
		createAtaIns,
		token.MintTo(
			mintAddr,
			ataAddr,
			payerAddr,
			rawAmount.BigInt().Uint64(),
			decimals,
		),
	}
	result, err := client.BuildAndSubmit(
		ctx,
		instructions,
		payerAddr,
		[]lcommon.Signer{payer, mint},
		f.TargetCommitment(),
	)
	if err := reportResult(result, err, false, logger); err != nil {
		return err
	}

	balance, err := client.Oracle().TokenAccountBalance(ctx, ataAddr)
	if err != nil {
		return fmt.Errorf("failed to fetch token balance: %w", err)
	}
	logger.Info(
		"token balance",
		"address", ataAddr.String(),
		"amount", balance.UiAmount(),
	)
	if !balance.Decimal().Equal(uiAmount) {
		return fmt.Errorf(
			"unexpected token balance: expected %s, got %s",
			uiAmount.String(),
			balance.UiAmount(),
		)
	}
	return nil
}
