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
	"flag"
	"fmt"
	"os"

	"github.com/blinklabs-io/solanatx/cmd/common"
	"github.com/blinklabs-io/solanatx/keys"
	lcommon "github.com/blinklabs-io/solanatx/ledger/common"
	"github.com/blinklabs-io/solanatx/program/associatedtoken"
	"github.com/blinklabs-io/solanatx/program/metadata"
)

type deriveFlags struct {
	flagset *flag.FlagSet
	seed    string
	owner   string
	mint    string
}

func newDeriveFlags() *deriveFlags {
	f := &deriveFlags{
		flagset: flag.NewFlagSet("derive", flag.ExitOnError),
	}
	f.flagset.StringVar(
		&f.seed,
		"seed",
		defaultAccountSeed,
		"seed for the address derived from the payer",
	)
	f.flagset.StringVar(
		&f.owner,
		"owner",
		lcommon.SystemProgramId.String(),
		"owner program of the derived address",
	)
	f.flagset.StringVar(
		&f.mint,
		"mint",
		"",
		"also show the token and metadata accounts for this mint",
	)
	return f
}

func deriveAddress(f *common.GlobalFlags, payer *keys.Keypair) error {
	deriveFlags := newDeriveFlags()
	if err := deriveFlags.flagset.Parse(f.Flagset.Args()[1:]); err != nil {
		fmt.Printf("failed to parse subcommand args: %s\n", err)
		os.Exit(1)
	}
	owner, err := lcommon.NewAddress(deriveFlags.owner)
	if err != nil {
		fmt.Printf("Invalid owner: %s\n", err)
		os.Exit(1)
	}
	payerAddr := payer.PublicAddress()
	fmt.Printf("payer:\t\t%s\n", payerAddr.String())
	derived, err := lcommon.CreateWithSeed(payerAddr, deriveFlags.seed, owner)
	if err != nil {
		return err
	}
	fmt.Printf("with seed:\t%s\n", derived.String())
	if deriveFlags.mint == "" {
		return nil
	}
	mint, err := lcommon.NewAddress(deriveFlags.mint)
	if err != nil {
		fmt.Printf("Invalid mint: %s\n", err)
		os.Exit(1)
	}
	ata, bump, err := associatedtoken.FindAddress(payerAddr, mint)
	if err != nil {
		return err
	}
	fmt.Printf("token account:\t%s (bump %d)\n", ata.String(), bump)
	metadataAddr, bump, err := metadata.FindMetadataAddress(mint)
	if err != nil {
		return err
	}
	fmt.Printf("metadata:\t%s (bump %d)\n", metadataAddr.String(), bump)
	return nil
}
