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
	"os"

	"github.com/blinklabs-io/solanatx"
	"github.com/blinklabs-io/solanatx/cmd/common"
	"github.com/blinklabs-io/solanatx/keys"
	lcommon "github.com/blinklabs-io/solanatx/ledger/common"
)

type balanceFlags struct {
	flagset *flag.FlagSet
	address string
	token   bool
}

func newBalanceFlags() *balanceFlags {
	f := &balanceFlags{
		flagset: flag.NewFlagSet("balance", flag.ExitOnError),
	}
	f.flagset.StringVar(
		&f.address,
		"address",
		"",
		"address to query (defaults to the payer)",
	)
	f.flagset.BoolVar(
		&f.token,
		"token",
		false,
		"query the token balance of a token account",
	)
	return f
}

func showBalance(
	ctx context.Context,
	f *common.GlobalFlags,
	client *solanatx.Client,
	payer *keys.Keypair,
) error {
	balanceFlags := newBalanceFlags()
	if err := balanceFlags.flagset.Parse(f.Flagset.Args()[1:]); err != nil {
		fmt.Printf("failed to parse subcommand args: %s\n", err)
		os.Exit(1)
	}
	addr := payer.PublicAddress()
	if balanceFlags.address != "" {
		var err error
		addr, err = lcommon.NewAddress(balanceFlags.address)
		if err != nil {
			fmt.Printf("Invalid address: %s\n", err)
			os.Exit(1)
		}
	}
	if balanceFlags.token {
		amount, err := client.Oracle().TokenAccountBalance(ctx, addr)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\n", addr.String(), amount.UiAmount())
		return nil
	}
	lamports, err := client.Oracle().CurrentBalance(ctx, addr)
	if err != nil {
		return err
	}
	fmt.Printf(
		"%s\t%s SOL\t%d lamports\n",
		addr.String(),
		lcommon.LamportsToSOL(lamports).String(),
		lamports,
	)
	return nil
}
