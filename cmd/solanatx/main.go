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
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/blinklabs-io/solanatx"
	"github.com/blinklabs-io/solanatx/cmd/common"
	"github.com/blinklabs-io/solanatx/keys"
	lcommon "github.com/blinklabs-io/solanatx/ledger/common"
	"github.com/blinklabs-io/solanatx/submission"
	"github.com/shopspring/decimal"
)

func main() {
	f := common.NewGlobalFlags()
	f.Parse()

	if len(f.Flagset.Args()) == 0 {
		fmt.Printf(
			"You must specify a subcommand (simple-tx, complex-tx, token, balance or derive)\n",
		)
		os.Exit(1)
	}

	logger := f.Logger()
	slog.SetDefault(logger)
	client := common.CreateClient(f, logger)
	defer client.Close()
	payer := common.LoadSigner(f)
	logger.Info("using payer", "address", payer.PublicAddress().String())

	ctx := context.Background()
	var err error
	switch f.Flagset.Arg(0) {
	case "simple-tx":
		err = simpleTx(ctx, f, client, payer, logger)
	case "complex-tx":
		err = complexTx(ctx, f, client, payer, logger)
	case "token":
		err = createToken(ctx, f, client, payer, logger)
	case "balance":
		err = showBalance(ctx, f, client, payer)
	case "derive":
		err = deriveAddress(f, payer)
	default:
		fmt.Printf("Unknown subcommand: %s\n", f.Flagset.Arg(0))
		os.Exit(1)
	}
	if err != nil {
		logger.Error(err.Error())
		var rejected lcommon.SimulationRejectedError
		if errors.As(err, &rejected) {
			for _, line := range rejected.Logs {
				logger.Error("ledger log", "line", line)
			}
		}
		os.Exit(1)
	}
}

// requestFunds asks for test funds and waits for them to land. Failures are
// logged and otherwise ignored, since the payer may already be funded
func requestFunds(
	ctx context.Context,
	client *solanatx.Client,
	payer *keys.Keypair,
	sol decimal.Decimal,
	logger *slog.Logger,
) {
	if !sol.IsPositive() {
		return
	}
	lamports, err := lcommon.SOLToLamports(sol)
	if err != nil {
		logger.Error("invalid airdrop amount", "error", err)
		return
	}
	handle, err := client.Submission().RequestTestFunds(
		ctx,
		payer.PublicAddress(),
		lamports,
	)
	if err != nil {
		logger.Error("error requesting airdrop", "error", err)
		return
	}
	result, err := client.Submission().AwaitCommitment(
		ctx,
		handle,
		lcommon.CommitmentConfirmed,
		submission.DefaultPollInterval,
		submission.DefaultConfirmTimeout,
	)
	if err == nil {
		err = result.Err()
	}
	if err != nil {
		logger.Error("airdrop was not confirmed", "error", err)
	}
}

func logBalance(
	ctx context.Context,
	client *solanatx.Client,
	addr lcommon.Address,
	logger *slog.Logger,
) error {
	lamports, err := client.Oracle().CurrentBalance(ctx, addr)
	if err != nil {
		return fmt.Errorf("failed to fetch balance: %w", err)
	}
	logger.Info(
		"current balance",
		"address", addr.String(),
		"sol", lcommon.LamportsToSOL(lamports).String(),
		"lamports", lamports,
	)
	return nil
}

// reportResult logs the outcome of a submitted transaction. When
// ensureExists is set, a rejection because an account already exists counts
// as success
func reportResult(
	result submission.CommitResult,
	err error,
	ensureExists bool,
	logger *slog.Logger,
) error {
	if err != nil {
		if ensureExists && errors.Is(err, lcommon.ErrAccountAlreadyExists) {
			logger.Info("account already exists", "error", err)
			return nil
		}
		return err
	}
	if err := result.Err(); err != nil {
		return err
	}
	logger.Info(
		"transaction committed",
		"signature", result.Signature.String(),
		"commitment", result.Commitment.String(),
		"slot", result.Slot,
	)
	return nil
}
