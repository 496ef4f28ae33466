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

// Package oracle answers the balance questions asked while building a
// transaction: how much an account holds and how much it must hold to be
// rent exempt
package oracle

import (
	"context"
	"errors"
	"log/slog"

	"github.com/blinklabs-io/solanatx/ledger/common"
	"github.com/blinklabs-io/solanatx/node"
)

const DefaultCommitment = common.CommitmentConfirmed

// OptionFunc represents a function used to modify the Oracle config
type OptionFunc func(*Config)

// Config holds the settings of an Oracle
type Config struct {
	Commitment common.Commitment
	Logger     *slog.Logger
}

// NewConfig returns a new Oracle config object with the provided options
func NewConfig(options ...OptionFunc) Config {
	c := Config{
		Commitment: DefaultCommitment,
	}
	for _, option := range options {
		option(&c)
	}
	return c
}

// WithCommitment specifies the commitment level used for reads
func WithCommitment(commitment common.Commitment) OptionFunc {
	return func(c *Config) {
		c.Commitment = commitment
	}
}

// WithLogger specifies the logger to use
func WithLogger(logger *slog.Logger) OptionFunc {
	return func(c *Config) {
		c.Logger = logger
	}
}

// Oracle reads balances and account state from a node. It holds no state of
// its own and every answer comes from a fresh read
type Oracle struct {
	node   node.Node
	config Config
	logger *slog.Logger
}

// New returns a new Oracle reading from the provided node
func New(n node.Node, options ...OptionFunc) *Oracle {
	cfg := NewConfig(options...)
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Oracle{
		node:   n,
		config: cfg,
		logger: logger.With(
			"component", "oracle",
			"commitment", cfg.Commitment.String(),
		),
	}
}

// Commitment returns the commitment level used for reads
func (o *Oracle) Commitment() common.Commitment {
	return o.config.Commitment
}

// MinimumExemptBalance returns the smallest balance an account with dataSize
// bytes of data must hold to be exempt from rent
func (o *Oracle) MinimumExemptBalance(
	ctx context.Context,
	dataSize uint64,
) (uint64, error) {
	lamports, err := o.node.GetMinimumBalanceForRentExemption(
		ctx,
		dataSize,
		o.config.Commitment,
	)
	if err != nil {
		return 0, err
	}
	o.logger.Debug(
		"fetched minimum balance for rent exemption",
		"data_size", dataSize,
		"lamports", lamports,
	)
	return lamports, nil
}

// CurrentBalance returns the balance of an account. An account that does not
// exist has a zero balance
func (o *Oracle) CurrentBalance(
	ctx context.Context,
	addr common.Address,
) (uint64, error) {
	lamports, err := o.node.GetBalance(ctx, addr, o.config.Commitment)
	if err != nil {
		if errors.Is(err, common.ErrAccountNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return lamports, nil
}

// Account returns a snapshot of an account. A missing account is reported
// with Exists set to false rather than an error
func (o *Oracle) Account(
	ctx context.Context,
	addr common.Address,
) (common.AccountSnapshot, error) {
	snapshot, err := o.node.GetAccount(ctx, addr, o.config.Commitment)
	if err != nil {
		if errors.Is(err, common.ErrAccountNotFound) {
			return common.AccountSnapshot{Address: addr}, nil
		}
		return common.AccountSnapshot{}, err
	}
	return snapshot, nil
}

// TokenAccountBalance returns the token balance held by a token account
func (o *Oracle) TokenAccountBalance(
	ctx context.Context,
	addr common.Address,
) (common.TokenAmount, error) {
	return o.node.GetTokenAccountBalance(ctx, addr, o.config.Commitment)
}

// LatestBlockRef returns the most recent block reference, used as the
// recent blockhash of a new message
func (o *Oracle) LatestBlockRef(ctx context.Context) (common.BlockRef, error) {
	ref, err := o.node.GetLatestBlockRef(ctx, o.config.Commitment)
	if err != nil {
		return common.BlockRef{}, err
	}
	o.logger.Debug(
		"fetched block reference",
		"blockhash", ref.Blockhash.String(),
		"last_valid_block_height", ref.LastValidBlockHeight,
	)
	return ref, nil
}
