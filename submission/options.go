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

package submission

import (
	"log/slog"
	"time"

	"github.com/blinklabs-io/solanatx/ledger/common"
)

const (
	DefaultCommitment     = common.CommitmentConfirmed
	DefaultPollInterval   = 500 * time.Millisecond
	DefaultConfirmTimeout = 60 * time.Second
)

// OptionFunc represents a function used to modify the Client config
type OptionFunc func(*Config)

// Config holds the settings of a Client
type Config struct {
	// AirdropAllowed reports whether the cluster hands out test funds
	AirdropAllowed bool
	// Commitment is used for airdrop requests and preflight simulation
	Commitment     common.Commitment
	PollInterval   time.Duration
	ConfirmTimeout time.Duration
	SkipPreflight  bool
	// MaxRetries is passed through to the node. nil leaves the choice of
	// rebroadcasting to the node
	MaxRetries *uint
	Logger     *slog.Logger
	Metrics    *Metrics
}

// NewConfig returns a new Client config object with the provided options
func NewConfig(options ...OptionFunc) Config {
	c := Config{
		AirdropAllowed: true,
		Commitment:     DefaultCommitment,
		PollInterval:   DefaultPollInterval,
		ConfirmTimeout: DefaultConfirmTimeout,
	}
	for _, option := range options {
		option(&c)
	}
	return c
}

// WithAirdropAllowed specifies whether test fund requests are sent to the
// node or rejected locally
func WithAirdropAllowed(allowed bool) OptionFunc {
	return func(c *Config) {
		c.AirdropAllowed = allowed
	}
}

// WithCommitment specifies the commitment level used for airdrops and
// preflight simulation
func WithCommitment(commitment common.Commitment) OptionFunc {
	return func(c *Config) {
		c.Commitment = commitment
	}
}

// WithPollInterval specifies the interval between signature status reads
func WithPollInterval(interval time.Duration) OptionFunc {
	return func(c *Config) {
		c.PollInterval = interval
	}
}

// WithConfirmTimeout specifies how long SubmitAndConfirm waits for the
// target commitment
func WithConfirmTimeout(timeout time.Duration) OptionFunc {
	return func(c *Config) {
		c.ConfirmTimeout = timeout
	}
}

// WithSkipPreflight specifies whether the node should skip simulating
// transactions before accepting them
func WithSkipPreflight(skip bool) OptionFunc {
	return func(c *Config) {
		c.SkipPreflight = skip
	}
}

// WithMaxRetries specifies how many times the node rebroadcasts a
// transaction
func WithMaxRetries(retries uint) OptionFunc {
	return func(c *Config) {
		c.MaxRetries = &retries
	}
}

// WithLogger specifies the logger to use
func WithLogger(logger *slog.Logger) OptionFunc {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithMetrics specifies a metrics collector, which may be shared between
// clients
func WithMetrics(metrics *Metrics) OptionFunc {
	return func(c *Config) {
		c.Metrics = metrics
	}
}
