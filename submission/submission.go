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

// Package submission sends signed transactions to a node and waits for them
// to reach a commitment level
package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/blinklabs-io/solanatx/ledger"
	"github.com/blinklabs-io/solanatx/ledger/common"
	"github.com/blinklabs-io/solanatx/node"
)

// Outcome is the result of waiting for a commitment level
type Outcome uint8

const (
	OutcomeCommitted Outcome = iota + 1
	// OutcomeTimedOut is inconclusive: the transaction may still land
	OutcomeTimedOut
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCommitted:
		return "committed"
	case OutcomeTimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

// Handle references a submitted transaction or airdrop
type Handle struct {
	Signature common.Signature
	// Message is the submitted message, used to attribute ledger failures to
	// a program. It is nil for airdrops
	Message *ledger.Message
}

// CommitResult is the result of waiting for a commitment level
type CommitResult struct {
	Signature common.Signature
	Outcome   Outcome
	// Commitment is the highest level observed
	Commitment common.Commitment
	Slot       uint64
}

// Committed reports whether the target commitment was reached
func (r CommitResult) Committed() bool {
	return r.Outcome == OutcomeCommitted
}

// Err returns ErrTimedOut for a timed out result, for callers that prefer to
// treat an inconclusive wait as an error
func (r CommitResult) Err() error {
	if r.Outcome == OutcomeTimedOut {
		return fmt.Errorf(
			"%w: %s reached %s",
			common.ErrTimedOut,
			r.Signature.String(),
			r.Commitment.String(),
		)
	}
	return nil
}

// Client submits transactions and tracks their commitment
type Client struct {
	node    node.Node
	config  Config
	logger  *slog.Logger
	metrics *Metrics
}

// New returns a new Client using the provided node
func New(n node.Node, options ...OptionFunc) *Client {
	cfg := NewConfig(options...)
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Client{
		node:    n,
		config:  cfg,
		logger:  logger.With("component", "submission"),
		metrics: metrics,
	}
}

// Metrics returns the metrics collector of the client
func (c *Client) Metrics() *Metrics {
	return c.metrics
}

// RequestTestFunds asks the node to credit an address. It fails with
// ErrAirdropRejected without contacting the node when the client is
// configured for a cluster without airdrops, and when the node refuses
func (c *Client) RequestTestFunds(
	ctx context.Context,
	addr common.Address,
	lamports uint64,
) (Handle, error) {
	if !c.config.AirdropAllowed {
		err := common.AirdropRejectedError{
			Address:  addr,
			Lamports: lamports,
			Reason:   "cluster does not allow airdrops",
		}
		c.metrics.RecordAirdrop(err)
		return Handle{}, err
	}
	sig, err := c.node.RequestAirdrop(ctx, addr, lamports, c.config.Commitment)
	if err != nil {
		var rpcErr *node.RPCError
		if errors.As(err, &rpcErr) {
			err = common.AirdropRejectedError{
				Address:  addr,
				Lamports: lamports,
				Reason:   rpcErr.Message,
				Err:      rpcErr,
			}
		}
		c.metrics.RecordAirdrop(err)
		return Handle{}, err
	}
	c.metrics.RecordAirdrop(nil)
	c.logger.Info(
		"requested test funds",
		"address", addr.String(),
		"lamports", lamports,
		"signature", sig.String(),
	)
	return Handle{Signature: sig}, nil
}

// Submit verifies a transaction locally and sends it to the node. Ledger
// rejections are returned as a SimulationRejectedError and are never
// retried
func (c *Client) Submit(ctx context.Context, tx *ledger.Transaction) (Handle, error) {
	if tx == nil {
		return Handle{}, errors.New("transaction is nil")
	}
	if err := tx.Verify(); err != nil {
		return Handle{}, err
	}
	sig := tx.Id()
	opts := node.SendOptions{
		SkipPreflight:       c.config.SkipPreflight,
		PreflightCommitment: c.config.Commitment,
		MaxRetries:          c.config.MaxRetries,
	}
	nodeSig, err := c.node.SendTransaction(ctx, tx.Bytes(), opts)
	if err != nil {
		err = c.rejection(tx, err)
		c.metrics.RecordSubmit(err)
		c.logger.Debug(
			"transaction rejected",
			"signature", sig.String(),
			"error", err,
		)
		return Handle{}, err
	}
	c.metrics.RecordSubmit(nil)
	if nodeSig != sig {
		c.logger.Warn(
			"node returned unexpected signature",
			"signature", sig.String(),
			"node_signature", nodeSig.String(),
		)
	}
	c.logger.Info(
		"submitted transaction",
		"signature", sig.String(),
		"instructions", len(tx.Message.Instructions),
	)
	return Handle{Signature: sig, Message: &tx.Message}, nil
}

// SubmitAndConfirm submits a transaction and waits for it to reach the
// target commitment using the configured poll interval and timeout
func (c *Client) SubmitAndConfirm(
	ctx context.Context,
	tx *ledger.Transaction,
	target common.Commitment,
) (CommitResult, error) {
	handle, err := c.Submit(ctx, tx)
	if err != nil {
		return CommitResult{}, err
	}
	return c.AwaitCommitment(
		ctx,
		handle,
		target,
		c.config.PollInterval,
		c.config.ConfirmTimeout,
	)
}

// AwaitCommitment polls the status of a transaction until it reaches the
// target commitment or the timeout elapses. Failed status reads are retried
// until the timeout; the transaction itself is never resubmitted. Reaching
// the timeout is reported as OutcomeTimedOut with a nil error. A transaction
// that landed but failed is returned as a SimulationRejectedError
func (c *Client) AwaitCommitment(
	ctx context.Context,
	handle Handle,
	target common.Commitment,
	pollInterval time.Duration,
	timeout time.Duration,
) (CommitResult, error) {
	if pollInterval <= 0 {
		pollInterval = c.config.PollInterval
	}
	if timeout <= 0 {
		timeout = c.config.ConfirmTimeout
	}
	if target == common.CommitmentNone {
		target = common.CommitmentProcessed
	}
	logger := c.logger.With(
		"signature", handle.Signature.String(),
		"commitment", target.String(),
	)
	result := CommitResult{Signature: handle.Signature}
	start := time.Now()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		status, err := c.node.GetSignatureStatus(ctx, handle.Signature)
		c.metrics.RecordStatusPoll(err)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			logger.Debug("failed to read signature status", "error", err)
		case status == nil:
			logger.Debug("signature not yet known")
		case status.Err != nil:
			c.metrics.RecordRejected()
			result.Commitment = status.Commitment
			result.Slot = status.Slot
			return result, common.SimulationRejectedError{
				Signature: handle.Signature,
				Message:   "transaction failed on ledger",
				Reason:    classify(status.Err, handle.Message, nil),
			}
		default:
			result.Commitment = max(result.Commitment, status.Commitment)
			result.Slot = status.Slot
			if status.Commitment.AtLeast(target) {
				result.Outcome = OutcomeCommitted
				c.metrics.RecordConfirm(time.Since(start))
				logger.Info("transaction committed", "slot", status.Slot)
				return result, nil
			}
			logger.Debug("waiting for commitment", "observed", status.Commitment.String())
		}
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-timer.C:
			result.Outcome = OutcomeTimedOut
			c.metrics.RecordTimeout()
			logger.Warn(
				"timed out waiting for commitment",
				"observed", result.Commitment.String(),
				"timeout", timeout,
			)
			return result, nil
		case <-ticker.C:
		}
	}
}

// rejection converts a send failure into the error returned to the caller.
// Transport and context failures pass through unchanged
func (c *Client) rejection(tx *ledger.Transaction, err error) error {
	var rpcErr *node.RPCError
	if !errors.As(err, &rpcErr) {
		return err
	}
	rejected := common.SimulationRejectedError{
		Signature: tx.Id(),
		Message:   rpcErr.Message,
		Logs:      rpcErr.Logs(),
		Reason:    rpcErr,
	}
	if txErr, ok := rpcErr.TransactionError(); ok {
		rejected.Reason = classify(txErr, &tx.Message, rejected.Logs)
	}
	return rejected
}

// classify wraps a ledger failure with the matching common.Err* sentinel
// when one applies
func classify(
	txErr *ledger.TransactionError,
	msg *ledger.Message,
	logs []string,
) error {
	reason := ledger.ClassifyMessageError(txErr, msg, logs)
	if reason == nil {
		return txErr
	}
	return fmt.Errorf("%w: %w", reason, txErr)
}
