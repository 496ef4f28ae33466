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

// Package solanatx builds, signs and submits atomic multi-instruction
// transactions and waits for them to be committed. The Client type wires a
// node to the balance oracle and the submission client
package solanatx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/blinklabs-io/solanatx/ledger"
	"github.com/blinklabs-io/solanatx/ledger/common"
	"github.com/blinklabs-io/solanatx/node"
	"github.com/blinklabs-io/solanatx/oracle"
	"github.com/blinklabs-io/solanatx/submission"
)

// Client is the entry point for building and submitting transactions
type Client struct {
	endpoint       string
	cluster        Cluster
	node           node.Node
	ownedNode      *node.RPCNode
	logger         *slog.Logger
	commitment     common.Commitment
	rateLimit      int
	httpTimeout    time.Duration
	httpHeaders    map[string]string
	pollInterval   time.Duration
	confirmTimeout time.Duration
	oracle         *oracle.Oracle
	submission     *submission.Client
}

// New returns a new Client object with the specified options. Either an
// endpoint, a cluster or a node must be provided
func New(options ...ClientOptionFunc) (*Client, error) {
	c := &Client{
		cluster:        ClusterDevnet,
		commitment:     common.CommitmentConfirmed,
		httpTimeout:    node.DefaultHTTPTimeout,
		pollInterval:   submission.DefaultPollInterval,
		confirmTimeout: submission.DefaultConfirmTimeout,
	}
	// Apply provided options functions
	for _, option := range options {
		option(c)
	}
	if c.cluster == ClusterInvalid {
		return nil, errors.New("invalid cluster")
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.node == nil {
		endpoint := c.endpoint
		if endpoint == "" {
			endpoint = c.cluster.Endpoint
		}
		if endpoint == "" {
			return nil, errors.New("no node endpoint specified")
		}
		rpcNode, err := node.NewRPCNode(
			node.WithEndpoint(endpoint),
			node.WithHTTPTimeout(c.httpTimeout),
			node.WithHTTPHeaders(c.httpHeaders),
			node.WithRateLimit(c.rateLimit),
			node.WithLogger(c.logger),
		)
		if err != nil {
			return nil, err
		}
		c.node = rpcNode
		c.ownedNode = rpcNode
	}
	c.oracle = oracle.New(
		c.node,
		oracle.WithCommitment(c.commitment),
		oracle.WithLogger(c.logger),
	)
	c.submission = submission.New(
		c.node,
		submission.WithAirdropAllowed(c.cluster.AirdropAllowed),
		submission.WithCommitment(c.commitment),
		submission.WithPollInterval(c.pollInterval),
		submission.WithConfirmTimeout(c.confirmTimeout),
		submission.WithLogger(c.logger),
	)
	c.logger.Debug(
		"client created",
		"component", "client",
		"cluster", c.cluster.String(),
		"commitment", c.commitment.String(),
	)
	return c, nil
}

// Cluster returns the configured cluster
func (c *Client) Cluster() Cluster {
	return c.cluster
}

// Node returns the node used by the client
func (c *Client) Node() node.Node {
	return c.node
}

// Oracle returns the balance oracle
func (c *Client) Oracle() *oracle.Oracle {
	return c.oracle
}

// Submission returns the submission client
func (c *Client) Submission() *submission.Client {
	return c.submission
}

// Close releases the resources of a node created by the client
func (c *Client) Close() error {
	if c.ownedNode != nil {
		return c.ownedNode.Close()
	}
	return nil
}

// BuildTransaction fetches a fresh block reference, assembles the
// instructions in the given order and signs the result. Instruction order is
// preserved: a later instruction may depend on state created by an earlier
// one, and ensuring such dependencies are satisfied is up to the caller
func (c *Client) BuildTransaction(
	ctx context.Context,
	instructions []ledger.Instruction,
	feePayer common.Address,
	signers []common.Signer,
) (*ledger.Transaction, error) {
	ref, err := c.oracle.LatestBlockRef(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch block reference: %w", err)
	}
	msg, err := ledger.Assemble(instructions, feePayer, ref.Blockhash)
	if err != nil {
		return nil, err
	}
	return ledger.Sign(msg, signers)
}

// BuildAndSubmit builds a transaction with BuildTransaction, submits it and
// waits for the target commitment
func (c *Client) BuildAndSubmit(
	ctx context.Context,
	instructions []ledger.Instruction,
	feePayer common.Address,
	signers []common.Signer,
	target common.Commitment,
) (submission.CommitResult, error) {
	tx, err := c.BuildTransaction(ctx, instructions, feePayer, signers)
	if err != nil {
		return submission.CommitResult{}, err
	}
	return c.submission.SubmitAndConfirm(ctx, tx, target)
}
