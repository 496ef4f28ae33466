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

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/blinklabs-io/solanatx/ledger"
	"github.com/blinklabs-io/solanatx/ledger/common"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

const DefaultHTTPTimeout = 30 * time.Second

// RPCNodeOptionFunc represents a function used to modify the RPCNode config
type RPCNodeOptionFunc func(*RPCNodeConfig)

// RPCNodeConfig holds the settings of an RPCNode
type RPCNodeConfig struct {
	Endpoint    string
	HTTPTimeout time.Duration
	HTTPHeaders map[string]string
	HTTPClient  *http.Client
	// RateLimit is the maximum number of requests per second. Zero disables
	// rate limiting
	RateLimit int
	Logger    *slog.Logger
}

// NewRPCNodeConfig returns a new RPCNode config object with the provided
// options
func NewRPCNodeConfig(options ...RPCNodeOptionFunc) RPCNodeConfig {
	c := RPCNodeConfig{
		HTTPTimeout: DefaultHTTPTimeout,
	}
	for _, option := range options {
		option(&c)
	}
	return c
}

// WithEndpoint specifies the JSON-RPC endpoint URL
func WithEndpoint(endpoint string) RPCNodeOptionFunc {
	return func(c *RPCNodeConfig) {
		c.Endpoint = endpoint
	}
}

// WithHTTPTimeout specifies the timeout for each HTTP request
func WithHTTPTimeout(timeout time.Duration) RPCNodeOptionFunc {
	return func(c *RPCNodeConfig) {
		c.HTTPTimeout = timeout
	}
}

// WithHTTPHeaders specifies extra headers sent with every request
func WithHTTPHeaders(headers map[string]string) RPCNodeOptionFunc {
	return func(c *RPCNodeConfig) {
		c.HTTPHeaders = headers
	}
}

// WithHTTPClient specifies the HTTP client to use. The HTTP timeout option is
// ignored when a client is provided
func WithHTTPClient(client *http.Client) RPCNodeOptionFunc {
	return func(c *RPCNodeConfig) {
		c.HTTPClient = client
	}
}

// WithRateLimit specifies the maximum number of requests per second. The
// rate-limited transport uses its own HTTP client, so the HTTP client,
// timeout and header options do not apply to it
func WithRateLimit(rps int) RPCNodeOptionFunc {
	return func(c *RPCNodeConfig) {
		c.RateLimit = rps
	}
}

// WithLogger specifies the logger to use
func WithLogger(logger *slog.Logger) RPCNodeOptionFunc {
	return func(c *RPCNodeConfig) {
		c.Logger = logger
	}
}

// RPCNode implements Node over the JSON-RPC API of a ledger node
type RPCNode struct {
	config RPCNodeConfig
	client *rpc.Client
	logger *slog.Logger
}

var _ Node = (*RPCNode)(nil)

// NewRPCNode returns a new RPCNode
func NewRPCNode(options ...RPCNodeOptionFunc) (*RPCNode, error) {
	cfg := NewRPCNodeConfig(options...)
	if cfg.Endpoint == "" {
		return nil, errors.New("no RPC endpoint specified")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	n := &RPCNode{
		config: cfg,
		logger: logger.With("component", "node", "endpoint", cfg.Endpoint),
	}
	if cfg.RateLimit > 0 {
		n.client = rpc.NewWithCustomRPCClient(
			rpc.NewWithRateLimit(cfg.Endpoint, cfg.RateLimit),
		)
	} else {
		httpClient := cfg.HTTPClient
		if httpClient == nil {
			httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
		}
		n.client = rpc.NewWithCustomRPCClient(
			jsonrpc.NewClientWithOpts(
				cfg.Endpoint,
				&jsonrpc.RPCClientOpts{
					HTTPClient:    httpClient,
					CustomHeaders: cfg.HTTPHeaders,
				},
			),
		)
	}
	return n, nil
}

// Close releases the underlying HTTP resources
func (n *RPCNode) Close() error {
	return n.client.Close()
}

func (n *RPCNode) GetMinimumBalanceForRentExemption(
	ctx context.Context,
	dataSize uint64,
	commitment common.Commitment,
) (uint64, error) {
	ret, err := n.client.GetMinimumBalanceForRentExemption(
		ctx,
		dataSize,
		toRPCCommitment(commitment),
	)
	if err != nil {
		return 0, n.wrapError("getMinimumBalanceForRentExemption", err)
	}
	return ret, nil
}

func (n *RPCNode) GetBalance(
	ctx context.Context,
	addr common.Address,
	commitment common.Commitment,
) (uint64, error) {
	ret, err := n.client.GetBalance(
		ctx,
		toPublicKey(addr),
		toRPCCommitment(commitment),
	)
	if err != nil {
		return 0, n.wrapError("getBalance", err)
	}
	return ret.Value, nil
}

func (n *RPCNode) GetAccount(
	ctx context.Context,
	addr common.Address,
	commitment common.Commitment,
) (common.AccountSnapshot, error) {
	ret, err := n.client.GetAccountInfoWithOpts(
		ctx,
		toPublicKey(addr),
		&rpc.GetAccountInfoOpts{
			Encoding:   solana.EncodingBase64,
			Commitment: toRPCCommitment(commitment),
		},
	)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return common.AccountSnapshot{Address: addr}, common.ErrAccountNotFound
		}
		return common.AccountSnapshot{}, n.wrapError("getAccountInfo", err)
	}
	if ret == nil || ret.Value == nil {
		return common.AccountSnapshot{Address: addr}, common.ErrAccountNotFound
	}
	snapshot := common.AccountSnapshot{
		Address:    addr,
		Owner:      common.Address(ret.Value.Owner),
		Lamports:   ret.Value.Lamports,
		Executable: ret.Value.Executable,
		Exists:     true,
	}
	if ret.Value.Data != nil {
		snapshot.Data = ret.Value.Data.GetBinary()
	}
	return snapshot, nil
}

func (n *RPCNode) GetLatestBlockRef(
	ctx context.Context,
	commitment common.Commitment,
) (common.BlockRef, error) {
	ret, err := n.client.GetLatestBlockhash(ctx, toRPCCommitment(commitment))
	if err != nil {
		return common.BlockRef{}, n.wrapError("getLatestBlockhash", err)
	}
	if ret == nil || ret.Value == nil {
		return common.BlockRef{}, common.NodeUnavailableError{
			Op:  "getLatestBlockhash",
			Err: errors.New("empty response"),
		}
	}
	return common.BlockRef{
		Blockhash:            common.Hash(ret.Value.Blockhash),
		LastValidBlockHeight: ret.Value.LastValidBlockHeight,
	}, nil
}

func (n *RPCNode) RequestAirdrop(
	ctx context.Context,
	addr common.Address,
	lamports uint64,
	commitment common.Commitment,
) (common.Signature, error) {
	sig, err := n.client.RequestAirdrop(
		ctx,
		toPublicKey(addr),
		lamports,
		toRPCCommitment(commitment),
	)
	if err != nil {
		return common.Signature{}, n.wrapError("requestAirdrop", err)
	}
	return common.Signature(sig), nil
}

func (n *RPCNode) GetSignatureStatus(
	ctx context.Context,
	sig common.Signature,
) (*SignatureStatus, error) {
	ret, err := n.client.GetSignatureStatuses(
		ctx,
		true,
		solana.Signature(sig),
	)
	if err != nil {
		return nil, n.wrapError("getSignatureStatuses", err)
	}
	if ret == nil || len(ret.Value) == 0 || ret.Value[0] == nil {
		return nil, nil
	}
	status := ret.Value[0]
	ss := &SignatureStatus{
		Slot:          status.Slot,
		Confirmations: status.Confirmations,
		Commitment:    fromConfirmationStatus(status.ConfirmationStatus),
	}
	if status.Err != nil {
		txErr, err := ledger.ParseTransactionError(status.Err)
		if err != nil {
			// The transaction failed either way, so keep the status
			n.logger.Debug(
				"unrecognized transaction error",
				"signature", sig.String(),
				"error", err,
			)
			txErr = ledger.NewTransactionError(fmt.Sprint(status.Err))
		}
		ss.Err = txErr
	}
	return ss, nil
}

func (n *RPCNode) SendTransaction(
	ctx context.Context,
	rawTx []byte,
	opts SendOptions,
) (common.Signature, error) {
	txOpts := rpc.TransactionOpts{
		SkipPreflight:       opts.SkipPreflight,
		PreflightCommitment: toRPCCommitment(opts.PreflightCommitment),
		MaxRetries:          opts.MaxRetries,
	}
	sig, err := n.client.SendRawTransactionWithOpts(ctx, rawTx, txOpts)
	if err != nil {
		return common.Signature{}, n.wrapError("sendTransaction", err)
	}
	return common.Signature(sig), nil
}

func (n *RPCNode) GetTokenAccountBalance(
	ctx context.Context,
	addr common.Address,
	commitment common.Commitment,
) (common.TokenAmount, error) {
	ret, err := n.client.GetTokenAccountBalance(
		ctx,
		toPublicKey(addr),
		toRPCCommitment(commitment),
	)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return common.TokenAmount{}, common.ErrAccountNotFound
		}
		return common.TokenAmount{}, n.wrapError("getTokenAccountBalance", err)
	}
	if ret == nil || ret.Value == nil {
		return common.TokenAmount{}, common.ErrAccountNotFound
	}
	amount, err := strconv.ParseUint(ret.Value.Amount, 10, 64)
	if err != nil {
		return common.TokenAmount{}, fmt.Errorf(
			"invalid token amount %q: %w",
			ret.Value.Amount,
			err,
		)
	}
	return common.TokenAmount{
		Amount:   amount,
		Decimals: ret.Value.Decimals,
	}, nil
}

// wrapError converts node error responses to *RPCError and everything else
// except context cancellation to a NodeUnavailableError
func (n *RPCNode) wrapError(op string, err error) error {
	if errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		ret := &RPCError{
			Code:    rpcErr.Code,
			Message: rpcErr.Message,
		}
		if data, ok := rpcErr.Data.(map[string]any); ok {
			ret.Data = data
		}
		n.logger.Debug(
			"node returned error",
			"op", op,
			"code", ret.Code,
			"message", ret.Message,
		)
		return ret
	}
	n.logger.Debug("node request failed", "op", op, "error", err)
	return common.NodeUnavailableError{Op: op, Err: err}
}

func toPublicKey(addr common.Address) solana.PublicKey {
	return solana.PublicKeyFromBytes(addr[:])
}

func toRPCCommitment(c common.Commitment) rpc.CommitmentType {
	switch c {
	case common.CommitmentProcessed:
		return rpc.CommitmentProcessed
	case common.CommitmentFinalized:
		return rpc.CommitmentFinalized
	case common.CommitmentConfirmed:
		return rpc.CommitmentConfirmed
	default:
		return ""
	}
}

func fromConfirmationStatus(s rpc.ConfirmationStatusType) common.Commitment {
	switch s {
	case rpc.ConfirmationStatusProcessed:
		return common.CommitmentProcessed
	case rpc.ConfirmationStatusConfirmed:
		return common.CommitmentConfirmed
	case rpc.ConfirmationStatusFinalized:
		return common.CommitmentFinalized
	default:
		return common.CommitmentNone
	}
}
