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

package solanatx

import (
	"log/slog"
	"time"

	"github.com/blinklabs-io/solanatx/ledger/common"
	"github.com/blinklabs-io/solanatx/node"
)

// ClientOptionFunc is a type that represents functions that modify the Client config
type ClientOptionFunc func(*Client)

// WithEndpoint specifies the node JSON-RPC endpoint. It takes precedence over
// the endpoint of the cluster
func WithEndpoint(endpoint string) ClientOptionFunc {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithCluster specifies the cluster, which provides the default endpoint and
// the airdrop policy
func WithCluster(cluster Cluster) ClientOptionFunc {
	return func(c *Client) {
		c.cluster = cluster
	}
}

// WithNode specifies an existing node to use instead of connecting to an
// endpoint. The node is not closed by Client.Close
func WithNode(n node.Node) ClientOptionFunc {
	return func(c *Client) {
		c.node = n
	}
}

// WithLogger specifies the logger to use. The default is slog.Default()
func WithLogger(logger *slog.Logger) ClientOptionFunc {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithCommitment specifies the commitment level used for reads, airdrops and
// preflight simulation
func WithCommitment(commitment common.Commitment) ClientOptionFunc {
	return func(c *Client) {
		c.commitment = commitment
	}
}

// WithRateLimit specifies the maximum number of requests per second sent to
// the endpoint
func WithRateLimit(rps int) ClientOptionFunc {
	return func(c *Client) {
		c.rateLimit = rps
	}
}

// WithHTTPTimeout specifies the timeout for each request to the endpoint
func WithHTTPTimeout(timeout time.Duration) ClientOptionFunc {
	return func(c *Client) {
		c.httpTimeout = timeout
	}
}

// WithHTTPHeaders specifies extra headers sent with every request
func WithHTTPHeaders(headers map[string]string) ClientOptionFunc {
	return func(c *Client) {
		c.httpHeaders = headers
	}
}

// WithPollInterval specifies the interval between signature status reads
func WithPollInterval(interval time.Duration) ClientOptionFunc {
	return func(c *Client) {
		c.pollInterval = interval
	}
}

// WithConfirmTimeout specifies how long to wait for a transaction to reach
// its target commitment
func WithConfirmTimeout(timeout time.Duration) ClientOptionFunc {
	return func(c *Client) {
		c.confirmTimeout = timeout
	}
}
