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

package common

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/blinklabs-io/solanatx"
	lcommon "github.com/blinklabs-io/solanatx/ledger/common"
)

const (
	EnvRpcUrl         = "RPC_URL"
	DefaultSeedPhrase = "test_wallet"
)

type GlobalFlags struct {
	Flagset     *flag.FlagSet
	RpcUrl      string
	Cluster     string
	SeedPhrase  string
	Passphrase  string
	KeypairFile string
	Commitment  string
	Debug       bool
}

func NewGlobalFlags() *GlobalFlags {
	f := &GlobalFlags{
		Flagset: flag.NewFlagSet(os.Args[0], flag.ExitOnError),
	}
	f.Flagset.StringVar(
		&f.RpcUrl,
		"rpc-url",
		"",
		"JSON-RPC endpoint of the node (defaults to $"+EnvRpcUrl+")",
	)
	f.Flagset.StringVar(
		&f.Cluster,
		"cluster",
		"devnet",
		"specifies the cluster that the node is participating in",
	)
	f.Flagset.StringVar(
		&f.SeedPhrase,
		"seed-phrase",
		DefaultSeedPhrase,
		"seed phrase used to derive the payer keypair",
	)
	f.Flagset.StringVar(
		&f.Passphrase,
		"passphrase",
		"",
		"passphrase for the seed phrase",
	)
	f.Flagset.StringVar(
		&f.KeypairFile,
		"keypair-file",
		"",
		"keypair file to load the payer from. this overrides the -seed-phrase option",
	)
	f.Flagset.StringVar(
		&f.Commitment,
		"commitment",
		"confirmed",
		"commitment level to wait for (processed, confirmed or finalized)",
	)
	f.Flagset.BoolVar(&f.Debug, "debug", false, "enable debug logging")
	return f
}

func (f *GlobalFlags) Parse() {
	if err := f.Flagset.Parse(os.Args[1:]); err != nil {
		fmt.Printf("failed to parse command args: %s\n", err)
		os.Exit(1)
	}
	if solanatx.ClusterByName(f.Cluster) == solanatx.ClusterInvalid {
		fmt.Printf("Invalid cluster specified: %s\n", f.Cluster)
		os.Exit(1)
	}
	if _, err := lcommon.ParseCommitment(f.Commitment); err != nil {
		fmt.Printf("Invalid commitment specified: %s\n", f.Commitment)
		os.Exit(1)
	}
	if f.RpcUrl == "" {
		f.RpcUrl = os.Getenv(EnvRpcUrl)
	}
	if f.RpcUrl == "" {
		fmt.Printf("You must specify -rpc-url or set %s\n\n", EnvRpcUrl)
		f.Flagset.PrintDefaults()
		os.Exit(1)
	}
}

// TargetCommitment returns the parsed -commitment value
func (f *GlobalFlags) TargetCommitment() lcommon.Commitment {
	// Already validated in Parse
	commitment, _ := lcommon.ParseCommitment(f.Commitment)
	return commitment
}

// Logger returns a text logger on stderr
func (f *GlobalFlags) Logger() *slog.Logger {
	level := slog.LevelInfo
	if f.Debug {
		level = slog.LevelDebug
	}
	return slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	)
}
