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
	"fmt"
	"log/slog"
	"os"

	"github.com/blinklabs-io/solanatx"
	"github.com/blinklabs-io/solanatx/keys"
)

func CreateClient(f *GlobalFlags, logger *slog.Logger) *solanatx.Client {
	client, err := solanatx.New(
		solanatx.WithEndpoint(f.RpcUrl),
		solanatx.WithCluster(solanatx.ClusterByName(f.Cluster)),
		solanatx.WithCommitment(f.TargetCommitment()),
		solanatx.WithLogger(logger),
	)
	if err != nil {
		fmt.Printf("ERROR: failed to create client: %s\n", err)
		os.Exit(1)
	}
	return client
}

func LoadSigner(f *GlobalFlags) *keys.Keypair {
	var kp *keys.Keypair
	var err error
	if f.KeypairFile != "" {
		kp, err = keys.LoadKeypairFile(f.KeypairFile)
	} else {
		kp, err = keys.KeypairFromSeedPhrase(f.SeedPhrase, f.Passphrase)
	}
	if err != nil {
		fmt.Printf("ERROR: failed to load keypair: %s\n", err)
		os.Exit(1)
	}
	return kp
}
