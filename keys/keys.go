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

// Package keys provides ed25519 keypairs that satisfy common.Signer
package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/blinklabs-io/solanatx/ledger/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	seedPhraseRounds     = 2048
	seedPhraseSaltPrefix = "mnemonic"
)

// Keypair is an ed25519 keypair
type Keypair struct {
	privateKey ed25519.PrivateKey
	address    common.Address
}

var _ common.Signer = (*Keypair)(nil)

// NewKeypair generates a random keypair
func NewKeypair() (*Keypair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return newKeypair(priv), nil
}

// KeypairFromSeed returns the keypair for a 32-byte ed25519 seed
func KeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf(
			"invalid seed length: expected %d bytes, got %d",
			ed25519.SeedSize,
			len(seed),
		)
	}
	return newKeypair(ed25519.NewKeyFromSeed(seed)), nil
}

// KeypairFromPrivateKey returns the keypair for a 64-byte ed25519 private
// key, as stored in CLI keypair files
func KeypairFromPrivateKey(key []byte) (*Keypair, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf(
			"invalid private key length: expected %d bytes, got %d",
			ed25519.PrivateKeySize,
			len(key),
		)
	}
	kp := newKeypair(ed25519.NewKeyFromSeed(key[:ed25519.SeedSize]))
	if !kp.privateKey.Equal(ed25519.PrivateKey(key)) {
		return nil, errors.New("private key does not match its public key")
	}
	return kp, nil
}

// KeypairFromSeedPhrase derives a keypair from a seed phrase and optional
// passphrase. The phrase is stretched with PBKDF2-HMAC-SHA512 and the first
// 32 bytes of the result are used as the ed25519 seed. The phrase is not
// checked against any word list
func KeypairFromSeedPhrase(phrase string, passphrase string) (*Keypair, error) {
	seed := pbkdf2.Key(
		[]byte(phrase),
		[]byte(seedPhraseSaltPrefix+passphrase),
		seedPhraseRounds,
		64,
		sha512.New,
	)
	return KeypairFromSeed(seed[:ed25519.SeedSize])
}

// LoadKeypairFile reads a keypair file containing a JSON array of the 64
// private key bytes
func LoadKeypairFile(path string) (*Keypair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var keyBytes []byte
	var tmp []int
	if err := json.Unmarshal(data, &tmp); err != nil {
		return nil, fmt.Errorf("failed to parse keypair file %s: %w", path, err)
	}
	for _, b := range tmp {
		if b < 0 || b > 255 {
			return nil, fmt.Errorf("invalid byte value in keypair file %s: %d", path, b)
		}
		keyBytes = append(keyBytes, byte(b))
	}
	return KeypairFromPrivateKey(keyBytes)
}

// WriteKeypairFile writes the keypair in the format read by LoadKeypairFile
func (k *Keypair) WriteKeypairFile(path string) error {
	tmp := make([]int, len(k.privateKey))
	for i, b := range k.privateKey {
		tmp[i] = int(b)
	}
	data, err := json.Marshal(tmp)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func newKeypair(priv ed25519.PrivateKey) *Keypair {
	var addr common.Address
	copy(addr[:], priv.Public().(ed25519.PublicKey))
	return &Keypair{
		privateKey: priv,
		address:    addr,
	}
}

// PublicAddress returns the address of the keypair
func (k *Keypair) PublicAddress() common.Address {
	return k.address
}

// Sign signs the message with the private key
func (k *Keypair) Sign(message []byte) (common.Signature, error) {
	return common.NewSignature(ed25519.Sign(k.privateKey, message)), nil
}

// PrivateKey returns a copy of the raw private key
func (k *Keypair) PrivateKey() []byte {
	ret := make([]byte, len(k.privateKey))
	copy(ret, k.privateKey)
	return ret
}

// Verify checks an ed25519 signature against an address
func Verify(addr common.Address, message []byte, sig common.Signature) bool {
	return ed25519.Verify(ed25519.PublicKey(addr[:]), message, sig[:])
}
