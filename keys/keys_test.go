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

package keys_test

import (
	"crypto/ed25519"
	"crypto/sha512"
	"path/filepath"
	"testing"

	"github.com/blinklabs-io/solanatx/keys"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"
)

// Known addresses for seed phrases, computed with an independent PBKDF2 and
// ed25519 implementation
func TestKeypairFromSeedPhraseKnownAddress(t *testing.T) {
	testDefs := []struct {
		phrase     string
		passphrase string
		expected   string
	}{
		{
			phrase:   "test_wallet",
			expected: "43pyKY3ssdvfigsQM8d82TZbZygJdCmugaFoaN7ZWJe3",
		},
		{
			phrase:     "test_wallet",
			passphrase: "hunter2",
			expected:   "EbCZXcqY1DE5dVtH4UqwZDvtBfmo6SUCqozp1q6XigmM",
		},
	}
	for _, testDef := range testDefs {
		kp, err := keys.KeypairFromSeedPhrase(testDef.phrase, testDef.passphrase)
		require.NoError(t, err)
		assert.Equal(t, testDef.expected, kp.PublicAddress().String(), testDef.passphrase)
	}
}

func TestKeypairFromSeedPhrase(t *testing.T) {
	testDefs := []struct {
		phrase     string
		passphrase string
	}{
		{phrase: "test_wallet"},
		{phrase: "test_wallet", passphrase: "hunter2"},
		{phrase: "pill tomorrow foster begin walnut borrow virtual kick shift mutual shoe scatter"},
	}
	for _, testDef := range testDefs {
		kp, err := keys.KeypairFromSeedPhrase(testDef.phrase, testDef.passphrase)
		if err != nil {
			t.Fatalf("unexpected error deriving keypair: %s", err)
		}
		seed := pbkdf2.Key(
			[]byte(testDef.phrase),
			[]byte("mnemonic"+testDef.passphrase),
			2048,
			64,
			sha512.New,
		)
		expected := ed25519.NewKeyFromSeed(seed[:32])
		assert.Equal(t, []byte(expected), kp.PrivateKey())
		// Derivation is deterministic
		again, err := keys.KeypairFromSeedPhrase(testDef.phrase, testDef.passphrase)
		require.NoError(t, err)
		assert.Equal(t, kp.PublicAddress(), again.PublicAddress())
	}
	a, err := keys.KeypairFromSeedPhrase("test_wallet", "")
	require.NoError(t, err)
	b, err := keys.KeypairFromSeedPhrase("test_wallet", "other")
	require.NoError(t, err)
	assert.NotEqual(t, a.PublicAddress(), b.PublicAddress())
}

func TestKeypairSignVerify(t *testing.T) {
	kp, err := keys.NewKeypair()
	require.NoError(t, err)
	msg := []byte("message to sign")
	sig, err := kp.Sign(msg)
	require.NoError(t, err)
	assert.True(t, keys.Verify(kp.PublicAddress(), msg, sig))
	assert.False(t, keys.Verify(kp.PublicAddress(), []byte("other message"), sig))
	// solana-go agrees on the signature
	solKey := solana.PrivateKey(kp.PrivateKey())
	assert.Equal(t, kp.PublicAddress().String(), solKey.PublicKey().String())
	assert.True(t, solKey.PublicKey().Verify(msg, solana.SignatureFromBytes(sig[:])))
}

func TestKeypairFromSeedInvalid(t *testing.T) {
	_, err := keys.KeypairFromSeed([]byte{1, 2, 3})
	assert.Error(t, err)
	_, err = keys.KeypairFromPrivateKey(make([]byte, 10))
	assert.Error(t, err)
	// Private key half that does not match the public key half
	bad := make([]byte, ed25519.PrivateKeySize)
	bad[40] = 1
	_, err = keys.KeypairFromPrivateKey(bad)
	assert.Error(t, err)
}

func TestKeypairFile(t *testing.T) {
	kp, err := keys.NewKeypair()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, kp.WriteKeypairFile(path))
	loaded, err := keys.LoadKeypairFile(path)
	require.NoError(t, err)
	assert.Equal(t, kp.PublicAddress(), loaded.PublicAddress())
	_, err = keys.LoadKeypairFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
