// Copyright 2026 The go-paperclip Authors
// This file is part of the go-paperclip library.
//
// The go-paperclip library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-paperclip library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-paperclip library. If not, see <http://www.gnu.org/licenses/>.

package crypto

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"math/big"
	"os"

	"github.com/btcsuite/btcd/btcec"
	"github.com/paperclip-protocol/go-paperclip/common"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/sha3"
)

// SignatureLength is the byte length of a compact recoverable signature.
const SignatureLength = 65

// DigestLength sets the signature digest exact length
const DigestLength = 32

var (
	ErrInvalidMnemonic  = errors.New("invalid mnemonic")
	errInvalidSignature = errors.New("invalid signature length")
	errInvalidDigest    = errors.New("invalid digest length")
)

// KeccakState wraps sha3.state. In addition to the usual hash methods, it also supports
// Read to get a variable amount of data from the hash state.
type KeccakState interface {
	hash.Hash
	Read([]byte) (int, error)
}

// NewKeccakState creates a new KeccakState
func NewKeccakState() KeccakState {
	return sha3.NewLegacyKeccak256().(KeccakState)
}

// Keccak256 calculates and returns the Keccak256 hash of the input data.
func Keccak256(data ...[]byte) []byte {
	b := make([]byte, 32)
	d := NewKeccakState()
	for _, b := range data {
		d.Write(b)
	}
	d.Read(b)
	return b
}

// Keccak256Hash calculates and returns the Keccak256 hash of the input data,
// converting it to an internal Hash data structure.
func Keccak256Hash(data ...[]byte) (h common.Hash) {
	d := NewKeccakState()
	for _, b := range data {
		d.Write(b)
	}
	d.Read(h[:])
	return h
}

// GenerateKey creates a fresh secp256k1 private key.
func GenerateKey() (*btcec.PrivateKey, error) {
	return btcec.NewPrivateKey(btcec.S256())
}

// ToECDSA creates a private key with the given D value.
func ToECDSA(d []byte) (*btcec.PrivateKey, error) {
	if len(d) != 32 {
		return nil, fmt.Errorf("invalid length %d, need 256 bits", len(d))
	}
	k := new(big.Int).SetBytes(d)
	if k.Sign() <= 0 || k.Cmp(btcec.S256().N) >= 0 {
		return nil, errors.New("invalid private key")
	}
	priv, _ := btcec.PrivKeyFromBytes(btcec.S256(), d)
	return priv, nil
}

// FromECDSA exports a private key into its 32 byte form.
func FromECDSA(priv *btcec.PrivateKey) []byte {
	if priv == nil {
		return nil
	}
	return priv.Serialize()
}

// HexToECDSA parses a hex encoded secp256k1 private key.
func HexToECDSA(hexkey string) (*btcec.PrivateKey, error) {
	b, err := hex.DecodeString(hexkey)
	if byteErr, ok := err.(hex.InvalidByteError); ok {
		return nil, fmt.Errorf("invalid hex character %q in private key", byte(byteErr))
	} else if err != nil {
		return nil, errors.New("invalid hex data for private key")
	}
	return ToECDSA(b)
}

// LoadECDSA loads a secp256k1 private key from the given file.
func LoadECDSA(file string) (*btcec.PrivateKey, error) {
	fd, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	r := bufio.NewReader(fd)
	buf := make([]byte, 64)
	n, err := readASCII(buf, r)
	if err != nil {
		return nil, err
	} else if n != len(buf) {
		return nil, fmt.Errorf("key file too short, want 64 hex characters")
	}
	if err := checkKeyFileEnd(r); err != nil {
		return nil, err
	}
	return HexToECDSA(string(buf))
}

// readASCII reads into 'buf', stopping when the buffer is full or
// when a non-printable control character is encountered.
func readASCII(buf []byte, r *bufio.Reader) (n int, err error) {
	for ; n < len(buf); n++ {
		buf[n], err = r.ReadByte()
		switch {
		case err == io.EOF || buf[n] < '!':
			return n, nil
		case err != nil:
			return n, err
		}
	}
	return n, nil
}

// checkKeyFileEnd skips over additional newlines at the end of a key file.
func checkKeyFileEnd(r *bufio.Reader) error {
	for i := 0; ; i++ {
		b, err := r.ReadByte()
		switch {
		case err == io.EOF:
			return nil
		case err != nil:
			return err
		case b != '\n' && b != '\r':
			return fmt.Errorf("invalid character %q at end of key file", b)
		case i >= 2:
			return errors.New("key file too long, want 64 hex characters")
		}
	}
}

// SaveECDSA saves a secp256k1 private key to the given file with
// restrictive permissions. The key data is saved hex-encoded.
func SaveECDSA(file string, key *btcec.PrivateKey) error {
	k := hex.EncodeToString(FromECDSA(key))
	return os.WriteFile(file, []byte(k), 0600)
}

// NewMnemonic returns a fresh 24 word BIP-39 mnemonic.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// KeyFromMnemonic derives the wallet key of a BIP-39 mnemonic. The seed is
// folded through keccak256 until it yields a valid scalar.
func KeyFromMnemonic(mnemonic, passphrase string) (*btcec.PrivateKey, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	d := Keccak256(seed, []byte("paperclip wallet"))
	for {
		if priv, err := ToECDSA(d); err == nil {
			return priv, nil
		}
		d = Keccak256(d)
	}
}

// Sign calculates a compact recoverable signature over digest.
func Sign(digest []byte, priv *btcec.PrivateKey) ([]byte, error) {
	if len(digest) != DigestLength {
		return nil, errInvalidDigest
	}
	return btcec.SignCompact(btcec.S256(), priv, digest, true)
}

// SigToPub returns the public key that created the given signature.
func SigToPub(digest, sig []byte) (*btcec.PublicKey, error) {
	if len(digest) != DigestLength {
		return nil, errInvalidDigest
	}
	if len(sig) != SignatureLength {
		return nil, errInvalidSignature
	}
	pub, _, err := btcec.RecoverCompact(btcec.S256(), sig, digest)
	return pub, err
}

// PubkeyToAddress derives the contract-ledger identity of a public key.
func PubkeyToAddress(pub *btcec.PublicKey) common.Address {
	return common.BytesToAddress(Keccak256(pub.SerializeUncompressed()[1:])[12:])
}

// PubkeyToAccount derives the account-ledger identity of a public key.
func PubkeyToAccount(pub *btcec.PublicKey) common.Account {
	return common.Account(Keccak256Hash(pub.SerializeCompressed()))
}

// DecompressPubkey parses a public key in the 33-byte compressed format.
func DecompressPubkey(pubkey []byte) (*btcec.PublicKey, error) {
	return btcec.ParsePubKey(pubkey, btcec.S256())
}

// CompressPubkey encodes a public key to the 33-byte compressed format.
func CompressPubkey(pubkey *btcec.PublicKey) []byte {
	return pubkey.SerializeCompressed()
}
