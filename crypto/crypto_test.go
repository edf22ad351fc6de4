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
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/paperclip-protocol/go-paperclip/common"
)

func TestKeccak256Hash(t *testing.T) {
	msg := []byte("abc")
	exp, _ := hex.DecodeString("4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45")
	if h := Keccak256Hash(msg); !bytes.Equal(exp, h[:]) {
		t.Fatalf("hash mismatch: want: %x have: %x", exp, h)
	}
}

func TestSignRecover(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	digest := Keccak256([]byte("submit_proof"))
	sig, err := Sign(digest, key)
	if err != nil {
		t.Fatal(err)
	}
	if len(sig) != SignatureLength {
		t.Fatalf("signature length %d", len(sig))
	}
	pub, err := SigToPub(digest, sig)
	if err != nil {
		t.Fatal(err)
	}
	if PubkeyToAddress(pub) != PubkeyToAddress(key.PubKey()) {
		t.Fatal("recovered address mismatch")
	}
	if PubkeyToAccount(pub) != PubkeyToAccount(key.PubKey()) {
		t.Fatal("recovered account mismatch")
	}
	if _, err := SigToPub(digest, sig[:64]); err == nil {
		t.Fatal("expected error on short signature")
	}
}

func TestKeyFromMnemonic(t *testing.T) {
	mnemonic, err := NewMnemonic()
	if err != nil {
		t.Fatal(err)
	}
	k1, err := KeyFromMnemonic(mnemonic, "")
	if err != nil {
		t.Fatal(err)
	}
	k2, err := KeyFromMnemonic(mnemonic, "")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(k1.Serialize(), k2.Serialize()) {
		t.Fatal("mnemonic derivation is not deterministic")
	}
	if _, err := KeyFromMnemonic("not a valid mnemonic", ""); err == nil {
		t.Fatal("expected error on invalid mnemonic")
	}
}

func TestFindProgramAddress(t *testing.T) {
	program := common.Account(Keccak256Hash([]byte("program")))
	a1, bump1 := FindProgramAddress(program, []byte("agent"), []byte{1, 2, 3})
	a2, bump2 := FindProgramAddress(program, []byte("agent"), []byte{1, 2, 3})
	if a1 != a2 || bump1 != bump2 {
		t.Fatal("derivation is not deterministic")
	}
	direct, err := CreateProgramAddress(program, []byte("agent"), []byte{1, 2, 3}, []byte{bump1})
	if err != nil {
		t.Fatal(err)
	}
	if direct != a1 {
		t.Fatal("bumped address mismatch")
	}
	if isOnCurve(a1[:]) {
		t.Fatal("program address lies on the curve")
	}
	other, _ := FindProgramAddress(program, []byte("agent"), []byte{1, 2, 4})
	if other == a1 {
		t.Fatal("distinct seeds collided")
	}
	if _, err := CreateProgramAddress(program, make([]byte, MaxSeedLength+1)); err != ErrMaxSeedLengthExceeded {
		t.Fatalf("expected seed length error, got %v", err)
	}
}

func TestLoadECDSA(t *testing.T) {
	tests := []struct {
		input string
		err   string
	}{
		// good
		{input: "0123456789012345678901234567890123456789012345678901234567890123"},
		{input: "0123456789012345678901234567890123456789012345678901234567890123\n"},
		{input: "0123456789012345678901234567890123456789012345678901234567890123\n\r"},
		{input: "0123456789012345678901234567890123456789012345678901234567890123\r\n"},
		{input: "0123456789012345678901234567890123456789012345678901234567890123\n\n"},
		{input: "0123456789012345678901234567890123456789012345678901234567890123\n\r"},
		// bad
		{
			input: "0123456789012345678901234567890123456789012345678901234567890123 ",
			err:   "key file too short, want 64 hex characters",
		},
		{
			input: "\n0123456789012345678901234567890123456789012345678901234567890123",
			err:   "key file too short, want 64 hex characters",
		},
		{
			input: "0123456789012345678901234567890123456789012345678901234567890123\n\n\n",
			err:   "key file too long, want 64 hex characters",
		},
		{
			input: "0123456789012345678901234567890123456789012345678901234567890123X",
			err:   "invalid character 'X' at end of key file",
		},
		{
			input: "012345678901234567890123456789012345678901234567890123456789012z",
			err:   "invalid hex character 'z' in private key",
		},
	}

	for _, test := range tests {
		f, err := os.CreateTemp("", "loadecdsa_test.*.txt")
		if err != nil {
			t.Fatal(err)
		}
		filename := f.Name()
		f.WriteString(test.input)
		f.Close()

		_, err = LoadECDSA(filename)
		switch {
		case err != nil && test.err == "":
			t.Fatalf("unexpected error for input %q:\n  %v", test.input, err)
		case err != nil && err.Error() != test.err:
			t.Fatalf("wrong error for input %q:\n  %v", test.input, err)
		case err == nil && test.err != "":
			t.Fatalf("LoadECDSA did not return error for input %q", test.input)
		}
		os.Remove(filename)
	}
}

func TestSaveECDSA(t *testing.T) {
	file := filepath.Join(t.TempDir(), "key")
	key, _ := GenerateKey()
	if err := SaveECDSA(file, key); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadECDSA(file)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(FromECDSA(key), FromECDSA(loaded)) {
		t.Fatal("loaded key not equal to saved key")
	}
}
