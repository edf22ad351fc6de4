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

package common

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestAddressChecksum(t *testing.T) {
	// EIP-55 reference vectors.
	for _, want := range []string{
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
		"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
	} {
		if got := HexToAddress(strings.ToLower(want)).Hex(); got != want {
			t.Errorf("checksum mismatch: got %s, want %s", got, want)
		}
	}
}

func TestParseAddress(t *testing.T) {
	if _, err := ParseAddress("0x1234"); err == nil {
		t.Fatal("expected error for short address")
	}
	a, err := ParseAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	if err != nil {
		t.Fatal(err)
	}
	enc, _ := json.Marshal(a)
	var back Address
	if err := json.Unmarshal(enc, &back); err != nil {
		t.Fatal(err)
	}
	if back != a {
		t.Fatalf("json round trip: got %v, want %v", back, a)
	}
}

func TestAccountBech32(t *testing.T) {
	var a Account
	for i := range a {
		a[i] = byte(i)
	}
	s := a.String()
	if !strings.HasPrefix(s, AccountHRP+"1") {
		t.Fatalf("unexpected prefix: %s", s)
	}
	back, err := ParseAccount(s)
	if err != nil {
		t.Fatal(err)
	}
	if back != a {
		t.Fatalf("round trip: got %x, want %x", back, a)
	}
	if _, err := ParseAccount("0x" + Bytes2Hex(a[:])); err == nil {
		t.Fatal("hex must not parse as account")
	}
}
