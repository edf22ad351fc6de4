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
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/paperclip-protocol/go-paperclip/common/bech32"
	"golang.org/x/crypto/sha3"
)

// Lengths of hashes and identities in bytes.
const (
	// HashLength is the expected length of a keccak256 hash
	HashLength = 32
	// AddressLength is the expected length of a contract-ledger address
	AddressLength = 20
	// AccountLength is the expected length of an account-ledger key
	AccountLength = 32
)

// AccountHRP is the human-readable part for Bech32-encoded account keys.
const AccountHRP = "clip"

var (
	errBadAddress = errors.New("invalid hex address")
	errBadAccount = errors.New("invalid account key")
)

// Hash represents the 32 byte Keccak256 hash of arbitrary data.
type Hash [HashLength]byte

// BytesToHash sets b to hash.
// If b is larger than len(h), b will be cropped from the left.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// HexToHash sets byte representation of s to hash.
func HexToHash(s string) Hash { return BytesToHash(FromHex(s)) }

// Bytes gets the byte representation of the underlying hash.
func (h Hash) Bytes() []byte { return h[:] }

// Hex converts a hash to a hex string.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

// TerminalString returns a shortened form for console logs.
func (h Hash) TerminalString() string {
	return fmt.Sprintf("%x..%x", h[:3], h[29:])
}

// String implements the stringer interface.
func (h Hash) String() string { return h.Hex() }

// SetBytes sets the hash to the value of b.
// If b is larger than len(h), b will be cropped from the left.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > len(h) {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

// MarshalText returns the hex representation of h.
func (h Hash) MarshalText() ([]byte, error) { return []byte(h.Hex()), nil }

// UnmarshalText parses a hash in hex syntax.
func (h *Hash) UnmarshalText(input []byte) error {
	b := FromHex(string(input))
	if len(b) != HashLength {
		return fmt.Errorf("invalid hash length %d", len(b))
	}
	copy(h[:], b)
	return nil
}

// Address is the 20 byte identity of a participant on the contract ledger.
type Address [AddressLength]byte

// BytesToAddress returns Address with value b.
// If b is larger than len(a), b will be cropped from the left.
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// HexToAddress returns Address with byte values of s.
func HexToAddress(s string) Address { return BytesToAddress(FromHex(s)) }

// ParseAddress is the strict form of HexToAddress.
func ParseAddress(s string) (Address, error) {
	if !IsHexAddress(s) {
		return Address{}, fmt.Errorf("%w: %q", errBadAddress, s)
	}
	return HexToAddress(s), nil
}

// IsHexAddress verifies whether a string can represent a valid hex-encoded address.
func IsHexAddress(s string) bool {
	if has0xPrefix(s) {
		s = s[2:]
	}
	return len(s) == 2*AddressLength && isHex(s)
}

// Bytes gets the byte representation of the underlying address.
func (a Address) Bytes() []byte { return a[:] }

// Hash converts an address to a hash by left-padding it with zeros.
func (a Address) Hash() Hash { return BytesToHash(a[:]) }

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool { return a == Address{} }

// Hex returns the EIP-55 checksummed representation of the address.
func (a Address) Hex() string {
	buf := make([]byte, 2+2*AddressLength)
	copy(buf, "0x")
	hex.Encode(buf[2:], a[:])

	sha := sha3.NewLegacyKeccak256()
	sha.Write(buf[2:])
	hash := sha.Sum(nil)
	for i := 2; i < len(buf); i++ {
		nibble := hash[(i-2)/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0xf
		}
		if buf[i] > '9' && nibble > 7 {
			buf[i] -= 32
		}
	}
	return string(buf)
}

// String implements fmt.Stringer.
func (a Address) String() string { return a.Hex() }

// SetBytes sets the address to the value of b.
// If b is larger than len(a), b will be cropped from the left.
func (a *Address) SetBytes(b []byte) {
	if len(b) > len(a) {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

// MarshalText returns the checksummed hex representation of a.
func (a Address) MarshalText() ([]byte, error) { return []byte(a.Hex()), nil }

// UnmarshalText parses an address in hex syntax.
func (a *Address) UnmarshalText(input []byte) error {
	addr, err := ParseAddress(string(input))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// Account is the 32 byte key of an account on the account ledger. Wallet
// identities and derived program accounts share this type.
type Account [AccountLength]byte

// BytesToAccount returns Account with value b, cropped from the left.
func BytesToAccount(b []byte) Account {
	var a Account
	if len(b) > AccountLength {
		b = b[len(b)-AccountLength:]
	}
	copy(a[AccountLength-len(b):], b)
	return a
}

// ParseAccount parses a Bech32 (clip1...) encoded account key.
func ParseAccount(s string) (Account, error) {
	hrp, data, err := bech32.Decode(s)
	if err != nil {
		return Account{}, fmt.Errorf("%w: %v", errBadAccount, err)
	}
	if hrp != AccountHRP {
		return Account{}, fmt.Errorf("%w: hrp %q, want %q", errBadAccount, hrp, AccountHRP)
	}
	if len(data) != AccountLength {
		return Account{}, fmt.Errorf("%w: length %d", errBadAccount, len(data))
	}
	return BytesToAccount(data), nil
}

// Bytes gets the byte representation of the underlying key.
func (a Account) Bytes() []byte { return a[:] }

// IsZero reports whether a is the zero key.
func (a Account) IsZero() bool { return a == Account{} }

// String returns the Bech32 form of the key.
func (a Account) String() string {
	s, err := bech32.Encode(AccountHRP, a[:])
	if err != nil {
		return "0x" + hex.EncodeToString(a[:])
	}
	return s
}

// TerminalString returns a shortened form for console logs.
func (a Account) TerminalString() string {
	s := a.String()
	return s[:10] + ".." + s[len(s)-6:]
}

// MarshalText returns the Bech32 representation of a.
func (a Account) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText parses a Bech32 account key.
func (a *Account) UnmarshalText(input []byte) error {
	acc, err := ParseAccount(string(input))
	if err != nil {
		return err
	}
	*a = acc
	return nil
}

// Less orders accounts bytewise.
func (a Account) Less(b Account) bool { return bytes.Compare(a[:], b[:]) < 0 }
