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

// Package bech32 implements the BIP-173 Bech32 encoding used to render
// account-ledger identities.
package bech32

import (
	"errors"
	"fmt"
	"strings"
)

const charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

// maxLength is the BIP-173 upper bound on an encoded string.
const maxLength = 90

var generator = [5]uint32{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}

var (
	errMixedCase    = errors.New("bech32: mixed case")
	errNoSeparator  = errors.New("bech32: missing separator")
	errBadChecksum  = errors.New("bech32: invalid checksum")
	errTooLong      = errors.New("bech32: string too long")
	errEmptyHRP     = errors.New("bech32: empty human-readable part")
	errNonZeroPad   = errors.New("bech32: non-zero padding")
	errInvalidPad   = errors.New("bech32: invalid padding")
	errShortPayload = errors.New("bech32: payload shorter than checksum")
)

func polymod(values []byte) uint32 {
	chk := uint32(1)
	for _, v := range values {
		top := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ uint32(v)
		for i, g := range generator {
			if (top>>uint(i))&1 == 1 {
				chk ^= g
			}
		}
	}
	return chk
}

func expandHRP(hrp string) []byte {
	out := make([]byte, 0, 2*len(hrp)+1)
	for i := 0; i < len(hrp); i++ {
		out = append(out, hrp[i]>>5)
	}
	out = append(out, 0)
	for i := 0; i < len(hrp); i++ {
		out = append(out, hrp[i]&31)
	}
	return out
}

func checksum(hrp string, data []byte) []byte {
	values := append(expandHRP(hrp), data...)
	values = append(values, 0, 0, 0, 0, 0, 0)
	mod := polymod(values) ^ 1
	sum := make([]byte, 6)
	for i := range sum {
		sum[i] = byte(mod>>uint(5*(5-i))) & 31
	}
	return sum
}

// Encode renders 8-bit data under the given human-readable part.
func Encode(hrp string, data []byte) (string, error) {
	if hrp == "" {
		return "", errEmptyHRP
	}
	conv, err := ConvertBits(data, 8, 5, true)
	if err != nil {
		return "", err
	}
	hrp = strings.ToLower(hrp)
	if len(hrp)+len(conv)+7 > maxLength {
		return "", errTooLong
	}
	var sb strings.Builder
	sb.Grow(len(hrp) + 7 + len(conv))
	sb.WriteString(hrp)
	sb.WriteByte('1')
	for _, d := range append(conv, checksum(hrp, conv)...) {
		sb.WriteByte(charset[d])
	}
	return sb.String(), nil
}

// Decode parses a Bech32 string into its human-readable part and 8-bit data.
func Decode(s string) (string, []byte, error) {
	if len(s) > maxLength {
		return "", nil, errTooLong
	}
	lower := strings.ToLower(s)
	if s != lower && s != strings.ToUpper(s) {
		return "", nil, errMixedCase
	}
	pos := strings.LastIndexByte(lower, '1')
	if pos < 1 {
		return "", nil, errNoSeparator
	}
	if pos+7 > len(lower) {
		return "", nil, errShortPayload
	}
	hrp, payload := lower[:pos], lower[pos+1:]
	data := make([]byte, len(payload))
	for i := 0; i < len(payload); i++ {
		idx := strings.IndexByte(charset, payload[i])
		if idx < 0 {
			return "", nil, fmt.Errorf("bech32: invalid character %q at %d", payload[i], i)
		}
		data[i] = byte(idx)
	}
	if polymod(append(expandHRP(hrp), data...)) != 1 {
		return "", nil, errBadChecksum
	}
	conv, err := ConvertBits(data[:len(data)-6], 5, 8, false)
	if err != nil {
		return "", nil, err
	}
	return hrp, conv, nil
}

// ConvertBits regroups data from one bit width to another.
func ConvertBits(data []byte, fromBits, toBits uint8, pad bool) ([]byte, error) {
	var (
		acc  uint32
		bits uint8
		maxv = uint32(1)<<toBits - 1
		out  = make([]byte, 0, len(data)*int(fromBits)/int(toBits)+1)
	)
	for _, v := range data {
		if uint32(v)>>fromBits != 0 {
			return nil, fmt.Errorf("bech32: value %d exceeds %d bits", v, fromBits)
		}
		acc = acc<<fromBits | uint32(v)
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			out = append(out, byte(acc>>bits&maxv))
		}
	}
	switch {
	case pad && bits > 0:
		out = append(out, byte(acc<<(toBits-bits)&maxv))
	case !pad && bits >= fromBits:
		return nil, errInvalidPad
	case !pad && acc<<(toBits-bits)&maxv != 0:
		return nil, errNonZeroPad
	}
	return out, nil
}
