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
	"errors"

	"github.com/btcsuite/btcd/btcec"
	"github.com/paperclip-protocol/go-paperclip/common"
)

const (
	// MaxSeeds is the maximum number of seeds of one program address.
	MaxSeeds = 16
	// MaxSeedLength is the maximum length of one seed.
	MaxSeedLength = 32
)

var (
	ErrMaxSeedLengthExceeded = errors.New("length of the seed is too long for address generation")
	ErrInvalidSeeds          = errors.New("provided seeds do not result in a valid address")
)

var pdaMarker = []byte("ProgramDerivedAddress")

// CreateProgramAddress derives the account key owned by program for the
// given seeds. Keys that are also valid curve points could be signed for by
// someone and are rejected.
func CreateProgramAddress(program common.Account, seeds ...[]byte) (common.Account, error) {
	if len(seeds) > MaxSeeds {
		return common.Account{}, ErrMaxSeedLengthExceeded
	}
	d := NewKeccakState()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return common.Account{}, ErrMaxSeedLengthExceeded
		}
		d.Write(seed)
	}
	d.Write(program[:])
	d.Write(pdaMarker)

	var addr common.Account
	d.Read(addr[:])
	if isOnCurve(addr[:]) {
		return common.Account{}, ErrInvalidSeeds
	}
	return addr, nil
}

// FindProgramAddress searches the bump seed, starting at 255 and counting
// down, that yields the first valid program address.
func FindProgramAddress(program common.Account, seeds ...[]byte) (common.Account, uint8) {
	bumped := make([][]byte, len(seeds)+1)
	copy(bumped, seeds)
	for bump := 255; bump >= 0; bump-- {
		bumped[len(seeds)] = []byte{byte(bump)}
		if addr, err := CreateProgramAddress(program, bumped...); err == nil {
			return addr, uint8(bump)
		}
	}
	// Each bump has roughly even odds, exhausting all 256 does not happen.
	panic("unable to find a viable program address bump seed")
}

func isOnCurve(x []byte) bool {
	_, err := btcec.ParsePubKey(append([]byte{0x02}, x...), btcec.S256())
	return err == nil
}
