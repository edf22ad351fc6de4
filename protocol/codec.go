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

package protocol

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	TitleLength   = 32 // fixed on-ledger title width
	PointerLength = 64 // fixed on-ledger content pointer width
)

// EncodeTitle NFC-normalizes a title and zero-pads it to TitleLength. Zero
// bytes are rejected since they would end the decoded title early.
func EncodeTitle(title string) ([TitleLength]byte, error) {
	var out [TitleLength]byte
	normalized := norm.NFC.String(title)
	if len(normalized) > TitleLength {
		return out, fmt.Errorf("%w: title is %d bytes, max %d", ErrInvalidInstruction, len(normalized), TitleLength)
	}
	if strings.IndexByte(normalized, 0) >= 0 {
		return out, fmt.Errorf("%w: title contains a zero byte", ErrInvalidInstruction)
	}
	copy(out[:], normalized)
	return out, nil
}

// DecodeTitle strips the zero padding from an encoded title.
func DecodeTitle(b []byte) string {
	return string(trimZero(b))
}

// EncodePointer zero-pads a content pointer to PointerLength.
func EncodePointer(ptr string) ([PointerLength]byte, error) {
	var out [PointerLength]byte
	if len(ptr) > PointerLength {
		return out, fmt.Errorf("%w: content pointer is %d bytes, max %d", ErrInvalidInstruction, len(ptr), PointerLength)
	}
	if strings.IndexByte(ptr, 0) >= 0 {
		return out, fmt.Errorf("%w: content pointer contains a zero byte", ErrInvalidInstruction)
	}
	copy(out[:], ptr)
	return out, nil
}

// DecodePointer strips the zero padding from an encoded content pointer.
func DecodePointer(b []byte) string {
	return string(trimZero(b))
}

func trimZero(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return b[:i]
	}
	return b
}
