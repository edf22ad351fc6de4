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

package core

import "errors"

var (
	// ErrOversizedData is returned if the instruction data of a transaction is
	// larger than the ledger accepts.
	ErrOversizedData = errors.New("oversized data")

	// ErrEmptyData is returned if a transaction carries no instruction.
	ErrEmptyData = errors.New("empty instruction data")

	// ErrChainClosed is returned by operations on a closed chain.
	ErrChainClosed = errors.New("chain closed")
)
