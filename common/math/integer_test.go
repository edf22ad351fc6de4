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

package math

import (
	gomath "math"
	"testing"
)

func TestOverflow(t *testing.T) {
	for i, test := range []struct {
		x, y     uint64
		overflow bool
		op       func(x, y uint64) (uint64, bool)
	}{
		{gomath.MaxUint64, 1, true, SafeAdd},
		{gomath.MaxUint64 - 1, 1, false, SafeAdd},
		{gomath.MaxUint64, 2, true, SafeMul},
		{gomath.MaxUint64 / 3, 3, false, SafeMul},
		{1 << 32, 1 << 32, true, SafeMul},
	} {
		if _, overflow := test.op(test.x, test.y); overflow != test.overflow {
			t.Errorf("test %d: overflow = %v, want %v", i, overflow, test.overflow)
		}
	}
	if _, overflow := SafeAdd32(gomath.MaxUint32, 1); !overflow {
		t.Error("expected uint32 overflow")
	}
	if v, overflow := SafeAdd16(gomath.MaxUint16-1, 1); overflow || v != gomath.MaxUint16 {
		t.Errorf("SafeAdd16 = %d, %v", v, overflow)
	}
}
