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

package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestTerminalHandler(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(NewTerminalHandler(&buf, LevelTrace, false))
	l.New("ledger", "account").Trace("applied instruction", "name", "submit_proof")

	out := buf.String()
	for _, want := range []string{"level=TRACE", "ledger=account", "name=submit_proof", "applied instruction"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(NewTerminalHandler(&buf, slog.LevelWarn, false))
	l.Info("hidden")
	l.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestCallerHandler(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&callerHandler{NewTerminalHandler(&buf, slog.LevelInfo, false)})
	l.Error("boom")
	if !strings.Contains(buf.String(), "caller=logger_test.go") {
		t.Fatalf("missing call site in %q", buf.String())
	}
}
