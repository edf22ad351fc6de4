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
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-stack/stack"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	slogmulti "github.com/samber/slog-multi"
)

// Config selects the handlers installed by Setup.
type Config struct {
	Level  slog.Level
	Caller bool      // attach the call site of warnings and errors
	JSON   io.Writer // optional structured sink, e.g. a log file
}

// Setup installs a root logger writing to the terminal and, optionally, a JSON sink.
func Setup(cfg Config) Logger {
	level := new(slog.LevelVar)
	level.Set(cfg.Level)

	var (
		out      io.Writer = os.Stderr
		useColor           = isatty.IsTerminal(os.Stderr.Fd())
	)
	if useColor {
		out = colorable.NewColorableStderr()
	}
	handlers := []slog.Handler{NewTerminalHandler(out, level, useColor)}
	if cfg.JSON != nil {
		handlers = append(handlers, slog.NewJSONHandler(cfg.JSON, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: replaceLevel(false),
		}))
	}
	var h slog.Handler = slogmulti.Fanout(handlers...)
	if cfg.Caller {
		h = &callerHandler{Handler: h}
	}
	l := NewLogger(h)
	SetDefault(l)
	return l
}

// NewTerminalHandler returns a human readable handler for console output.
func NewTerminalHandler(w io.Writer, level slog.Leveler, useColor bool) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevel(useColor),
	})
}

var levelColors = map[slog.Level]int{
	LevelTrace:      34,
	slog.LevelDebug: 36,
	slog.LevelInfo:  32,
	slog.LevelWarn:  33,
	slog.LevelError: 31,
	LevelCrit:       35,
}

func levelName(l slog.Level) string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelCrit:
		return "CRIT"
	}
	return l.String()
}

func replaceLevel(useColor bool) func([]string, slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		if a.Key != slog.LevelKey || len(groups) > 0 {
			return a
		}
		lvl, ok := a.Value.Any().(slog.Level)
		if !ok {
			return a
		}
		name := levelName(lvl)
		if useColor {
			name = fmt.Sprintf("\x1b[%dm%s\x1b[0m", levelColors[lvl], name)
		}
		return slog.String(a.Key, name)
	}
}

// callerHandler tags warnings and worse with the logging call site.
type callerHandler struct {
	slog.Handler
}

func (h *callerHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelWarn {
		r.AddAttrs(slog.String("caller", callSite()))
	}
	return h.Handler.Handle(ctx, r)
}

// callSite returns the first frame outside of this package's logger plumbing.
func callSite() string {
	for _, c := range stack.Trace().TrimRuntime() {
		f := c.Frame()
		base := filepath.Base(f.File)
		if filepath.Base(filepath.Dir(f.File)) == "log" && (base == "logger.go" || base == "handler.go") {
			continue
		}
		return fmt.Sprintf("%v", c)
	}
	return "unknown"
}

func (h *callerHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &callerHandler{h.Handler.WithAttrs(attrs)}
}

func (h *callerHandler) WithGroup(name string) slog.Handler {
	return &callerHandler{h.Handler.WithGroup(name)}
}
