// Copyright 2014 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

// Package xlog is a small structured logger in the shape of go-ethereum's
// log package: leveled, key/value records, call-site annotated, with
// terminal-aware color formatting. It exists so the rest of this module
// never reaches for fmt.Println for anything but final CSV/report output.
package xlog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/go-stack/stack"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Level mirrors the standard log15/go-ethereum severities.
type Level int

const (
	LvlCrit Level = iota
	LvlError
	LvlWarn
	LvlInfo
	LvlDebug
	LvlTrace
)

func (l Level) String() string {
	switch l {
	case LvlCrit:
		return "CRIT"
	case LvlError:
		return "ERROR"
	case LvlWarn:
		return "WARN"
	case LvlInfo:
		return "INFO"
	case LvlDebug:
		return "DEBUG"
	default:
		return "TRACE"
	}
}

var levelColor = map[Level]color.Attribute{
	LvlCrit:  color.FgMagenta,
	LvlError: color.FgRed,
	LvlWarn:  color.FgYellow,
	LvlInfo:  color.FgGreen,
	LvlDebug: color.FgCyan,
	LvlTrace: color.FgWhite,
}

// Logger is a leveled, context-carrying logger. The zero value is not usable;
// construct one with New or use the package-level Root.
type Logger struct {
	ctx   []interface{}
	out   io.Writer
	color bool
	mu    *sync.Mutex
	min   *Level
}

var (
	rootMu  sync.Mutex
	rootMin = LvlInfo
)

// Root is the default logger, with no context, writing to stderr.
func Root() *Logger {
	return &Logger{out: defaultWriter(), color: isTerminal(), mu: &rootMu, min: &rootMin}
}

func defaultWriter() io.Writer {
	return colorable.NewColorable(os.Stderr)
}

func isTerminal() bool {
	return isatty.IsTerminal(os.Stderr.Fd())
}

// SetLevel adjusts the minimum level the root logger (and all children
// derived from it) will emit.
func SetLevel(l Level) {
	rootMu.Lock()
	defer rootMu.Unlock()
	rootMin = l
}

// New returns a child logger carrying ctx in addition to the receiver's
// existing context, e.g. xlog.Root().New("peer", id).
func (l *Logger) New(ctx ...interface{}) *Logger {
	merged := make([]interface{}, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	merged = append(merged, ctx...)
	return &Logger{ctx: merged, out: l.out, color: l.color, mu: l.mu, min: l.min}
}

func (l *Logger) write(lvl Level, skip int, msg string, ctx []interface{}) {
	if lvl > *l.min {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	call := stack.Caller(skip)
	line := fmt.Sprintf("%+v", call)

	label := lvl.String()
	if l.color {
		label = color.New(levelColor[lvl]).Sprint(label)
	}
	fmt.Fprintf(l.out, "%-5s[%s] %s", label, time.Now().Format("15:04:05.000"), msg)
	all := make([]interface{}, 0, len(l.ctx)+len(ctx))
	all = append(all, l.ctx...)
	all = append(all, ctx...)
	for i := 0; i+1 < len(all); i += 2 {
		fmt.Fprintf(l.out, " %v=%v", all[i], all[i+1])
	}
	fmt.Fprintf(l.out, " caller=%s\n", line)
}

func (l *Logger) Trace(msg string, ctx ...interface{}) { l.write(LvlTrace, 3, msg, ctx) }
func (l *Logger) Debug(msg string, ctx ...interface{}) { l.write(LvlDebug, 3, msg, ctx) }
func (l *Logger) Info(msg string, ctx ...interface{})  { l.write(LvlInfo, 3, msg, ctx) }
func (l *Logger) Warn(msg string, ctx ...interface{})  { l.write(LvlWarn, 3, msg, ctx) }
func (l *Logger) Error(msg string, ctx ...interface{}) { l.write(LvlError, 3, msg, ctx) }

// Crit logs at the highest severity and terminates the process, matching
// go-ethereum's log.Crit semantics (used only for invariant violations,
// spec §7 "Logical assertion failures").
func (l *Logger) Crit(msg string, ctx ...interface{}) {
	l.write(LvlCrit, 3, msg, ctx)
	os.Exit(1)
}
