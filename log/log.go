// Copyright 2016 The go-core Authors
// This file is part of the go-core library.
//
// The go-core library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-core library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-core library. If not, see <http://www.gnu.org/licenses/>.

// Package log is a minimal structured, leveled logger in the key/value
// call style used throughout the engine: log.Debug("message", "key", val).
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/go-stack/stack"
	"github.com/mattn/go-colorable"
)

type Lvl int

const (
	LvlError Lvl = iota
	LvlWarn
	LvlInfo
	LvlDebug
	LvlTrace
)

func (l Lvl) String() string {
	switch l {
	case LvlError:
		return "ERROR"
	case LvlWarn:
		return "WARN"
	case LvlInfo:
		return "INFO"
	case LvlDebug:
		return "DEBUG"
	case LvlTrace:
		return "TRACE"
	default:
		return "?????"
	}
}

func (l Lvl) color() color.Attribute {
	switch l {
	case LvlError:
		return color.FgRed
	case LvlWarn:
		return color.FgYellow
	case LvlInfo:
		return color.FgGreen
	case LvlDebug:
		return color.FgCyan
	default:
		return color.FgWhite
	}
}

// Logger writes leveled, key/value log lines. The zero value is not usable;
// construct one with New.
type Logger struct {
	mu     sync.Mutex
	out    io.Writer
	lvl    Lvl
	color  bool
	caller bool
	ctx    []interface{}
}

var root = New(os.Stderr, LvlInfo)

// New returns a Logger writing to w, filtering everything above lvl.
func New(w io.Writer, lvl Lvl) *Logger {
	out := w
	if f, isFile := w.(*os.File); isFile {
		out = colorable.NewColorable(f)
	}
	return &Logger{
		out:    out,
		lvl:    lvl,
		color:  true,
		caller: true,
	}
}

// SetOutput redirects the root logger's output, e.g. to a file configured
// from the CLI.
func SetOutput(w io.Writer) { root.mu.Lock(); root.out = w; root.mu.Unlock() }

// SetLevel sets the minimum level the root logger emits.
func SetLevel(lvl Lvl) { root.mu.Lock(); root.lvl = lvl; root.mu.Unlock() }

// New returns a derived logger that always includes the given context pairs.
func (l *Logger) New(ctx ...interface{}) *Logger {
	child := &Logger{out: l.out, lvl: l.lvl, color: l.color, caller: l.caller}
	child.ctx = append(append([]interface{}{}, l.ctx...), ctx...)
	return child
}

func (l *Logger) write(lvl Lvl, msg string, ctx []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lvl > l.lvl {
		return
	}
	line := color.New(lvl.color()).Sprintf("%-5s", lvl.String())
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(l.out, "%s[%s] %s", line, ts, msg)
	all := append(append([]interface{}{}, l.ctx...), ctx...)
	for i := 0; i+1 < len(all); i += 2 {
		fmt.Fprintf(l.out, " %v=%v", all[i], all[i+1])
	}
	if l.caller {
		fmt.Fprintf(l.out, " caller=%v", stack.Caller(2))
	}
	fmt.Fprintln(l.out)
}

func (l *Logger) Error(msg string, ctx ...interface{}) { l.write(LvlError, msg, ctx) }
func (l *Logger) Warn(msg string, ctx ...interface{})  { l.write(LvlWarn, msg, ctx) }
func (l *Logger) Info(msg string, ctx ...interface{})  { l.write(LvlInfo, msg, ctx) }
func (l *Logger) Debug(msg string, ctx ...interface{}) { l.write(LvlDebug, msg, ctx) }
func (l *Logger) Trace(msg string, ctx ...interface{}) { l.write(LvlTrace, msg, ctx) }

// Package-level convenience functions delegate to the root logger, mirroring
// the call sites that simply do log.Debug(...) without holding a Logger.
func Error(msg string, ctx ...interface{}) { root.Error(msg, ctx...) }
func Warn(msg string, ctx ...interface{})  { root.Warn(msg, ctx...) }
func Info(msg string, ctx ...interface{})  { root.Info(msg, ctx...) }
func Debug(msg string, ctx ...interface{}) { root.Debug(msg, ctx...) }
func Trace(msg string, ctx ...interface{}) { root.Trace(msg, ctx...) }

// NewContext constructs a context-bound child of the root logger.
func NewContext(ctx ...interface{}) *Logger { return root.New(ctx...) }
