//
// Copyright 2026 Droidspaces contributors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Package logging provides the three-stream logging sink the rest of the
// runtime writes to: info ("[+]"), warn ("[!]") and error ("[-]"), each
// line CRLF terminated and colourised when the destination is a terminal.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

const (
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
	colorRed    = "\x1b[31m"
	colorReset  = "\x1b[0m"
)

// Formatter renders logrus entries as "[+] message\r\n" style lines,
// matching the ds_log/ds_warn/ds_error macros.
type Formatter struct {
	Color bool
}

func (f *Formatter) Format(e *logrus.Entry) ([]byte, error) {
	var prefix, color string
	switch e.Level {
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		prefix, color = "-", colorRed
	case logrus.WarnLevel:
		prefix, color = "!", colorYellow
	default:
		prefix, color = "+", colorGreen
	}

	var line string
	if f.Color {
		line = fmt.Sprintf("%s[%s%s%s]%s %s\r\n", "", color, prefix, colorReset, "", e.Message)
	} else {
		line = fmt.Sprintf("[%s] %s\r\n", prefix, e.Message)
	}
	return []byte(line), nil
}

// New builds a logger writing to w, colourising output only when w is a
// terminal. verbose raises the level to Debug.
func New(w io.Writer, verbose bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	color := false
	if f, ok := w.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	l.SetFormatter(&Formatter{Color: color})
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	return l
}

// Default returns a logger writing to stderr, used by code paths not
// reached through cmd/droidspaces (e.g. tests, library callers).
func Default() *logrus.Logger {
	return New(os.Stderr, false)
}
