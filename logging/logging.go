/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package logging defines the logging interface portolan components report
// through, with a zerolog-backed implementation for the CLI.
package logging

import (
	"io"

	"github.com/rs/zerolog"
)

// Logger reports non-fatal conditions during resolution and reconciliation.
// Implementations must tolerate being called with a nil receiver guard at the
// call site; library code treats a nil Logger as "no logging".
type Logger interface {
	Warning(format string, args ...any)
	Debug(format string, args ...any)
}

// ZerologLogger implements Logger on top of a zerolog.Logger.
type ZerologLogger struct {
	log zerolog.Logger
}

// New creates a console logger writing to w. When verbose is false, debug
// messages are suppressed.
func New(w io.Writer, verbose bool) *ZerologLogger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: w}).
		Level(level).
		With().Timestamp().Logger()
	return &ZerologLogger{log: log}
}

func (l *ZerologLogger) Warning(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Debug(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}
