// Package logging configures the process-wide structured logger and
// carries the panic-recovery helper every long-running goroutine defers.
package logging

import (
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
)

// New builds a zerolog.Logger for the given level/format, timestamped and
// tagged with the component name so multiple subsystems' log lines stay
// distinguishable once aggregated.
func New(level, format, component string) zerolog.Logger {
	var output io.Writer = os.Stdout
	if format == "pretty" {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	return zerolog.New(output).
		With().
		Timestamp().
		Caller().
		Str("component", component).
		Logger()
}

// RecoverPanic is deferred at the top of every long-running goroutine
// (connection command and reply loops, active expirer, OOM sampler) so a single bad
// command or race doesn't take the whole process down. It logs but does
// not exit.
func RecoverPanic(logger zerolog.Logger, goroutineName string) {
	if r := recover(); r != nil {
		logger.Error().
			Str("goroutine", goroutineName).
			Interface("panic_value", r).
			Str("stack_trace", string(debug.Stack())).
			Msg("goroutine panic recovered")
	}
}
