package routelog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

var (
	// output is swapped by ReloadLogger while Zero keeps writing through it.
	output = atomic.NewPointer(os.Stdout)
	// Zero is never reassigned after init, so routing goroutines may read it
	// while the level or the destination changes.
	Zero = newZeroLogger()
)

type swapWriter struct{}

func (swapWriter) Write(p []byte) (int, error) {
	return output.Load().Write(p)
}

func newZeroLogger() *zerolog.Logger {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	console := zerolog.ConsoleWriter{Out: swapWriter{}, TimeFormat: time.RFC3339}
	logger := zerolog.New(console).With().Timestamp().Logger()

	return &logger
}

// NewJSONLogger is used by tests and tooling that want machine-readable output.
func NewJSONLogger(w io.Writer, level string) *zerolog.Logger {
	logger := zerolog.New(w).With().Timestamp().Logger().Level(parseLevel(level))
	return &logger
}

// UpdateZeroLogLevel changes the process wide level atomically.
func UpdateZeroLogLevel(logLevel string) error {
	zerolog.SetGlobalLevel(parseLevel(logLevel))
	return nil
}

func Level() zerolog.Level {
	return zerolog.GlobalLevel()
}

// ReloadLogger reopens the log destination, keeping the current level.
func ReloadLogger(filepath string) {
	if filepath == "" {
		return
	}
	f := newWriter(filepath)
	old := output.Swap(f)
	if old != os.Stdout && old != f {
		_ = old.Close()
	}
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
