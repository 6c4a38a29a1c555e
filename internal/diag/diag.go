// Package diag builds the diagnostic logger. Diagnostics are free text, one
// line per event, written to stderr or to a secondary serial line.
package diag

import (
	"fmt"
	"io"
	"os"

	"github.com/tarm/serial"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Baud is the diagnostic serial line rate.
const Baud = 57600

// New builds the diagnostic logger. With an empty device it writes to
// stderr. The returned func flushes the logger and closes the device.
func New(device string, debug bool) (*zap.SugaredLogger, func() error, error) {
	if device == "" {
		log := build(zapcore.Lock(os.Stderr), debug, "\n")
		// Sync on a terminal stderr fails with EINVAL on Linux; ignore it.
		return log, func() error { _ = log.Sync(); return nil }, nil
	}

	port, err := serial.OpenPort(&serial.Config{Name: device, Baud: Baud})
	if err != nil {
		return nil, nil, fmt.Errorf("open diagnostic port %s: %w", device, err)
	}
	// Serial terminals expect CRLF.
	log := build(zapcore.AddSync(port), debug, "\r\n")
	return log, func() error {
		_ = log.Sync()
		return port.Close()
	}, nil
}

// NewWriter builds a diagnostic logger that writes to w.
func NewWriter(w io.Writer, debug bool) *zap.SugaredLogger {
	return build(zapcore.AddSync(w), debug, "\n")
}

func build(ws zapcore.WriteSyncer, debug bool, lineEnding string) *zap.SugaredLogger {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.CallerKey = ""
	cfg.StacktraceKey = ""
	cfg.LineEnding = lineEnding

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), ws, level)
	return zap.New(core).Sugar()
}
