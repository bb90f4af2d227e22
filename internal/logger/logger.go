package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const serviceName = "neowatch"

var (
	mu          sync.RWMutex
	base        zerolog.Logger
	initialized bool
)

// Init configures the global JSON logger on stdout.
//
// Environment variables (optional):
//   - LOG_LEVEL: debug|info|warn|error (default: info)
//   - LOG_PRETTY: true|false (default: false)
func Init() {
	InitWithWriter(os.Stdout)
}

// InitWithWriter is Init with a custom sink, mostly so tests can capture
// log lines.
func InitWithWriter(out io.Writer) {
	level := parseLevel(getenv("LOG_LEVEL", "info"))
	pretty := strings.EqualFold(getenv("LOG_PRETTY", "false"), "true")

	zerolog.TimeFieldFormat = time.RFC3339Nano
	w := out
	if pretty {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	l := zerolog.New(w).With().Timestamp().Str("service", serviceName).Logger().Level(level)

	mu.Lock()
	base = l
	initialized = true
	mu.Unlock()
}

// L returns the global logger, initializing it from the environment on first
// use.
func L() *zerolog.Logger {
	mu.RLock()
	ready := initialized
	l := base
	mu.RUnlock()
	if ready {
		return &l
	}

	Init()
	mu.RLock()
	l = base
	mu.RUnlock()
	return &l
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error", "err":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
