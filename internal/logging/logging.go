package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New configures the global logger to write JSON to the given file and
// returns a closer for it. The terminal belongs to the TUI, so logs never go
// to stdout; an empty file path discards them.
//
// The level parameter can be one of: debug, info, warn, error, fatal.
func New(level string, file string) (func(), error) {
	closer := func() {}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return closer, err
	}

	var writer = zerolog.Nop()
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return closer, fmt.Errorf("create logs dir: %w", err)
		}
		osFile, err := os.Create(file)
		if err != nil {
			return closer, err
		}
		closer = func() { _ = osFile.Close() }
		log.Logger = zerolog.New(osFile).With().Timestamp().Logger().Level(lvl)
		return closer, nil
	}

	log.Logger = writer
	return closer, nil
}

// DefaultFile is where logs land when no --log-file is given.
func DefaultFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".", ".data", "revq.log")
	}
	return filepath.Join(dir, "revq", "revq.log")
}

// Component creates a new logger with a component identifier.
// Uses the "cmp" key for consistency with zerolog conventions.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}
