package types

import (
	"errors"
	"log/slog"
)

// Config holds the parameters for opening a store.
type Config struct {
	// DataDir is the application-private directory holding the database
	// file. It is created if it does not exist.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Logger receives store diagnostics. Nil means slog.Default().
	Logger *slog.Logger `json:"-" yaml:"-"`
}

// Config validation errors.
var (
	ErrDataDirEmpty = errors.New("data directory must not be empty")
)

// Validate checks that the Config is well-formed.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return ErrDataDirEmpty
	}
	return nil
}
