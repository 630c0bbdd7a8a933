package msquic

import (
	"log/slog"
	"time"

	"github.com/OkutaniDaichi0106/gomsquic/msquic/internal/native"
)

// Config contains the options used by Open.
type Config struct {
	// LibraryPath is the path of the msquic shared library.
	// If empty, the platform default name is resolved by the loader.
	LibraryPath string

	// AppName identifies the registration in library traces.
	// If empty, "gomsquic" is used.
	AppName string

	ExecutionProfile ExecutionProfile

	// Logger receives lifecycle and callback failure records.
	// If nil, nothing is logged.
	Logger *slog.Logger
}

func (c *Config) libraryPath() string {
	if c != nil && c.LibraryPath != "" {
		return c.LibraryPath
	}
	return native.DefaultLibraryPath()
}

func (c *Config) appName() string {
	if c != nil && c.AppName != "" {
		return c.AppName
	}
	return "gomsquic"
}

func (c *Config) executionProfile() ExecutionProfile {
	if c != nil {
		return c.ExecutionProfile
	}
	return ExecutionProfileLowLatency
}

func (c *Config) logger() *slog.Logger {
	if c != nil {
		return c.Logger
	}
	return nil
}

// Clone creates a copy of the Config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	return &Config{
		LibraryPath:      c.LibraryPath,
		AppName:          c.AppName,
		ExecutionProfile: c.ExecutionProfile,
		Logger:           c.Logger,
	}
}

// SessionConfig contains the options used by Registration.OpenSessionConfig.
// Zero values leave the library defaults in place.
type SessionConfig struct {
	// ALPN is the application protocol negotiated by every connection of the session.
	ALPN string

	PeerBidiStreamCount  uint16
	PeerUnidiStreamCount uint16

	// IdleTimeout is applied with millisecond granularity.
	IdleTimeout time.Duration

	// DisconnectTimeout is applied with millisecond granularity.
	DisconnectTimeout time.Duration
}

// Clone creates a copy of the SessionConfig.
func (c *SessionConfig) Clone() *SessionConfig {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}
