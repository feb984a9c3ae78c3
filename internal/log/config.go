package log

import (
	"io"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Format is the encoding of log records
type Format int

const (
	// FormatJSON writes one JSON object per record
	FormatJSON Format = iota
	// FormatText writes logfmt-style key=value records
	FormatText
)

// String returns the string representation of the format
func (f Format) String() string {
	if f == FormatText {
		return "text"
	}
	return "json"
}

// ParseFormat parses a format name; unknown names fall back to JSON.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "console", "logfmt":
		return FormatText
	default:
		return FormatJSON
	}
}

// Rotation bounds a log file written through lumberjack
type Rotation struct {
	MaxSizeMB  int  // megabytes before the file is rotated
	MaxBackups int  // rotated files to keep
	MaxAgeDays int  // days to keep rotated files
	Compress   bool // gzip rotated files
}

// Config holds configuration for the logger
type Config struct {
	Level  Level
	Format Format

	// Output receives records when FilePath is empty
	Output io.Writer

	// FilePath, when set, sends records to a rotating file instead of Output
	FilePath string
	Rotation Rotation

	AddSource bool

	ServiceName    string
	ServiceVersion string
}

// DefaultConfig logs at INFO in JSON to stderr, keeping stdout free for
// plan output.
func DefaultConfig() Config {
	return Config{
		Level:          LevelInfo,
		Format:         FormatJSON,
		Output:         os.Stderr,
		Rotation:       DefaultRotation(),
		ServiceName:    "agentplan",
		ServiceVersion: "dev",
	}
}

// DevelopmentConfig logs at DEBUG in text with source locations
func DevelopmentConfig() Config {
	cfg := DefaultConfig()
	cfg.Level = LevelDebug
	cfg.Format = FormatText
	cfg.AddSource = true
	return cfg
}

// DefaultRotation returns the rotation used when none is configured
func DefaultRotation() Rotation {
	return Rotation{MaxSizeMB: 50, MaxBackups: 5, MaxAgeDays: 14, Compress: true}
}

// writer resolves where records go. A configured file path wins over Output.
func (c Config) writer() io.Writer {
	if c.FilePath != "" {
		return &lumberjack.Logger{
			Filename:   c.FilePath,
			MaxSize:    c.Rotation.MaxSizeMB,
			MaxBackups: c.Rotation.MaxBackups,
			MaxAge:     c.Rotation.MaxAgeDays,
			Compress:   c.Rotation.Compress,
		}
	}
	if c.Output == nil {
		return os.Stderr
	}
	return c.Output
}
