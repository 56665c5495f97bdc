package logging

import (
	"io"
	"os"
	"strings"
)

// Config holds the logger settings as they appear in the service
// configuration.
type Config struct {
	// Level is the minimum level written: debug, info, warn, error, fatal.
	Level string
	// Format selects json or console output.
	Format string
	// Output is stdout, stderr, or a file path opened for append.
	Output string
}

// DefaultConfig returns the production defaults: info-level JSON on stderr.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "json",
		Output: "stderr",
	}
}

// NewLogger builds a Logger from cfg. A nil cfg means DefaultConfig().
func NewLogger(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	output, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}

	logger := New(ParseLevel(cfg.Level), output)
	switch strings.ToLower(cfg.Format) {
	case "console", "text":
		logger.console = true
	}
	return logger, nil
}

// ParseLevel maps a configuration string onto a LogLevel. Unknown strings
// fall back to info.
func ParseLevel(level string) LogLevel {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return DebugLevel
	case "INFO":
		return InfoLevel
	case "WARN":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	case "FATAL":
		return FatalLevel
	default:
		return InfoLevel
	}
}

// openOutput resolves the configured destination to a writer.
func openOutput(dest string) (io.Writer, error) {
	switch dest {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	default:
		return os.OpenFile(dest, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	}
}
