// Package sysutil holds process-level helpers shared by the CLI commands.
package sysutil

import (
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
)

// ParseLogLevel maps a level name (case-insensitive) to a zerolog level.
// Unknown or empty values yield info.
func ParseLogLevel(lvl string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}

// SetLogLevel configures the global zerolog level from a level name.
func SetLogLevel(lvl string) {
	zerolog.SetGlobalLevel(ParseLogLevel(lvl))
}

// FirstNonEmpty returns the first value that is not blank, or "".
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// Version resolves the running version: an explicit override (e.g. set via
// -ldflags), then the main module version recorded by the Go toolchain, then
// "dev".
func Version(override string) string {
	var modVersion string
	if bi, ok := readBuildInfo(); ok && bi.Main.Version != "(devel)" {
		modVersion = bi.Main.Version
	}
	return FirstNonEmpty(override, modVersion, "dev")
}
