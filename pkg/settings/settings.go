// Package settings provides build metadata, per-invocation settings, and
// context helpers shared by the passage-complete CLI, servers and library.
package settings

import "time"

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "passage-complete"

// VersionInformation is populated at build time via ldflags and holds the
// commit hash, semantic version, and build timestamp of the running binary.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo holds metadata about the build, including the commit hash,
// build version, and build timestamp.
type VersionInfo struct {
	Commit       string
	BuildVersion string
	BuildTime    string
}

// Front names the surface a request came through.
type Front string

const (
	FrontCLI  Front = "cli"
	FrontLSP  Front = "lsp"
	FrontHTTP Front = "http"
	FrontAPI  Front = "api"
)

// Run holds the settings of one execution of the application.
type Run struct {
	MinLogLevel  int8
	Front        Front
	ConfigFile   string
	OutputFormat string
	IsQuiet      bool
	NoColor      bool
	ExitOnError  bool
	// RequestTimeout bounds a whole completion request when non-zero. The
	// pipeline itself never imposes one.
	RequestTimeout time.Duration
}

// NewCliParams returns the settings used by a CLI invocation before flags
// are applied.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel:  0,
		Front:        FrontCLI,
		OutputFormat: "table",
		ExitOnError:  true,
	}
}

// NewServerParams returns the settings used by the long-running fronts.
// Errors never exit the process there.
func NewServerParams(front Front) *Run {
	return &Run{
		MinLogLevel:  0,
		Front:        front,
		OutputFormat: "json",
		NoColor:      true,
	}
}
