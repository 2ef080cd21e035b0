// Package version carries the build identity reported by /healthz.
// The variables are overridden at build time via -ldflags.
package version

import "runtime"

var (
	Version   = "dev"            // ex: v0.1.0
	Commit    = "none"           // ex: abcd123
	BuildDate = "unknown"        // ex: 2025-08-11T18:42:00Z
	GoVersion = runtime.Version()
)
