package build

// Variables here are set at build time via ldflags.
var (
	ReleaseVersion = "UNKNOWN"
	GitCommit      = "UNKNOWN"
	BuildTime      = "UNKNOWN"
	GoVersion      = "UNKNOWN"
)
