// Package build exposes build-time information about the binary.
// The values are injected via linker flags on release builds and fall
// back to development defaults otherwise.
package build

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Version returns the version of the binary.
func Version() string {
	return version
}

// Commit returns the Git commit hash at which the binary was built.
func Commit() string {
	return commit
}

// Date returns the date when the binary was built.
func Date() string {
	return date
}
