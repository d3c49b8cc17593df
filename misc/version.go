// Package misc keeps build time information.
package misc

// Set by linker, see build scripts.
var (
	appName    = "fsp"
	appVersion = "dev"
	gitHash    = "unknown"
)

// GetAppName returns short program name.
func GetAppName() string {
	return appName
}

// GetVersion returns program version.
func GetVersion() string {
	return appVersion
}

// GetGitHash returns hash of the commit program was built from.
func GetGitHash() string {
	return gitHash
}
