// Package platform exposes the host platform identity used for entry
// filtering and asset URL templating.
package platform

import "runtime"

type Platform struct {
	System string
	Arch   string
}

// Detect maps the Go runtime identifiers onto the platform names used in
// entry whitelists (e.g. "linux_x86_64", "darwin_arm64", "windows_x86").
func Detect() Platform {
	system := runtime.GOOS
	arch := runtime.GOARCH
	switch arch {
	case "amd64":
		arch = "x86_64"
	case "386":
		arch = "x86"
	case "arm":
		arch = "armv7"
	}
	return Platform{System: system, Arch: arch}
}

// Name returns the canonical "<system>_<arch>" identifier matched against
// an entry's platform whitelist.
func (p Platform) Name() string {
	return p.System + "_" + p.Arch
}
