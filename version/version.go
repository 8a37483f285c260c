// Package version identifies the SDK release.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the SDK release version. Bumped on every tagged release.
const Version = "0.4.0"

// Info represents version information.
type Info struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetVersionInfo returns version information for diagnostics.
func GetVersionInfo() *Info {
	info := &Info{
		Version:   Version,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
	if buildInfo, ok := debug.ReadBuildInfo(); ok && buildInfo.GoVersion != "" {
		info.GoVersion = buildInfo.GoVersion
	}
	return info
}

// UserAgent returns the default User-Agent value stamped on SDK requests,
// in the form "veldt-sdk-go/0.4.0 (go1.26.0; linux/amd64)".
func UserAgent() string {
	info := GetVersionInfo()
	return fmt.Sprintf("veldt-sdk-go/%s (%s; %s/%s)", info.Version, info.GoVersion, info.OS, info.Arch)
}
