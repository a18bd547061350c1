package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version returns the module version stamped by `go install`, or "(devel)".
func Version() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}

// String is the one-line banner printed by `embeddemo version`.
func String() string {
	return fmt.Sprintf("embeddemo %s (%s, %s/%s)", Version(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
