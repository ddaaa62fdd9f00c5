// Package version holds build metadata injected at link time.
package version

import (
	"fmt"
	"runtime"
)

// Populated via -ldflags "-X github.com/vantle/sibyl/pkg/version.GitVersion=...".
var (
	GitVersion = "v0.0.0-master+$Format:%h$"
	GitCommit  = "$Format:%H$"
	BuildDate  = "1970-01-01T00:00:00Z"
)

// Info is the reportable version payload.
type Info struct {
	GitVersion string `json:"gitVersion"`
	GitCommit  string `json:"gitCommit"`
	BuildDate  string `json:"buildDate"`
	GoVersion  string `json:"goVersion"`
	Compiler   string `json:"compiler"`
	Platform   string `json:"platform"`
}

// Get returns the build metadata of the running binary.
func Get() Info {
	return Info{
		GitVersion: GitVersion,
		GitCommit:  GitCommit,
		BuildDate:  BuildDate,
		GoVersion:  runtime.Version(),
		Compiler:   runtime.Compiler,
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns the short human-readable version.
func (i Info) String() string {
	return i.GitVersion
}
