// Package buildinfo holds version information injected at link time:
//
//	go build -ldflags "-X github.com/matzehuels/sketchcanvas/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/sketchcanvas/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/matzehuels/sketchcanvas/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/sketchcanvas
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String returns the build information on one line, as logged by serve.
func String() string {
	return fmt.Sprintf("%s (%s, %s)", Version, Commit, Date)
}

// Template returns the cobra version template.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s\ncommit %s, built %s\n", Version, Commit, Date)
}
