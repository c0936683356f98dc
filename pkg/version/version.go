package version

import (
	"fmt"
	"runtime"
)

// Version is the catalog release. Release builds set it with
// -ldflags "-X github.com/rubiojr/catalog/pkg/version.Version=x.y.z".
var Version = "1.0.0"

// API is the revision of the HTTP, websocket and MCP payloads. It changes
// only when a response shape does.
const API = "v1"

// Info describes the running build.
type Info struct {
	Version string `json:"version"`
	API     string `json:"api"`
	Go      string `json:"go"`
}

func Current() Info {
	return Info{Version: Version, API: API, Go: runtime.Version()}
}

func (i Info) String() string {
	return fmt.Sprintf("catalog %s (api %s, %s)", i.Version, i.API, i.Go)
}
