package version

import "fmt"

// ServerName is announced as serverInfo.name during initialize.
const ServerName = "file-manager-server"

// ClientName is sent as clientInfo.name by the session driver.
const ClientName = "simple-mcp-client"

// Build-time variables. Override via -ldflags "-X .../internal/version.Version=1.2.3".
var (
	Version   = "1.0.0"
	Commit    = "dev"
	BuildDate = "dev"
)

// Info describes build/version metadata.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
}

// Get returns version info. An empty version falls back to "dev".
func Get() Info {
	return Info{
		Version:   defaultOr(Version, "dev"),
		Commit:    defaultOr(Commit, "dev"),
		BuildDate: defaultOr(BuildDate, "dev"),
	}
}

// String renders the info for banners, e.g. "1.0.0 (commit abc123, built 2025-01-02)".
func (i Info) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", i.Version, i.Commit, i.BuildDate)
}

func defaultOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
