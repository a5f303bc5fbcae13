package version

// Build variables set via ldflags:
// -X 'github.com/compozy/docchunk/pkg/version.Version=v1.0.0'
// -X 'github.com/compozy/docchunk/pkg/version.CommitHash=abc123'
// -X 'github.com/compozy/docchunk/pkg/version.BuildDate=2024-01-01T00:00:00Z'
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// Info is the build information of the binary.
type Info struct {
	Version    string `json:"version"`
	CommitHash string `json:"commit_hash"`
	BuildDate  string `json:"build_date"`
}

// Get returns the current build information
func Get() Info {
	return Info{
		Version:    Version,
		CommitHash: CommitHash,
		BuildDate:  BuildDate,
	}
}
