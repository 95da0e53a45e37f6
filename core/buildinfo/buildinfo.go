package buildinfo

// Set at link time:
//
//	-X 'github.com/m3rciful/salonbot/core/buildinfo.Version=v1.0.0'
//	-X 'github.com/m3rciful/salonbot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/salonbot/core/buildinfo.Date=2026-10-01T12:00:00Z'
var (
	// Version reports the release tag of the build.
	Version = "dev"
	// Commit reports the source commit of the build.
	Commit = "local"
	// Date reports the build timestamp in RFC3339 format.
	Date = ""
)
