package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Version is the current version of the report tool
	Version = "1.0.0"

	// DataFormatVersion is the version of the exported CSV and workbook layout
	DataFormatVersion = "v1"
)

// Set during build using ldflags
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo contains detailed version information
type VersionInfo struct {
	Version      string `json:"version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	DataFormat   string `json:"data_format"`
}

// GetVersionInfo returns detailed version information
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:      Version,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		DataFormat:   DataFormatVersion,
	}
}

// GetFullVersionString returns a one-line version banner.
func GetFullVersionString() string {
	info := GetVersionInfo()
	return fmt.Sprintf("mortgage-report v%s (built: %s, commit: %s, go: %s, os: %s/%s, format: %s)",
		info.Version, info.BuildTime, info.GitCommit, info.GoVersion, info.OS, info.Architecture, info.DataFormat)
}
