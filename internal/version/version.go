// Package version хранит сведения о сборке, заданные через -ldflags:
//
//	-X github.com/vladislavdragonenkov/webstore/internal/version.version=v1.2.0
package version

import (
	"fmt"
	"runtime/debug"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// BuildInfo описывает текущий бинарник.
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", b.Version, b.Commit, b.Date)
}

// Get возвращает сведения о сборке. Если commit не задан через ldflags,
// он берётся из VCS-меток, которые записывает go build.
func Get() BuildInfo {
	return resolve(debug.ReadBuildInfo)
}

func resolve(read func() (*debug.BuildInfo, bool)) BuildInfo {
	info := BuildInfo{Version: version, Commit: commit, Date: date}
	if info.Commit != "unknown" {
		return info
	}
	bi, ok := read()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Commit = s.Value
		case "vcs.time":
			if info.Date == "unknown" {
				info.Date = s.Value
			}
		}
	}
	return info
}

// GetVersion возвращает только версию.
func GetVersion() string { return version }

// UserAgent отправляется исходящими HTTP-клиентами.
func UserAgent() string { return "webstore-client/" + version }
