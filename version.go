package pagetl

import (
	"runtime/debug"
	"sync"
)

const (
	Name    = "pagetl"
	Version = "0.2.0"
)

// Set with -ldflags "-X github.com/ZaguanLabs/pagetl.GitCommit=...".
// When left unset, the VCS stamp of the main module is used if present.
var (
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var stampOnce sync.Once

func readVCSStamp() {
	if GitCommit != "unknown" && GitCommit != "" {
		return
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			GitCommit = s.Value
		case "vcs.time":
			if BuildDate == "unknown" {
				BuildDate = s.Value
			}
		}
	}
}

// FullVersion is Version with the short commit appended when it is known,
// e.g. "0.2.0+3f9c2ab".
func FullVersion() string {
	stampOnce.Do(readVCSStamp)
	if GitCommit == "unknown" || GitCommit == "" {
		return Version
	}
	short := GitCommit
	if len(short) > 7 {
		short = short[:7]
	}
	return Version + "+" + short
}

// UserAgent identifies outbound backend requests.
func UserAgent() string {
	return Name + "/" + FullVersion()
}
