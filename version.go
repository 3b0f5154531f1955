package main

import (
	"os/exec"
	"runtime/debug"
	"strings"
	"time"
)

// Set with -ldflags "-X main.commit=... -X main.buildDate=..." in release builds.
var (
	commit    = "dev"
	buildDate = ""
)

// resolveBuild fills commit and buildDate from the embedded VCS stamp, then
// from git, then from the clock.
func resolveBuild() (string, string) {
	rev, date := commit, buildDate
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Value == "" {
				continue
			}
			switch s.Key {
			case "vcs.revision":
				if rev == "dev" {
					rev = short(s.Value)
				}
			case "vcs.time":
				if t, err := time.Parse(time.RFC3339, s.Value); err == nil && date == "" {
					date = t.Format(time.DateOnly)
				}
			}
		}
	}
	if rev == "dev" {
		if out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output(); err == nil {
			rev = strings.TrimSpace(string(out))
		}
	}
	if date == "" {
		date = time.Now().Format(time.DateOnly)
	}
	return rev, date
}

func short(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}
